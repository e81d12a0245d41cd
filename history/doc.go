// Package history keeps the conversation turns of every chat session.
//
// A Store maps opaque session ids to Sessions. The map lock is held only to
// look up or insert a session; every Session has its own mutex, so work on
// two different sessions never blocks. Each session keeps at most the
// configured number of turns, evicting the oldest first.
//
// A Store can be backed by a storage.SessionRepository: Load restores the
// persisted sessions at start, Flush writes the sessions changed since the
// last flush and Close flushes before detaching from the repository.
package history
