package badger

import (
	"encoding/binary"

	"github.com/poiesic/ragbase/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix = "chunk"
	chunkSourcePrefix = "chunksrc"
	sessionPrefix     = "session"
)

// makeChunkPrefix returns the prefix shared by every chunk of a collection.
func makeChunkPrefix(collection string) []byte {
	return []byte(chunkRecordPrefix + ":" + collection + ":")
}

// makeChunkKey generates a key for a chunk by ID.
// Format: prefix:collection:id
func makeChunkKey(collection string, id core.ID) []byte {
	prefix := makeChunkPrefix(collection)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeSourcePrefix generates a partial key for the source path index.
// Format: prefix:collection:source\x00
func makeSourcePrefix(collection, sourcePath string) []byte {
	return []byte(chunkSourcePrefix + ":" + collection + ":" + sourcePath + "\x00")
}

// makeSourceKey generates a composite key for the source path index.
// Format: prefix:collection:source\x00id
func makeSourceKey(collection, sourcePath string, id core.ID) []byte {
	prefix := makeSourcePrefix(collection, sourcePath)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// idFromKey extracts the trailing big-endian ID of a chunk or source key.
func idFromKey(key []byte) core.ID {
	if len(key) < 8 {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makeSessionKey generates a key for a stored conversation.
func makeSessionKey(sessionID string) []byte {
	return []byte(sessionPrefix + ":" + sessionID)
}
