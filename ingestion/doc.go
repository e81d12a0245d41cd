// Package ingestion turns source files into indexed chunks.
//
// The Pipeline type manages the ingestion workflow for a batch of paths:
//   - Loading and splitting every document on a bounded worker pool
//   - Collecting per-document failures without aborting the batch
//   - Embedding every chunk and writing them to the store in one bulk write
//
// Workers pull the next path from a shared queue and write into their own
// slot of a preallocated result slice, so the aggregated chunk sequence
// follows the input path order regardless of completion order.
//
// Failures are reported through the core error taxonomy:
//   - core.ErrNoDocumentsIngested when every document failed
//   - core.ErrIndexWriteFailed when the bulk embed or upsert failed
//
// Re-ingesting a path replaces the chunks it produced previously.
//
// Watcher keeps a documents directory indexed by batching file system
// events and ingesting each batch.
package ingestion
