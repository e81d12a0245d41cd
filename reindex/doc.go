// Package reindex re-embeds every stored chunk with the current embedder.
//
// Use it after switching embedding models: chunk text and metadata are left
// untouched, only the stored vectors change. Embedding calls are retried with
// exponential backoff and progress is reported to an io.Writer.
package reindex
