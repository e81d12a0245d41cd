// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the storage abstraction layer for ragbase.
//
// This package defines the repository interfaces the pipeline talks to: the
// vector store that holds indexed chunks and the session repository that
// persists conversation histories between process runs. Business logic
// depends on these interfaces only, so backends can be swapped without
// touching the ingestion, retrieval or answering code.
//
// # Repositories
//
//   - ChunkRepository: bulk upsert of chunks with their vectors and brute-force
//     similarity search, bound to a single collection name
//   - SessionRepository: save and restore conversation turns keyed by session id
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/docs-db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	chunks := badger.NewChunkRepository(backend, "documents")
//	err = chunks.Upsert(ctx, batch, vectors)
//	hits, err := chunks.Search(ctx, queryVector, 5)
//
// # Serialization
//
// Records are stored in a compact binary form produced with mus-go. See
// MarshalChunk and MarshalTurns.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
