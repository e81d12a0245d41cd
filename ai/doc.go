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


// Package ai provides abstractions for AI services used in ragbase.
//
// This package defines interfaces for the model collaborators of the pipeline:
// text embeddings, streamed answer generation and cross-encoder reranking. It
// follows the dependency inversion principle, allowing the ingestion,
// retrieval and answering code to depend on abstractions rather than
// concrete implementations.
//
// # Design Principles
//
// The package is designed around four key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Streams an answer for a Prompt as a lazy iter.Seq2
//   - Reranker: Reorders candidate passages by relevance to a query
//   - AIProvider: Aggregates Embedder and Generator for convenient initialization
//
// # Implementation Packages
//
//   - ai/ollama: Local provider using an Ollama server
//   - ai/openai: Remote provider using OpenAI-compatible APIs
//   - ai/langchain: langchaingo adapters shared by both providers
//   - ai/rerank: HTTP client for text-embeddings-inference style rerankers
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public provider constructors (ollama.NewProvider, openai.NewProvider) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := ollama.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockGenerator)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, Prompts, Reset, etc.).
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := ollama.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	for token, err := range provider.Generator().GenerateStream(ctx, ai.Prompt{Question: "Hi?"}) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(token)
//	}
package ai
