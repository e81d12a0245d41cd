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


// Package rerank is a client for cross-encoder reranking servers that speak
// the text-embeddings-inference /rerank protocol.
//
// The server receives the query with every candidate text and returns one
// relevance score per text. Results come back best first, each carrying the
// index of the text it scores.
//
// # Usage
//
//	client, err := rerank.New("http://localhost:8080", "BAAI/bge-reranker-base",
//	    rerank.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	ranked, err := client.Rerank(ctx, question, texts)
package rerank
