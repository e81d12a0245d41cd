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


// Package retrieval finds the chunks most relevant to a question.
//
// The Retriever type runs up to three stages:
//   - Similarity search: the query is embedded and the top K chunks are
//     fetched from the vector store
//   - Reranking (optional): a cross-encoder scores every (query, chunk) pair;
//     the final order is exactly the reranker's order, truncated to N
//   - Relevance filter (optional): chunks scoring below a threshold are dropped
//
// Failures of any collaborator are reported as core.ErrRetrievalFailed.
// A Monitor can observe each stage; NewLogMonitor traces them to a logger.
package retrieval
