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


// Package chunker splits document text into bounded, overlapping chunks.
//
// Splitting runs in two stages. The semantic stage breaks the text into
// sentences, embeds each sentence together with its neighbours and places a
// boundary wherever the cosine distance between consecutive embeddings is an
// outlier: greater than the mean distance plus BreakpointAmount times the
// interquartile range. The bounded stage then cuts every semantic segment
// that is longer than MaxSize into windows of at most MaxSize, with Overlap
// units shared by adjacent windows.
//
// Sizes are measured in runes for StrategyCharacter and StrategyRecursive and
// in cl100k_base tokens for StrategyToken.
//
//	splitter, err := chunker.New(provider.Embedder(), chunker.DefaultConfig())
//	chunks, err := splitter.Split(ctx, "docs/guide.pdf", text)
package chunker
