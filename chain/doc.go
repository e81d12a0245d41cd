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


// Package chain answers questions from retrieved context.
//
// Chain.Ask returns a lazy, single-pass iter.Seq2 of events. Nothing happens
// until the caller ranges over it; then, per call:
//
//	START -> RETRIEVING -> (RetrievedContext) -> PROMPTING -> GENERATING -> (AnswerToken...) -> DONE
//
// The retrieved chunks are formatted into one context block, most relevant
// first, each followed by a "---" rule, with URLs removed. The session's
// earlier turns sit between the system prompt and the new question.
//
// The question and the full answer are appended to the session only after
// the answer stream ends successfully. Breaking out of the loop or
// cancelling the context stops the generator promptly and leaves the
// session untouched. Failures are reported as core.ErrRetrievalFailed or
// core.ErrGenerationFailed.
package chain
