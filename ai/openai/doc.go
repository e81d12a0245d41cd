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


// Package openai provides the remote AI provider for OpenAI-compatible APIs.
//
// This package implements the ai.AIProvider interface using the langchaingo
// library to talk to OpenAI or any compatible service (Groq, vLLM, LocalAI,
// or Ollama's /v1 endpoint).
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithLocal(false),
//	    ai.WithRemote("https://api.groq.com/openai", apiKey, "llama-3.3-70b-versatile"), // /v1 added automatically
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "sample text")
//	for token, err := range provider.Generator().GenerateStream(ctx, prompt) {
//	    ...
//	}
package openai
