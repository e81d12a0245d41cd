// Package langchain adapts langchaingo models to the ai interfaces.
//
// Both the local (Ollama) and the remote (OpenAI-compatible) providers build a
// langchaingo client and hand it to NewEmbedder and NewGenerator, so the
// streaming and batching behavior is identical whichever backend is chosen.
package langchain
