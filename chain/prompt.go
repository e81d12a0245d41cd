package chain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/poiesic/ragbase/core"
)

const systemPromptTemplate = `Objective:
You are an assistant that answers questions using only the contextual information provided below. Give accurate, concise and well structured answers, and say clearly when the context is not enough.

---

Instructions:

1. Use only the provided context:
   - Answer exclusively from the context below.
   - Do not add outside knowledge or assumptions.

2. Handle missing information:
   - If the context does not contain the answer, say exactly:
     "The answer cannot be found in the provided context."
   - Do not speculate or invent information.

3. Be concise:
   - Use at most three sentences unless the question calls for more detail.
   - Use bullet points or numbered lists when they help readability.

4. Respect the structure of the context:
   - Sources are ordered by relevance, the most relevant first.
   - Sources are separated by a horizontal rule (---). Treat each source as a standalone reference.
   - Combine information from several sources when useful, without repeating yourself.

5. Keep a neutral tone:
   - Stay factual and neutral, without personal opinions.
   - If the question is ambiguous, ask for clarification instead of guessing.

Context:
%s

Use markdown formatting where appropriate.
`

// SystemPrompt returns the system instruction carrying the given context block.
func SystemPrompt(context string) string {
	return fmt.Sprintf(systemPromptTemplate, context)
}

var linkPattern = regexp.MustCompile(`https?://\S+|www\.\S+`)

// RemoveLinks deletes every URL from text.
func RemoveLinks(text string) string {
	return linkPattern.ReplaceAllString(text, "")
}

// FormatContext renders chunks as one context block: each chunk's text
// followed by a "---" line, joined by newlines, with URLs removed.
func FormatContext(chunks []*core.ScoredChunk) string {
	parts := make([]string, 0, 2*len(chunks))
	for _, c := range chunks {
		parts = append(parts, c.Chunk.Text, "---")
	}
	return RemoveLinks(strings.Join(parts, "\n"))
}
