package mock

import (
	"context"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/poiesic/ragbase/ai"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// Tokens are streamed one at a time by the default behavior.
	Tokens []string

	// GenerateStreamFunc replaces the default behavior if set.
	GenerateStreamFunc func(ctx context.Context, prompt ai.Prompt) iter.Seq2[string, error]

	callCount atomic.Int64
	// streamed counts tokens actually handed to a consumer.
	streamed atomic.Int64
	// finished counts default streams that ran to the end.
	finished atomic.Int64

	mu      sync.Mutex
	prompts []ai.Prompt
}

var _ ai.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a generator that streams the given answer word by word.
func NewMockGenerator(answer string) *MockGenerator {
	return &MockGenerator{Tokens: splitKeepSpaces(answer)}
}

// GenerateStream records the prompt and streams Tokens.
func (m *MockGenerator) GenerateStream(ctx context.Context, prompt ai.Prompt) iter.Seq2[string, error] {
	m.callCount.Add(1)
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateStreamFunc != nil {
		return m.GenerateStreamFunc(ctx, prompt)
	}

	return func(yield func(string, error) bool) {
		for _, token := range m.Tokens {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(token, nil) {
				return
			}
			m.streamed.Add(1)
		}
		m.finished.Add(1)
	}
}

// CallCount returns the number of GenerateStream calls.
func (m *MockGenerator) CallCount() int {
	return int(m.callCount.Load())
}

// Streamed returns how many tokens consumers accepted.
func (m *MockGenerator) Streamed() int {
	return int(m.streamed.Load())
}

// Finished returns how many default streams were consumed to the end.
func (m *MockGenerator) Finished() int {
	return int(m.finished.Load())
}

// Prompts returns every prompt received, in call order.
func (m *MockGenerator) Prompts() []ai.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.Prompt(nil), m.prompts...)
}

// splitKeepSpaces splits s after each space so the pieces join back to s.
func splitKeepSpaces(s string) []string {
	if s == "" {
		return nil
	}
	return strings.SplitAfter(s, " ")
}
