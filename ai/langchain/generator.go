package langchain

import (
	"context"
	"iter"
	"log/slog"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/core"
	"github.com/tmc/langchaingo/llms"
)

// Generator implements ai.Generator on top of a langchaingo chat model.
type Generator struct {
	model       llms.Model
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

var _ ai.Generator = (*Generator)(nil)

// NewGenerator wraps model with the sampling settings used for every call.
func NewGenerator(model llms.Model, temperature float64, maxTokens int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		logger:      logger.With("component", "generator"),
	}
}

// GenerateStream streams the model's answer fragment by fragment.
//
// The model runs on its own goroutine and hands each fragment over an
// unbuffered channel, so it never gets ahead of the consumer. Stopping the
// iteration cancels the request and waits for the goroutine to exit.
func (g *Generator) GenerateStream(ctx context.Context, prompt ai.Prompt) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var (
			tokens   = make(chan string)
			streamed bool
			resp     *llms.ContentResponse
			genErr   error
		)

		go func() {
			defer close(tokens)
			resp, genErr = g.model.GenerateContent(ctx, messages(prompt),
				llms.WithTemperature(g.temperature),
				llms.WithMaxTokens(g.maxTokens),
				llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
					if err := ctx.Err(); err != nil {
						return err
					}
					if len(chunk) == 0 {
						return nil
					}
					select {
					case tokens <- string(chunk):
						streamed = true
						return nil
					case <-ctx.Done():
						return ctx.Err()
					}
				}),
			)
		}()

		for token := range tokens {
			if !yield(token, nil) {
				cancel()
				for range tokens {
				}
				g.logger.Debug("generation stopped by consumer")
				return
			}
		}

		// tokens is closed, so the goroutine's writes are visible here.
		if genErr != nil {
			g.logger.Error("generation failed", "err", genErr)
			yield("", genErr)
			return
		}
		// Some backends ignore the streaming callback and only return the
		// full response.
		if !streamed && resp != nil && len(resp.Choices) > 0 && resp.Choices[0].Content != "" {
			yield(resp.Choices[0].Content, nil)
		}
	}
}

// messages converts a prompt into the langchaingo chat layout:
// system, history (oldest first), question.
func messages(prompt ai.Prompt) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(prompt.History)+2)
	if prompt.System != "" {
		msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, prompt.System))
	}
	for _, turn := range prompt.History {
		role := llms.ChatMessageTypeHuman
		if turn.Role == core.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, turn.Content))
	}
	return append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, prompt.Question))
}
