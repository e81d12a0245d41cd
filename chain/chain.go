package chain

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/poiesic/ragbase/ai"
	"github.com/poiesic/ragbase/core"
	"github.com/poiesic/ragbase/history"
)

// Retriever finds the chunks relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]*core.ScoredChunk, error)
}

// Chain composes retrieval, prompt assembly and generation.
// It is safe for concurrent use; concurrent calls share only the history store.
type Chain struct {
	retriever Retriever
	generator ai.Generator
	history   *history.Store
	trace     bool
	logger    *slog.Logger
}

// Option configures a Chain.
type Option func(*Chain) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithTracing logs every state transition at debug level.
func WithTracing(enabled bool) Option {
	return func(c *Chain) error {
		c.trace = enabled
		return nil
	}
}

// New creates a Chain.
func New(retriever Retriever, generator ai.Generator, store *history.Store, opts ...Option) (*Chain, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	if store == nil {
		return nil, ErrHistoryRequired
	}

	c := &Chain{
		retriever: retriever,
		generator: generator,
		history:   store,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "chain")
	return c, nil
}

// Ask answers question within the session sessionID.
//
// The returned sequence first yields an EventRetrievedContext, then zero or
// more EventAnswerToken events. A failure is yielded as the final element
// with a zero Event. Breaking out of the loop cancels the work in flight
// and appends nothing to the session.
func (c *Chain) Ask(ctx context.Context, question, sessionID string) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		c.enter(sessionID, StateStart)
		if strings.TrimSpace(question) == "" {
			yield(Event{}, ErrEmptyQuestion)
			return
		}

		c.enter(sessionID, StateRetrieving)
		chunks, err := c.retriever.Retrieve(ctx, question)
		if err != nil {
			c.logger.Error("retrieval failed", "session", sessionID, "err", err)
			if !errors.Is(err, core.ErrRetrievalFailed) {
				err = fmt.Errorf("%w: %w", core.ErrRetrievalFailed, err)
			}
			yield(Event{}, err)
			return
		}
		if !yield(Event{Kind: EventRetrievedContext, Chunks: chunks}, nil) {
			c.logger.Debug("answer abandoned", "session", sessionID, "state", StateRetrieving)
			return
		}

		c.enter(sessionID, StatePrompting)
		session := c.history.GetOrCreate(sessionID)
		prompt := ai.Prompt{
			System:   SystemPrompt(FormatContext(chunks)),
			History:  session.Turns(),
			Question: question,
		}

		c.enter(sessionID, StateGenerating)
		var answer strings.Builder
		for token, err := range c.generator.GenerateStream(ctx, prompt) {
			if err != nil {
				c.logger.Error("generation failed", "session", sessionID, "err", err)
				yield(Event{}, fmt.Errorf("%w: %w", core.ErrGenerationFailed, err))
				return
			}
			answer.WriteString(token)
			if !yield(Event{Kind: EventAnswerToken, Token: token}, nil) {
				c.logger.Debug("answer abandoned", "session", sessionID, "state", StateGenerating)
				return
			}
		}
		// A generator may stop quietly when its context ends.
		if err := ctx.Err(); err != nil {
			yield(Event{}, fmt.Errorf("%w: %w", core.ErrGenerationFailed, err))
			return
		}
		if strings.TrimSpace(answer.String()) == "" {
			yield(Event{}, fmt.Errorf("%w: %w", core.ErrGenerationFailed, ai.ErrEmptyResponse))
			return
		}

		if err := session.Append(core.HumanTurn(question), core.AssistantTurn(answer.String())); err != nil {
			yield(Event{}, err)
			return
		}
		c.enter(sessionID, StateDone)
	}
}

func (c *Chain) enter(sessionID string, state State) {
	if c.trace {
		c.logger.Debug("chain state", "session", sessionID, "state", state)
	}
}
