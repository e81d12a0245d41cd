package config

import (
	"fmt"
	"strconv"
	"time"
)

// applyEnv overrides fields from the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	bindings := []struct {
		key string
		set func(string) error
	}{
		{"APP_HOME", stringVar(&c.Home)},
		{"RAGBASE_DATABASE_DIR", stringVar(&c.DatabaseDir)},
		{"RAGBASE_DOCUMENTS_DIR", stringVar(&c.DocumentsDir)},
		{"RAGBASE_COLLECTION", stringVar(&c.Collection)},
		{"RAGBASE_DEBUG", boolVar(&c.Debug)},
		{"RAGBASE_CONVERSATION_MESSAGES_LIMIT", intVar(&c.ConversationMessagesLimit)},

		{"RAGBASE_USE_LOCAL", boolVar(&c.Model.UseLocal)},
		{"RAGBASE_LOCAL_HOST", stringVar(&c.Model.LocalHost)},
		{"RAGBASE_LOCAL_MODEL", stringVar(&c.Model.LocalModel)},
		{"RAGBASE_REMOTE_HOST", stringVar(&c.Model.RemoteHost)},
		{"RAGBASE_REMOTE_MODEL", stringVar(&c.Model.RemoteModel)},
		{"OPENAI_API_KEY", stringVar(&c.Model.RemoteAPIKey)},
		{"GROQ_API_KEY", stringVar(&c.Model.RemoteAPIKey)},
		{"RAGBASE_REMOTE_API_KEY", stringVar(&c.Model.RemoteAPIKey)},
		{"RAGBASE_EMBEDDING_HOST", stringVar(&c.Model.EmbeddingHost)},
		{"RAGBASE_EMBEDDING_MODEL", stringVar(&c.Model.EmbeddingModel)},
		{"RAGBASE_RERANKER_HOST", stringVar(&c.Model.RerankerHost)},
		{"RAGBASE_RERANKER_MODEL", stringVar(&c.Model.RerankerModel)},
		{"RAGBASE_TEMPERATURE", floatVar(&c.Model.Temperature)},
		{"RAGBASE_MAX_TOKENS", intVar(&c.Model.MaxTokens)},

		{"RAGBASE_CHUNK_STRATEGY", stringVar(&c.Chunker.Strategy)},
		{"RAGBASE_CHUNK_SIZE", intVar(&c.Chunker.MaxSize)},
		{"RAGBASE_CHUNK_OVERLAP", intVar(&c.Chunker.Overlap)},

		{"RAGBASE_USE_RERANKER", boolVar(&c.Retriever.UseReranker)},
		{"RAGBASE_USE_CHAIN_FILTER", boolVar(&c.Retriever.UseFilter)},
		{"RAGBASE_TOP_K", intVar(&c.Retriever.TopK)},

		{"RAGBASE_WORKERS", intVar(&c.Ingestion.Workers)},
		{"RAGBASE_WATCH_DEBOUNCE", durationVar(&c.Ingestion.WatchDebounce)},
	}

	// Later bindings win, so RAGBASE_REMOTE_API_KEY beats GROQ_API_KEY,
	// which beats OPENAI_API_KEY.
	for _, b := range bindings {
		value, ok := lookup(b.key)
		if !ok || value == "" {
			continue
		}
		if err := b.set(value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, b.key, err)
		}
	}
	return nil
}

func stringVar(p *string) func(string) error {
	return func(v string) error {
		*p = v
		return nil
	}
}

func boolVar(p *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*p = b
		return nil
	}
}

func intVar(p *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*p = n
		return nil
	}
}

func floatVar(p *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*p = f
		return nil
	}
}

func durationVar(p *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*p = d
		return nil
	}
}
