package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/ragbase/ai"
)

var (
	// ErrHostRequired indicates the client was built without a server URL.
	ErrHostRequired = errors.New("reranker host is required")

	// ErrHTTPClientRequired indicates WithHTTPClient was given a nil client.
	ErrHTTPClientRequired = errors.New("reranker http client is required")

	// ErrBadResponse indicates the server replied with an unusable payload.
	ErrBadResponse = errors.New("bad reranker response")
)

const defaultTimeout = 30 * time.Second

// Client implements ai.Reranker over HTTP.
type Client struct {
	host   string
	model  string
	http   *http.Client
	logger *slog.Logger
}

var _ ai.Reranker = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) error {
		if c == nil {
			return ErrHTTPClientRequired
		}
		cl.http = c
		return nil
	}
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) error {
		if logger != nil {
			cl.logger = logger
		}
		return nil
	}
}

// New creates a Client for the server at host.
func New(host, model string, opts ...Option) (*Client, error) {
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		return nil, ErrHostRequired
	}
	c := &Client{
		host:   host,
		model:  model,
		http:   &http.Client{Timeout: defaultTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "reranker")
	return c, nil
}

// NewFromConfig creates a Client from the reranker fields of an ai.Config.
func NewFromConfig(config *ai.Config, opts ...Option) (*Client, error) {
	return New(config.RerankerHost, config.RerankerModel, opts...)
}

type rerankRequest struct {
	Model string   `json:"model,omitempty"`
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// Rerank scores every document against query and returns them best first.
func (c *Client) Rerank(ctx context.Context, query string, documents []string) ([]ai.RankedDocument, error) {
	if len(documents) == 0 {
		return []ai.RankedDocument{}, nil
	}

	body, err := json.Marshal(rerankRequest{Model: c.model, Query: query, Texts: documents})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("reranking", "documents", len(documents))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrBadResponse, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var results []rerankResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}

	ranked := make([]ai.RankedDocument, 0, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("%w: index %d out of range", ErrBadResponse, r.Index)
		}
		ranked = append(ranked, ai.RankedDocument{Index: r.Index, Score: r.Score})
	}
	// Servers normally sort already; a stable sort keeps their tie order.
	slices.SortStableFunc(ranked, func(a, b ai.RankedDocument) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return ranked, nil
}
