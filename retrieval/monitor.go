package retrieval

import (
	"log/slog"

	"github.com/poiesic/ragbase/core"
)

// Monitor provides hooks to observe the retrieval process.
// Implement this interface to track intermediate steps and results.
type Monitor interface {
	Start(query string)
	AfterSearch(candidates []*core.ScoredChunk)
	AfterRerank(ranked []*core.ScoredChunk)
	AfterFilter(kept []*core.ScoredChunk, dropped int)
	Finish(results []*core.ScoredChunk)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterSearch(_ []*core.ScoredChunk)        {}
func (n *noopMonitor) AfterRerank(_ []*core.ScoredChunk)        {}
func (n *noopMonitor) AfterFilter(_ []*core.ScoredChunk, _ int) {}
func (n *noopMonitor) Finish(_ []*core.ScoredChunk)             {}

// logMonitor traces every stage at debug level.
type logMonitor struct {
	logger *slog.Logger
}

var _ Monitor = (*logMonitor)(nil)

// NewLogMonitor returns a Monitor that logs each stage at debug level.
func NewLogMonitor(logger *slog.Logger) Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &logMonitor{logger: logger.With("component", "retrieval.trace")}
}

func (m *logMonitor) Start(query string) {
	m.logger.Debug("retrieval started", "query", query)
}

func (m *logMonitor) AfterSearch(candidates []*core.ScoredChunk) {
	m.logger.Debug("similarity search", "candidates", len(candidates), "hits", describe(candidates))
}

func (m *logMonitor) AfterRerank(ranked []*core.ScoredChunk) {
	m.logger.Debug("reranked", "kept", len(ranked), "hits", describe(ranked))
}

func (m *logMonitor) AfterFilter(kept []*core.ScoredChunk, dropped int) {
	m.logger.Debug("relevance filter", "kept", len(kept), "dropped", dropped)
}

func (m *logMonitor) Finish(results []*core.ScoredChunk) {
	m.logger.Debug("retrieval finished", "results", len(results))
}

// hit is the loggable summary of one scored chunk.
type hit struct {
	Source string  `json:"source"`
	Index  int     `json:"index"`
	Score  float32 `json:"score"`
}

func describe(chunks []*core.ScoredChunk) []hit {
	hits := make([]hit, len(chunks))
	for i, c := range chunks {
		hits[i] = hit{Source: c.Chunk.Metadata.SourcePath, Index: c.Chunk.Metadata.Index, Score: c.Score}
	}
	return hits
}
