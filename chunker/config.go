package chunker

import (
	"fmt"
	"strings"
)

// Strategy selects how the bounded stage measures and cuts oversized segments.
type Strategy int

const (
	// StrategyCharacter cuts fixed windows of MaxSize runes.
	StrategyCharacter Strategy = iota
	// StrategyToken cuts fixed windows of MaxSize cl100k_base tokens.
	StrategyToken
	// StrategyRecursive splits on paragraph, line and word boundaries,
	// merging pieces up to MaxSize runes.
	StrategyRecursive
)

var strategyNames = map[Strategy]string{
	StrategyCharacter: "character",
	StrategyToken:     "token",
	StrategyRecursive: "recursive",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a strategy name such as "token" into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// Config controls both splitting stages.
type Config struct {
	// Strategy selects the bounded-stage splitter.
	Strategy Strategy

	// MaxSize is the largest chunk the bounded stage emits, in the unit of Strategy.
	MaxSize int

	// Overlap is how much adjacent windows of one segment share, in the unit of Strategy.
	Overlap int

	// BreakpointAmount scales the interquartile range added to the mean
	// distance to get the semantic breakpoint threshold.
	BreakpointAmount float64

	// BufferSize is how many neighbouring sentences on each side are embedded
	// together with a sentence.
	BufferSize int
}

// DefaultConfig returns the default chunker settings.
func DefaultConfig() Config {
	return Config{
		Strategy:         StrategyCharacter,
		MaxSize:          4096,
		Overlap:          256,
		BreakpointAmount: 1.5,
		BufferSize:       1,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if _, ok := strategyNames[c.Strategy]; !ok {
		return fmt.Errorf("%w: %v", ErrUnknownStrategy, c.Strategy)
	}
	if c.MaxSize < 1 {
		return fmt.Errorf("%w: MaxSize must be positive", ErrInvalidConfig)
	}
	if c.Overlap < 0 || c.Overlap >= c.MaxSize {
		return fmt.Errorf("%w: Overlap must be in [0, MaxSize)", ErrInvalidConfig)
	}
	if c.BreakpointAmount < 0 {
		return fmt.Errorf("%w: BreakpointAmount must not be negative", ErrInvalidConfig)
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("%w: BufferSize must not be negative", ErrInvalidConfig)
	}
	return nil
}
