// Package catalog holds the static rule tables of the ledger: the level ladder and the
// badge definitions. Catalogs are built once at startup and are read-only afterwards.
package catalog

import (
	"errors"
	"fmt"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// Level is one rung of the ladder. A level is attained when both thresholds are met.
type Level struct {
	Level       int    `json:"level" yaml:"level"`
	Name        string `json:"name" yaml:"name"`
	MinPoints   int    `json:"min_points" yaml:"min_points"`
	MinAnalyses int    `json:"min_analyses" yaml:"min_analyses"`
}

// LevelCatalog is an ordered, immutable level table (levels 1..N).
type LevelCatalog struct {
	levels []Level
}

// DefaultLevels is the ladder used when no catalog file is configured.
func DefaultLevels() []Level {
	return []Level{
		{Level: 1, Name: "Beginner", MinPoints: 0, MinAnalyses: 0},
		{Level: 2, Name: "Player", MinPoints: 100, MinAnalyses: 5},
		{Level: 3, Name: "Skilled Player", MinPoints: 300, MinAnalyses: 15},
		{Level: 4, Name: "Advanced Player", MinPoints: 600, MinAnalyses: 30},
		{Level: 5, Name: "Expert", MinPoints: 1000, MinAnalyses: 50},
		{Level: 6, Name: "Master", MinPoints: 1500, MinAnalyses: 75},
		{Level: 7, Name: "Legend", MinPoints: 2500, MinAnalyses: 100},
	}
}

// NewLevelCatalog validates levels: numbered 1..N in order, thresholds strictly increasing.
func NewLevelCatalog(levels []Level) (*LevelCatalog, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: level table is empty", ErrInvalidCatalog)
	}
	for i, l := range levels {
		if l.Level != i+1 {
			return nil, fmt.Errorf("%w: level at position %d is numbered %d", ErrInvalidCatalog, i+1, l.Level)
		}
		if l.Name == "" {
			return nil, fmt.Errorf("%w: level %d has no name", ErrInvalidCatalog, l.Level)
		}
		if i == 0 {
			continue
		}
		prev := levels[i-1]
		if l.MinPoints <= prev.MinPoints || l.MinAnalyses <= prev.MinAnalyses {
			return nil, fmt.Errorf("%w: thresholds of level %d do not exceed level %d", ErrInvalidCatalog, l.Level, prev.Level)
		}
	}
	out := make([]Level, len(levels))
	copy(out, levels)
	return &LevelCatalog{levels: out}, nil
}

// MustDefaultLevelCatalog returns the built-in ladder.
func MustDefaultLevelCatalog() *LevelCatalog {
	c, err := NewLevelCatalog(DefaultLevels())
	if err != nil {
		panic(err)
	}
	return c
}

// Levels returns a copy of the table in ascending order.
func (c *LevelCatalog) Levels() []Level {
	out := make([]Level, len(c.levels))
	copy(out, c.levels)
	return out
}

// Get returns level n, false when n is outside 1..N.
func (c *LevelCatalog) Get(n int) (Level, bool) {
	if n < 1 || n > len(c.levels) {
		return Level{}, false
	}
	return c.levels[n-1], true
}

// Max is the highest level number.
func (c *LevelCatalog) Max() int {
	return len(c.levels)
}
