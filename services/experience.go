package services

import (
	"fmt"
	"time"

	"softtennis-coach/catalog"
	"softtennis-coach/models"
)

// BaseExperience is granted for every analysis regardless of score.
const BaseExperience = 10

type scoreTier struct {
	min   float64
	bonus int
}

// Highest tier first.
var scoreTiers = []scoreTier{
	{min: 90, bonus: 20},
	{min: 80, bonus: 15},
	{min: 70, bonus: 10},
	{min: 60, bonus: 5},
}

// ExperienceFor converts an overall score into experience points.
func ExperienceFor(score float64) int {
	for _, t := range scoreTiers {
		if score >= t.min {
			return BaseExperience + t.bonus
		}
	}
	return BaseExperience
}

// NextLevelRequirements tells a user what the next level asks for.
type NextLevelRequirements struct {
	Level             int    `json:"level"`
	Name              string `json:"name"`
	PointsNeeded      int    `json:"points_needed"`
	AnalysesNeeded    int    `json:"analyses_needed"`
	PointsRemaining   int    `json:"points_remaining"`
	AnalysesRemaining int    `json:"analyses_remaining"`
	MaxLevel          bool   `json:"max_level"`
	Description       string `json:"description"`
}

// LevelEngine maps experience and analysis counts onto the level catalog.
type LevelEngine struct {
	levels *catalog.LevelCatalog
}

func NewLevelEngine(levels *catalog.LevelCatalog) *LevelEngine {
	return &LevelEngine{levels: levels}
}

func (e *LevelEngine) Catalog() *catalog.LevelCatalog {
	return e.levels
}

// LevelFor returns the highest level whose thresholds are met, never less than prior
// and never less than 1.
func (e *LevelEngine) LevelFor(points, analyses, prior int) int {
	level := prior
	if level < 1 {
		level = 1
	}
	for _, l := range e.levels.Levels() {
		if points >= l.MinPoints && analyses >= l.MinAnalyses && l.Level > level {
			level = l.Level
		}
	}
	return level
}

// Apply recomputes the level of p. On a level increase it grants the level badge and
// returns the new level and the badge; otherwise it returns 0 and nil.
func (e *LevelEngine) Apply(p *models.UserProgress, now time.Time) (int, *models.Badge) {
	next := e.LevelFor(p.ExperiencePoints, p.TotalAnalyses, p.CurrentLevel)
	if next <= p.CurrentLevel {
		return 0, nil
	}
	p.CurrentLevel = next
	badge := models.LevelBadge(next, now)
	if !p.AddBadge(badge) {
		return next, nil
	}
	return next, &badge
}

// Name returns the display name of level n.
func (e *LevelEngine) Name(n int) string {
	if l, ok := e.levels.Get(n); ok {
		return l.Name
	}
	return fmt.Sprintf("Level %d", n)
}

// NextLevel describes the requirements of the level after current. At the top of the
// catalog it returns a terminal response with nothing left to do.
func (e *LevelEngine) NextLevel(current, points, analyses int) NextLevelRequirements {
	next, ok := e.levels.Get(current + 1)
	if !ok {
		return NextLevelRequirements{
			Level:       current,
			Name:        "Max level",
			MaxLevel:    true,
			Description: "Congratulations! You have reached the highest level!",
		}
	}
	return NextLevelRequirements{
		Level:             next.Level,
		Name:              next.Name,
		PointsNeeded:      next.MinPoints,
		AnalysesNeeded:    next.MinAnalyses,
		PointsRemaining:   remaining(next.MinPoints, points),
		AnalysesRemaining: remaining(next.MinAnalyses, analyses),
		Description:       fmt.Sprintf("Level %d \"%s\" is within reach!", next.Level, next.Name),
	}
}

func remaining(need, have int) int {
	if have >= need {
		return 0
	}
	return need - have
}
