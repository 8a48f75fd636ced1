package catalog

import (
	"fmt"
	"strings"
	"time"

	"softtennis-coach/models"
)

const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
)

// BadgeDefinition describes a catalog badge and the rule that earns it.
type BadgeDefinition struct {
	ID          string
	Name        string
	Description string
	Icon        string
	AutoAward   bool
	Condition   Condition
}

// Badge instantiates the definition as an award earned at.
func (d BadgeDefinition) Badge(at time.Time) models.Badge {
	return models.Badge{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Icon:        d.Icon,
		EarnedDate:  at,
	}
}

// BadgeCatalog is an ordered, immutable set of badge definitions keyed by id.
type BadgeCatalog struct {
	defs  []BadgeDefinition
	index map[string]int
}

// DefaultBadges is the built-in badge set, in evaluation order.
func DefaultBadges() []BadgeDefinition {
	return []BadgeDefinition{
		{ID: "first_analysis", Name: "First Analysis", Description: "Completed your first video analysis", Icon: "🎾", AutoAward: true,
			Condition: TotalAnalyses{Min: 1}},
		{ID: "consistent_week", Name: "First Steps of Consistency", Description: "Three analyses within one week", Icon: "📅", AutoAward: true,
			Condition: WindowedCount{Window: Week, Min: 3}},
		{ID: "form_improver", Name: "Form Improver", Description: "Raised your overall score by 20 points", Icon: "📈", AutoAward: true,
			Condition: ScoreImprovement{Sample: 5, MinDelta: 20}},
		{ID: "stance_master", Name: "Stance Master", Description: "Stance score of 90 or higher", Icon: "🏛️", AutoAward: true,
			Condition: CategoryThreshold{Category: models.CategoryStance, Min: 90, Recent: 3}},
		{ID: "swing_artist", Name: "Swing Artist", Description: "Swing path score of 85 or higher", Icon: "🎨", AutoAward: true,
			Condition: CategoryThreshold{Category: models.CategorySwingPath, Min: 85, Recent: 3}},
		{ID: "balance_keeper", Name: "Balance Keeper", Description: "Balance score of 85 or higher", Icon: "⚖️", AutoAward: true,
			Condition: CategoryThreshold{Category: models.CategoryBalance, Min: 85, Recent: 3}},
		{ID: "monthly_warrior", Name: "Monthly Warrior", Description: "Kept practicing for a month", Icon: "🗓️", AutoAward: true,
			Condition: WindowedCount{Window: Month, Min: 8}},
		{ID: "perfectionist", Name: "Perfectionist", Description: "Overall score of 95 or higher", Icon: "💎", AutoAward: true,
			Condition: RecentScore{Recent: 3, Min: 95}},
		{ID: "dedicated_student", Name: "Dedicated Student", Description: "Completed 50 analyses", Icon: "📚", AutoAward: true,
			Condition: TotalAnalyses{Min: 50}},
		{ID: "improvement_champion", Name: "Improvement Champion", Description: "80 or higher in every category", Icon: "🏆", AutoAward: true,
			Condition: AllCategoriesAbove{Categories: models.FormCategories, Min: 80, Recent: 3}},
	}
}

// NewBadgeCatalog validates ids (non-empty, unique, not colliding with level badges)
// and that every definition carries a condition.
func NewBadgeCatalog(defs []BadgeDefinition) (*BadgeCatalog, error) {
	c := &BadgeCatalog{
		defs:  make([]BadgeDefinition, 0, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if d.ID == "" {
			return nil, fmt.Errorf("%w: badge without id", ErrInvalidCatalog)
		}
		if strings.HasPrefix(d.ID, "level_") {
			return nil, fmt.Errorf("%w: badge id %q is reserved for level-ups", ErrInvalidCatalog, d.ID)
		}
		if _, dup := c.index[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate badge id %q", ErrInvalidCatalog, d.ID)
		}
		if d.Condition == nil {
			return nil, fmt.Errorf("%w: badge %q has no condition", ErrInvalidCatalog, d.ID)
		}
		if d.Icon == "" {
			d.Icon = "🏆"
		}
		c.index[d.ID] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	return c, nil
}

// MustDefaultBadgeCatalog returns the built-in badge set.
func MustDefaultBadgeCatalog() *BadgeCatalog {
	c, err := NewBadgeCatalog(DefaultBadges())
	if err != nil {
		panic(err)
	}
	return c
}

// Definitions returns the definitions in evaluation order.
func (c *BadgeCatalog) Definitions() []BadgeDefinition {
	out := make([]BadgeDefinition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Get looks up a definition by id.
func (c *BadgeCatalog) Get(id string) (BadgeDefinition, bool) {
	i, ok := c.index[id]
	if !ok {
		return BadgeDefinition{}, false
	}
	return c.defs[i], true
}
