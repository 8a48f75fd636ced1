package services

import (
	"time"

	"softtennis-coach/catalog"
	"softtennis-coach/models"
)

type BadgeEvaluator struct {
	badges *catalog.BadgeCatalog
}

func NewBadgeEvaluator(badges *catalog.BadgeCatalog) *BadgeEvaluator {
	return &BadgeEvaluator{badges: badges}
}

func (e *BadgeEvaluator) Catalog() *catalog.BadgeCatalog {
	return e.badges
}

// AutoAwardBadges checks every auto-award definition not yet held, in catalog order,
// and appends the ones whose condition holds. Returns the badges awarded by this call.
func (e *BadgeEvaluator) AutoAwardBadges(p *models.UserProgress, now time.Time) []models.Badge {
	var awarded []models.Badge
	for _, def := range e.badges.Definitions() {
		if !def.AutoAward || p.HasBadge(def.ID) {
			continue
		}
		if !def.Condition.Evaluate(*p, now) {
			continue
		}
		b := def.Badge(now)
		if p.AddBadge(b) {
			awarded = append(awarded, b)
		}
	}
	return awarded
}

// Award grants a catalog badge by id regardless of its auto-award flag. It returns false
// for ids outside the catalog and for badges already held.
func (e *BadgeEvaluator) Award(p *models.UserProgress, badgeID string, now time.Time) bool {
	def, ok := e.badges.Get(badgeID)
	if !ok {
		return false
	}
	return p.AddBadge(def.Badge(now))
}
