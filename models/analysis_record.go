package models

import (
	"fmt"
	"strings"
	"time"
)

// Angle is the camera position the stroke was filmed from.
type Angle string

const (
	AngleFront Angle = "front"
	AngleSide  Angle = "side"
)

// Form categories produced by the analysis pipeline.
const (
	CategoryStance        = "stance"
	CategorySwingPath     = "swing_path"
	CategoryTiming        = "timing"
	CategoryBalance       = "balance"
	CategoryFollowThrough = "follow_through"
)

// FormCategories lists every category the analyzer scores, in display order.
var FormCategories = []string{
	CategoryStance,
	CategorySwingPath,
	CategoryTiming,
	CategoryBalance,
	CategoryFollowThrough,
}

// ParseAngle accepts "front" or "side" (case-insensitive).
func ParseAngle(s string) (Angle, error) {
	switch Angle(strings.ToLower(strings.TrimSpace(s))) {
	case AngleFront:
		return AngleFront, nil
	case AngleSide:
		return AngleSide, nil
	}
	return "", fmt.Errorf("invalid angle %q: must be 'front' or 'side'", s)
}

// AnalysisRecord is one analyzed session. Immutable once appended to a UserProgress.
type AnalysisRecord struct {
	SessionID      string             `json:"session_id"`
	Timestamp      time.Time          `json:"date"`
	OverallScore   float64            `json:"overall_score"`
	Angle          Angle              `json:"angle"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
}

// CategoryScore reports the score of a category, false when the record carries none.
func (r AnalysisRecord) CategoryScore(category string) (float64, bool) {
	if r.CategoryScores == nil {
		return 0, false
	}
	v, ok := r.CategoryScores[category]
	return v, ok
}

func (r AnalysisRecord) clone() AnalysisRecord {
	out := r
	if r.CategoryScores != nil {
		out.CategoryScores = make(map[string]float64, len(r.CategoryScores))
		for k, v := range r.CategoryScores {
			out.CategoryScores[k] = v
		}
	}
	return out
}
