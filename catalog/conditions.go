package catalog

import (
	"fmt"
	"time"

	"softtennis-coach/models"
)

// Condition kinds, as written in catalog files.
const (
	KindTotalAnalyses      = "total_analyses"
	KindWindowedCount      = "windowed_count"
	KindScoreImprovement   = "score_improvement"
	KindRecentScore        = "recent_score"
	KindCategoryThreshold  = "category_threshold"
	KindAllCategoriesAbove = "all_categories_above"
)

// Condition decides whether a badge is earned by the given progress at time now.
// Missing data always evaluates to false.
type Condition interface {
	Kind() string
	Evaluate(p models.UserProgress, now time.Time) bool
}

// TotalAnalyses holds once the user has completed Min analyses.
type TotalAnalyses struct {
	Min int
}

func (TotalAnalyses) Kind() string { return KindTotalAnalyses }

func (c TotalAnalyses) Evaluate(p models.UserProgress, _ time.Time) bool {
	return p.TotalAnalyses >= c.Min
}

// WindowedCount holds when at least Min records fall inside the trailing Window.
type WindowedCount struct {
	Window time.Duration
	Min    int
}

func (WindowedCount) Kind() string { return KindWindowedCount }

func (c WindowedCount) Evaluate(p models.UserProgress, now time.Time) bool {
	return len(p.RecordsSince(now.Add(-c.Window))) >= c.Min
}

// ScoreImprovement compares the best of the last Sample scores with the best of the
// first Sample scores. It needs at least Sample records.
type ScoreImprovement struct {
	Sample   int
	MinDelta float64
}

func (ScoreImprovement) Kind() string { return KindScoreImprovement }

func (c ScoreImprovement) Evaluate(p models.UserProgress, _ time.Time) bool {
	if c.Sample <= 0 || len(p.AnalysisRecords) < c.Sample {
		return false
	}
	recent := maxScore(p.LastRecords(c.Sample))
	early := maxScore(p.FirstRecords(c.Sample))
	return recent-early >= c.MinDelta
}

// RecentScore holds when any of the last Recent records scored at least Min overall.
type RecentScore struct {
	Recent int
	Min    float64
}

func (RecentScore) Kind() string { return KindRecentScore }

func (c RecentScore) Evaluate(p models.UserProgress, _ time.Time) bool {
	for _, r := range p.LastRecords(c.Recent) {
		if r.OverallScore >= c.Min {
			return true
		}
	}
	return false
}

// CategoryThreshold holds when any of the last Recent records carries Category at or
// above Min.
type CategoryThreshold struct {
	Category string
	Min      float64
	Recent   int
}

func (CategoryThreshold) Kind() string { return KindCategoryThreshold }

func (c CategoryThreshold) Evaluate(p models.UserProgress, _ time.Time) bool {
	for _, r := range p.LastRecords(c.Recent) {
		if v, ok := r.CategoryScore(c.Category); ok && v >= c.Min {
			return true
		}
	}
	return false
}

// AllCategoriesAbove holds when one of the last Recent records scores every listed
// category at or above Min. A record missing any category does not count.
type AllCategoriesAbove struct {
	Categories []string
	Min        float64
	Recent     int
}

func (AllCategoriesAbove) Kind() string { return KindAllCategoriesAbove }

func (c AllCategoriesAbove) Evaluate(p models.UserProgress, _ time.Time) bool {
	if len(c.Categories) == 0 {
		return false
	}
	for _, r := range p.LastRecords(c.Recent) {
		if allAbove(r, c.Categories, c.Min) {
			return true
		}
	}
	return false
}

func allAbove(r models.AnalysisRecord, categories []string, min float64) bool {
	for _, cat := range categories {
		v, ok := r.CategoryScore(cat)
		if !ok || v < min {
			return false
		}
	}
	return true
}

func maxScore(records []models.AnalysisRecord) float64 {
	best := 0.0
	for i, r := range records {
		if i == 0 || r.OverallScore > best {
			best = r.OverallScore
		}
	}
	return best
}

// ConditionSpec is the serialized form of a Condition in catalog files.
type ConditionSpec struct {
	Kind       string        `json:"kind" yaml:"kind"`
	Min        float64       `json:"min,omitempty" yaml:"min,omitempty"`
	Window     time.Duration `json:"window,omitempty" yaml:"window,omitempty"`
	Sample     int           `json:"sample,omitempty" yaml:"sample,omitempty"`
	Recent     int           `json:"recent,omitempty" yaml:"recent,omitempty"`
	Category   string        `json:"category,omitempty" yaml:"category,omitempty"`
	Categories []string      `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Build turns the spec into its Condition.
func (s ConditionSpec) Build() (Condition, error) {
	switch s.Kind {
	case KindTotalAnalyses:
		return TotalAnalyses{Min: int(s.Min)}, nil
	case KindWindowedCount:
		if s.Window <= 0 {
			return nil, fmt.Errorf("%w: %s needs a positive window", ErrInvalidCatalog, s.Kind)
		}
		return WindowedCount{Window: s.Window, Min: int(s.Min)}, nil
	case KindScoreImprovement:
		if s.Sample <= 0 {
			return nil, fmt.Errorf("%w: %s needs a positive sample", ErrInvalidCatalog, s.Kind)
		}
		return ScoreImprovement{Sample: s.Sample, MinDelta: s.Min}, nil
	case KindRecentScore:
		return RecentScore{Recent: recentOrDefault(s.Recent), Min: s.Min}, nil
	case KindCategoryThreshold:
		if s.Category == "" {
			return nil, fmt.Errorf("%w: %s needs a category", ErrInvalidCatalog, s.Kind)
		}
		return CategoryThreshold{Category: s.Category, Min: s.Min, Recent: recentOrDefault(s.Recent)}, nil
	case KindAllCategoriesAbove:
		cats := s.Categories
		if len(cats) == 0 {
			cats = models.FormCategories
		}
		return AllCategoriesAbove{Categories: cats, Min: s.Min, Recent: recentOrDefault(s.Recent)}, nil
	}
	return nil, fmt.Errorf("%w: unknown condition kind %q", ErrInvalidCatalog, s.Kind)
}

// SpecOf is the inverse of Build, used when publishing the catalog.
func SpecOf(c Condition) ConditionSpec {
	switch v := c.(type) {
	case TotalAnalyses:
		return ConditionSpec{Kind: v.Kind(), Min: float64(v.Min)}
	case WindowedCount:
		return ConditionSpec{Kind: v.Kind(), Window: v.Window, Min: float64(v.Min)}
	case ScoreImprovement:
		return ConditionSpec{Kind: v.Kind(), Sample: v.Sample, Min: v.MinDelta}
	case RecentScore:
		return ConditionSpec{Kind: v.Kind(), Recent: v.Recent, Min: v.Min}
	case CategoryThreshold:
		return ConditionSpec{Kind: v.Kind(), Category: v.Category, Recent: v.Recent, Min: v.Min}
	case AllCategoriesAbove:
		return ConditionSpec{Kind: v.Kind(), Categories: v.Categories, Recent: v.Recent, Min: v.Min}
	}
	return ConditionSpec{Kind: c.Kind()}
}

func recentOrDefault(n int) int {
	if n <= 0 {
		return 3
	}
	return n
}
