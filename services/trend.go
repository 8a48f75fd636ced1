package services

import (
	"math"
	"sort"
	"strings"
	"time"

	"softtennis-coach/catalog"
	"softtennis-coach/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// OverallTrendKey is the key of the overall-score entry in a trend report.
const OverallTrendKey = "overall"

const (
	trendMinRecords       = 3
	trendMinWindowRecords = 2
	trendWindow           = catalog.Month
	// a drop smaller than this is still reported as stable
	decliningDrop   = 5.0
	strongChangePct = 10.0
)

type Trend struct {
	Category    string         `json:"category"`
	Trend       TrendDirection `json:"trend"`
	ChangeRate  float64        `json:"change_rate"`
	Description string         `json:"description"`
}

type TrendAnalyzer struct{}

func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{}
}

// Analyze reports the direction of the scores recorded in the trailing 30 days. It needs
// at least 3 records overall and 2 inside the window; otherwise the report is empty,
// which callers read as "not enough data". Besides the "overall" entry, every category
// with two or more values in the window gets its own entry.
func (a *TrendAnalyzer) Analyze(p models.UserProgress, now time.Time) map[string]Trend {
	out := map[string]Trend{}
	if len(p.AnalysisRecords) < trendMinRecords {
		return out
	}
	recent := p.RecordsSince(now.Add(-trendWindow))
	if len(recent) < trendMinWindowRecords {
		return out
	}

	scores := make([]float64, 0, len(recent))
	for _, r := range recent {
		scores = append(scores, r.OverallScore)
	}
	out[OverallTrendKey] = a.build(OverallTrendKey, scores)

	for _, cat := range categoriesOf(recent) {
		var values []float64
		for _, r := range recent {
			if v, ok := r.CategoryScore(cat); ok {
				values = append(values, v)
			}
		}
		if len(values) >= trendMinWindowRecords {
			out[cat] = a.build(cat, values)
		}
	}
	return out
}

func (a *TrendAnalyzer) build(category string, scores []float64) Trend {
	first, last := scores[0], scores[len(scores)-1]
	dir := classify(first, last)
	raw := rawChangeRate(first, last)
	desc := describeTrend(dir, raw)
	if category != OverallTrendKey {
		desc = a.label(category) + ": " + desc
	}
	return Trend{
		Category:    category,
		Trend:       dir,
		ChangeRate:  math.Round(raw*10) / 10,
		Description: desc,
	}
}

// label turns "swing_path" into "Swing Path". Casers are stateful, so one per call.
func (a *TrendAnalyzer) label(category string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(category, "_", " "))
}

func classify(first, last float64) TrendDirection {
	switch {
	case last > first:
		return TrendImproving
	case first-last >= decliningDrop:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// rawChangeRate is the percentage change from first to last. Reports round it to one decimal.
func rawChangeRate(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// describeTrend picks the narrative from the unrounded rate.
func describeTrend(dir TrendDirection, rate float64) string {
	strong := math.Abs(rate) > strongChangePct
	switch dir {
	case TrendImproving:
		if strong {
			return "Outstanding progress!"
		}
		return "Steady improvement is showing."
	case TrendDeclining:
		if strong {
			return "Your form has dropped noticeably. Go back to the fundamentals."
		}
		return "Your form has slipped a little. Focus on basic drills."
	}
	return "You are keeping a stable performance."
}

// categoriesOf lists the categories present in records, known form categories first.
func categoriesOf(records []models.AnalysisRecord) []string {
	seen := map[string]bool{}
	for _, r := range records {
		for cat := range r.CategoryScores {
			seen[cat] = true
		}
	}
	var out []string
	for _, cat := range models.FormCategories {
		if seen[cat] {
			out = append(out, cat)
			delete(seen, cat)
		}
	}
	extra := make([]string, 0, len(seen))
	for cat := range seen {
		extra = append(extra, cat)
	}
	sort.Strings(extra)
	return append(out, extra...)
}
