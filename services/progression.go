package services

import (
	"context"
	"time"

	"softtennis-coach/logger"
	"softtennis-coach/models"
	"softtennis-coach/storage"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// scoreHistoryLength is how many recent records a progress snapshot lists.
const scoreHistoryLength = 10

// AnalysisInput is what the analysis pipeline hands over for one finished session.
// Scores are taken as-is; range checking is the pipeline's job.
type AnalysisInput struct {
	UserID         string
	SessionID      string
	Score          float64
	Angle          models.Angle
	CategoryScores map[string]float64
}

type AddAnalysisResult struct {
	SessionID string         `json:"session_id"`
	ExpGained int            `json:"exp_gained"`
	NewLevel  *int           `json:"new_level"`
	NewBadges []models.Badge `json:"new_badges"`
	// Duplicate is set when the session was already recorded; nothing changed.
	Duplicate bool `json:"duplicate,omitempty"`
}

type ScoreHistoryEntry struct {
	Date         time.Time    `json:"date"`
	OverallScore float64      `json:"overall_score"`
	Angle        models.Angle `json:"angle"`
	SessionID    string       `json:"session_id"`
}

// ProgressSnapshot is the read model served to the API layer.
type ProgressSnapshot struct {
	UserID                string                `json:"user_id"`
	TotalAnalyses         int                   `json:"total_analyses"`
	CurrentLevel          int                   `json:"current_level"`
	LevelName             string                `json:"level_name"`
	ExperiencePoints      int                   `json:"experience_points"`
	Badges                []models.Badge        `json:"badges"`
	ScoreHistory          []ScoreHistoryEntry   `json:"score_history"`
	ImprovementTrends     map[string]Trend      `json:"improvement_trends"`
	NextLevelRequirements NextLevelRequirements `json:"next_level_requirements"`
	CreatedDate           *time.Time            `json:"created_date,omitempty"`
	LastAnalysisDate      *time.Time            `json:"last_analysis_date"`
}

// ProgressionService is the ledger: it records analyses, levels users up, awards badges
// and builds progress snapshots.
type ProgressionService struct {
	Store  *RecordStore
	Levels *LevelEngine
	Badges *BadgeEvaluator
	Trends *TrendAnalyzer

	clock clockwork.Clock
	log   *logger.Logger
}

func NewProgressionService(store *RecordStore, levels *LevelEngine, badges *BadgeEvaluator, trends *TrendAnalyzer, clock clockwork.Clock, log *logger.Logger) *ProgressionService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	if trends == nil {
		trends = NewTrendAnalyzer()
	}
	return &ProgressionService{
		Store:  store,
		Levels: levels,
		Badges: badges,
		Trends: trends,
		clock:  clock,
		log:    log,
	}
}

// now strips the monotonic reading so stored timestamps survive a JSON round trip unchanged.
func (s *ProgressionService) now() time.Time {
	return s.clock.Now().UTC().Round(0)
}

// AddAnalysisRecord appends a finished analysis to the user's history, creating the user
// on first use, then updates experience, level and badges and persists the store.
// A session id already present in the history is reported as a duplicate and ignored.
func (s *ProgressionService) AddAnalysisRecord(ctx context.Context, in AnalysisInput) AddAnalysisResult {
	if in.SessionID == "" {
		in.SessionID = uuid.NewString()
	}
	result := AddAnalysisResult{SessionID: in.SessionID, NewBadges: []models.Badge{}}

	_, applied, err := s.Store.UpsertIf(ctx, in.UserID, func(p *models.UserProgress) bool {
		if p.HasSession(in.SessionID) {
			return false
		}
		now := s.now()
		if n := len(p.AnalysisRecords); n > 0 && now.Before(p.AnalysisRecords[n-1].Timestamp) {
			// keep history ordered if the wall clock stepped back
			now = p.AnalysisRecords[n-1].Timestamp
		}

		p.AnalysisRecords = append(p.AnalysisRecords, models.AnalysisRecord{
			SessionID:      in.SessionID,
			Timestamp:      now,
			OverallScore:   in.Score,
			Angle:          in.Angle,
			CategoryScores: copyScores(in.CategoryScores),
		})
		p.TotalAnalyses++
		p.LastAnalysisDate = &now

		result.ExpGained = ExperienceFor(in.Score)
		p.ExperiencePoints += result.ExpGained

		if level, badge := s.Levels.Apply(p, now); level > 0 {
			result.NewLevel = &level
			if badge != nil {
				result.NewBadges = append(result.NewBadges, *badge)
			}
		}
		result.NewBadges = append(result.NewBadges, s.Badges.AutoAwardBadges(p, now)...)
		return true
	})
	if err != nil {
		s.log.Error("❌ failed to persist progress", "user_id", in.UserID, "session_id", in.SessionID, "error", err)
	}
	if !applied {
		s.log.Info("duplicate analysis session ignored", "user_id", in.UserID, "session_id", in.SessionID)
		return AddAnalysisResult{SessionID: in.SessionID, NewBadges: []models.Badge{}, Duplicate: true}
	}

	s.log.Info("🎾 analysis recorded",
		"user_id", in.UserID,
		"session_id", in.SessionID,
		"score", in.Score,
		"exp_gained", result.ExpGained,
		"new_badges", len(result.NewBadges),
	)
	if result.NewLevel != nil {
		s.log.Info("⭐ level up", "user_id", in.UserID, "level", *result.NewLevel)
	}
	return result
}

// AwardBadge grants a catalog badge by hand. It returns false when the user is unknown,
// the badge id is not in the catalog, or the user already holds it.
func (s *ProgressionService) AwardBadge(ctx context.Context, userID, badgeID string) bool {
	return s.AwardBadgeWithReason(ctx, userID, badgeID, "")
}

// AwardBadgeWithReason is AwardBadge with a free-text reason recorded in the log.
func (s *ProgressionService) AwardBadgeWithReason(ctx context.Context, userID, badgeID, reason string) bool {
	_, ok, err := s.Store.Update(ctx, userID, func(p *models.UserProgress) bool {
		return s.Badges.Award(p, badgeID, s.now())
	})
	if err != nil {
		s.log.Error("❌ failed to persist progress", "user_id", userID, "badge_id", badgeID, "error", err)
	}
	if ok {
		s.log.Info("🎖️ badge awarded", "user_id", userID, "badge_id", badgeID, "reason", reason)
	}
	return ok
}

// GetUserProgress builds the snapshot of a user; false means the user was never analyzed.
func (s *ProgressionService) GetUserProgress(userID string) (ProgressSnapshot, bool) {
	p, ok := s.Store.Get(userID)
	if !ok {
		return ProgressSnapshot{}, false
	}
	created := p.CreatedDate
	return ProgressSnapshot{
		UserID:                p.UserID,
		TotalAnalyses:         p.TotalAnalyses,
		CurrentLevel:          p.CurrentLevel,
		LevelName:             s.Levels.Name(p.CurrentLevel),
		ExperiencePoints:      p.ExperiencePoints,
		Badges:                nonNilBadges(p.Badges),
		ScoreHistory:          scoreHistory(p),
		ImprovementTrends:     s.Trends.Analyze(p, s.now()),
		NextLevelRequirements: s.Levels.NextLevel(p.CurrentLevel, p.ExperiencePoints, p.TotalAnalyses),
		CreatedDate:           &created,
		LastAnalysisDate:      p.LastAnalysisDate,
	}, true
}

// DefaultProgress is the view of a user who has never been analyzed.
func (s *ProgressionService) DefaultProgress(userID string) ProgressSnapshot {
	return ProgressSnapshot{
		UserID:                userID,
		CurrentLevel:          1,
		LevelName:             s.Levels.Name(1),
		Badges:                []models.Badge{},
		ScoreHistory:          []ScoreHistoryEntry{},
		ImprovementTrends:     map[string]Trend{},
		NextLevelRequirements: s.Levels.NextLevel(1, 0, 0),
	}
}

// UserBadges returns the badges held by a user, oldest first.
func (s *ProgressionService) UserBadges(userID string) ([]models.Badge, bool) {
	p, ok := s.Store.Get(userID)
	if !ok {
		return nil, false
	}
	return nonNilBadges(p.Badges), true
}

// ExportSnapshot renders the whole ledger in its persisted JSON form.
func (s *ProgressionService) ExportSnapshot(_ context.Context) ([]byte, error) {
	return storage.Marshal(s.Store.Snapshot())
}

func scoreHistory(p models.UserProgress) []ScoreHistoryEntry {
	records := p.LastRecords(scoreHistoryLength)
	out := make([]ScoreHistoryEntry, 0, len(records))
	for _, r := range records {
		out = append(out, ScoreHistoryEntry{
			Date:         r.Timestamp,
			OverallScore: r.OverallScore,
			Angle:        r.Angle,
			SessionID:    r.SessionID,
		})
	}
	return out
}

func copyScores(in map[string]float64) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func nonNilBadges(b []models.Badge) []models.Badge {
	if b == nil {
		return []models.Badge{}
	}
	return b
}
