package services

import (
	"context"
	"testing"
	"time"

	"softtennis-coach/logger"
	"softtennis-coach/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAddAnalysisRecordFirstAnalysis(t *testing.T) {
	svc, _, backend := newTestService(t)

	res := svc.AddAnalysisRecord(context.Background(), AnalysisInput{
		UserID:         "u1",
		SessionID:      "s1",
		Score:          85,
		Angle:          models.AngleFront,
		CategoryScores: map[string]float64{models.CategoryStance: 70},
	})

	assert.Equal(t, "s1", res.SessionID)
	assert.Equal(t, 25, res.ExpGained)
	assert.Nil(t, res.NewLevel)
	assert.False(t, res.Duplicate)
	assert.Equal(t, []string{"first_analysis"}, badgeIDs(res.NewBadges))

	p, ok := svc.Store.Get("u1")
	require.True(t, ok)
	assert.Equal(t, 1, p.TotalAnalyses)
	assert.Len(t, p.AnalysisRecords, 1)
	assert.Equal(t, 25, p.ExperiencePoints)
	assert.Equal(t, 1, p.CurrentLevel)
	assert.True(t, p.HasBadge("first_analysis"))
	require.NotNil(t, p.LastAnalysisDate)
	assert.True(t, p.LastAnalysisDate.Equal(testStart))
	assert.True(t, p.CreatedDate.Equal(testStart))
	assert.Equal(t, 1, backend.saveCount(), "every mutation persists the store")
}

func TestAddAnalysisRecordGeneratesSessionID(t *testing.T) {
	svc, _, _ := newTestService(t)

	res := addScore(t, svc, "u1", 50)
	assert.NotEmpty(t, res.SessionID)

	p, _ := svc.Store.Get("u1")
	assert.Equal(t, res.SessionID, p.AnalysisRecords[0].SessionID)
}

func TestAddAnalysisRecordDuplicateSession(t *testing.T) {
	svc, _, backend := newTestService(t)
	ctx := context.Background()
	in := AnalysisInput{UserID: "u1", SessionID: "s1", Score: 70, Angle: models.AngleSide}

	first := svc.AddAnalysisRecord(ctx, in)
	second := svc.AddAnalysisRecord(ctx, in)

	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Zero(t, second.ExpGained)
	assert.Empty(t, second.NewBadges)

	p, _ := svc.Store.Get("u1")
	assert.Equal(t, 1, p.TotalAnalyses)
	assert.Equal(t, 20, p.ExperiencePoints)
	assert.Equal(t, 1, backend.saveCount())
}

func TestAddAnalysisRecordLevelUp(t *testing.T) {
	svc, clock, _ := newTestService(t)

	var last AddAnalysisResult
	for i := 0; i < 5; i++ {
		last = addScore(t, svc, "u1", 95)
		clock.Advance(time.Hour)
	}

	require.NotNil(t, last.NewLevel)
	assert.Equal(t, 2, *last.NewLevel)
	assert.Contains(t, badgeIDs(last.NewBadges), "level_2")

	snap, ok := svc.GetUserProgress("u1")
	require.True(t, ok)
	assert.Equal(t, 2, snap.CurrentLevel)
	assert.Equal(t, "Player", snap.LevelName)
	assert.Equal(t, 150, snap.ExperiencePoints)
	assert.Equal(t, 3, snap.NextLevelRequirements.Level)
}

func TestLevelNeverDecreases(t *testing.T) {
	svc, clock, _ := newTestService(t)
	scores := []float64{95, 20, 99, 0, 91, 35, 100, 12, 88, 61, 94, 93, 92, 5, 97, 96, 90, -40, 91, 99}

	prev := 1
	for _, s := range scores {
		addScore(t, svc, "u1", s)
		clock.Advance(6 * time.Hour)

		p, _ := svc.Store.Get("u1")
		assert.GreaterOrEqual(t, p.CurrentLevel, prev)
		prev = p.CurrentLevel
	}
	assert.Equal(t, 3, prev)
}

func TestAwardBadge(t *testing.T) {
	svc, _, backend := newTestService(t)
	ctx := context.Background()

	assert.False(t, svc.AwardBadge(ctx, "ghost", "stance_master"), "unknown user")
	_, known := svc.Store.Get("ghost")
	assert.False(t, known, "unknown user must not be created")
	assert.Zero(t, backend.saveCount())

	addScore(t, svc, "u1", 50)
	saves := backend.saveCount()

	assert.False(t, svc.AwardBadge(ctx, "u1", "no_such_badge"))
	assert.True(t, svc.AwardBadge(ctx, "u1", "stance_master"))
	assert.False(t, svc.AwardBadge(ctx, "u1", "stance_master"), "already held")
	assert.False(t, svc.AwardBadge(ctx, "u1", "first_analysis"), "auto-awarded already")

	p, _ := svc.Store.Get("u1")
	assert.Equal(t, []string{"first_analysis", "stance_master"}, badgeIDs(p.Badges))
	assert.Equal(t, saves+1, backend.saveCount())
}

func TestSaveFailureKeepsInMemoryState(t *testing.T) {
	svc, _, backend := newTestService(t)
	backend.saveErr = errDiskFull

	res := addScore(t, svc, "u1", 75)
	assert.Equal(t, 20, res.ExpGained)

	snap, ok := svc.GetUserProgress("u1")
	require.True(t, ok)
	assert.Equal(t, 1, snap.TotalAnalyses)
}

func TestGetUserProgressSnapshot(t *testing.T) {
	svc, clock, _ := newTestService(t)

	_, ok := svc.GetUserProgress("u1")
	assert.False(t, ok)

	for i := 0; i < 12; i++ {
		addScore(t, svc, "u1", float64(50+i))
		clock.Advance(time.Hour)
	}

	snap, ok := svc.GetUserProgress("u1")
	require.True(t, ok)
	assert.Equal(t, 12, snap.TotalAnalyses)
	require.Len(t, snap.ScoreHistory, 10)
	assert.Equal(t, 52.0, snap.ScoreHistory[0].OverallScore)
	assert.Equal(t, 61.0, snap.ScoreHistory[9].OverallScore)
	assert.Contains(t, snap.ImprovementTrends, OverallTrendKey)
	assert.Equal(t, TrendImproving, snap.ImprovementTrends[OverallTrendKey].Trend)
	require.NotNil(t, snap.LastAnalysisDate)
}

func TestDefaultProgress(t *testing.T) {
	svc, _, _ := newTestService(t)

	d := svc.DefaultProgress("new-user")
	assert.Equal(t, "new-user", d.UserID)
	assert.Equal(t, 1, d.CurrentLevel)
	assert.Zero(t, d.TotalAnalyses)
	assert.Empty(t, d.Badges)
	assert.Empty(t, d.ImprovementTrends)
	assert.Equal(t, 100, d.NextLevelRequirements.PointsNeeded)
	assert.Equal(t, 5, d.NextLevelRequirements.AnalysesNeeded)
}

func TestTimestampsNeverGoBackwards(t *testing.T) {
	svc, clock, _ := newTestService(t)

	addScore(t, svc, "u1", 60)
	clock.Advance(-time.Hour)
	addScore(t, svc, "u1", 60)

	p, _ := svc.Store.Get("u1")
	require.Len(t, p.AnalysisRecords, 2)
	assert.False(t, p.AnalysisRecords[1].Timestamp.Before(p.AnalysisRecords[0].Timestamp))
}

func TestAwardBadgeLogsReason(t *testing.T) {
	svc, _, _ := newTestService(t)
	core, logs := observer.New(zapcore.InfoLevel)
	svc.log = &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	addScore(t, svc, "u1", 50)
	require.True(t, svc.AwardBadgeWithReason(context.Background(), "u1", "swing_artist", "great forehand in practice"))

	awarded := logs.FilterMessage("🎖️ badge awarded").All()
	require.Len(t, awarded, 1)
	fields := awarded[0].ContextMap()
	assert.Equal(t, "swing_artist", fields["badge_id"])
	assert.Equal(t, "great forehand in practice", fields["reason"])
}
