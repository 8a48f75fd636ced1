package services

import (
	"testing"

	"softtennis-coach/catalog"
	"softtennis-coach/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExperienceFor(t *testing.T) {
	cases := []struct {
		score float64
		want  int
	}{
		{95, 30},
		{90, 30},
		{85, 25},
		{80, 25},
		{72, 20},
		{65, 15},
		{60, 15},
		{59.9, 10},
		{40, 10},
		{-12, 10},
		{140, 30},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExperienceFor(tc.score), "score %v", tc.score)
	}
}

func TestLevelFor(t *testing.T) {
	engine := NewLevelEngine(catalog.MustDefaultLevelCatalog())

	assert.Equal(t, 1, engine.LevelFor(0, 0, 1))
	assert.Equal(t, 1, engine.LevelFor(0, 0, 0), "never below 1")
	assert.Equal(t, 2, engine.LevelFor(100, 5, 1))
	assert.Equal(t, 1, engine.LevelFor(99, 5, 1))
	assert.Equal(t, 1, engine.LevelFor(5000, 4, 1), "both thresholds must hold")
	assert.Equal(t, 7, engine.LevelFor(2500, 100, 1))
	assert.Equal(t, 4, engine.LevelFor(100, 5, 4), "never below the prior level")
}

func TestLevelEngineApplyGrantsLevelBadgeOnce(t *testing.T) {
	engine := NewLevelEngine(catalog.MustDefaultLevelCatalog())
	p := models.NewUserProgress("u1", testStart)
	p.ExperiencePoints = 320
	p.TotalAnalyses = 15

	level, badge := engine.Apply(&p, testStart)
	require.NotNil(t, badge)
	assert.Equal(t, 3, level)
	assert.Equal(t, "level_3", badge.ID)
	assert.Equal(t, 3, p.CurrentLevel)

	level, badge = engine.Apply(&p, testStart)
	assert.Zero(t, level)
	assert.Nil(t, badge)
	assert.Equal(t, []string{"level_3"}, badgeIDs(p.Badges))
}

func TestNextLevel(t *testing.T) {
	engine := NewLevelEngine(catalog.MustDefaultLevelCatalog())

	next := engine.NextLevel(1, 40, 2)
	assert.Equal(t, 2, next.Level)
	assert.Equal(t, "Player", next.Name)
	assert.Equal(t, 100, next.PointsNeeded)
	assert.Equal(t, 5, next.AnalysesNeeded)
	assert.Equal(t, 60, next.PointsRemaining)
	assert.Equal(t, 3, next.AnalysesRemaining)
	assert.False(t, next.MaxLevel)
	assert.Contains(t, next.Description, "Player")

	top := engine.NextLevel(7, 9000, 300)
	assert.True(t, top.MaxLevel)
	assert.Equal(t, 7, top.Level)
	assert.Zero(t, top.PointsNeeded)
	assert.Zero(t, top.AnalysesNeeded)
	assert.Zero(t, top.PointsRemaining)
	assert.Zero(t, top.AnalysesRemaining)
}

func TestLevelEngineWithSmallerCatalog(t *testing.T) {
	levels, err := catalog.NewLevelCatalog([]catalog.Level{
		{Level: 1, Name: "Rookie", MinPoints: 0, MinAnalyses: 0},
		{Level: 2, Name: "Pro", MinPoints: 20, MinAnalyses: 2},
	})
	require.NoError(t, err)
	engine := NewLevelEngine(levels)

	assert.Equal(t, 2, engine.LevelFor(20, 2, 1))
	assert.True(t, engine.NextLevel(2, 20, 2).MaxLevel)
	assert.Equal(t, "Level 9", engine.Name(9))
}
