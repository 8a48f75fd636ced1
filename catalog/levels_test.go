package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLevelCatalog(t *testing.T) {
	c := MustDefaultLevelCatalog()
	assert.Equal(t, 7, c.Max())

	l, ok := c.Get(3)
	require.True(t, ok)
	assert.Equal(t, Level{Level: 3, Name: "Skilled Player", MinPoints: 300, MinAnalyses: 15}, l)

	_, ok = c.Get(0)
	assert.False(t, ok)
	_, ok = c.Get(8)
	assert.False(t, ok)
}

func TestLevelsReturnsCopy(t *testing.T) {
	c := MustDefaultLevelCatalog()
	levels := c.Levels()
	levels[0].Name = "changed"

	l, _ := c.Get(1)
	assert.Equal(t, "Beginner", l.Name)
}

func TestNewLevelCatalogValidation(t *testing.T) {
	tests := []struct {
		name   string
		levels []Level
	}{
		{"empty", nil},
		{"not starting at one", []Level{{Level: 2, Name: "A"}}},
		{"gap", []Level{{Level: 1, Name: "A"}, {Level: 3, Name: "B", MinPoints: 10, MinAnalyses: 1}}},
		{"missing name", []Level{{Level: 1}}},
		{"points not increasing", []Level{{Level: 1, Name: "A"}, {Level: 2, Name: "B", MinPoints: 0, MinAnalyses: 1}}},
		{"analyses not increasing", []Level{{Level: 1, Name: "A", MinAnalyses: 5}, {Level: 2, Name: "B", MinPoints: 10, MinAnalyses: 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLevelCatalog(tt.levels)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestParseLevelCatalog(t *testing.T) {
	raw := []byte(`
levels:
  - {level: 1, name: Rookie, min_points: 0, min_analyses: 0}
  - {level: 2, name: Regular, min_points: 50, min_analyses: 2}
`)
	c, err := ParseLevelCatalog(raw)
	require.NoError(t, err)
	assert.Equal(t, []Level{
		{Level: 1, Name: "Rookie"},
		{Level: 2, Name: "Regular", MinPoints: 50, MinAnalyses: 2},
	}, c.Levels())

	_, err = ParseLevelCatalog([]byte("levels: [oops"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestLoadLevelCatalogEmptyPath(t *testing.T) {
	c, err := LoadLevelCatalog("")
	require.NoError(t, err)
	assert.Equal(t, DefaultLevels(), c.Levels())

	_, err = LoadLevelCatalog("does-not-exist.yaml")
	assert.Error(t, err)
}
