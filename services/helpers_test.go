package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"softtennis-coach/catalog"
	"softtennis-coach/logger"
	"softtennis-coach/models"

	"github.com/jonboulle/clockwork"
)

var testStart = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

type memoryBackend struct {
	mu      sync.Mutex
	data    map[string]models.UserProgress
	saves   int
	loadErr error
	saveErr error
}

func (m *memoryBackend) Name() string { return "memory" }

func (m *memoryBackend) Load(_ context.Context) (map[string]models.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := map[string]models.UserProgress{}
	for k, v := range m.data {
		out[k] = v.Clone()
	}
	return out, nil
}

func (m *memoryBackend) Save(_ context.Context, data map[string]models.UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data = data
	return nil
}

func (m *memoryBackend) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

var errDiskFull = errors.New("disk full")

func newTestService(t *testing.T) (*ProgressionService, *clockwork.FakeClock, *memoryBackend) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testStart)
	backend := &memoryBackend{}
	store := NewRecordStore(backend, clock, logger.Nop())
	store.Load(context.Background())
	svc := NewProgressionService(
		store,
		NewLevelEngine(catalog.MustDefaultLevelCatalog()),
		NewBadgeEvaluator(catalog.MustDefaultBadgeCatalog()),
		NewTrendAnalyzer(),
		clock,
		logger.Nop(),
	)
	return svc, clock, backend
}

func addScore(t *testing.T, svc *ProgressionService, userID string, score float64) AddAnalysisResult {
	t.Helper()
	return svc.AddAnalysisRecord(context.Background(), AnalysisInput{
		UserID: userID,
		Score:  score,
		Angle:  models.AngleSide,
	})
}

func badgeIDs(badges []models.Badge) []string {
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		out = append(out, b.ID)
	}
	return out
}
