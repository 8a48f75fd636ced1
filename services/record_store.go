package services

import (
	"context"
	"fmt"
	"sync"

	"softtennis-coach/logger"
	"softtennis-coach/models"
	"softtennis-coach/storage"

	"github.com/jonboulle/clockwork"
)

// RecordStore is the process-wide cache of every UserProgress, backed by a storage.Backend.
// Mutations of one user are serialized by a per-user lock; writes to the backend are
// serialized by a single save lock.
type RecordStore struct {
	backend storage.Backend
	clock   clockwork.Clock
	log     *logger.Logger

	mu    sync.RWMutex
	users map[string]models.UserProgress

	userLocks sync.Map // user_id -> *sync.Mutex
	saveMu    sync.Mutex
}

func NewRecordStore(backend storage.Backend, clock clockwork.Clock, log *logger.Logger) *RecordStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RecordStore{
		backend: backend,
		clock:   clock,
		log:     log,
		users:   map[string]models.UserProgress{},
	}
}

// Load replaces the cache with the persisted state. Read or parse failures are logged and
// leave the store empty; they never stop the process.
func (s *RecordStore) Load(ctx context.Context) map[string]models.UserProgress {
	data, err := s.backend.Load(ctx)
	if err != nil {
		s.log.Warn("⚠️ progress data unreadable, starting from an empty store",
			"backend", s.backend.Name(), "error", err)
		data = map[string]models.UserProgress{}
	}
	if data == nil {
		data = map[string]models.UserProgress{}
	}

	s.mu.Lock()
	s.users = data
	s.mu.Unlock()

	s.log.Info("progress store loaded", "backend", s.backend.Name(), "users", len(data))
	return s.Snapshot()
}

// Save persists data in full.
func (s *RecordStore) Save(ctx context.Context, data map[string]models.UserProgress) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("save progress (%s): %w", s.backend.Name(), err)
	}
	return nil
}

// Get returns a copy of the user's aggregate.
func (s *RecordStore) Get(userID string) (models.UserProgress, bool) {
	s.mu.RLock()
	p, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return models.UserProgress{}, false
	}
	return p.Clone(), true
}

// Snapshot deep-copies every aggregate.
func (s *RecordStore) Snapshot() map[string]models.UserProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.UserProgress, len(s.users))
	for id, p := range s.users {
		out[id] = p.Clone()
	}
	return out
}

// Len is the number of known users.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// UpsertAndPersist applies mutate to a copy of the user's aggregate, creating a fresh one
// when the user is unknown, installs the result and persists the whole store. The returned
// error only reports persistence failures; the in-memory update has happened regardless.
func (s *RecordStore) UpsertAndPersist(ctx context.Context, userID string, mutate func(p *models.UserProgress)) (models.UserProgress, error) {
	p, _, err := s.apply(ctx, userID, true, func(p *models.UserProgress) bool {
		mutate(p)
		return true
	})
	return p, err
}

// UpsertIf is UpsertAndPersist with a mutator that may return false to abandon the change;
// an abandoned change is neither installed nor saved, and a user it would have created
// stays unknown. applied reports whether the change was kept.
func (s *RecordStore) UpsertIf(ctx context.Context, userID string, mutate func(p *models.UserProgress) bool) (p models.UserProgress, applied bool, err error) {
	return s.apply(ctx, userID, true, mutate)
}

// Update is UpsertAndPersist for existing users only. mutate returns false to abandon the
// change, in which case nothing is installed or saved. ok is false when the user is unknown
// or the change was abandoned.
func (s *RecordStore) Update(ctx context.Context, userID string, mutate func(p *models.UserProgress) bool) (models.UserProgress, bool, error) {
	return s.apply(ctx, userID, false, mutate)
}

func (s *RecordStore) apply(ctx context.Context, userID string, create bool, mutate func(p *models.UserProgress) bool) (models.UserProgress, bool, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	current, ok := s.Get(userID)
	if !ok {
		if !create {
			return models.UserProgress{}, false, nil
		}
		current = models.NewUserProgress(userID, s.clock.Now().UTC())
	}

	if !mutate(&current) {
		return current, false, nil
	}

	s.mu.Lock()
	s.users[userID] = current.Clone()
	s.mu.Unlock()

	if err := s.persist(ctx); err != nil {
		return current, true, err
	}
	return current, true, nil
}

// persist snapshots under the save lock so a later save never writes older state.
func (s *RecordStore) persist(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if err := s.backend.Save(ctx, s.Snapshot()); err != nil {
		return fmt.Errorf("save progress (%s): %w", s.backend.Name(), err)
	}
	return nil
}

func (s *RecordStore) userLock(userID string) *sync.Mutex {
	l, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return l.(*sync.Mutex)
}
