// Package storage persists the whole progress ledger. Every Save writes all users;
// there is no incremental persistence.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"softtennis-coach/models"
)

var ErrNotConfigured = errors.New("storage backend not configured")

// Backend loads and saves the complete user_id -> UserProgress mapping.
type Backend interface {
	Load(ctx context.Context) (map[string]models.UserProgress, error)
	Save(ctx context.Context, data map[string]models.UserProgress) error
	Name() string
}

// Marshal renders the ledger in its persisted JSON form.
func Marshal(data map[string]models.UserProgress) ([]byte, error) {
	if data == nil {
		data = map[string]models.UserProgress{}
	}
	return json.MarshalIndent(data, "", "  ")
}

// Unmarshal parses the persisted JSON form. Keys missing a user_id inherit the map key.
func Unmarshal(raw []byte) (map[string]models.UserProgress, error) {
	out := map[string]models.UserProgress{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode progress data: %w", err)
	}
	if out == nil {
		// a document of just "null"
		return map[string]models.UserProgress{}, nil
	}
	for id, p := range out {
		normalize(id, &p)
		out[id] = p
	}
	return out, nil
}

func normalize(id string, p *models.UserProgress) {
	if p.UserID == "" {
		p.UserID = id
	}
	if p.CurrentLevel < 1 {
		p.CurrentLevel = 1
	}
	if p.AnalysisRecords == nil {
		p.AnalysisRecords = []models.AnalysisRecord{}
	}
	if p.Badges == nil {
		p.Badges = []models.Badge{}
	}
}
