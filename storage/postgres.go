package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"softtennis-coach/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps one JSON document per user in user_progress_documents.
type PostgresStore struct {
	DB *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

// OpenPostgres connects and migrates the documents table.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, ErrNotConfigured
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.ProgressDocument{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return NewPostgresStore(db), nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) Load(ctx context.Context) (map[string]models.UserProgress, error) {
	var docs []models.ProgressDocument
	if err := s.DB.WithContext(ctx).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("query progress documents: %w", err)
	}
	return decodeDocuments(docs)
}

// Save upserts every user in one transaction.
func (s *PostgresStore) Save(ctx context.Context, data map[string]models.UserProgress) error {
	docs, err := encodeDocuments(data)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"document",
					"total_analyses",
					"current_level",
					"experience_points",
					"updated_at",
				}),
			},
		).CreateInBatches(&docs, 200).Error
	})
}

func encodeDocuments(data map[string]models.UserProgress) ([]models.ProgressDocument, error) {
	docs := make([]models.ProgressDocument, 0, len(data))
	for id, p := range data {
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode progress of %s: %w", id, err)
		}
		docs = append(docs, models.ProgressDocument{
			UserID:           id,
			Document:         string(raw),
			TotalAnalyses:    p.TotalAnalyses,
			CurrentLevel:     p.CurrentLevel,
			ExperiencePoints: p.ExperiencePoints,
		})
	}
	return docs, nil
}

func decodeDocuments(docs []models.ProgressDocument) (map[string]models.UserProgress, error) {
	out := make(map[string]models.UserProgress, len(docs))
	for _, d := range docs {
		var p models.UserProgress
		if err := json.Unmarshal([]byte(d.Document), &p); err != nil {
			return nil, fmt.Errorf("decode progress of %s: %w", d.UserID, err)
		}
		normalize(d.UserID, &p)
		out[d.UserID] = p
	}
	return out, nil
}
