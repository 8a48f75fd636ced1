package models

import (
	"time"
)

// UserProgress is the per-user aggregate of the ledger. It is handled as a value:
// mutations are applied to a Clone and the result replaces the stored copy.
type UserProgress struct {
	UserID           string           `json:"user_id"`
	TotalAnalyses    int              `json:"total_analyses"`
	CurrentLevel     int              `json:"current_level"`
	ExperiencePoints int              `json:"experience_points"`
	AnalysisRecords  []AnalysisRecord `json:"analysis_records"`
	Badges           []Badge          `json:"badges"`
	CreatedDate      time.Time        `json:"created_date"`
	LastAnalysisDate *time.Time       `json:"last_analysis_date"`
}

// NewUserProgress returns the state of a user that has never been analyzed.
func NewUserProgress(userID string, now time.Time) UserProgress {
	return UserProgress{
		UserID:           userID,
		TotalAnalyses:    0,
		CurrentLevel:     1,
		ExperiencePoints: 0,
		AnalysisRecords:  []AnalysisRecord{},
		Badges:           []Badge{},
		CreatedDate:      now,
	}
}

// Clone returns a deep copy; the copy shares no slices or maps with p.
func (p UserProgress) Clone() UserProgress {
	out := p
	if p.AnalysisRecords != nil {
		out.AnalysisRecords = make([]AnalysisRecord, len(p.AnalysisRecords))
		for i, r := range p.AnalysisRecords {
			out.AnalysisRecords[i] = r.clone()
		}
	}
	if p.Badges != nil {
		out.Badges = make([]Badge, len(p.Badges))
		copy(out.Badges, p.Badges)
	}
	if p.LastAnalysisDate != nil {
		t := *p.LastAnalysisDate
		out.LastAnalysisDate = &t
	}
	return out
}

// HasBadge reports whether a badge with id is already held.
func (p UserProgress) HasBadge(id string) bool {
	for _, b := range p.Badges {
		if b.ID == id {
			return true
		}
	}
	return false
}

// HasSession reports whether a record with sessionID was already appended.
func (p UserProgress) HasSession(sessionID string) bool {
	for _, r := range p.AnalysisRecords {
		if r.SessionID == sessionID {
			return true
		}
	}
	return false
}

// AddBadge appends b unless a badge with the same id is held. Returns true if appended.
func (p *UserProgress) AddBadge(b Badge) bool {
	if p.HasBadge(b.ID) {
		return false
	}
	p.Badges = append(p.Badges, b)
	return true
}

// RecordsSince returns the records whose timestamp is at or after since, oldest first.
func (p UserProgress) RecordsSince(since time.Time) []AnalysisRecord {
	var out []AnalysisRecord
	for _, r := range p.AnalysisRecords {
		if !r.Timestamp.Before(since) {
			out = append(out, r)
		}
	}
	return out
}

// LastRecords returns the n most recent records (all of them when fewer exist).
func (p UserProgress) LastRecords(n int) []AnalysisRecord {
	if n <= 0 {
		return nil
	}
	if len(p.AnalysisRecords) <= n {
		return p.AnalysisRecords
	}
	return p.AnalysisRecords[len(p.AnalysisRecords)-n:]
}

// FirstRecords returns the n oldest records (all of them when fewer exist).
func (p UserProgress) FirstRecords(n int) []AnalysisRecord {
	if n <= 0 {
		return nil
	}
	if len(p.AnalysisRecords) <= n {
		return p.AnalysisRecords
	}
	return p.AnalysisRecords[:n]
}
