package models

import (
	"strconv"
	"time"
)

// Badge is an awarded achievement. A user holds at most one badge per ID.
type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedDate  time.Time `json:"earned_date"`
}

// LevelBadgeID is the id of the badge granted on reaching a level.
func LevelBadgeID(level int) string {
	return "level_" + strconv.Itoa(level)
}

// LevelBadge builds the badge granted on reaching level.
func LevelBadge(level int, at time.Time) Badge {
	return Badge{
		ID:          LevelBadgeID(level),
		Name:        "Level " + strconv.Itoa(level) + " reached",
		Description: "Reached level " + strconv.Itoa(level),
		Icon:        "⭐",
		EarnedDate:  at,
	}
}
