package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"softtennis-coach/services"

	"github.com/gofiber/fiber/v2"
)

// badgePollInterval is how often the stream checks the ledger for new badges.
var badgePollInterval = 2 * time.Second

// StreamUserBadgesSSE streams badges the user earns after the stream was opened.
func StreamUserBadgesSSE(c *fiber.Ctx, progressionService *services.ProgressionService, userID string) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	done := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		streamBadges(w, progressionService, userID, done)
	})

	return nil
}

// streamBadges writes badge events until done is closed or a flush fails.
// Badges are append-only, so the number already sent is the cursor.
func streamBadges(w *bufio.Writer, progressionService *services.ProgressionService, userID string, done <-chan struct{}) {
	ticker := time.NewTicker(badgePollInterval)
	defer ticker.Stop()

	badges, _ := progressionService.UserBadges(userID)
	sent := len(badges)

	// initial keepalive (comment event)
	w.WriteString(":\n\n")
	if err := w.Flush(); err != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			badges, _ := progressionService.UserBadges(userID)
			if len(badges) <= sent {
				// keepalive so dead clients are detected on flush
				w.WriteString(":\n\n")
			}
			for _, b := range badges[min(sent, len(badges)):] {
				payload, _ := json.Marshal(b)
				fmt.Fprintf(w, "event: badge\ndata: %s\n\n", payload)
			}
			if len(badges) > sent {
				sent = len(badges)
			}
			if err := w.Flush(); err != nil {
				// client disconnected
				return
			}
		case <-done:
			return
		}
	}
}
