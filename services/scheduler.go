// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
)

// SnapshotUploader stores a ledger backup. utils.R2Uploader implements it.
type SnapshotUploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// BackupKey names the object of a backup taken at t, e.g.
// "softtennis-coach/progress/20261017T093000Z.json".
func BackupKey(appName string, t time.Time) string {
	return fmt.Sprintf("%s/progress/%s.json", slug.Make(appName), t.UTC().Format("20060102T150405Z"))
}

// BackupOnce uploads the current ledger and returns the object key.
func (s *ProgressionService) BackupOnce(ctx context.Context, uploader SnapshotUploader, appName string) (string, error) {
	body, err := s.ExportSnapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("export snapshot: %w", err)
	}
	key := BackupKey(appName, s.now())
	if err := uploader.Upload(ctx, key, body, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

// StartBackupScheduler uploads a ledger backup every interval. The caller shuts the
// returned scheduler down.
func (s *ProgressionService) StartBackupScheduler(uploader SnapshotUploader, interval time.Duration, appName string) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(s.clock))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			key, err := s.BackupOnce(ctx, uploader, appName)
			if err != nil {
				s.log.Error("❌ [Scheduler] progress backup failed", "error", err)
				return
			}
			s.log.Info("✅ [Scheduler] progress backup uploaded", "key", key, "users", s.Store.Len())
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule backup job: %w", err)
	}

	sched.Start()
	return sched, nil
}
