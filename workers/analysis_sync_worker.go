package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"softtennis-coach/logger"
	"softtennis-coach/models"
	"softtennis-coach/services"
	"softtennis-coach/utils"
)

// CompletedAnalysis is one finished session as reported by the analysis service.
type CompletedAnalysis struct {
	UserID         string             `json:"user_id"`
	SessionID      string             `json:"session_id"`
	OverallScore   float64            `json:"overall_score"`
	Angle          string             `json:"angle"`
	CategoryScores map[string]float64 `json:"category_scores,omitempty"`
	CompletedAt    time.Time          `json:"completed_at"`
}

// AnalysisRecorder is the part of the ledger the worker feeds.
type AnalysisRecorder interface {
	AddAnalysisRecord(ctx context.Context, in services.AnalysisInput) services.AddAnalysisResult
}

type AnalysisSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewAnalysisSyncClient(baseURL, token string) *AnalysisSyncClient {
	return &AnalysisSyncClient{
		BaseURL:    baseURL,
		Token:      token,
		HTTPClient: utils.HTTPClient,
	}
}

// GetCompletedAnalyses lists the sessions finished since the given time.
func (c *AnalysisSyncClient) GetCompletedAnalyses(ctx context.Context, since time.Time) ([]CompletedAnalysis, error) {
	u, err := url.Parse(fmt.Sprintf("%s/api/v1/analyses", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("X-Service-Token", c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call analysis service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("analysis service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Analyses []CompletedAnalysis `json:"analyses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode analysis service response: %w", err)
	}
	return response.Analyses, nil
}

// SyncResult counts what one poll did with the fetched batch.
type SyncResult struct {
	Fetched    int
	Recorded   int
	Duplicates int
	Rejected   int
}

// SyncOnce fetches the analyses finished since the cursor and records them in order.
// Entries without a user or with an unknown angle are rejected and logged.
func SyncOnce(ctx context.Context, client *AnalysisSyncClient, recorder AnalysisRecorder, since time.Time, log *logger.Logger) (SyncResult, error) {
	analyses, err := client.GetCompletedAnalyses(ctx, since)
	if err != nil {
		return SyncResult{}, err
	}

	res := SyncResult{Fetched: len(analyses)}
	for _, a := range analyses {
		angle, err := models.ParseAngle(a.Angle)
		if err != nil || a.UserID == "" || a.SessionID == "" {
			log.Warn("⚠️ rejected analysis from sync service", "user_id", a.UserID, "session_id", a.SessionID, "angle", a.Angle)
			res.Rejected++
			continue
		}
		out := recorder.AddAnalysisRecord(ctx, services.AnalysisInput{
			UserID:         a.UserID,
			SessionID:      a.SessionID,
			Score:          a.OverallScore,
			Angle:          angle,
			CategoryScores: a.CategoryScores,
		})
		if out.Duplicate {
			res.Duplicates++
			continue
		}
		res.Recorded++
	}
	return res, nil
}

// PollAnalyses polls the analysis service until ctx is done. The cursor only moves
// forward after a successful poll, so a failed poll retries the same window.
func PollAnalyses(ctx context.Context, client *AnalysisSyncClient, recorder AnalysisRecorder, pollInterval time.Duration, log *logger.Logger) {
	log.Info("Starting analysis polling...", "url", client.BaseURL, "interval", pollInterval.String())
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Analysis polling stopped.")
			return
		case <-ticker.C:
			pollTime := time.Now().UTC()
			res, err := SyncOnce(ctx, client, recorder, lastSyncTime, log)
			if err != nil {
				log.Error("❌ Error polling analyses", "since", lastSyncTime.Format(time.RFC3339), "error", err)
				continue
			}
			lastSyncTime = pollTime
			if res.Fetched == 0 {
				continue
			}
			log.Info("📥 Analyses synced",
				"fetched", res.Fetched,
				"recorded", res.Recorded,
				"duplicates", res.Duplicates,
				"rejected", res.Rejected,
			)
		}
	}
}
