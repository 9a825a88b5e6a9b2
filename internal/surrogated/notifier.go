package surrogated

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/surrogate-core/internal/study"
	"github.com/GoSim-25-26J-441/surrogate-core/pkg/logger"
)

// CallbackSecretHeader carries the per-study callback secret
const CallbackSecretHeader = "X-Surrogate-Callback-Secret"

// NotificationPayload is the JSON body posted to a study callback URL
type NotificationPayload struct {
	StudyID   string        `json:"study_id"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	Report    *study.Report `json:"report,omitempty"`
	Timestamp int64         `json:"timestamp"` // when the notification was sent
}

// Notifier posts study completion callbacks with retries
type Notifier struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewNotifier creates a notifier with bounded exponential backoff
func NewNotifier(l *slog.Logger) *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: 3,
		baseDelay:  1 * time.Second,
		logger:     logger.OrDefault(l),
	}
}

// Notify sends the callback for rec asynchronously. Studies without a
// callback URL are skipped.
func (n *Notifier) Notify(rec StudyRecord) {
	if rec.Callback.URL == "" {
		return
	}
	finalURL := strings.ReplaceAll(rec.Callback.URL, "{study_id}", rec.ID)
	payload := NotificationPayload{
		StudyID:   rec.ID,
		Status:    rec.Status,
		Error:     rec.Error,
		CreatedAt: rec.CreatedAt,
		EndedAt:   rec.EndedAt,
		Report:    rec.Report,
		Timestamp: time.Now().UTC().UnixMilli(),
	}
	go n.send(finalURL, rec.Callback.Secret, payload)
}

// send performs the POST, retrying non-2xx responses and transport errors
func (n *Notifier) send(callbackURL, secret string, payload NotificationPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("failed to marshal notification payload", "study_id", payload.StudyID, "error", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			delay := n.baseDelay * time.Duration(1<<uint(attempt-1))
			n.logger.Debug("retrying notification", "study_id", payload.StudyID, "attempt", attempt, "delay", delay)
			time.Sleep(delay)
		}

		req, err := http.NewRequest(http.MethodPost, callbackURL, bytes.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "surrogate-core/1.0")
		if secret != "" {
			req.Header.Set(CallbackSecretHeader, secret)
		}

		resp, err := n.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			n.logger.Warn("notification attempt failed", "study_id", payload.StudyID, "attempt", attempt+1, "error", err)
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			n.logger.Info("notification sent", "study_id", payload.StudyID, "status", payload.Status, "status_code", resp.StatusCode)
			return
		}
		lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		n.logger.Warn("notification returned non-2xx status",
			"study_id", payload.StudyID,
			"status_code", resp.StatusCode,
			"response_body", string(respBody),
			"attempt", attempt+1)
	}

	n.logger.Error("failed to send notification after retries",
		"study_id", payload.StudyID,
		"max_retries", n.maxRetries,
		"last_error", lastErr)
}
