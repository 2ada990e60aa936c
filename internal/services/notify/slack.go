// -----------------------------------------------------------------------
// Notify Service - posts operational messages to a Slack incoming webhook
// -----------------------------------------------------------------------

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/httpclient"
)

// SlackNotifier posts plain-text messages to an incoming webhook URL
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	logger     arbor.ILogger
}

// NewSlackNotifier creates a notifier. Returns nil when webhookURL is empty so
// callers can treat notifications as disabled.
func NewSlackNotifier(webhookURL string, logger arbor.ILogger) *SlackNotifier {
	if webhookURL == "" {
		return nil
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     httpclient.NewDefaultHTTPClient(10 * time.Second),
		logger:     logger,
	}
}

type slackMessage struct {
	Text string `json:"text"`
}

// Notify sends text to the channel bound to the webhook
func (n *SlackNotifier) Notify(ctx context.Context, text string) error {
	body, err := json.Marshal(slackMessage{Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notification rejected: HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	n.logger.Debug().Int("chars", len(text)).Msg("Notification posted")
	return nil
}
