// Package webhook delivers signed inquiry notifications to the configured
// downstream endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/Abdullah7175/mustafabackend/internal/config"
	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// Notifier defines the interface for outbound inquiry notifications.
type Notifier interface {
	NotifyInquiry(ctx context.Context, inquiry *models.Inquiry) error
}

// httpNotifier implements Notifier over HTTP with an HMAC signature.
type httpNotifier struct {
	cfg        *config.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewNotifier creates a new webhook notifier. When no URL or secret is
// configured delivery is silently skipped.
func NewNotifier(cfg *config.Config) Notifier {
	return &httpNotifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// Sign computes the hex HMAC-SHA256 of "<timestamp>.<body>". The receiver
// recomputes this from the headers to verify origin and freshness.
func Sign(secret string, timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// NotifyInquiry posts the inquiry to the configured webhook endpoint.
func (n *httpNotifier) NotifyInquiry(ctx context.Context, inquiry *models.Inquiry) error {
	if n.cfg.WebhookURL == "" || n.cfg.WebhookSecret == "" {
		log.Println("Webhook URL or secret not configured, skipping inquiry notification.")
		return nil
	}

	body, err := json.Marshal(inquiry)
	if err != nil {
		return fmt.Errorf("failed to marshal inquiry %s for webhook: %w", inquiry.ID, err)
	}

	timestamp := n.now().Unix()
	signature := Sign(n.cfg.WebhookSecret, timestamp, body)

	req, err := http.NewRequestWithContext(ctx, "POST", n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-Webhook-Signature", signature)
	req.Header.Set("Idempotency-Key", "inq-"+inquiry.ID)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver webhook for inquiry %s: %w", inquiry.ID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook endpoint returned status %d for inquiry %s", resp.StatusCode, inquiry.ID)
	}
	log.Printf("Webhook delivered for inquiry %s", inquiry.ID)
	return nil
}
