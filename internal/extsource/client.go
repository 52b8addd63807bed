package extsource

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Abdullah7175/mustafabackend/internal/config"
	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// IFetcher defines the interface for pulling inquiries from the upstream
// inquiry source.
type IFetcher interface {
	Fetch(ctx context.Context) ([]models.Inquiry, error)
}

// httpFetcher implements IFetcher against the configured HTTP endpoint.
type httpFetcher struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewFetcher creates a new upstream inquiry fetcher.
func NewFetcher(cfg *config.Config) IFetcher {
	return &httpFetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.ExternalFetchTimeout},
	}
}

// Fetch pulls the current inquiry set from the upstream source, retrying
// transient failures. The whole operation is bounded by ExternalTotalTimeout
// so a slow upstream cannot stall the caller past the budget.
func (f *httpFetcher) Fetch(ctx context.Context) ([]models.Inquiry, error) {
	if f.cfg.ExternalInquiryURL == "" {
		return nil, fmt.Errorf("external inquiry source not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.ExternalTotalTimeout)
	defer cancel()

	var lastErr error
	attempts := f.cfg.ExternalFetchRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("external fetch aborted: %w", lastErr)
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
			log.Printf("WARN: Retrying external inquiry fetch (attempt %d/%d) after error: %v", attempt+1, attempts, lastErr)
		}

		inquiries, err := f.fetchOnce(ctx)
		if err == nil {
			return inquiries, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (f *httpFetcher) fetchOnce(ctx context.Context) ([]models.Inquiry, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", f.cfg.ExternalInquiryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create external inquiry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.cfg.ExternalInquiryAPIKey != "" {
		req.Header.Set("X-Api-Key", f.cfg.ExternalInquiryAPIKey)
	}
	if f.cfg.ExternalInquiryBearer != "" {
		req.Header.Set("Authorization", "Bearer "+f.cfg.ExternalInquiryBearer)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to contact external inquiry source: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read external inquiry response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("external inquiry source returned status %d", resp.StatusCode)
	}

	records, err := DecodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	inquiries := make([]models.Inquiry, 0, len(records))
	for _, rec := range records {
		inq, ok := NormalizeRecord(rec)
		if !ok {
			continue
		}
		inquiries = append(inquiries, inq)
	}
	return inquiries, nil
}
