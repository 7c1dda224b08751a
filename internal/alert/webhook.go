package alert

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	requestTimeout = 5 * time.Second
	maxAttempts    = 3
)

// Sender delivers events to webhooks, retrying 5xx and transport errors
// with linear backoff. 4xx responses are final.
type Sender struct {
	Client   *http.Client
	Attempts int
	Backoff  time.Duration
}

// DefaultSender uses a 5s per-request timeout, 3 attempts and 1s backoff steps.
var DefaultSender = &Sender{
	Client:   &http.Client{Timeout: requestTimeout},
	Attempts: maxAttempts,
	Backoff:  time.Second,
}

// Send posts an event with DefaultSender.
func Send(ctx context.Context, cfg AlertConfig, event AlertEvent) error {
	return DefaultSender.Send(ctx, cfg, event)
}

// Send posts an event to cfg.URL. It stops early when ctx is done.
func (s *Sender) Send(ctx context.Context, cfg AlertConfig, event AlertEvent) error {
	body, err := FormatPayload(cfg.Format, event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	attempts := max(s.Attempts, 1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("webhook cancelled after %d attempts: %w", attempt, lastErr)
			case <-time.After(time.Duration(attempt) * s.Backoff):
			}
		}

		status, err := s.post(ctx, cfg, event, body)
		switch {
		case err != nil:
			lastErr = err
		case status >= 200 && status < 300:
			return nil
		case status >= 400 && status < 500:
			return fmt.Errorf("webhook rejected: HTTP %d", status)
		default:
			lastErr = fmt.Errorf("webhook server error: HTTP %d", status)
		}
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", attempts, lastErr)
}

func (s *Sender) post(ctx context.Context, cfg AlertConfig, event AlertEvent, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "meshgate-alert")
	req.Header.Set("X-Meshgate-Band", event.Band)
	if event.RequestID != "" {
		req.Header.Set("X-Request-Id", event.RequestID)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
