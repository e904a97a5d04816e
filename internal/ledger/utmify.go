package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// UTMifySink posts conversion events to the UTMify webhook. Delivery retries
// a bounded number of times with fixed backoff; this is the only retry path
// in the pipeline.
type UTMifySink struct {
	URL     string
	Token   string
	Enabled bool

	// ForwardWithoutGclid controls whether conversions lacking a GCLID are
	// still posted. The downstream may reject them; the sheet sinks receive
	// them regardless.
	ForwardWithoutGclid bool

	HTTPClient *http.Client
	Logger     *zap.Logger

	Attempts int           // defaults to 3
	Backoff  time.Duration // defaults to 2s
}

func (s *UTMifySink) Name() string { return "utmify" }

func (s *UTMifySink) Deliver(ctx context.Context, d *Delivery) error {
	if !s.Enabled || s.Token == "" {
		s.logger().Debug("utmify disabled, skipping delivery", zap.String("orderId", d.Event.OrderID))
		return nil
	}
	if d.Event.Gclid() == "" {
		if !s.ForwardWithoutGclid {
			s.logger().Info("no gclid, skipping utmify delivery",
				zap.String("orderId", d.Event.OrderID))
			return nil
		}
		s.logger().Warn("no gclid on conversion, forwarding anyway",
			zap.String("orderId", d.Event.OrderID))
	}

	body, err := json.Marshal(d.Event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	attempts := s.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := s.Backoff
	if backoff <= 0 {
		backoff = 2 * time.Second
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		if lastErr = s.post(ctx, body); lastErr == nil {
			return nil
		}
		s.logger().Warn("utmify delivery attempt failed",
			zap.String("orderId", d.Event.OrderID),
			zap.Int("attempt", i+1),
			zap.Error(lastErr))
	}
	return fmt.Errorf("utmify delivery failed after %d attempts: %w", attempts, lastErr)
}

func (s *UTMifySink) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-token", s.Token)

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

func (s *UTMifySink) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
