package boundary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/metrics"
)

// ErrNotFound is returned for a 404 so each client can map it to its own domain error.
var ErrNotFound = errors.New("boundary: not found")

// StatusError carries a non-2xx response that is neither 404 nor a server failure.
// Do returns it wrapped in a *domain.BoundaryError.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// Caller issues JSON requests to one collaborator with a per-call deadline.
type Caller struct {
	Name    string
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
	Metrics *metrics.Metrics
}

func NewCaller(name, baseURL string, timeout time.Duration, m *metrics.Metrics) *Caller {
	return &Caller{
		Name:    name,
		BaseURL: baseURL,
		Timeout: timeout,
		Client:  &http.Client{},
		Metrics: m,
	}
}

// Do sends in (when non-nil) as the JSON body and decodes the response into out (when non-nil).
func (c *Caller) Do(ctx context.Context, op, method, path string, in, out any) error {
	start := time.Now()
	err := c.do(ctx, method, path, in, out)
	c.observe(op, start, err)
	return err
}

func (c *Caller) do(ctx context.Context, method, path string, in, out any) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return domain.NewBoundaryError(c.Name, method+" "+path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return domain.NewBoundaryError(c.Name, method+" "+path, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 300:
		// Clients inspect the StatusError for statuses they understand; anything
		// else is a contract failure of the collaborator.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		se := &StatusError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
		return domain.NewBoundaryError(c.Name, method+" "+path, se)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewBoundaryError(c.Name, method+" "+path, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Caller) observe(op string, start time.Time, err error) {
	if c.Metrics == nil {
		return
	}
	c.Metrics.BoundaryLatency.WithLabelValues(c.Name, op).Observe(float64(time.Since(start).Milliseconds()))
	c.Metrics.BoundaryCalls.WithLabelValues(c.Name, op, Outcome(err)).Inc()
}

// Outcome classifies a boundary result for metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrItemNotFound):
		return metrics.OutcomeNotFound
	case domain.IsBoundaryTimeout(err):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeUnavailable
	}
}
