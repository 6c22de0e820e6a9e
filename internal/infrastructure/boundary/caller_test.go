package boundary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookstore-orders/internal/domain"
	"bookstore-orders/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallerStatusMapping(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"available":3}`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/conflict", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "short", http.StatusConflict)
	})
	mux.HandleFunc("/teapot", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusTeapot)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/garbage", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	m := metrics.New(prometheus.NewRegistry())
	c := NewCaller("catalog", srv.URL, 50*time.Millisecond, m)
	ctx := context.Background()

	var out struct {
		Available int `json:"available"`
	}
	require.NoError(t, c.Do(ctx, "get", http.MethodGet, "/ok", nil, &out))
	assert.Equal(t, 3, out.Available)

	err := c.Do(ctx, "get", http.MethodGet, "/missing", nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrBoundaryUnavailable)

	err = c.Do(ctx, "get", http.MethodGet, "/conflict", nil, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Status)
	assert.Equal(t, "short", se.Body)
	assert.ErrorIs(t, err, domain.ErrBoundaryUnavailable)
	assert.False(t, domain.IsBoundaryTimeout(err))

	err = c.Do(ctx, "odd", http.MethodGet, "/teapot", nil, nil)
	assert.ErrorIs(t, err, domain.ErrBoundaryUnavailable)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTeapot, se.Status)

	err = c.Do(ctx, "get", http.MethodGet, "/broken", nil, nil)
	assert.ErrorIs(t, err, domain.ErrBoundaryUnavailable)
	assert.False(t, domain.IsBoundaryTimeout(err))

	err = c.Do(ctx, "get", http.MethodGet, "/garbage", nil, &out)
	assert.ErrorIs(t, err, domain.ErrBoundaryUnavailable)

	err = c.Do(ctx, "slow", http.MethodGet, "/slow", nil, nil)
	assert.ErrorIs(t, err, domain.ErrBoundaryUnavailable)
	assert.True(t, domain.IsBoundaryTimeout(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BoundaryCalls.WithLabelValues("catalog", "get", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BoundaryCalls.WithLabelValues("catalog", "get", metrics.OutcomeNotFound)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BoundaryCalls.WithLabelValues("catalog", "slow", metrics.OutcomeTimeout)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BoundaryCalls.WithLabelValues("catalog", "get", metrics.OutcomeUnavailable)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BoundaryCalls.WithLabelValues("catalog", "odd", metrics.OutcomeUnavailable)))
}

func TestCallerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewCaller("users", url, time.Second, nil)
	err := c.Do(context.Background(), "get_user", http.MethodGet, "/users/1", nil, nil)
	assert.ErrorIs(t, err, domain.ErrBoundaryUnavailable)

	var be *domain.BoundaryError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "users", be.Boundary)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeOK, Outcome(nil))
	assert.Equal(t, metrics.OutcomeNotFound, Outcome(domain.ErrItemNotFound))
	assert.Equal(t, metrics.OutcomeTimeout, Outcome(domain.NewBoundaryError("x", "y", context.DeadlineExceeded)))
	assert.Equal(t, metrics.OutcomeUnavailable, Outcome(errors.New("boom")))
}
