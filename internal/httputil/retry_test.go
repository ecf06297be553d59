// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// statusServer answers with statuses[i] on call i, then the last status.
func statusServer(t *testing.T, calls *int32, statuses ...int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(calls, 1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		w.WriteHeader(statuses[n])
	}))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, r *Retrier, ctx context.Context, url string) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return r.Do(ctx, req)
}

func TestRetrier(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries int
		wantStatus int
		wantCalls  int32
	}{
		{"immediate success", []int{200}, 5, 200, 1},
		{"retries then success", []int{429, 429, 200}, 5, 200, 3},
		{"exhausts retries", []int{429}, 3, 429, 4},
		{"default max retries", []int{429}, 0, 429, 6},
		{"other errors pass through", []int{500}, 5, 500, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := statusServer(t, &calls, tt.statuses...)
			r := &Retrier{Client: ts.Client(), MaxRetries: tt.maxRetries, BaseDelay: time.Millisecond}

			resp, err := do(t, r, context.Background(), ts.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
		})
	}
}

func TestRetrierContextCancelled(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, 429)
	r := &Retrier{Client: ts.Client(), BaseDelay: 500 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := do(t, r, ctx, ts.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetrierLogsBackoff(t *testing.T) {
	var calls int32
	ts := statusServer(t, &calls, 429, 200)
	core, logs := observer.New(zap.WarnLevel)
	r := &Retrier{Client: ts.Client(), BaseDelay: time.Millisecond, Log: zap.New(core)}

	resp, err := do(t, r, context.Background(), ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	entries := logs.FilterMessage("rate limited").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["attempt"])
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"0", 0},
		{"-3", 0},
		{"abc", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
		{"120", 120 * time.Second},
		{"100000", maxRetryAfter},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, retryAfter(tt.in))
		})
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		base    time.Duration
		attempt int
		want    time.Duration
	}{
		{10 * time.Second, 0, 10 * time.Second},
		{10 * time.Second, 3, 80 * time.Second},
		{10 * time.Second, 6, maxRetryAfter},
		{10 * time.Second, 40, maxRetryAfter},
		{time.Millisecond, 200, maxRetryAfter},
		{time.Hour, 0, maxRetryAfter},
	}
	for _, tt := range tests {
		got := backoff(tt.base, tt.attempt)
		assert.Equal(t, tt.want, got, "base %v attempt %d", tt.base, tt.attempt)
		assert.Positive(t, got)
	}
}
