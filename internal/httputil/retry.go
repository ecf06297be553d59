// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	defaultMaxRetries = 5
	defaultBaseDelay  = 10 * time.Second

	// maxRetryAfter caps a server-provided Retry-After and the backoff.
	maxRetryAfter = 10 * time.Minute
)

// Retrier sends requests and retries HTTP 429 (Too Many Requests).
//
// The wait before retry n (0-based) is the response's Retry-After header
// in seconds when present, otherwise BaseDelay * 2^n. Either is capped at
// ten minutes. After MaxRetries retries the last 429 response is returned
// so the caller can inspect it.
type Retrier struct {
	Client     *http.Client
	MaxRetries int           // 0 = 5
	BaseDelay  time.Duration // 0 = 10s
	Log        *zap.Logger   // nil = discard
}

// Do executes req with ctx. If ctx is done during a backoff wait it
// returns ctx.Err().
func (r *Retrier) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	base := r.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryAfter(resp.Header.Get("Retry-After"))
		if wait == 0 {
			wait = backoff(base, attempt)
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		log.Warn("rate limited",
			zap.String("url", req.URL.String()),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// backoff returns base * 2^attempt, capped at maxRetryAfter.
func backoff(base time.Duration, attempt int) time.Duration {
	wait := base
	for i := 0; i < attempt && wait < maxRetryAfter; i++ {
		wait *= 2
	}
	if wait > maxRetryAfter {
		return maxRetryAfter
	}
	return wait
}

// retryAfter parses a Retry-After value given in seconds. HTTP dates and
// malformed values yield zero.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}
