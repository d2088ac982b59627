// Rift Rewind - Quarterly League Journey Pipeline
// Copyright 2026 Rewind Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rewindlab/riftrewind

// Package riot is the upstream match data client. It resolves Riot IDs
// to PUUIDs via account-v1 and downloads match documents via match-v5,
// normalizing each into the flat record the pipeline consumes.
//
// Resilience:
//   - Client-side rate limiting shared across all fetch workers
//   - Circuit breaker around the regional API hosts
//   - HTTP 429 handled with the Retry-After header
//   - HTTP 5xx retried with exponential backoff (1s, 2s, ... 16s cap)
package riot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rewindlab/riftrewind/internal/config"
	"github.com/rewindlab/riftrewind/internal/logging"
	"github.com/rewindlab/riftrewind/internal/metrics"
	"github.com/rewindlab/riftrewind/internal/models"
)

// pageSize is the match-v5 ID page size, the API maximum.
const pageSize = 100

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics.
const maxErrorBodySize = 64 * 1024 // 64KB

// maxBackoff caps the exponential retry delay for 5xx responses.
const maxBackoff = 16 * time.Second

// Client is the interface the fetch stage depends on. Implemented by
// HTTPClient for production and by fakes in tests.
type Client interface {
	// ResolvePUUID resolves a platform-scoped Riot ID (Game#Tag) to the
	// player's PUUID.
	ResolvePUUID(ctx context.Context, platform, gameName, tagLine string) (string, error)

	// ListMatchIDs pages through all match IDs for a player within a
	// time window, newest first, up to max.
	ListMatchIDs(ctx context.Context, platform, puuid string, window models.QuarterWindow, max int) ([]string, error)

	// FetchMatch downloads one match and normalizes the requesting
	// player's participant row. Returns (nil, nil) for matches filtered
	// out by queue type.
	FetchMatch(ctx context.Context, matchID, puuid string) (*models.MatchRecord, error)
}

// HTTPClient implements Client against the Riot regional API hosts.
// Safe for concurrent use.
type HTTPClient struct {
	apiKey     string
	client     *http.Client
	maxRetries int
	baseDelay  time.Duration
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]

	// hostOverride replaces the regional host, for tests.
	hostOverride string
}

// NewHTTPClient builds the production client from configuration.
func NewHTTPClient(cfg *config.RiotConfig) *HTTPClient {
	settings := gobreaker.Settings{
		Name:    "riot-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &HTTPClient{
		apiKey:     cfg.APIKey,
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		baseDelay:  1 * time.Second,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (c *HTTPClient) host(region string) string {
	if c.hostOverride != "" {
		return c.hostOverride
	}
	return "https://" + region + ".api.riotgames.com"
}

// ResolvePUUID calls account-v1 by-riot-id on the platform's regional
// cluster.
func (c *HTTPClient) ResolvePUUID(ctx context.Context, platform, gameName, tagLine string) (string, error) {
	region, err := RegionForPlatform(platform)
	if err != nil {
		return "", err
	}

	reqURL := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.host(region), url.PathEscape(gameName), url.PathEscape(tagLine))

	body, err := c.get(ctx, "account", reqURL)
	if err != nil {
		return "", fmt.Errorf("resolve %s#%s: %w", gameName, tagLine, err)
	}

	var account struct {
		PUUID string `json:"puuid"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return "", fmt.Errorf("decode account response: %w", err)
	}
	if account.PUUID == "" {
		return "", fmt.Errorf("account response missing puuid")
	}
	return account.PUUID, nil
}

// ListMatchIDs pages through match-v5 IDs within the window. The API
// returns newest first; paging stops at an empty or short page or at
// max IDs.
func (c *HTTPClient) ListMatchIDs(ctx context.Context, platform, puuid string, window models.QuarterWindow, max int) ([]string, error) {
	region, err := RegionForPlatform(platform)
	if err != nil {
		return nil, err
	}

	var ids []string
	for start := 0; ; start += pageSize {
		count := pageSize
		if max > 0 && max-len(ids) < count {
			count = max - len(ids)
		}
		if count <= 0 {
			break
		}

		params := url.Values{}
		params.Set("startTime", strconv.FormatInt(window.Start.Unix(), 10))
		params.Set("endTime", strconv.FormatInt(window.End.Unix(), 10))
		params.Set("start", strconv.Itoa(start))
		params.Set("count", strconv.Itoa(count))

		reqURL := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?%s",
			c.host(region), url.PathEscape(puuid), params.Encode())

		body, err := c.get(ctx, "match_ids", reqURL)
		if err != nil {
			return nil, fmt.Errorf("list match ids page %d: %w", start/pageSize, err)
		}

		var page []string
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode match id page: %w", err)
		}
		ids = append(ids, page...)
		if len(page) < count {
			break
		}
	}
	return ids, nil
}

// FetchMatch downloads a match from the cluster encoded in its ID and
// normalizes the player's participant row.
func (c *HTTPClient) FetchMatch(ctx context.Context, matchID, puuid string) (*models.MatchRecord, error) {
	region, err := RegionForMatchID(matchID)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.host(region), url.PathEscape(matchID))

	body, err := c.get(ctx, "match", reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch match %s: %w", matchID, err)
	}

	var match matchResponse
	if err := json.Unmarshal(body, &match); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", matchID, err)
	}
	return normalize(&match, puuid)
}

// get performs one rate-limited, breaker-protected GET with retries.
func (c *HTTPClient) get(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		var lastErr error

		for attempt := 0; attempt <= c.maxRetries; attempt++ {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}

			body, retryAfter, err := c.doOnce(ctx, endpoint, reqURL)
			if err == nil {
				return body, nil
			}
			lastErr = err
			if retryAfter < 0 {
				return nil, err
			}
			if attempt == c.maxRetries {
				break
			}

			delay := c.baseDelay * time.Duration(1<<uint(attempt))
			if delay > maxBackoff {
				delay = maxBackoff
			}
			if retryAfter > 0 {
				delay = retryAfter
			}
			metrics.RiotRetries.Inc()
			logging.Debug().
				Str("endpoint", endpoint).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("Retrying upstream request")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return nil, fmt.Errorf("retries exhausted: %w", lastErr)
	})
}

// doOnce performs a single request. The returned retryAfter is -1 for
// permanent failures, 0 for retryable ones without a server hint, and
// positive when the server set Retry-After.
func (c *HTTPClient) doOnce(ctx context.Context, endpoint, reqURL string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, -1, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Riot-Token", c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	metrics.RiotRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.RiotRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, 0, fmt.Errorf("read response body: %w", err)
		}
		return body, 0, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		delay := time.Duration(0)
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				delay = time.Duration(seconds) * time.Second
			}
		}
		return nil, delay, fmt.Errorf("rate limited (HTTP 429)")

	case resp.StatusCode >= 500:
		return nil, 0, fmt.Errorf("upstream error (HTTP %d)", resp.StatusCode)

	default:
		body := readBodyForError(resp.Body)
		return nil, -1, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}
}

// readBodyForError reads at most maxErrorBodySize of a response body
// for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
