// Package statsapi proxies the remote character-stats service referenced in
// spec.md §4.8: an asynchronous fetch-and-cache layer keyed by character_id,
// plus a heartbeat ping. Grounded on the retry-capable HTTP client and
// bounded LRU cache present in the wider example pack
// (other_examples/manifests/AKJUS-bsc-erigon and
// .../Kong-go-database-reconciler go.mod files) — the teacher itself has no
// outbound HTTP client, since its game server never calls third-party
// services.
package statsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// CharacterStats is the cached remote payload for one character.
type CharacterStats struct {
	CharacterID uint64         `json:"character_id"`
	Name        string         `json:"name"`
	GearScore   float64        `json:"gear_score"`
	Engravings  []string       `json:"engravings"`
	FetchedAt   int64          `json:"fetched_at"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Source is the external-facing boundary the dispatcher depends on
// (SPEC_FULL.md §6 "statsapi.Source"). A real deployment satisfies this with
// Client; tests satisfy it with a stub.
type Source interface {
	Sync(ctx context.Context, characterID uint64, name string, region string)
	GetStats(ctx context.Context) map[uint64]CharacterStats
	Heartbeat(ctx context.Context, clientID, version, region string) error
}

const cacheCapacity = 4096

// Client implements Source against a real HTTP endpoint (spec.md §4.8).
// Stats-fetch failures are logged and never surface to the caller: "the
// cache simply remains stale" (spec.md §4.8). Heartbeat failures are
// returned to the caller.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	cache   *lru.Cache[uint64, CharacterStats]
	log     *slog.Logger
}

// New builds a Client. baseURL is the remote stats service root; timeout
// bounds each individual HTTP attempt (config.Config.StatsAPITimeout).
func New(baseURL string, timeout time.Duration, log *slog.Logger) (*Client, error) {
	cache, err := lru.New[uint64, CharacterStats](cacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("statsapi: building cache: %w", err)
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 3
	httpClient.HTTPClient.Timeout = timeout
	httpClient.Logger = nil // slog below replaces retryablehttp's own logging

	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		cache:   cache,
		log:     log,
	}, nil
}

// Sync enqueues an asynchronous fetch of character's stats (spec.md §4.8
// "enqueue an asynchronous fetch"). The caller (dispatcher) is expected to
// have already checked valid_zone/region before calling this.
func (c *Client) Sync(ctx context.Context, characterID uint64, name string, region string) {
	go func() {
		stats, err := c.fetch(ctx, characterID, region)
		if err != nil {
			c.log.Warn("statsapi fetch failed", "character_id", characterID, "name", name, "err", err)
			return
		}
		c.cache.Add(characterID, stats)
	}()
}

func (c *Client) fetch(ctx context.Context, characterID uint64, region string) (CharacterStats, error) {
	url := fmt.Sprintf("%s/characters/%d?region=%s", c.baseURL, characterID, region)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return CharacterStats{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return CharacterStats{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CharacterStats{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var stats CharacterStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return CharacterStats{}, fmt.Errorf("decoding response: %w", err)
	}
	return stats, nil
}

// GetStats returns the current cache snapshot (spec.md §4.8 "used when
// persisting an encounter").
func (c *Client) GetStats(ctx context.Context) map[uint64]CharacterStats {
	out := make(map[uint64]CharacterStats, c.cache.Len())
	for _, key := range c.cache.Keys() {
		if stats, ok := c.cache.Peek(key); ok {
			out[key] = stats
		}
	}
	return out
}

// heartbeatPayload is the body sent every heartbeat interval (spec.md §4.9).
type heartbeatPayload struct {
	ClientID string `json:"client_id"`
	Version  string `json:"version"`
	Region   string `json:"region"`
}

// Heartbeat sends {client_id, version, region} to the stats service
// (spec.md §4.9 "Heartbeat timer"). Transport failures and non-200
// responses are logged here and returned; encoding and request-building
// errors are returned without logging.
func (c *Client) Heartbeat(ctx context.Context, clientID, version, region string) error {
	body, err := json.Marshal(heartbeatPayload{ClientID: clientID, Version: version, Region: region})
	if err != nil {
		return fmt.Errorf("statsapi: encoding heartbeat: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/heartbeat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("statsapi: building heartbeat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("heartbeat failed", "err", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected heartbeat status %d", resp.StatusCode)
		c.log.Warn("heartbeat rejected", "status", resp.StatusCode)
		return err
	}
	return nil
}
