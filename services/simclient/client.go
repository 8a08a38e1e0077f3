// Package simclient talks to the remote ensemble trajectory simulator.
package simclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"github.com/vainnor/ensemble-predict/models"
)

const (
	elevationCacheSize = 256
	elevationCacheTTL  = time.Hour
	maxBodyBytes       = 32 << 20
)

type Client struct {
	baseURL string
	client  *http.Client
	elev    *expirable.LRU[string, float64]
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		elev: expirable.NewLRU[string, float64](elevationCacheSize, nil, elevationCacheTTL),
	}
}

// BaseURL is the simulator root every endpoint hangs off.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch issues one simulation request. A reply of "error" maps to
// models.ErrSimulationFailed.
func (c *Client) Fetch(ctx context.Context, rawURL string) (models.Payload, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return models.ParsePayload(body)
}

// Elevation returns the ground altitude at lat/lon, or 0 when the lookup
// fails.
func (c *Client) Elevation(ctx context.Context, lat, lon float64) float64 {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if v, ok := c.elev.Get(key); ok {
		return v
	}

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	body, err := c.get(ctx, c.baseURL+"/elev?"+q.Encode())
	if err != nil {
		log.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).Msg("Error fetching elevation, falling back to 0")
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(body)), 64)
	if err != nil {
		log.Warn().Err(err).Str("body", string(body)).Msg("Error decoding elevation, falling back to 0")
		return 0
	}
	c.elev.Add(key, v)
	return v
}

// RunInfo returns the simulator's description of its current model cycle.
func (c *Client) RunInfo(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.baseURL+"/which")
	if err != nil {
		return "", fmt.Errorf("fetch run info: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %s", redact(rawURL), resp.Status)
	}
	return body, nil
}

func redact(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
