// Package collector polls the live transmission feed and moves the session's
// launch inputs to the active mission's latest transmission.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vainnor/ensemble-predict/missions"
	"github.com/vainnor/ensemble-predict/observability"
	"github.com/vainnor/ensemble-predict/reconcile"
	jsonfetcher "github.com/vainnor/ensemble-predict/services/json_fetcher"
	"github.com/vainnor/ensemble-predict/types"
)

// Poll results, also used as metric labels.
const (
	ResultApplied    = "applied"
	ResultUnchanged  = "unchanged"
	ResultNoMatch    = "no_match"
	ResultParseError = "parse_error"
	ResultFetchError = "fetch_error"
)

// Target receives reconciled updates.
type Target interface {
	Registry() *missions.Registry
	ApplyTelemetry(u reconcile.Update) types.FlightProfile
}

// Result describes one poll.
type Result struct {
	Status  string              `json:"status"`
	Update  *reconcile.Update   `json:"update,omitempty"`
	Profile types.FlightProfile `json:"profile,omitempty"`
}

type Collector struct {
	mu         sync.Mutex
	lastUpdate string
	client     *http.Client
	url        string
	reconciler *reconcile.Reconciler
	target     Target
	metrics    *observability.Metrics
	// Collection stats
	stats types.CollectionStats
}

func NewCollector(url string, timeout time.Duration, r *reconcile.Reconciler, target Target, metrics *observability.Metrics) *Collector {
	return &Collector{
		client: &http.Client{
			Timeout: timeout,
		},
		url:        url,
		reconciler: r,
		target:     target,
		metrics:    metrics,
		stats: types.CollectionStats{
			StartTime: time.Now(),
		},
	}
}

func (c *Collector) GetStats() types.CollectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// FetchAndApply polls the feed once. A feed without a transmission for the
// active mission is not an error; neither is a transmission that was already
// applied.
func (c *Collector) FetchAndApply(ctx context.Context) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := c.target.Registry().Active()
	c.stats.TotalPolls++
	c.stats.ActiveMission = active.Name

	feed, err := jsonfetcher.FetchTransmissions(ctx, c.client, c.url)
	if err != nil {
		c.stats.FetchErrors++
		c.metrics.Reconciled(ResultFetchError)
		return Result{Status: ResultFetchError}, fmt.Errorf("error fetching transmissions: %w", err)
	}

	update, err := c.reconciler.Reconcile(feed, active)
	switch {
	case errors.Is(err, reconcile.ErrNoMatch):
		c.stats.NoMatch++
		c.metrics.Reconciled(ResultNoMatch)
		log.Info().Str("mission", active.Name).Int("id", active.NumericID).Msg("No transmission for active mission")
		return Result{Status: ResultNoMatch}, nil
	case err != nil:
		c.stats.ParseErrors++
		c.metrics.Reconciled(ResultParseError)
		log.Warn().Err(err).Str("mission", active.Name).Msg("Skipping malformed transmission")
		return Result{Status: ResultParseError}, err
	}
	c.stats.Matches++

	// Check if the transmission has changed
	key := active.Name + "|" + update.Transmission.HumanTimestamp
	if key == c.lastUpdate {
		c.metrics.Reconciled(ResultUnchanged)
		return Result{Status: ResultUnchanged, Update: &update}, nil
	}

	p := c.target.ApplyTelemetry(update)
	c.lastUpdate = key
	c.stats.Applied++
	c.stats.LastUpdate = time.Now()
	c.stats.LastHumanTime = update.Transmission.HumanTimestamp
	c.metrics.Reconciled(ResultApplied)

	log.Info().
		Str("mission", active.Name).
		Str("human_time", update.Transmission.HumanTimestamp).
		Float64("lat", update.Position.Latitude).
		Float64("lon", update.Position.Longitude).
		Float64("alt", update.Position.Altitude).
		Int64("polls", c.stats.TotalPolls).
		Dur("running_for", time.Since(c.stats.StartTime).Round(time.Second)).
		Msg("Telemetry applied")

	return Result{Status: ResultApplied, Update: &update, Profile: p}, nil
}
