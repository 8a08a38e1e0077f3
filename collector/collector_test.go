package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vainnor/ensemble-predict/missions"
	"github.com/vainnor/ensemble-predict/observability"
	"github.com/vainnor/ensemble-predict/profile"
	"github.com/vainnor/ensemble-predict/reconcile"
	"github.com/vainnor/ensemble-predict/types"
)

type target struct {
	reg     *missions.Registry
	profile types.FlightProfile
	applied []reconcile.Update
}

func (t *target) Registry() *missions.Registry { return t.reg }

func (t *target) ApplyTelemetry(u reconcile.Update) types.FlightProfile {
	t.applied = append(t.applied, u)
	t.profile = reconcile.Apply(t.profile, u)
	return t.profile
}

func newTarget(t *testing.T) *target {
	t.Helper()
	reg, err := missions.NewRegistry(missions.DefaultTable)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return &target{reg: reg, profile: profile.Default(types.KindZPB)}
}

func feedServer(t *testing.T, body *atomic.Value) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := body.Load().(string)
		if b == "" {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, b)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAndApplyDetectsChanges(t *testing.T) {
	var body atomic.Value
	body.Store(`[
		{"Human Time": "2025-01-01 16:40:00", "latitude": 1, "longitude": 2, "altitude_gps": 3, "mission": 70},
		{"Human Time": "2025-01-01 16:45:00", "latitude": 37.4, "longitude": -122.1, "altitude_gps": 28000, "ascentRate": -3.5, "mission": 68}
	]`)
	srv := feedServer(t, &body)

	metrics, err := observability.New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	tg := newTarget(t)
	c := NewCollector(srv.URL, 5*time.Second, reconcile.New(reconcile.DefaultHourOffset), tg, metrics)

	res, err := c.FetchAndApply(context.Background())
	if err != nil {
		t.Fatalf("FetchAndApply: %v", err)
	}
	if res.Status != ResultApplied || res.Update.Launch.Hour != 23 {
		t.Fatalf("unexpected result %+v", res)
	}
	zpb := tg.profile.(types.ZeroPressureBalloon)
	if zpb.DescentRate != 3.5 || zpb.EquilibriumAltitude != 28000 || zpb.EquilibriumHoldHours != 0 {
		t.Fatalf("descent not applied: %+v", zpb)
	}

	res, err = c.FetchAndApply(context.Background())
	if err != nil || res.Status != ResultUnchanged {
		t.Fatalf("expected unchanged, got %+v, %v", res, err)
	}
	if len(tg.applied) != 1 {
		t.Fatalf("same transmission applied twice")
	}

	if err := tg.reg.SetActive("SSI-96"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if res, err := c.FetchAndApply(context.Background()); err != nil || res.Status != ResultApplied {
		t.Fatalf("mission switch not applied: %+v, %v", res, err)
	}

	stats := c.GetStats()
	if stats.TotalPolls != 3 || stats.Applied != 2 || stats.Matches != 3 || stats.ActiveMission != "SSI-96" {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if got := testutil.ToFloat64(metrics.Reconciles.WithLabelValues(ResultUnchanged)); got != 1 {
		t.Fatalf("unchanged polls = %v, want 1", got)
	}
}

func TestFetchAndApplyFailuresLeaveProfile(t *testing.T) {
	var body atomic.Value
	body.Store(`[{"Human Time": "2025-01-01 16:45:00", "latitude": 1, "longitude": 2, "altitude_gps": 3, "mission": 70}]`)
	srv := feedServer(t, &body)
	tg := newTarget(t)
	before := tg.profile
	c := NewCollector(srv.URL, 5*time.Second, reconcile.New(reconcile.DefaultHourOffset), tg, nil)

	res, err := c.FetchAndApply(context.Background())
	if err != nil || res.Status != ResultNoMatch {
		t.Fatalf("expected quiet no match, got %+v, %v", res, err)
	}

	body.Store(`[{"Human Time": "garbage", "latitude": 1, "longitude": 2, "altitude_gps": 3, "mission": 68}]`)
	if _, err := c.FetchAndApply(context.Background()); !errors.Is(err, reconcile.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}

	body.Store("")
	if res, err := c.FetchAndApply(context.Background()); err == nil || res.Status != ResultFetchError {
		t.Fatalf("expected fetch error, got %+v, %v", res, err)
	}

	if tg.profile != before || len(tg.applied) != 0 {
		t.Fatalf("failed polls changed the profile")
	}
	stats := c.GetStats()
	if stats.NoMatch != 1 || stats.ParseErrors != 1 || stats.FetchErrors != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
