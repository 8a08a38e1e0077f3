package simclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vainnor/ensemble-predict/models"
)

func TestFetchClassifiesReplies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/singlepredict":
			fmt.Fprint(w, "error")
		case "/singlezpb":
			if r.URL.Query().Get("model") == "2" {
				fmt.Fprint(w, `"error"`)
				return
			}
			fmt.Fprint(w, `[[[1735660800,37.4,-122.1,0,1,1,0,0]],[],[[1735664400,37.5,-122.0,30000,0,0,0,0]]]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	if _, err := c.Fetch(ctx, srv.URL+"/singlepredict?model=1"); !errors.Is(err, models.ErrSimulationFailed) {
		t.Fatalf("bare sentinel: expected ErrSimulationFailed, got %v", err)
	}
	if _, err := c.Fetch(ctx, srv.URL+"/singlezpb?model=2"); !errors.Is(err, models.ErrSimulationFailed) {
		t.Fatalf("json sentinel: expected ErrSimulationFailed, got %v", err)
	}

	payload, err := c.Fetch(ctx, srv.URL+"/singlezpb?model=1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	phases, err := payload.Phases()
	if err != nil {
		t.Fatalf("Phases: %v", err)
	}
	if len(phases) != 3 || len(phases[0]) != 1 || len(phases[1]) != 0 || len(phases[2]) != 1 {
		t.Fatalf("unexpected phases: %+v", phases)
	}
	if phases[2][0].Altitude != 30000 {
		t.Fatalf("unexpected fall point: %+v", phases[2][0])
	}

	if _, err := c.Fetch(ctx, srv.URL+"/missing"); err == nil {
		t.Fatalf("expected error for non-2xx reply")
	}
}

func TestElevationCachesAndFallsBack(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("lat") == "10.0000" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "412.0")
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	if got := c.Elevation(ctx, 37.4275, -122.1697); got != 412 {
		t.Fatalf("Elevation = %v, want 412", got)
	}
	if got := c.Elevation(ctx, 37.4275, -122.1697); got != 412 {
		t.Fatalf("cached Elevation = %v, want 412", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}

	if got := c.Elevation(ctx, 10, 10); got != 0 {
		t.Fatalf("failed lookup should fall back to 0, got %v", got)
	}
}

func TestStatusTrafficLight(t *testing.T) {
	cases := map[string]Light{
		StatusReady:           LightGreen,
		StatusRefreshing:      LightAmber,
		"Data refresh failed": LightRed,
	}
	for text, want := range cases {
		if got := ClassifyStatus(text).Light; got != want {
			t.Fatalf("ClassifyStatus(%q) = %v, want %v", text, got, want)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			fmt.Fprint(w, "Ready\n")
		case "/which":
			fmt.Fprint(w, "2024123112")
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/", 5*time.Second)
	if got := c.Status(context.Background()); got.Light != LightGreen || got.Text != StatusReady {
		t.Fatalf("unexpected status: %+v", got)
	}
	run, err := c.RunInfo(context.Background())
	if err != nil || run != "2024123112" {
		t.Fatalf("RunInfo = %q, %v", run, err)
	}

	srv.Close()
	if got := c.Status(context.Background()); got.Light != LightRed {
		t.Fatalf("unreachable simulator should be red, got %+v", got)
	}
}
