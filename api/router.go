package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vainnor/ensemble-predict/collector"
	"github.com/vainnor/ensemble-predict/observability"
	"github.com/vainnor/ensemble-predict/render"
	"github.com/vainnor/ensemble-predict/session"
	"github.com/vainnor/ensemble-predict/types"
)

type Collector interface {
	GetStats() types.CollectionStats
	FetchAndApply(ctx context.Context) (collector.Result, error)
}

type Deps struct {
	Session   *session.Session
	Collector Collector
	Layer     *render.Layer
	Hub       *render.Hub
	Keys      *KeyStore
	Limiter   *RateLimiter
	Metrics   *observability.Metrics
}

// NewRouter creates and configures a new router with all API endpoints
func NewRouter(d Deps) *mux.Router {
	if d.Keys == nil {
		d.Keys = NewKeyStore("")
	}
	if d.Limiter == nil {
		d.Limiter = NewRateLimiter(0, 0, d.Keys)
	}
	if d.Layer == nil {
		d.Layer = render.NewLayer()
	}

	r := mux.NewRouter()
	r.Use(d.Metrics.Middleware)

	// Add API key management endpoints
	r.HandleFunc("/api/keys", d.Keys.CreateAPIKey).Methods("POST")
	r.HandleFunc("/api/keys", d.Keys.ListAPIKeys).Methods("GET")
	r.HandleFunc("/api/keys", d.Keys.DeleteAPIKey).Methods("DELETE")

	r.Handle("/metrics", d.Metrics.Handler()).Methods("GET")

	// Apply rate limiting middleware to all other routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(d.Limiter.RateLimit)

	s := d.Session

	// Mission endpoints
	api.HandleFunc("/missions", GetMissions(s.Registry())).Methods("GET")
	api.HandleFunc("/missions/active", SetActiveMission(s.Registry())).Methods("PUT")

	// Flight profile endpoints
	api.HandleFunc("/profile", GetProfile(s)).Methods("GET")
	api.HandleFunc("/profile", UpdateProfile(s)).Methods("PUT")
	api.HandleFunc("/profile/variant", SelectVariant(s)).Methods("POST")

	// Launch endpoints
	api.HandleFunc("/launch", GetLaunch(s)).Methods("GET")
	api.HandleFunc("/launch", SetLaunch(s)).Methods("PUT")
	api.HandleFunc("/launch/elevation", LookupElevation(s)).Methods("POST")
	api.HandleFunc("/time-remaining", GetTimeRemaining(s)).Methods("GET")

	// Sweep and rendering endpoints
	api.HandleFunc("/sweeps", StartSweep(s)).Methods("POST")
	api.HandleFunc("/sweeps/latest", GetLatestSweep(s)).Methods("GET")
	api.HandleFunc("/paths", GetPaths(d.Layer)).Methods("GET")
	api.HandleFunc("/waypoints", GetWaypoints(s, d.Layer)).Methods("GET")
	api.HandleFunc("/waypoints", SetWaypoints(s, d.Layer)).Methods("PUT")
	api.HandleFunc("/notifications", GetNotifications(s)).Methods("GET")
	if d.Hub != nil {
		api.Handle("/stream", d.Hub).Methods("GET")
	}

	// Simulator endpoints
	api.HandleFunc("/simulator/status", GetSimulatorStatus(s)).Methods("GET")
	api.HandleFunc("/simulator/run", GetSimulatorRun(s)).Methods("GET")

	// Telemetry endpoints
	if d.Collector != nil {
		api.HandleFunc("/telemetry/poll", PollTelemetry(d.Collector)).Methods("POST")
		api.HandleFunc("/collector/stats", GetCollectorStats(d.Collector)).Methods("GET")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})
	return r
}
