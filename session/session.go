// Package session owns the state of one prediction session: the flight
// profile, launch inputs, mission selection, path cache and overlay.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vainnor/ensemble-predict/events"
	"github.com/vainnor/ensemble-predict/missions"
	"github.com/vainnor/ensemble-predict/models"
	"github.com/vainnor/ensemble-predict/observability"
	"github.com/vainnor/ensemble-predict/orchestrator"
	"github.com/vainnor/ensemble-predict/paths"
	"github.com/vainnor/ensemble-predict/profile"
	"github.com/vainnor/ensemble-predict/reconcile"
	"github.com/vainnor/ensemble-predict/render"
	"github.com/vainnor/ensemble-predict/services/simclient"
	"github.com/vainnor/ensemble-predict/types"
)

var ErrOutsideForecastWindow = errors.New("launch time is outside the forecast window")

const maxNotifications = 100

// Simulator is the remote simulator as seen by a session.
type Simulator interface {
	Fetch(ctx context.Context, rawURL string) (models.Payload, error)
	Elevation(ctx context.Context, lat, lon float64) float64
	Status(ctx context.Context) simclient.StatusReport
	RunInfo(ctx context.Context) (string, error)
}

type Config struct {
	Simulator Simulator
	// BaseURL is the simulator root used to build sweep requests.
	BaseURL   string
	Registry  *missions.Registry
	Renderer  render.Renderer
	Notifier  orchestrator.Notifier
	Publisher events.Publisher
	Metrics   *observability.Metrics
	// Location is the zone tooltip times are shown in.
	Location       *time.Location
	RequestTimeout time.Duration
	ForecastStart  time.Time
	ForecastEnd    time.Time
}

// Notification is a user-visible message.
type Notification struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

type Session struct {
	mu      sync.RWMutex
	profile types.FlightProfile
	launch  types.Launch
	last    *orchestrator.EnsembleResult
	notices []Notification

	cfg      Config
	registry *missions.Registry
	paths    *paths.Aggregator
	overlay  *paths.Overlay
	orch     *orchestrator.Orchestrator
	sweeping atomic.Bool
	wg       sync.WaitGroup
}

// New starts a session with the Standard defaults and the current hour as
// launch time.
func New(cfg Config) *Session {
	if cfg.Publisher == nil {
		cfg.Publisher = events.Nop{}
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.Discard
	}
	s := &Session{
		cfg:      cfg,
		registry: cfg.Registry,
		profile:  profile.Default(types.KindStandard),
		launch:   types.Launch{Time: time.Now().UTC().Truncate(time.Hour)},
	}
	s.paths = paths.NewAggregator(cfg.Renderer)
	s.overlay = paths.NewOverlay(s.paths, cfg.Renderer, cfg.Location)
	s.overlay.ObserveMarkers(cfg.Metrics.SetWaypointMarkers)
	s.orch = orchestrator.New(orchestrator.Config{
		BaseURL:  cfg.BaseURL,
		Fetcher:  cfg.Simulator,
		Paths:    s.paths,
		Notifier: orchestrator.NotifierFunc(s.Notify),
		Metrics:  cfg.Metrics,
		Timeout:  cfg.RequestTimeout,
	})
	return s
}

func (s *Session) Registry() *missions.Registry { return s.registry }
func (s *Session) Paths() *paths.Aggregator     { return s.paths }
func (s *Session) Overlay() *paths.Overlay      { return s.overlay }
func (s *Session) Simulator() Simulator         { return s.cfg.Simulator }

// Profile returns the active flight profile.
func (s *Session) Profile() types.FlightProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// SelectVariant switches to kind, discarding the previous parameters in
// favor of the variant's defaults.
func (s *Session) SelectVariant(kind types.ProfileKind) types.FlightProfile {
	p := profile.Default(kind)
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	log.Info().Str("profile", kind.String()).Msg("Flight profile variant selected")
	return p
}

// UpdateProfile validates raw form values for kind and replaces the profile
// when they pass. The launch altitude is used when values carry none.
func (s *Session) UpdateProfile(kind types.ProfileKind, values profile.Values) (types.FlightProfile, error) {
	v := make(profile.Values, len(values)+1)
	for k, val := range values {
		v[k] = val
	}
	if _, ok := v[profile.FieldAltitude]; !ok {
		v[profile.FieldAltitude] = fmt.Sprint(s.Launch().Altitude)
	}

	p, err := profile.Validate(kind, v)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	return p, nil
}

func (s *Session) Launch() types.Launch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.launch
}

func (s *Session) SetLaunch(l types.Launch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.Time = l.Time.UTC()
	s.launch = l
}

// LookupElevation replaces the launch altitude with the ground elevation at
// the launch position. Lookup failures yield 0.
func (s *Session) LookupElevation(ctx context.Context) float64 {
	l := s.Launch()
	alt := s.cfg.Simulator.Elevation(ctx, l.Latitude, l.Longitude)
	s.mu.Lock()
	s.launch.Altitude = alt
	s.mu.Unlock()
	return alt
}

// ApplyTelemetry moves the launch to the reconciled transmission and
// corrects the profile rates from it.
func (s *Session) ApplyTelemetry(u reconcile.Update) types.FlightProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.launch = types.Launch{Time: u.Launch.Time(), Position: u.Position}
	s.profile = reconcile.Apply(s.profile, u)
	return s.profile
}

// TimeRemaining estimates the time left in the current ascent or descent,
// using the ground elevation under the launch position.
func (s *Session) TimeRemaining(ctx context.Context) (profile.Remaining, error) {
	l := s.Launch()
	ground := s.cfg.Simulator.Elevation(ctx, l.Latitude, l.Longitude)
	return profile.TimeRemaining(s.Profile(), l.Altitude, ground)
}

// Notify records a user-visible message and forwards it to the configured
// notifier.
func (s *Session) Notify(msg string) {
	s.mu.Lock()
	s.notices = append(s.notices, Notification{Time: time.Now().UTC(), Message: msg})
	if len(s.notices) > maxNotifications {
		s.notices = s.notices[len(s.notices)-maxNotifications:]
	}
	s.mu.Unlock()

	log.Warn().Str("notice", msg).Msg("User notification")
	if s.cfg.Notifier != nil {
		s.cfg.Notifier.Notify(msg)
	}
}

func (s *Session) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notification(nil), s.notices...)
}

// SetWaypoints turns the waypoint overlay on or off and returns the number
// of markers shown.
func (s *Session) SetWaypoints(enabled bool) int {
	return s.overlay.SetEnabled(enabled)
}

// Wait blocks until every background sweep has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}
