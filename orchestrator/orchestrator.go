// Package orchestrator runs ensemble sweeps: one simulator request per
// ensemble member, issued strictly one after another.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vainnor/ensemble-predict/models"
	"github.com/vainnor/ensemble-predict/observability"
	"github.com/vainnor/ensemble-predict/paths"
	"github.com/vainnor/ensemble-predict/profile"
	"github.com/vainnor/ensemble-predict/types"
)

// Members is the number of ensemble members in every sweep.
const Members = 20

var (
	ErrSweepInProgress = errors.New("an ensemble sweep is already running")
	ErrInvalidProfile  = errors.New("flight profile failed validation")
)

// Notices sent on the first failed member of a sweep.
const (
	NoticeSimulationFailed = "ERROR: Please make sure your entire flight is within the forecast window."
	NoticeRequestFailed    = "ERROR: The simulator could not be reached for every ensemble member."
)

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (models.Payload, error)
}

type Notifier interface {
	Notify(msg string)
}

type NotifierFunc func(msg string)

func (f NotifierFunc) Notify(msg string) { f(msg) }

// Config wires an Orchestrator. Paths and Fetcher are required.
type Config struct {
	BaseURL  string
	Fetcher  Fetcher
	Paths    *paths.Aggregator
	Notifier Notifier
	Metrics  *observability.Metrics
	// Timeout bounds each member request; zero means no limit.
	Timeout time.Duration
}

type Orchestrator struct {
	cfg     Config
	running atomic.Bool
}

func New(cfg Config) *Orchestrator {
	if cfg.Notifier == nil {
		cfg.Notifier = NotifierFunc(func(string) {})
	}
	return &Orchestrator{cfg: cfg}
}

// Running reports whether a sweep has been started and not yet finished.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Run validates the profile for the launch altitude, clears the path cache
// and starts requesting members in the background. The sweep runs to
// completion whether or not its members are consumed; canceling ctx does not
// stop it. Only one sweep may be outstanding at a time.
func (o *Orchestrator) Run(ctx context.Context, p types.FlightProfile, launch types.Launch) (*Sweep, error) {
	if err := profile.Verify(p, launch.Altitude); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}

	s := &Sweep{
		ID:        uuid.NewString(),
		Kind:      p.Kind(),
		Profile:   p,
		Launch:    launch,
		Template:  Template(o.cfg.BaseURL, p, launch),
		StartedAt: time.Now(),
		o:         o,
		outcomes:  make(chan Outcome, Members),
		done:      make(chan struct{}),
	}
	s.gen = o.cfg.Paths.Reset()
	log.Info().Str("sweep", s.ID).Str("profile", s.Kind.String()).Str("template", s.Template).Msg("Starting ensemble sweep")

	go s.run(context.WithoutCancel(ctx))
	return s, nil
}

// RunAll runs a sweep to completion and returns its result.
func (o *Orchestrator) RunAll(ctx context.Context, p types.FlightProfile, launch types.Launch) (EnsembleResult, error) {
	s, err := o.Run(ctx, p, launch)
	if err != nil {
		return EnsembleResult{}, err
	}
	<-s.Done()
	return s.Result(), nil
}

// Outcome is one member's result: its segments or the reason it failed.
type Outcome struct {
	Member   int                 `json:"member"`
	Segments []types.PathSegment `json:"segments,omitempty"`
	Err      error               `json:"-"`
}

func (o Outcome) OK() bool { return o.Err == nil }

// EnsembleResult holds one outcome per member, indexed by member - 1.
type EnsembleResult struct {
	ID         string    `json:"id"`
	Outcomes   []Outcome `json:"outcomes"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r EnsembleResult) Successes() []int {
	var out []int
	for _, o := range r.Outcomes {
		if o.OK() {
			out = append(out, o.Member)
		}
	}
	return out
}

func (r EnsembleResult) Failures() []int {
	var out []int
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o.Member)
		}
	}
	return out
}

// Outcome labels the sweep for metrics and events.
func (r EnsembleResult) Outcome() string {
	switch failed := len(r.Failures()); {
	case failed == 0:
		return observability.OutcomeComplete
	case failed == len(r.Outcomes):
		return observability.OutcomeFailed
	default:
		return observability.OutcomePartial
	}
}

// Sweep is one run over every ensemble member.
type Sweep struct {
	ID        string
	Kind      types.ProfileKind
	Profile   types.FlightProfile
	Launch    types.Launch
	Template  string
	StartedAt time.Time

	o        *Orchestrator
	gen      paths.Generation
	outcomes chan Outcome
	consumed atomic.Bool
	done     chan struct{}
	notified bool
	result   EnsembleResult
}

// run issues the member requests in ascending order, each awaited before
// the next is sent. Successful members are ingested into the path cache
// before their outcome is published.
func (s *Sweep) run(ctx context.Context) {
	defer close(s.outcomes)
	defer s.finish()

	outcomes := make([]Outcome, 0, Members)
	for m := 1; m <= Members; m++ {
		out := s.member(ctx, m)
		outcomes = append(outcomes, out)
		s.outcomes <- out
	}
	s.result = EnsembleResult{ID: s.ID, Outcomes: outcomes, StartedAt: s.StartedAt}
}

// Members yields every outcome in member order as it arrives. It stops
// early when ctx is done or the consumer breaks; the sweep itself keeps
// going. Only the first call yields anything.
func (s *Sweep) Members(ctx context.Context) iter.Seq2[int, Outcome] {
	return func(yield func(int, Outcome) bool) {
		if !s.consumed.CompareAndSwap(false, true) {
			return
		}
		for {
			select {
			case out, ok := <-s.outcomes:
				if !ok || !yield(out.Member, out) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Sweep) member(ctx context.Context, m int) Outcome {
	cfg := s.o.cfg
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	out := Outcome{Member: m}
	payload, err := cfg.Fetcher.Fetch(ctx, MemberURL(s.Template, m))
	if err == nil {
		out.Segments, err = paths.Segment(s.Kind, payload)
	}
	if err != nil {
		out.Err = err
		result := observability.ResultError
		if errors.Is(err, models.ErrSimulationFailed) {
			result = observability.ResultSentinel
		}
		cfg.Metrics.MemberRequest(result, time.Since(start))
		log.Warn().Err(err).Str("sweep", s.ID).Int("member", m).Msg("Ensemble member failed")
		s.notify(err)
		return out
	}

	cfg.Metrics.MemberRequest(observability.ResultOK, time.Since(start))
	cfg.Paths.IngestFor(s.gen, m, out.Segments)
	return out
}

// notify fires on the first failure of the sweep only.
func (s *Sweep) notify(err error) {
	if s.notified {
		return
	}
	s.notified = true
	msg := NoticeRequestFailed
	if errors.Is(err, models.ErrSimulationFailed) {
		msg = NoticeSimulationFailed
	}
	s.o.cfg.Notifier.Notify(msg)
}

func (s *Sweep) finish() {
	s.result.FinishedAt = time.Now()
	s.o.running.Store(false)
	s.o.cfg.Metrics.SweepFinished(s.result.Outcome())
	log.Info().Str("sweep", s.ID).Ints("failed", s.result.Failures()).Int("succeeded", len(s.result.Successes())).Msg("Ensemble sweep finished")
	close(s.done)
}

// Done is closed once every member has been requested and the orchestrator
// accepts a new sweep.
func (s *Sweep) Done() <-chan struct{} {
	return s.done
}

// Result is the complete ensemble result. It is only meaningful after Done
// is closed.
func (s *Sweep) Result() EnsembleResult {
	return s.result
}
