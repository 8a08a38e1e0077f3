package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vainnor/ensemble-predict/events"
	"github.com/vainnor/ensemble-predict/observability"
	"github.com/vainnor/ensemble-predict/orchestrator"
	"github.com/vainnor/ensemble-predict/profile"
)

const publishTimeout = 5 * time.Second

// RunSweep runs a full ensemble sweep for the current profile and launch and
// waits for every member. Canceling ctx does not cut the sweep short.
func (s *Session) RunSweep(ctx context.Context) (orchestrator.EnsembleResult, error) {
	sw, err := s.start(ctx)
	if err != nil {
		return orchestrator.EnsembleResult{}, err
	}
	return s.drain(context.WithoutCancel(ctx), sw), nil
}

// StartSweep starts a sweep in the background and returns its ID. Members
// are requested even after ctx is canceled.
func (s *Session) StartSweep(ctx context.Context) (string, error) {
	sw, err := s.start(ctx)
	if err != nil {
		return "", err
	}
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.drain(bg, sw)
	}()
	return sw.ID, nil
}

// Running reports whether a sweep is in flight, including the work done
// after its last member: recording the result, redrawing waypoints and
// publishing the event.
func (s *Session) Running() bool {
	return s.sweeping.Load()
}

// LastResult is the most recently completed sweep.
func (s *Session) LastResult() (orchestrator.EnsembleResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return orchestrator.EnsembleResult{}, false
	}
	return *s.last, true
}

// start claims the session for one sweep. The claim is released by drain, or
// here when the sweep cannot start.
func (s *Session) start(ctx context.Context) (*orchestrator.Sweep, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return nil, orchestrator.ErrSweepInProgress
	}
	sw, err := s.begin(ctx)
	if err != nil {
		s.sweeping.Store(false)
		return nil, err
	}
	return sw, nil
}

func (s *Session) begin(ctx context.Context) (*orchestrator.Sweep, error) {
	p, l := s.Profile(), s.Launch()

	if !s.inWindow(l.Time) {
		s.Notify(fmt.Sprintf("Simulation available for %s through %s",
			s.cfg.ForecastStart.Format(time.RFC3339), s.cfg.ForecastEnd.Format(time.RFC3339)))
		s.cfg.Metrics.SweepFinished(observability.OutcomeRejected)
		return nil, ErrOutsideForecastWindow
	}

	sw, err := s.orch.Run(ctx, p, l)
	if err != nil {
		if errors.Is(err, orchestrator.ErrInvalidProfile) {
			s.Notify(validationNotice(err))
		}
		return nil, err
	}
	return sw, nil
}

func (s *Session) drain(ctx context.Context, sw *orchestrator.Sweep) orchestrator.EnsembleResult {
	defer s.sweeping.Store(false)

	for range sw.Members(ctx) {
	}
	<-sw.Done()
	res := sw.Result()

	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()

	s.overlay.Refresh()
	s.publish(ctx, sw, res)
	return res
}

func (s *Session) publish(ctx context.Context, sw *orchestrator.Sweep, res orchestrator.EnsembleResult) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ev := events.SweepEvent{
		ID:         sw.ID,
		Profile:    sw.Kind,
		Parameters: sw.Profile,
		Launch:     sw.Launch,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Successes:  res.Successes(),
		Failures:   res.Failures(),
		Outcome:    res.Outcome(),
	}
	if s.registry != nil {
		ev.Mission = s.registry.Active().Name
	}
	if err := s.cfg.Publisher.Publish(ctx, ev); err != nil {
		log.Error().Err(err).Str("sweep", sw.ID).Msg("Failed to publish sweep event")
	}
}

func (s *Session) inWindow(t time.Time) bool {
	if !s.cfg.ForecastStart.IsZero() && t.Before(s.cfg.ForecastStart) {
		return false
	}
	if !s.cfg.ForecastEnd.IsZero() && t.After(s.cfg.ForecastEnd) {
		return false
	}
	return true
}

func validationNotice(err error) string {
	switch {
	case errors.Is(err, profile.ErrZeroAscentBelowTarget):
		return "ATTENTION: Ascent rate is 0 while balloon altitude is below its descent ready altitude"
	default:
		return "ATTENTION: All values should be positive numbers, check your inputs again!"
	}
}
