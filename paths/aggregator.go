// Package paths caches the predicted paths of an ensemble sweep, splits them
// into labeled phases and projects them onto the renderer.
package paths

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/vainnor/ensemble-predict/models"
	"github.com/vainnor/ensemble-predict/render"
	"github.com/vainnor/ensemble-predict/types"
)

const (
	ColorCrimson = "#DC143C"
	ColorBlue    = "#0000FF"
	ColorBlack   = "#000000"
)

// ColorOf is the fixed stroke color of each phase.
func ColorOf(p types.Phase) string {
	switch p {
	case types.PhaseRise:
		return ColorCrimson
	case types.PhaseEquilibrium:
		return ColorBlue
	case types.PhaseFall:
		return ColorBlack
	case types.PhaseFloatTrack:
		return ColorBlack
	default:
		panic(fmt.Sprintf("unhandled phase %v", p))
	}
}

// Segment splits a simulator payload into phases according to the profile
// variant. The simulator models no hold for Standard flights, so their
// equilibrium segment is always empty.
func Segment(kind types.ProfileKind, payload models.Payload) ([]types.PathSegment, error) {
	switch kind {
	case types.KindStandard, types.KindZPB:
		phases, err := payload.Phases()
		if err != nil {
			return nil, err
		}
		if len(phases) != 3 {
			return nil, fmt.Errorf("expected 3 phases, got %d", len(phases))
		}
		equil := phases[1]
		if kind == types.KindStandard {
			equil = []types.PathPoint{}
		}
		return []types.PathSegment{
			{Phase: types.PhaseRise, Points: phases[0]},
			{Phase: types.PhaseEquilibrium, Points: equil},
			{Phase: types.PhaseFall, Points: phases[2]},
		}, nil
	case types.KindFloat:
		track, err := payload.Track()
		if err != nil {
			return nil, err
		}
		return []types.PathSegment{{Phase: types.PhaseFloatTrack, Points: track}}, nil
	default:
		panic(fmt.Sprintf("unhandled profile kind %v", kind))
	}
}

// Generation identifies one cache lifetime, from one Reset to the next.
type Generation uint64

// CachedPath is one ensemble member's segments as ingested.
type CachedPath struct {
	Member   int                 `json:"member"`
	Segments []types.PathSegment `json:"segments"`
}

// Aggregator owns the raw path cache of the current sweep.
type Aggregator struct {
	mu       sync.RWMutex
	renderer render.Renderer
	cache    []CachedPath
	gen      Generation
	onReset  []func()
}

func NewAggregator(r render.Renderer) *Aggregator {
	if r == nil {
		r = render.Discard
	}
	return &Aggregator{renderer: r}
}

// OnReset registers fn to run after every Reset, for state derived from the
// cache.
func (a *Aggregator) OnReset(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onReset = append(a.onReset, fn)
}

// Reset clears the cache and every drawn line and starts a new generation.
// Ingests tagged with an older generation become no-ops.
func (a *Aggregator) Reset() Generation {
	a.mu.Lock()
	a.cache = nil
	a.gen++
	gen := a.gen
	a.renderer.ClearLines()
	hooks := append([]func(){}, a.onReset...)
	a.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return gen
}

func (a *Aggregator) Generation() Generation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.gen
}

// Ingest appends a member's segments to the current cache and draws one
// line per segment.
func (a *Aggregator) Ingest(member int, segments []types.PathSegment) []render.Line {
	lines, _ := a.IngestFor(a.Generation(), member, segments)
	return lines
}

// IngestFor is Ingest for a specific generation. It reports false, and
// does nothing, when the cache has been reset since gen.
func (a *Aggregator) IngestFor(gen Generation, member int, segments []types.PathSegment) ([]render.Line, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if gen != a.gen {
		log.Info().Int("member", member).Uint64("generation", uint64(gen)).Msg("Dropping stale ensemble member after reset")
		return nil, false
	}

	segs := make([]types.PathSegment, len(segments))
	for i, s := range segments {
		pts := make([]types.PathPoint, len(s.Points))
		copy(pts, s.Points)
		segs[i] = types.PathSegment{Phase: s.Phase, Points: pts}
	}
	a.cache = append(a.cache, CachedPath{Member: member, Segments: segs})

	lines := make([]render.Line, 0, len(segs))
	for _, s := range segs {
		line := render.Line{Member: member, Phase: s.Phase, Color: ColorOf(s.Phase), Points: s.Points}
		a.renderer.DrawLine(line)
		lines = append(lines, line)
	}
	return lines, true
}

// Cache returns the cached paths in ingestion order.
func (a *Aggregator) Cache() []CachedPath {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]CachedPath(nil), a.cache...)
}

// PointCount is the number of points across every cached segment.
func (a *Aggregator) PointCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for _, c := range a.cache {
		for _, s := range c.Segments {
			n += len(s.Points)
		}
	}
	return n
}
