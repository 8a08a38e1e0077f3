package paths

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/vainnor/ensemble-predict/render"
	"github.com/vainnor/ensemble-predict/types"
)

// MarkerRadius is the waypoint circle radius in meters.
const MarkerRadius = 300

// Overlay derives waypoint markers from an Aggregator's cache. It hides
// itself whenever the aggregator is reset.
type Overlay struct {
	mu       sync.Mutex
	source   *Aggregator
	renderer render.Renderer
	loc      *time.Location
	enabled  bool
	shown    bool
	markers  []render.Marker
	observe  func(n int)
}

// NewOverlay creates a hidden, disabled overlay over src. Tooltip times are
// rendered in loc.
func NewOverlay(src *Aggregator, r render.Renderer, loc *time.Location) *Overlay {
	if r == nil {
		r = render.Discard
	}
	if loc == nil {
		loc = time.Local
	}
	o := &Overlay{source: src, renderer: r, loc: loc}
	src.OnReset(o.Hide)
	return o
}

// ObserveMarkers registers fn to receive the marker count after every show
// or hide.
func (o *Overlay) ObserveMarkers(fn func(n int)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observe = fn
}

// Show draws one marker per cached point. Calling it again while shown does
// nothing.
func (o *Overlay) Show() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.shown {
		return len(o.markers)
	}

	var markers []render.Marker
	for _, c := range o.source.Cache() {
		for _, s := range c.Segments {
			color := ColorOf(s.Phase)
			for i, p := range s.Points {
				markers = append(markers, render.Marker{
					Member:  c.Member,
					Phase:   s.Phase,
					Index:   i,
					Point:   p,
					Color:   color,
					Radius:  MarkerRadius,
					Tooltip: Tooltip(p, o.loc),
				})
			}
		}
	}
	if len(markers) > 0 {
		o.renderer.DrawMarkers(markers)
	}
	o.markers = markers
	o.shown = true
	o.report()
	return len(markers)
}

// Hide removes every marker. Hiding an already hidden overlay does nothing.
func (o *Overlay) Hide() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.shown {
		return
	}
	o.renderer.ClearMarkers()
	o.markers = nil
	o.shown = false
	o.report()
}

// Refresh redraws the markers from the current cache if the overlay is
// enabled.
func (o *Overlay) Refresh() int {
	if !o.Enabled() {
		return 0
	}
	o.Hide()
	return o.Show()
}

func (o *Overlay) Enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

func (o *Overlay) Shown() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shown
}

// SetEnabled shows the markers when enabled and hides them otherwise.
func (o *Overlay) SetEnabled(enabled bool) int {
	o.mu.Lock()
	o.enabled = enabled
	o.mu.Unlock()

	if !enabled {
		o.Hide()
		return 0
	}
	return o.Show()
}

func (o *Overlay) Toggle() bool {
	enabled := !o.Enabled()
	o.SetEnabled(enabled)
	return enabled
}

func (o *Overlay) Markers() []render.Marker {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]render.Marker(nil), o.markers...)
}

func (o *Overlay) report() {
	if o.observe != nil {
		o.observe(len(o.markers))
	}
}

// Tooltip formats a waypoint as "Altitude: 1200m Time: 9:05:07". The hour is
// not zero padded.
func Tooltip(p types.PathPoint, loc *time.Location) string {
	t := p.Time().In(loc)
	return fmt.Sprintf("Altitude: %sm Time: %d:%02d:%02d",
		strconv.FormatFloat(p.Altitude, 'f', -1, 64), t.Hour(), t.Minute(), t.Second())
}
