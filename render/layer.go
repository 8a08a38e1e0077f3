package render

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Layer keeps what has been drawn so it can be served as GeoJSON.
type Layer struct {
	mu      sync.RWMutex
	lines   []Line
	markers []Marker
}

func NewLayer() *Layer {
	return &Layer{}
}

func (l *Layer) DrawLine(line Line) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

func (l *Layer) ClearLines() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
}

func (l *Layer) DrawMarkers(ms []Marker) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markers = append(l.markers, ms...)
}

func (l *Layer) ClearMarkers() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markers = nil
}

func (l *Layer) Lines() []Line {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Line(nil), l.lines...)
}

func (l *Layer) Markers() []Marker {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Marker(nil), l.markers...)
}

// LinesGeoJSON returns one LineString feature per drawn line, styled with
// simplestyle stroke properties.
func (l *Layer) LinesGeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, line := range l.Lines() {
		ls := make(orb.LineString, 0, len(line.Points))
		for _, p := range line.Points {
			ls = append(ls, orb.Point{p.Longitude, p.Latitude})
		}
		f := geojson.NewFeature(ls)
		f.Properties["member"] = line.Member
		f.Properties["phase"] = line.Phase.String()
		f.Properties["stroke"] = line.Color
		f.Properties["stroke-opacity"] = 1.0
		f.Properties["stroke-width"] = 2
		fc.Append(f)
	}
	return fc
}

// MarkersGeoJSON returns one Point feature per waypoint marker.
func (l *Layer) MarkersGeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range l.Markers() {
		f := geojson.NewFeature(orb.Point{m.Point.Longitude, m.Point.Latitude})
		f.Properties["member"] = m.Member
		f.Properties["phase"] = m.Phase.String()
		f.Properties["index"] = m.Index
		f.Properties["altitude"] = m.Point.Altitude
		f.Properties["timestamp"] = m.Point.Timestamp
		f.Properties["marker-color"] = m.Color
		f.Properties["radius"] = m.Radius
		f.Properties["tooltip"] = m.Tooltip
		fc.Append(f)
	}
	return fc
}
