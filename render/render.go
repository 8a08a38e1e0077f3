// Package render is the boundary to whatever draws predicted paths: map
// pages, websocket clients or GeoJSON consumers.
package render

import (
	"github.com/vainnor/ensemble-predict/types"
)

// Line is one drawn path segment.
type Line struct {
	Member int               `json:"member"`
	Phase  types.Phase       `json:"phase"`
	Color  string            `json:"color"`
	Points []types.PathPoint `json:"points"`
}

// Marker is one waypoint circle with its hover tooltip.
type Marker struct {
	Member  int             `json:"member"`
	Phase   types.Phase     `json:"phase"`
	Index   int             `json:"index"`
	Point   types.PathPoint `json:"point"`
	Color   string          `json:"color"`
	Radius  float64         `json:"radius"`
	Tooltip string          `json:"tooltip"`
}

// Renderer draws and clears lines and markers. Lines are never mutated once
// drawn; they are cleared and redrawn as a whole.
type Renderer interface {
	DrawLine(l Line)
	ClearLines()
	DrawMarkers(ms []Marker)
	ClearMarkers()
}

// Multi fans every call out to each renderer in order.
func Multi(rs ...Renderer) Renderer {
	return multi(rs)
}

type multi []Renderer

func (m multi) DrawLine(l Line) {
	for _, r := range m {
		r.DrawLine(l)
	}
}

func (m multi) ClearLines() {
	for _, r := range m {
		r.ClearLines()
	}
}

func (m multi) DrawMarkers(ms []Marker) {
	for _, r := range m {
		r.DrawMarkers(ms)
	}
}

func (m multi) ClearMarkers() {
	for _, r := range m {
		r.ClearMarkers()
	}
}

// Discard drops everything.
var Discard Renderer = discard{}

type discard struct{}

func (discard) DrawLine(Line)        {}
func (discard) ClearLines()          {}
func (discard) DrawMarkers([]Marker) {}
func (discard) ClearMarkers()        {}
