package types

import (
	"fmt"
	"math"
	"time"
)

// Phase labels a segment of a predicted path.
type Phase int

const (
	PhaseRise Phase = iota
	PhaseEquilibrium
	PhaseFall
	PhaseFloatTrack
)

// Phases lists every phase tag in payload order.
var Phases = []Phase{PhaseRise, PhaseEquilibrium, PhaseFall, PhaseFloatTrack}

func (p Phase) String() string {
	switch p {
	case PhaseRise:
		return "rise"
	case PhaseEquilibrium:
		return "equilibrium"
	case PhaseFall:
		return "fall"
	case PhaseFloatTrack:
		return "float"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for _, ph := range Phases {
		if ph.String() == string(b) {
			*p = ph
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// PathPoint is one predicted sample. Timestamp is UTC seconds.
type PathPoint struct {
	Timestamp float64 `json:"timestamp"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Altitude  float64 `json:"alt"`
}

// Time converts the point's timestamp, keeping sub-second precision.
func (p PathPoint) Time() time.Time {
	sec, frac := math.Modf(p.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// PathSegment is an ordered run of points within one phase. Points is never
// nil; unused phases carry an empty slice.
type PathSegment struct {
	Phase  Phase       `json:"phase"`
	Points []PathPoint `json:"points"`
}

func (s PathSegment) Len() int { return len(s.Points) }
