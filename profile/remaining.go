package profile

import (
	"errors"

	"github.com/vainnor/ensemble-predict/types"
)

var (
	ErrNotApplicable = errors.New("float profiles have no ascent or descent phase")
	ErrInvalidRate   = errors.New("invalid ascent or descent rate")
)

// Remaining is the estimated time left in the current phase of flight.
type Remaining struct {
	Phase string  `json:"phase"`
	Hours float64 `json:"hours"`
}

// TimeRemaining estimates how long the balloon has left ascending to its
// target altitude or, at or above it, descending to ground level.
func TimeRemaining(p types.FlightProfile, alt, ground float64) (Remaining, error) {
	var asc, desc float64
	switch v := p.(type) {
	case types.Standard:
		asc, desc = v.AscentRate, v.DescentRate
	case types.ZeroPressureBalloon:
		asc, desc = v.AscentRate, v.DescentRate
	case types.Float:
		return Remaining{}, ErrNotApplicable
	default:
		return Remaining{}, ErrNotApplicable
	}
	target, _ := types.TargetAltitude(p)

	if alt < target {
		if asc <= 0 || !finite(asc) {
			return Remaining{}, ErrInvalidRate
		}
		return Remaining{Phase: "ascent", Hours: (target - alt) / (3600 * asc)}, nil
	}
	if desc <= 0 || !finite(desc) {
		return Remaining{}, ErrInvalidRate
	}
	return Remaining{Phase: "descent", Hours: (alt - ground) / (3600 * desc)}, nil
}
