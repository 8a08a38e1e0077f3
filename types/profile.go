package types

import (
	"fmt"
	"strings"
)

// ProfileKind tags the active FlightProfile variant.
type ProfileKind int

const (
	KindStandard ProfileKind = iota
	KindZPB
	KindFloat
)

func (k ProfileKind) String() string {
	switch k {
	case KindStandard:
		return "STANDARD"
	case KindZPB:
		return "ZPB"
	case KindFloat:
		return "FLOAT"
	default:
		return fmt.Sprintf("ProfileKind(%d)", int(k))
	}
}

// ParseProfileKind accepts the variant tags used by the form layer, either
// the short tag ("STANDARD", "ZPB", "FLOAT") or the radio value
// ("standardbln", "zpbbln", "floatbln").
func ParseProfileKind(s string) (ProfileKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "standardbln":
		return KindStandard, nil
	case "zpb", "zpbbln":
		return KindZPB, nil
	case "float", "floatbln":
		return KindFloat, nil
	}
	return 0, fmt.Errorf("unknown profile kind %q", s)
}

func (k ProfileKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ProfileKind) UnmarshalText(b []byte) error {
	parsed, err := ParseProfileKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// FlightProfile is one of Standard, ZeroPressureBalloon or Float. The
// unexported method keeps the set of variants closed to this package.
type FlightProfile interface {
	Kind() ProfileKind
	isFlightProfile()
}

// Standard is a latex balloon that rises to burst and falls.
type Standard struct {
	AscentRate    float64 `json:"asc"`
	BurstAltitude float64 `json:"burst"`
	DescentRate   float64 `json:"desc"`
}

// ZeroPressureBalloon rises to equilibrium, holds there, then descends.
type ZeroPressureBalloon struct {
	AscentRate           float64 `json:"asc"`
	EquilibriumAltitude  float64 `json:"equil"`
	EquilibriumHoldHours float64 `json:"eqtime"`
	DescentRate          float64 `json:"desc"`
}

// Float is a continuous track governed by a floating coefficient.
type Float struct {
	Coefficient   float64 `json:"coeff"`
	StepSize      float64 `json:"step"`
	DurationHours float64 `json:"dur"`
}

func (Standard) Kind() ProfileKind            { return KindStandard }
func (ZeroPressureBalloon) Kind() ProfileKind { return KindZPB }
func (Float) Kind() ProfileKind               { return KindFloat }

func (Standard) isFlightProfile()            {}
func (ZeroPressureBalloon) isFlightProfile() {}
func (Float) isFlightProfile()               {}

// TargetAltitude returns the burst or equilibrium altitude of bounded
// profiles. Float profiles have none.
func TargetAltitude(p FlightProfile) (float64, bool) {
	switch v := p.(type) {
	case Standard:
		return v.BurstAltitude, true
	case ZeroPressureBalloon:
		return v.EquilibriumAltitude, true
	case Float:
		return 0, false
	default:
		panic(fmt.Sprintf("unhandled flight profile %T", p))
	}
}
