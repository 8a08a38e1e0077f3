// Package profile validates flight-profile parameters collected from the
// form layer and provides per-variant defaults.
package profile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vainnor/ensemble-predict/types"
)

// Form field names, shared with the simulator query string.
const (
	FieldAltitude = "alt"
	FieldAscent   = "asc"
	FieldEquil    = "equil"
	FieldEqTime   = "eqtime"
	FieldDescent  = "desc"
	FieldCoeff    = "coeff"
	FieldStep     = "step"
	FieldDuration = "dur"
)

var (
	ErrNonPositiveValue      = errors.New("all values should be positive numbers")
	ErrZeroAscentBelowTarget = errors.New("ascent rate is 0 while balloon altitude is below its descent ready altitude")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Values holds raw form values keyed by field name.
type Values map[string]string

func (v Values) number(field string) (float64, error) {
	raw := strings.TrimSpace(v[field])
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &ValidationError{Field: field, Value: raw, Err: ErrNonPositiveValue}
	}
	return f, nil
}

// ascentRate parses the ascent field. Only the literal "0" is a zero rate;
// other spellings of zero such as "0.0" or "-0" are non-positive values.
func (v Values) ascentRate() (float64, error) {
	f, err := v.number(FieldAscent)
	if err != nil {
		return 0, err
	}
	if raw := strings.TrimSpace(v[FieldAscent]); f == 0 && raw != "0" {
		return 0, &ValidationError{Field: FieldAscent, Value: raw, Err: ErrNonPositiveValue}
	}
	return f, nil
}

// Validate parses the values for kind and checks them against the current
// altitude carried in the "alt" field.
func Validate(kind types.ProfileKind, values Values) (types.FlightProfile, error) {
	alt, err := values.number(FieldAltitude)
	if err != nil {
		return nil, err
	}

	var p types.FlightProfile
	switch kind {
	case types.KindStandard:
		var s types.Standard
		if s.BurstAltitude, err = values.number(FieldEquil); err != nil {
			return nil, err
		}
		if s.AscentRate, err = values.ascentRate(); err != nil {
			return nil, err
		}
		if s.DescentRate, err = values.number(FieldDescent); err != nil {
			return nil, err
		}
		p = s
	case types.KindZPB:
		var z types.ZeroPressureBalloon
		if z.EquilibriumAltitude, err = values.number(FieldEquil); err != nil {
			return nil, err
		}
		if z.EquilibriumHoldHours, err = values.number(FieldEqTime); err != nil {
			return nil, err
		}
		if z.AscentRate, err = values.ascentRate(); err != nil {
			return nil, err
		}
		if z.DescentRate, err = values.number(FieldDescent); err != nil {
			return nil, err
		}
		p = z
	case types.KindFloat:
		var f types.Float
		if f.Coefficient, err = values.number(FieldCoeff); err != nil {
			return nil, err
		}
		if f.StepSize, err = values.number(FieldStep); err != nil {
			return nil, err
		}
		if f.DurationHours, err = values.number(FieldDuration); err != nil {
			return nil, err
		}
		p = f
	default:
		return nil, fmt.Errorf("unknown profile kind %v", kind)
	}

	if err := Verify(p, alt); err != nil {
		return nil, err
	}
	return p, nil
}

// Verify applies the validation rules to an already typed profile. The
// launch altitude may be zero (ground level) and the equilibrium hold may be
// zero; every other value must be strictly positive. A zero ascent rate is
// only accepted once the balloon is at or above its target altitude.
func Verify(p types.FlightProfile, alt float64) error {
	if !finite(alt) || alt < 0 {
		return invalid(FieldAltitude, alt, ErrNonPositiveValue)
	}

	switch v := p.(type) {
	case types.Standard:
		if err := positive(FieldEquil, v.BurstAltitude); err != nil {
			return err
		}
		if err := positive(FieldDescent, v.DescentRate); err != nil {
			return err
		}
		return ascent(v.AscentRate, alt, v.BurstAltitude)
	case types.ZeroPressureBalloon:
		if err := positive(FieldEquil, v.EquilibriumAltitude); err != nil {
			return err
		}
		if !finite(v.EquilibriumHoldHours) || v.EquilibriumHoldHours < 0 {
			return invalid(FieldEqTime, v.EquilibriumHoldHours, ErrNonPositiveValue)
		}
		if err := positive(FieldDescent, v.DescentRate); err != nil {
			return err
		}
		return ascent(v.AscentRate, alt, v.EquilibriumAltitude)
	case types.Float:
		if err := positive(FieldCoeff, v.Coefficient); err != nil {
			return err
		}
		if err := positive(FieldStep, v.StepSize); err != nil {
			return err
		}
		return positive(FieldDuration, v.DurationHours)
	case nil:
		return errors.New("no flight profile")
	default:
		panic(fmt.Sprintf("unhandled flight profile %T", p))
	}
}

func ascent(rate, alt, target float64) error {
	if rate == 0 {
		if alt < target {
			return invalid(FieldAscent, rate, ErrZeroAscentBelowTarget)
		}
		return nil
	}
	return positive(FieldAscent, rate)
}

func positive(field string, v float64) error {
	if !finite(v) || v <= 0 {
		return invalid(field, v, ErrNonPositiveValue)
	}
	return nil
}

func invalid(field string, v float64, err error) error {
	return &ValidationError{Field: field, Value: format(v), Err: err}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
