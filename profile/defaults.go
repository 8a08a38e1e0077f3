package profile

import (
	"fmt"

	"github.com/vainnor/ensemble-predict/types"
)

// Default returns the variant's default parameters. Switching variants
// discards whatever was entered before and starts from these.
func Default(kind types.ProfileKind) types.FlightProfile {
	switch kind {
	case types.KindStandard:
		return types.Standard{AscentRate: 4, BurstAltitude: 30000, DescentRate: 8}
	case types.KindZPB:
		return types.ZeroPressureBalloon{AscentRate: 3.7, EquilibriumAltitude: 29000, EquilibriumHoldHours: 1, DescentRate: 15}
	case types.KindFloat:
		return types.Float{Coefficient: 0.5, StepSize: 240, DurationHours: 48}
	default:
		panic(fmt.Sprintf("unhandled profile kind %v", kind))
	}
}

// Defaults is Default rendered as form values.
func Defaults(kind types.ProfileKind) Values {
	return ValuesOf(Default(kind))
}

// ValuesOf renders a typed profile back into form values.
func ValuesOf(p types.FlightProfile) Values {
	switch v := p.(type) {
	case types.Standard:
		return Values{
			FieldAscent:  format(v.AscentRate),
			FieldEquil:   format(v.BurstAltitude),
			FieldDescent: format(v.DescentRate),
		}
	case types.ZeroPressureBalloon:
		return Values{
			FieldAscent:  format(v.AscentRate),
			FieldEquil:   format(v.EquilibriumAltitude),
			FieldEqTime:  format(v.EquilibriumHoldHours),
			FieldDescent: format(v.DescentRate),
		}
	case types.Float:
		return Values{
			FieldCoeff:    format(v.Coefficient),
			FieldStep:     format(v.StepSize),
			FieldDuration: format(v.DurationHours),
		}
	default:
		panic(fmt.Sprintf("unhandled flight profile %T", p))
	}
}
