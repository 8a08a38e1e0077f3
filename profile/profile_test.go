package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/vainnor/ensemble-predict/types"
)

func TestValidateZeroAscentBelowTarget(t *testing.T) {
	values := Values{"alt": "100", "asc": "0", "equil": "30000", "desc": "8"}

	_, err := Validate(types.KindStandard, values)
	if !errors.Is(err, ErrZeroAscentBelowTarget) {
		t.Fatalf("expected ErrZeroAscentBelowTarget, got %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != FieldAscent {
		t.Fatalf("expected validation error on %q, got %v", FieldAscent, err)
	}

	values["asc"] = "2.5"
	p, err := Validate(types.KindStandard, values)
	if err != nil {
		t.Fatalf("validate with positive ascent: %v", err)
	}
	std, ok := p.(types.Standard)
	if !ok {
		t.Fatalf("expected Standard profile, got %T", p)
	}
	if std.AscentRate != 2.5 || std.BurstAltitude != 30000 || std.DescentRate != 8 {
		t.Fatalf("unexpected profile: %+v", std)
	}
}

func TestValidateZeroAscentAtTargetAccepted(t *testing.T) {
	values := Values{"alt": "30000", "asc": "0", "equil": "30000", "eqtime": "0", "desc": "5"}
	if _, err := Validate(types.KindZPB, values); err != nil {
		t.Fatalf("zero ascent at target altitude should validate: %v", err)
	}
}

func TestValidateZeroAscentSpelling(t *testing.T) {
	for _, raw := range []string{"0.0", "-0", "0e3"} {
		for _, alt := range []string{"100", "31000"} {
			values := Values{"alt": alt, "asc": raw, "equil": "30000", "desc": "8"}
			_, err := Validate(types.KindStandard, values)
			if !errors.Is(err, ErrNonPositiveValue) || errors.Is(err, ErrZeroAscentBelowTarget) {
				t.Fatalf("asc=%q alt=%s: expected ErrNonPositiveValue, got %v", raw, alt, err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != FieldAscent || verr.Value != raw {
				t.Fatalf("asc=%q: unexpected validation error %v", raw, err)
			}
		}
	}

	values := Values{"alt": "100", "asc": " 0 ", "equil": "30000", "desc": "8"}
	if _, err := Validate(types.KindStandard, values); !errors.Is(err, ErrZeroAscentBelowTarget) {
		t.Fatalf("expected ErrZeroAscentBelowTarget for a padded zero, got %v", err)
	}
}

func TestValidateNonPositiveValues(t *testing.T) {
	cases := []struct {
		name   string
		kind   types.ProfileKind
		values Values
		field  string
	}{
		{"negative descent", types.KindStandard, Values{"alt": "0", "asc": "4", "equil": "30000", "desc": "-8"}, FieldDescent},
		{"non numeric burst", types.KindStandard, Values{"alt": "0", "asc": "4", "equil": "high", "desc": "8"}, FieldEquil},
		{"missing altitude", types.KindStandard, Values{"asc": "4", "equil": "30000", "desc": "8"}, FieldAltitude},
		{"zero coefficient", types.KindFloat, Values{"alt": "0", "coeff": "0", "step": "240", "dur": "48"}, FieldCoeff},
		{"infinite step", types.KindFloat, Values{"alt": "0", "coeff": "0.5", "step": "Inf", "dur": "48"}, FieldStep},
		{"negative hold", types.KindZPB, Values{"alt": "0", "asc": "3.7", "equil": "29000", "eqtime": "-1", "desc": "15"}, FieldEqTime},
		{"negative ascent", types.KindZPB, Values{"alt": "0", "asc": "-3", "equil": "29000", "eqtime": "1", "desc": "15"}, FieldAscent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.kind, tc.values)
			if !errors.Is(err, ErrNonPositiveValue) {
				t.Fatalf("expected ErrNonPositiveValue, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestValidateDefaultsRoundTrip(t *testing.T) {
	for _, kind := range []types.ProfileKind{types.KindStandard, types.KindZPB, types.KindFloat} {
		values := Defaults(kind)
		values[FieldAltitude] = "0"
		p, err := Validate(kind, values)
		if err != nil {
			t.Fatalf("%v defaults should validate: %v", kind, err)
		}
		if p != Default(kind) {
			t.Fatalf("%v: got %+v, want %+v", kind, p, Default(kind))
		}
	}
}

func TestDefaultsPerVariant(t *testing.T) {
	zpb := Defaults(types.KindZPB)
	want := Values{"asc": "3.7", "equil": "29000", "eqtime": "1", "desc": "15"}
	for k, v := range want {
		if zpb[k] != v {
			t.Fatalf("zpb default %s = %q, want %q", k, zpb[k], v)
		}
	}
	float := Defaults(types.KindFloat)
	if float["coeff"] != "0.5" || float["dur"] != "48" || float["step"] != "240" {
		t.Fatalf("unexpected float defaults: %v", float)
	}
	if _, ok := float[FieldAscent]; ok {
		t.Fatalf("float defaults must not carry an ascent rate")
	}
}

func TestVerifyRejectsNilProfile(t *testing.T) {
	if err := Verify(nil, 0); err == nil {
		t.Fatalf("expected error for nil profile")
	}
}

func TestTimeRemaining(t *testing.T) {
	std := types.Standard{AscentRate: 5, BurstAltitude: 30000, DescentRate: 10}

	r, err := TimeRemaining(std, 12000, 0)
	if err != nil {
		t.Fatalf("ascent remaining: %v", err)
	}
	if r.Phase != "ascent" || math.Abs(r.Hours-1.0) > 1e-9 {
		t.Fatalf("unexpected ascent estimate: %+v", r)
	}

	r, err = TimeRemaining(std, 36500, 500)
	if err != nil {
		t.Fatalf("descent remaining: %v", err)
	}
	if r.Phase != "descent" || math.Abs(r.Hours-1.0) > 1e-9 {
		t.Fatalf("unexpected descent estimate: %+v", r)
	}

	if _, err := TimeRemaining(types.Standard{BurstAltitude: 30000}, 100, 0); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
	if _, err := TimeRemaining(Default(types.KindFloat), 100, 0); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("expected ErrNotApplicable, got %v", err)
	}
}
