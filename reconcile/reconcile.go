// Package reconcile turns the live transmission feed into launch-time,
// position and rate corrections for the active flight profile.
package reconcile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vainnor/ensemble-predict/models"
	"github.com/vainnor/ensemble-predict/types"
)

// DefaultHourOffset converts the feed's human timestamps to the hour used
// for launch inputs. It is a fixed offset; daylight saving is not tracked.
const DefaultHourOffset = 7

var (
	ErrNoMatch = errors.New("no transmission found for active mission")
	ErrParse   = errors.New("malformed transmission")
)

// ParseError reports the field that could not be decoded. It matches
// ErrParse with errors.Is.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse transmission: %v", e.Err)
	}
	return fmt.Sprintf("parse transmission field %q: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// LaunchTime is the decoded, offset-adjusted launch date. Day may exceed
// the month length after a rollover: only the day is advanced, never the
// month or year.
type LaunchTime struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Time interprets the fields as UTC the way the launch form does, letting
// time.Date normalize an overflowing day.
func (l LaunchTime) Time() time.Time {
	return time.Date(l.Year, time.Month(l.Month), l.Day, l.Hour, l.Minute, 0, 0, time.UTC)
}

// Update is the outcome of a successful reconciliation.
type Update struct {
	Mission      types.Mission      `json:"mission"`
	Transmission types.Transmission `json:"transmission"`
	Launch       LaunchTime         `json:"launch"`
	Position     types.Position     `json:"position"`
}

type Reconciler struct {
	HourOffset int
}

func New(hourOffset int) *Reconciler {
	return &Reconciler{HourOffset: hourOffset}
}

// Reconcile scans the feed in order for the first transmission of the active
// mission. It returns ErrNoMatch when there is none and a *ParseError when the
// feed or the matched record is malformed.
func (r *Reconciler) Reconcile(feed []byte, active types.Mission) (Update, error) {
	records, err := models.DecodeFeed(feed)
	if err != nil {
		return Update{}, &ParseError{Err: err}
	}

	for _, rec := range records {
		id, ok := rec.MissionID()
		if !ok || id != active.NumericID {
			continue
		}
		return r.decode(rec, active)
	}
	return Update{}, ErrNoMatch
}

func (r *Reconciler) decode(rec models.FeedRecord, active types.Mission) (Update, error) {
	if rec.HumanTime == nil || *rec.HumanTime == "" {
		return Update{}, &ParseError{Field: "Human Time", Err: errors.New("missing")}
	}
	launch, err := r.parseHumanTime(*rec.HumanTime)
	if err != nil {
		return Update{}, &ParseError{Field: "Human Time", Err: err}
	}

	required := []struct {
		name string
		v    models.FlexFloat
	}{
		{"latitude", rec.Latitude},
		{"longitude", rec.Longitude},
		{"altitude_gps", rec.AltitudeGPS},
	}
	for _, f := range required {
		if !f.v.Valid || math.IsNaN(f.v.Value) || math.IsInf(f.v.Value, 0) {
			return Update{}, &ParseError{Field: f.name, Err: errors.New("missing or not a number")}
		}
	}

	tx := types.Transmission{
		HumanTimestamp: *rec.HumanTime,
		Latitude:       rec.Latitude.Value,
		Longitude:      rec.Longitude.Value,
		AltitudeGPS:    rec.AltitudeGPS.Value,
		AscentRate:     rec.AscentRate.Ptr(),
		GroundSpeed:    rec.GroundSpeed.Ptr(),
		Direction:      string(rec.Direction),
		MissionID:      active.NumericID,
	}
	return Update{
		Mission:      active,
		Transmission: tx,
		Launch:       launch,
		Position: types.Position{
			Latitude:  tx.Latitude,
			Longitude: tx.Longitude,
			Altitude:  tx.AltitudeGPS,
		},
	}, nil
}

// parseHumanTime slices "YYYY-MM-DD?HH:MM:SS" by position: characters 0-10
// hold the date and 11-19 the time of day.
func (r *Reconciler) parseHumanTime(s string) (LaunchTime, error) {
	if len(s) < 16 {
		return LaunchTime{}, fmt.Errorf("timestamp %q too short", s)
	}
	date := strings.Split(s[0:10], "-")
	if len(date) != 3 {
		return LaunchTime{}, fmt.Errorf("date %q is not year-month-day", s[0:10])
	}
	end := min(len(s), 19)
	clock := strings.Split(s[11:end], ":")
	if len(clock) < 2 {
		return LaunchTime{}, fmt.Errorf("time %q is not hour:minute:second", s[11:end])
	}

	var lt LaunchTime
	fields := []struct {
		dst    *int
		raw    string
		lo, hi int
		label  string
	}{
		{&lt.Year, date[0], 1, 9999, "year"},
		{&lt.Month, date[1], 1, 12, "month"},
		{&lt.Day, date[2], 1, 31, "day"},
		{&lt.Hour, clock[0], 0, 23, "hour"},
		{&lt.Minute, clock[1], 0, 59, "minute"},
	}
	for _, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f.raw))
		if err != nil || n < f.lo || n > f.hi {
			return LaunchTime{}, fmt.Errorf("invalid %s %q", f.label, f.raw)
		}
		*f.dst = n
	}

	lt.Hour += r.HourOffset
	if lt.Hour >= 24 {
		lt.Hour -= 24
		lt.Day++
	}
	return lt, nil
}

// Apply returns a copy of p corrected by the transmission's ascent rate. A
// positive rate replaces the ascent rate. A zero or negative rate means the
// balloon is descending: its magnitude becomes the descent rate, the current
// altitude becomes the burst or equilibrium altitude and any hold time is
// cleared. Float profiles carry no rates and are returned unchanged.
func Apply(p types.FlightProfile, u Update) types.FlightProfile {
	rate := u.Transmission.AscentRate
	if rate == nil {
		return p
	}
	alt := u.Transmission.AltitudeGPS

	switch v := p.(type) {
	case types.Standard:
		if *rate > 0 {
			v.AscentRate = *rate
		} else {
			v.DescentRate = math.Abs(*rate)
			v.BurstAltitude = alt
		}
		return v
	case types.ZeroPressureBalloon:
		if *rate > 0 {
			v.AscentRate = *rate
		} else {
			v.DescentRate = math.Abs(*rate)
			v.EquilibriumAltitude = alt
			v.EquilibriumHoldHours = 0
		}
		return v
	case types.Float:
		return v
	default:
		panic(fmt.Sprintf("unhandled flight profile %T", p))
	}
}
