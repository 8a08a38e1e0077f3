package models

import (
	"errors"
	"testing"
)

func TestParsePayloadSentinel(t *testing.T) {
	for _, body := range []string{`error`, `"error"`, " error\n"} {
		if _, err := ParsePayload([]byte(body)); !errors.Is(err, ErrSimulationFailed) {
			t.Fatalf("ParsePayload(%q) error = %v, want ErrSimulationFailed", body, err)
		}
	}

	for _, body := range []string{`"busy"`, `[[1,2`, ``} {
		_, err := ParsePayload([]byte(body))
		if err == nil || errors.Is(err, ErrSimulationFailed) {
			t.Fatalf("ParsePayload(%q) error = %v, want malformed reply", body, err)
		}
	}
}

func TestPayloadPhasesAndTrack(t *testing.T) {
	p, err := ParsePayload([]byte(`[
		[[1735819200, 37.4, -122.1, 100, 1, 2, 0, 0], [1735819260, 37.5, -122.0, 400, 1, 2, 0, 0]],
		[],
		[[1735822800, 37.9, -121.5, 30000, 0, 0, 0, 0]]
	]`))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	phases, err := p.Phases()
	if err != nil {
		t.Fatalf("Phases: %v", err)
	}
	if len(phases) != 3 || len(phases[0]) != 2 || len(phases[1]) != 0 || len(phases[2]) != 1 {
		t.Fatalf("unexpected phase shape: %v", phases)
	}
	if got := phases[0][1]; got.Timestamp != 1735819260 || got.Latitude != 37.5 || got.Longitude != -122.0 || got.Altitude != 400 {
		t.Fatalf("unexpected point: %+v", got)
	}
	if _, err := p.Track(); err == nil {
		t.Fatal("expected Track to reject a phase list")
	}

	track, err := Payload(`[[1735819200, 37.4, -122.1, 100]]`).Track()
	if err != nil || len(track) != 1 {
		t.Fatalf("Track = %v, %v", track, err)
	}
	if _, err := Payload(`[[1735819200, 37.4]]`).Track(); err == nil {
		t.Fatal("expected short point to be rejected")
	}
}

func TestDecodeFeed(t *testing.T) {
	records, err := DecodeFeed([]byte(`[
		{"Human Time": "2025-01-01 16:45:00", "mission": "68", "latitude": 37.1, "longitude": "-121.9", "altitude_gps": 28000, "ascentRate": "-3.5", "direction": 270},
		{"mission": 69.5, "latitude": null, "altitude_gps": "n/a"}
	]`))
	if err != nil {
		t.Fatalf("DecodeFeed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if id, ok := first.MissionID(); !ok || id != 68 {
		t.Fatalf("MissionID = %d, %v", id, ok)
	}
	if first.HumanTime == nil || *first.HumanTime != "2025-01-01 16:45:00" {
		t.Fatalf("unexpected human time: %v", first.HumanTime)
	}
	if !first.Longitude.Valid || first.Longitude.Value != -121.9 {
		t.Fatalf("unexpected longitude: %+v", first.Longitude)
	}
	if rate := first.AscentRate.Ptr(); rate == nil || *rate != -3.5 {
		t.Fatalf("unexpected ascent rate: %v", rate)
	}
	if first.Direction != "270" {
		t.Fatalf("direction = %q", first.Direction)
	}
	if first.GroundSpeed.Present || first.GroundSpeed.Ptr() != nil {
		t.Fatalf("missing ground speed decoded as %+v", first.GroundSpeed)
	}

	second := records[1]
	if _, ok := second.MissionID(); ok {
		t.Fatal("fractional mission id should not match")
	}
	if second.Latitude.Present {
		t.Fatal("null latitude should not be present")
	}
	if !second.AltitudeGPS.Present || second.AltitudeGPS.Valid {
		t.Fatalf("non-numeric altitude decoded as %+v", second.AltitudeGPS)
	}

	if _, err := DecodeFeed([]byte(`{"mission": 68}`)); err == nil {
		t.Fatal("expected an object feed to be rejected")
	}
}
