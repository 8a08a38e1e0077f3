package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vainnor/ensemble-predict/types"
)

// ErrSimulationFailed is the simulator's literal "error" reply.
var ErrSimulationFailed = errors.New("simulation returned error sentinel")

// errorSentinel is sent bare by /singlepredict and JSON-encoded by /singlezpb.
const errorSentinel = "error"

// Payload is an undecoded simulator reply that is known not to be the error
// sentinel. Bounded profiles reply with three point arrays (rise, coast,
// fall); float profiles reply with a single point array.
type Payload json.RawMessage

// ParsePayload classifies a simulator response body.
func ParsePayload(body []byte) (Payload, error) {
	body = bytes.TrimSpace(body)
	if string(body) == errorSentinel {
		return nil, ErrSimulationFailed
	}
	if len(body) > 0 && body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err == nil && s == errorSentinel {
			return nil, ErrSimulationFailed
		}
		return nil, fmt.Errorf("unexpected simulator reply %s", truncate(body))
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("malformed simulator reply %s", truncate(body))
	}
	return Payload(body), nil
}

// Track decodes a single point array.
func (p Payload) Track() ([]types.PathPoint, error) {
	var raw [][]float64
	if err := json.Unmarshal(p, &raw); err != nil {
		return nil, fmt.Errorf("decode track: %w", err)
	}
	return toPoints(raw)
}

// Phases decodes a list of point arrays, one per phase.
func (p Payload) Phases() ([][]types.PathPoint, error) {
	var raw [][][]float64
	if err := json.Unmarshal(p, &raw); err != nil {
		return nil, fmt.Errorf("decode phases: %w", err)
	}
	phases := make([][]types.PathPoint, len(raw))
	for i, r := range raw {
		pts, err := toPoints(r)
		if err != nil {
			return nil, fmt.Errorf("phase %d: %w", i, err)
		}
		phases[i] = pts
	}
	return phases, nil
}

// toPoints maps [timestamp, lat, lon, alt, u, v, du, dv] rows; wind columns
// are dropped.
func toPoints(raw [][]float64) ([]types.PathPoint, error) {
	pts := make([]types.PathPoint, 0, len(raw))
	for i, row := range raw {
		if len(row) < 4 {
			return nil, fmt.Errorf("point %d has %d fields, want at least 4", i, len(row))
		}
		pts = append(pts, types.PathPoint{
			Timestamp: row[0],
			Latitude:  row[1],
			Longitude: row[2],
			Altitude:  row[3],
		})
	}
	return pts, nil
}

func truncate(b []byte) string {
	const limit = 64
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
