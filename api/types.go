package api

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/vainnor/ensemble-predict/models"
	"github.com/vainnor/ensemble-predict/profile"
	"github.com/vainnor/ensemble-predict/types"
)

type MissionsResponse struct {
	Missions []types.Mission `json:"missions"`
	Active   string          `json:"active"`
}

type SetMissionRequest struct {
	Name string `json:"name"`
}

// ProfileRequest carries raw form values. Values may be JSON strings or
// numbers; they are validated as text.
type ProfileRequest struct {
	Kind   types.ProfileKind            `json:"kind"`
	Values map[string]models.FlexString `json:"values"`
}

func (r ProfileRequest) values() profile.Values {
	v := make(profile.Values, len(r.Values))
	for k, val := range r.Values {
		v[k] = string(val)
	}
	return v
}

type VariantRequest struct {
	Kind types.ProfileKind `json:"kind"`
}

type ProfileResponse struct {
	Kind   types.ProfileKind `json:"kind"`
	Values profile.Values    `json:"values"`
}

type ElevationResponse struct {
	Altitude float64 `json:"alt"`
}

type SweepStarted struct {
	ID string `json:"id"`
}

type MemberResponse struct {
	Member   int                 `json:"member"`
	OK       bool                `json:"ok"`
	Error    string              `json:"error,omitempty"`
	Segments []types.PathSegment `json:"segments,omitempty"`
}

type SweepResponse struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Outcome    string           `json:"outcome"`
	Successes  []int            `json:"successes"`
	Failures   []int            `json:"failures"`
	Members    []MemberResponse `json:"members"`
}

type WaypointsRequest struct {
	Enabled bool `json:"enabled"`
}

type WaypointsResponse struct {
	Enabled bool                       `json:"enabled"`
	Shown   bool                       `json:"shown"`
	Markers *geojson.FeatureCollection `json:"markers"`
}

type RunInfoResponse struct {
	Run string `json:"run"`
}
