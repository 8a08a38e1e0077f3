package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/vainnor/ensemble-predict/missions"
	"github.com/vainnor/ensemble-predict/orchestrator"
	"github.com/vainnor/ensemble-predict/profile"
	"github.com/vainnor/ensemble-predict/reconcile"
	"github.com/vainnor/ensemble-predict/render"
	"github.com/vainnor/ensemble-predict/session"
	"github.com/vainnor/ensemble-predict/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var ve *profile.ValidationError
	status := http.StatusBadGateway
	switch {
	case errors.As(err, &ve), errors.Is(err, orchestrator.ErrInvalidProfile):
		status = http.StatusBadRequest
	case errors.Is(err, missions.ErrUnknownMission):
		status = http.StatusNotFound
	case errors.Is(err, orchestrator.ErrSweepInProgress):
		status = http.StatusConflict
	case errors.Is(err, session.ErrOutsideForecastWindow),
		errors.Is(err, reconcile.ErrParse),
		errors.Is(err, profile.ErrNotApplicable),
		errors.Is(err, profile.ErrInvalidRate):
		status = http.StatusUnprocessableEntity
	}
	http.Error(w, err.Error(), status)
}

func GetMissions(reg *missions.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, MissionsResponse{
			Missions: reg.Missions(),
			Active:   reg.Active().Name,
		})
	}
}

func SetActiveMission(reg *missions.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Parse request body
		var req SetMissionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := reg.SetActive(req.Name); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, MissionsResponse{
			Missions: reg.Missions(),
			Active:   reg.Active().Name,
		})
	}
}

func GetProfile(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := s.Profile()
		writeJSON(w, http.StatusOK, ProfileResponse{Kind: p.Kind(), Values: profile.ValuesOf(p)})
	}
}

func UpdateProfile(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		p, err := s.UpdateProfile(req.Kind, req.values())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ProfileResponse{Kind: p.Kind(), Values: profile.ValuesOf(p)})
	}
}

func SelectVariant(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VariantRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		p := s.SelectVariant(req.Kind)
		writeJSON(w, http.StatusOK, ProfileResponse{Kind: p.Kind(), Values: profile.ValuesOf(p)})
	}
}

func GetLaunch(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Launch())
	}
}

func SetLaunch(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var l types.Launch
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if l.Time.IsZero() {
			http.Error(w, "Launch time is required", http.StatusBadRequest)
			return
		}
		if !inRange(l.Latitude, -90, 90) || !inRange(l.Longitude, -180, 360) || !inRange(l.Altitude, 0, math.MaxFloat64) {
			http.Error(w, "Launch position out of range", http.StatusBadRequest)
			return
		}
		s.SetLaunch(l)
		writeJSON(w, http.StatusOK, s.Launch())
	}
}

func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

func LookupElevation(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ElevationResponse{Altitude: s.LookupElevation(r.Context())})
	}
}

// StartSweep starts a sweep in the background. With ?wait=true it runs the
// sweep to completion and returns the result instead.
func StartSweep(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
			res, err := s.RunSweep(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, sweepResponse(res))
			return
		}

		id, err := s.StartSweep(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Location", "/api/sweeps/latest")
		writeJSON(w, http.StatusAccepted, SweepStarted{ID: id})
	}
}

func GetLatestSweep(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, ok := s.LastResult()
		if !ok {
			http.Error(w, "No sweep has completed", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, sweepResponse(res))
	}
}

func sweepResponse(res orchestrator.EnsembleResult) SweepResponse {
	out := SweepResponse{
		ID:         res.ID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Outcome:    res.Outcome(),
		Successes:  res.Successes(),
		Failures:   res.Failures(),
		Members:    make([]MemberResponse, 0, len(res.Outcomes)),
	}
	for _, o := range res.Outcomes {
		m := MemberResponse{Member: o.Member, OK: o.OK(), Segments: o.Segments}
		if o.Err != nil {
			m.Error = o.Err.Error()
		}
		out.Members = append(out.Members, m)
	}
	return out
}

func GetPaths(layer *render.Layer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, layer.LinesGeoJSON())
	}
}

func GetWaypoints(s *session.Session, layer *render.Layer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o := s.Overlay()
		writeJSON(w, http.StatusOK, WaypointsResponse{
			Enabled: o.Enabled(),
			Shown:   o.Shown(),
			Markers: layer.MarkersGeoJSON(),
		})
	}
}

func SetWaypoints(s *session.Session, layer *render.Layer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WaypointsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		s.SetWaypoints(req.Enabled)
		o := s.Overlay()
		writeJSON(w, http.StatusOK, WaypointsResponse{
			Enabled: o.Enabled(),
			Shown:   o.Shown(),
			Markers: layer.MarkersGeoJSON(),
		})
	}
}

func GetSimulatorStatus(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Simulator().Status(r.Context()))
	}
}

func GetSimulatorRun(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := s.Simulator().RunInfo(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RunInfoResponse{Run: run})
	}
}

func PollTelemetry(c Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := c.FetchAndApply(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func GetCollectorStats(c Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c.GetStats())
	}
}

func GetTimeRemaining(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rem, err := s.TimeRemaining(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rem)
	}
}

func GetNotifications(s *session.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.Notifications())
	}
}
