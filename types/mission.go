package types

// Mission is an entry of the mission table.
type Mission struct {
	Name      string `json:"name"`
	NumericID int    `json:"id"`
	IsActive  bool   `json:"active"`
}

// Transmission is a decoded live telemetry record. Optional fields are nil
// or empty when the feed omitted them.
type Transmission struct {
	HumanTimestamp string   `json:"human_time"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	AltitudeGPS    float64  `json:"altitude_gps"`
	AscentRate     *float64 `json:"ascent_rate,omitempty"`
	GroundSpeed    *float64 `json:"ground_speed,omitempty"`
	Direction      string   `json:"direction,omitempty"`
	MissionID      int      `json:"mission"`
}
