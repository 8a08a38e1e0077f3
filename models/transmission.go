package models

import (
	"encoding/json"
	"fmt"
)

// FeedRecord is one transmission as published by the live telemetry feed.
// Numeric fields arrive as numbers or numeric strings depending on the
// feed's uplink, so they decode through FlexFloat.
type FeedRecord struct {
	HumanTime   *string    `json:"Human Time"`
	Latitude    FlexFloat  `json:"latitude"`
	Longitude   FlexFloat  `json:"longitude"`
	AltitudeGPS FlexFloat  `json:"altitude_gps"`
	AscentRate  FlexFloat  `json:"ascentRate"`
	GroundSpeed FlexFloat  `json:"groundSpeed"`
	Direction   FlexString `json:"direction"`
	Mission     FlexFloat  `json:"mission"`
}

// MissionID returns the record's mission identifier when it is an integer.
func (r FeedRecord) MissionID() (int, bool) {
	if !r.Mission.Valid || r.Mission.Value != float64(int(r.Mission.Value)) {
		return 0, false
	}
	return int(r.Mission.Value), true
}

// DecodeFeed parses the feed body into records, preserving feed order.
func DecodeFeed(b []byte) ([]FeedRecord, error) {
	var records []FeedRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode transmission feed: %w", err)
	}
	return records, nil
}
