package types

import "time"

type Position struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Altitude  float64 `json:"alt"`
}

// Launch holds the simulation inputs shared by every ensemble member.
type Launch struct {
	Time time.Time `json:"time"`
	Position
}
