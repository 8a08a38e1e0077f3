package simclient

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

// Literal status lines published by the simulator.
const (
	StatusReady      = "Ready"
	StatusRefreshing = "Data refreshing. Sims may be slower than usual."
)

type Light string

const (
	LightGreen Light = "green"
	LightAmber Light = "amber"
	LightRed   Light = "red"
)

type StatusReport struct {
	Text  string `json:"text"`
	Light Light  `json:"light"`
	Color string `json:"color"`
}

// ClassifyStatus maps a status line to its traffic light.
func ClassifyStatus(text string) StatusReport {
	switch text {
	case StatusReady:
		return StatusReport{Text: text, Light: LightGreen, Color: "#00CC00"}
	case StatusRefreshing:
		return StatusReport{Text: text, Light: LightAmber, Color: "#FFB900"}
	default:
		return StatusReport{Text: text, Light: LightRed, Color: "#CC0000"}
	}
}

// Status fetches and classifies the simulator status. Fetch failures are
// reported red.
func (c *Client) Status(ctx context.Context) StatusReport {
	body, err := c.get(ctx, c.baseURL+"/status")
	if err != nil {
		log.Error().Err(err).Msg("Error fetching status")
		return ClassifyStatus("Error fetching status")
	}
	return ClassifyStatus(strings.TrimSpace(string(body)))
}
