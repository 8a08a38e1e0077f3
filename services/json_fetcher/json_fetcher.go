package jsonfetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
)

// DefaultFeedURL is the public list of recent transmissions.
const DefaultFeedURL = "https://stanfordssi.org/transmissions/recent"

const maxFeedBytes = 8 << 20

// FetchTransmissions fetches the raw live telemetry feed. The body is
// returned undecoded; decoding belongs to the reconciler.
func FetchTransmissions(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", url).Msg("Error fetching transmissions")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("transmission feed returned %s", resp.Status)
		log.Error().Err(err).Str("url", url).Msg("Error fetching transmissions")
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		log.Error().Err(err).Msg("Error reading transmissions")
		return nil, err
	}

	log.Debug().Int("bytes", len(body)).Msg("Fetched transmissions successfully")
	return body, nil
}
