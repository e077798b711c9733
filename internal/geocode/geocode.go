// Package geocode resolves free-text place queries against a
// Nominatim-compatible search endpoint. Lookups are fire-and-forget from
// the drawing core's perspective: a failed or slow search never touches
// feature state, it just yields no results.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// DefaultEndpoint is the public Nominatim search API.
const DefaultEndpoint = "https://nominatim.openstreetmap.org/search"

// Result is one geocoding match.
type Result struct {
	Label  string    `json:"label" doc:"Display name of the match" example:"Berlin, Deutschland"`
	Center orb.Point `json:"center" doc:"Match centroid as [lng, lat]"`
}

// Geocoder resolves a query to candidate locations.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Client is a Geocoder backed by a Nominatim-compatible HTTP endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	limit    int
}

// New creates a client for the given endpoint. An empty endpoint uses the
// public Nominatim instance.
func New(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
		limit:    5,
	}
}

// nominatim's JSON v2 response shape, reduced to what the search box needs.
type place struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search queries the endpoint and returns matches in ranking order.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "plat-annotate/0.1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: %s returned %s", c.endpoint, resp.Status)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("geocode: decoding response: %w", err)
	}

	results := make([]Result, 0, len(places))
	for _, p := range places {
		lat, latErr := strconv.ParseFloat(p.Lat, 64)
		lon, lonErr := strconv.ParseFloat(p.Lon, 64)
		if latErr != nil || lonErr != nil {
			log.Debug().Str("place", p.DisplayName).Msg("Geocode result skipped: bad coordinates")
			continue
		}
		results = append(results, Result{
			Label:  p.DisplayName,
			Center: orb.Point{lon, lat},
		})
	}
	return results, nil
}
