package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoMatch is returned when the address could not be located
var ErrNoMatch = errors.New("address not found")

// Result is a located address
type Result struct {
	Latitude  float64
	Longitude float64
	Label     string
	City      string
	Postcode  string
	Region    string
	Score     float64
}

// Geocoder turns a postal address into coordinates
type Geocoder interface {
	Geocode(ctx context.Context, address, postcode, city string) (*Result, error)
}

// BANConfig holds configuration for the Base Adresse Nationale client
type BANConfig struct {
	BaseURL string
	Timeout time.Duration
	// MinScore rejects low-confidence matches (0..1)
	MinScore float64
}

// BANClient queries the French national address API (api-adresse.data.gouv.fr)
type BANClient struct {
	baseURL  string
	minScore float64
	client   *http.Client
}

// NewBANClient creates a new Base Adresse Nationale client
func NewBANClient(config BANConfig) *BANClient {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &BANClient{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		minScore: config.MinScore,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// searchResponse is the GeoJSON FeatureCollection returned by /search
type searchResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties struct {
			Label    string  `json:"label"`
			Score    float64 `json:"score"`
			Postcode string  `json:"postcode"`
			City     string  `json:"city"`
			Context  string  `json:"context"` // "21, Côte-d'Or, Bourgogne-Franche-Comté"
		} `json:"properties"`
	} `json:"features"`
}

// Geocode returns the best match for an address
func (c *BANClient) Geocode(ctx context.Context, address, postcode, city string) (*Result, error) {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(address+" "+city))
	q.Set("limit", "1")
	if postcode != "" {
		q.Set("postcode", postcode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call geocoding API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocoding API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	if len(parsed.Features) == 0 {
		return nil, ErrNoMatch
	}

	f := parsed.Features[0]
	if len(f.Geometry.Coordinates) < 2 || f.Properties.Score < c.minScore {
		return nil, ErrNoMatch
	}

	return &Result{
		Longitude: f.Geometry.Coordinates[0],
		Latitude:  f.Geometry.Coordinates[1],
		Label:     f.Properties.Label,
		City:      f.Properties.City,
		Postcode:  f.Properties.Postcode,
		Region:    regionFromContext(f.Properties.Context),
		Score:     f.Properties.Score,
	}, nil
}

// regionFromContext takes the last element of "dept code, dept name, region"
func regionFromContext(context string) string {
	parts := strings.Split(context, ",")
	if len(parts) < 3 {
		return ""
	}
	return strings.TrimSpace(parts[len(parts)-1])
}
