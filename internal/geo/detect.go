package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
)

// Position holds geographic coordinates detected from the user's IP.
type Position struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

// ipAPIResponse maps the response from ip-api.com.
type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

const defaultGeoAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

// PositionCache remembers the last detected position. cache.Cache
// implements it.
type PositionCache interface {
	LoadPosition() *Position
	SavePosition(*Position) error
}

// Locator determines the user's position from their public IP address using
// ip-api.com, a free service that requires no API key.
type Locator struct {
	httpClient *http.Client
	cache      PositionCache
	log        zerolog.Logger
	// URL is the geolocation endpoint. Exported for testing with httptest.
	URL string
}

// NewLocator returns a Locator. cache may be nil.
func NewLocator(cache PositionCache, log zerolog.Logger) *Locator {
	return &Locator{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		cache:      cache,
		log:        log.With().Str("component", "geolocation").Logger(),
		URL:        defaultGeoAPIURL,
	}
}

// Locate returns the current position, from cache when fresh. Any failure
// wraps apperr.ErrGeolocationDenied.
func (l *Locator) Locate(ctx context.Context) (*Position, error) {
	if l.cache != nil {
		if pos := l.cache.LoadPosition(); pos != nil {
			l.log.Debug().Str("city", pos.City).Msg("using cached position")
			return pos, nil
		}
	}

	pos, err := l.detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperr.ErrGeolocationDenied, err)
	}

	if l.cache != nil {
		if err := l.cache.SavePosition(pos); err != nil {
			l.log.Warn().Err(err).Msg("could not cache position")
		}
	}
	return pos, nil
}

func (l *Locator) detect(ctx context.Context) (*Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build geolocation request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geolocation API returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode geolocation response: %w", err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("geolocation failed: %s", result.Message)
	}

	return &Position{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		City:      result.City,
		Country:   result.Country,
		Timezone:  result.Timezone,
	}, nil
}
