package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/location"
)

const (
	defaultReverseURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent  = "passerby (+https://github.com/smokyabdulrahman/passerby)"
	unknown           = "Unknown"
	pinMarker         = "📍"
)

type nominatimResponse struct {
	Address struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Reverser turns coordinates into a Location using the Nominatim reverse
// geocoding API.
type Reverser struct {
	httpClient *http.Client
	log        zerolog.Logger
	// BaseURL is the Nominatim base URL. Exported for testing with httptest.
	BaseURL string
	// UserAgent identifies the application, as Nominatim's usage policy requires.
	UserAgent string
}

// NewReverser returns a Reverser for the public Nominatim instance.
func NewReverser(log zerolog.Logger) *Reverser {
	return &Reverser{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log.With().Str("component", "nominatim").Logger(),
		BaseURL:    defaultReverseURL,
		UserAgent:  defaultUserAgent,
	}
}

// Reverse resolves lat/lon to a Location. Missing city or country fall back
// to "Unknown" and a missing country code to "". Transport and decode
// failures wrap apperr.ErrLocationUndetected.
func (r *Reverser) Reverse(ctx context.Context, lat, lon float64) (location.Location, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	reqURL := fmt.Sprintf("%s/reverse?%s", r.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return location.Location{}, fmt.Errorf("%w: %w", apperr.ErrLocationUndetected, err)
	}
	req.Header.Set("User-Agent", r.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return location.Location{}, fmt.Errorf("%w: reverse geocoding failed: %w", apperr.ErrLocationUndetected, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return location.Location{}, fmt.Errorf("%w: reverse geocoding returned status %d", apperr.ErrLocationUndetected, resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return location.Location{}, fmt.Errorf("%w: failed to decode reverse geocoding response: %w", apperr.ErrLocationUndetected, err)
	}

	addr := body.Address
	loc := location.Location{
		City:        firstNonEmpty(addr.City, addr.Town, addr.Village, unknown),
		CountryCode: strings.ToUpper(addr.CountryCode),
		CountryName: firstNonEmpty(addr.Country, unknown),
	}
	loc.Marker = location.Flag(loc.CountryCode)
	if loc.Marker == "" {
		loc.Marker = pinMarker
	}

	r.log.Debug().Str("city", loc.City).Str("country", loc.CountryCode).Msg("reverse geocoded")
	return loc, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
