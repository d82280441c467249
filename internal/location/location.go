// Package location holds the user's selected place and the built-in catalog
// of countries and cities offered by the browser.
package location

import (
	"fmt"
	"strings"
	"unicode"
)

// Location is the place prayer times are shown for. The JSON shape matches
// the persisted "prayerLocation" record.
type Location struct {
	City        string `json:"city"`
	CountryCode string `json:"country"`
	CountryName string `json:"countryName"`
	Marker      string `json:"flag"`
}

// Default is used when nothing is persisted and geolocation fails.
func Default() Location {
	return Location{
		City:        "Dubai",
		CountryCode: "AE",
		CountryName: "UAE",
		Marker:      "🇦🇪",
	}
}

// Validate reports whether l can be sent to the timings API.
func (l Location) Validate() error {
	if strings.TrimSpace(l.City) == "" {
		return fmt.Errorf("location: city is required")
	}
	if strings.TrimSpace(l.CountryCode) == "" {
		return fmt.Errorf("location: country is required")
	}
	return nil
}

// String renders "City, CountryName".
func (l Location) String() string {
	name := l.CountryName
	if name == "" {
		name = l.CountryCode
	}
	return l.City + ", " + name
}

// Flag turns an ISO 3166-1 alpha-2 code into its regional-indicator emoji.
// Anything that is not two ASCII letters yields "".
func Flag(code string) string {
	if len(code) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return ""
		}
		b.WriteRune(0x1F1E6 + r - 'A')
	}
	return b.String()
}
