package location

import (
	"fmt"
	"slices"
	"strings"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
)

// Country is a catalog entry.
type Country struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Cities []string `json:"cities"`
}

// Region groups countries for browsing.
type Region struct {
	Name      string    `json:"name"`
	Countries []Country `json:"countries"`
}

var catalog = []Region{
	{"Middle East", []Country{
		{"AE", "United Arab Emirates", []string{"Dubai", "Abu Dhabi", "Sharjah"}},
		{"SA", "Saudi Arabia", []string{"Mecca", "Medina", "Riyadh", "Jeddah"}},
		{"KW", "Kuwait", []string{"Kuwait City", "Al Ahmadi"}},
		{"QA", "Qatar", []string{"Doha", "Al Rayyan"}},
		{"BH", "Bahrain", []string{"Manama", "Riffa"}},
		{"OM", "Oman", []string{"Muscat", "Salalah"}},
		{"JO", "Jordan", []string{"Amman", "Aqaba"}},
		{"IQ", "Iraq", []string{"Baghdad", "Basra"}},
		{"SY", "Syria", []string{"Damascus", "Aleppo"}},
		{"LB", "Lebanon", []string{"Beirut", "Tripoli"}},
		{"PS", "Palestine", []string{"Gaza", "Ramallah"}},
		{"YE", "Yemen", []string{"Sanaa", "Aden"}},
	}},
	{"North America", []Country{
		{"US", "United States", []string{"New York", "Los Angeles", "Chicago"}},
		{"CA", "Canada", []string{"Toronto", "Vancouver", "Montreal"}},
	}},
	{"Europe", []Country{
		{"GB", "United Kingdom", []string{"London", "Manchester", "Birmingham"}},
		{"FR", "France", []string{"Paris", "Marseille"}},
		{"DE", "Germany", []string{"Berlin", "Munich"}},
		{"IT", "Italy", []string{"Rome", "Milan"}},
		{"ES", "Spain", []string{"Madrid", "Barcelona"}},
		{"TR", "Turkey", []string{"Istanbul", "Ankara"}},
	}},
	{"Asia", []Country{
		{"PK", "Pakistan", []string{"Karachi", "Lahore", "Islamabad"}},
		{"IN", "India", []string{"Mumbai", "Delhi", "Bangalore"}},
		{"BD", "Bangladesh", []string{"Dhaka", "Chittagong"}},
		{"ID", "Indonesia", []string{"Jakarta", "Surabaya"}},
		{"MY", "Malaysia", []string{"Kuala Lumpur", "George Town"}},
	}},
	{"Africa", []Country{
		{"EG", "Egypt", []string{"Cairo", "Alexandria"}},
		{"MA", "Morocco", []string{"Casablanca", "Rabat"}},
	}},
	{"Oceania", []Country{
		{"AU", "Australia", []string{"Sydney", "Melbourne"}},
	}},
}

// Regions returns a copy of the whole catalog.
func Regions() []Region {
	out := make([]Region, len(catalog))
	for i, r := range catalog {
		out[i] = Region{Name: r.Name, Countries: slices.Clone(r.Countries)}
	}
	return out
}

// Search returns the regions whose countries match query, keeping only the
// matching countries. Matching is a case-insensitive substring test on the
// country name or an exact match on the code. An empty query returns
// everything.
func Search(query string) []Region {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Regions()
	}

	var out []Region
	for _, r := range catalog {
		var matched []Country
		for _, c := range r.Countries {
			if strings.Contains(strings.ToLower(c.Name), q) || strings.EqualFold(c.Code, q) {
				matched = append(matched, c)
			}
		}
		if len(matched) > 0 {
			out = append(out, Region{Name: r.Name, Countries: matched})
		}
	}
	return out
}

// LookupCountry finds a country by its two-letter code.
func LookupCountry(code string) (Country, error) {
	for _, r := range catalog {
		for _, c := range r.Countries {
			if strings.EqualFold(c.Code, code) {
				return c, nil
			}
		}
	}
	return Country{}, fmt.Errorf("country %q: %w", code, apperr.ErrNotFound)
}

// Cities lists the catalog cities of a country filtered by a case-insensitive
// substring query.
func Cities(code, query string) ([]string, error) {
	c, err := LookupCountry(code)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))

	var out []string
	for _, city := range c.Cities {
		if strings.Contains(strings.ToLower(city), q) {
			out = append(out, city)
		}
	}
	return out, nil
}

// Resolve builds a Location for city in the country with the given code.
// Known countries get their catalog name; unknown codes keep the code as the
// name. Cities outside the catalog are allowed, the timings API decides
// whether they exist.
func Resolve(city, code string) (Location, error) {
	city = strings.TrimSpace(city)
	code = strings.ToUpper(strings.TrimSpace(code))

	loc := Location{City: city, CountryCode: code, CountryName: code, Marker: Flag(code)}
	if c, err := LookupCountry(code); err == nil {
		loc.CountryName = c.Name
		for _, known := range c.Cities {
			if strings.EqualFold(known, city) {
				loc.City = known
				break
			}
		}
	}
	if err := loc.Validate(); err != nil {
		return Location{}, fmt.Errorf("%w: %w", apperr.ErrUnknownCity, err)
	}
	return loc, nil
}
