package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/smokyabdulrahman/passerby/internal/api"
	"github.com/smokyabdulrahman/passerby/internal/geo"
	"github.com/smokyabdulrahman/passerby/internal/location"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
)

const (
	timingsCacheFile = "timings_%s.json" // keyed by hash
	geoCacheFile     = "geolocation.json"
	geoTTL           = 24 * time.Hour
)

// Cache provides file-based caching for prayer times and geolocation data.
type Cache struct {
	dir string
	now func() time.Time
}

// TimingsEntry stores one day's API payload for a city along with the
// parameters it was requested with.
type TimingsEntry struct {
	Date    string   `json:"date"` // YYYY-MM-DD
	City    string   `json:"city"`
	Country string   `json:"country"`
	Method  int      `json:"method"`
	School  int      `json:"school"`
	Data    api.Data `json:"data"`
}

// GeoCacheEntry stores a cached geolocation result with a timestamp.
type GeoCacheEntry struct {
	Position geo.Position `json:"position"`
	CachedAt time.Time    `json:"cached_at"`
}

// New creates a Cache rooted at the given directory.
// If dir is empty, it defaults to ~/.cache/passerby/.
func New(dir string) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".cache", "passerby")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// cacheKey builds a deterministic hash from the parameters that affect prayer times.
// City and country are case-folded so "dubai" and "Dubai" share an entry.
func cacheKey(date, city, country string, method, school int) string {
	raw := fmt.Sprintf("%s|%s|%s|%d|%d", date, strings.ToLower(city), strings.ToLower(country), method, school)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8]) // 16 hex chars is plenty for uniqueness
}

func (c *Cache) timingsPath(date string, loc location.Location, calc prayer.Calculation) string {
	key := cacheKey(date, loc.City, loc.CountryCode, calc.Method, int(calc.School))
	return filepath.Join(c.dir, fmt.Sprintf(timingsCacheFile, key))
}

// LoadTimings attempts to read the cached payload for the given day, place and
// calculation. Returns nil if the cache is missing, unreadable or for another day.
func (c *Cache) LoadTimings(date time.Time, loc location.Location, calc prayer.Calculation) *TimingsEntry {
	dateStr := date.Format("2006-01-02")

	data, err := os.ReadFile(c.timingsPath(dateStr, loc, calc))
	if err != nil {
		return nil
	}

	var entry TimingsEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	// Validate the date matches -- stale cache for a previous day is useless.
	if entry.Date != dateStr {
		return nil
	}

	return &entry
}

// SaveTimings writes a day's payload to the cache.
func (c *Cache) SaveTimings(date time.Time, loc location.Location, calc prayer.Calculation, resp *api.Response) error {
	dateStr := date.Format("2006-01-02")

	entry := TimingsEntry{
		Date:    dateStr,
		City:    loc.City,
		Country: loc.CountryCode,
		Method:  calc.Method,
		School:  int(calc.School),
		Data:    resp.Data,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := writeFileAtomic(c.timingsPath(dateStr, loc, calc), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// LoadPosition attempts to read a cached geolocation result.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func (c *Cache) LoadPosition() *geo.Position {
	data, err := os.ReadFile(filepath.Join(c.dir, geoCacheFile))
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if c.now().Sub(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Position
}

// SavePosition writes a geolocation result to the cache.
func (c *Cache) SavePosition(pos *geo.Position) error {
	entry := GeoCacheEntry{
		Position: *pos,
		CachedAt: c.now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(c.dir, geoCacheFile), data); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}

	return nil
}

// writeFileAtomic writes through a temp file and rename so concurrent readers
// never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
