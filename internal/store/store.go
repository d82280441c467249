// Package store persists the selected location under a single key and
// propagates changes made by other processes sharing the same backend.
//
// Three backends are available: a JSON file (the default), Redis (SET plus
// PUBLISH) and Postgres (an upserted row plus NOTIFY). Every store stamps the
// records it writes with its origin id so Watch only reports foreign writes.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/config"
	"github.com/smokyabdulrahman/passerby/internal/location"
)

// Key is the name the location record is stored under.
const Key = "prayerLocation"

// LocationStore persists the active location.
type LocationStore interface {
	// Load returns the persisted location. ok is false when nothing is stored.
	// A record that cannot be decoded yields an error wrapping
	// apperr.ErrCorruptRecord.
	Load(ctx context.Context) (loc location.Location, ok bool, err error)
	Save(ctx context.Context, loc location.Location) error
	Delete(ctx context.Context) error
	// Watch streams locations saved by other stores until ctx is done.
	Watch(ctx context.Context) (<-chan location.Location, error)
	Close() error
}

// Record is the persisted form of a location.
type Record struct {
	Location location.Location `json:"location"`
	Origin   string            `json:"origin"`
	SavedAt  time.Time         `json:"saved_at"`
}

// NewOrigin returns a fresh origin id.
func NewOrigin() string {
	return uuid.NewString()
}

// encodeRecord refuses locations that decodeRecord would reject as corrupt.
func encodeRecord(origin string, loc location.Location) ([]byte, error) {
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("encode location record: %w", err)
	}
	data, err := json.Marshal(Record{Location: loc, Origin: origin, SavedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("encode location record: %w", err)
	}
	return data, nil
}

// decodeRecord accepts the Record envelope or a bare location object, the
// shape older clients wrote under the same key.
func decodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %w", apperr.ErrCorruptRecord, err)
	}
	if rec.Location.City == "" {
		var bare location.Location
		if err := json.Unmarshal(data, &bare); err == nil && bare.City != "" {
			rec = Record{Location: bare}
		}
	}
	if err := rec.Location.Validate(); err != nil {
		return Record{}, fmt.Errorf("%w: %w", apperr.ErrCorruptRecord, err)
	}
	return rec, nil
}

// Open builds the store selected by cfg.Store.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (LocationStore, error) {
	origin := NewOrigin()
	log = log.With().Str("component", "store").Str("backend", cfg.Store).Logger()

	switch cfg.Store {
	case "", config.StoreFile:
		path := cfg.StorePath
		if path == "" {
			dir, err := config.Dir()
			if err != nil {
				return nil, err
			}
			path = DefaultFilePath(dir)
		}
		return NewFileStore(path, origin, log)

	case config.StoreRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("store %q requires redis_addr", cfg.Store)
		}
		return NewRedisStore(ctx, &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		}, origin, log)

	case config.StorePostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("store %q requires postgres_dsn", cfg.Store)
		}
		return NewPostgresStore(ctx, cfg.PostgresDSN, origin, log)

	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
