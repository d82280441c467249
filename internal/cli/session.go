package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/passerby/internal/api"
	"github.com/smokyabdulrahman/passerby/internal/cache"
	"github.com/smokyabdulrahman/passerby/internal/config"
	"github.com/smokyabdulrahman/passerby/internal/coordinator"
	"github.com/smokyabdulrahman/passerby/internal/geo"
	"github.com/smokyabdulrahman/passerby/internal/location"
	"github.com/smokyabdulrahman/passerby/internal/logging"
	"github.com/smokyabdulrahman/passerby/internal/store"
	"github.com/smokyabdulrahman/passerby/internal/ticker"
)

// deps builds the collaborators that talk to the outside world. Tests swap
// them for httptest-backed ones.
type deps struct {
	configPath func() (string, error)
	envFiles   []string
	now        func() time.Time
	clock      ticker.Clock

	timings  func(log zerolog.Logger) coordinator.Timings
	locator  func(c geo.PositionCache, log zerolog.Logger) coordinator.Geolocator
	reverser func(log zerolog.Logger) coordinator.ReverseGeocoder
}

func defaultDeps() deps {
	return deps{
		configPath: config.Path,
		now:        time.Now,
		clock:      ticker.RealClock{},
		timings: func(log zerolog.Logger) coordinator.Timings {
			return api.NewClient(log)
		},
		locator: func(c geo.PositionCache, log zerolog.Logger) coordinator.Geolocator {
			return geo.NewLocator(c, log)
		},
		reverser: func(log zerolog.Logger) coordinator.ReverseGeocoder {
			return geo.NewReverser(log)
		},
	}
}

// session is everything a command needs to show prayer times.
type session struct {
	cfg   *config.Config
	log   zerolog.Logger
	store store.LocationStore
	coord *coordinator.Coordinator
}

// openSession merges the configuration, opens the cache and the location
// store, and wires a coordinator. The caller must Close it.
func (a *app) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := a.effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel, cmd.ErrOrStderr())

	var (
		timingsCache coordinator.TimingsCache
		posCache     geo.PositionCache
	)
	if c, err := cache.New(cfg.CacheDir); err != nil {
		// Cache init failure is non-fatal; we just skip caching.
		log.Warn().Err(err).Msg("cache disabled")
	} else {
		timingsCache, posCache = c, c
	}

	st, err := store.Open(cmd.Context(), cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open location store: %w", err)
	}

	coord := coordinator.New(coordinator.Options{
		Timings:     a.deps.timings(log),
		Store:       st,
		Geolocator:  a.deps.locator(posCache, log),
		Reverse:     a.deps.reverser(log),
		Cache:       timingsCache,
		Calculation: cfg.Calculation(),
		Now:         a.deps.now,
		Log:         log,
	})

	return &session{cfg: cfg, log: log, store: st, coord: coord}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close location store")
	}
}

// override returns the transient --city/--country location, if any.
func (a *app) override() (*location.Location, error) {
	if a.flags.city == "" && a.flags.country == "" {
		return nil, nil
	}
	if a.flags.city == "" || a.flags.country == "" {
		return nil, errors.New("--city and --country must be used together")
	}
	loc, err := location.Resolve(a.flags.city, a.flags.country)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// resolve picks the location and loads its prayers. A failed fetch is not
// fatal: the error is logged and returned so callers can decide.
func (s *session) resolve(ctx context.Context, override *location.Location) error {
	if err := s.coord.Resolve(ctx, override); err != nil {
		s.log.Debug().Err(err).Msg("initial fetch failed")
		return err
	}
	return nil
}

func warn(w io.Writer, msg string) {
	fmt.Fprintf(w, "warning: %s\n", msg)
}
