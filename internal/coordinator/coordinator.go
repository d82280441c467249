// Package coordinator owns the active location, the day's prayer list and the
// calculation settings, and is the only place they change.
//
// Every fetch gets its own cancellable context and a sequence number; starting
// a new fetch cancels the previous one and a result is committed only if it
// still belongs to the latest request. A failed fetch never touches the list
// that is already loaded.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/passerby/internal/api"
	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/cache"
	"github.com/smokyabdulrahman/passerby/internal/geo"
	"github.com/smokyabdulrahman/passerby/internal/location"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
	"github.com/smokyabdulrahman/passerby/internal/store"
)

const dayLayout = "2006-01-02"

// ErrSuperseded is returned when a newer request replaced this one before its
// result could be applied.
var ErrSuperseded = errors.New("superseded by a newer request")

// Timings fetches one day of prayer times. *api.Client implements it.
type Timings interface {
	FetchByCity(ctx context.Context, date time.Time, city, country string, method, school int) (*api.Response, error)
}

// Geolocator reports the device position. *geo.Locator implements it.
type Geolocator interface {
	Locate(ctx context.Context) (*geo.Position, error)
}

// ReverseGeocoder names the place at a position. *geo.Reverser implements it.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (location.Location, error)
}

// TimingsCache short-circuits repeated fetches for the same day. *cache.Cache
// implements it.
type TimingsCache interface {
	LoadTimings(date time.Time, loc location.Location, calc prayer.Calculation) *cache.TimingsEntry
	SaveTimings(date time.Time, loc location.Location, calc prayer.Calculation, resp *api.Response) error
}

// Options wires a Coordinator. Timings is required; the rest are optional.
type Options struct {
	Timings     Timings
	Store       store.LocationStore
	Geolocator  Geolocator
	Reverse     ReverseGeocoder
	Cache       TimingsCache
	Calculation prayer.Calculation
	Now         func() time.Time
	Log         zerolog.Logger
}

// View is a consistent copy of the coordinator's state.
type View struct {
	Location    location.Location  `json:"location"`
	Calculation prayer.Calculation `json:"calculation"`
	Prayers     prayer.List        `json:"prayers"`
	Dates       api.Dates          `json:"date"`
	Timezone    string             `json:"timezone"`
	Day         string             `json:"day,omitempty"`
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	timings Timings
	store   store.LocationStore
	geo     Geolocator
	reverse ReverseGeocoder
	cache   TimingsCache
	now     func() time.Time
	log     zerolog.Logger

	mu          sync.Mutex
	loc         location.Location
	calc        prayer.Calculation
	prayers     prayer.List
	dates       api.Dates
	tz          *time.Location
	tzName      string
	tzLoc       location.Location // location tz belongs to
	day         string
	lastErr     error
	seq         uint64
	cancelFetch context.CancelFunc
}

// New returns a Coordinator showing the default location with nothing loaded.
func New(opts Options) *Coordinator {
	calc := opts.Calculation
	if calc == (prayer.Calculation{}) {
		calc = prayer.DefaultCalculation()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		timings: opts.Timings,
		store:   opts.Store,
		geo:     opts.Geolocator,
		reverse: opts.Reverse,
		cache:   opts.Cache,
		now:     now,
		log:     opts.Log.With().Str("component", "coordinator").Logger(),
		loc:     location.Default(),
		calc:    calc,
	}
}

// View returns a copy of the current state.
func (c *Coordinator) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Location:    c.loc,
		Calculation: c.calc,
		Prayers:     c.prayers.Clone(),
		Dates:       c.dates,
		Timezone:    c.tzName,
		Day:         c.day,
	}
}

// Location returns the active location.
func (c *Coordinator) Location() location.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loc
}

// Prayers returns a copy of the loaded list and the timezone its clocks are
// in. It satisfies ticker.Source.
func (c *Coordinator) Prayers() (prayer.List, *time.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prayers.Clone(), c.tz
}

// Now returns the current instant in the location's timezone when known.
func (c *Coordinator) Now() time.Time {
	c.mu.Lock()
	tz := c.tz
	c.mu.Unlock()

	now := c.now()
	if tz != nil {
		now = now.In(tz)
	}
	return now
}

// LastErr is the error of the latest fetch, nil once a fetch succeeds.
func (c *Coordinator) LastErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// State computes the display state for the current instant.
func (c *Coordinator) State() (prayer.State, error) {
	list, _ := c.Prayers()
	return prayer.ComputeState(list, c.Now())
}

// ---------------------------------------------------------------------------
// location resolution
// ---------------------------------------------------------------------------

// Resolve picks the location to show and loads its prayers. The first source
// that yields a location wins: override, the persisted record, geolocation,
// then the default. Only a geolocated location is persisted; an override is
// transient. A corrupt persisted record is deleted.
func (c *Coordinator) Resolve(ctx context.Context, override *location.Location) error {
	loc := c.resolveLocation(ctx, override)

	c.mu.Lock()
	c.loc = loc
	c.mu.Unlock()

	return c.Refresh(ctx)
}

func (c *Coordinator) resolveLocation(ctx context.Context, override *location.Location) location.Location {
	if override != nil {
		c.log.Debug().Str("city", override.City).Msg("using location override")
		return *override
	}

	if c.store != nil {
		loc, ok, err := c.store.Load(ctx)
		switch {
		case errors.Is(err, apperr.ErrCorruptRecord):
			c.log.Warn().Err(err).Msg("discarding corrupt location record")
			if err := c.store.Delete(ctx); err != nil {
				c.log.Warn().Err(err).Msg("could not delete corrupt location record")
			}
		case err != nil:
			c.log.Warn().Err(err).Msg("could not read saved location")
		case ok:
			c.log.Debug().Str("city", loc.City).Msg("using saved location")
			return loc
		}
	}

	loc, err := c.detect(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("geolocation unavailable; using default location")
		return location.Default()
	}
	c.persist(ctx, loc)
	return loc
}

func (c *Coordinator) detect(ctx context.Context) (location.Location, error) {
	if c.geo == nil || c.reverse == nil {
		return location.Location{}, fmt.Errorf("%w: no geolocation configured", apperr.ErrGeolocationDenied)
	}

	pos, err := c.geo.Locate(ctx)
	if err != nil {
		return location.Location{}, err
	}
	loc, err := c.reverse.Reverse(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		return location.Location{}, err
	}
	return checkDetected(loc)
}

// checkDetected rejects reverse geocoding results the timings API cannot use,
// such as a position with no country code.
func checkDetected(loc location.Location) (location.Location, error) {
	if err := loc.Validate(); err != nil {
		return location.Location{}, fmt.Errorf("%w: %w", apperr.ErrLocationUndetected, err)
	}
	return loc, nil
}

func (c *Coordinator) persist(ctx context.Context, loc location.Location) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, loc); err != nil {
		c.log.Warn().Err(err).Msg("could not save location")
	}
}

// SelectLocation switches to loc only if its prayers load. On success the
// location is persisted; on failure the previous state is kept and the error
// is an *apperr.CityError.
func (c *Coordinator) SelectLocation(ctx context.Context, loc location.Location) error {
	if err := loc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrUnknownCity, err)
	}

	c.mu.Lock()
	calc := c.calc
	c.mu.Unlock()

	err := c.fetch(ctx, loc, calc, true)
	if err != nil {
		if errors.Is(err, ErrSuperseded) {
			return err
		}
		return &apperr.CityError{City: loc.City, Err: err}
	}

	c.persist(ctx, loc)
	c.log.Info().Str("city", loc.City).Str("country", loc.CountryCode).Msg("location selected")
	return nil
}

// UseMyLocation geolocates the device and switches to the result. Denied
// geolocation returns apperr.ErrGeolocationDenied and a failed reverse lookup
// apperr.ErrLocationUndetected; in both cases nothing changes. Once detected,
// the location is applied and persisted before its prayers are fetched.
func (c *Coordinator) UseMyLocation(ctx context.Context) (location.Location, error) {
	if c.geo == nil {
		return location.Location{}, fmt.Errorf("%w: no geolocation configured", apperr.ErrGeolocationDenied)
	}
	pos, err := c.geo.Locate(ctx)
	if err != nil {
		return location.Location{}, err
	}

	if c.reverse == nil {
		return location.Location{}, apperr.ErrLocationUndetected
	}
	loc, err := c.reverse.Reverse(ctx, pos.Latitude, pos.Longitude)
	if err != nil {
		return location.Location{}, err
	}
	if loc, err = checkDetected(loc); err != nil {
		return location.Location{}, err
	}

	c.mu.Lock()
	c.loc = loc
	c.mu.Unlock()
	c.persist(ctx, loc)

	return loc, c.Refresh(ctx)
}

// ---------------------------------------------------------------------------
// calculation settings
// ---------------------------------------------------------------------------

// SetMethod changes the calculation method and refetches.
func (c *Coordinator) SetMethod(ctx context.Context, id int) error {
	if _, err := prayer.LookupMethod(id); err != nil {
		return err
	}
	c.mu.Lock()
	c.calc.Method = id
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// SetSchool changes the Asr convention and refetches.
func (c *Coordinator) SetSchool(ctx context.Context, s prayer.School) error {
	if _, err := prayer.ParseSchool(int(s)); err != nil {
		return err
	}
	c.mu.Lock()
	c.calc.School = s
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// SetCalculation validates and applies both settings with a single refetch.
func (c *Coordinator) SetCalculation(ctx context.Context, calc prayer.Calculation) error {
	if err := calc.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.calc = calc
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// ---------------------------------------------------------------------------
// fetching
// ---------------------------------------------------------------------------

// Refresh refetches prayers for the current location and settings.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	loc, calc := c.loc, c.calc
	c.mu.Unlock()

	return c.fetch(ctx, loc, calc, false)
}

// RefreshIfStale refetches only when nothing is loaded or the location's
// calendar day has rolled over since the last fetch.
func (c *Coordinator) RefreshIfStale(ctx context.Context) error {
	today := c.Now().Format(dayLayout)

	c.mu.Lock()
	fresh := len(c.prayers) > 0 && c.day == today
	c.mu.Unlock()

	if fresh {
		return nil
	}
	return c.Refresh(ctx)
}

type loaded struct {
	prayers prayer.List
	dates   api.Dates
	tz      *time.Location
	tzName  string
	day     string
}

// fetch loads prayers for loc and commits them together with loc when the
// request is still the latest one.
func (c *Coordinator) fetch(ctx context.Context, loc location.Location, calc prayer.Calculation, switchLocation bool) error {
	c.mu.Lock()
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	c.seq++
	seq := c.seq
	fctx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	// Another location's zone would pick the wrong day near midnight.
	var tz *time.Location
	if c.tzLoc == loc {
		tz = c.tz
	}
	c.mu.Unlock()
	defer cancel()

	res, err := c.load(fctx, loc, calc, tz)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.log.Debug().Str("city", loc.City).Msg("dropping superseded fetch")
		return ErrSuperseded
	}
	c.cancelFetch = nil

	if err != nil {
		c.lastErr = err
		c.log.Warn().Err(err).Str("city", loc.City).Msg("fetch failed; keeping previous prayer times")
		return err
	}
	if !switchLocation && c.loc != loc {
		// The location changed underneath a plain refresh.
		return ErrSuperseded
	}

	c.loc = loc
	c.prayers = res.prayers
	c.dates = res.dates
	c.day = res.day
	c.lastErr = nil
	if res.tz != nil {
		c.tz = res.tz
		c.tzName = res.tzName
		c.tzLoc = loc
	}
	c.log.Debug().Str("city", loc.City).Str("day", res.day).Msg("prayer times loaded")
	return nil
}

// load performs the fetch without touching coordinator state. The day asked
// for is today in tz; when the response names a zone whose today differs,
// that day is fetched instead.
func (c *Coordinator) load(ctx context.Context, loc location.Location, calc prayer.Calculation, tz *time.Location) (loaded, error) {
	date := c.now()
	if tz != nil {
		date = date.In(tz)
	}

	data, err := c.timingsFor(ctx, date, loc, calc)
	if err != nil {
		return loaded{}, err
	}

	var zone *time.Location
	if name := data.Meta.Timezone; name != "" {
		if zone, err = time.LoadLocation(name); err != nil {
			c.log.Debug().Err(err).Str("timezone", name).Msg("unknown timezone")
			zone = nil
		}
	}
	if zone != nil {
		if local := c.now().In(zone); local.Format(dayLayout) != date.Format(dayLayout) {
			c.log.Debug().Str("city", loc.City).Str("day", local.Format(dayLayout)).Msg("refetching for the location's day")
			date = local
			if data, err = c.timingsFor(ctx, date, loc, calc); err != nil {
				return loaded{}, err
			}
		}
	}

	list, err := prayer.ParseTimings(data.Timings)
	if err != nil {
		return loaded{}, fmt.Errorf("%w: %w", apperr.ErrFetchFailed, err)
	}

	res := loaded{
		prayers: list,
		dates:   data.Date.Dates(),
		day:     date.Format(dayLayout),
	}
	if zone != nil {
		res.tz, res.tzName = zone, data.Meta.Timezone
	}
	return res, nil
}

// timingsFor returns one day of timings, from the cache when present.
func (c *Coordinator) timingsFor(ctx context.Context, date time.Time, loc location.Location, calc prayer.Calculation) (api.Data, error) {
	if c.cache != nil {
		if entry := c.cache.LoadTimings(date, loc, calc); entry != nil {
			return entry.Data, nil
		}
	}

	resp, err := c.timings.FetchByCity(ctx, date, loc.City, loc.CountryCode, calc.Method, int(calc.School))
	if err != nil {
		return api.Data{}, err
	}
	if c.cache != nil {
		if err := c.cache.SaveTimings(date, loc, calc, resp); err != nil {
			c.log.Warn().Err(err).Msg("could not cache prayer times")
		}
	}
	return resp.Data, nil
}

// ---------------------------------------------------------------------------
// cross-process changes
// ---------------------------------------------------------------------------

// Watch applies locations saved by other processes until ctx is done. External
// changes are not written back to the store.
func (c *Coordinator) Watch(ctx context.Context) error {
	if c.store == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	changes, err := c.store.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch location store: %w", err)
	}

	for loc := range changes {
		c.log.Info().Str("city", loc.City).Msg("location changed elsewhere")
		c.mu.Lock()
		c.loc = loc
		c.mu.Unlock()

		if err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
			c.log.Warn().Err(err).Msg("could not load prayer times for external change")
		}
	}
	return ctx.Err()
}
