// Package ticker drives the live countdown: once a second it classifies the
// current instant against the loaded prayers and hands a Snapshot to the
// presentation layer, and once a minute it asks for fresh prayer data.
package ticker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
)

const (
	DefaultTickInterval    = time.Second
	DefaultRefreshInterval = time.Minute
)

// Source supplies the current prayers and the timezone they are expressed in.
type Source interface {
	Prayers() (prayer.List, *time.Location)
}

// Refresher is called on every refresh tick. Errors are logged and the loop
// keeps running.
type Refresher func(ctx context.Context) error

// Snapshot is what the presentation layer renders for one tick.
type Snapshot struct {
	At         time.Time   `json:"at"`
	IsGrace    bool        `json:"is_grace"`
	PrayerName prayer.Name `json:"prayer"`
	PrayerTime string      `json:"time"`
	Hours      int         `json:"hours"`
	Minutes    int         `json:"minutes"`
	Seconds    int         `json:"seconds"`
}

// Countdown renders the remaining time as "HH:MM:SS".
func (s Snapshot) Countdown() string {
	return prayer.FormatCountdown(s.SecondsUntilNext())
}

// SecondsUntilNext is zero during the grace window.
func (s Snapshot) SecondsUntilNext() int {
	return s.Hours*3600 + s.Minutes*60 + s.Seconds
}

// NewSnapshot converts a state computed at now into a Snapshot.
func NewSnapshot(st prayer.State, now time.Time) Snapshot {
	p := st.Display()
	snap := Snapshot{
		At:         now,
		PrayerName: p.Name,
		PrayerTime: p.Clock,
	}
	switch s := st.(type) {
	case prayer.Grace:
		snap.IsGrace = true
	case prayer.Countdown:
		snap.Hours, snap.Minutes, snap.Seconds = prayer.SplitSeconds(s.SecondsUntilNext())
	}
	return snap
}

// Emitter receives snapshots. It is called synchronously from the loop and
// must not block for long.
type Emitter func(Snapshot)

// Fanout returns an Emitter that calls each sink in order.
func Fanout(sinks ...Emitter) Emitter {
	return func(s Snapshot) {
		for _, sink := range sinks {
			if sink != nil {
				sink(s)
			}
		}
	}
}

// Scheduler owns the tick and refresh timers.
type Scheduler struct {
	Source          Source
	Refresh         Refresher
	Clock           Clock
	TickInterval    time.Duration
	RefreshInterval time.Duration
	Log             zerolog.Logger
}

// New returns a Scheduler with the default intervals on the real clock.
func New(src Source, refresh Refresher, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Source:          src,
		Refresh:         refresh,
		Clock:           RealClock{},
		TickInterval:    DefaultTickInterval,
		RefreshInterval: DefaultRefreshInterval,
		Log:             log,
	}
}

// Compute returns the snapshot for the clock's current instant.
func (s *Scheduler) Compute() (Snapshot, error) {
	list, loc := s.Source.Prayers()
	now := s.Clock.Now()
	if loc != nil {
		now = now.In(loc)
	}

	st, err := prayer.ComputeState(list, now)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(st, now), nil
}

// Run emits a snapshot immediately and then on every tick until ctx is done
// or the prayer list becomes empty, in which case it returns
// apperr.ErrNoPrayers. Refreshes run in their own goroutine so a slow fetch
// never holds up the countdown. Both timers are stopped before Run returns.
func (s *Scheduler) Run(ctx context.Context, emit Emitter) error {
	if emit == nil {
		emit = func(Snapshot) {}
	}

	snap, err := s.Compute()
	if err != nil {
		return err
	}
	emit(snap)

	g, ctx := errgroup.WithContext(ctx)
	if s.Refresh != nil {
		g.Go(func() error {
			s.refreshLoop(ctx)
			return nil
		})
	}
	g.Go(func() error { return s.tickLoop(ctx, emit) })
	return g.Wait()
}

// tickLoop always returns a non-nil error, which stops the refresh loop.
func (s *Scheduler) tickLoop(ctx context.Context, emit Emitter) error {
	tick := s.Clock.NewTicker(s.TickInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-tick.C():
			snap, err := s.Compute()
			if errors.Is(err, apperr.ErrNoPrayers) {
				s.Log.Debug().Msg("prayer list emptied; stopping countdown")
				return err
			}
			if err != nil {
				return err
			}
			emit(snap)
		}
	}
}

func (s *Scheduler) refreshLoop(ctx context.Context) {
	t := s.Clock.NewTicker(s.RefreshInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.Log.Warn().Err(err).Msg("refresh failed")
			}
		}
	}
}

// Handle controls a scheduler started with Start.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
	err    error
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start(ctx context.Context, emit Emitter) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		h.err = s.Run(ctx, emit)
	}()
	return h
}

// Stop cancels the loop and waits until it has exited. It is safe to call
// more than once.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the loop has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err reports why the loop stopped. It is nil while the loop runs.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}
