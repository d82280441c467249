package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/coordinator"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
	"github.com/smokyabdulrahman/passerby/internal/publish"
	"github.com/smokyabdulrahman/passerby/internal/ticker"
	"github.com/smokyabdulrahman/passerby/internal/tui"
)

func (a *app) newWatchCmd() *cobra.Command {
	var plain, useMQTT bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live board with a ticking countdown",
		Long: "Open the live board. The countdown updates every second and prayer times\n" +
			"are refreshed every minute. Location changes made by other passerby\n" +
			"processes sharing the same store are picked up automatically.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, plain, useMQTT)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Print one line per second instead of the full-screen board")
	cmd.Flags().BoolVar(&useMQTT, "mqtt", false, "Also publish snapshots to the configured MQTT broker")

	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, plain, useMQTT bool) error {
	override, err := a.override()
	if err != nil {
		return err
	}

	s, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if useMQTT && s.cfg.MQTTBroker == "" {
		return errors.New("--mqtt requires mqtt_broker (passerby config set mqtt_broker tcp://host:1883)")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	fetchErr := s.resolve(ctx, override)
	if _, err := s.coord.State(); err != nil {
		// Nothing to count down to.
		if fetchErr != nil {
			return fetchErr
		}
		return err
	}
	if fetchErr != nil {
		warn(cmd.ErrOrStderr(), apperr.Message(fetchErr))
	}

	sched := ticker.New(s.coord, s.coord.Refresh, s.log)
	sched.Clock = a.deps.clock

	g, gctx := errgroup.WithContext(ctx)
	var emitters []ticker.Emitter

	if useMQTT {
		feed, closeFeed, err := s.startFeed(gctx, g)
		if err != nil {
			return err
		}
		defer closeFeed()
		emitters = append(emitters, feed.Emit)
	}

	g.Go(func() error { return s.coord.Watch(gctx) })

	if plain {
		emitters = append(emitters, plainEmitter(cmd.OutOrStdout(), s.cfg.TwelveHour()))
		g.Go(func() error { return sched.Run(gctx, ticker.Fanout(emitters...)) })
	} else {
		model := tui.New(s.coord.View(), s.cfg.TwelveHour(), s.coord.Refresh)
		p := tea.NewProgram(model,
			tea.WithContext(gctx),
			tea.WithAltScreen(),
			tea.WithInput(cmd.InOrStdin()),
			tea.WithOutput(cmd.OutOrStdout()),
		)
		emitters = append(emitters, func(snap ticker.Snapshot) {
			p.Send(tui.UpdateMsg{Snapshot: snap, View: s.coord.View()})
		})
		// Show refresh failures under the board; a later success clears them.
		sched.Refresh = func(ctx context.Context) error {
			err := s.coord.Refresh(ctx)
			if !errors.Is(err, coordinator.ErrSuperseded) && !errors.Is(err, context.Canceled) {
				p.Send(tui.ErrMsg{Err: err})
			}
			return err
		}

		g.Go(func() error { return sched.Run(gctx, ticker.Fanout(emitters...)) })
		g.Go(func() error {
			// Quitting the board ends the whole session.
			defer cancel()
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return err
			}
			return nil
		})
	}

	return ignoreCancel(g.Wait())
}

// startFeed connects to the broker and runs a publish feed in g.
func (s *session) startFeed(ctx context.Context, g *errgroup.Group) (*publish.Feed, func(), error) {
	client, err := publish.Dial(ctx, s.cfg.MQTTBroker, s.log)
	if err != nil {
		return nil, nil, err
	}
	feed := publish.NewFeed(client, s.cfg.MQTTTopic, s.coord.Location, s.log)
	g.Go(func() error { return feed.Run(ctx) })
	return feed, client.Close, nil
}

func plainEmitter(w io.Writer, twelveHour bool) ticker.Emitter {
	return func(snap ticker.Snapshot) {
		fmt.Fprintln(w, plainLine(snap, twelveHour))
	}
}

// plainLine renders "Asr in 03:05:00 (3:45 PM)" or "Dhuhr now (12:15 PM)".
func plainLine(snap ticker.Snapshot, twelveHour bool) string {
	clock := snap.PrayerTime
	if twelveHour {
		clock = prayer.FormatTwelveHour(clock)
	}
	if snap.IsGrace {
		return fmt.Sprintf("%s now (%s)", snap.PrayerName, clock)
	}
	return fmt.Sprintf("%s in %s (%s)", snap.PrayerName, snap.Countdown(), clock)
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
