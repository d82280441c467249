package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/server"
	"github.com/smokyabdulrahman/passerby/internal/ticker"
)

func (a *app) newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board as a JSON API",
		Long: "Run an HTTP server exposing the board, the location catalog and the settings\n" +
			"as JSON. Prayer times are refetched when the day rolls over. When mqtt_broker\n" +
			"is configured, snapshots are also published to mqtt_topic.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server_addr)")

	return cmd
}

func (a *app) runServe(cmd *cobra.Command, addr string) error {
	override, err := a.override()
	if err != nil {
		return err
	}

	s, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if addr == "" {
		addr = s.cfg.ServerAddr
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// The server starts even without prayers; /api/state carries the error kind.
	if err := s.resolve(ctx, override); err != nil {
		s.log.Warn().Err(err).Msg(apperr.Message(err))
	}

	g, gctx := errgroup.WithContext(ctx)

	var emit ticker.Emitter
	if s.cfg.MQTTBroker != "" {
		feed, closeFeed, err := s.startFeed(gctx, g)
		if err != nil {
			return err
		}
		defer closeFeed()
		emit = feed.Emit
	}

	srv := server.New(s.coord, s.log)
	g.Go(func() error { return srv.Run(gctx, addr) })
	g.Go(func() error { return s.coord.Watch(gctx) })
	g.Go(func() error { return a.keepFresh(gctx, s, emit) })

	return ignoreCancel(g.Wait())
}

// keepFresh refetches on day rollover. With an emitter it also runs the
// countdown loop, restarting it whenever the prayer list is empty.
func (a *app) keepFresh(ctx context.Context, s *session, emit ticker.Emitter) error {
	sched := ticker.New(s.coord, s.coord.RefreshIfStale, s.log)
	sched.Clock = a.deps.clock

	if emit == nil {
		t := sched.Clock.NewTicker(sched.RefreshInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C():
				if err := s.coord.RefreshIfStale(ctx); err != nil {
					s.log.Warn().Err(err).Msg("refresh failed")
				}
			}
		}
	}

	for {
		err := sched.Run(ctx, emit)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Debug().Err(err).Msg("countdown stopped; retrying")

		t := sched.Clock.NewTicker(sched.RefreshInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C():
		}
		t.Stop()
		if err := s.coord.Refresh(ctx); err != nil {
			s.log.Warn().Err(err).Msg("refresh failed")
		}
	}
}
