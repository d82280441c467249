package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/passerby/internal/prayer"
)

func (a *app) newNextCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the highlighted prayer on one line",
		Long: "Print the prayer the board highlights: the current one during its first\n" +
			"20 minutes, otherwise the next one with a countdown. Suited to status bars.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNext(cmd, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", prayer.FormatFull,
		"Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, "+
			"short-name-and-time, short-name-and-remaining, countdown, full, or a custom Go template")

	return cmd
}

func (a *app) runNext(cmd *cobra.Command, format string) error {
	override, err := a.override()
	if err != nil {
		return err
	}

	s, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	fetchErr := s.resolve(cmd.Context(), override)

	st, err := s.coord.State()
	if err != nil {
		if fetchErr != nil {
			return fetchErr
		}
		return err
	}

	if a.flags.json {
		return printJSON(cmd, newBoardJSONState(st))
	}
	fmt.Fprint(cmd.OutOrStdout(), prayer.FormatOutput(st, format, s.cfg.TwelveHour()))
	return nil
}
