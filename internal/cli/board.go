package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/passerby/internal/api"
	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/coordinator"
	"github.com/smokyabdulrahman/passerby/internal/display"
	"github.com/smokyabdulrahman/passerby/internal/location"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
)

func (a *app) runBoard(cmd *cobra.Command, args []string) error {
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

	view := s.coord.View()
	st, _ := s.coord.State()

	if a.flags.json {
		return printBoardJSON(cmd, view, st)
	}

	if fetchErr != nil {
		warn(cmd.ErrOrStderr(), apperr.Message(fetchErr))
	}
	board := display.Board{
		Location:   view.Location,
		Dates:      view.Dates,
		Prayers:    view.Prayers,
		State:      st,
		TwelveHour: s.cfg.TwelveHour(),
	}
	fmt.Fprint(cmd.OutOrStdout(), board.Render())
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

// boardJSON is the JSON output structure for the root command.
type boardJSON struct {
	Location    location.Location  `json:"location"`
	Calculation prayer.Calculation `json:"calculation"`
	Date        api.Dates          `json:"date"`
	Timezone    string             `json:"timezone,omitempty"`
	Timings     []boardJSONEntry   `json:"timings"`
	State       *boardJSONState    `json:"state"`
}

type boardJSONEntry struct {
	Prayer string `json:"prayer"`
	Time   string `json:"time"`
}

type boardJSONState struct {
	Kind      string `json:"kind"`
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Remaining int    `json:"seconds_until_next"`
	Countdown string `json:"countdown"`
}

func printBoardJSON(cmd *cobra.Command, view coordinator.View, st prayer.State) error {
	out := boardJSON{
		Location:    view.Location,
		Calculation: view.Calculation,
		Date:        view.Dates,
		Timezone:    view.Timezone,
		Timings:     make([]boardJSONEntry, 0, len(view.Prayers)),
	}
	for _, p := range view.Prayers {
		out.Timings = append(out.Timings, boardJSONEntry{Prayer: string(p.Name), Time: p.Clock})
	}
	if st != nil {
		out.State = newBoardJSONState(st)
	}
	return printJSON(cmd, out)
}

func newBoardJSONState(st prayer.State) *boardJSONState {
	p := st.Display()
	out := &boardJSONState{
		Kind:      st.Kind(),
		Prayer:    string(p.Name),
		Time:      p.Clock,
		Countdown: prayer.FormatCountdown(0),
	}
	if cd, ok := st.(prayer.Countdown); ok {
		out.Remaining = cd.SecondsUntilNext()
		out.Countdown = prayer.FormatCountdown(out.Remaining)
	}
	return out
}
