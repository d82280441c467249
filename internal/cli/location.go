package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/passerby/internal/apperr"
	"github.com/smokyabdulrahman/passerby/internal/display"
	"github.com/smokyabdulrahman/passerby/internal/location"
)

func (a *app) newLocationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "location",
		Short: "Show or change the saved location",
		Long:  "Show the saved location, or use subcommands to pick a new one.",
		RunE:  a.runLocationShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the saved location",
		Args:  cobra.NoArgs,
		RunE:  a.runLocationShow,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <city> <country-code>",
		Short: "Select and save a city",
		Long: "Select a city and save it. The city is checked against the timings API\n" +
			"first; if it cannot be found the saved location is left unchanged.\n\n" +
			"Examples:\n  passerby location set London GB\n  passerby location set \"New York\" US",
		Args: cobra.ExactArgs(2),
		RunE: a.runLocationSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "detect",
		Short: "Detect and save the current location",
		Long:  "Find the current location from this machine's IP address and save it.",
		Args:  cobra.NoArgs,
		RunE:  a.runLocationDetect,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "browse [query]",
		Short: "Browse countries by region",
		Long:  "List catalog countries grouped by region, optionally filtered by name or code.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runLocationBrowse,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cities <country-code> [query]",
		Short: "List catalog cities of a country",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  a.runLocationCities,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the saved location",
		Args:  cobra.NoArgs,
		RunE:  a.runLocationReset,
	})

	return cmd
}

type locationJSON struct {
	location.Location
	Saved bool `json:"saved"`
}

func (a *app) runLocationShow(cmd *cobra.Command, args []string) error {
	s, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	loc, saved, err := s.store.Load(cmd.Context())
	if err != nil {
		return err
	}
	if !saved {
		loc = location.Default()
	}

	if a.flags.json {
		return printJSON(cmd, locationJSON{Location: loc, Saved: saved})
	}

	line := strings.TrimSpace(loc.Marker + " " + loc.String())
	if !saved {
		line += display.Dim(" (default)")
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
	return nil
}

func (a *app) runLocationSet(cmd *cobra.Command, args []string) error {
	loc, err := location.Resolve(args[0], args[1])
	if err != nil {
		return err
	}

	s, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.coord.SelectLocation(cmd.Context(), loc); err != nil {
		return err
	}
	return a.printSelected(cmd, s.coord.Location())
}

func (a *app) runLocationDetect(cmd *cobra.Command, args []string) error {
	s, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	loc, err := s.coord.UseMyLocation(cmd.Context())
	if loc.City == "" {
		return err
	}
	if err != nil {
		// Saved, but today's prayers could not be loaded.
		warn(cmd.ErrOrStderr(), apperr.Message(err))
	}
	return a.printSelected(cmd, loc)
}

func (a *app) printSelected(cmd *cobra.Command, loc location.Location) error {
	if a.flags.json {
		return printJSON(cmd, locationJSON{Location: loc, Saved: true})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Location set to %s\n", strings.TrimSpace(loc.Marker+" "+loc.String()))
	return nil
}

func (a *app) runLocationBrowse(cmd *cobra.Command, args []string) error {
	var query string
	if len(args) == 1 {
		query = args[0]
	}
	regions := location.Search(query)

	if a.flags.json {
		return printJSON(cmd, regions)
	}
	if len(regions) == 0 {
		return fmt.Errorf("no countries match %q: %w", query, apperr.ErrNotFound)
	}

	w := cmd.OutOrStdout()
	for i, r := range regions {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, display.Bold(r.Name))
		t := display.NewTable([]string{"Code", "Country", "Cities"})
		for _, c := range r.Countries {
			t.AddRow([]string{c.Code, location.Flag(c.Code) + " " + c.Name, fmt.Sprintf("%d", len(c.Cities))})
		}
		fmt.Fprint(w, t.Render())
	}
	return nil
}

func (a *app) runLocationCities(cmd *cobra.Command, args []string) error {
	var query string
	if len(args) == 2 {
		query = args[1]
	}
	cities, err := location.Cities(args[0], query)
	if err != nil {
		return err
	}

	if a.flags.json {
		if cities == nil {
			cities = []string{}
		}
		return printJSON(cmd, cities)
	}
	if len(cities) == 0 {
		return fmt.Errorf("no cities match %q: %w", query, apperr.ErrNotFound)
	}
	for _, c := range cities {
		fmt.Fprintln(cmd.OutOrStdout(), c)
	}
	return nil
}

func (a *app) runLocationReset(cmd *cobra.Command, args []string) error {
	s, err := a.openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.Delete(cmd.Context()); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved location removed.")
	return nil
}
