package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/passerby/internal/config"
	"github.com/smokyabdulrahman/passerby/internal/prayer"
)

func (a *app) newConfigCmd() *cobra.Command {
	var effective bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long: "Display the saved configuration, or use subcommands to modify it.\n" +
			"With --effective, show the values after environment and flag overrides.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigShow(cmd, effective)
		},
	}
	cmd.Flags().BoolVar(&effective, "effective", false, "Show merged values instead of the saved file")

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: fmt.Sprintf("Set a configuration value. Valid keys: %s\n\nExamples:\n"+
			"  passerby config set method 4\n"+
			"  passerby config set school 1\n"+
			"  passerby config set time_format 24h\n"+
			"  passerby config set store redis\n"+
			"  passerby config set mqtt_broker tcp://localhost:1883",
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: a.runConfigSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset config to defaults",
		Long:  "Delete the config file and restore all settings to defaults. The saved location is kept.",
		RunE:  a.runConfigReset,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		RunE:  a.runConfigPath,
	})

	return cmd
}

func (a *app) runConfigShow(cmd *cobra.Command, effective bool) error {
	path, err := a.deps.configPath()
	if err != nil {
		return err
	}

	cfg := a.fileConfig
	if effective {
		if cfg, err = a.effectiveConfig(cmd); err != nil {
			return err
		}
	}

	if a.flags.json {
		return printJSON(cmd, cfg)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  Configuration (%s)\n\n", path)
	for _, key := range config.ValidKeys {
		val, _ := cfg.Get(key)
		shown := val
		switch {
		case val == "":
			shown = "(not set)"
		case key == "method":
			shown = formatMethodValue(val)
		case key == "school":
			shown = formatSchoolValue(val)
		case key == "redis_password":
			shown = "********"
		}
		fmt.Fprintf(w, "  %-15s %s\n", key, shown)
	}
	return nil
}

func (a *app) runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	path, err := a.deps.configPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func (a *app) runConfigReset(cmd *cobra.Command, args []string) error {
	path, err := a.deps.configPath()
	if err != nil {
		return err
	}
	if err := config.ResetAt(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults.")
	return nil
}

func (a *app) runConfigPath(cmd *cobra.Command, args []string) error {
	path, err := a.deps.configPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// formatMethodValue adds the method name to the numeric value.
func formatMethodValue(val string) string {
	id, err := strconv.Atoi(val)
	if err != nil {
		return val
	}
	m, err := prayer.LookupMethod(id)
	if err != nil {
		return val
	}
	return fmt.Sprintf("%s (%s)", val, m.Name)
}

// formatSchoolValue adds the school name to the numeric value.
func formatSchoolValue(val string) string {
	id, err := strconv.Atoi(val)
	if err != nil {
		return val
	}
	s, err := prayer.ParseSchool(id)
	if err != nil {
		return val
	}
	return fmt.Sprintf("%s (%s)", val, s)
}
