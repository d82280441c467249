package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/passerby/internal/config"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	city       string
	country    string
	method     int
	school     int
	json       bool
	cacheDir   string
	timeFormat string
	logLevel   string
}

// app carries the state of one command invocation.
type app struct {
	deps  deps
	flags globalFlags

	// fileConfig and envConfig are loaded in PersistentPreRunE.
	fileConfig *config.Config
	envConfig  *config.Config
}

// NewRootCmd creates the root command for the passerby CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(version, defaultDeps())
}

func newRootCmd(version string, d deps) *cobra.Command {
	a := &app{deps: d}

	rootCmd := &cobra.Command{
		Use:   "passerby",
		Short: "Islamic prayer times board",
		Long: "Show today's five prayers for your city with a live countdown to the next one.\n" +
			"Prayer times come from the Al Adhan API.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.deps.configPath()
			if err != nil {
				return err
			}
			cfg, err := config.LoadFrom(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			env, err := config.LoadEnv(a.deps.envFiles...)
			if err != nil {
				return fmt.Errorf("failed to load environment: %w", err)
			}
			a.fileConfig, a.envConfig = cfg, env
			return nil
		},
		// Default action: show today's board.
		RunE:          a.runBoard,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.city, "city", "", "Show this city instead of the saved location (not persisted)")
	pf.StringVar(&a.flags.country, "country", "", "Country code for --city, e.g. GB")
	pf.IntVar(&a.flags.method, "method", -1, "Calculation method id (see `passerby methods`)")
	pf.IntVar(&a.flags.school, "school", -1, "Asr school (0=Shafi, 1=Hanafi)")
	pf.BoolVar(&a.flags.json, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&a.flags.cacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/passerby/)")
	pf.StringVar(&a.flags.timeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error or disabled")

	rootCmd.SetVersionTemplate(PrintVersion(version))

	rootCmd.AddCommand(a.newNextCmd())
	rootCmd.AddCommand(a.newWatchCmd())
	rootCmd.AddCommand(a.newServeCmd())
	rootCmd.AddCommand(a.newLocationCmd())
	rootCmd.AddCommand(a.newMethodsCmd())
	rootCmd.AddCommand(a.newConfigCmd())

	return rootCmd
}

// PrintVersion renders the --version line.
func PrintVersion(version string) string {
	return fmt.Sprintf("passerby %s\n", version)
}

// effectiveConfig returns the merged configuration values, applying the
// priority: CLI flags > environment > config file > defaults. Flag values go
// through config.Set so they are validated like everything else.
func (a *app) effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Defaults()
	cfg.Merge(a.fileConfig)
	cfg.Merge(a.envConfig)

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	set := func(flag, key, value string) error {
		if !flagWasSet(flags, root, flag) {
			return nil
		}
		if err := cfg.Set(key, value); err != nil {
			return fmt.Errorf("--%s: %w", flag, err)
		}
		return nil
	}

	if err := set("method", "method", strconv.Itoa(a.flags.method)); err != nil {
		return nil, err
	}
	if err := set("school", "school", strconv.Itoa(a.flags.school)); err != nil {
		return nil, err
	}
	if err := set("time-format", "time_format", a.flags.timeFormat); err != nil {
		return nil, err
	}
	if err := set("log-level", "log_level", a.flags.logLevel); err != nil {
		return nil, err
	}
	if flagWasSet(flags, root, "cache-dir") {
		cfg.CacheDir = a.flags.cacheDir
	}

	return &cfg, nil
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}
