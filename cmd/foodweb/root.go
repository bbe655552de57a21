package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/foodweb-simulator/internal/config"
	"github.com/signalsfoundry/foodweb-simulator/internal/logging"
)

// cli holds state shared by every subcommand once the persistent pre-run
// has loaded the configuration.
type cli struct {
	configPath string
	logLevel   string
	logFormat  string
	logBackend string

	cfg *config.Config
	log logging.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "foodweb",
		Short: "Size-structured plankton food-web simulator",
		Long: `foodweb integrates a nitrogen-based plankton food web of paired
autotroph and heterotroph size classes with forward Euler, once per level of
a nitrate supply sweep, and exports the sampled biomass.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.log != nil {
				_ = logging.Sync(c.log)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "foodweb.yaml", "path to the YAML configuration (defaults apply if missing)")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&c.logFormat, "log-format", "", "log format: text or json")
	flags.StringVar(&c.logBackend, "log-backend", "", "log backend: slog or zap")

	root.AddCommand(
		newSweepCmd(c),
		newRunCmd(c),
		newTraitsCmd(c),
		newConfigCmd(c),
	)
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Logging.Format = c.logFormat
	}
	if c.logBackend != "" {
		cfg.Logging.Backend = c.logBackend
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", c.configPath, err)
	}

	logCfg := cfg.Logging
	logCfg.Output = cmd.ErrOrStderr()
	c.cfg = cfg
	c.log = logging.New(logCfg)
	return nil
}
