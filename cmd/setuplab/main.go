package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sawpanic/setuplab/internal/application"
)

const (
	appName = "setuplab"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// rootOptions are the flags shared by every command
type rootOptions struct {
	configPath string
	dataRoot   string
	logLevel   string
}

func (o *rootOptions) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("global", pflag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "Path to setuplab.yaml (defaults only when empty)")
	fs.StringVar(&o.dataRoot, "data-root", "", "Directory holding <scenario>/setups.csv and summary.csv")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	return fs
}

// loadConfig resolves the configuration file, then the flags on top
func (o *rootOptions) loadConfig() (*application.Config, error) {
	config, err := application.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dataRoot != "" {
		config.Storage.DataRoot = o.dataRoot
	}
	if o.logLevel != "" {
		config.Log.Level = o.logLevel
	}
	if err := applyLogLevel(config.Log.Level); err != nil {
		return nil, err
	}
	return config, nil
}

func applyLogLevel(level string) error {
	if level == "" {
		return nil
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(parsed)
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Classify backtest trade setups into labelled groups",
		Version: version,
		Long: `setuplab groups the setups of a backtest scenario by entry style, risk/reward,
stop distance, tick offset, profit target, trade duration and a few combined
criteria, then arranges the groups into a tree under Buy Stop and Buy Limit.

Scenarios are read from <data-root>/<scenario>/setups.csv joined with
<data-root>/<scenario>/summary.csv on rank.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().AddFlagSet(opts.flagSet())

	rootCmd.AddCommand(
		newLabelsCmd(opts),
		newScenariosCmd(opts),
		newClassifyCmd(opts),
		newTreeCmd(opts),
		newServeCmd(opts),
	)
	return rootCmd
}
