package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sawpanic/setuplab/internal/domain/grouping"
)

// classifyOptions are shared by classify and tree
type classifyOptions struct {
	scenario     string
	groupingPath string
	format       string
}

func (o *classifyOptions) flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("classify", pflag.ContinueOnError)
	fs.StringVar(&o.scenario, "scenario", "", "Scenario to classify (required)")
	fs.StringVar(&o.groupingPath, "grouping", "", "YAML file with grouping threshold overrides")
	fs.StringVar(&o.format, "format", formatAuto, "Output format (auto|table|json)")
	return fs
}

// groupingConfig layers the --grouping file over the configuration file
func (o *classifyOptions) groupingConfig(base grouping.Config) (grouping.Config, error) {
	if o.groupingPath == "" {
		return base, nil
	}
	overrides, err := grouping.LoadOverrides(o.groupingPath)
	if err != nil {
		return grouping.Config{}, err
	}
	cfg := base.Apply(overrides)
	if err := cfg.Validate(); err != nil {
		return grouping.Config{}, fmt.Errorf("grouping overrides %s: %w", o.groupingPath, err)
	}
	return cfg, nil
}

func newLabelsCmd(root *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "List every group label with its name and parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyLogLevel(root.logLevel); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			resolved, err := resolveFormat(format, out)
			if err != nil {
				return err
			}
			return renderLabels(out, resolved, grouping.Definitions())
		},
	}
	cmd.Flags().StringVar(&format, "format", formatAuto, "Output format (auto|table|json)")
	return cmd
}

func newScenariosCmd(root *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List scenarios found under the data root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := root.loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			resolved, err := resolveFormat(format, out)
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd.Context(), config, config.GroupingConfig(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			names, err := rt.service.Scenarios(cmd.Context())
			if err != nil {
				return err
			}
			return renderScenarios(out, resolved, names)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatAuto, "Output format (auto|table|json)")
	return cmd
}

func newClassifyCmd(root *rootOptions) *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify one scenario and print the non-empty groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, root, opts, renderGroups)
		},
	}
	cmd.Flags().AddFlagSet(opts.flagSet())
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func newTreeCmd(root *rootOptions) *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Classify one scenario and print the group hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, root, opts, renderTree)
		},
	}
	cmd.Flags().AddFlagSet(opts.flagSet())
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

type resultRenderer func(w io.Writer, format, scenario string, result grouping.Result) error

func runClassify(cmd *cobra.Command, root *rootOptions, opts *classifyOptions, render resultRenderer) error {
	config, err := root.loadConfig()
	if err != nil {
		return err
	}
	cfg, err := opts.groupingConfig(config.GroupingConfig())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	format, err := resolveFormat(opts.format, out)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cmd.Context(), config, cfg, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.service.Classify(cmd.Context(), opts.scenario)
	if err != nil {
		return err
	}
	return render(out, format, opts.scenario, result)
}
