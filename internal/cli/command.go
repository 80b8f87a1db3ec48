package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/mordilloSan/go_logger/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idelchi/dutree/internal/config"
	"github.com/idelchi/dutree/internal/dutree"
	"github.com/idelchi/dutree/internal/integration"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// flagValues holds raw flag values before they are merged with the config file.
type flagValues struct {
	configPath  string
	depth       int
	top         int
	workers     int
	strategy    string
	output      string
	minSize     string
	debug       bool
	integration bool
}

// bindFlags registers all flags, with defaults taken from the built-in configuration.
func bindFlags(flags *pflag.FlagSet, values *flagValues) {
	def := config.Default()

	flags.IntVarP(&values.depth, "depth", "d", def.Depth, "Maximum tree depth below the root")
	flags.IntVarP(&values.top, "top", "t", def.Top, "Number of largest subdirectories shown per directory")
	flags.IntVarP(&values.workers, "workers", "w", def.Workers, "Concurrent directory listings (1 = sequential)")
	flags.StringVarP(&values.strategy, "strategy", "s", def.Strategy, "Size computation: recursive or walk")
	flags.StringVarP(&values.output, "output", "o", def.Output, "Output format: tree, json or list")
	flags.StringVar(&values.minSize, "min-size", def.MinSize, "Hide directories smaller than this (e.g., 100MB)")
	flags.StringVarP(&values.configPath, "config", "c", config.DefaultPath(), "Config file path")
	flags.BoolVar(&values.debug, "debug", false, "Enable debug output")
	flags.BoolVarP(&values.integration, "init", "i", false, "Output init script for shell usage")

	flags.SortFlags = false
}

// settings is the fully resolved configuration of one invocation.
type settings struct {
	scan    dutree.Options
	output  string
	minSize int64
	debug   bool
}

// resolve loads the config file and lets explicitly set flags override it.
func resolve(flags *pflag.FlagSet, values flagValues, args []string) (settings, error) {
	cfg, err := config.Load(values.configPath)
	if err != nil {
		return settings{}, fmt.Errorf("loading config: %w", err)
	}

	if flags.Changed("depth") {
		cfg.Depth = values.depth
	}

	if flags.Changed("top") {
		cfg.Top = values.top
	}

	if flags.Changed("workers") {
		cfg.Workers = values.workers
	}

	if flags.Changed("strategy") {
		cfg.Strategy = values.strategy
	}

	if flags.Changed("output") {
		cfg.Output = values.output
	}

	if flags.Changed("min-size") {
		cfg.MinSize = values.minSize
	}

	if err := cfg.Validate(); err != nil {
		return settings{}, err
	}

	minSize, err := cfg.MinSizeBytes()
	if err != nil {
		return settings{}, err
	}

	interval, err := cfg.Interval()
	if err != nil {
		return settings{}, err
	}

	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	return settings{
		scan: dutree.Options{
			Path:             path,
			Depth:            cfg.Depth,
			TopN:             cfg.Top,
			Workers:          cfg.Workers,
			Strategy:         dutree.Strategy(cfg.Strategy),
			ProgressInterval: interval,
		},
		output:  cfg.Output,
		minSize: minSize,
		debug:   values.debug,
	}, nil
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var values flagValues

	cmd := &cobra.Command{
		Use:   "dutree [flags] [path]",
		Short: "Show the largest directories of a tree, ranked by size",
		Long: heredoc.Doc(`
			dutree measures the apparent size of every directory below a path and shows
			the largest ones as a tree.

			At each level only the --top largest subdirectories are expanded, down to
			--depth levels below the root. Sizes always include everything beneath a
			directory, whether or not it is expanded. Symbolic links are never followed.

			Directories that cannot be read are reported as warnings and count as empty.

			Defaults are read from the config file (YAML), and flags override them.

			The '-i' flag prints a zsh function that pipes the list output to 'fzf'
			and changes into the selected directory.
		`),
		Example: heredoc.Doc(`
			dutree ~/src
			dutree -d 2 -t 5 /var
			dutree -o json --strategy walk . > usage.json
		`),
		Version:       c.version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if values.integration {
				rendered, err := integration.Render()
				if err != nil {
					return fmt.Errorf("rendering integration script: %w", err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), rendered)

				return nil
			}

			opts, err := resolve(cmd.Flags(), values, args)
			if err != nil {
				return err
			}

			logger.Init("production", opts.debug)

			return run(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.SetVersionTemplate("{{ .Version }}\n")
	bindFlags(cmd.Flags(), &values)

	return cmd
}

// Execute runs the CLI with the process arguments until done or interrupted.
func (c CLI) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.Command().ExecuteContext(ctx)
}
