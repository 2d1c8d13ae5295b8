// Package cli implements the mlprov command line: a cobra root carrying
// the global flags, followed by a chain of stages that each consume the
// document stream of the stage before.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/mlprov/internal/config"
)

// RootOptions holds global flags for all stages.
type RootOptions struct {
	Verbose  bool
	Config   string
	Validate bool
}

// Streams are the standard streams a run reads from and writes to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// NewRootCommand creates the root command. Stage arguments are not
// parsed by cobra; they are passed to RunE untouched and split there.
func NewRootCommand(streams Streams) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "mlprov [flags] <stage> [stage flags] [<stage> [stage flags]...]",
		Short: "Extract W3C PROV graphs from git repositories and MLflow tracking servers",
		Long: `mlprov compiles git history and MLflow tracking data into a W3C PROV
provenance graph. Work is expressed as a chain of stages; every stage
receives the documents produced so far and passes on its own.

Stages:
  extract     fetch a repository and a tracking server and compile one document
  load        read documents from files or stdin
  save        write every document in one or more formats
  merge       merge all documents into one
  transform   pseudonymize agents, remove duplicates, merge aliased agents
  statistics  print record counts of every document

Example:
  mlprov extract --repository-path . --mlflow-url http://localhost:5000 \
    transform --use-pseudonyms save --format json --output graph
  mlprov --config pipeline.yaml`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, opts, args, streams)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitUsage, "invalid arguments", err)
	})
	cmd.SetIn(streams.In)
	cmd.SetOut(streams.Out)
	cmd.SetErr(streams.Err)

	// Stage flags follow the first stage name and must reach RunE intact.
	cmd.Flags().SetInterspersed(false)
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "read the stage chain from a YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.Validate, "validate", false, "validate the config file and exit")

	return cmd
}

// Execute runs the command line args and returns an error carrying the
// exit code.
func Execute(ctx context.Context, args []string, streams Streams) error {
	cmd := NewRootCommand(streams)
	if args == nil {
		// cobra falls back to os.Args for nil.
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func runPipeline(cmd *cobra.Command, opts *RootOptions, args []string, streams Streams) error {
	if opts.Validate && opts.Config == "" {
		return usageError("--validate requires --config")
	}

	if opts.Config != "" {
		if len(args) > 0 {
			return usageError("--config cannot be combined with stage arguments")
		}
		cfg, err := config.Read(opts.Config)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read config", err)
		}
		if err := cfg.Validate(); err != nil {
			return WrapExitError(ExitUsage, "config validation failed", err)
		}
		if opts.Validate {
			fmt.Fprintln(cmd.OutOrStdout(), "Validation successful, no errors")
			return nil
		}
		if args, err = cfg.Args(); err != nil {
			return WrapExitError(ExitUsage, "failed to parse config", err)
		}
	}

	if len(args) == 0 {
		return cmd.Help()
	}

	runID := newRunID()
	p := &pipeline{
		in:     streams.In,
		out:    streams.Out,
		logger: newLogger(streams.Err, opts.Verbose, runID),
	}

	stages, err := parseStages(p, args)
	if err != nil {
		return err
	}
	if stages == nil {
		// A stage asked for help.
		return nil
	}

	p.logger.Debug("running pipeline", "stages", len(stages))
	for _, stage := range stages {
		stage.SetContext(cmd.Context())
		if err := stage.RunE(stage, stage.Flags().Args()); err != nil {
			return WrapExitError(ExitFailure, stage.Name()+" failed", err)
		}
	}
	return nil
}
