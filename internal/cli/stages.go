package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/roach88/mlprov/internal/factcache"
	"github.com/roach88/mlprov/internal/fetch/mlflow"
	"github.com/roach88/mlprov/internal/ops"
	"github.com/roach88/mlprov/internal/prov"
	"github.com/roach88/mlprov/internal/provfmt"
	"github.com/roach88/mlprov/internal/service"
)

// ExtractOptions holds flags for the extract stage.
type ExtractOptions struct {
	RepositoryPath string
	MLflowURL      string
	Cache          string
	Refresh        bool
}

func newExtractCommand(p *pipeline) *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Compile a repository and a tracking server into one document",
		Long: `Fetch the history of a git repository and the experiments, runs and
registered models of an MLflow tracking server, and compile them into one
provenance document.

Credentials are read from MLFLOW_TRACKING_TOKEN or MLFLOW_TRACKING_USERNAME
and MLFLOW_TRACKING_PASSWORD. Without --mlflow-url, MLFLOW_TRACKING_URI is
used, then http://localhost:5000.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), p, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.RepositoryPath, "repository-path", "r", "", "path to the git repository (required)")
	cmd.Flags().StringVarP(&opts.MLflowURL, "mlflow-url", "u", "", "tracking server URL")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "snapshot fetched facts in this SQLite file and reuse them")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached facts and fetch again")
	_ = cmd.MarkFlagRequired("repository-path")

	return cmd
}

func runExtract(ctx context.Context, p *pipeline, opts *ExtractOptions) error {
	svcOpts := []service.Option{
		service.WithNamespace(prov.DefaultNamespace()),
		service.WithLogger(p.logger),
	}
	if opts.Cache != "" {
		cache, err := factcache.Open(opts.Cache)
		if err != nil {
			return err
		}
		defer cache.Close()
		svcOpts = append(svcOpts, service.WithCache(cache, opts.Refresh))
	}
	svc := service.New(svcOpts...)

	gitLocation, err := svc.FetchGit(ctx, opts.RepositoryPath)
	if err != nil {
		return err
	}
	trackingLocation, err := svc.FetchMLflow(ctx, mlflow.ConfigFromEnv(opts.MLflowURL))
	if err != nil {
		return err
	}
	doc, err := svc.CompileGraph(gitLocation, trackingLocation)
	if err != nil {
		return err
	}
	p.docs = append(p.docs, doc)
	return nil
}

func newLoadCommand(p *pipeline) *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Read documents from files",
		Long: `Read provenance documents and append them to the stream. The format
(PROV-JSON, PROV-XML or PROV-N) is detected. "-" reads stdin; patterns may
use ** to match across directories.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(p, inputs)
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "file, glob pattern or - for stdin (repeatable)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runLoad(p *pipeline, inputs []string) error {
	for _, input := range inputs {
		paths, err := expandInput(input)
		if err != nil {
			return err
		}
		for _, path := range paths {
			doc, err := service.Read(path, p.in)
			if err != nil {
				return err
			}
			p.logger.Debug("loaded document", "path", path)
			p.docs = append(p.docs, doc)
		}
	}
	return nil
}

// expandInput resolves a glob pattern to its sorted matches. Plain paths
// and "-" are returned unchanged.
func expandInput(input string) ([]string, error) {
	if input == "-" || !containsGlob(input) {
		return []string{input}, nil
	}
	matches, err := doublestar.FilepathGlob(input, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", input)
	}
	slices.Sort(matches)
	return matches, nil
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// SaveOptions holds flags for the save stage.
type SaveOptions struct {
	Formats   []string
	Output    string
	Overwrite bool

	formats []provfmt.Format
}

func newSaveCommand(p *pipeline) *cobra.Command {
	opts := &SaveOptions{}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write every document in one or more formats",
		Long: `Write every document of the stream to DEST.FORMAT, or DEST-N.FORMAT
when the stream holds several documents. "-" writes to stdout. The stream
is passed on unchanged.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range opts.Formats {
				f, err := provfmt.ParseFormat(name)
				if err != nil {
					return err
				}
				opts.formats = append(opts.formats, f)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(p, opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Formats, "format", "f", []string{string(provfmt.FormatJSON)},
		fmt.Sprintf("serialization format %v (repeatable)", provfmt.Formats()))
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "destination file name without extension, or - for stdout (required)")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "replace existing files")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runSave(p *pipeline, opts *SaveOptions) error {
	for i, doc := range p.docs {
		for _, f := range opts.formats {
			path := outputPath(opts.Output, f, i, len(p.docs))
			if err := service.Write(doc, path, f, opts.Overwrite, p.out); err != nil {
				return err
			}
			p.logger.Info("saved document", "path", path, "format", f)
		}
	}
	return nil
}

// outputPath names the file document i of n is written to.
func outputPath(dest string, f provfmt.Format, i, n int) string {
	if dest == "-" {
		return dest
	}
	if n > 1 {
		return fmt.Sprintf("%s-%d.%s", dest, i+1, f)
	}
	return fmt.Sprintf("%s.%s", dest, f)
}

func newMergeCommand(p *pipeline) *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Merge all documents into one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.docs = []*prov.Document{service.Merge(p.docs...)}
			return nil
		},
	}
}

func newTransformCommand(p *pipeline) *cobra.Command {
	opts := service.TransformOptions{}

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Rewrite every document",
		Long: `Apply the selected rewrites to every document, in this order:
pseudonymize agents, eliminate duplicate records, merge aliased agents.

The alias file is a YAML list of {name, aliases} records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for i, doc := range p.docs {
				out, err := service.Transform(doc, opts)
				if err != nil {
					return err
				}
				p.docs[i] = out
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.UsePseudonyms, "use-pseudonyms", false, "replace agent names and emails with hashes")
	cmd.Flags().BoolVar(&opts.EliminateDuplicates, "eliminate-duplicates", false, "merge duplicate elements and relations")
	cmd.Flags().StringVar(&opts.MergeAliasedAgents, "merge-aliased-agents", "", "merge agents listed as aliases in this file")

	return cmd
}

// StatisticsOptions holds flags for the statistics stage.
type StatisticsOptions struct {
	Resolution  string
	Format      string
	MetricsFile string
}

func newStatisticsCommand(p *pipeline) *cobra.Command {
	opts := &StatisticsOptions{}

	cmd := &cobra.Command{
		Use:   "statistics",
		Short: "Print record counts of every document",
		Long: `Print the number of elements per type and the number of relations,
in aggregate (coarse) or per relation type (fine). The stream is passed
on unchanged. --metrics-file additionally writes the counts of all
documents combined in the Prometheus text format.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch ops.Resolution(opts.Resolution) {
			case ops.Coarse, ops.Fine:
			default:
				return fmt.Errorf("invalid resolution %q: must be coarse or fine", opts.Resolution)
			}
			switch ops.StatsFormat(opts.Format) {
			case ops.Table, ops.CSV:
			default:
				return fmt.Errorf("invalid format %q: must be table or csv", opts.Format)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatistics(p, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Resolution, "resolution", string(ops.Coarse), "relation detail (coarse|fine)")
	cmd.Flags().StringVar(&opts.Format, "format", string(ops.Table), "output format (table|csv)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write counts as a Prometheus textfile")

	return cmd
}

func runStatistics(p *pipeline, opts *StatisticsOptions) error {
	resolution := ops.Resolution(opts.Resolution)
	for _, doc := range p.docs {
		out, err := service.Statistics(doc, resolution, ops.StatsFormat(opts.Format))
		if err != nil {
			return err
		}
		fmt.Fprint(p.out, out)
	}
	if opts.MetricsFile != "" {
		if err := service.WriteMetrics(opts.MetricsFile, service.Merge(p.docs...), resolution); err != nil {
			return err
		}
		p.logger.Info("wrote metrics", "path", opts.MetricsFile)
	}
	return nil
}
