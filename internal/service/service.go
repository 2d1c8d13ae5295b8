// Package service wires the producers, the fact workspace, the compiler
// and the document operations into the units of work the command line
// chains together.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/roach88/mlprov/internal/compiler"
	"github.com/roach88/mlprov/internal/domain"
	"github.com/roach88/mlprov/internal/factcache"
	"github.com/roach88/mlprov/internal/factstore"
	"github.com/roach88/mlprov/internal/fetch/gitfetch"
	"github.com/roach88/mlprov/internal/fetch/mlflow"
	"github.com/roach88/mlprov/internal/ops"
	"github.com/roach88/mlprov/internal/prov"
	"github.com/roach88/mlprov/internal/provfmt"
)

// Service holds the facts fetched during one pipeline run.
type Service struct {
	ns        prov.Namespace
	workspace *factstore.Workspace
	cache     *factcache.Cache
	refresh   bool
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithNamespace sets the namespace identifiers are minted in.
func WithNamespace(ns prov.Namespace) Option {
	return func(s *Service) {
		s.ns = ns
	}
}

// WithCache makes fetches read from and write to c. With refresh, cached
// snapshots are ignored and replaced.
func WithCache(c *factcache.Cache, refresh bool) Option {
	return func(s *Service) {
		s.cache = c
		s.refresh = refresh
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New returns a service with an empty workspace.
func New(opts ...Option) *Service {
	s := &Service{
		ns:        prov.DefaultNamespace(),
		workspace: factstore.NewWorkspace(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Workspace exposes the fetched facts, keyed by location.
func (s *Service) Workspace() *factstore.Workspace {
	return s.workspace
}

// FetchGit reads the repository at path into the workspace and returns
// the location the facts are stored under.
func (s *Service) FetchGit(ctx context.Context, path string) (string, error) {
	location, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve repository path: %w", err)
	}
	facts, err := s.fetch(ctx, factcache.SourceGit, location, func(ctx context.Context) ([]domain.Fact, error) {
		return gitfetch.New(location, s.logger).FetchAll(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("fetch git %s: %w", path, err)
	}
	s.workspace.Store(location).Add(facts...)
	return location, nil
}

// FetchMLflow reads the tracking server described by config into the
// workspace and returns the location the facts are stored under.
func (s *Service) FetchMLflow(ctx context.Context, config mlflow.Config) (string, error) {
	location := config.BaseURL()
	if config.Logger == nil {
		config.Logger = s.logger
	}
	facts, err := s.fetch(ctx, factcache.SourceMLflow, location, func(ctx context.Context) ([]domain.Fact, error) {
		client, err := mlflow.NewClient(ctx, config)
		if err != nil {
			return nil, err
		}
		return client.FetchAll(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("fetch mlflow %s: %w", location, err)
	}
	s.workspace.Store(location).Add(facts...)
	return location, nil
}

// fetch serves facts from the cache when possible, otherwise runs get and
// records the result.
func (s *Service) fetch(ctx context.Context, source factcache.Source, location string, get func(context.Context) ([]domain.Fact, error)) ([]domain.Fact, error) {
	if s.cache != nil && !s.refresh {
		facts, err := s.cache.Load(ctx, source, location)
		switch {
		case err == nil:
			s.logger.Info("using cached facts", "source", source, "location", location, "facts", len(facts))
			return facts, nil
		case errors.Is(err, factcache.ErrMiss):
			s.logger.Warn("cache miss", "source", source, "location", location)
		default:
			return nil, err
		}
	}

	facts, err := get(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Save(ctx, source, location, facts); err != nil {
			return nil, fmt.Errorf("cache facts: %w", err)
		}
	}
	return facts, nil
}

// CompileGraph builds the provenance document of a repository and a
// tracking server previously fetched under the two locations.
func (s *Service) CompileGraph(gitLocation, trackingLocation string) (*prov.Document, error) {
	git, ok := s.workspace.Lookup(gitLocation)
	if !ok {
		return nil, fmt.Errorf("compile: nothing fetched from %s", gitLocation)
	}
	tracking, ok := s.workspace.Lookup(trackingLocation)
	if !ok {
		return nil, fmt.Errorf("compile: nothing fetched from %s", trackingLocation)
	}
	doc := compiler.Compile(s.ns, git, tracking, compiler.WithLogger(s.logger))
	s.logger.Info("compiled graph",
		"elements", len(doc.Elements()),
		"relations", len(doc.Relations()))
	return doc, nil
}

// TransformOptions selects the rewrites Transform applies.
type TransformOptions struct {
	UsePseudonyms       bool
	EliminateDuplicates bool
	// MergeAliasedAgents is the path of an alias mapping file. Empty
	// disables alias merging.
	MergeAliasedAgents string
}

// Transform pseudonymizes, deduplicates and merges aliased agents, in
// that order, as selected by opts.
func Transform(doc *prov.Document, opts TransformOptions) (*prov.Document, error) {
	var err error
	if opts.UsePseudonyms {
		if doc, err = ops.Pseudonymize(doc); err != nil {
			return nil, err
		}
	}
	if opts.EliminateDuplicates {
		doc = ops.Dedupe(doc)
	}
	if opts.MergeAliasedAgents != "" {
		mapping, err := ops.ReadAliasMapping(opts.MergeAliasedAgents)
		if err != nil {
			return nil, err
		}
		if doc, err = ops.MergeDuplicatedAgents(doc, mapping); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Merge combines documents into one.
func Merge(docs ...*prov.Document) *prov.Document {
	return ops.Merge(docs...)
}

// Read deserializes the document at path. "-" reads from stdin.
func Read(path string, stdin io.Reader) (*prov.Document, error) {
	if path == "-" {
		return provfmt.Read(stdin)
	}
	return provfmt.ReadFile(path)
}

// Write serializes doc to path in format f. "-" writes to stdout.
func Write(doc *prov.Document, path string, f provfmt.Format, overwrite bool, stdout io.Writer) error {
	if path == "-" {
		return provfmt.Serialize(stdout, doc, f)
	}
	return provfmt.WriteFile(path, doc, f, overwrite)
}

// Statistics renders the record counts of doc.
func Statistics(doc *prov.Document, resolution ops.Resolution, format ops.StatsFormat) (string, error) {
	return ops.Statistics(doc, resolution, format)
}
