package compiler

import (
	"io"
	"log/slog"

	"github.com/roach88/mlprov/internal/factstore"
	"github.com/roach88/mlprov/internal/ops"
	"github.com/roach88/mlprov/internal/prov"
)

type options struct {
	logger *slog.Logger
	models []Model
}

// Option configures Compile.
type Option func(*options)

// WithLogger sets the logger model progress is reported to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithModels restricts Compile to the given generators.
func WithModels(models ...Model) Option {
	return func(o *options) {
		o.models = models
	}
}

// Compile applies every generator to the stores, merging and deduplicating
// after each one.
func Compile(ns prov.Namespace, git, tracking *factstore.Store, opts ...Option) *prov.Document {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		models: Models,
	}
	for _, opt := range opts {
		opt(&o)
	}

	doc := prov.NewDocument()
	for _, m := range o.models {
		fragment := m.Apply(ns, git, tracking)
		o.logger.Debug("applied model",
			"model", m.Name,
			"elements", len(fragment.Elements()),
			"relations", len(fragment.Relations()))
		doc = ops.Merge(doc, fragment)
	}
	return doc
}
