// Package extract resolves a raw data model document into the object graph
// of pkg/core.
//
// Resolution runs in passes. Timestamps are coerced first, then domains are
// resolved. The document model and the external models are resolved next,
// concurrently, since neither depends on the other. Mappings come last
// because they reference entities and attributes of every model.
//
// Extraction is all-or-nothing: the first dangling reference or malformed
// record aborts it. Non-fatal conditions are returned as warnings on the
// resulting document.
package extract

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/ldmgen/internal/document"
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

// Options configures an Extractor.
type Options struct {
	// ExcludedMappings lists mapping names to skip.
	ExcludedMappings []string
	// ExcludedCollections lists composition collection names to skip.
	ExcludedCollections []string
	// TimestampFields lists the raw keys holding epoch timestamps.
	TimestampFields []string
	// Logger receives progress and warnings. Defaults to a discard logger.
	Logger *slog.Logger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		ExcludedMappings:    append([]string(nil), DefaultExcludedMappings...),
		ExcludedCollections: append([]string(nil), DefaultExcludedCollections...),
		TimestampFields:     append([]string(nil), document.DefaultTimestampFields...),
	}
}

// Extractor resolves documents. It holds no per-document state and may be
// reused.
type Extractor struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(opts.TimestampFields) == 0 {
		opts.TimestampFields = document.DefaultTimestampFields
	}
	return &Extractor{opts: opts, logger: logger}
}

// Extract resolves the model root of a document. Timestamp fields of root
// are converted in place; the tree is otherwise left untouched.
func (e *Extractor) Extract(ctx context.Context, root document.Record) (*core.Document, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := document.ConvertTimestamps(root, e.opts.TimestampFields...); err != nil {
		return nil, fmt.Errorf("converting timestamps: %w", err)
	}

	domainWarn := NewWarnings(e.logger)
	domains, err := ResolveDomains(root, domainWarn)
	if err != nil {
		return nil, err
	}

	var (
		internal     *core.Model
		external     []*core.Model
		internalWarn = NewWarnings(e.logger)
		externalWarn = NewWarnings(e.logger)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		m, err := ResolveDocumentModel(root, domains, internalWarn)
		internal = m
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		ms, err := ResolveExternalModels(root, externalWarn)
		external = ms
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	models := make([]*core.Model, 0, len(external)+1)
	models = append(models, external...)
	models = append(models, internal)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lookup, err := NewLookup(models)
	if err != nil {
		return nil, err
	}

	mappingWarn := NewWarnings(e.logger)
	mappings, err := ResolveMappings(root, lookup, MappingOptions{
		ExcludedMappings:    e.opts.ExcludedMappings,
		ExcludedCollections: e.opts.ExcludedCollections,
	}, mappingWarn)
	if err != nil {
		return nil, err
	}

	doc := &core.Document{
		Models:   models,
		Mappings: mappings,
		Domains:  domains,
	}
	for _, w := range []*Warnings{domainWarn, internalWarn, externalWarn, mappingWarn} {
		doc.Warnings = append(doc.Warnings, w.Items()...)
	}

	e.logger.Info("extracted document",
		"models", len(doc.Models),
		"entities", lookup.Entities(),
		"attributes", lookup.Attributes(),
		"mappings", len(doc.Mappings),
		"warnings", len(doc.Warnings),
	)
	return doc, nil
}
