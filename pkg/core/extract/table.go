package extract

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"quarterly_intel/pkg/core/logging"
	"quarterly_intel/pkg/models"
)

// TableSource is one structural table detection mode.
type TableSource interface {
	Name() string
	Supports(kind Kind) bool
	Available() error
	Tables(ctx context.Context, doc Document) ([]Table, error)
}

// TableBackend runs every usable source independently and unions the candidates.
type TableBackend struct {
	Sources    []TableSource
	Reach      GridReach
	Confidence float64
	Logger     *zap.Logger
}

var _ Backend = (*TableBackend)(nil)

func NewTableBackend(sources []TableSource, reach GridReach, confidence float64, logger *zap.Logger) *TableBackend {
	return &TableBackend{
		Sources:    sources,
		Reach:      reach,
		Confidence: confidence,
		Logger:     logging.OrNop(logger),
	}
}

func (b *TableBackend) Method() models.Method { return models.MethodTable }

func (b *TableBackend) Availability(doc Document) error {
	if len(b.usable(doc)) == 0 {
		return unavailablef("no table source for %s documents", doc.Kind)
	}
	return nil
}

func (b *TableBackend) Extract(ctx context.Context, doc Document) Outcome {
	sources := b.usable(doc)
	if len(sources) == 0 {
		return Unavailable(b.Availability(doc))
	}

	var candidates []models.RawCandidate
	var errs []error
	for _, src := range sources {
		tables, err := src.Tables(ctx, doc)
		if err != nil {
			b.Logger.Warn("table source failed",
				zap.String("source", src.Name()),
				zap.String("path", doc.Path),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		}
		for _, t := range tables {
			candidates = append(candidates, ScanGrid(t, b.Reach, b.Confidence)...)
		}
	}

	// every source failed
	if len(errs) == len(sources) && len(candidates) == 0 {
		return Failed(errors.Join(errs...))
	}
	return Ok(candidates, 0)
}

func (b *TableBackend) usable(doc Document) []TableSource {
	var out []TableSource
	for _, src := range b.Sources {
		if src.Supports(doc.Kind) && src.Available() == nil {
			out = append(out, src)
		}
	}
	return out
}
