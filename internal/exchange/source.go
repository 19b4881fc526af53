package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ErrUnavailable reports that a source could not provide a dataset.
var ErrUnavailable = errors.New("exchange dataset unavailable")

// Source provides the primary exchange dataset.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Dataset, error)
}

// Chain tries each source in order and returns the first dataset obtained.
type Chain struct {
	sources []Source
	logger  *slog.Logger
}

// NewChain creates a Chain. Nil sources are ignored.
func NewChain(logger *slog.Logger, sources ...Source) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chain{logger: logger}
	for _, s := range sources {
		if s != nil {
			c.sources = append(c.sources, s)
		}
	}
	return c
}

// Name implements Source.
func (c *Chain) Name() string { return "chain" }

// Fetch implements Source. Every failure is logged as a warning; when all
// sources fail the returned error wraps ErrUnavailable.
func (c *Chain) Fetch(ctx context.Context) (*Dataset, error) {
	for _, s := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ds, err := s.Fetch(ctx)
		if err == nil && ds != nil {
			c.logger.Info("exchange dataset loaded",
				"source", s.Name(),
				"equities", len(ds.Equities),
				"options", len(ds.Options),
				"reference_date", ds.ReferenceDate.String(),
			)
			return ds, nil
		}
		if err == nil {
			err = ErrUnavailable
		}
		c.logger.Warn("exchange source unavailable", "source", s.Name(), "error", err)
	}
	return nil, fmt.Errorf("all %d sources failed: %w", len(c.sources), ErrUnavailable)
}

// FileSource reads a JSON dataset from disk.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements Source.
func (f *FileSource) Name() string { return "file" }

// Fetch implements Source.
func (f *FileSource) Fetch(ctx context.Context) (*Dataset, error) {
	if _, err := os.Stat(f.path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ds, err := LoadDataset(f.path)
	if err != nil {
		return nil, err
	}
	if len(ds.Equities) == 0 {
		return nil, fmt.Errorf("%w: %s has no equities", ErrUnavailable, f.path)
	}
	return ds, nil
}
