// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/metrics"
	"github.com/poiesic/bookfinder/storage"
)

// Config holds configuration for a catalog load.
type Config struct {
	// BatchSize is the number of records written in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each store write
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Dimensions is the required vector length; 0 takes the first vector's length
	Dimensions int

	// Strict fails the load on the first malformed or invalid record
	// instead of skipping it
	Strict bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 1000,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
	}
}

// Stats summarizes a finished load.
type Stats struct {
	Read    int
	Loaded  int
	Skipped int
	Elapsed time.Duration
}

// Loader reads catalog records and writes them to storage.
type Loader struct {
	repo     storage.ItemRepository
	index    storage.KeywordIndex
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// Option is a functional option for configuring a Loader.
type Option func(*Loader) error

// WithLogger sets the logger for the loader.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		l.logger = logger
		return nil
	}
}

// NewLoader creates a new loader.
// progress: where to write progress output (typically os.Stderr); nil discards it
func NewLoader(repo storage.ItemRepository, index storage.KeywordIndex, config *Config, progress io.Writer, opts ...Option) (*Loader, error) {
	if repo == nil {
		return nil, ErrItemRepositoryRequired
	}
	if index == nil {
		return nil, ErrKeywordIndexRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries < 1 {
		return nil, errors.New("catalog config: MaxRetries must be at least 1")
	}
	if progress == nil {
		progress = io.Discard
	}

	l := &Loader{
		repo:     repo,
		index:    index,
		config:   config,
		progress: progress,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.logger = l.logger.With("component", "catalog-loader")
	return l, nil
}

// LoadFile loads the JSON Lines catalog at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	total, err := CountLines(f)
	if err != nil {
		return nil, fmt.Errorf("failed to scan catalog: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind catalog: %w", err)
	}

	return l.Load(ctx, f, total)
}

// Load reads records from r and writes them in batches.
// total: expected record count for progress reporting, 0 if unknown
func (l *Loader) Load(ctx context.Context, r io.Reader, total int) (*Stats, error) {
	stats := &Stats{}

	fmt.Fprintf(l.progress, "Loading catalog (batch size: %d)\n", l.config.BatchSize)
	tracker := NewProgressTracker(l.progress, total, l.config.ReportInterval)
	tracker.Start()

	writer := NewBatchWriter(l.repo, l.index, l.config.Dimensions, l.config.MaxRetries, l.config.RetryDelay, l.logger)
	reader := NewRecordReader(r, l.config.BatchSize)

	onBad := func(lerr *LineError) error {
		stats.Read++
		stats.Skipped++
		metrics.RecordCatalogItems("skipped", 1)
		if l.config.Strict {
			return lerr
		}
		l.logger.Warn("skipping malformed record", "line", lerr.Line, "err", lerr.Err)
		tracker.Increment(1)
		return nil
	}

	err := reader.ForEach(ctx, func(items []*core.Item) error {
		stats.Read += len(items)

		accepted, rejected := writer.Prepare(items)
		if len(rejected) > 0 {
			stats.Skipped += len(rejected)
			metrics.RecordCatalogItems("skipped", len(rejected))
			if l.config.Strict {
				rej := rejected[0]
				return fmt.Errorf("record %d (%q): %w", rej.Id, rej.Title, rej.Err)
			}
			for _, rej := range rejected {
				l.logger.Warn("skipping invalid record", "id", rej.Id, "title", rej.Title, "err", rej.Err)
			}
		}

		if err := writer.Write(ctx, accepted); err != nil {
			metrics.RecordCatalogItems("failed", len(accepted))
			return fmt.Errorf("failed to write batch: %w", err)
		}
		stats.Loaded += len(accepted)
		metrics.RecordCatalogItems("loaded", len(accepted))

		tracker.Increment(len(items))
		return nil
	}, onBad)

	stats.Elapsed = tracker.Elapsed()
	if err != nil {
		fmt.Fprintln(l.progress)
		return stats, err
	}

	tracker.Finish()
	fmt.Fprintf(l.progress, "Catalog load complete. Loaded %d of %d records (%d skipped) in %v\n",
		stats.Loaded, stats.Read, stats.Skipped, stats.Elapsed.Round(time.Millisecond))

	l.logger.Info("catalog loaded", "read", stats.Read, "loaded", stats.Loaded,
		"skipped", stats.Skipped, "dimensions", writer.Dimensions(), "elapsed", stats.Elapsed)
	return stats, nil
}
