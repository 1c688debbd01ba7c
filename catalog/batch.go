package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/retry"
	"github.com/poiesic/bookfinder/storage"
)

// Rejection records an item left out of a batch and why.
type Rejection struct {
	Id    core.ID
	Title string
	Err   error
}

// BatchWriter validates catalog items and writes them to the item
// repository and keyword index.
type BatchWriter struct {
	repo           storage.ItemRepository
	index          storage.KeywordIndex
	maxRetries     int
	retryBaseDelay time.Duration
	dimensions     int
	logger         *slog.Logger
}

// NewBatchWriter creates a new batch writer.
// dimensions: required vector length, or 0 to take it from the first vector seen
// maxRetries: maximum number of attempts for each store write
// retryBaseDelay: base delay for exponential backoff
func NewBatchWriter(repo storage.ItemRepository, index storage.KeywordIndex, dimensions, maxRetries int, retryBaseDelay time.Duration, logger *slog.Logger) *BatchWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchWriter{
		repo:           repo,
		index:          index,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		dimensions:     dimensions,
		logger:         logger,
	}
}

// Dimensions returns the vector length the writer enforces, 0 until known.
func (bw *BatchWriter) Dimensions() int {
	return bw.dimensions
}

// Prepare validates items and normalizes their vectors in place. Items with
// a zero vector keep no vector and stay searchable by keyword.
func (bw *BatchWriter) Prepare(items []*core.Item) (accepted []*core.Item, rejected []Rejection) {
	accepted = make([]*core.Item, 0, len(items))
	for _, item := range items {
		if err := core.ValidateItem(item); err != nil {
			rejected = append(rejected, Rejection{Id: item.Id, Title: item.Title, Err: err})
			continue
		}

		if len(item.Vector) > 0 {
			if bw.dimensions == 0 {
				bw.dimensions = len(item.Vector)
			}
			if len(item.Vector) != bw.dimensions {
				rejected = append(rejected, Rejection{
					Id:    item.Id,
					Title: item.Title,
					Err:   fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(item.Vector), bw.dimensions),
				})
				continue
			}
			item.Vector = core.NormalizeVector(item.Vector)
			if isZero(item.Vector) {
				bw.logger.Warn("dropping zero vector", "id", item.Id, "title", item.Title)
				item.Vector = nil
			}
		}
		accepted = append(accepted, item)
	}
	return accepted, rejected
}

// Write stores a prepared batch, retrying transient failures. Items with a
// zero ID receive one from the repository before they are indexed.
func (bw *BatchWriter) Write(ctx context.Context, items []*core.Item) error {
	if len(items) == 0 {
		return nil
	}

	var stored []*core.Item
	err := retry.WithBackoff(ctx, func() error {
		var err error
		stored, err = bw.repo.AddItems(ctx, items...)
		return permanentIfClosed(err)
	}, bw.maxRetries, bw.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to store items after %d attempts: %w", bw.maxRetries, err)
	}

	err = retry.WithBackoff(ctx, func() error {
		return bw.index.IndexItems(ctx, stored...)
	}, bw.maxRetries, bw.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to index items after %d attempts: %w", bw.maxRetries, err)
	}

	return nil
}

func permanentIfClosed(err error) error {
	if errors.Is(err, storage.ErrStorageClosed) {
		return retry.Permanent(err)
	}
	return err
}

func isZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}
