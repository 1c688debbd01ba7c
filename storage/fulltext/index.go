package fulltext

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/storage"
)

const (
	docType   = "book"
	textField = "text"
)

// Index is a bleve-backed keyword relevance index over item text.
// Each item is indexed as a single analyzed field built from its title,
// authors, categories and search text. Scoring is bleve's TF-IDF.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
}

var _ storage.KeywordIndex = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger for the index.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// NewMemoryIndex creates an index held entirely in memory.
func NewMemoryIndex(opts ...Option) (*Index, error) {
	index, err := bleve.NewMemOnly(newIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrIndexUnavailable, err)
	}
	return newIndex(index, opts...)
}

// Open opens the index at path, creating it if it doesn't exist.
func Open(path string, opts ...Option) (*Index, error) {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, newIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", storage.ErrIndexUnavailable, path, err)
	}
	return newIndex(index, opts...)
}

func newIndex(index bleve.Index, opts ...Option) (*Index, error) {
	i := &Index{
		index:  index,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			index.Close()
			return nil, err
		}
	}
	i.logger = i.logger.With("component", "fulltext")
	return i, nil
}

// newIndexMapping maps the composite text field through the English analyzer,
// which lower-cases, drops possessives and stems.
func newIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	bookMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = false
	textFieldMapping.Index = true
	textFieldMapping.IncludeInAll = false
	textFieldMapping.Analyzer = en.AnalyzerName
	bookMapping.AddFieldMappingsAt(textField, textFieldMapping)

	indexMapping.AddDocumentMapping(docType, bookMapping)
	indexMapping.DefaultType = docType
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	return indexMapping
}

// docID renders an item ID so that lexical order equals numeric order.
func docID(id core.ID) string {
	return fmt.Sprintf("%020d", uint64(id))
}

func parseDocID(s string) (core.ID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return core.ID(v), nil
}

func documentText(item *core.Item) string {
	body := item.SearchText
	if body == "" {
		body = item.Description
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{item.Title, item.Authors, item.Categories, body} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IndexItems adds or replaces items in the index in a single batch.
func (i *Index) IndexItems(ctx context.Context, items ...*core.Item) error {
	if len(items) == 0 {
		return nil
	}
	batch := i.index.NewBatch()
	for _, item := range items {
		doc := map[string]any{
			textField: documentText(item),
		}
		if err := batch.Index(docID(item.Id), doc); err != nil {
			return fmt.Errorf("indexing item %d: %w", item.Id, err)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrIndexUnavailable, err)
	}
	return nil
}

// DeleteItems removes items from the index.
func (i *Index) DeleteItems(ctx context.Context, ids ...core.ID) error {
	if len(ids) == 0 {
		return nil
	}
	batch := i.index.NewBatch()
	for _, id := range ids {
		batch.Delete(docID(id))
	}
	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrIndexUnavailable, err)
	}
	return nil
}

// Search returns the top k items for the given normalized tokens.
func (i *Index) Search(ctx context.Context, tokens []string, k int) (core.CandidateSet, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}

	var req *bleve.SearchRequest
	if len(tokens) == 0 {
		req = bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), k, 0, false)
		req.SortBy([]string{"_id"})
	} else {
		q := bleve.NewMatchQuery(strings.Join(tokens, " "))
		q.SetField(textField)
		req = bleve.NewSearchRequestOptions(q, k, 0, false)
		req.SortBy([]string{"-_score", "_id"})
	}

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrIndexUnavailable, err)
	}

	candidates := make(core.CandidateSet, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := parseDocID(hit.ID)
		if err != nil {
			i.logger.Warn("skipping hit with malformed id", "id", hit.ID, "err", err)
			continue
		}
		candidates = append(candidates, core.Candidate{Id: id, Score: float32(hit.Score)})
	}

	i.logger.Debug("keyword search", "tokens", len(tokens), "hits", len(candidates), "total", res.Total)
	return candidates, nil
}

// Count returns the number of indexed items.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

// Close closes the underlying bleve index.
func (i *Index) Close() error {
	return i.index.Close()
}
