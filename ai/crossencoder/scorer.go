package crossencoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/poiesic/bookfinder/ai"
	"github.com/poiesic/bookfinder/retry"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	rerankPath = "/rerank"

	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
	maxErrorBody            = 512
)

// Scorer implements ai.Scorer against a text-embeddings-inference style
// /rerank endpoint. Requests go through a circuit breaker and are retried
// with exponential backoff; client errors (4xx) are not retried.
type Scorer struct {
	endpoint   string
	model      string
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker[[]float32]
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ ai.Scorer = (*Scorer)(nil)

// Option configures a Scorer.
type Option func(*Scorer) error

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scorer) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		s.client = client
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// newScorer is an internal constructor that returns the concrete type.
func newScorer(config *ai.Config, opts ...Option) (*Scorer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Scorer{
		endpoint:   config.RerankHost + rerankPath,
		model:      config.RerankModel,
		client:     &http.Client{Timeout: config.RerankTimeout},
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "crossencoder")

	s.breaker = gobreaker.NewCircuitBreaker[[]float32](gobreaker.Settings{
		Name:        "rerank",
		MaxRequests: 1,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return s, nil
}

// NewScorer creates a cross-encoder scorer using the provided configuration.
//
// Returns ai.Scorer interface to enforce abstraction.
func NewScorer(config *ai.Config, opts ...Option) (ai.Scorer, error) {
	return newScorer(config, opts...)
}

type rerankRequest struct {
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	Model     string   `json:"model,omitempty"`
	RawScores bool     `json:"raw_scores"`
	Truncate  bool     `json:"truncate"`
}

type rerankHit struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

type cohereResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float32 `json:"relevance_score"`
	} `json:"results"`
}

// Score sends all documents in one request and returns their scores in input order.
func (s *Scorer) Score(ctx context.Context, query string, documents []string) ([]float32, error) {
	if len(documents) == 0 {
		return []float32{}, nil
	}

	body, err := json.Marshal(rerankRequest{
		Query:    query,
		Texts:    documents,
		Model:    s.model,
		Truncate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding rerank request: %w", err)
	}

	start := time.Now()
	scores, err := s.breaker.Execute(func() ([]float32, error) {
		var scores []float32
		err := retry.WithBackoff(ctx, func() error {
			var err error
			scores, err = s.post(ctx, body, len(documents))
			return err
		}, s.maxRetries, s.retryDelay)
		return scores, err
	})
	if err != nil {
		s.logger.Error("rerank failed", "documents", len(documents), "err", err)
		return nil, err
	}

	s.logger.Debug("reranked documents", "documents", len(documents), "elapsed", time.Since(start))
	return scores, nil
}

func (s *Scorer) post(ctx context.Context, body []byte, n int) ([]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("create request failed: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(msg))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading rerank response: %w", err)
	}
	scores, err := decodeScores(raw, n)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	return scores, nil
}

// decodeScores accepts either the TEI array form [{"index","score"}] or the
// Cohere form {"results":[{"index","relevance_score"}]} and returns scores
// ordered by input index. Every input index must be scored exactly once.
func decodeScores(raw []byte, n int) ([]float32, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	var hits []rerankHit
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &hits); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
	case '{':
		var cohere cohereResponse
		if err := json.Unmarshal(trimmed, &cohere); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		hits = make([]rerankHit, len(cohere.Results))
		for i, r := range cohere.Results {
			hits[i] = rerankHit{Index: r.Index, Score: r.RelevanceScore}
		}
	default:
		return nil, fmt.Errorf("%w: unexpected body", ErrMalformedResponse)
	}

	if len(hits) != n {
		return nil, fmt.Errorf("%w: %d scores for %d documents", ErrMalformedResponse, len(hits), n)
	}
	scores := make([]float32, n)
	seen := make([]bool, n)
	for _, h := range hits {
		if h.Index < 0 || h.Index >= n || seen[h.Index] {
			return nil, fmt.Errorf("%w: bad index %d", ErrMalformedResponse, h.Index)
		}
		seen[h.Index] = true
		scores[h.Index] = h.Score
	}
	return scores, nil
}
