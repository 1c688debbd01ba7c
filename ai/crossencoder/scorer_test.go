package crossencoder

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/poiesic/bookfinder/ai"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T, handler http.HandlerFunc) *Scorer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := ai.NewConfig(
		ai.WithRerankHost(srv.URL),
		ai.WithRetries(2, time.Millisecond),
	)
	s, err := newScorer(cfg)
	require.NoError(t, err)
	return s
}

func TestScore_TEIResponse(t *testing.T) {
	var got rerankRequest
	s := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		// TEI returns hits sorted by score, not by index
		w.Write([]byte(`[{"index":1,"score":0.9},{"index":0,"score":0.2}]`))
	})

	scores, err := s.Score(context.Background(), "dragons", []string{"garden", "dragon lair"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.2, 0.9}, scores)
	assert.Equal(t, "dragons", got.Query)
	assert.Equal(t, []string{"garden", "dragon lair"}, got.Texts)
	assert.True(t, got.Truncate)
}

func TestScore_CohereResponse(t *testing.T) {
	s := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[{"index":0,"relevance_score":0.4}]}`))
	})

	scores, err := s.Score(context.Background(), "q", []string{"doc"})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.4}, scores)
}

func TestScore_EmptyDocumentsSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	s := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	scores, err := s.Score(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.Zero(t, calls.Load())
}

func TestScore_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	s := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"index":0,"score":1.5}]`))
	})

	scores, err := s.Score(context.Background(), "q", []string{"doc"})
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5}, scores)
	assert.Equal(t, int32(2), calls.Load())
}

func TestScore_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	s := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "input too long", http.StatusRequestEntityTooLarge)
	})

	_, err := s.Score(context.Background(), "q", []string{"doc"})
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "input too long")
	assert.Equal(t, int32(1), calls.Load())
}

func TestScore_MismatchedScoreCount(t *testing.T) {
	s := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"index":0,"score":0.5}]`))
	})

	_, err := s.Score(context.Background(), "q", []string{"a", "b"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestScore_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	s := newTestScorer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	})

	for i := 0; i < breakerFailureThreshold; i++ {
		_, err := s.Score(context.Background(), "q", []string{"doc"})
		require.Error(t, err)
	}
	before := calls.Load()

	_, err := s.Score(context.Background(), "q", []string{"doc"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, before, calls.Load(), "open breaker short-circuits requests")
}

func TestDecodeScores(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		n       int
		want    []float32
		wantErr bool
	}{
		{name: "tei", body: `[{"index":0,"score":0.1},{"index":1,"score":0.2}]`, n: 2, want: []float32{0.1, 0.2}},
		{name: "cohere", body: ` {"results":[{"index":0,"relevance_score":0.3}]}`, n: 1, want: []float32{0.3}},
		{name: "empty", body: "", n: 1, wantErr: true},
		{name: "duplicate index", body: `[{"index":0,"score":0.1},{"index":0,"score":0.2}]`, n: 2, wantErr: true},
		{name: "out of range", body: `[{"index":3,"score":0.1}]`, n: 1, wantErr: true},
		{name: "garbage", body: `nope`, n: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeScores([]byte(tt.body), tt.n)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
