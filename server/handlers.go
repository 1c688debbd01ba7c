package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/recommend"
	"github.com/poiesic/bookfinder/search"
	"github.com/poiesic/bookfinder/storage"
)

const healthCheckTimeout = 2 * time.Second

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleSearchGet(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.search(w, r, req)
}

func (s *Server) handleSearchPost(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if status, err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, status, err.Error())
		return
	}
	s.search(w, r, &req)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, req *searchRequest) {
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	results, err := s.searcher.Search(r.Context(), req.Query, req.Filters.spec())
	if err != nil {
		switch {
		case errors.Is(err, search.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, msgQueryRequired)
		case errors.Is(err, core.ErrInvalidFilter):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.internalError(w, r, "search failed", err)
		}
		return
	}

	if req.Limit > 0 && req.Limit < len(results) {
		results = results[:req.Limit]
	}
	records := make([]core.BookRecord, len(results))
	for i, res := range results {
		records[i] = core.NewScoredBookRecord(res)
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if status, err := decodeJSON(w, r, s.maxBodyBytes, &req); err != nil {
		writeError(w, status, err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	seeds := recommend.ParseSeeds(req.LikedIDs)
	items, err := s.recommender.Recommend(r.Context(), seeds, req.Limit)
	if err != nil {
		s.internalError(w, r, "recommend failed", err)
		return
	}

	records := make([]core.BookRecord, len(items))
	for i, item := range items {
		records[i] = core.NewBookRecord(item)
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBookID)
		return
	}

	item, err := s.books.GetBook(r.Context(), core.ID(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, msgBookNotFound)
			return
		}
		s.internalError(w, r, "get book failed", err)
		return
	}
	writeJSON(w, http.StatusOK, core.NewBookRecord(item))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.health(ctx); err != nil {
			s.logger.Warn("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// internalError logs err and answers with a generic 500. A request that ran
// out of time is left to the timeout middleware.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		s.logger.Warn(msg, "err", err, "path", r.URL.Path)
		return
	}
	s.logger.Error(msg, "err", err, "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, msgInternalError)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"` + msgInternalError + `"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
