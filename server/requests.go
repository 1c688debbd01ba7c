package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/poiesic/bookfinder/core"
)

type searchRequest struct {
	Query   string         `json:"query" validate:"max=512"`
	Filters *filterRequest `json:"filters"`
	Limit   int            `json:"limit" validate:"min=0,max=100"`
}

type filterRequest struct {
	Genres    []string `json:"genres" validate:"max=20,dive,max=100"`
	Author    string   `json:"author" validate:"max=200"`
	YearMin   int      `json:"yearMin" validate:"min=0,max=9999"`
	YearMax   int      `json:"yearMax" validate:"min=0,max=9999"`
	MinRating float64  `json:"minRating" validate:"min=0,max=5"`
	Language  string   `json:"language" validate:"max=50"`
}

func (f *filterRequest) spec() *core.FilterSpec {
	if f == nil {
		return nil
	}
	return &core.FilterSpec{
		Genres:    f.Genres,
		Author:    f.Author,
		YearMin:   f.YearMin,
		YearMax:   f.YearMax,
		MinRating: f.MinRating,
		Language:  f.Language,
	}
}

type recommendRequest struct {
	// Seeds arrive loosely typed; unusable entries are dropped.
	LikedIDs []any `json:"liked_ids" validate:"max=100"`
	Limit    int   `json:"limit" validate:"min=0,max=100"`
}

// parseSearchQuery reads GET /search parameters. Genres may repeat or be
// comma-separated.
func parseSearchQuery(values url.Values) (*searchRequest, error) {
	req := &searchRequest{Query: values.Get("q")}

	f := &filterRequest{
		Author:   values.Get("author"),
		Language: values.Get("language"),
	}
	for _, g := range values["genres"] {
		f.Genres = append(f.Genres, splitList(g)...)
	}

	var err error
	if f.YearMin, err = intParam(values, "year_min"); err != nil {
		return nil, err
	}
	if f.YearMax, err = intParam(values, "year_max"); err != nil {
		return nil, err
	}
	if req.Limit, err = intParam(values, "limit"); err != nil {
		return nil, err
	}
	if v := values.Get("min_rating"); v != "" {
		if f.MinRating, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("%w: invalid min_rating", ErrBadRequest)
		}
	}

	if !f.spec().IsEmpty() {
		req.Filters = f
	}
	return req, nil
}

func intParam(values url.Values, key string) (int, error) {
	v := values.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", ErrBadRequest, key)
	}
	return n, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) (int, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return http.StatusRequestEntityTooLarge, errors.New(msgRequestTooLong)
		}
		return http.StatusBadRequest, fmt.Errorf("%w: unreadable body", ErrBadRequest)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return http.StatusBadRequest, fmt.Errorf("%w: invalid JSON body", ErrBadRequest)
	}
	return 0, nil
}

// jsonFieldNames makes validation errors name fields the way clients send them.
func jsonFieldNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("invalid %s: %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("invalid %s", fe.Field())
	}
	return "invalid request"
}
