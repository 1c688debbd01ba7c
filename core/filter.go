package core

import (
	"fmt"
	"strings"
)

// FilterSpec holds the structured constraints applied after fusion.
// Zero values mean "no constraint" for every field.
type FilterSpec struct {
	Genres    []string
	Author    string
	YearMin   int
	YearMax   int
	MinRating float64
	Language  string
}

// IsEmpty reports whether f imposes no constraint at all.
func (f *FilterSpec) IsEmpty() bool {
	if f == nil {
		return true
	}
	return len(f.Genres) == 0 &&
		f.Author == "" &&
		f.YearMin == 0 &&
		f.YearMax == 0 &&
		f.MinRating == 0 &&
		f.Language == ""
}

// HasYearRange reports whether either year bound is set.
func (f *FilterSpec) HasYearRange() bool {
	return f.YearMin != 0 || f.YearMax != 0
}

// Normalize trims whitespace from text fields and drops blank genres.
func (f *FilterSpec) Normalize() {
	genres := f.Genres[:0]
	for _, g := range f.Genres {
		g = strings.TrimSpace(g)
		if g != "" {
			genres = append(genres, g)
		}
	}
	if len(genres) == 0 {
		genres = nil
	}
	f.Genres = genres
	f.Author = strings.TrimSpace(f.Author)
	f.Language = strings.TrimSpace(f.Language)
}

// Validate checks the spec for contradictory or out-of-range values.
func (f *FilterSpec) Validate() error {
	if f.YearMin < 0 || f.YearMax < 0 {
		return fmt.Errorf("%w: negative year bound", ErrInvalidFilter)
	}
	if f.YearMin != 0 && f.YearMax != 0 && f.YearMin > f.YearMax {
		return fmt.Errorf("%w: yearMin %d is after yearMax %d", ErrInvalidFilter, f.YearMin, f.YearMax)
	}
	if f.MinRating < 0 || f.MinRating > MaxRating {
		return fmt.Errorf("%w: minRating %.2f outside [0, %.0f]", ErrInvalidFilter, f.MinRating, MaxRating)
	}
	return nil
}

// String renders the spec in a canonical form, suitable for cache keys.
func (f *FilterSpec) String() string {
	if f.IsEmpty() {
		return "{}"
	}
	genres := make([]string, len(f.Genres))
	for i, g := range f.Genres {
		genres[i] = strings.ToLower(g)
	}
	return fmt.Sprintf("{genres=%s author=%s year=%d-%d rating=%.2f lang=%s}",
		strings.Join(genres, "|"), strings.ToLower(f.Author),
		f.YearMin, f.YearMax, f.MinRating, strings.ToLower(f.Language))
}
