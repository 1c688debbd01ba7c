package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSpec_IsEmpty(t *testing.T) {
	var nilSpec *FilterSpec
	assert.True(t, nilSpec.IsEmpty())
	assert.True(t, (&FilterSpec{}).IsEmpty())
	assert.False(t, (&FilterSpec{Genres: []string{"fantasy"}}).IsEmpty())
	assert.False(t, (&FilterSpec{YearMax: 2000}).IsEmpty())
	assert.False(t, (&FilterSpec{MinRating: 4}).IsEmpty())
}

func TestFilterSpec_Normalize(t *testing.T) {
	spec := FilterSpec{
		Genres:   []string{" Fantasy ", "", "  "},
		Author:   "  Tolkien ",
		Language: " en",
	}
	spec.Normalize()

	assert.Equal(t, []string{"Fantasy"}, spec.Genres)
	assert.Equal(t, "Tolkien", spec.Author)
	assert.Equal(t, "en", spec.Language)

	blank := FilterSpec{Genres: []string{" "}}
	blank.Normalize()
	assert.True(t, blank.IsEmpty())
}

func TestFilterSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    FilterSpec
		wantErr bool
	}{
		{name: "empty", spec: FilterSpec{}},
		{name: "open lower bound", spec: FilterSpec{YearMax: 1990}},
		{name: "closed range", spec: FilterSpec{YearMin: 1950, YearMax: 1990}},
		{name: "inverted range", spec: FilterSpec{YearMin: 2000, YearMax: 1990}, wantErr: true},
		{name: "negative year", spec: FilterSpec{YearMin: -5}, wantErr: true},
		{name: "rating too high", spec: FilterSpec{MinRating: 6}, wantErr: true},
		{name: "rating at max", spec: FilterSpec{MinRating: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestFilterSpec_String(t *testing.T) {
	a := &FilterSpec{Genres: []string{"Fantasy"}, Author: "Tolkien"}
	b := &FilterSpec{Genres: []string{"fantasy"}, Author: "tolkien"}
	assert.Equal(t, a.String(), b.String(), "canonical form ignores case")
	assert.Equal(t, "{}", (&FilterSpec{}).String())
}
