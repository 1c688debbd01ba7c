package search

import (
	"testing"

	"github.com/poiesic/bookfinder/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(items []*core.Item) []core.ID {
	out := make([]core.ID, len(items))
	for i, item := range items {
		out[i] = item.Id
	}
	return out
}

func TestFilterChain_EmptySpecIsNoop(t *testing.T) {
	chain := NewFilterChain(nil)
	items := sampleCatalog()

	got, reports := chain.Apply(items, nil)
	assert.Equal(t, ids(items), ids(got))
	assert.Empty(t, reports)

	got, reports = chain.Apply(items, &core.FilterSpec{})
	assert.Equal(t, ids(items), ids(got))
	assert.Empty(t, reports)
}

func TestFilterChain_Stages(t *testing.T) {
	tests := []struct {
		name string
		spec core.FilterSpec
		want []core.ID
	}{
		{
			name: "genre substring, empty category passes",
			spec: core.FilterSpec{Genres: []string{"fantasy"}},
			want: []core.ID{1, 3, 4},
		},
		{
			name: "any requested genre",
			spec: core.FilterSpec{Genres: []string{"SCIENCE", "garden"}},
			want: []core.ID{2, 4, 5},
		},
		{
			name: "author case-insensitive substring",
			spec: core.FilterSpec{Author: "ann SMITH"},
			want: []core.ID{1, 3},
		},
		{
			name: "year range excludes unparseable years",
			spec: core.FilterSpec{YearMin: 2000, YearMax: 2015},
			want: []core.ID{2, 3},
		},
		{
			name: "open-ended year range",
			spec: core.FilterSpec{YearMin: 2006},
			want: []core.ID{2, 5},
		},
		{
			name: "rating is inclusive",
			spec: core.FilterSpec{MinRating: 4.2},
			want: []core.ID{1, 3},
		},
		{
			name: "language",
			spec: core.FilterSpec{Language: "ES"},
			want: []core.ID{4},
		},
		{
			name: "stages compose",
			spec: core.FilterSpec{Genres: []string{"fantasy"}, Author: "smith", MinRating: 4.4},
			want: []core.ID{3},
		},
	}

	chain := NewFilterChain(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := chain.Apply(sampleCatalog(), &tt.spec)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterChain_RollbackKeepsPreviousSurvivors(t *testing.T) {
	chain := NewFilterChain(nil)
	spec := &core.FilterSpec{
		Genres:    []string{"fantasy"},
		MinRating: 4.9, // nothing qualifies
		Language:  "en",
	}

	got, reports := chain.Apply(sampleCatalog(), spec)

	// genre keeps 1,3,4; rating rolls back; language keeps 1,3
	assert.Equal(t, []core.ID{1, 3}, ids(got))
	require.Len(t, reports, 3)
	assert.Equal(t, StageReport{Stage: StageGenre, Before: 5, After: 3}, reports[0])
	assert.Equal(t, StageReport{Stage: StageRating, Before: 3, After: 3, RolledBack: true}, reports[1])
	assert.Equal(t, StageReport{Stage: StageLanguage, Before: 3, After: 2}, reports[2])
}

func TestFilterChain_NeverEmptiesNonEmptyInput(t *testing.T) {
	chain := NewFilterChain(nil)
	spec := &core.FilterSpec{
		Genres:    []string{"cookbooks"},
		Author:    "nobody",
		YearMin:   1700,
		YearMax:   1701,
		MinRating: 5,
		Language:  "fr",
	}

	items := sampleCatalog()[:2] // both have categories, so genre can exclude them
	got, reports := chain.Apply(items, spec)

	assert.Equal(t, ids(items), ids(got))
	for _, r := range reports {
		assert.True(t, r.RolledBack, r.Stage)
	}
}

func TestFilterChain_SurvivorsAreSubset(t *testing.T) {
	chain := NewFilterChain(nil)
	items := sampleCatalog()

	got, _ := chain.Apply(items, &core.FilterSpec{Author: "smith", YearMax: 2000})

	assert.Subset(t, ids(items), ids(got))
	assert.Equal(t, []core.ID{1}, ids(got))
}

func TestFilterChain_EmptyInput(t *testing.T) {
	chain := NewFilterChain(nil)
	got, reports := chain.Apply(nil, &core.FilterSpec{Author: "smith"})
	assert.Empty(t, got)
	assert.Empty(t, reports)
}

func TestFilterChain_ApplyFused(t *testing.T) {
	chain := NewFilterChain(nil)
	byID := map[core.ID]*core.Item{}
	for _, item := range sampleCatalog() {
		byID[item.Id] = item
	}

	fused := core.FusedSet{5, 3, 99, 1}
	got, _ := chain.ApplyFused(fused, byID, &core.FilterSpec{MinRating: 4})

	assert.Equal(t, core.FusedSet{5, 3, 1}, got)
}
