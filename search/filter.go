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


package search

import (
	"log/slog"
	"strings"

	"github.com/poiesic/bookfinder/core"
	"github.com/poiesic/bookfinder/metrics"
)

// Filter stage names, in application order.
const (
	StageGenre    = "genre"
	StageAuthor   = "author"
	StageYear     = "year"
	StageRating   = "rating"
	StageLanguage = "language"
)

// StageReport describes what one filter stage did.
type StageReport struct {
	Stage string
	// Before and After are the candidate counts around the stage.
	Before int
	After  int
	// RolledBack is set when the stage would have removed every candidate
	// and its output was discarded.
	RolledBack bool
}

type filterStage struct {
	name   string
	active func(f *core.FilterSpec) bool
	keep   func(item *core.Item, f *core.FilterSpec) bool
}

var filterStages = []filterStage{
	{
		name:   StageGenre,
		active: func(f *core.FilterSpec) bool { return len(f.Genres) > 0 },
		keep:   matchGenre,
	},
	{
		name:   StageAuthor,
		active: func(f *core.FilterSpec) bool { return f.Author != "" },
		keep: func(item *core.Item, f *core.FilterSpec) bool {
			return containsFold(item.Authors, f.Author)
		},
	},
	{
		name:   StageYear,
		active: func(f *core.FilterSpec) bool { return f.HasYearRange() },
		keep:   matchYear,
	},
	{
		name:   StageRating,
		active: func(f *core.FilterSpec) bool { return f.MinRating > 0 },
		keep: func(item *core.Item, f *core.FilterSpec) bool {
			return item.AverageRating >= f.MinRating
		},
	},
	{
		name:   StageLanguage,
		active: func(f *core.FilterSpec) bool { return f.Language != "" },
		keep: func(item *core.Item, f *core.FilterSpec) bool {
			return containsFold(item.Language, f.Language)
		},
	},
}

// An item with no category text passes every genre constraint.
func matchGenre(item *core.Item, f *core.FilterSpec) bool {
	if strings.TrimSpace(item.Categories) == "" {
		return true
	}
	for _, genre := range f.Genres {
		if containsFold(item.Categories, genre) {
			return true
		}
	}
	return false
}

// Items whose year cannot be parsed never satisfy a year range.
func matchYear(item *core.Item, f *core.FilterSpec) bool {
	year, ok := item.Year()
	if !ok {
		return false
	}
	if f.YearMin != 0 && year < f.YearMin {
		return false
	}
	if f.YearMax != 0 && year > f.YearMax {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// FilterChain applies structured constraints progressively. Each stage
// narrows the survivors of the previous one; a stage that would leave
// nothing is skipped and the previous survivors carry forward.
type FilterChain struct {
	logger *slog.Logger
}

// NewFilterChain creates a filter chain.
func NewFilterChain(logger *slog.Logger) *FilterChain {
	if logger == nil {
		logger = slog.Default()
	}
	return &FilterChain{logger: logger.With("component", "filter-chain")}
}

// Apply filters items, which must be in fused order, and returns the
// survivors in the same order along with one report per active stage.
// A nil or empty spec returns items unchanged. The result is empty only
// when items is empty.
func (c *FilterChain) Apply(items []*core.Item, spec *core.FilterSpec) ([]*core.Item, []StageReport) {
	if spec.IsEmpty() || len(items) == 0 {
		return items, nil
	}

	current := items
	reports := make([]StageReport, 0, len(filterStages))
	for _, stage := range filterStages {
		if !stage.active(spec) {
			continue
		}

		next := make([]*core.Item, 0, len(current))
		for _, item := range current {
			if stage.keep(item, spec) {
				next = append(next, item)
			}
		}

		report := StageReport{Stage: stage.name, Before: len(current), After: len(next)}
		if len(next) == 0 {
			report.RolledBack = true
			report.After = len(current)
			metrics.RecordFilterRollback(stage.name)
			c.logger.Debug("filter stage rolled back", "stage", stage.name, "candidates", len(current))
		} else {
			current = next
		}
		reports = append(reports, report)
	}

	return current, reports
}

// ApplyFused is Apply expressed over identifiers: items supplies the
// attributes, fused the order. IDs without attributes are dropped.
func (c *FilterChain) ApplyFused(fused core.FusedSet, items map[core.ID]*core.Item, spec *core.FilterSpec) (core.FusedSet, []StageReport) {
	ordered := make([]*core.Item, 0, len(fused))
	for _, id := range fused {
		if item, ok := items[id]; ok {
			ordered = append(ordered, item)
		}
	}
	survivors, reports := c.Apply(ordered, spec)
	out := make(core.FusedSet, len(survivors))
	for i, item := range survivors {
		out[i] = item.Id
	}
	return out, reports
}
