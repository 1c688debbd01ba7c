package recommend

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/poiesic/bookfinder/core"
)

// ParseSeeds converts loosely typed seed identifiers, as decoded from JSON,
// into item IDs. Integral numbers and numeric strings are accepted; anything
// else is dropped. Duplicates are removed, keeping the first occurrence.
func ParseSeeds(raw []any) []core.ID {
	ids := make([]core.ID, 0, len(raw))
	for _, v := range raw {
		if id, ok := parseSeed(v); ok {
			ids = append(ids, id)
		}
	}
	return DedupeSeeds(ids)
}

func parseSeed(v any) (core.ID, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 || n != math.Trunc(n) || n >= 1<<63 {
			return 0, false
		}
		return core.ID(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return core.ID(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return core.ID(n), true
	case uint64:
		return core.ID(n), true
	case core.ID:
		return n, true
	case json.Number:
		return parseSeedString(n.String())
	case string:
		return parseSeedString(n)
	default:
		return 0, false
	}
}

func parseSeedString(s string) (core.ID, bool) {
	u, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return core.ID(u), true
}

// DedupeSeeds removes repeated IDs, keeping first-seen order.
func DedupeSeeds(seeds []core.ID) []core.ID {
	seen := make(map[core.ID]struct{}, len(seeds))
	out := make([]core.ID, 0, len(seeds))
	for _, id := range seeds {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
