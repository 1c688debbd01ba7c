package search

import "github.com/poiesic/bookfinder/core"

// Merge unions candidate sets into a duplicate-free FusedSet. Generator
// scores are dropped. IDs keep the order in which they are first seen,
// so the first set's ranking leads.
func Merge(sets ...core.CandidateSet) core.FusedSet {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	seen := make(map[core.ID]struct{}, n)
	fused := make(core.FusedSet, 0, n)
	for _, s := range sets {
		for _, c := range s {
			if _, ok := seen[c.Id]; ok {
				continue
			}
			seen[c.Id] = struct{}{}
			fused = append(fused, c.Id)
		}
	}
	return fused
}
