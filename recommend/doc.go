// Package recommend derives "more like these" recommendations from the
// nearest neighbors of one or more seed items.
//
// Seed lookups run concurrently on an ants pool; their results are merged in
// seed order by a single writer so the output is deterministic.
package recommend
