// Package catalog bulk-loads precomputed book records into the item store
// and keyword index.
//
// Input is JSON Lines, one book record per line, using the same field names
// the HTTP API returns (bookID, title, authors, google_category, ...) plus an
// optional "vector" holding a precomputed embedding. Vectors are normalized
// on load; no embeddings are computed here.
package catalog
