// Package server exposes search, recommendations and book lookup over HTTP.
//
// Routes:
//
//	GET  /search?q=dragon&genres=fantasy&min_rating=4   ranked book records
//	POST /search      {"query": "...", "filters": {...}, "limit": 10}
//	POST /recommend   {"liked_ids": [1, 2], "limit": 5}
//	GET  /book/{id}   a single book record
//	GET  /healthz     liveness and catalog check
//	GET  /metrics     Prometheus metrics
//
// Successful responses are bare JSON arrays or objects of book records using
// the fixed external field names of core.BookRecord. Errors are
// {"error": "..."} with a 400, 404, 429 or 500 status; 500 bodies never carry
// internal error text.
package server
