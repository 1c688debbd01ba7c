package server

import "errors"

var (
	// ErrSearcherRequired is returned when a searcher is not provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrRecommenderRequired is returned when a recommender is not provided.
	ErrRecommenderRequired = errors.New("recommender required")

	// ErrBookStoreRequired is returned when a book store is not provided.
	ErrBookStoreRequired = errors.New("book store required")

	// ErrBadRequest wraps request decoding and validation failures.
	ErrBadRequest = errors.New("bad request")
)

// Error bodies returned to clients.
const (
	msgQueryRequired  = "Query is required"
	msgBookNotFound   = "Book not found"
	msgInternalError  = "Internal Server Error"
	msgRateLimited    = "Too Many Requests"
	msgInvalidBookID  = "Invalid book ID"
	msgRequestTooLong = "Request body too large"
)
