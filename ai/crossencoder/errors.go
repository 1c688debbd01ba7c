package crossencoder

import "errors"

var (
	// ErrUnexpectedStatus indicates the rerank service answered with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected rerank status")

	// ErrMalformedResponse indicates a response body that could not be mapped to scores.
	ErrMalformedResponse = errors.New("malformed rerank response")
)
