// Package crossencoder scores (query, document) pairs with a remote
// cross-encoder model.
//
// The client speaks the rerank protocol of Hugging Face
// text-embeddings-inference: POST {host}/rerank with
// {"query": ..., "texts": [...]} answered by [{"index": i, "score": s}, ...].
// Cohere-style {"results": [{"index", "relevance_score"}]} bodies are also
// accepted.
//
//	scorer, err := crossencoder.NewScorer(ai.NewConfig(ai.WithRerankHost("http://reranker:8080")))
//	scores, err := scorer.Score(ctx, "dragons", []string{"Dragon's Lair by A. Writer"})
package crossencoder
