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


// Package ai provides abstractions for the model services used by bookfinder.
//
// This package defines interfaces for the two opaque model collaborators of the
// search pipeline: a text embedder for semantic candidate generation and a
// pairwise relevance scorer for reranking. Business logic depends on these
// abstractions rather than on concrete model servers.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - Scorer: Scores (query, document) pairs with a cross-encoder
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Embeddings through OpenAI-compatible APIs, plus the provider
//   - ai/crossencoder: HTTP client for a text-embeddings-inference rerank endpoint
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder,
// crossencoder.NewScorer) return INTERFACE types to enforce abstraction.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockScorer)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public methods (CallCount, WithXFunc, Reset, etc.).
//
//	mockScorer := mock.NewMockScorer()
//	mockScorer.WithScoreFunc(...)
//	count := mockScorer.CallCount()
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "dragons and wizards")
//	scores, err := provider.Scorer().Score(ctx, "dragons", []string{"Dragon's Lair by A. Writer"})
package ai
