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
	"errors"

	"github.com/poiesic/bookfinder/storage"
)

var (
	// ErrItemRepositoryRequired is returned when an item repository is not provided.
	ErrItemRepositoryRequired = errors.New("item repository required")

	// ErrKeywordIndexRequired is returned when a keyword index is not provided.
	ErrKeywordIndexRequired = errors.New("keyword index required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmptyQuery is returned for a blank query with no filters.
	ErrEmptyQuery = errors.New("query is required")

	// ErrEncoding indicates the query could not be embedded.
	// Search continues with lexical candidates only.
	ErrEncoding = errors.New("query encoding failed")

	// ErrIndexUnavailable indicates a candidate index could not be queried.
	// Search continues with the other generator.
	ErrIndexUnavailable = storage.ErrIndexUnavailable

	// ErrAllGeneratorsFailed is returned when no generator produced candidates.
	ErrAllGeneratorsFailed = errors.New("all candidate generators failed")

	// ErrRerank indicates the relevance scorer failed on a non-empty candidate set.
	ErrRerank = errors.New("rerank failed")
)
