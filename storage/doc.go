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


// Package storage provides the storage abstraction layer for bookfinder.
//
// This package defines the index interfaces consumed by the search pipeline and
// the recommendation engine. Implementations live in subpackages:
//
//   - badger: item repository and exact inner-product vector index on BadgerDB
//   - fulltext: keyword relevance index on bleve
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface types defined here:
//
//	repo, err := badger.NewItemRepository(backend)  // returns storage.ItemRepository
//	index, err := fulltext.NewMemoryIndex()         // returns storage.KeywordIndex
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repo, err := badger.NewMemoryItemRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// # Thread Safety
//
// All implementations must be thread-safe. The catalog is loaded before
// serving starts and is read-only while queries run.
package storage
