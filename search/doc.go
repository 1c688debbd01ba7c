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


// Package search provides hybrid lexical and semantic book search.
//
// The Searcher runs a multi-stage pipeline:
//   - Keyword candidates from a TF-IDF index and nearest-neighbor candidates
//     from embedded vectors, generated concurrently
//   - Fusion of both candidate lists into one duplicate-free set
//   - Progressive structured filtering that never empties a non-empty set
//   - Pairwise relevance reranking of the survivors
//
// A failure in one generator degrades the search to the other; only the
// failure of both is returned to the caller.
package search
