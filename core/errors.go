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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidItem indicates an Item failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidRating indicates a rating outside the 0-5 scale.
	ErrInvalidRating = errors.New("rating out of range")

	// ErrInvalidPageCount indicates a negative page count.
	ErrInvalidPageCount = errors.New("page count cannot be negative")

	// ErrInvalidFilter indicates a FilterSpec with contradictory or out-of-range values.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrInvalidVectorLength indicates an encoded vector with an impossible length.
	ErrInvalidVectorLength = errors.New("invalid encoded vector length")
)

// MaxRating is the top of the average rating scale.
const MaxRating = 5.0
