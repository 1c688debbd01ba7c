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

import (
	"fmt"
)

// ValidateItem validates an Item according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - AverageRating must be within [0, MaxRating]
//   - NumPages must not be negative
//
// NOT validated:
//   - Vector (items without an embedding are still searchable lexically)
//   - PublishedDate (an unparseable year only excludes the item from year filters)
//   - ID (0 is valid and replaced from the database sequence)
func ValidateItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if item.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyTitle)
	}

	if item.AverageRating < 0 || item.AverageRating > MaxRating {
		return fmt.Errorf("%w: %w: %.2f", ErrInvalidItem, ErrInvalidRating, item.AverageRating)
	}

	if item.NumPages < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrInvalidPageCount)
	}

	return nil
}
