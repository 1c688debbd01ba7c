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


package catalog

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/poiesic/bookfinder/core"
)

const (
	// DefaultBatchSize is the default number of records written per batch
	DefaultBatchSize = 100

	// MaxLineBytes bounds a single catalog line, vector included.
	MaxLineBytes = 16 << 20
)

// LineError describes a catalog line that could not be decoded.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// RecordReader decodes JSON Lines catalog records in batches.
type RecordReader struct {
	r         io.Reader
	batchSize int
}

// NewRecordReader creates a new record reader.
// batchSize: number of items handed to fn per call (defaults when <= 0)
func NewRecordReader(r io.Reader, batchSize int) *RecordReader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &RecordReader{
		r:         r,
		batchSize: batchSize,
	}
}

// ForEach decodes every record, calling fn for each full batch and once for
// the final partial batch. Blank lines are ignored. Lines that fail to decode
// are passed to onBad, which may return an error to stop reading.
// Context cancellation is checked between batches.
func (rr *RecordReader) ForEach(ctx context.Context, fn func([]*core.Item) error, onBad func(*LineError) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(rr.r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	batch := make([]*core.Item, 0, rr.batchSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			if onBad != nil {
				if err := onBad(&LineError{Line: lineNo, Err: fmt.Errorf("%w: %w", ErrMalformedRecord, err)}); err != nil {
					return err
				}
			}
			continue
		}
		batch = append(batch, rec.Item())

		if len(batch) == rr.batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]*core.Item, 0, rr.batchSize)

			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading catalog after line %d: %w", lineNo, err)
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// CountLines returns the number of non-blank lines in r.
func CountLines(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	n := 0
	for scanner.Scan() {
		if len(bytes.TrimSpace(scanner.Bytes())) > 0 {
			n++
		}
	}
	return n, scanner.Err()
}
