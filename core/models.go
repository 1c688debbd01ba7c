package core

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for catalog items.
// Catalog loads carry their own IDs; a zero ID is assigned from a database sequence.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Item is a single book in the catalog.
// Items are immutable while the search service is running.
type Item struct {
	Id            ID
	Title         string
	Authors       string
	Categories    string // freeform, may be empty
	Description   string
	SearchText    string // precomputed text used for relevance scoring
	PublishedDate string // "YYYY-MM-DD", "YYYY" or unknown
	AverageRating float64
	Language      string
	ISBN          string
	Thumbnail     string
	PreviewLink   string
	Publisher     string
	NumPages      int
	Vector        []float32 // L2-normalized embedding, may be absent
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// Year returns the publication year taken from the first four characters
// of PublishedDate. ok is false when the year cannot be parsed.
func (i *Item) Year() (year int, ok bool) {
	if len(i.PublishedDate) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(i.PublishedDate[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}

// RerankText builds the text paired with a query for relevance scoring:
// title, authors and the search text (or description), bounded to maxRunes.
// A non-positive maxRunes disables the bound.
func (i *Item) RerankText(maxRunes int) string {
	var sb strings.Builder
	sb.WriteString(i.Title)
	if i.Authors != "" {
		sb.WriteString(" by ")
		sb.WriteString(i.Authors)
	}
	body := i.SearchText
	if body == "" {
		body = i.Description
	}
	if body != "" {
		sb.WriteString(". ")
		sb.WriteString(body)
	}
	return truncateRunes(sb.String(), maxRunes)
}

func truncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	n := 0
	for idx := range s {
		if n == maxRunes {
			return s[:idx]
		}
		n++
	}
	return s
}

// Candidate is an item ID paired with the score assigned by one generator.
type Candidate struct {
	Id    ID
	Score float32
}

// CandidateSet is the ordered output of a single candidate generator.
// Scores from different generators are not comparable.
type CandidateSet []Candidate

// IDs returns the candidate IDs in rank order.
func (cs CandidateSet) IDs() []ID {
	ids := make([]ID, len(cs))
	for i, c := range cs {
		ids[i] = c.Id
	}
	return ids
}

// FusedSet is a duplicate-free sequence of item IDs drawn from one or more
// candidate sets. Its order is the iteration order used for stable ranking.
type FusedSet []ID

// SimilarityMatch represents an item match from vector similarity search.
type SimilarityMatch struct {
	Id    ID
	Score float32
}

// RankedResult is a reranked item with its final relevance score.
type RankedResult struct {
	Item  *Item
	Score float32
}
