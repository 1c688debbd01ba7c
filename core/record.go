package core

import "strings"

// BookRecord is the external attribute record returned by every boundary
// operation. Field names are fixed regardless of how items are stored.
type BookRecord struct {
	BookID          ID       `json:"bookID"`
	Title           string   `json:"title"`
	Authors         string   `json:"authors"`
	AverageRating   float64  `json:"average_rating"`
	PublishedYear   string   `json:"published_year"`
	PublicationDate string   `json:"publication_date"`
	Category        string   `json:"google_category"`
	Description     string   `json:"description"`
	Language        string   `json:"language"`
	ISBN            string   `json:"clean_isbn"`
	Thumbnail       string   `json:"thumbnail"`
	PreviewLink     string   `json:"preview_link"`
	Publisher       string   `json:"publisher"`
	NumPages        int      `json:"num_pages"`
	Score           *float32 `json:"score,omitempty"`
}

// NewBookRecord denormalizes an item into its external record.
func NewBookRecord(item *Item) BookRecord {
	rec := BookRecord{
		BookID:          item.Id,
		Title:           item.Title,
		Authors:         item.Authors,
		AverageRating:   item.AverageRating,
		PublicationDate: item.PublishedDate,
		Category:        strings.TrimSpace(item.Categories),
		Description:     item.Description,
		Language:        item.Language,
		ISBN:            item.ISBN,
		Thumbnail:       item.Thumbnail,
		PreviewLink:     item.PreviewLink,
		Publisher:       item.Publisher,
		NumPages:        item.NumPages,
	}
	if len(item.PublishedDate) >= 4 {
		rec.PublishedYear = item.PublishedDate[:4]
	}
	return rec
}

// NewScoredBookRecord denormalizes a ranked result, carrying its score.
func NewScoredBookRecord(result RankedResult) BookRecord {
	rec := NewBookRecord(result.Item)
	score := result.Score
	rec.Score = &score
	return rec
}
