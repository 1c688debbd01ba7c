package catalog

import (
	"strings"

	"github.com/poiesic/bookfinder/core"
)

// Record is one line of a catalog file. Alternate field names found in
// older exports are accepted alongside the canonical ones.
type Record struct {
	BookID          core.ID   `json:"bookID"`
	BookIDAlt       core.ID   `json:"book_id"`
	Title           string    `json:"title"`
	Authors         string    `json:"authors"`
	AverageRating   float64   `json:"average_rating"`
	PublicationDate string    `json:"publication_date"`
	PublishedYear   string    `json:"published_year"`
	Category        string    `json:"google_category"`
	CategoryAlt     string    `json:"categories"`
	Description     string    `json:"description"`
	SearchText      string    `json:"search_text"`
	Language        string    `json:"language"`
	ISBN            string    `json:"clean_isbn"`
	Thumbnail       string    `json:"thumbnail"`
	PreviewLink     string    `json:"preview_link"`
	Publisher       string    `json:"publisher"`
	NumPages        int       `json:"num_pages"`
	Vector          []float32 `json:"vector"`
}

// Item converts the record into a catalog item. The vector is copied
// unnormalized.
func (r *Record) Item() *core.Item {
	item := &core.Item{
		Id:            r.BookID,
		Title:         strings.TrimSpace(r.Title),
		Authors:       strings.TrimSpace(r.Authors),
		Categories:    strings.TrimSpace(firstNonEmpty(r.Category, r.CategoryAlt)),
		Description:   r.Description,
		SearchText:    r.SearchText,
		PublishedDate: strings.TrimSpace(firstNonEmpty(r.PublicationDate, r.PublishedYear)),
		AverageRating: r.AverageRating,
		Language:      strings.TrimSpace(r.Language),
		ISBN:          r.ISBN,
		Thumbnail:     r.Thumbnail,
		PreviewLink:   r.PreviewLink,
		Publisher:     r.Publisher,
		NumPages:      r.NumPages,
		Vector:        r.Vector,
	}
	if item.Id == 0 {
		item.Id = r.BookIDAlt
	}
	return item
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
