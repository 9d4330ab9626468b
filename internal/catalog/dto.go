package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/muraqqa/storefront/pkg/db/models"
	"github.com/muraqqa/storefront/pkg/pagination"
)

// Entry is one catalog item as shown in a listing.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Artist      string    `json:"artist"`
	Category    string    `json:"category"`
	Medium      string    `json:"medium"`
	ImageURL    string    `json:"imageUrl"`
	Price       int64     `json:"price"`
	Year        int       `json:"year"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Available reports whether the entry can still be bought.
func (e Entry) Available() bool {
	return e.Stock > 0
}

// Page is the result of one catalog query.
type Page struct {
	Items      []Entry         `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}

// Facets lists the values a shopper can filter on.
type Facets struct {
	Categories    []string `json:"categories"`
	SecondaryTags []string `json:"secondaryTags"`
	Bounds        Bounds   `json:"bounds"`
}

func entryFromModel(m models.Artwork) Entry {
	return Entry{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Artist:      m.Artist,
		Category:    m.Category,
		Medium:      m.Medium,
		ImageURL:    m.ImageURL,
		Price:       m.Price,
		Year:        m.Year,
		Stock:       m.Stock,
		CreatedAt:   m.CreatedAt,
	}
}
