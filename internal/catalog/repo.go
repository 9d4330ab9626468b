package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muraqqa/storefront/pkg/db/models"
	"github.com/muraqqa/storefront/pkg/enums"
	"github.com/muraqqa/storefront/pkg/pagination"
)

// Repository is the gorm-backed catalog provider.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to a database handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a catalog entry.
func (r *Repository) Create(ctx context.Context, artwork *models.Artwork) error {
	return r.db.WithContext(ctx).Create(artwork).Error
}

// FindByID returns an active artwork.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&artwork).Error
	if err != nil {
		return nil, err
	}
	return &artwork, nil
}

// FindByIDs returns active artworks keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Artwork, error) {
	out := make(map[uuid.UUID]models.Artwork, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Artwork
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}

// List runs the filtered, sorted, paginated listing. Requests past the last
// page are answered with the last page.
func (r *Repository) List(ctx context.Context, criteria FilterCriteria, params pagination.Params) (Page, error) {
	params = params.Normalize()
	params.Page = criteria.Page
	params = params.Normalize()

	base := r.filtered(ctx, criteria)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page{}, err
	}

	if pages := pagination.TotalPages(total, params.Limit); pages > 0 && params.Page > pages {
		params.Page = pages
	}

	var rows []models.Artwork
	query := base.Session(&gorm.Session{})
	for _, order := range orderClauses(criteria.SortKey) {
		query = query.Order(order)
	}
	if err := query.Offset(params.Offset()).Limit(params.Limit).Find(&rows).Error; err != nil {
		return Page{}, err
	}

	items := make([]Entry, 0, len(rows))
	for _, row := range rows {
		items = append(items, entryFromModel(row))
	}
	return Page{Items: items, Pagination: pagination.NewMeta(params, total)}, nil
}

func (r *Repository) filtered(ctx context.Context, criteria FilterCriteria) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Artwork{}).Where("is_active = ?", true)
	if criteria.Category != nil {
		q = q.Where("category = ?", *criteria.Category)
	}
	if criteria.SecondaryTag != nil {
		q = q.Where("medium = ?", *criteria.SecondaryTag)
	}
	if term := strings.TrimSpace(criteria.SearchText); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where(
			`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(artist) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\' OR LOWER(medium) LIKE ? ESCAPE '\')`,
			like, like, like, like, like,
		)
	}
	if criteria.PriceRange != nil {
		q = q.Where("price_amount BETWEEN ? AND ?", criteria.PriceRange.Min, criteria.PriceRange.Max)
	}
	if criteria.YearRange != nil {
		q = q.Where("year BETWEEN ? AND ?", criteria.YearRange.Min, criteria.YearRange.Max)
	}
	switch criteria.Availability {
	case enums.AvailabilityAvailable:
		q = q.Where("stock > 0")
	case enums.AvailabilitySold:
		q = q.Where("stock <= 0")
	}
	return q
}

func orderClauses(key enums.SortKey) []string {
	switch key {
	case enums.SortKeyOldest:
		return []string{"created_at ASC", "id ASC"}
	case enums.SortKeyPriceAsc:
		return []string{"price_amount ASC", "created_at DESC", "id ASC"}
	case enums.SortKeyPriceDesc:
		return []string{"price_amount DESC", "created_at DESC", "id ASC"}
	default:
		return []string{"created_at DESC", "id DESC"}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// Facets returns the distinct categories and secondary tags of active entries.
func (r *Repository) Facets(ctx context.Context) (Facets, error) {
	var facets Facets
	if err := r.db.WithContext(ctx).Model(&models.Artwork{}).
		Where("is_active = ?", true).
		Distinct().
		Order("category").
		Pluck("category", &facets.Categories).Error; err != nil {
		return Facets{}, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Artwork{}).
		Where("is_active = ? AND medium <> ''", true).
		Distinct().
		Order("medium").
		Pluck("medium", &facets.SecondaryTags).Error; err != nil {
		return Facets{}, err
	}
	if facets.Categories == nil {
		facets.Categories = []string{}
	}
	if facets.SecondaryTags == nil {
		facets.SecondaryTags = []string{}
	}
	return facets, nil
}

type boundsRow struct {
	PriceMin *int64
	PriceMax *int64
	YearMin  *int64
	YearMax  *int64
}

// Bounds returns the price and year extents of active entries; an empty
// catalog yields empty bounds.
func (r *Repository) Bounds(ctx context.Context) (Bounds, error) {
	var row boundsRow
	err := r.db.WithContext(ctx).Model(&models.Artwork{}).
		Select("MIN(price_amount) AS price_min, MAX(price_amount) AS price_max, MIN(year) AS year_min, MAX(year) AS year_max").
		Where("is_active = ?", true).
		Scan(&row).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return Bounds{}, err
	}
	return Bounds{
		Price: Range{Min: deref(row.PriceMin), Max: deref(row.PriceMax)},
		Year:  Range{Min: deref(row.YearMin), Max: deref(row.YearMax)},
	}, nil
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
