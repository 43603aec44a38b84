package catalog

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
)

// Repository persists catalog items.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) List(ctx context.Context, includeInactive bool) ([]models.CatalogItem, error) {
	q := r.db.WithContext(ctx).Order("id ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	var rows []models.CatalogItem
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FindByID(ctx context.Context, id int) (*models.CatalogItem, error) {
	var row models.CatalogItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// NextID returns MAX(id)+1. Call it inside the transaction that inserts.
func (r *Repository) NextID(ctx context.Context) (int, error) {
	var next int
	err := r.db.WithContext(ctx).
		Model(&models.CatalogItem{}).
		Select("COALESCE(MAX(id), 0) + 1").
		Scan(&next).Error
	return next, err
}

func (r *Repository) Create(ctx context.Context, item *models.CatalogItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) Update(ctx context.Context, id int, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.CatalogItem{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// InsertMissing inserts rows whose id is not present yet and reports how many were added.
func (r *Repository) InsertMissing(ctx context.Context, rows []models.CatalogItem) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&rows)
	return res.RowsAffected, res.Error
}
