package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/crownleather-backend/pkg/db"
	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	"github.com/angelmondragon/crownleather-backend/pkg/pagination"
)

// Repository persists orders and their line items.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Insert writes the order and its line items. A duplicate id yields ErrDuplicateOrder.
func (r *Repository) Insert(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, "orders_pkey") {
			return ErrDuplicateOrder
		}
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var row models.Order
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListPage returns up to limit orders newest first, strictly after cursor.
func (r *Repository) ListPage(ctx context.Context, filter Filter, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("LineItems", func(q *gorm.DB) *gorm.DB { return q.Order("position ASC") }).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if filter.IdentityID != "" {
		q = q.Where("identity_id = ?", filter.IdentityID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Order
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status enums.OrderStatus, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LockByID loads the order row for update inside a transaction on Postgres.
func (r *Repository) LockByID(ctx context.Context, id string) (*models.Order, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == db.DriverPostgres {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row models.Order
	if err := q.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

type identityTotals struct {
	IdentityID string
	OrderCount int64
	TotalSpent decimal.Decimal
}

type identityLastOrder struct {
	IdentityID string
	CreatedAt  time.Time
}

type statusCount struct {
	Status enums.OrderStatus
	Count  int64
}

type productSales struct {
	CatalogItemID int
	Name          string
	Units         int64
	Revenue       decimal.Decimal
}

type revenueRow struct {
	Revenue decimal.Decimal
	Orders  int64
}

func (r *Repository) customers(ctx context.Context) ([]models.Identity, error) {
	var rows []models.Identity
	err := r.db.WithContext(ctx).
		Where("role = ?", enums.RoleCustomer).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) totalsByIdentity(ctx context.Context) ([]identityTotals, error) {
	var rows []identityTotals
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("identity_id, COUNT(*) AS order_count, COALESCE(SUM(total), 0) AS total_spent").
		Where("status <> ?", enums.OrderStatusCancelled).
		Group("identity_id").
		Scan(&rows).Error
	return rows, err
}

// lastOrders returns each identity's most recent order time. The correlated
// subquery keeps created_at a plain column so drivers scan it as a timestamp.
func (r *Repository) lastOrders(ctx context.Context) ([]identityLastOrder, error) {
	var rows []identityLastOrder
	err := r.db.WithContext(ctx).
		Table("orders AS o").
		Select("o.identity_id, o.created_at").
		Where("NOT EXISTS (SELECT 1 FROM orders n WHERE n.identity_id = o.identity_id AND n.created_at > o.created_at)").
		Scan(&rows).Error
	return rows, err
}

func (r *Repository) statusCounts(ctx context.Context) ([]statusCount, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// revenue sums totals over orders that were not cancelled.
func (r *Repository) revenue(ctx context.Context) (revenueRow, error) {
	var row revenueRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS revenue, COUNT(*) AS orders").
		Where("status <> ?", enums.OrderStatusCancelled).
		Scan(&row).Error
	return row, err
}

func (r *Repository) topProducts(ctx context.Context, limit int) ([]productSales, error) {
	var rows []productSales
	err := r.db.WithContext(ctx).
		Table("order_line_items AS li").
		Select("li.catalog_item_id, MAX(li.name) AS name, SUM(li.quantity) AS units, SUM(li.unit_price * li.quantity) AS revenue").
		Joins("JOIN orders o ON o.id = li.order_id").
		Where("o.status <> ?", enums.OrderStatusCancelled).
		Group("li.catalog_item_id").
		Order("units DESC").
		Order("li.catalog_item_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
