package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogItem is a purchasable product.
type CatalogItem struct {
	ID          int             `gorm:"column:id;primaryKey;autoIncrement:false"`
	Name        string          `gorm:"column:name;type:text;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Category    string          `gorm:"column:category;type:text;not null"`
	Image       string          `gorm:"column:image;type:text;not null"`
	Description string          `gorm:"column:description;type:text;not null"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;not null"`
}

func (CatalogItem) TableName() string { return "catalog_items" }
