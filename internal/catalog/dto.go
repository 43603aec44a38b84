package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
)

// Item is a purchasable catalog entry.
type Item struct {
	ID          int
	Name        string
	Price       decimal.Decimal
	Category    string
	Image       string
	Description string
	Stock       int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemDTO is the wire shape of an Item.
type ItemDTO struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Stock       int    `json:"stock"`
	IsActive    bool   `json:"isActive"`
}

func (i Item) DTO() ItemDTO {
	return ItemDTO{
		ID:          i.ID,
		Name:        i.Name,
		Price:       i.Price.StringFixed(2),
		Category:    i.Category,
		Image:       i.Image,
		Description: i.Description,
		Stock:       i.Stock,
		IsActive:    i.IsActive,
	}
}

func ToDTOs(items []Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(items))
	for _, it := range items {
		out = append(out, it.DTO())
	}
	return out
}

// CreateItemInput carries the admin create form.
type CreateItemInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"required,max=100"`
	Image       string          `json:"image" validate:"omitempty,max=2048"`
	Description string          `json:"description" validate:"max=4000"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// UpdateItemInput is a partial update; nil fields are left unchanged.
type UpdateItemInput struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Image       *string          `json:"image" validate:"omitempty,max=2048"`
	Description *string          `json:"description" validate:"omitempty,max=4000"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"isActive"`
}

func fromModel(m models.CatalogItem) Item {
	return Item{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		Category:    m.Category,
		Image:       m.Image,
		Description: m.Description,
		Stock:       m.Stock,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromModels(rows []models.CatalogItem) []Item {
	out := make([]Item, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromModel(r))
	}
	return out
}
