package models

import (
	"time"

	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order is a settled checkout. Only Status and UpdatedAt change after insert.
type Order struct {
	ID                    string            `gorm:"column:id;type:text;primaryKey"`
	IdentityID            string            `gorm:"column:identity_id;type:text;not null;index:idx_orders_identity_created,priority:1"`
	Subtotal              decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax                   decimal.Decimal   `gorm:"column:tax;type:numeric(12,2);not null"`
	Total                 decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Currency              string            `gorm:"column:currency;type:text;not null;default:'USD'"`
	Status                enums.OrderStatus `gorm:"column:status;type:text;not null"`
	ShippingStreet        string            `gorm:"column:shipping_street;type:text;not null"`
	ShippingCity          string            `gorm:"column:shipping_city;type:text;not null"`
	ShippingState         string            `gorm:"column:shipping_state;type:text;not null"`
	ShippingZipCode       string            `gorm:"column:shipping_zip_code;type:text;not null"`
	ShippingCountry       string            `gorm:"column:shipping_country;type:text;not null"`
	PaymentConfirmationID string            `gorm:"column:payment_confirmation_id;type:text;not null"`
	CreatedAt             time.Time         `gorm:"column:created_at;not null;index:idx_orders_identity_created,priority:2"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;not null"`
	LineItems             []OrderLineItem   `gorm:"foreignKey:OrderID;references:ID"`
}

func (Order) TableName() string { return "orders" }

// OrderLineItem snapshots one cart line at purchase time.
type OrderLineItem struct {
	OrderID       string          `gorm:"column:order_id;type:text;primaryKey"`
	Position      int             `gorm:"column:position;primaryKey;autoIncrement:false"`
	CatalogItemID int             `gorm:"column:catalog_item_id;not null"`
	Name          string          `gorm:"column:name;type:text;not null"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity      int             `gorm:"column:quantity;not null"`
}

func (OrderLineItem) TableName() string { return "order_line_items" }
