package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	"github.com/angelmondragon/crownleather-backend/pkg/types"
)

// LineItem is a cart line frozen at purchase time.
type LineItem struct {
	CatalogItemID int
	Name          string
	UnitPrice     decimal.Decimal
	Quantity      int
}

// Order is a settled checkout. Only Status changes after it is recorded.
type Order struct {
	ID                    string
	IdentityID            string
	LineItems             []LineItem
	Subtotal              decimal.Decimal
	Tax                   decimal.Decimal
	Total                 decimal.Decimal
	Currency              string
	Status                enums.OrderStatus
	Shipping              types.Address
	PaymentConfirmationID string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type LineItemDTO struct {
	CatalogItemID int    `json:"catalogItemId"`
	Name          string `json:"name"`
	UnitPrice     string `json:"unitPrice"`
	Quantity      int    `json:"quantity"`
}

type OrderDTO struct {
	ID                    string            `json:"id"`
	IdentityID            string            `json:"identityId"`
	LineItems             []LineItemDTO     `json:"lineItems"`
	Subtotal              string            `json:"subtotal"`
	Tax                   string            `json:"tax"`
	Total                 string            `json:"total"`
	Currency              string            `json:"currency"`
	Status                enums.OrderStatus `json:"status"`
	ShippingAddress       types.Address     `json:"shippingAddress"`
	PaymentConfirmationID string            `json:"paymentConfirmationId"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

func (o Order) DTO() OrderDTO {
	lines := make([]LineItemDTO, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		lines = append(lines, LineItemDTO{
			CatalogItemID: li.CatalogItemID,
			Name:          li.Name,
			UnitPrice:     li.UnitPrice.StringFixed(2),
			Quantity:      li.Quantity,
		})
	}
	return OrderDTO{
		ID:                    o.ID,
		IdentityID:            o.IdentityID,
		LineItems:             lines,
		Subtotal:              o.Subtotal.StringFixed(2),
		Tax:                   o.Tax.StringFixed(2),
		Total:                 o.Total.StringFixed(2),
		Currency:              o.Currency,
		Status:                o.Status,
		ShippingAddress:       o.Shipping,
		PaymentConfirmationID: o.PaymentConfirmationID,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

func ToDTOs(list []Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, o.DTO())
	}
	return out
}

// Filter narrows administrative listings.
type Filter struct {
	IdentityID string
	Status     enums.OrderStatus
}

// Page is one cursor page of orders.
type Page struct {
	Orders     []Order
	NextCursor string
}

func toModel(o Order) models.Order {
	lines := make([]models.OrderLineItem, 0, len(o.LineItems))
	for i, li := range o.LineItems {
		lines = append(lines, models.OrderLineItem{
			OrderID:       o.ID,
			Position:      i,
			CatalogItemID: li.CatalogItemID,
			Name:          li.Name,
			UnitPrice:     li.UnitPrice,
			Quantity:      li.Quantity,
		})
	}
	return models.Order{
		ID:                    o.ID,
		IdentityID:            o.IdentityID,
		Subtotal:              o.Subtotal,
		Tax:                   o.Tax,
		Total:                 o.Total,
		Currency:              o.Currency,
		Status:                o.Status,
		ShippingStreet:        o.Shipping.Street,
		ShippingCity:          o.Shipping.City,
		ShippingState:         o.Shipping.State,
		ShippingZipCode:       o.Shipping.ZipCode,
		ShippingCountry:       o.Shipping.Country,
		PaymentConfirmationID: o.PaymentConfirmationID,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		LineItems:             lines,
	}
}

func fromModel(m models.Order) Order {
	lines := make([]LineItem, 0, len(m.LineItems))
	for _, li := range m.LineItems {
		lines = append(lines, LineItem{
			CatalogItemID: li.CatalogItemID,
			Name:          li.Name,
			UnitPrice:     li.UnitPrice,
			Quantity:      li.Quantity,
		})
	}
	return Order{
		ID:         m.ID,
		IdentityID: m.IdentityID,
		LineItems:  lines,
		Subtotal:   m.Subtotal,
		Tax:        m.Tax,
		Total:      m.Total,
		Currency:   m.Currency,
		Status:     m.Status,
		Shipping: types.Address{
			Street:  m.ShippingStreet,
			City:    m.ShippingCity,
			State:   m.ShippingState,
			ZipCode: m.ShippingZipCode,
			Country: m.ShippingCountry,
		},
		PaymentConfirmationID: m.PaymentConfirmationID,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}
