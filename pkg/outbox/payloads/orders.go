package payloads

import (
	"time"

	"github.com/angelmondragon/crownleather-backend/pkg/enums"
)

// OrderLine mirrors one purchased line in event payloads.
type OrderLine struct {
	CatalogItemID int    `json:"catalog_item_id"`
	Name          string `json:"name"`
	UnitPrice     string `json:"unit_price"`
	Quantity      int    `json:"quantity"`
}

// OrderCreatedEvent is emitted when a checkout settles.
type OrderCreatedEvent struct {
	OrderID               string            `json:"order_id"`
	IdentityID            string            `json:"identity_id"`
	Subtotal              string            `json:"subtotal"`
	Tax                   string            `json:"tax"`
	Total                 string            `json:"total"`
	Currency              string            `json:"currency"`
	Status                enums.OrderStatus `json:"status"`
	PaymentConfirmationID string            `json:"payment_confirmation_id"`
	Lines                 []OrderLine       `json:"lines"`
	CreatedAt             time.Time         `json:"created_at"`
}

// OrderStatusChangedEvent is emitted on every administrative status update.
type OrderStatusChangedEvent struct {
	OrderID    string            `json:"order_id"`
	IdentityID string            `json:"identity_id"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	ChangedAt  time.Time         `json:"changed_at"`
}
