package models

// All lists every persisted model, in dependency order.
func All() []any {
	return []any{
		&Identity{},
		&CatalogItem{},
		&Order{},
		&OrderLineItem{},
		&OutboxEvent{},
	}
}
