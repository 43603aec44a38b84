package cart

// LineDTO is the wire shape of a cart line.
type LineDTO struct {
	ItemID   int    `json:"itemId"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

// DTO is the wire shape of a ledger.
type DTO struct {
	Lines     []LineDTO `json:"lines"`
	ItemCount int       `json:"itemCount"`
	Total     string    `json:"total"`
}

func (l *Ledger) DTO() DTO {
	lines := make([]LineDTO, 0, l.Len())
	for _, line := range l.lines {
		lines = append(lines, LineDTO{
			ItemID:   line.Item.ID,
			Name:     line.Item.Name,
			Price:    line.Item.Price.StringFixed(2),
			Category: line.Item.Category,
			Image:    line.Item.Image,
			Quantity: line.Quantity,
			Subtotal: line.Subtotal().StringFixed(2),
		})
	}
	return DTO{Lines: lines, ItemCount: l.ItemCount(), Total: l.Total().StringFixed(2)}
}
