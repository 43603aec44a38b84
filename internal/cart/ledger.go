package cart

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crownleather-backend/internal/catalog"
)

// Line is one catalog item and how many of it the customer wants.
type Line struct {
	Item     catalog.Item
	Quantity int
}

// Subtotal is price times quantity for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Ledger is an ordered set of cart lines, at most one per item id.
// Every line it holds has Quantity >= 1.
type Ledger struct {
	lines []Line
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// AddItem increments the line for item or appends a new one.
// qty < 1 is a caller bug and panics.
func (l *Ledger) AddItem(item catalog.Item, qty int) {
	if qty < 1 {
		panic(fmt.Sprintf("cart: AddItem quantity %d < 1", qty))
	}
	if i := l.index(item.ID); i >= 0 {
		l.lines[i].Quantity += qty
		return
	}
	l.lines = append(l.lines, Line{Item: item, Quantity: qty})
}

// SetQuantity sets the exact quantity of an existing line; qty <= 0 removes it.
// Unknown ids are ignored.
func (l *Ledger) SetQuantity(itemID, qty int) {
	i := l.index(itemID)
	if i < 0 {
		return
	}
	if qty <= 0 {
		l.removeAt(i)
		return
	}
	l.lines[i].Quantity = qty
}

func (l *Ledger) RemoveItem(itemID int) {
	if i := l.index(itemID); i >= 0 {
		l.removeAt(i)
	}
}

func (l *Ledger) Clear() {
	l.lines = nil
}

// Deduct subtracts paid's quantities from the matching lines. Lines that reach
// zero are removed; anything added after paid was taken survives.
func (l *Ledger) Deduct(paid *Ledger) {
	if paid == nil {
		return
	}
	for _, p := range paid.lines {
		i := l.index(p.Item.ID)
		if i < 0 {
			continue
		}
		l.SetQuantity(p.Item.ID, l.lines[i].Quantity-p.Quantity)
	}
}

// Total is the sum of price times quantity over every line.
func (l *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (l *Ledger) Lines() []Line {
	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l *Ledger) Len() int {
	return len(l.lines)
}

// ItemCount is the sum of quantities.
func (l *Ledger) ItemCount() int {
	n := 0
	for _, line := range l.lines {
		n += line.Quantity
	}
	return n
}

func (l *Ledger) IsEmpty() bool {
	return len(l.lines) == 0
}

// Snapshot returns an independent copy.
func (l *Ledger) Snapshot() *Ledger {
	return &Ledger{lines: l.Lines()}
}

func (l *Ledger) index(itemID int) int {
	for i, line := range l.lines {
		if line.Item.ID == itemID {
			return i
		}
	}
	return -1
}

func (l *Ledger) removeAt(i int) {
	l.lines = append(l.lines[:i], l.lines[i+1:]...)
	if len(l.lines) == 0 {
		l.lines = nil
	}
}

type storedLine struct {
	ItemID      int             `json:"itemId"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
}

func (l *Ledger) MarshalJSON() ([]byte, error) {
	out := make([]storedLine, 0, len(l.lines))
	for _, line := range l.lines {
		out = append(out, storedLine{
			ItemID:      line.Item.ID,
			Name:        line.Item.Name,
			Price:       line.Item.Price,
			Category:    line.Item.Category,
			Image:       line.Item.Image,
			Description: line.Item.Description,
			Quantity:    line.Quantity,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the ledger through AddItem so duplicate ids merge
// and non-positive quantities are rejected.
func (l *Ledger) UnmarshalJSON(data []byte) error {
	var stored []storedLine
	if err := json.Unmarshal(data, &stored); err != nil {
		return err
	}
	l.lines = nil
	for _, s := range stored {
		if s.Quantity < 1 {
			return fmt.Errorf("cart: stored line %d has quantity %d", s.ItemID, s.Quantity)
		}
		l.AddItem(catalog.Item{
			ID:          s.ItemID,
			Name:        s.Name,
			Price:       s.Price,
			Category:    s.Category,
			Image:       s.Image,
			Description: s.Description,
			IsActive:    true,
		}, s.Quantity)
	}
	return nil
}
