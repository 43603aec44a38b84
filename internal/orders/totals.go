package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate is the flat sales tax applied to every order.
var TaxRate = decimal.RequireFromString("0.08")

// ComputeTotals derives tax and total from a subtotal. Both are rounded to cents.
func ComputeTotals(subtotal decimal.Decimal) (tax, total decimal.Decimal) {
	tax = subtotal.Mul(TaxRate).Round(2)
	total = subtotal.Add(tax).Round(2)
	return tax, total
}

// Subtotal sums unit price times quantity over the line items.
func Subtotal(lines []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range lines {
		sum = sum.Add(li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return sum
}

// CheckTotals reports the first money invariant o violates.
func CheckTotals(o Order) error {
	if len(o.LineItems) == 0 {
		return fmt.Errorf("order %s has no line items", o.ID)
	}
	for _, li := range o.LineItems {
		if li.Quantity < 1 {
			return fmt.Errorf("order %s line %d has quantity %d", o.ID, li.CatalogItemID, li.Quantity)
		}
	}
	if sum := Subtotal(o.LineItems); !sum.Equal(o.Subtotal) {
		return fmt.Errorf("order %s subtotal %s != line sum %s", o.ID, o.Subtotal, sum)
	}
	tax, total := ComputeTotals(o.Subtotal)
	if !tax.Equal(o.Tax) || !total.Equal(o.Total) {
		return fmt.Errorf("order %s totals %s/%s, want %s/%s", o.ID, o.Tax, o.Total, tax, total)
	}
	return nil
}

// NewOrderID returns ORD-<unix millis>-<random suffix>.
func NewOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}
