package domain

import "github.com/shopspring/decimal"

// LineItem is one product+size+color row of a cart.
type LineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
}

// SameLine reports whether o merges into the row held by i.
func (i LineItem) SameLine(o LineItem) bool {
	return i.ID == o.ID && i.Size == o.Size && i.Color == o.Color
}

func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the ordered item collection of one session.
// The subtotal is never stored, it is always derived from Items.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
}

func (c Cart) Subtotal() decimal.Decimal {
	return Subtotal(c.Items)
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal sums unit price times quantity over items.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// CopyItems returns an independent copy of items.
func CopyItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
