package domain

import "github.com/shopspring/decimal"

type LineItem struct {
	ID            string          `json:"id"`
	ProductID     int             `json:"productId"`
	ProductName   string          `json:"productName"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selectedSize"`
	SelectedColor string          `json:"selectedColor"`
	Image         string          `json:"image,omitempty"`
}

// Key identifies the line an added item merges into.
type Key struct {
	ProductID int
	Size      string
	Color     string
}

func (l LineItem) Key() Key {
	return Key{ProductID: l.ProductID, Size: l.SelectedSize, Color: l.SelectedColor}
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered list of line items. Its methods never modify the
// receiver; they return the updated cart.
type Cart []LineItem

func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Add merges item into the line with the same key or appends it under newID.
func (c Cart) Add(item LineItem, newID string) Cart {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	out := c.Clone()
	for i := range out {
		if out[i].Key() == item.Key() {
			out[i].Quantity += item.Quantity
			return out
		}
	}
	item.ID = newID
	return append(out, item)
}

// SetQuantity sets the quantity of line id; a quantity below one removes it.
func (c Cart) SetQuantity(id string, quantity int) Cart {
	if quantity <= 0 {
		return c.Remove(id)
	}
	out := c.Clone()
	for i := range out {
		if out[i].ID == id {
			out[i].Quantity = quantity
		}
	}
	return out
}

func (c Cart) Remove(id string) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount sums quantities, not lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}
	return n
}
