package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(productID int, price string, qty int, size, color string) LineItem {
	return LineItem{
		ProductID:     productID,
		ProductName:   "Item",
		Price:         decimal.RequireFromString(price),
		Quantity:      qty,
		SelectedSize:  size,
		SelectedColor: color,
	}
}

func TestAddMergesOnKey(t *testing.T) {
	c := Cart{}.Add(line(7, "20", 2, "", ""), "a")
	c = c.Add(line(7, "20", 1, "", ""), "b")

	require.Len(t, c, 1)
	assert.Equal(t, "a", c[0].ID)
	assert.Equal(t, 3, c[0].Quantity)
	assert.True(t, decimal.NewFromInt(60).Equal(c.Total()))
}

func TestAddDistinguishesSizeAndColor(t *testing.T) {
	c := Cart{}.
		Add(line(7, "20", 1, "M", "Blue"), "a").
		Add(line(7, "20", 1, "L", "Blue"), "b").
		Add(line(7, "20", 1, "M", "Red"), "c").
		Add(line(7, "20", 4, "M", "Blue"), "d")

	require.Len(t, c, 3)
	assert.Equal(t, 5, c[0].Quantity)
	assert.Equal(t, []string{"a", "b", "c"}, []string{c[0].ID, c[1].ID, c[2].ID})
	assert.Equal(t, 7, c.ItemCount())
}

func TestAddDoesNotMutateReceiver(t *testing.T) {
	base := Cart{}.Add(line(1, "5", 1, "", ""), "a")
	_ = base.Add(line(1, "5", 2, "", ""), "b")
	assert.Equal(t, 1, base[0].Quantity)
}

func TestSetQuantityZeroEqualsRemove(t *testing.T) {
	c := Cart{}.
		Add(line(1, "10", 1, "", ""), "a").
		Add(line(2, "15", 2, "", ""), "b")

	assert.Equal(t, c.Remove("a"), c.SetQuantity("a", 0))
	assert.Equal(t, c.Remove("a"), c.SetQuantity("a", -3))

	updated := c.SetQuantity("b", 5)
	assert.Equal(t, 5, updated[1].Quantity)
	assert.Equal(t, 1, updated[0].Quantity)

	assert.Equal(t, c, c.SetQuantity("missing", 4))
	assert.Equal(t, c, c.Remove("missing"))
}

func TestTotalIsSumOfSubtotals(t *testing.T) {
	c := Cart{}.
		Add(line(1, "149.99", 1, "", ""), "a").
		Add(line(2, "29.99", 5, "", ""), "b").
		Add(line(3, "0.10", 3, "", ""), "c")

	assert.Equal(t, "300.24", c.Total().StringFixed(2))
	assert.Equal(t, 9, c.ItemCount())
	assert.True(t, Cart{}.Total().IsZero())
}
