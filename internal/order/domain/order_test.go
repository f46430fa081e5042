package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

var now = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func TestNewOrderSnapshotsItems(t *testing.T) {
	items := []OrderItem{{ProductID: 7, ProductName: "Denim Jacket", Price: decimal.NewFromInt(20), Quantity: 3}}
	o := NewOrder(42, items, Address{City: "Austin"}, decimal.RequireFromString("69.99"), PaymentRef{TransactionID: "txn_1", CardLast4: "4242"}, "FedEx", now)

	items[0].Quantity = 99
	assert.Equal(t, 3, o.Items[0].Quantity)

	assert.Equal(t, "VT000042", o.Number)
	assert.Equal(t, StatusConfirmed, o.Status)
	assert.Equal(t, "TRK00000042", o.Tracking.TrackingNumber)
	assert.Equal(t, []TrackingEvent{{Date: now, Status: "Order placed", Location: "Online"}}, o.Tracking.Events)
}

func TestSetStatusAppendsEvent(t *testing.T) {
	o := NewOrder(1, nil, Address{}, decimal.Zero, PaymentRef{}, "FedEx", now)
	later := now.Add(time.Hour)

	ev := o.SetStatus(StatusShipped, later)
	assert.Equal(t, StatusShipped, o.Status)
	assert.Equal(t, TrackingEvent{Date: later, Status: "Shipped", Location: "Warehouse"}, ev)
	assert.Len(t, o.Tracking.Events, 2)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Delivered ")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, s)

	_, err = ParseStatus("lost")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestMatches(t *testing.T) {
	o := Order{Number: "VT000123", Items: []OrderItem{{ProductName: "Wool Scarf"}}}
	assert.True(t, o.Matches(""))
	assert.True(t, o.Matches("vt0001"))
	assert.True(t, o.Matches("SCARF"))
	assert.False(t, o.Matches("boots"))
}

func TestCloneIsDeep(t *testing.T) {
	o := NewOrder(1, []OrderItem{{ProductName: "a"}}, Address{}, decimal.Zero, PaymentRef{}, "FedEx", now)
	c := o.Clone()
	c.Items[0].ProductName = "b"
	c.SetStatus(StatusCancelled, now)
	assert.Equal(t, "a", o.Items[0].ProductName)
	assert.Len(t, o.Tracking.Events, 1)
}

func TestHistoryRange(t *testing.T) {
	since, err := Range30Days.Since(now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -30), since)

	since, err = HistoryRange("all").Since(now)
	require.NoError(t, err)
	assert.True(t, since.IsZero())

	_, err = HistoryRange("2weeks").Since(now)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
