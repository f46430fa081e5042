package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderPlaced struct {
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	Total         decimal.Decimal `json:"total"`
	ItemCount     int             `json:"item_count"`
	TransactionID string          `json:"transaction_id"`
	PlacedAt      time.Time       `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID     int64       `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	Status      OrderStatus `json:"status"`
	ChangedAt   time.Time   `json:"changed_at"`
}
