package domain

import "github.com/shopspring/decimal"

type PaymentProcessed struct {
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	CardLast4     string          `json:"card_last4"`
}

type PaymentFailed struct {
	Amount    decimal.Decimal `json:"amount"`
	CardLast4 string          `json:"card_last4"`
	Reason    string          `json:"reason"`
}
