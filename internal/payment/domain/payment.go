package domain

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DeclinedMessage is what a shopper sees when a charge is declined.
const DeclinedMessage = "Payment failed. Please try again."

var ErrDeclined = errors.New("payment declined")

// Charge carries the card details of one payment attempt. It is never
// persisted; only Last4 survives the attempt.
type Charge struct {
	Amount     decimal.Decimal
	CardNumber string
	ExpiryDate string
	CVV        string
	CardName   string
}

func (c Charge) Last4() string { return Last4(c.CardNumber) }

// Last4 returns the last four digits of a card number, ignoring spaces and
// dashes.
func Last4(cardNumber string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cardNumber)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

type Receipt struct {
	TransactionID string `json:"transactionId"`
	Status        Status `json:"status"`
	CardLast4     string `json:"cardLast4"`
}

// Payment is one ledger row.
type Payment struct {
	TransactionID string
	Amount        decimal.Decimal
	CardLast4     string
	Status        Status
	Reason        string
	CreatedAt     time.Time
}
