package domain

import (
	"strings"

	orderdomain "github.com/dmehra2102/storefront/internal/order/domain"
	paymentdomain "github.com/dmehra2102/storefront/internal/payment/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

type Step int

const (
	StepShipping Step = iota + 1
	StepPayment
	StepReview
	// StepCompleted is reached only by a successful PlaceOrder.
	StepCompleted
)

func (s Step) String() string {
	switch s {
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	case StepCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

const DefaultCountry = "United States"

type PaymentInfo struct {
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
	CardName   string `json:"cardName"`
}

func (p PaymentInfo) Last4() string { return paymentdomain.Last4(p.CardNumber) }

// State is one checkout session. It lives in memory only.
type State struct {
	Step       Step
	Shipping   orderdomain.Address
	Payment    PaymentInfo
	Processing bool
	Order      *orderdomain.Order
}

func NewState() State {
	return State{Step: StepShipping, Shipping: orderdomain.Address{Country: DefaultCountry}}
}

// ValidateShipping trims every field and requires all but phone and country.
func ValidateShipping(a orderdomain.Address) (orderdomain.Address, error) {
	fields := []struct {
		name     string
		value    *string
		required bool
	}{
		{"firstName", &a.FirstName, true},
		{"lastName", &a.LastName, true},
		{"email", &a.Email, true},
		{"phone", &a.Phone, false},
		{"address", &a.Address, true},
		{"city", &a.City, true},
		{"state", &a.State, true},
		{"zipCode", &a.ZipCode, true},
		{"country", &a.Country, false},
	}
	var missing []string
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if f.required && *f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return a, apperr.Validation("please fill in all required fields", missing...)
	}
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return a, nil
}

func ValidatePayment(p PaymentInfo) (PaymentInfo, error) {
	var missing []string
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"cardNumber", &p.CardNumber},
		{"expiryDate", &p.ExpiryDate},
		{"cvv", &p.CVV},
		{"cardName", &p.CardName},
	} {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return p, apperr.Validation("please fill in all payment fields", missing...)
	}
	return p, nil
}
