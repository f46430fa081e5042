package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

type OrderStatus string

const (
	StatusProcessing OrderStatus = "processing"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var statuses = []OrderStatus{StatusProcessing, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(statuses, st) {
		return "", apperr.Validation(fmt.Sprintf("unknown order status %q", s), "status")
	}
	return st, nil
}

// Label is the status as shown in tracking history.
func (s OrderStatus) Label() string {
	return cases.Title(language.English).String(string(s))
}

const (
	placedStatus   = "Order placed"
	placedLocation = "Online"
	statusLocation = "Warehouse"
)

// OrderItem is a snapshot of a cart line at checkout.
type OrderItem struct {
	ID            string          `json:"id"`
	ProductID     int             `json:"productId"`
	ProductName   string          `json:"productName"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	SelectedSize  string          `json:"selectedSize"`
	SelectedColor string          `json:"selectedColor"`
	Image         string          `json:"image,omitempty"`
}

type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

// PaymentRef is all an order keeps of its payment.
type PaymentRef struct {
	TransactionID string `json:"transactionId"`
	CardLast4     string `json:"last4"`
}

type TrackingEvent struct {
	Date     time.Time `json:"date"`
	Status   string    `json:"status"`
	Location string    `json:"location"`
}

type Tracking struct {
	Carrier        string          `json:"carrier"`
	TrackingNumber string          `json:"trackingNumber"`
	Events         []TrackingEvent `json:"events"`
}

type Order struct {
	ID              int64           `json:"Id"`
	Number          string          `json:"orderNumber"`
	PlacedAt        time.Time       `json:"orderDate"`
	Status          OrderStatus     `json:"status"`
	Total           decimal.Decimal `json:"total"`
	Items           []OrderItem     `json:"items"`
	ShippingAddress Address         `json:"shippingAddress"`
	Payment         PaymentRef      `json:"payment"`
	Tracking        Tracking        `json:"tracking"`
}

// OrderNumber renders the display number of order id.
func OrderNumber(id int64) string {
	return fmt.Sprintf("VT%06d", id)
}

func TrackingNumber(id int64) string {
	return fmt.Sprintf("TRK%08d", id)
}

// NewOrder places a confirmed order. items is copied so later changes to
// the caller's slice never reach the order.
func NewOrder(id int64, items []OrderItem, addr Address, total decimal.Decimal, payment PaymentRef, carrier string, now time.Time) Order {
	return Order{
		ID:              id,
		Number:          OrderNumber(id),
		PlacedAt:        now,
		Status:          StatusConfirmed,
		Total:           total,
		Items:           slices.Clone(items),
		ShippingAddress: addr,
		Payment:         payment,
		Tracking: Tracking{
			Carrier:        carrier,
			TrackingNumber: TrackingNumber(id),
			Events:         []TrackingEvent{{Date: now, Status: placedStatus, Location: placedLocation}},
		},
	}
}

// StatusEvent is the tracking entry appended when an order moves to s.
func StatusEvent(s OrderStatus, now time.Time) TrackingEvent {
	return TrackingEvent{Date: now, Status: s.Label(), Location: statusLocation}
}

// SetStatus moves the order to s and appends the matching tracking event.
// Any status of the enum may follow any other.
func (o *Order) SetStatus(s OrderStatus, now time.Time) TrackingEvent {
	ev := StatusEvent(s, now)
	o.Status = s
	o.Tracking.Events = append(o.Tracking.Events, ev)
	return ev
}

// Clone deep copies o.
func (o Order) Clone() Order {
	o.Items = slices.Clone(o.Items)
	o.Tracking.Events = slices.Clone(o.Tracking.Events)
	return o
}

// Matches reports whether search occurs in the order number or in any item
// name, ignoring case.
func (o Order) Matches(search string) bool {
	if search == "" {
		return true
	}
	q := strings.ToLower(search)
	if strings.Contains(strings.ToLower(o.Number), q) {
		return true
	}
	for _, it := range o.Items {
		if strings.Contains(strings.ToLower(it.ProductName), q) {
			return true
		}
	}
	return false
}

// HistoryRange names the date windows of the order history view.
type HistoryRange string

const (
	RangeAll     HistoryRange = ""
	Range30Days  HistoryRange = "30days"
	Range3Months HistoryRange = "3months"
	Range6Months HistoryRange = "6months"
	Range1Year   HistoryRange = "1year"
)

// Since returns the earliest placement time inside the range, or the zero
// time for RangeAll.
func (r HistoryRange) Since(now time.Time) (time.Time, error) {
	switch r {
	case RangeAll, "all":
		return time.Time{}, nil
	case Range30Days:
		return now.AddDate(0, 0, -30), nil
	case Range3Months:
		return now.AddDate(0, -3, 0), nil
	case Range6Months:
		return now.AddDate(0, -6, 0), nil
	case Range1Year:
		return now.AddDate(-1, 0, 0), nil
	default:
		return time.Time{}, apperr.Validation(fmt.Sprintf("unknown date range %q", string(r)), "range")
	}
}
