package application

import (
	"context"

	cartdomain "github.com/dmehra2102/storefront/internal/cart/domain"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	orderdomain "github.com/dmehra2102/storefront/internal/order/domain"
	paymentdomain "github.com/dmehra2102/storefront/internal/payment/domain"
)

type Cart interface {
	Get(ctx context.Context) []cartdomain.LineItem
	Clear(ctx context.Context) []cartdomain.LineItem
}

type Orders interface {
	ProcessPayment(ctx context.Context, c paymentdomain.Charge) (paymentdomain.Receipt, error)
	CreateOrder(ctx context.Context, in orderapp.CreateOrderInput) (orderdomain.Order, error)
}
