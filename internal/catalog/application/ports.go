package application

import (
	"context"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
)

// ProductSource returns the whole catalog in catalog order.
type ProductSource interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

type CategoryRepository interface {
	List(ctx context.Context, limit int) ([]domain.Category, error)
	Get(ctx context.Context, id int) (domain.Category, error)
	Create(ctx context.Context, c domain.Category) (domain.Category, error)
}
