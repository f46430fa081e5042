package application

import (
	"context"
	"slices"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

const DefaultRelatedLimit = 4

type Service struct {
	source ProductSource

	// collate.Collator is not safe for concurrent use.
	mu       sync.Mutex
	collator *collate.Collator
}

func NewService(source ProductSource) *Service {
	return &Service{source: source, collator: collate.New(language.English)}
}

func (s *Service) all(ctx context.Context) ([]domain.Product, error) {
	products, err := s.source.Products(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemote, "load products: "+err.Error(), err)
	}
	return products, nil
}

// List filters first and sorts last. The sort is stable so equal keys keep
// catalog order.
func (s *Service) List(ctx context.Context, f domain.Filter) ([]domain.Product, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	products, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}

	switch f.SortBy {
	case domain.SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case domain.SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case domain.SortName:
		s.mu.Lock()
		sort.SliceStable(out, func(i, j int) bool {
			return s.collator.CompareString(out[i].Name, out[j].Name) < 0
		})
		s.mu.Unlock()
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int) (domain.Product, error) {
	products, err := s.all(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	i := slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == id })
	if i < 0 {
		return domain.Product{}, apperr.NotFound("Product not found")
	}
	return products[i], nil
}

func (s *Service) Featured(ctx context.Context) ([]domain.Product, error) {
	products, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Product{}
	for _, p := range products {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out, nil
}

// Related returns up to limit other products of the same category, in
// catalog order. A limit below one means DefaultRelatedLimit.
func (s *Service) Related(ctx context.Context, id, limit int) ([]domain.Product, error) {
	if limit < 1 {
		limit = DefaultRelatedLimit
	}
	products, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(products, func(p domain.Product) bool { return p.ID == id })
	if i < 0 {
		return nil, apperr.NotFound("Product not found")
	}
	category := products[i].Category

	out := []domain.Product{}
	for _, p := range products {
		if len(out) == limit {
			break
		}
		if p.ID != id && p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

// Categories lists distinct categories in order of first appearance.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	products, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, p := range products {
		if !slices.Contains(out, p.Category) {
			out = append(out, p.Category)
		}
	}
	return out, nil
}
