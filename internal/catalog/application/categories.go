package application

import (
	"context"
	"strings"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
)

const categoryPageSize = 50

type CategoryService struct {
	repo CategoryRepository
}

func NewCategoryService(repo CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// List returns the first page of categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	cats, err := s.repo.List(ctx, categoryPageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRemote, "load categories: "+err.Error(), err)
	}
	return cats, nil
}

func (s *CategoryService) Get(ctx context.Context, id int) (domain.Category, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Category{}, apperr.Wrap(apperr.KindRemote, "load category: "+err.Error(), err)
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, name string, subcategories []string) (domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, apperr.Validation("category name is required", "name")
	}
	if subcategories == nil {
		subcategories = []string{}
	}
	c, err := s.repo.Create(ctx, domain.Category{Name: name, Subcategories: subcategories})
	if err != nil {
		return domain.Category{}, apperr.Wrap(apperr.KindRemote, "create category: "+err.Error(), err)
	}
	return c, nil
}
