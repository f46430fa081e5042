package recordstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/recordstore"
)

type CategoryRepository struct {
	client recordstore.Client
}

func NewCategoryRepository(client recordstore.Client) *CategoryRepository {
	return &CategoryRepository{client: client}
}

var categoryFields = []string{recordstore.IDField, FieldName, FieldSubcategories}

func (r *CategoryRepository) List(ctx context.Context, limit int) ([]domain.Category, error) {
	records, err := r.client.Fetch(ctx, CategoryCollection, recordstore.Query{
		Fields:  categoryFields,
		OrderBy: []recordstore.OrderBy{{Field: FieldName, Direction: recordstore.Asc}},
		Limit:   limit,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(records))
	for _, rec := range records {
		c, err := DecodeCategory(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id int) (domain.Category, error) {
	rec, err := r.client.GetByID(ctx, CategoryCollection, int64(id))
	if errors.Is(err, recordstore.ErrNotFound) {
		return domain.Category{}, apperr.NotFound("Category not found")
	}
	if err != nil {
		return domain.Category{}, err
	}
	return DecodeCategory(rec)
}

func (r *CategoryRepository) Create(ctx context.Context, c domain.Category) (domain.Category, error) {
	fields, err := EncodeCategory(c)
	if err != nil {
		return domain.Category{}, err
	}
	rec, err := r.client.Create(ctx, CategoryCollection, fields)
	if err != nil {
		return domain.Category{}, err
	}
	return DecodeCategory(rec)
}

func DecodeCategory(r recordstore.Record) (domain.Category, error) {
	id, _ := r.ID()
	subs, err := recordstore.JSONStrings(r, FieldSubcategories)
	if err != nil {
		return domain.Category{}, err
	}
	return domain.Category{ID: int(id), Name: recordstore.String(r, FieldName), Subcategories: subs}, nil
}

func EncodeCategory(c domain.Category) (recordstore.Record, error) {
	subs := c.Subcategories
	if subs == nil {
		subs = []string{}
	}
	b, err := json.Marshal(subs)
	if err != nil {
		return nil, err
	}
	r := recordstore.Record{FieldName: c.Name, FieldSubcategories: string(b)}
	if c.ID > 0 {
		r[recordstore.IDField] = int64(c.ID)
	}
	return r, nil
}
