// Package recordstore maps catalog records of the generic record backend to
// catalog domain types.
package recordstore

import (
	"context"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/pkg/recordstore"
)

const (
	ProductCollection  = "product_c"
	CategoryCollection = "category_c"
)

// Product fields.
const (
	FieldName        = "name_c"
	FieldDescription = "description_c"
	FieldPrice       = "price_c"
	FieldCategory    = "category_c"
	FieldSubcategory = "subcategory_c"
	FieldImages      = "images_c"
	FieldSizes       = "sizes_c"
	FieldColors      = "colors_c"
	FieldStock       = "stock_c"
	FieldFeatured    = "featured_c"

	FieldSubcategories = "subcategories_c"
)

type ProductSource struct {
	client recordstore.Client
}

func NewProductSource(client recordstore.Client) *ProductSource {
	return &ProductSource{client: client}
}

// Products returns every product ordered by Id, which is catalog order.
func (s *ProductSource) Products(ctx context.Context) ([]domain.Product, error) {
	records, err := s.client.Fetch(ctx, ProductCollection, recordstore.Query{
		OrderBy: []recordstore.OrderBy{{Field: recordstore.IDField, Direction: recordstore.Asc}},
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(records))
	for _, r := range records {
		out = append(out, DecodeProduct(r))
	}
	return out, nil
}

func DecodeProduct(r recordstore.Record) domain.Product {
	id, _ := r.ID()
	stock, _ := recordstore.Int(r, FieldStock)
	if stock < 0 {
		stock = 0
	}
	return domain.Product{
		ID:          int(id),
		Name:        recordstore.String(r, FieldName),
		Description: recordstore.String(r, FieldDescription),
		Price:       recordstore.Decimal(r, FieldPrice),
		Category:    recordstore.String(r, FieldCategory),
		Subcategory: recordstore.String(r, FieldSubcategory),
		Images:      recordstore.Lines(r, FieldImages),
		Sizes:       recordstore.CSV(r, FieldSizes),
		Colors:      recordstore.CSV(r, FieldColors),
		Stock:       int(stock),
		Featured:    recordstore.Bool(r, FieldFeatured),
	}
}

// EncodeProduct is the inverse of DecodeProduct. The Id is only set when p
// carries one.
func EncodeProduct(p domain.Product) recordstore.Record {
	r := recordstore.Record{
		FieldName:        p.Name,
		FieldDescription: p.Description,
		FieldPrice:       p.Price.String(),
		FieldCategory:    p.Category,
		FieldSubcategory: p.Subcategory,
		FieldImages:      recordstore.JoinLines(p.Images),
		FieldSizes:       recordstore.JoinCSV(p.Sizes),
		FieldColors:      recordstore.JoinCSV(p.Colors),
		FieldStock:       p.Stock,
		FieldFeatured:    p.Featured,
	}
	if p.ID > 0 {
		r[recordstore.IDField] = int64(p.ID)
	}
	return r
}
