// Package seed loads a YAML catalog into the record store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	catalogstore "github.com/dmehra2102/storefront/internal/catalog/infrastructure/recordstore"
	"github.com/dmehra2102/storefront/pkg/recordstore"
)

type product struct {
	ID          int      `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Category    string   `yaml:"category"`
	Subcategory string   `yaml:"subcategory"`
	Images      []string `yaml:"images"`
	Sizes       []string `yaml:"sizes"`
	Colors      []string `yaml:"colors"`
	Stock       int      `yaml:"stock"`
	Featured    bool     `yaml:"featured"`
}

type category struct {
	ID            int      `yaml:"id"`
	Name          string   `yaml:"name"`
	Subcategories []string `yaml:"subcategories"`
}

type Catalog struct {
	Products   []domain.Product
	Categories []domain.Category
}

func Decode(r io.Reader) (Catalog, error) {
	var doc struct {
		Products   []product  `yaml:"products"`
		Categories []category `yaml:"categories"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}

	var c Catalog
	for i, p := range doc.Products {
		if p.ID <= 0 {
			return Catalog{}, fmt.Errorf("product %d: id must be positive", i)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil || price.IsNegative() {
			return Catalog{}, fmt.Errorf("product %d: invalid price %q", p.ID, p.Price)
		}
		c.Products = append(c.Products, domain.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Category:    p.Category,
			Subcategory: p.Subcategory,
			Images:      p.Images,
			Sizes:       p.Sizes,
			Colors:      p.Colors,
			Stock:       max(p.Stock, 0),
			Featured:    p.Featured,
		})
	}
	for i, cat := range doc.Categories {
		if cat.ID <= 0 {
			return Catalog{}, fmt.Errorf("category %d: id must be positive", i)
		}
		c.Categories = append(c.Categories, domain.Category{ID: cat.ID, Name: cat.Name, Subcategories: cat.Subcategories})
	}
	return c, nil
}

func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Apply upserts every product and category by Id.
func Apply(ctx context.Context, log *slog.Logger, client recordstore.Client, c Catalog) error {
	for _, p := range c.Products {
		if err := upsert(ctx, client, catalogstore.ProductCollection, catalogstore.EncodeProduct(p)); err != nil {
			return fmt.Errorf("seed product %d: %w", p.ID, err)
		}
	}
	for _, cat := range c.Categories {
		fields, err := catalogstore.EncodeCategory(cat)
		if err != nil {
			return err
		}
		if err := upsert(ctx, client, catalogstore.CategoryCollection, fields); err != nil {
			return fmt.Errorf("seed category %d: %w", cat.ID, err)
		}
	}
	log.Info("catalog seeded", "products", len(c.Products), "categories", len(c.Categories))
	return nil
}

func upsert(ctx context.Context, client recordstore.Client, collection string, fields recordstore.Record) error {
	id, _ := fields.ID()
	_, err := client.GetByID(ctx, collection, id)
	switch {
	case errors.Is(err, recordstore.ErrNotFound):
		_, err = client.Create(ctx, collection, fields)
	case err == nil:
		_, err = client.Update(ctx, collection, fields)
	}
	return err
}
