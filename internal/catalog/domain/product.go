package domain

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

type Product struct {
	ID          int             `json:"Id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory"`
	Images      []string        `json:"images"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
	Stock       int             `json:"stock"`
	Featured    bool            `json:"featured"`
}

type Category struct {
	ID            int      `json:"Id"`
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

type SortOrder string

const (
	SortCatalog   SortOrder = ""
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortName      SortOrder = "name"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case SortCatalog, SortPriceLow, SortPriceHigh, SortName:
		return o, nil
	default:
		return "", apperr.Validation("unknown sort order "+s, "sortBy")
	}
}

// Filter lists every recognised product filter. Zero values mean "no filter".
// Sizes and Colors match when a product offers any of the requested values.
type Filter struct {
	Category string
	Search   string
	Sizes    []string
	Colors   []string
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	SortBy   SortOrder
}

func (f Filter) Validate() error {
	var bad []string
	if f.MinPrice.Valid && f.MinPrice.Decimal.IsNegative() {
		bad = append(bad, "minPrice")
	}
	if f.MaxPrice.Valid && f.MaxPrice.Decimal.IsNegative() {
		bad = append(bad, "maxPrice")
	}
	if _, err := ParseSortOrder(string(f.SortBy)); err != nil {
		bad = append(bad, "sortBy")
	}
	if len(bad) > 0 {
		return apperr.Validation("invalid product filter", bad...)
	}
	return nil
}

// Matches applies every filter except sorting.
func (f Filter) Matches(p Product) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	if len(f.Sizes) > 0 && !anyOf(p.Sizes, f.Sizes) {
		return false
	}
	if len(f.Colors) > 0 && !anyOf(p.Colors, f.Colors) {
		return false
	}
	if f.MinPrice.Valid && p.Price.LessThan(f.MinPrice.Decimal) {
		return false
	}
	if f.MaxPrice.Valid && p.Price.GreaterThan(f.MaxPrice.Decimal) {
		return false
	}
	return true
}

func anyOf(offered, wanted []string) bool {
	for _, w := range wanted {
		if slices.Contains(offered, w) {
			return true
		}
	}
	return false
}
