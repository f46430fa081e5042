package recordstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/internal/catalog/domain"
	"github.com/dmehra2102/storefront/pkg/apperr"
	"github.com/dmehra2102/storefront/pkg/recordstore"
)

func TestDecodeProductNormalisesFields(t *testing.T) {
	p := DecodeProduct(recordstore.Record{
		recordstore.IDField: json.Number("5"),
		FieldName:           "Trench Coat",
		FieldPrice:          json.Number("149.5"),
		FieldCategory:       "Women",
		FieldImages:         "https://img/a.jpg\nhttps://img/b.jpg\n",
		FieldSizes:          "S, M ,L",
		FieldColors:         "",
		FieldStock:          "7",
		FieldFeatured:       "true",
	})

	assert.Equal(t, 5, p.ID)
	assert.Equal(t, "149.5", p.Price.String())
	assert.Equal(t, []string{"https://img/a.jpg", "https://img/b.jpg"}, p.Images)
	assert.Equal(t, []string{"S", "M", "L"}, p.Sizes)
	assert.Equal(t, []string{}, p.Colors)
	assert.Equal(t, 7, p.Stock)
	assert.True(t, p.Featured)

	assert.False(t, DecodeProduct(recordstore.Record{FieldFeatured: "false"}).Featured)
	assert.True(t, DecodeProduct(recordstore.Record{FieldFeatured: true}).Featured)
}

func TestProductSourceKeepsCatalogOrder(t *testing.T) {
	ctx := context.Background()
	store := recordstore.NewMemory()
	for _, id := range []int{3, 1, 2} {
		_, err := store.Create(ctx, ProductCollection, EncodeProduct(domain.Product{ID: id, Name: "p"}))
		require.NoError(t, err)
	}

	products, err := NewProductSource(store).Products(ctx)
	require.NoError(t, err)
	ids := []int{}
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{1, 2, 3}, ids)
}

func TestCategoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCategoryRepository(recordstore.NewMemory())

	_, err := repo.Create(ctx, domain.Category{Name: "Shoes", Subcategories: []string{"Boots"}})
	require.NoError(t, err)
	created, err := repo.Create(ctx, domain.Category{Name: "Accessories"})
	require.NoError(t, err)
	assert.Equal(t, []string{}, created.Subcategories)

	list, err := repo.List(ctx, 50)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Accessories", list[0].Name)
	assert.Equal(t, []string{"Boots"}, list[1].Subcategories)

	_, err = repo.Get(ctx, 99)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
