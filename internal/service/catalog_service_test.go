package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Property: names differing only in case collide
func TestProperty_CategoryNamesAreCaseInsensitive(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("second create with a case variant fails", prop.ForAll(
		func(name string) bool {
			svc := NewCategoryService(newMockCategoryRepository(), zap.NewNop())
			ctx := context.Background()

			if _, err := svc.Create(ctx, CategoryInput{Name: name}); err != nil {
				return false
			}
			_, err := svc.Create(ctx, CategoryInput{Name: "  " + strings.ToUpper(name) + " "})
			return errors.Is(err, domain.ErrDuplicateName)
		},
		gen.RegexMatch(`[a-z][a-z ]{1,20}[a-z]`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestBrandService_DuplicateNameOnUpdate(t *testing.T) {
	svc := NewBrandService(newMockBrandRepository(), zap.NewNop())
	ctx := context.Background()

	acme, err := svc.Create(ctx, BrandInput{Name: "Acme"})
	require.NoError(t, err)
	globex, err := svc.Create(ctx, BrandInput{Name: "Globex"})
	require.NoError(t, err)

	name := "ACME"
	_, err = svc.Update(ctx, globex.ID, BrandUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	renamed := "acme"
	updated, err := svc.Update(ctx, acme.ID, BrandUpdate{Name: &renamed})
	require.NoError(t, err, "renaming to a case variant of its own name is allowed")
	assert.Equal(t, "acme", updated.Name)

	_, err = svc.Update(ctx, uuid.New(), BrandUpdate{Name: &renamed})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCategoryService_ListSortedByName(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepository(), zap.NewNop())
	ctx := context.Background()
	for _, name := range []string{"Shoes", "Bags", "Outdoor"} {
		_, err := svc.Create(ctx, CategoryInput{Name: name})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Bags", list[0].Name)
	assert.Equal(t, "Shoes", list[2].Name)
}

type productFixture struct {
	svc        ProductService
	products   *mockProductRepository
	categories *mockCategoryRepository
	brands     *mockBrandRepository
	category   *domain.Category
	brand      *domain.Brand
}

func newProductFixture() *productFixture {
	f := &productFixture{
		products:   newMockProductRepository(),
		categories: newMockCategoryRepository(),
		brands:     newMockBrandRepository(),
	}
	f.category = &domain.Category{ID: uuid.New(), Name: "Shoes"}
	f.brand = &domain.Brand{ID: uuid.New(), Name: "Acme"}
	f.categories.categories[f.category.ID] = f.category
	f.brands.brands[f.brand.ID] = f.brand
	f.svc = NewProductService(f.products, f.categories, f.brands, zap.NewNop())
	return f
}

func (f *productFixture) input() ProductInput {
	return ProductInput{
		Name:        "Trail Shoe",
		Description: "A sturdy shoe for rough trails",
		Price:       decimal.RequireFromString("59.999"),
		Stock:       12,
		CategoryID:  f.category.ID,
		BrandID:     f.brand.ID,
	}
}

func TestProductService_Create(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()

	product, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)
	assert.Equal(t, "60.00", product.Price.StringFixed(2))
	assert.Equal(t, "Shoes", product.CategoryName)
	assert.Equal(t, "Acme", product.BrandName)
	assert.NotNil(t, product.Images)

	bad := f.input()
	bad.CategoryID = uuid.New()
	_, err = f.svc.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)

	bad = f.input()
	bad.BrandID = uuid.New()
	_, err = f.svc.Create(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
}

func TestProductService_PartialUpdate(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	product, err := f.svc.Create(ctx, f.input())
	require.NoError(t, err)

	stock := 3
	updated, err := f.svc.Update(ctx, product.ID, ProductUpdate{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Stock)
	assert.Equal(t, product.Name, updated.Name)

	missing := uuid.New()
	_, err = f.svc.Update(ctx, product.ID, ProductUpdate{BrandID: &missing})
	assert.ErrorIs(t, err, domain.ErrInvalidReference)

	_, err = f.svc.Update(ctx, uuid.New(), ProductUpdate{Stock: &stock})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductService_ListPagination(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	base := time.Now()
	for i := 0; i < 5; i++ {
		f.products.add(&domain.Product{
			Name:       "p",
			CategoryID: f.category.ID,
			BrandID:    f.brand.ID,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
	}

	page, err := f.svc.List(ctx, ProductQuery{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Products, 2)

	page, err = f.svc.List(ctx, ProductQuery{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.PageSize)
	assert.Equal(t, 1, page.Page)
	assert.True(t, page.Products[0].CreatedAt.After(page.Products[4].CreatedAt))

	other := uuid.New()
	page, err = f.svc.List(ctx, ProductQuery{BrandID: &other})
	require.NoError(t, err)
	assert.NotNil(t, page.Products)
	assert.Empty(t, page.Products)
}
