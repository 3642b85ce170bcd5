package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  uuid.UUID
	BrandID     uuid.UUID
	Images      []string
}

// ProductUpdate carries a partial update; nil fields are left unchanged
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *uuid.UUID
	BrandID     *uuid.UUID
	Images      []string
}

type ProductQuery struct {
	CategoryID *uuid.UUID
	BrandID    *uuid.UUID
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// ProductPage is one page of a product listing
type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// ProductService defines the interface for product business logic
type ProductService interface {
	Create(ctx context.Context, input ProductInput) (*domain.Product, error)
	List(ctx context.Context, query ProductQuery) (*ProductPage, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
	logger       *zap.Logger
}

// NewProductService creates a new instance of ProductService
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	brandRepo repository.BrandRepository,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		logger:       logger,
	}
}

func (s *productService) Create(ctx context.Context, input ProductInput) (*domain.Product, error) {
	category, err := s.resolveCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	brand, err := s.resolveBrand(ctx, input.BrandID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product := &domain.Product{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		Price:        input.Price.Round(2),
		Stock:        input.Stock,
		CategoryID:   category.ID,
		CategoryName: category.Name,
		BrandID:      brand.ID,
		BrandName:    brand.Name,
		Images:       input.Images,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("product created", zap.String("product_id", product.ID.String()))
	return product, nil
}

func (s *productService) List(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	order := repository.SortOrderDesc
	if strings.EqualFold(query.SortOrder, string(repository.SortOrderAsc)) {
		order = repository.SortOrderAsc
	}

	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		CategoryID: query.CategoryID,
		BrandID:    query.BrandID,
		Search:     strings.TrimSpace(query.Search),
		Page:       page,
		PageSize:   pageSize,
		SortBy:     query.SortBy,
		SortOrder:  order,
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*domain.Product{}
	}

	return &ProductPage{
		Products:   products,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// Update applies the supplied fields. Only references that are supplied are
// checked for existence.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductUpdate) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		category, err := s.resolveCategory(ctx, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		product.CategoryID, product.CategoryName = category.ID, category.Name
	}
	if input.BrandID != nil {
		brand, err := s.resolveBrand(ctx, *input.BrandID)
		if err != nil {
			return nil, err
		}
		product.BrandID, product.BrandName = brand.ID, brand.Name
	}
	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		product.Price = input.Price.Round(2)
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Images != nil {
		product.Images = input.Images
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", zap.String("product_id", id.String()))
	return nil
}

func (s *productService) resolveCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("category %s: %w", id, domain.ErrInvalidReference)
		}
		return nil, err
	}
	return category, nil
}

func (s *productService) resolveBrand(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	brand, err := s.brandRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("brand %s: %w", id, domain.ErrInvalidReference)
		}
		return nil, err
	}
	return brand, nil
}
