package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BrandInput struct {
	Name        string
	Description string
}

// BrandUpdate carries a partial update; nil fields are left unchanged
type BrandUpdate struct {
	Name        *string
	Description *string
}

// BrandService defines the interface for brand business logic
type BrandService interface {
	Create(ctx context.Context, input BrandInput) (*domain.Brand, error)
	List(ctx context.Context) ([]*domain.Brand, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Brand, error)
	Update(ctx context.Context, id uuid.UUID, input BrandUpdate) (*domain.Brand, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type brandService struct {
	repo   repository.BrandRepository
	logger *zap.Logger
}

// NewBrandService creates a new instance of BrandService
func NewBrandService(repo repository.BrandRepository, logger *zap.Logger) BrandService {
	return &brandService{repo: repo, logger: logger}
}

func (s *brandService) Create(ctx context.Context, input BrandInput) (*domain.Brand, error) {
	name := strings.TrimSpace(input.Name)

	if err := s.ensureUniqueName(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	now := time.Now()
	brand := &domain.Brand{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, brand); err != nil {
		return nil, err
	}

	s.logger.Info("brand created", zap.String("brand_id", brand.ID.String()))
	return brand, nil
}

func (s *brandService) List(ctx context.Context) ([]*domain.Brand, error) {
	return s.repo.List(ctx)
}

func (s *brandService) Get(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *brandService) Update(ctx context.Context, id uuid.UUID, input BrandUpdate) (*domain.Brand, error) {
	brand, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := s.ensureUniqueName(ctx, name, id); err != nil {
			return nil, err
		}
		brand.Name = name
	}
	if input.Description != nil {
		brand.Description = strings.TrimSpace(*input.Description)
	}

	if err := s.repo.Update(ctx, brand); err != nil {
		return nil, err
	}
	return brand, nil
}

func (s *brandService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("brand deleted", zap.String("brand_id", id.String()))
	return nil
}

func (s *brandService) ensureUniqueName(ctx context.Context, name string, excludeID uuid.UUID) error {
	exists, err := s.repo.NameExists(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check brand name: %w", err)
	}
	if exists {
		return repository.ErrBrandAlreadyExists
	}
	return nil
}
