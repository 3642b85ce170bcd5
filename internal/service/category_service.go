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

type CategoryInput struct {
	Name        string
	Description string
}

// CategoryUpdate carries a partial update; nil fields are left unchanged
type CategoryUpdate struct {
	Name        *string
	Description *string
}

// CategoryService defines the interface for category business logic
type CategoryService interface {
	Create(ctx context.Context, input CategoryInput) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryUpdate) (*domain.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo   repository.CategoryRepository
	logger *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(repo repository.CategoryRepository, logger *zap.Logger) CategoryService {
	return &categoryService{repo: repo, logger: logger}
}

func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)

	if err := s.ensureUniqueName(ctx, name, uuid.Nil); err != nil {
		return nil, err
	}

	now := time.Now()
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info("category created", zap.String("category_id", category.ID.String()))
	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.List(ctx)
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input CategoryUpdate) (*domain.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if err := s.ensureUniqueName(ctx, name, id); err != nil {
			return nil, err
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("category deleted", zap.String("category_id", id.String()))
	return nil
}

func (s *categoryService) ensureUniqueName(ctx context.Context, name string, excludeID uuid.UUID) error {
	exists, err := s.repo.NameExists(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if exists {
		return repository.ErrCategoryAlreadyExists
	}
	return nil
}
