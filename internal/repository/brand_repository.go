package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrBrandNotFound      = fmt.Errorf("brand %w", domain.ErrNotFound)
	ErrBrandAlreadyExists = fmt.Errorf("brand with this name already exists: %w", domain.ErrDuplicateName)
	ErrBrandInUse         = fmt.Errorf("brand is referenced by products: %w", domain.ErrInvalidReference)
)

// BrandRepository defines the interface for brand data access
type BrandRepository interface {
	Create(ctx context.Context, brand *domain.Brand) error
	Update(ctx context.Context, brand *domain.Brand) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.Brand, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error)
	NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
}

type brandRepository struct {
	db DBTX
}

// NewBrandRepository creates a new instance of BrandRepository
func NewBrandRepository(db DBTX) BrandRepository {
	return &brandRepository{db: db}
}

func (r *brandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	query := `
		INSERT INTO brands (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		brand.ID,
		brand.Name,
		brand.Description,
		brand.CreatedAt,
		brand.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBrandAlreadyExists
		}
		return fmt.Errorf("failed to create brand: %w", err)
	}

	return nil
}

func (r *brandRepository) Update(ctx context.Context, brand *domain.Brand) error {
	query := `
		UPDATE brands
		SET name = $2, description = $3
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, brand.ID, brand.Name, brand.Description).
		Scan(&brand.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBrandNotFound
		}
		if isUniqueViolation(err) {
			return ErrBrandAlreadyExists
		}
		return fmt.Errorf("failed to update brand: %w", err)
	}

	return nil
}

func (r *brandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrBrandInUse
		}
		return fmt.Errorf("failed to delete brand: %w", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBrandNotFound
	}

	return nil
}

// List retrieves all brands ordered by name
func (r *brandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM brands
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	brands := []*domain.Brand{}
	for rows.Next() {
		brand := &domain.Brand{}
		if err := rows.Scan(
			&brand.ID,
			&brand.Name,
			&brand.Description,
			&brand.CreatedAt,
			&brand.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, brand)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brands: %w", err)
	}

	return brands, nil
}

func (r *brandRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM brands
		WHERE id = $1
	`

	brand := &domain.Brand{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&brand.ID,
		&brand.Name,
		&brand.Description,
		&brand.CreatedAt,
		&brand.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBrandNotFound
		}
		return nil, fmt.Errorf("failed to find brand by ID: %w", err)
	}

	return brand, nil
}

// NameExists reports whether another brand already uses name, ignoring
// case. excludeID is skipped so a record can keep its own name on update.
func (r *brandRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM brands WHERE LOWER(name) = LOWER($1) AND id <> $2)`,
		name, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check brand name: %w", err)
	}
	return exists, nil
}
