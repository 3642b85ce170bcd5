package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const guestCartKeyPrefix = "cart:guest:"

type guestCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuestCartRepository returns the Redis-backed cart store for anonymous
// sessions. Each cart is a hash of product id to quantity under
// cart:guest:<session token>; every access pushes its expiry out by ttl.
func NewGuestCartRepository(client *redis.Client, ttl time.Duration) CartRepository {
	return &guestCartRepository{client: client, ttl: ttl}
}

func guestCartKey(token string) string {
	return guestCartKeyPrefix + token
}

func (r *guestCartRepository) Lines(ctx context.Context, owner string) ([]domain.CartLine, error) {
	key := guestCartKey(owner)

	var fields *redis.MapStringStringCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, key)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read guest cart: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(fields.Val()))
	for field, value := range fields.Val() {
		productID, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		quantity, err := strconv.Atoi(value)
		if err != nil || quantity < 1 {
			continue
		}
		lines = append(lines, domain.CartLine{ProductID: productID, Quantity: quantity})
	}

	sort.Slice(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})

	return lines, nil
}

func (r *guestCartRepository) SetQuantity(ctx context.Context, owner string, productID uuid.UUID, quantity int) error {
	key := guestCartKey(owner)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, productID.String(), quantity)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write guest cart: %w", err)
	}
	return nil
}

func (r *guestCartRepository) AddQuantity(ctx context.Context, owner string, productID uuid.UUID, delta int) error {
	key := guestCartKey(owner)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, productID.String(), int64(delta))
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write guest cart: %w", err)
	}
	return nil
}

func (r *guestCartRepository) Remove(ctx context.Context, owner string, productID uuid.UUID) error {
	if err := r.client.HDel(ctx, guestCartKey(owner), productID.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove guest cart item: %w", err)
	}
	return nil
}

func (r *guestCartRepository) Clear(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, guestCartKey(owner)).Err(); err != nil {
		return fmt.Errorf("failed to clear guest cart: %w", err)
	}
	return nil
}
