package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type ShopRepository struct {
	pool *db.Pool
}

func NewShopRepository(pool *db.Pool) *ShopRepository {
	return &ShopRepository{pool: pool}
}

// Create inserts the shop and its opening windows atomically.
func (r *ShopRepository) Create(ctx context.Context, shop model.Shop, windows []model.OpeningWindow) (model.Shop, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Shop{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	shop.ID = uuid.NewString()
	err = tx.QueryRow(ctx, `
		INSERT INTO shops (id, name, owner_name, email, phone, address, slot_minutes, timezone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, shop.ID, shop.Name, shop.Owner, shop.Email, shop.Phone, shop.Address, shop.SlotMinutes, shop.Timezone).Scan(&shop.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "shops_email_key") {
			return model.Shop{}, ErrEmailTaken
		}
		return model.Shop{}, fmt.Errorf("insert shop: %w", err)
	}

	batch := &pgx.Batch{}
	for _, w := range windows {
		batch.Queue(`
			INSERT INTO opening_windows (shop_id, weekday, open_minute, close_minute, slot_minutes)
			VALUES ($1, $2, $3, $4, $5)
		`, shop.ID, int(w.Weekday), w.OpenMinute, w.CloseMinute, nullableMinutes(w.SlotMinutes))
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return model.Shop{}, fmt.Errorf("insert opening windows: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Shop{}, err
	}
	return shop, nil
}

func (r *ShopRepository) List(ctx context.Context) ([]model.Shop, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, owner_name, email, phone, address, slot_minutes, timezone, created_at
		FROM shops
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Shop
	for rows.Next() {
		var s model.Shop
		if err := rows.Scan(&s.ID, &s.Name, &s.Owner, &s.Email, &s.Phone, &s.Address, &s.SlotMinutes, &s.Timezone, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ShopRepository) Get(ctx context.Context, id string) (model.Shop, error) {
	var s model.Shop
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, owner_name, email, phone, address, slot_minutes, timezone, created_at
		FROM shops
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Owner, &s.Email, &s.Phone, &s.Address, &s.SlotMinutes, &s.Timezone, &s.CreatedAt)
	if err != nil {
		return model.Shop{}, notFound(err)
	}
	return s, nil
}

func (r *ShopRepository) ListOpeningWindows(ctx context.Context, shopID string) ([]model.OpeningWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, open_minute, close_minute, COALESCE(slot_minutes, 0)
		FROM opening_windows
		WHERE shop_id = $1
		ORDER BY weekday ASC, open_minute ASC
	`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OpeningWindow
	for rows.Next() {
		var w model.OpeningWindow
		var weekday int16
		if err := rows.Scan(&weekday, &w.OpenMinute, &w.CloseMinute, &w.SlotMinutes); err != nil {
			return nil, err
		}
		w.Weekday = time.Weekday(weekday)
		out = append(out, w)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func nullableMinutes(m int) *int {
	if m <= 0 {
		return nil
	}
	return &m
}
