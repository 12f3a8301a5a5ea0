// Package settings — repository.go работает с единственной строкой settings (id = 1).
package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/points-bot/internal/common"
)

// Repository реализует Store поверх PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий настроек.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// Get читает настройки. Если строки нет (её удалили руками) —
// возвращаются значения по умолчанию.
func (r *Repository) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.db.QueryRow(ctx,
		`SELECT sticker_filter, updated_at FROM settings WHERE id = 1`,
	).Scan(&s.StickerFilter, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, nil
		}
		return Settings{}, common.WrapStore("settings.get", err)
	}
	return s, nil
}

// ToggleStickerFilter инвертирует флаг одним запросом.
func (r *Repository) ToggleStickerFilter(ctx context.Context) (bool, error) {
	query := `
		INSERT INTO settings (id, sticker_filter) VALUES (1, TRUE)
		ON CONFLICT (id) DO UPDATE
		SET sticker_filter = NOT settings.sticker_filter, updated_at = NOW()
		RETURNING sticker_filter
	`
	var enabled bool
	if err := r.db.QueryRow(ctx, query).Scan(&enabled); err != nil {
		return false, common.WrapStore("settings.toggle_sticker_filter", err)
	}
	return enabled, nil
}

// SetStickerFilter задаёт флаг явно.
func (r *Repository) SetStickerFilter(ctx context.Context, enabled bool) error {
	query := `
		INSERT INTO settings (id, sticker_filter) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE
		SET sticker_filter = EXCLUDED.sticker_filter, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, enabled); err != nil {
		return common.WrapStore("settings.set_sticker_filter", err)
	}
	return nil
}
