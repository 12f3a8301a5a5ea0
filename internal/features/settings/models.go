// Package settings хранит настройки группы — единственную строку таблицы settings.
package settings

import (
	"context"
	"time"
)

// Settings — настройки группы.
type Settings struct {
	StickerFilter bool      `db:"sticker_filter"` // Удалять стикеры
	UpdatedAt     time.Time `db:"updated_at"`
}

// Store — хранилище настроек. Строка создаётся миграцией и существует всегда.
type Store interface {
	Get(ctx context.Context) (Settings, error)
	// ToggleStickerFilter атомарно инвертирует флаг и возвращает новое значение.
	ToggleStickerFilter(ctx context.Context) (bool, error)
	SetStickerFilter(ctx context.Context, enabled bool) error
}
