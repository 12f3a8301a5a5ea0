// Package actions — каталог действий: сколько очков стоит распознанное
// в тексте действие (например, ответ на квиз).
package actions

import (
	"context"
	"time"
)

// Rule — правило начисления за действие. Одно правило на имя действия.
type Rule struct {
	Action    string    `db:"action" yaml:"action"`
	Points    int64     `db:"points" yaml:"points"`
	UpdatedAt time.Time `db:"updated_at" yaml:"-"`
}

// Catalog — хранилище правил.
type Catalog interface {
	// GetPoints возвращает очки за действие; 0, если правила нет.
	GetPoints(ctx context.Context, action string) (int64, error)
	// SetPoints создаёт или перезаписывает правило.
	SetPoints(ctx context.Context, action string, points int64) error
	// List возвращает все правила по имени.
	List(ctx context.Context) ([]Rule, error)
	// Seed добавляет правила, которых ещё нет; существующие не трогает.
	// Возвращает число добавленных.
	Seed(ctx context.Context, rules []Rule) (int, error)
}
