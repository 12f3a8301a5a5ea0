// Package ledger хранит очки участников: один ряд в users на каждый user id.
// models.go описывает структуры данных и интерфейс хранилища.
package ledger

import (
	"context"
	"time"
)

// User — участник чата и его баланс очков.
type User struct {
	ID        int64     `db:"id"`       // Telegram user ID
	Username  string    `db:"username"` // Последнее увиденное отображаемое имя
	Points    int64     `db:"points"`   // Баланс (может уйти в минус только через givepoints)
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Entry — строка таблицы лидеров.
type Entry struct {
	UserID      int64  `db:"id"`
	DisplayName string `db:"username"`
	Points      int64  `db:"points"`
}

// Store — хранилище очков. Каждая мутация — одна атомарная операция в БД,
// поэтому внешняя блокировка не нужна.
type Store interface {
	// UpsertActivity создаёт пользователя с балансом 1 или прибавляет 1 и обновляет имя.
	UpsertActivity(ctx context.Context, userID int64, displayName string) (int64, error)
	// AdjustBalance прибавляет delta (может быть отрицательной); отсутствующий
	// пользователь создаётся с балансом delta. Пустое имя не затирает известное.
	AdjustBalance(ctx context.Context, userID int64, displayName string, delta int64) (int64, error)
	// GetBalance возвращает баланс; found == false, если пользователя нет.
	GetBalance(ctx context.Context, userID int64) (balance int64, found bool, err error)
	// TopN — не более n записей по убыванию баланса, при равенстве — по id.
	TopN(ctx context.Context, n int) ([]Entry, error)
	// FindByName ищет пользователя по имени без учёта регистра и "@".
	FindByName(ctx context.Context, name string) (*User, error)
	// Members возвращает всех известных пользователей.
	Members(ctx context.Context) ([]User, error)
}
