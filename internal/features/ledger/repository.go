// Package ledger — repository.go выполняет все операции с таблицей users.
// Любое изменение баланса — один SQL-запрос INSERT ... ON CONFLICT ... RETURNING,
// без пары «прочитать, затем записать» на стороне приложения.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/points-bot/internal/common"
)

// Repository реализует Store поверх PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий очков.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

var _ Store = (*Repository)(nil)

// UpsertActivity начисляет очко за активность.
// Новый пользователь получает баланс 1, существующий — +1 и свежее имя.
func (r *Repository) UpsertActivity(ctx context.Context, userID int64, displayName string) (int64, error) {
	query := `
		INSERT INTO users (id, username, points)
		VALUES ($1, $2, 1)
		ON CONFLICT (id) DO UPDATE
		SET points = users.points + 1,
		    username = EXCLUDED.username,
		    updated_at = NOW()
		RETURNING points
	`
	var points int64
	if err := r.db.QueryRow(ctx, query, userID, displayName).Scan(&points); err != nil {
		return 0, common.WrapStore("ledger.upsert_activity", err)
	}
	return points, nil
}

// AdjustBalance прибавляет delta к балансу пользователя.
// Если пользователя нет — создаёт его с балансом delta.
func (r *Repository) AdjustBalance(ctx context.Context, userID int64, displayName string, delta int64) (int64, error) {
	query := `
		INSERT INTO users (id, username, points)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET points = users.points + EXCLUDED.points,
		    username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
		    updated_at = NOW()
		RETURNING points
	`
	var points int64
	if err := r.db.QueryRow(ctx, query, userID, displayName, delta).Scan(&points); err != nil {
		return 0, common.WrapStore("ledger.adjust_balance", err)
	}
	return points, nil
}

// GetBalance возвращает текущий баланс пользователя.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, bool, error) {
	var points int64
	err := r.db.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, common.WrapStore("ledger.get_balance", err)
	}
	return points, true, nil
}

// TopN возвращает лидеров: по убыванию очков, при равенстве — по возрастанию id.
func (r *Repository) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	query := `
		SELECT id, COALESCE(username, ''), points
		FROM users
		ORDER BY points DESC, id ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, common.WrapStore("ledger.top_n", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, n)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UserID, &e.DisplayName, &e.Points); err != nil {
			return nil, common.WrapStore("ledger.top_n", fmt.Errorf("ошибка сканирования: %w", err))
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapStore("ledger.top_n", err)
	}
	return out, nil
}

// FindByName ищет пользователя по отображаемому имени ("@alice", "alice", "Alice").
// Если совпадений несколько — берётся тот, кто писал последним.
func (r *Repository) FindByName(ctx context.Context, name string) (*User, error) {
	query := `
		SELECT id, COALESCE(username, ''), points, created_at, updated_at
		FROM users
		WHERE LOWER(LTRIM(username, '@')) = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var u User
	err := r.db.QueryRow(ctx, query, common.NormalizeName(name)).Scan(
		&u.ID, &u.Username, &u.Points, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w (name=%s)", common.ErrUserNotFound, name)
		}
		return nil, common.WrapStore("ledger.find_by_name", err)
	}
	return &u, nil
}

// Members возвращает всех пользователей в порядке id.
func (r *Repository) Members(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, COALESCE(username, ''), points, created_at, updated_at
		FROM users
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, common.WrapStore("ledger.members", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Points, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, common.WrapStore("ledger.members", fmt.Errorf("ошибка сканирования: %w", err))
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapStore("ledger.members", err)
	}
	return out, nil
}
