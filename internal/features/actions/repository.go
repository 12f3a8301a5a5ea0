// Package actions — repository.go выполняет операции с таблицей point_actions.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/points-bot/internal/common"
)

// Repository реализует Catalog поверх PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий каталога действий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

var _ Catalog = (*Repository)(nil)

// NormalizeAction приводит имя действия к ключу: без пробелов по краям, в нижнем регистре.
func NormalizeAction(action string) string {
	return strings.ToLower(strings.TrimSpace(action))
}

// GetPoints возвращает очки за действие. Отсутствие правила — не ошибка.
func (r *Repository) GetPoints(ctx context.Context, action string) (int64, error) {
	var points int64
	err := r.db.QueryRow(ctx,
		`SELECT points FROM point_actions WHERE action = $1`, NormalizeAction(action),
	).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, common.WrapStore("actions.get_points", err)
	}
	return points, nil
}

// SetPoints создаёт или перезаписывает правило (последняя запись побеждает).
func (r *Repository) SetPoints(ctx context.Context, action string, points int64) error {
	query := `
		INSERT INTO point_actions (action, points)
		VALUES ($1, $2)
		ON CONFLICT (action) DO UPDATE
		SET points = EXCLUDED.points, updated_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, NormalizeAction(action), points); err != nil {
		return common.WrapStore("actions.set_points", err)
	}
	return nil
}

// List возвращает все правила, отсортированные по имени.
func (r *Repository) List(ctx context.Context) ([]Rule, error) {
	rows, err := r.db.Query(ctx, `SELECT action, points, updated_at FROM point_actions ORDER BY action`)
	if err != nil {
		return nil, common.WrapStore("actions.list", err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.Action, &rule.Points, &rule.UpdatedAt); err != nil {
			return nil, common.WrapStore("actions.list", fmt.Errorf("ошибка сканирования: %w", err))
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapStore("actions.list", err)
	}
	return out, nil
}

// Seed добавляет правила из начального набора, не перезаписывая существующие.
func (r *Repository) Seed(ctx context.Context, rules []Rule) (int, error) {
	added := 0
	for _, rule := range rules {
		tag, err := r.db.Exec(ctx, `
			INSERT INTO point_actions (action, points)
			VALUES ($1, $2)
			ON CONFLICT (action) DO NOTHING
		`, NormalizeAction(rule.Action), rule.Points)
		if err != nil {
			return added, common.WrapStore("actions.seed", err)
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}
