// Package dedup отсекает повторную доставку одного и того же апдейта.
// Telegram повторяет webhook, если не получил ответ вовремя; очки за
// повтор начисляться не должны.
package dedup

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/common"
)

// Deduplicator помечает апдейт обработанным.
// first == true, если апдейт с таким id встретился впервые.
type Deduplicator interface {
	MarkProcessed(ctx context.Context, updateID int64) (first bool, err error)
}

// keyPrefix — префикс ключей в Redis.
const keyPrefix = "points-bot:update:"

// Redis хранит id апдейтов как ключи с TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis создаёт дедупликатор поверх Redis.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// MarkProcessed — SET NX с TTL: ключ создаёт только первый вызов.
func (r *Redis) MarkProcessed(ctx context.Context, updateID int64) (bool, error) {
	ok, err := r.client.SetNX(ctx, keyPrefix+strconv.FormatInt(updateID, 10), 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Postgres хранит id апдейтов в processed_updates.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres создаёт дедупликатор поверх PostgreSQL.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// MarkProcessed вставляет id; конфликт означает повтор.
func (p *Postgres) MarkProcessed(ctx context.Context, updateID int64) (bool, error) {
	tag, err := p.db.Exec(ctx,
		`INSERT INTO processed_updates (update_id) VALUES ($1) ON CONFLICT (update_id) DO NOTHING`,
		updateID,
	)
	if err != nil {
		return false, common.WrapStore("dedup.mark_processed", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Purge удаляет записи старше olderThan. Возвращает число удалённых.
func (p *Postgres) Purge(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := p.db.Exec(ctx,
		`DELETE FROM processed_updates WHERE processed_at < NOW() - make_interval(secs => $1)`,
		olderThan.Seconds(),
	)
	if err != nil {
		return 0, common.WrapStore("dedup.purge", err)
	}
	return tag.RowsAffected(), nil
}

// Fallback спрашивает primary, а при его ошибке — secondary.
// Пока не прошло window после последнего сбоя primary, новые для primary
// апдейты сверяются и с secondary: там могут лежать id, отмеченные во время сбоя.
type Fallback struct {
	primary   Deduplicator
	secondary Deduplicator
	window    time.Duration
	now       func() time.Time

	mu          sync.Mutex
	lastFailure time.Time
}

// NewFallback объединяет два дедупликатора. window — сколько помнить
// о сбое primary (обычно DEDUP_TTL).
func NewFallback(primary, secondary Deduplicator, window time.Duration) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, window: window, now: time.Now}
}

// MarkProcessed — см. Deduplicator.
func (f *Fallback) MarkProcessed(ctx context.Context, updateID int64) (bool, error) {
	first, err := f.primary.MarkProcessed(ctx, updateID)
	if err != nil {
		f.mu.Lock()
		f.lastFailure = f.now()
		f.mu.Unlock()
		log.WithError(err).WithField("update_id", updateID).Warn("Основной дедупликатор недоступен, используем резервный")
		return f.secondary.MarkProcessed(ctx, updateID)
	}
	if !first || !f.recentlyFailed() {
		return first, nil
	}

	first, err = f.secondary.MarkProcessed(ctx, updateID)
	if err != nil {
		log.WithError(err).WithField("update_id", updateID).Warn("Резервный дедупликатор недоступен")
		return true, nil
	}
	if !first {
		log.WithField("update_id", updateID).Debug("Апдейт уже отмечен во время сбоя основного дедупликатора")
	}
	return first, nil
}

func (f *Fallback) recentlyFailed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.lastFailure.IsZero() && f.now().Sub(f.lastFailure) < f.window
}
