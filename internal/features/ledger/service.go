// Package ledger — service.go содержит бизнес-операции над очками.
// Сервис не читает баланс перед записью: вся арифметика происходит в Store.
package ledger

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/metrics"
)

// Service управляет балансами участников.
type Service struct {
	store Store
}

// NewService создаёт сервис очков.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RecordActivity начисляет очко за сообщение.
func (s *Service) RecordActivity(ctx context.Context, userID int64, displayName string) (int64, error) {
	balance, err := s.store.UpsertActivity(ctx, userID, displayName)
	if err != nil {
		metrics.ObserveStoreError(err)
		return 0, err
	}
	metrics.ObservePoints(metrics.ReasonActivity, 1)
	return balance, nil
}

// Adjust меняет баланс на delta. reason попадает в лог и метрики
// (bonus, reward, admin).
func (s *Service) Adjust(ctx context.Context, userID int64, displayName string, delta int64, reason string) (int64, error) {
	balance, err := s.store.AdjustBalance(ctx, userID, displayName, delta)
	if err != nil {
		metrics.ObserveStoreError(err)
		return 0, err
	}
	metrics.ObservePoints(reason, delta)

	log.WithFields(log.Fields{
		"user_id": userID,
		"delta":   delta,
		"balance": balance,
		"reason":  reason,
	}).Debug("Баланс изменён")

	return balance, nil
}

// Balance возвращает баланс; отсутствующий пользователь имеет 0 очков.
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	balance, _, err := s.store.GetBalance(ctx, userID)
	if err != nil {
		metrics.ObserveStoreError(err)
		return 0, err
	}
	return balance, nil
}

// Top возвращает не более n лидеров.
func (s *Service) Top(ctx context.Context, n int) ([]Entry, error) {
	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		metrics.ObserveStoreError(err)
	}
	return entries, err
}

// FindByName ищет участника по имени.
func (s *Service) FindByName(ctx context.Context, name string) (*User, error) {
	u, err := s.store.FindByName(ctx, name)
	if err != nil {
		metrics.ObserveStoreError(err)
	}
	return u, err
}

// Members возвращает всех известных участников.
func (s *Service) Members(ctx context.Context) ([]User, error) {
	users, err := s.store.Members(ctx)
	if err != nil {
		metrics.ObserveStoreError(err)
	}
	return users, err
}
