package settings

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/metrics"
)

// Service управляет настройками группы.
type Service struct {
	store Store
}

// NewService создаёт сервис настроек.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// StickerFilterEnabled сообщает, нужно ли удалять стикеры.
func (s *Service) StickerFilterEnabled(ctx context.Context) (bool, error) {
	st, err := s.store.Get(ctx)
	if err != nil {
		metrics.ObserveStoreError(err)
		return false, err
	}
	return st.StickerFilter, nil
}

// ToggleStickerFilter переключает фильтр стикеров.
func (s *Service) ToggleStickerFilter(ctx context.Context) (bool, error) {
	enabled, err := s.store.ToggleStickerFilter(ctx)
	if err != nil {
		metrics.ObserveStoreError(err)
		return false, err
	}
	log.WithField("enabled", enabled).Info("Фильтр стикеров переключён")
	return enabled, nil
}
