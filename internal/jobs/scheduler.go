// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: публикация таблицы лидеров в группе
// и очистка старых отметок дедупликации.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/chat"
	"serotonyl.ru/points-bot/internal/common"
	"serotonyl.ru/points-bot/internal/config"
	"serotonyl.ru/points-bot/internal/features/leaderboard"
)

// purgeSpec — очистка processed_updates раз в час.
const purgeSpec = "15 * * * *"

// Purger удаляет отметки обработанных апдейтов старше olderThan.
type Purger interface {
	Purge(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron        *cron.Cron
	location    *time.Location
	leaderboard *leaderboard.Service
	transport   chat.Transport
	purger      Purger

	groupChatID     int64
	leaderboardSpec string
	retention       time.Duration
}

// NewScheduler создаёт планировщик в часовом поясе APP_TIMEZONE.
// purger может быть nil (дедупликация через Redis сама истекает по TTL).
func NewScheduler(cfg *config.Config, lb *leaderboard.Service, transport chat.Transport, purger Purger) *Scheduler {
	loc := common.LoadLocation(cfg.AppTimezone)
	if loc.String() != cfg.AppTimezone {
		log.WithField("timezone", cfg.AppTimezone).Warn("Не удалось загрузить часовой пояс, используем UTC")
	}

	return &Scheduler{
		cron:            cron.New(cron.WithLocation(loc)),
		location:        loc,
		leaderboard:     lb,
		transport:       transport,
		purger:          purger,
		groupChatID:     cfg.GroupChatID,
		leaderboardSpec: cfg.LeaderboardCron,
		retention:       cfg.DedupTTL,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.groupChatID != 0 && s.leaderboardSpec != "" {
		if _, err := s.cron.AddFunc(s.leaderboardSpec, func() {
			log.Info("[CRON] Публикация таблицы лидеров")
			if err := s.PostLeaderboard(ctx); err != nil {
				log.WithError(err).Error("[CRON] Ошибка публикации таблицы лидеров")
			}
		}); err != nil {
			return fmt.Errorf("LEADERBOARD_CRON %q: %w", s.leaderboardSpec, err)
		}
	}

	if s.purger != nil {
		if _, err := s.cron.AddFunc(purgeSpec, func() {
			if err := s.PurgeProcessed(ctx); err != nil {
				log.WithError(err).Error("[CRON] Ошибка очистки processed_updates")
			}
		}); err != nil {
			return fmt.Errorf("purge: %w", err)
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"timezone": s.location.String(),
		"jobs":     len(s.cron.Entries()),
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// PostLeaderboard отправляет таблицу лидеров в группу.
func (s *Scheduler) PostLeaderboard(ctx context.Context) error {
	text, err := s.leaderboard.Text(ctx)
	if err != nil {
		return err
	}
	return s.transport.SendReply(ctx, s.groupChatID, "📅 Weekly results\n\n"+text)
}

// PurgeProcessed удаляет отметки старше DEDUP_TTL.
func (s *Scheduler) PurgeProcessed(ctx context.Context) error {
	n, err := s.purger.Purge(ctx, s.retention)
	if err != nil {
		return err
	}
	log.WithField("deleted", n).Debug("[CRON] processed_updates очищена")
	return nil
}
