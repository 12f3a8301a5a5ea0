// Package bot содержит главный цикл бота: приём апдейтов, фильтры
// и маршрутизацию событий к командам или к начислению очков.
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/bot/filters"
	"serotonyl.ru/points-bot/internal/bot/middleware"
	"serotonyl.ru/points-bot/internal/chat"
	"serotonyl.ru/points-bot/internal/config"
	"serotonyl.ru/points-bot/internal/dedup"
	"serotonyl.ru/points-bot/internal/features/award"
	"serotonyl.ru/points-bot/internal/features/commands"
	"serotonyl.ru/points-bot/internal/metrics"
)

// Dispatcher выполняет команды.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev chat.Event) commands.Outcome
}

// AwardEngine начисляет очки за сообщения.
type AwardEngine interface {
	Process(ctx context.Context, ev chat.Event) (award.Result, error)
}

// StickerPolicy сообщает, включён ли фильтр стикеров.
type StickerPolicy interface {
	StickerFilterEnabled(ctx context.Context) (bool, error)
}

// Deps — зависимости бота.
type Deps struct {
	Transport   chat.Transport
	Dispatcher  Dispatcher
	Engine      AwardEngine
	Stickers    StickerPolicy
	Dedup       dedup.Deduplicator // nil — без дедупликации
	ChatFilter  *filters.ChatFilter
	RateLimiter *middleware.RateLimiter
	Parser      *CommandParser
}

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	Deps

	eventTimeout time.Duration

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	wg       sync.WaitGroup
}

// New создаёт бота.
func New(cfg *config.Config, deps Deps) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}
	eventTimeout := cfg.BotEventTimeout
	if eventTimeout <= 0 {
		eventTimeout = 10 * time.Second
	}
	if deps.Parser == nil {
		deps.Parser = NewCommandParser("")
	}
	if deps.ChatFilter == nil {
		deps.ChatFilter = filters.NewChatFilter(cfg.GroupChatID)
	}

	return &Bot{
		Deps:         deps,
		eventTimeout: eventTimeout,
		inflight:     make(chan struct{}, maxInFlight),
	}
}

// Run читает апдейты до закрытия канала или отмены ctx,
// затем дожидается обработки уже принятых.
func (b *Bot) Run(ctx context.Context, updates <-chan telego.Update) {
	log.WithField("max_inflight", cap(b.inflight)).Info("Бот запущен и ожидает сообщения...")
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			ev, ok := FromUpdate(update, b.Parser)
			if !ok {
				metrics.EventsTotal.WithLabelValues("skipped").Inc()
				continue
			}

			// лимит параллелизма
			select {
			case b.inflight <- struct{}{}:
			case <-ctx.Done():
				return
			}
			b.wg.Add(1)
			go func(ev chat.Event) {
				defer func() {
					<-b.inflight
					b.wg.Done()
				}()
				b.HandleEvent(context.WithoutCancel(ctx), ev)
			}(ev)
		}
	}
}

// HandleEvent обрабатывает одно событие.
// Контекст ограничен BOT_EVENT_TIMEOUT.
func (b *Bot) HandleEvent(ctx context.Context, ev chat.Event) {
	defer middleware.RecoverFromPanic(ev.UpdateID)

	kind := middleware.EventKind(ev)
	start := time.Now()
	defer metrics.ObserveUpdate(kind, start)

	ctx, cancel := context.WithTimeout(ctx, b.eventTimeout)
	defer cancel()

	middleware.LogEvent(ev)

	if !b.firstDelivery(ctx, ev) {
		metrics.EventsTotal.WithLabelValues("duplicate").Inc()
		return
	}

	if !b.ChatFilter.CheckAccess(ev) {
		metrics.EventsTotal.WithLabelValues("filtered").Inc()
		return
	}
	metrics.EventsTotal.WithLabelValues(kind).Inc()

	if ev.IsSticker && !ev.IsPrivate && b.removeSticker(ctx, ev) {
		return
	}

	if ev.IsCommand {
		if ev.Command == "" {
			// команда другому боту
			return
		}
		if b.RateLimiter != nil && !b.RateLimiter.Allow(ev.SenderID) {
			log.WithField("user_id", ev.SenderID).Debug("rate limited")
			metrics.EventsTotal.WithLabelValues("rate_limited").Inc()
			return
		}
		b.Dispatcher.Dispatch(ctx, ev)
		return
	}

	// В личке очки не начисляются
	if ev.IsPrivate {
		return
	}

	res, err := b.Engine.Process(ctx, ev)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"update_id": ev.UpdateID,
			"user_id":   ev.SenderID,
		}).Error("Не удалось начислить очко за активность")
		return
	}
	log.WithFields(log.Fields{
		"user_id": ev.SenderID,
		"balance": res.Balance,
		"action":  res.Action,
	}).Debug("Очки начислены")
}

// firstDelivery отсекает повторы апдейта. Если дедупликатор недоступен,
// событие обрабатывается.
func (b *Bot) firstDelivery(ctx context.Context, ev chat.Event) bool {
	if b.Dedup == nil || ev.UpdateID == 0 {
		return true
	}
	first, err := b.Dedup.MarkProcessed(ctx, ev.UpdateID)
	if err != nil {
		log.WithError(err).WithField("update_id", ev.UpdateID).Warn("Дедупликация недоступна")
		return true
	}
	if !first {
		log.WithField("update_id", ev.UpdateID).Debug("Повторный апдейт пропущен")
	}
	return first
}

// removeSticker удаляет стикер, если фильтр включён. Возвращает true,
// если сообщение удалено и обрабатывать его дальше не нужно.
func (b *Bot) removeSticker(ctx context.Context, ev chat.Event) bool {
	enabled, err := b.Stickers.StickerFilterEnabled(ctx)
	if err != nil {
		log.WithError(err).Warn("Не удалось прочитать настройки фильтра стикеров")
		return false
	}
	if !enabled {
		return false
	}
	if err := b.Transport.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id":    ev.ChatID,
			"message_id": ev.MessageID,
		}).Warn("Не удалось удалить стикер")
		return false
	}
	metrics.EventsTotal.WithLabelValues("sticker_deleted").Inc()
	return true
}

// Close освобождает фоновые ресурсы бота.
func (b *Bot) Close() {
	if b.RateLimiter != nil {
		b.RateLimiter.Close()
	}
}
