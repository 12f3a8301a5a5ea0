package commands

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/chat"
	"serotonyl.ru/points-bot/internal/common"
	"serotonyl.ru/points-bot/internal/metrics"
)

// Outcome — чем закончилась обработка команды.
type Outcome int

const (
	OutcomeOK       Outcome = iota // команда выполнена
	OutcomeUnknown                 // токен не из таблицы, ответа нет
	OutcomeDenied                  // нет прав
	OutcomeUsage                   // неверные аргументы
	OutcomeRejected                // цель не найдена
	OutcomeFailed                  // сбой хранилища или транспорта
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeDenied:
		return "denied"
	case OutcomeUsage:
		return "usage"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Ответы, общие для всех команд
const (
	DeniedText  = "⛔ You are not authorized to use this command."
	FailureText = "⚠️ Something went wrong, please try again later."
)

// Dispatcher находит команду, проверяет права и вызывает обработчик.
type Dispatcher struct {
	table      map[string]Command
	authorizer *Authorizer
	handlers   *Handlers
	transport  chat.Transport
}

// NewDispatcher создаёт диспетчер над таблицей Table.
func NewDispatcher(ownerID int64, handlers *Handlers, transport chat.Transport) *Dispatcher {
	return &Dispatcher{
		table:      Table,
		authorizer: NewAuthorizer(ownerID, Table),
		handlers:   handlers,
		transport:  transport,
	}
}

// Dispatch выполняет команду из ev. Никогда не паникует из-за аргументов:
// любая ошибка превращается в ответ и Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, ev chat.Event) Outcome {
	cmd, ok := d.table[ev.Command]
	if !ok {
		// В группе может быть несколько ботов: чужие команды молча пропускаем
		log.WithField("command", ev.Command).Debug("Неизвестная команда пропущена")
		metrics.CommandsTotal.WithLabelValues("unknown", OutcomeUnknown.String()).Inc()
		return OutcomeUnknown
	}

	outcome := d.run(ctx, cmd, ev)
	metrics.CommandsTotal.WithLabelValues(cmd.Name, outcome.String()).Inc()
	return outcome
}

func (d *Dispatcher) run(ctx context.Context, cmd Command, ev chat.Event) Outcome {
	logger := log.WithFields(log.Fields{
		"command": cmd.Name,
		"user_id": ev.SenderID,
		"chat_id": ev.ChatID,
	})

	if d.authorizer.Authorize(ev.Command, ev.SenderID) == Denied {
		logger.Info("Команда отклонена: нет прав")
		d.reply(ctx, ev.ChatID, DeniedText)
		return OutcomeDenied
	}

	err := cmd.Handler(d.handlers, ctx, ev)
	if err == nil {
		logger.Debug("Команда выполнена")
		return OutcomeOK
	}

	switch {
	case errors.Is(err, common.ErrUsage), errors.Is(err, common.ErrNoReply):
		logger.WithError(err).Debug("Неверные аргументы команды")
		d.reply(ctx, ev.ChatID, "ℹ️ "+cmd.Usage)
		return OutcomeUsage

	case errors.Is(err, common.ErrUserNotFound):
		logger.WithError(err).Debug("Цель команды не найдена")
		d.reply(ctx, ev.ChatID, notFoundText(ev))
		return OutcomeRejected

	case common.IsStoreError(err):
		logger.WithError(err).Error("Ошибка хранилища при выполнении команды")

	default:
		logger.WithError(err).Warn("Команда не выполнена")
	}
	d.reply(ctx, ev.ChatID, FailureText)
	return OutcomeFailed
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if err := d.transport.SendReply(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось отправить ответ")
	}
}

func notFoundText(ev chat.Event) string {
	if len(ev.Args) > 0 {
		return fmt.Sprintf("❌ User %s not found. They need to write in the chat first.", ev.Args[0])
	}
	return "❌ User not found."
}
