// Package award начисляет очки за обычные (не командные) сообщения:
// очко за активность и бонус за распознанное действие.
package award

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/chat"
	"serotonyl.ru/points-bot/internal/features/actions"
	"serotonyl.ru/points-bot/internal/features/ledger"
	"serotonyl.ru/points-bot/internal/metrics"
)

// Result — итог обработки сообщения.
type Result struct {
	Balance  int64  // баланс после всех начислений
	Action   string // распознанное действие ("" если нет)
	Bonus    int64  // применённый бонус
	BonusErr error  // ошибка бонуса; очко за активность при этом сохранено
}

// Engine применяет правила начисления.
type Engine struct {
	ledger   *ledger.Service
	actions  *actions.Service
	patterns actions.Patterns
}

// NewEngine создаёт движок с таблицей шаблонов по умолчанию.
func NewEngine(ledgerSvc *ledger.Service, actionsSvc *actions.Service) *Engine {
	return &Engine{
		ledger:   ledgerSvc,
		actions:  actionsSvc,
		patterns: actions.DefaultPatterns,
	}
}

// WithPatterns заменяет таблицу шаблонов.
func (e *Engine) WithPatterns(p actions.Patterns) *Engine {
	e.patterns = p
	return e
}

// Process начисляет очки за сообщение ev.
// Ошибка возвращается только если не удалось начислить очко за активность.
func (e *Engine) Process(ctx context.Context, ev chat.Event) (Result, error) {
	balance, err := e.ledger.RecordActivity(ctx, ev.SenderID, ev.SenderName)
	if err != nil {
		return Result{}, err
	}
	res := Result{Balance: balance}

	action, ok := e.patterns.Match(ev.Text)
	if !ok {
		return res, nil
	}
	res.Action = action

	points, err := e.actions.Points(ctx, action)
	if err != nil {
		e.bonusFailed(ev, action, err)
		res.BonusErr = err
		return res, nil
	}
	if points == 0 {
		return res, nil
	}

	balance, err = e.ledger.Adjust(ctx, ev.SenderID, ev.SenderName, points, metrics.ReasonBonus)
	if err != nil {
		e.bonusFailed(ev, action, err)
		res.BonusErr = err
		return res, nil
	}
	res.Balance = balance
	res.Bonus = points

	log.WithFields(log.Fields{
		"user_id": ev.SenderID,
		"action":  action,
		"bonus":   points,
		"balance": balance,
	}).Info("Начислен бонус за действие")

	return res, nil
}

func (e *Engine) bonusFailed(ev chat.Event, action string, err error) {
	log.WithError(err).WithFields(log.Fields{
		"user_id":   ev.SenderID,
		"action":    action,
		"update_id": ev.UpdateID,
	}).Warn("Бонус не начислен, очко за активность сохранено")
}
