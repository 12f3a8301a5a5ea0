package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/metrics"
)

// RecoverFromPanic гасит панику в обработчике апдейта.
// Вызывается через defer в начале обработки; остальные апдейты не страдают.
func RecoverFromPanic(updateID int64) {
	if r := recover(); r != nil {
		metrics.EventsTotal.WithLabelValues("panic").Inc()
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"update_id": updateID,
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("ПАНИКА в обработчике — восстановлено")
	}
}
