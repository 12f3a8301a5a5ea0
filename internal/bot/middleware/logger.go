// Package middleware содержит промежуточные обработчики: логирование,
// восстановление после паники, rate-limiting команд и HTTP-middleware для gin.
package middleware

import (
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/chat"
	"serotonyl.ru/points-bot/internal/common"
)

// LogEvent логирует входящее событие.
// Записывает: update_id, user_id, chat_id, имя, тип и текст (первые 50 символов).
func LogEvent(ev chat.Event) {
	log.WithFields(log.Fields{
		"update_id": ev.UpdateID,
		"user_id":   ev.SenderID,
		"chat_id":   ev.ChatID,
		"username":  ev.SenderName,
		"kind":      EventKind(ev),
		"text":      common.Truncate(ev.Text, 50),
	}).Debug("Входящее сообщение")
}

// EventKind — тип события для логов и метрик.
func EventKind(ev chat.Event) string {
	switch {
	case ev.IsCommand:
		return "command"
	case ev.IsSticker:
		return "sticker"
	default:
		return "message"
	}
}
