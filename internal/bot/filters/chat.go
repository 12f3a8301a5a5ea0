// Package filters решает, какие чаты обслуживает бот.
package filters

import (
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/chat"
)

// ChatFilter пропускает события из группы сообщества и из личных чатов.
type ChatFilter struct {
	groupChatID int64
}

// NewChatFilter создаёт фильтр. groupChatID == 0 — принимать любой чат.
func NewChatFilter(groupChatID int64) *ChatFilter {
	return &ChatFilter{groupChatID: groupChatID}
}

// CheckAccess сообщает, нужно ли обрабатывать событие.
func (f *ChatFilter) CheckAccess(ev chat.Event) bool {
	if ev.SenderID == 0 {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   ev.ChatID,
		}).Warn("событие без отправителя")
		return false
	}

	// 1) Фильтр не настроен
	if f.groupChatID == 0 {
		return true
	}

	// 2) Группа сообщества
	if ev.ChatID == f.groupChatID {
		return true
	}

	// 3) Личка: только команды, очки там не начисляются
	if ev.IsPrivate {
		return true
	}

	// 4) Остальные чаты игнорируем
	log.WithFields(log.Fields{
		"component":     "ChatFilter",
		"chat_id":       ev.ChatID,
		"user_id":       ev.SenderID,
		"group_chat_id": f.groupChatID,
	}).Info("deny: not group chat and not private")
	return false
}
