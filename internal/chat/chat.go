// Package chat описывает границу между ядром бота и транспортом (Telegram).
// Ядро получает Event и решает, какие действия запросить у Transport.
package chat

import "context"

// Target — пользователь, на которого указывает команда
// (автор сообщения, на которое ответили, или упомянутый пользователь).
type Target struct {
	UserID      int64
	DisplayName string
}

// Event — одно входящее событие чата в независимом от транспорта виде.
type Event struct {
	UpdateID  int64
	ChatID    int64
	MessageID int

	SenderID   int64
	SenderName string
	Text       string

	IsCommand bool
	Command   string   // без префикса и @botname, в нижнем регистре
	Args      []string // аргументы, разбитые по пробелам
	RawArgs   string   // аргументы одной строкой

	ReplyTo          *Target // автор сообщения, на которое ответили
	ReplyToMessageID int
	Mentions         []Target // text_mention с известным user id

	IsSticker bool
	IsPrivate bool
}

// Transport выполняет действия, которые запросило ядро.
// Ядро решает только «нужно ли» и «с какими аргументами».
type Transport interface {
	SendReply(ctx context.Context, chatID int64, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	PinMessage(ctx context.Context, chatID int64, messageID int) error
	KickMember(ctx context.Context, chatID, userID int64) error
}
