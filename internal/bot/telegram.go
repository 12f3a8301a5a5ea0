// Package bot — telegram.go: адаптер Telegram (telego).
// Превращает апдейты в chat.Event и выполняет действия chat.Transport.
package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"serotonyl.ru/points-bot/internal/chat"
	"serotonyl.ru/points-bot/internal/common"
)

// TelegramTransport выполняет действия ядра через Bot API.
type TelegramTransport struct {
	api *telego.Bot
}

// NewTelegramTransport создаёт транспорт.
func NewTelegramTransport(api *telego.Bot) *TelegramTransport {
	return &TelegramTransport{api: api}
}

var _ chat.Transport = (*TelegramTransport)(nil)

// SendReply отправляет текстовое сообщение в чат.
func (t *TelegramTransport) SendReply(ctx context.Context, chatID int64, text string) error {
	if _, err := t.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	return nil
}

// DeleteMessage удаляет сообщение.
func (t *TelegramTransport) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	err := t.api.DeleteMessage(ctx, &telego.DeleteMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("deleteMessage: %w", err)
	}
	return nil
}

// PinMessage закрепляет сообщение.
func (t *TelegramTransport) PinMessage(ctx context.Context, chatID int64, messageID int) error {
	err := t.api.PinChatMessage(ctx, &telego.PinChatMessageParams{
		ChatID:    tu.ID(chatID),
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("pinChatMessage: %w", err)
	}
	return nil
}

// KickMember исключает участника: бан и сразу разбан,
// чтобы он мог вернуться по приглашению.
func (t *TelegramTransport) KickMember(ctx context.Context, chatID, userID int64) error {
	err := t.api.BanChatMember(ctx, &telego.BanChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: userID,
	})
	if err != nil {
		return fmt.Errorf("banChatMember: %w", err)
	}
	err = t.api.UnbanChatMember(ctx, &telego.UnbanChatMemberParams{
		ChatID:       tu.ID(chatID),
		UserID:       userID,
		OnlyIfBanned: true,
	})
	if err != nil {
		return fmt.Errorf("unbanChatMember: %w", err)
	}
	return nil
}

// FromUpdate превращает апдейт в событие. ok == false для апдейтов,
// которые бот не обрабатывает (не сообщение, канал, сообщение от бота).
func FromUpdate(update telego.Update, parser *CommandParser) (chat.Event, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return chat.Event{}, false
	}

	ev := chat.Event{
		UpdateID:   int64(update.UpdateID),
		ChatID:     msg.Chat.ID,
		MessageID:  msg.MessageID,
		SenderID:   msg.From.ID,
		SenderName: userName(msg.From),
		Text:       msg.Text,
		IsSticker:  msg.Sticker != nil,
		IsPrivate:  msg.Chat.Type == telego.ChatTypePrivate,
	}

	// В темах форума каждое сообщение «отвечает» на служебное сообщение
	// о создании темы; такой ответ не считается целью команды.
	if reply := msg.ReplyToMessage; reply != nil && reply.ForumTopicCreated == nil {
		ev.ReplyToMessageID = reply.MessageID
		if reply.From != nil {
			ev.ReplyTo = &chat.Target{UserID: reply.From.ID, DisplayName: userName(reply.From)}
		}
	}

	for _, e := range msg.Entities {
		if e.Type == telego.EntityTypeTextMention && e.User != nil {
			ev.Mentions = append(ev.Mentions, chat.Target{UserID: e.User.ID, DisplayName: userName(e.User)})
		}
	}

	if cmd, ok := parser.ParseCommand(msg.Text); ok {
		ev.IsCommand = true
		ev.Args = cmd.Args
		ev.RawArgs = cmd.RawArgs
		// Команда другому боту остаётся командой, но с пустым именем:
		// диспетчер её молча пропустит, очко за неё не начисляется.
		if !cmd.ForOtherBot {
			ev.Command = cmd.Name
		}
	}

	return ev, true
}

func userName(u *telego.User) string {
	return common.DisplayName(u.ID, u.Username, u.FirstName, u.LastName)
}
