package testutil

import (
	"context"
	"sync"

	"serotonyl.ru/points-bot/internal/chat"
)

// Reply — отправленный ответ.
type Reply struct {
	ChatID int64
	Text   string
}

// MessageRef — ссылка на сообщение (удаление, закрепление).
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Kick — исключение участника.
type Kick struct {
	ChatID int64
	UserID int64
}

// RecordingTransport запоминает все запрошенные ядром действия.
type RecordingTransport struct {
	mu      sync.Mutex
	Replies []Reply
	Deleted []MessageRef
	Pinned  []MessageRef
	Kicked  []Kick
	Err     error
}

var _ chat.Transport = (*RecordingTransport)(nil)

// SendReply — см. chat.Transport.
func (t *RecordingTransport) SendReply(_ context.Context, chatID int64, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Replies = append(t.Replies, Reply{ChatID: chatID, Text: text})
	return t.Err
}

// DeleteMessage — см. chat.Transport.
func (t *RecordingTransport) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Deleted = append(t.Deleted, MessageRef{ChatID: chatID, MessageID: messageID})
	return t.Err
}

// PinMessage — см. chat.Transport.
func (t *RecordingTransport) PinMessage(_ context.Context, chatID int64, messageID int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Pinned = append(t.Pinned, MessageRef{ChatID: chatID, MessageID: messageID})
	return t.Err
}

// KickMember — см. chat.Transport.
func (t *RecordingTransport) KickMember(_ context.Context, chatID, userID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Kicked = append(t.Kicked, Kick{ChatID: chatID, UserID: userID})
	return t.Err
}

// LastReply возвращает текст последнего ответа или "".
func (t *RecordingTransport) LastReply() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Replies) == 0 {
		return ""
	}
	return t.Replies[len(t.Replies)-1].Text
}

// ReplyCount возвращает число отправленных ответов.
func (t *RecordingTransport) ReplyCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Replies)
}
