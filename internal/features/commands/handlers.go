// Package commands — handlers.go: реализация команд.
// Обработчик получает уже авторизованное событие и отвечает через Transport.
package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/chat"
	"serotonyl.ru/points-bot/internal/common"
	"serotonyl.ru/points-bot/internal/features/actions"
	"serotonyl.ru/points-bot/internal/features/leaderboard"
	"serotonyl.ru/points-bot/internal/features/ledger"
	"serotonyl.ru/points-bot/internal/features/settings"
	"serotonyl.ru/points-bot/internal/metrics"
)

// maxMessageLen — лимит длины одного сообщения Telegram с запасом.
const maxMessageLen = 4000

// Handlers содержит зависимости команд.
type Handlers struct {
	ledger      *ledger.Service
	actions     *actions.Service
	settings    *settings.Service
	leaderboard *leaderboard.Service
	transport   chat.Transport
}

// NewHandlers создаёт набор обработчиков.
func NewHandlers(
	ledgerSvc *ledger.Service,
	actionsSvc *actions.Service,
	settingsSvc *settings.Service,
	leaderboardSvc *leaderboard.Service,
	transport chat.Transport,
) *Handlers {
	return &Handlers{
		ledger:      ledgerSvc,
		actions:     actionsSvc,
		settings:    settingsSvc,
		leaderboard: leaderboardSvc,
		transport:   transport,
	}
}

// Help отвечает справкой.
func (h *Handlers) Help(ctx context.Context, ev chat.Event) error {
	return h.reply(ctx, ev.ChatID, helpText)
}

// Reward даёт цели одно очко. Ограничений на частоту нет,
// наградить можно и себя.
func (h *Handlers) Reward(ctx context.Context, ev chat.Event) error {
	target, _, err := h.resolveTarget(ctx, ev)
	if err != nil {
		return err
	}
	balance, err := h.ledger.Adjust(ctx, target.UserID, target.DisplayName, 1, metrics.ReasonReward)
	if err != nil {
		return err
	}
	return h.reply(ctx, ev.ChatID, fmt.Sprintf("🎉 %s rewarded %s with +1 point! Balance: %s",
		ev.SenderName, target.DisplayName, common.FormatPoints(balance)))
}

// GivePoints прибавляет цели произвольное число очков (в том числе отрицательное).
//
// Формат: /givepoints @username 5
// или ответом на сообщение: /givepoints 5
func (h *Handlers) GivePoints(ctx context.Context, ev chat.Event) error {
	target, rest, err := h.resolveTarget(ctx, ev)
	if err != nil {
		return err
	}
	points, ok := firstInt(rest)
	if !ok {
		return common.Usage("не указано число очков")
	}
	balance, err := h.ledger.Adjust(ctx, target.UserID, target.DisplayName, points, metrics.ReasonAdmin)
	if err != nil {
		return err
	}
	return h.reply(ctx, ev.ChatID, fmt.Sprintf("✅ %s: %s. Balance: %s",
		target.DisplayName, common.FormatPointsDelta(points), common.FormatPoints(balance)))
}

// SetPoints задаёт стоимость действия. Повторный вызов перезаписывает значение.
//
// Формат: /setpoints quiz_answer 5
func (h *Handlers) SetPoints(ctx context.Context, ev chat.Event) error {
	if len(ev.Args) < 2 {
		return common.Usage("нужны действие и число очков")
	}
	action := actions.NormalizeAction(ev.Args[0])
	if action == "" {
		return common.Usage("пустое имя действия")
	}
	points, err := strconv.ParseInt(ev.Args[1], 10, 64)
	if err != nil {
		return common.Usage("очки должны быть целым числом")
	}
	if err := h.actions.Set(ctx, action, points); err != nil {
		return err
	}
	return h.reply(ctx, ev.ChatID, fmt.Sprintf("✅ Action %q now gives %s.", action, common.FormatPoints(points)))
}

// MyPoints показывает баланс вызывающего.
func (h *Handlers) MyPoints(ctx context.Context, ev chat.Event) error {
	balance, err := h.ledger.Balance(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	return h.reply(ctx, ev.ChatID, fmt.Sprintf("💰 %s, you have %s.", ev.SenderName, common.FormatPoints(balance)))
}

// Leaderboard показывает таблицу лидеров.
func (h *Handlers) Leaderboard(ctx context.Context, ev chat.Event) error {
	text, err := h.leaderboard.Text(ctx)
	if err != nil {
		return err
	}
	return h.reply(ctx, ev.ChatID, text)
}

// Actions перечисляет правила начисления.
func (h *Handlers) Actions(ctx context.Context, ev chat.Event) error {
	rules, err := h.actions.List(ctx)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return h.reply(ctx, ev.ChatID, "📋 No bonus actions are configured yet.")
	}
	var b strings.Builder
	b.WriteString("📋 Bonus actions:")
	for _, r := range rules {
		fmt.Fprintf(&b, "\n• %s: %s", r.Action, common.FormatPointsDelta(r.Points))
	}
	return h.reply(ctx, ev.ChatID, b.String())
}

// TagAll упоминает всех участников с @username, кроме вызывающего.
// Участников без @username упомянуть текстом нельзя: в конце ответа
// сообщается, сколько их пропущено. Длинный список делится на несколько сообщений.
func (h *Handlers) TagAll(ctx context.Context, ev chat.Event) error {
	users, err := h.ledger.Members(ctx)
	if err != nil {
		return err
	}

	header := "📢 "
	if ev.RawArgs != "" {
		header += ev.RawArgs + "\n"
	}

	var names []string
	skipped := 0
	for _, u := range users {
		if u.ID == ev.SenderID {
			continue
		}
		if !strings.HasPrefix(u.Username, "@") {
			skipped++
			continue
		}
		names = append(names, u.Username)
	}

	var note string
	if skipped > 0 {
		note = fmt.Sprintf("ℹ️ Not tagged (no @username): %d", skipped)
	}
	if len(names) == 0 {
		if note != "" {
			return h.reply(ctx, ev.ChatID, "Nobody to tag yet. "+note)
		}
		return h.reply(ctx, ev.ChatID, "Nobody to tag yet.")
	}

	for _, chunk := range chunkMentions(header, names, maxMessageLen) {
		_ = h.reply(ctx, ev.ChatID, chunk)
	}
	if note != "" {
		_ = h.reply(ctx, ev.ChatID, note)
	}
	return nil
}

// StickerFilter переключает удаление стикеров.
func (h *Handlers) StickerFilter(ctx context.Context, ev chat.Event) error {
	enabled, err := h.settings.ToggleStickerFilter(ctx)
	if err != nil {
		return err
	}
	if enabled {
		return h.reply(ctx, ev.ChatID, "🧹 Sticker filter enabled: stickers will be deleted.")
	}
	return h.reply(ctx, ev.ChatID, "🧹 Sticker filter disabled.")
}

// Kick исключает участника из чата (он сможет вернуться по ссылке).
func (h *Handlers) Kick(ctx context.Context, ev chat.Event) error {
	target, _, err := h.resolveTarget(ctx, ev)
	if err != nil {
		return err
	}
	if err := h.transport.KickMember(ctx, ev.ChatID, target.UserID); err != nil {
		return fmt.Errorf("kick %d: %w", target.UserID, err)
	}
	log.WithFields(log.Fields{
		"chat_id": ev.ChatID,
		"user_id": target.UserID,
	}).Info("Участник исключён")
	return h.reply(ctx, ev.ChatID, fmt.Sprintf("👢 %s was kicked.", target.DisplayName))
}

// Pin закрепляет сообщение, на которое ответили.
func (h *Handlers) Pin(ctx context.Context, ev chat.Event) error {
	if ev.ReplyToMessageID == 0 {
		return common.ErrNoReply
	}
	if err := h.transport.PinMessage(ctx, ev.ChatID, ev.ReplyToMessageID); err != nil {
		return fmt.Errorf("pin %d: %w", ev.ReplyToMessageID, err)
	}
	return nil
}

// Delete удаляет сообщение, на которое ответили, и саму команду.
func (h *Handlers) Delete(ctx context.Context, ev chat.Event) error {
	if ev.ReplyToMessageID == 0 {
		return common.ErrNoReply
	}
	if err := h.transport.DeleteMessage(ctx, ev.ChatID, ev.ReplyToMessageID); err != nil {
		return fmt.Errorf("delete %d: %w", ev.ReplyToMessageID, err)
	}
	if ev.MessageID != 0 {
		if err := h.transport.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
			log.WithError(err).WithField("message_id", ev.MessageID).Warn("Не удалось удалить сообщение с командой")
		}
	}
	return nil
}

// resolveTarget находит пользователя, к которому относится команда.
// Порядок: автор сообщения, на которое ответили; text_mention;
// имя первым аргументом. Возвращает оставшиеся аргументы.
func (h *Handlers) resolveTarget(ctx context.Context, ev chat.Event) (chat.Target, []string, error) {
	if ev.ReplyTo != nil {
		rest := ev.Args
		if len(rest) > 0 && strings.HasPrefix(rest[0], "@") {
			rest = rest[1:]
		}
		return *ev.ReplyTo, rest, nil
	}

	if len(ev.Mentions) > 0 {
		return ev.Mentions[0], ev.Args, nil
	}

	if len(ev.Args) == 0 {
		return chat.Target{}, nil, common.Usage("не указан пользователь")
	}

	name := ev.Args[0]
	if common.NormalizeName(name) == "" {
		return chat.Target{}, nil, common.Usage("пустое имя пользователя")
	}
	u, err := h.ledger.FindByName(ctx, name)
	if err != nil {
		return chat.Target{}, nil, err
	}
	return chat.Target{UserID: u.ID, DisplayName: u.Username}, ev.Args[1:], nil
}

// reply отправляет ответ. Сбой отправки не отменяет уже сделанное изменение,
// поэтому он только логируется.
func (h *Handlers) reply(ctx context.Context, chatID int64, text string) error {
	if err := h.transport.SendReply(ctx, chatID, text); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось отправить ответ")
	}
	return nil
}

// firstInt возвращает первый аргумент, который разбирается как целое число.
// Слова перед ним (например, имя из text_mention) пропускаются.
func firstInt(args []string) (int64, bool) {
	for _, a := range args {
		if n, err := strconv.ParseInt(a, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// chunkMentions склеивает имена в сообщения не длиннее limit байт.
func chunkMentions(header string, names []string, limit int) []string {
	var chunks []string
	var b strings.Builder
	b.WriteString(header)
	count := 0
	for _, name := range names {
		if count > 0 && b.Len()+len(name)+1 > limit {
			chunks = append(chunks, b.String())
			b.Reset()
			count = 0
		}
		if count > 0 {
			b.WriteString(" ")
		}
		b.WriteString(name)
		count++
	}
	if count > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
