package commands

import (
	"context"

	"serotonyl.ru/points-bot/internal/chat"
)

// HandlerFunc выполняет одобренную команду.
// Ответ пользователю при успехе отправляет сам обработчик;
// при ошибке ответ выбирает Dispatcher.
type HandlerFunc func(h *Handlers, ctx context.Context, ev chat.Event) error

// Command — запись таблицы команд.
type Command struct {
	Name    string
	Class   Class
	Usage   string
	Handler HandlerFunc
}

var (
	cmdHelp = Command{
		Name: "help", Class: AnyMember,
		Usage:   "/help",
		Handler: (*Handlers).Help,
	}
	cmdReward = Command{
		Name: "reward", Class: AnyMember,
		Usage:   "Usage: /reward @username (or reply to their message with /reward)",
		Handler: (*Handlers).Reward,
	}
	cmdGivePoints = Command{
		Name: "givepoints", Class: OwnerOnly,
		Usage:   "Usage: /givepoints @username <points> (points may be negative)",
		Handler: (*Handlers).GivePoints,
	}
	cmdSetPoints = Command{
		Name: "setpoints", Class: OwnerOnly,
		Usage:   "Usage: /setpoints <action> <points>",
		Handler: (*Handlers).SetPoints,
	}
	cmdMyPoints = Command{
		Name: "mypoints", Class: AnyMember,
		Usage:   "Usage: /mypoints",
		Handler: (*Handlers).MyPoints,
	}
	cmdLeaderboard = Command{
		Name: "leaderboard", Class: AnyMember,
		Usage:   "Usage: /leaderboard",
		Handler: (*Handlers).Leaderboard,
	}
	cmdActions = Command{
		Name: "actions", Class: AnyMember,
		Usage:   "Usage: /actions",
		Handler: (*Handlers).Actions,
	}
	cmdTagAll = Command{
		Name: "tagall", Class: AnyMember,
		Usage:   "Usage: /tagall [message]",
		Handler: (*Handlers).TagAll,
	}
	cmdStickerFilter = Command{
		Name: "stickerfilter", Class: OwnerOnly,
		Usage:   "Usage: /stickerfilter",
		Handler: (*Handlers).StickerFilter,
	}
	cmdKick = Command{
		Name: "kick", Class: OwnerOnly,
		Usage:   "Usage: /kick @username (or reply to their message with /kick)",
		Handler: (*Handlers).Kick,
	}
	cmdPin = Command{
		Name: "pin", Class: OwnerOnly,
		Usage:   "Usage: reply to a message with /pin",
		Handler: (*Handlers).Pin,
	}
	cmdDelete = Command{
		Name: "del", Class: OwnerOnly,
		Usage:   "Usage: reply to a message with /del",
		Handler: (*Handlers).Delete,
	}
)

// Table — все команды бота. Псевдонимы указывают на ту же запись.
// Других мест регистрации команд нет.
var Table = map[string]Command{
	"start":         cmdHelp,
	"help":          cmdHelp,
	"reward":        cmdReward,
	"givepoints":    cmdGivePoints,
	"setpoints":     cmdSetPoints,
	"mypoints":      cmdMyPoints,
	"leaderboard":   cmdLeaderboard,
	"actions":       cmdActions,
	"tagall":        cmdTagAll,
	"stickerfilter": cmdStickerFilter,
	"kick":          cmdKick,
	"pin":           cmdPin,
	"del":           cmdDelete,
	"delete":        cmdDelete,
}

// helpText — ответ на /start и /help.
const helpText = `👋 Hi! I keep score in this chat.

Every message earns you 1 point. Answer a quiz with "answer: ..." for a bonus.

Commands:
/mypoints — your balance
/leaderboard — top members
/reward @user — give someone a point
/actions — bonus actions and their value
/tagall — mention everyone

Owner only:
/givepoints @user <points>
/setpoints <action> <points>
/stickerfilter — toggle sticker removal
/kick @user
/pin, /del — reply to a message`
