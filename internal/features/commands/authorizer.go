// Package commands разбирает команды чата: кто их может вызывать,
// как они выполняются и что ответить пользователю.
package commands

// Class — кому доступна команда.
type Class int

const (
	// AnyMember — любой участник чата
	AnyMember Class = iota
	// OwnerOnly — только владелец бота (OWNER_USER_ID)
	OwnerOnly
)

func (c Class) String() string {
	if c == OwnerOnly {
		return "owner_only"
	}
	return "any_member"
}

// Decision — результат проверки прав.
type Decision int

const (
	Denied Decision = iota
	Allowed
)

func (d Decision) String() string {
	if d == Allowed {
		return "allowed"
	}
	return "denied"
}

// Authorizer проверяет права по числовому id вызывающего.
// Отображаемое имя никогда не участвует в проверке.
type Authorizer struct {
	ownerID int64
	table   map[string]Command
}

// NewAuthorizer создаёт проверку прав для таблицы команд.
// ownerID == 0 запрещает все команды владельца.
func NewAuthorizer(ownerID int64, table map[string]Command) *Authorizer {
	return &Authorizer{ownerID: ownerID, table: table}
}

// Authorize решает, может ли callerID выполнить command.
// Неизвестная команда запрещена.
func (a *Authorizer) Authorize(command string, callerID int64) Decision {
	cmd, ok := a.table[command]
	if !ok {
		return Denied
	}
	switch cmd.Class {
	case AnyMember:
		return Allowed
	case OwnerOnly:
		if a.ownerID != 0 && callerID == a.ownerID {
			return Allowed
		}
	}
	return Denied
}
