package bot

import "strings"

// ParsedCommand — результат разбора текста команды.
type ParsedCommand struct {
	Name    string   // в нижнем регистре, без префикса и @botname
	Args    []string // аргументы, разбитые по пробелам
	RawArgs string   // аргументы одной строкой
	// ForOtherBot — команда адресована другому боту (/cmd@other_bot)
	ForOtherBot bool
}

// CommandParser разбирает команды с префиксом /.
// Текст вида "!!!" или ".." остаётся обычным сообщением.
type CommandParser struct {
	validPrefixes []string
	botUsername   string
}

// NewCommandParser создаёт парсер. botUsername — имя бота без "@";
// пустое значение отключает проверку адресата.
func NewCommandParser(botUsername string) *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/"},
		botUsername:   strings.ToLower(strings.TrimPrefix(botUsername, "@")),
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// ok == false, если текст не является командой.
func (p *CommandParser) ParseCommand(text string) (ParsedCommand, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return ParsedCommand{}, false
	}

	parts := strings.Fields(text)
	// "/ hello" и "/" — не команды
	if len(parts) == 0 || strings.HasPrefix(text, " ") {
		return ParsedCommand{}, false
	}

	var cmd ParsedCommand
	name := strings.ToLower(parts[0])
	if at := strings.IndexByte(name, '@'); at >= 0 {
		target := name[at+1:]
		name = name[:at]
		if p.botUsername != "" && target != p.botUsername {
			cmd.ForOtherBot = true
		}
	}
	if name == "" {
		return ParsedCommand{}, false
	}
	cmd.Name = name

	if len(parts) > 1 {
		cmd.Args = parts[1:]
		cmd.RawArgs = strings.TrimSpace(strings.TrimPrefix(text, parts[0]))
	}
	return cmd, true
}
