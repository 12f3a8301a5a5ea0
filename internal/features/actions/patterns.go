// Package actions — patterns.go сопоставляет текст сообщения с действием.
// Таблица шаблонов — данные, а не ветвления: новое действие добавляется
// строкой в DefaultPatterns.
package actions

import "strings"

// MatchKind — способ сравнения текста с шаблоном.
type MatchKind int

const (
	// PrefixMatch — текст начинается с шаблона
	PrefixMatch MatchKind = iota
	// ExactMatch — текст целиком равен шаблону
	ExactMatch
)

// Pattern связывает текстовый шаблон (в нижнем регистре) с именем действия.
type Pattern struct {
	Kind   MatchKind
	Text   string
	Action string
}

// ActionQuizAnswer — ответ на квиз: "answer: 7".
const ActionQuizAnswer = "quiz_answer"

// DefaultPatterns — распознаваемые действия. Первое совпадение побеждает.
var DefaultPatterns = Patterns{
	{Kind: PrefixMatch, Text: "answer:", Action: ActionQuizAnswer},
}

// Patterns — упорядоченная таблица шаблонов.
type Patterns []Pattern

// Match возвращает действие для текста. Регистр не важен,
// пробелы в начале и конце игнорируются. Пустой текст ничему не соответствует.
func (p Patterns) Match(text string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return "", false
	}
	for _, pat := range p {
		switch pat.Kind {
		case PrefixMatch:
			if strings.HasPrefix(normalized, pat.Text) {
				return pat.Action, true
			}
		case ExactMatch:
			if normalized == pat.Text {
				return pat.Action, true
			}
		}
	}
	return "", false
}
