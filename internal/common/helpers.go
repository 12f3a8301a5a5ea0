// Package common содержит общие утилиты, используемые во всём проекте:
// форматирование очков, работа с именами и временем.
package common

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// PluralizePoints возвращает "point" для ±1 и "points" для остальных чисел.
//
// Примеры:
//
//	PluralizePoints(1)  → "point"
//	PluralizePoints(-1) → "point"
//	PluralizePoints(0)  → "points"
//	PluralizePoints(5)  → "points"
func PluralizePoints(n int64) string {
	if n == 1 || n == -1 {
		return "point"
	}
	return "points"
}

// FormatPoints форматирует баланс в читабельную строку.
// Пример: FormatPoints(7) → "7 points"
func FormatPoints(n int64) string {
	return fmt.Sprintf("%d %s", n, PluralizePoints(n))
}

// FormatPointsDelta создаёт строку вида "+5 points" или "-10 points".
func FormatPointsDelta(n int64) string {
	if n >= 0 {
		return fmt.Sprintf("+%d %s", n, PluralizePoints(n))
	}
	return fmt.Sprintf("%d %s", n, PluralizePoints(n))
}

// DisplayName собирает отображаемое имя пользователя.
// Приоритет: @username, затем "Имя Фамилия", затем "id<число>".
func DisplayName(userID int64, username, firstName, lastName string) string {
	if username != "" {
		return "@" + username
	}
	name := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if name != "" {
		return name
	}
	return fmt.Sprintf("id%d", userID)
}

// NormalizeName приводит имя к виду для поиска: без "@", в нижнем регистре.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
}

// Truncate обрезает строку до n рун и добавляет "...".
// Используется для логирования текста сообщений.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// LoadLocation загружает часовой пояс; при ошибке — UTC.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
