// Package common — errors.go определяет ошибки, общие для всех модулей бота.
// По ним обработчики команд решают, какой ответ отправить пользователю.
package common

import (
	"errors"
	"fmt"
)

// Ошибки команд
var (
	// ErrUsage — аргументы команды отсутствуют или не разбираются
	ErrUsage = errors.New("некорректные аргументы команды")
	// ErrUserNotFound — цель команды не найдена в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrNoReply — команда требует ответа (reply) на сообщение
	ErrNoReply = errors.New("команда должна быть ответом на сообщение")
)

// StoreError — ошибка слоя хранения (БД недоступна, нарушено ограничение, таймаут).
// Обработка одного события прерывается, остальные события не затрагиваются.
type StoreError struct {
	Op  string // Операция, например "ledger.upsert_activity"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ошибка хранилища (%s): %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// WrapStore оборачивает ошибку БД в StoreError. nil остаётся nil.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// IsStoreError проверяет, пришла ли ошибка из слоя хранения.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// UsageError несёт подсказку, что именно не так с аргументами.
// errors.Is(err, ErrUsage) == true.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	if e.Reason == "" {
		return ErrUsage.Error()
	}
	return ErrUsage.Error() + ": " + e.Reason
}

func (e *UsageError) Unwrap() error { return ErrUsage }

// Usage создаёт UsageError с пояснением.
func Usage(reason string) error {
	return &UsageError{Reason: reason}
}
