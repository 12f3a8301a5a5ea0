// Package leaderboard строит таблицу лидеров по балансу очков.
package leaderboard

import (
	"context"
	"fmt"
	"strings"

	"serotonyl.ru/points-bot/internal/common"
	"serotonyl.ru/points-bot/internal/features/ledger"
)

// DefaultSize — размер таблицы для команды leaderboard.
const DefaultSize = 10

// Service отдаёт таблицу лидеров.
type Service struct {
	ledger *ledger.Service
	size   int
}

// NewService создаёт сервис. size <= 0 означает DefaultSize.
func NewService(ledgerSvc *ledger.Service, size int) *Service {
	if size <= 0 {
		size = DefaultSize
	}
	return &Service{ledger: ledgerSvc, size: size}
}

// Size возвращает настроенный размер таблицы.
func (s *Service) Size() int { return s.size }

// Top возвращает не более k лидеров. k <= 0 — пустой список.
func (s *Service) Top(ctx context.Context, k int) ([]ledger.Entry, error) {
	if k <= 0 {
		return nil, nil
	}
	return s.ledger.Top(ctx, k)
}

// Text возвращает отформатированную таблицу настроенного размера.
func (s *Service) Text(ctx context.Context) (string, error) {
	entries, err := s.Top(ctx, s.size)
	if err != nil {
		return "", err
	}
	return Format(entries), nil
}

var medals = []string{"🥇", "🥈", "🥉"}

// Format превращает записи в текст сообщения.
func Format(entries []ledger.Entry) string {
	if len(entries) == 0 {
		return "🏆 Leaderboard is empty. Start chatting to earn points!"
	}

	var b strings.Builder
	b.WriteString("🏆 Leaderboard:\n")
	for i, e := range entries {
		place := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			place = medals[i]
		}
		name := e.DisplayName
		if name == "" {
			name = fmt.Sprintf("id%d", e.UserID)
		}
		fmt.Fprintf(&b, "%s %s — %s\n", place, name, common.FormatPoints(e.Points))
	}
	return strings.TrimRight(b.String(), "\n")
}
