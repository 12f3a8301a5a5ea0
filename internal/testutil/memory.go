// Package testutil содержит in-memory реализации хранилищ и транспорта
// для тестов пакетов бота, а также запуск PostgreSQL в Docker.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"serotonyl.ru/points-bot/internal/common"
	"serotonyl.ru/points-bot/internal/features/actions"
	"serotonyl.ru/points-bot/internal/features/ledger"
	"serotonyl.ru/points-bot/internal/features/settings"
)

// MemoryLedger — потокобезопасная реализация ledger.Store.
// Errors позволяет заставить операцию вернуть ошибку: ключ — имя операции
// ("upsert_activity", "adjust_balance", "get_balance", "top_n", "find_by_name", "members").
type MemoryLedger struct {
	mu     sync.Mutex
	users  map[int64]*ledger.User
	Errors map[string]error
}

// NewMemoryLedger создаёт пустой ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		users:  make(map[int64]*ledger.User),
		Errors: make(map[string]error),
	}
}

var _ ledger.Store = (*MemoryLedger)(nil)

func (m *MemoryLedger) fail(op string) error {
	if err, ok := m.Errors[op]; ok && err != nil {
		return common.WrapStore("ledger."+op, err)
	}
	return nil
}

// UpsertActivity — см. ledger.Store.
func (m *MemoryLedger) UpsertActivity(_ context.Context, userID int64, displayName string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("upsert_activity"); err != nil {
		return 0, err
	}
	now := time.Now()
	u, ok := m.users[userID]
	if !ok {
		m.users[userID] = &ledger.User{ID: userID, Username: displayName, Points: 1, CreatedAt: now, UpdatedAt: now}
		return 1, nil
	}
	u.Points++
	u.Username = displayName
	u.UpdatedAt = now
	return u.Points, nil
}

// AdjustBalance — см. ledger.Store.
func (m *MemoryLedger) AdjustBalance(_ context.Context, userID int64, displayName string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("adjust_balance"); err != nil {
		return 0, err
	}
	now := time.Now()
	u, ok := m.users[userID]
	if !ok {
		m.users[userID] = &ledger.User{ID: userID, Username: displayName, Points: delta, CreatedAt: now, UpdatedAt: now}
		return delta, nil
	}
	u.Points += delta
	if displayName != "" {
		u.Username = displayName
	}
	u.UpdatedAt = now
	return u.Points, nil
}

// GetBalance — см. ledger.Store.
func (m *MemoryLedger) GetBalance(_ context.Context, userID int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("get_balance"); err != nil {
		return 0, false, err
	}
	u, ok := m.users[userID]
	if !ok {
		return 0, false, nil
	}
	return u.Points, true, nil
}

// TopN — см. ledger.Store.
func (m *MemoryLedger) TopN(_ context.Context, n int) ([]ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("top_n"); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}
	out := make([]ledger.Entry, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, ledger.Entry{UserID: u.ID, DisplayName: u.Username, Points: u.Points})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// FindByName — см. ledger.Store.
func (m *MemoryLedger) FindByName(_ context.Context, name string) (*ledger.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("find_by_name"); err != nil {
		return nil, err
	}
	want := common.NormalizeName(name)
	var found *ledger.User
	for _, u := range m.users {
		if common.NormalizeName(u.Username) != want {
			continue
		}
		if found == nil || u.UpdatedAt.After(found.UpdatedAt) {
			found = u
		}
	}
	if found == nil {
		return nil, common.ErrUserNotFound
	}
	cp := *found
	return &cp, nil
}

// Members — см. ledger.Store.
func (m *MemoryLedger) Members(_ context.Context) ([]ledger.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("members"); err != nil {
		return nil, err
	}
	out := make([]ledger.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Put задаёт пользователя напрямую (подготовка теста).
func (m *MemoryLedger) Put(userID int64, displayName string, points int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.users[userID] = &ledger.User{ID: userID, Username: displayName, Points: points, CreatedAt: now, UpdatedAt: now}
}

// Balance возвращает баланс без учёта Errors (проверка в тесте).
func (m *MemoryLedger) Balance(userID int64) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, false
	}
	return u.Points, true
}

// MemoryCatalog — реализация actions.Catalog в памяти.
type MemoryCatalog struct {
	mu     sync.Mutex
	rules  map[string]int64
	Errors map[string]error
}

// NewMemoryCatalog создаёт пустой каталог.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{rules: make(map[string]int64), Errors: make(map[string]error)}
}

var _ actions.Catalog = (*MemoryCatalog)(nil)

func (c *MemoryCatalog) fail(op string) error {
	if err, ok := c.Errors[op]; ok && err != nil {
		return common.WrapStore("actions."+op, err)
	}
	return nil
}

// GetPoints — см. actions.Catalog.
func (c *MemoryCatalog) GetPoints(_ context.Context, action string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("get_points"); err != nil {
		return 0, err
	}
	return c.rules[actions.NormalizeAction(action)], nil
}

// SetPoints — см. actions.Catalog.
func (c *MemoryCatalog) SetPoints(_ context.Context, action string, points int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("set_points"); err != nil {
		return err
	}
	c.rules[actions.NormalizeAction(action)] = points
	return nil
}

// List — см. actions.Catalog.
func (c *MemoryCatalog) List(_ context.Context) ([]actions.Rule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("list"); err != nil {
		return nil, err
	}
	out := make([]actions.Rule, 0, len(c.rules))
	for a, p := range c.rules {
		out = append(out, actions.Rule{Action: a, Points: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out, nil
}

// Seed — см. actions.Catalog.
func (c *MemoryCatalog) Seed(_ context.Context, rules []actions.Rule) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("seed"); err != nil {
		return 0, err
	}
	added := 0
	for _, r := range rules {
		key := actions.NormalizeAction(r.Action)
		if _, ok := c.rules[key]; ok {
			continue
		}
		c.rules[key] = r.Points
		added++
	}
	return added, nil
}

// Rule возвращает правило без учёта Errors.
func (c *MemoryCatalog) Rule(action string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.rules[actions.NormalizeAction(action)]
	return p, ok
}

// MemorySettings — реализация settings.Store в памяти.
type MemorySettings struct {
	mu       sync.Mutex
	settings settings.Settings
	Err      error
}

// NewMemorySettings создаёт настройки по умолчанию (фильтр выключен).
func NewMemorySettings() *MemorySettings {
	return &MemorySettings{}
}

var _ settings.Store = (*MemorySettings)(nil)

// Get — см. settings.Store.
func (s *MemorySettings) Get(_ context.Context) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return settings.Settings{}, common.WrapStore("settings.get", s.Err)
	}
	return s.settings, nil
}

// ToggleStickerFilter — см. settings.Store.
func (s *MemorySettings) ToggleStickerFilter(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, common.WrapStore("settings.toggle_sticker_filter", s.Err)
	}
	s.settings.StickerFilter = !s.settings.StickerFilter
	s.settings.UpdatedAt = time.Now()
	return s.settings.StickerFilter, nil
}

// SetStickerFilter — см. settings.Store.
func (s *MemorySettings) SetStickerFilter(_ context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return common.WrapStore("settings.set_sticker_filter", s.Err)
	}
	s.settings.StickerFilter = enabled
	s.settings.UpdatedAt = time.Now()
	return nil
}
