package award_test

import (
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"serotonyl.ru/points-bot/internal/chat"
	"serotonyl.ru/points-bot/internal/common"
	"serotonyl.ru/points-bot/internal/features/actions"
	"serotonyl.ru/points-bot/internal/features/award"
	"serotonyl.ru/points-bot/internal/features/ledger"
	"serotonyl.ru/points-bot/internal/testutil"
)

func newEngine() (*award.Engine, *testutil.MemoryLedger, *testutil.MemoryCatalog) {
	store := testutil.NewMemoryLedger()
	catalog := testutil.NewMemoryCatalog()
	return award.NewEngine(ledger.NewService(store), actions.NewService(catalog)), store, catalog
}

func msg(userID int64, name, text string) chat.Event {
	return chat.Event{ChatID: -100, SenderID: userID, SenderName: name, Text: text}
}

func TestProcess_ActivityThenQuizBonus(t *testing.T) {
	ctx := context.Background()
	engine, store, catalog := newEngine()
	if err := catalog.SetPoints(ctx, "quiz_answer", 5); err != nil {
		t.Fatalf("SetPoints: %v", err)
	}

	// Первое сообщение: пользователь создаётся с 1 очком
	res, err := engine.Process(ctx, msg(1, "@alice", "hello"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Balance != 1 || res.Action != "" || res.Bonus != 0 {
		t.Errorf("после hello: %+v", res)
	}

	// Ответ на квиз: +1 за активность и +5 бонус
	res, err = engine.Process(ctx, msg(1, "@alice", "answer: 42"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Balance != 7 {
		t.Errorf("ожидался баланс 7, получен %d", res.Balance)
	}
	if res.Action != actions.ActionQuizAnswer || res.Bonus != 5 {
		t.Errorf("неверный бонус: %+v", res)
	}
	if got, _ := store.Balance(1); got != 7 {
		t.Errorf("в хранилище %d, ожидалось 7", got)
	}
}

func TestProcess_MatchIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	engine, _, catalog := newEngine()
	_ = catalog.SetPoints(ctx, "quiz_answer", 3)

	res, err := engine.Process(ctx, msg(2, "bob", "  ANSWER: yes"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Balance != 4 {
		t.Errorf("ожидался баланс 4, получен %d", res.Balance)
	}
}

func TestProcess_UnknownActionGivesNoBonus(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newEngine()

	// Правила для quiz_answer нет: бонус 0
	res, err := engine.Process(ctx, msg(3, "carol", "answer: 1"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Balance != 1 || res.Bonus != 0 {
		t.Errorf("неожиданный результат: %+v", res)
	}
	if res.Action != actions.ActionQuizAnswer {
		t.Errorf("действие должно быть распознано, получено %q", res.Action)
	}
}

func TestProcess_EmptyTextOnlyActivity(t *testing.T) {
	ctx := context.Background()
	engine, _, catalog := newEngine()
	_ = catalog.SetPoints(ctx, "quiz_answer", 5)

	res, err := engine.Process(ctx, msg(4, "dave", ""))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Balance != 1 || res.Action != "" {
		t.Errorf("неожиданный результат: %+v", res)
	}
}

func TestProcess_NegativeRuleLowersBalance(t *testing.T) {
	ctx := context.Background()
	engine, _, catalog := newEngine()
	_ = catalog.SetPoints(ctx, "quiz_answer", -3)

	res, err := engine.Process(ctx, msg(5, "eve", "answer: wrong"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Balance != -2 {
		t.Errorf("ожидался баланс -2, получен %d", res.Balance)
	}
}

func TestProcess_ActivityFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newEngine()
	store.Errors["upsert_activity"] = errors.New("connection refused")

	_, err := engine.Process(ctx, msg(6, "frank", "answer: 1"))
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if !common.IsStoreError(err) {
		t.Errorf("ожидалась StoreError, получено %v", err)
	}
	if _, ok := store.Balance(6); ok {
		t.Error("пользователь не должен был появиться")
	}
}

func TestProcess_BonusFailureKeepsActivity(t *testing.T) {
	ctx := context.Background()
	engine, store, catalog := newEngine()
	_ = catalog.SetPoints(ctx, "quiz_answer", 5)
	store.Errors["adjust_balance"] = errors.New("timeout")

	hook := logtest.NewGlobal()
	defer hook.Reset()

	res, err := engine.Process(ctx, msg(7, "grace", "answer: 1"))
	if err != nil {
		t.Fatalf("сбой бонуса не должен быть фатальным: %v", err)
	}
	if res.BonusErr == nil {
		t.Error("BonusErr должна быть заполнена")
	}
	if res.Balance != 1 {
		t.Errorf("ожидался баланс 1, получен %d", res.Balance)
	}
	if got, _ := store.Balance(7); got != 1 {
		t.Errorf("очко за активность потеряно: %d", got)
	}

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel {
			warned = true
		}
	}
	if !warned {
		t.Error("ожидалось предупреждение в логе")
	}
}

func TestProcess_CatalogFailureKeepsActivity(t *testing.T) {
	ctx := context.Background()
	engine, store, catalog := newEngine()
	catalog.Errors["get_points"] = errors.New("db down")

	res, err := engine.Process(ctx, msg(8, "heidi", "answer: 1"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.BonusErr == nil || res.Balance != 1 {
		t.Errorf("неожиданный результат: %+v", res)
	}
	if got, _ := store.Balance(8); got != 1 {
		t.Errorf("очко за активность потеряно: %d", got)
	}
}

func TestProcess_CustomPatterns(t *testing.T) {
	ctx := context.Background()
	engine, _, catalog := newEngine()
	engine.WithPatterns(actions.Patterns{
		{Kind: actions.ExactMatch, Text: "gm", Action: "greeting"},
	})
	_ = catalog.SetPoints(ctx, "greeting", 2)

	res, err := engine.Process(ctx, msg(9, "ivan", "GM"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Balance != 3 || res.Action != "greeting" {
		t.Errorf("неожиданный результат: %+v", res)
	}
}
