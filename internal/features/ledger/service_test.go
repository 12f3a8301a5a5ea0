package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"serotonyl.ru/points-bot/internal/common"
	"serotonyl.ru/points-bot/internal/features/ledger"
	"serotonyl.ru/points-bot/internal/testutil"
)

func TestService_RecordActivityConcurrent(t *testing.T) {
	store := testutil.NewMemoryLedger()
	svc := ledger.NewService(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.RecordActivity(ctx, 1, "@alice")
		}()
	}
	wg.Wait()

	if b, _ := store.Balance(1); b != 100 {
		t.Errorf("ожидалось 100, получено %d", b)
	}
}

func TestService_BalanceAbsentIsZero(t *testing.T) {
	svc := ledger.NewService(testutil.NewMemoryLedger())

	b, err := svc.Balance(context.Background(), 99)
	if err != nil || b != 0 {
		t.Errorf("ожидалось 0, получено %d, %v", b, err)
	}
}

func TestService_AdjustPropagatesStoreError(t *testing.T) {
	store := testutil.NewMemoryLedger()
	store.Errors["adjust_balance"] = errors.New("deadlock detected")
	svc := ledger.NewService(store)

	_, err := svc.Adjust(context.Background(), 1, "@a", 5, "admin")
	if !common.IsStoreError(err) {
		t.Errorf("ожидалась StoreError, получено %v", err)
	}
}
