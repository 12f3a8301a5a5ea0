package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/points-bot/internal/common"
	"serotonyl.ru/points-bot/internal/features/ledger"
	"serotonyl.ru/points-bot/internal/testutil"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	if os.Getenv("SKIP_DOCKER_TESTS") == "" {
		pool, cleanup, err := testutil.StartPostgres()
		if err != nil {
			fmt.Printf("Интеграционные тесты PostgreSQL пропущены: %v\n", err)
		} else {
			testPool = pool
			code := m.Run()
			cleanup()
			os.Exit(code)
		}
	}
	os.Exit(m.Run())
}

func newRepo(t *testing.T) *ledger.Repository {
	t.Helper()
	if testPool == nil {
		t.Skip("PostgreSQL недоступен")
	}
	if err := testutil.Truncate(context.Background(), testPool, "users"); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	return ledger.NewRepository(testPool)
}

func TestRepository_UpsertActivity(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	balance, err := repo.UpsertActivity(ctx, 1, "@alice")
	if err != nil || balance != 1 {
		t.Fatalf("новый пользователь: %d, %v", balance, err)
	}

	balance, err = repo.UpsertActivity(ctx, 1, "@alice_new")
	if err != nil || balance != 2 {
		t.Fatalf("повтор: %d, %v", balance, err)
	}

	u, err := repo.FindByName(ctx, "ALICE_NEW")
	if err != nil {
		t.Fatalf("FindByName: %v", err)
	}
	if u.ID != 1 || u.Points != 2 {
		t.Errorf("пользователь: %+v", u)
	}
}

func TestRepository_ConcurrentActivity(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	const n = 50

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.UpsertActivity(ctx, 7, "@busy"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("UpsertActivity: %v", err)
	}

	balance, found, err := repo.GetBalance(ctx, 7)
	if err != nil || !found {
		t.Fatalf("GetBalance: %v, found=%v", err, found)
	}
	if balance != n {
		t.Errorf("ожидалось %d, получено %d (потерянные обновления)", n, balance)
	}
}

func TestRepository_AdjustBalance(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	// Отсутствующий пользователь создаётся с балансом delta
	balance, err := repo.AdjustBalance(ctx, 2, "@bob", -3)
	if err != nil || balance != -3 {
		t.Fatalf("новый пользователь: %d, %v", balance, err)
	}

	// Порядок применения не важен
	if _, err := repo.AdjustBalance(ctx, 2, "", 10); err != nil {
		t.Fatalf("AdjustBalance: %v", err)
	}
	balance, err = repo.AdjustBalance(ctx, 2, "", -4)
	if err != nil || balance != 3 {
		t.Fatalf("итог: %d, %v", balance, err)
	}

	// Пустое имя не затирает известное
	if _, err := repo.FindByName(ctx, "bob"); err != nil {
		t.Errorf("имя потеряно: %v", err)
	}
}

func TestRepository_GetBalanceAbsent(t *testing.T) {
	repo := newRepo(t)

	balance, found, err := repo.GetBalance(context.Background(), 404)
	if err != nil || found || balance != 0 {
		t.Errorf("отсутствующий: %d, %v, %v", balance, found, err)
	}
}

func TestRepository_TopN(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for id, points := range map[int64]int64{1: 10, 2: 30, 3: 10, 4: -1} {
		if _, err := repo.AdjustBalance(ctx, id, fmt.Sprintf("@u%d", id), points); err != nil {
			t.Fatalf("AdjustBalance: %v", err)
		}
	}

	top, err := repo.TopN(ctx, 3)
	if err != nil {
		t.Fatalf("TopN: %v", err)
	}
	want := []int64{2, 1, 3}
	if len(top) != len(want) {
		t.Fatalf("ожидалось %d записей, получено %d", len(want), len(top))
	}
	for i, id := range want {
		if top[i].UserID != id {
			t.Errorf("позиция %d: id %d, ожидался %d", i, top[i].UserID, id)
		}
	}

	if top, _ := repo.TopN(ctx, 0); len(top) != 0 {
		t.Errorf("TopN(0) = %v", top)
	}
}

func TestRepository_FindByNameNotFound(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.FindByName(context.Background(), "@ghost")
	if !errors.Is(err, common.ErrUserNotFound) {
		t.Errorf("ожидалась ErrUserNotFound, получено %v", err)
	}
}

func TestRepository_Members(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	_, _ = repo.UpsertActivity(ctx, 3, "@c")
	_, _ = repo.UpsertActivity(ctx, 1, "@a")

	users, err := repo.Members(ctx)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(users) != 2 || users[0].ID != 1 || users[1].ID != 3 {
		t.Errorf("members = %+v", users)
	}
}

func TestRepository_CanceledContextIsStoreError(t *testing.T) {
	repo := newRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.UpsertActivity(ctx, 1, "@a")
	if !common.IsStoreError(err) {
		t.Errorf("ожидалась StoreError, получено %v", err)
	}
}
