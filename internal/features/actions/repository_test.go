package actions_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/points-bot/internal/features/actions"
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

func newRepo(t *testing.T) *actions.Repository {
	t.Helper()
	if testPool == nil {
		t.Skip("PostgreSQL недоступен")
	}
	if err := testutil.Truncate(context.Background(), testPool, "point_actions"); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	return actions.NewRepository(testPool)
}

func TestRepository_GetPointsDefaultZero(t *testing.T) {
	repo := newRepo(t)

	points, err := repo.GetPoints(context.Background(), "quiz_answer")
	if err != nil || points != 0 {
		t.Errorf("ожидалось 0, получено %d, %v", points, err)
	}
}

func TestRepository_SetPointsRoundTripAndOverwrite(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	if err := repo.SetPoints(ctx, "Quiz_Answer ", 5); err != nil {
		t.Fatalf("SetPoints: %v", err)
	}
	if p, _ := repo.GetPoints(ctx, "quiz_answer"); p != 5 {
		t.Errorf("ожидалось 5, получено %d", p)
	}

	// Повторная запись того же значения идемпотентна, новая — перезаписывает
	_ = repo.SetPoints(ctx, "quiz_answer", 5)
	if err := repo.SetPoints(ctx, "quiz_answer", -1); err != nil {
		t.Fatalf("SetPoints: %v", err)
	}
	if p, _ := repo.GetPoints(ctx, "quiz_answer"); p != -1 {
		t.Errorf("ожидалось -1, получено %d", p)
	}

	rules, err := repo.List(ctx)
	if err != nil || len(rules) != 1 {
		t.Errorf("List: %v, %v", rules, err)
	}
}

func TestRepository_Seed(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	_ = repo.SetPoints(ctx, "quiz_answer", 10)

	added, err := repo.Seed(ctx, []actions.Rule{
		{Action: "quiz_answer", Points: 5},
		{Action: "meme", Points: 2},
	})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if added != 1 {
		t.Errorf("добавлено %d, ожидалось 1", added)
	}
	if p, _ := repo.GetPoints(ctx, "quiz_answer"); p != 10 {
		t.Errorf("значение перезаписано: %d", p)
	}
}
