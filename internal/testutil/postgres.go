package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"serotonyl.ru/points-bot/internal/db/postgres"
)

// StartPostgres поднимает PostgreSQL в Docker, применяет миграции и возвращает пул.
// cleanup останавливает контейнер. Если Docker недоступен — возвращается ошибка,
// и интеграционные тесты пропускаются.
func StartPostgres() (*pgxpool.Pool, func(), error) {
	dpool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, fmt.Errorf("docker недоступен: %w", err)
	}
	if err := dpool.Client.Ping(); err != nil {
		return nil, nil, fmt.Errorf("docker не отвечает: %w", err)
	}
	dpool.MaxWait = 2 * time.Minute

	resource, err := dpool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_USER=postgres",
			"POSTGRES_DB=test_db",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось запустить PostgreSQL: %w", err)
	}
	_ = resource.Expire(300)

	cleanup := func() { _ = dpool.Purge(resource) }

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s/test_db?sslmode=disable", resource.GetHostPort("5432/tcp"))

	var pool *pgxpool.Pool
	if err := dpool.Retry(func() error {
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return err
		}
		cfg.MaxConns = 32
		pool, err = postgres.Connect(context.Background(), cfg)
		return err
	}); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("PostgreSQL не поднялся: %w", err)
	}

	if err := postgres.Migrate(context.Background(), pool); err != nil {
		pool.Close()
		cleanup()
		return nil, nil, err
	}

	return pool, func() {
		pool.Close()
		cleanup()
	}, nil
}

// Truncate очищает таблицы между тестами.
func Truncate(ctx context.Context, pool *pgxpool.Pool, tables ...string) error {
	for _, table := range tables {
		if _, err := pool.Exec(ctx, "TRUNCATE TABLE "+table); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
