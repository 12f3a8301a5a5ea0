// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, Redis, репозитории, сервисы,
// диспетчер команд и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/points-bot/internal/bot"
	"serotonyl.ru/points-bot/internal/bot/filters"
	"serotonyl.ru/points-bot/internal/bot/middleware"
	"serotonyl.ru/points-bot/internal/config"
	"serotonyl.ru/points-bot/internal/db/postgres"
	"serotonyl.ru/points-bot/internal/dedup"
	"serotonyl.ru/points-bot/internal/features/actions"
	"serotonyl.ru/points-bot/internal/features/award"
	"serotonyl.ru/points-bot/internal/features/commands"
	"serotonyl.ru/points-bot/internal/features/leaderboard"
	"serotonyl.ru/points-bot/internal/features/ledger"
	"serotonyl.ru/points-bot/internal/features/settings"
	"serotonyl.ru/points-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	cfg *config.Config

	Bot       *bot.Bot
	Server    *bot.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Redis     *redis.Client // nil, если REDIS_ADDR не задан
	BotAPI    *telego.Bot
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Redis (необязательно) ===
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// Не фатально: дедупликация переключится на Postgres
			log.WithError(err).Warn("Redis недоступен при старте")
		} else {
			log.Info("Подключение к Redis установлено")
		}
	}

	// === 3. Telegram Bot API ===
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, telego.WithLogger(telegoLogger{}))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := botAPI.GetMe(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("getMe: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	// === 4. Репозитории ===
	ledgerRepo := ledger.NewRepository(pool)
	actionsRepo := actions.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool)

	// === 5. Сервисы ===
	ledgerService := ledger.NewService(ledgerRepo)
	actionsService := actions.NewService(actionsRepo)
	settingsService := settings.NewService(settingsRepo)
	leaderboardService := leaderboard.NewService(ledgerService, cfg.LeaderboardSize)

	if cfg.ActionsSeedFile != "" {
		if err := actionsService.SeedFromFile(ctx, cfg.ActionsSeedFile); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ACTIONS_SEED_FILE: %w", err)
		}
	}

	// === 6. Команды и начисление ===
	transport := bot.NewTelegramTransport(botAPI)
	handlers := commands.NewHandlers(ledgerService, actionsService, settingsService, leaderboardService, transport)
	dispatcher := commands.NewDispatcher(cfg.OwnerUserID, handlers, transport)
	engine := award.NewEngine(ledgerService, actionsService)

	// === 7. Дедупликация ===
	pgDedup := dedup.NewPostgres(pool)
	var deduplicator dedup.Deduplicator = pgDedup
	var purger jobs.Purger = pgDedup
	if redisClient != nil {
		deduplicator = dedup.NewFallback(dedup.NewRedis(redisClient, cfg.DedupTTL), pgDedup, cfg.DedupTTL)
	}

	// === 8. Собираем бота ===
	b := bot.New(cfg, bot.Deps{
		Transport:   transport,
		Dispatcher:  dispatcher,
		Engine:      engine,
		Stickers:    settingsService,
		Dedup:       deduplicator,
		ChatFilter:  filters.NewChatFilter(cfg.GroupChatID),
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		Parser:      bot.NewCommandParser(me.Username),
	})

	// === 9. HTTP-сервер ===
	checks := map[string]bot.HealthCheck{
		"postgres": pool.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	server := bot.NewServer(cfg, checks)

	// === 10. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, leaderboardService, transport, purger)

	return &App{
		cfg:       cfg,
		Bot:       b,
		Server:    server,
		Scheduler: scheduler,
		DB:        pool,
		Redis:     redisClient,
		BotAPI:    botAPI,
	}, nil
}

// Run запускает HTTP-сервер, приём апдейтов и планировщик.
// Возвращается после отмены ctx или первой фатальной ошибки.
func (a *App) Run(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return err
	}
	defer a.Scheduler.Stop()

	var updates <-chan telego.Update
	switch a.cfg.BotMode {
	case config.ModePolling:
		u, err := bot.LongPolling(ctx, a.BotAPI, a.cfg)
		if err != nil {
			return err
		}
		updates = u
	default:
		if err := bot.RegisterWebhook(ctx, a.BotAPI, a.cfg); err != nil {
			return err
		}
		updates = a.Server.Updates()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.Server.Run(ctx) })
	g.Go(func() error {
		a.Bot.Run(ctx, updates)
		return nil
	})

	return g.Wait()
}

// Close освобождает ресурсы.
func (a *App) Close() {
	a.Bot.Close()
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия Redis")
		}
	}
	a.DB.Close()
}

// telegoLogger направляет логи telego в logrus.
type telegoLogger struct{}

func (telegoLogger) Debugf(format string, args ...any) {
	log.WithField("component", "telego").Debugf(format, args...)
}

func (telegoLogger) Errorf(format string, args ...any) {
	log.WithField("component", "telego").Errorf(format, args...)
}
