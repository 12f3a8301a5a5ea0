// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры
// и validator для проверки значений.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Режимы получения апдейтов
const (
	ModeWebhook = "webhook"
	ModePolling = "polling"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true" validate:"required"`
	// Единственный владелец: только он может вызывать команды OWNER_ONLY
	OwnerUserID int64 `envconfig:"OWNER_USER_ID" required:"true" validate:"gt=0"`
	// Групповой чат сообщества. 0 — принимать апдейты из любого чата.
	GroupChatID int64 `envconfig:"GROUP_CHAT_ID" default:"0"`

	// --- Webhook ---
	BotMode       string `envconfig:"BOT_MODE" default:"webhook" validate:"oneof=webhook polling"`
	WebhookURL    string `envconfig:"WEBHOOK_URL" validate:"omitempty,url"`
	WebhookPath   string `envconfig:"WEBHOOK_PATH" default:"/webhook" validate:"startswith=/"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	Port          int    `envconfig:"PORT" default:"8443" validate:"gt=0,lte=65535"`

	// --- Database ---
	// DATABASE_URL имеет приоритет над DB_* (так задаёт хостинг)
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"postgres"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"botuser"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"points_bot"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Redis (дедупликация апдейтов). Пусто — дедупликация через Postgres.
	RedisAddr     string        `envconfig:"REDIS_ADDR"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	DedupTTL      time.Duration `envconfig:"DEDUP_TTL" default:"24h" validate:"gt=0"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"info"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64" validate:"gt=0"`
	// Таймаут long polling (секунды), только для BOT_MODE=polling
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60" validate:"gt=0"`
	// Сколько времени даём на обработку одного апдейта (все запросы к БД)
	BotEventTimeout time.Duration `envconfig:"BOT_EVENT_TIMEOUT" default:"10s" validate:"gt=0"`

	// --- Rate Limiting (команды) ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"20" validate:"gt=0"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m" validate:"gt=0"`

	// --- Points ---
	LeaderboardSize int    `envconfig:"LEADERBOARD_SIZE" default:"10" validate:"gt=0,lte=100"`
	LeaderboardCron string `envconfig:"LEADERBOARD_CRON" default:"0 20 * * 0"`
	ActionsSeedFile string `envconfig:"ACTIONS_SEED_FILE"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// WebhookEndpoint возвращает полный URL, который регистрируется в Telegram:
// WEBHOOK_URL (публичный адрес сервиса) + WEBHOOK_PATH.
func (c *Config) WebhookEndpoint() string {
	return strings.TrimRight(c.WebhookURL, "/") + c.WebhookPath
}

// Addr возвращает адрес HTTP-сервера (webhook, /healthz, /metrics).
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate проверяет значения после загрузки.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("некорректные поля: %s", strings.Join(fields, ", "))
		}
		return err
	}
	if c.BotMode == ModeWebhook && c.WebhookURL == "" {
		return fmt.Errorf("WEBHOOK_URL обязателен при BOT_MODE=webhook")
	}
	if c.DatabaseURL == "" && c.DBPassword == "" {
		return fmt.Errorf("задайте DATABASE_URL или DB_PASSWORD")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	cfg.BotMode = strings.ToLower(strings.TrimSpace(cfg.BotMode))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
