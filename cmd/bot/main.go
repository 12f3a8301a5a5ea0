// Package main — точка входа бота.
// Загружает конфигурацию, инициализирует приложение и запускает.
// Поддерживает graceful shutdown по SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"serotonyl.ru/points-bot/internal/app"
	"serotonyl.ru/points-bot/internal/config"
)

func main() {
	envFile := flag.String("env-file", ".env", "файл с переменными окружения (необязателен)")
	flag.Parse()

	// Настраиваем логирование
	setupLogging()

	log.Info("=== Бот запускается ===")

	// .env не перезаписывает уже заданные переменные окружения
	if err := godotenv.Load(*envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Fatalf("Не удалось прочитать %s", *envFile)
		}
		log.WithField("file", *envFile).Debug("Файл окружения не найден, используем переменные процесса")
	}

	// Загружаем конфигурацию из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	// Устанавливаем уровень логирования из конфига
	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}

	// Контекст отменяется по Ctrl+C или docker stop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем приложение (БД, Redis, бот, сервисы)
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.Close()

	log.WithFields(log.Fields{
		"mode": cfg.BotMode,
		"addr": cfg.Addr(),
	}).Info("=== Бот готов к работе ===")

	if err := application.Run(ctx); err != nil {
		log.WithError(err).Error("Бот остановлен с ошибкой")
		return
	}

	log.Info("=== Бот остановлен ===")
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
