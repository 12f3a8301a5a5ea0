package bot

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/config"
)

// allowedUpdates — бот читает только сообщения.
var allowedUpdates = []string{"message"}

// RegisterWebhook сообщает Telegram адрес webhook.
func RegisterWebhook(ctx context.Context, api *telego.Bot, cfg *config.Config) error {
	err := api.SetWebhook(ctx, &telego.SetWebhookParams{
		URL:            cfg.WebhookEndpoint(),
		SecretToken:    cfg.WebhookSecret,
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	log.WithField("path", cfg.WebhookPath).Info("Webhook зарегистрирован")
	return nil
}

// LongPolling снимает webhook и запускает long polling.
// Канал закрывается после отмены ctx.
func LongPolling(ctx context.Context, api *telego.Bot, cfg *config.Config) (<-chan telego.Update, error) {
	if err := api.DeleteWebhook(ctx, &telego.DeleteWebhookParams{}); err != nil {
		return nil, fmt.Errorf("deleteWebhook: %w", err)
	}
	updates, err := api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        cfg.BotUpdateTimeoutSeconds,
		AllowedUpdates: allowedUpdates,
	})
	if err != nil {
		return nil, fmt.Errorf("long polling: %w", err)
	}
	log.WithField("timeout_sec", cfg.BotUpdateTimeoutSeconds).Info("Long polling запущен")
	return updates, nil
}
