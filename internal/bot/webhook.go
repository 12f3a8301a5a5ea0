package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mymmrac/telego"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/points-bot/internal/bot/middleware"
	"serotonyl.ru/points-bot/internal/config"
)

// SecretTokenHeader — заголовок, в котором Telegram присылает WEBHOOK_SECRET.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// HealthCheck проверяет одну зависимость (БД, Redis).
type HealthCheck func(ctx context.Context) error

// Server — HTTP-сервер: webhook Telegram, /healthz и /metrics.
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	updates chan telego.Update
	checks  map[string]HealthCheck
}

// NewServer создаёт сервер. Маршрут webhook регистрируется только
// при BOT_MODE=webhook.
func NewServer(cfg *config.Config, checks map[string]HealthCheck) *Server {
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		router:  gin.New(),
		updates: make(chan telego.Update, 256),
		checks:  checks,
	}

	s.router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.BotMode == config.ModeWebhook {
		s.router.POST(cfg.WebhookPath, s.handleWebhook)
	}
	return s
}

// Updates — канал апдейтов, полученных через webhook.
func (s *Server) Updates() <-chan telego.Update { return s.updates }

// Handler возвращает http.Handler (для тестов).
func (s *Server) Handler() http.Handler { return s.router }

// Run слушает PORT до отмены ctx, затем плавно останавливается.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP-сервер запущен")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP-сервер: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("остановка HTTP-сервера: %w", err)
	}
	log.Info("HTTP-сервер остановлен")
	return nil
}

// handleWebhook принимает апдейт от Telegram и кладёт его в очередь.
// Ответ 200 отправляется сразу: обработка идёт в цикле бота.
func (s *Server) handleWebhook(c *gin.Context) {
	if s.cfg.WebhookSecret != "" && c.GetHeader(SecretTokenHeader) != s.cfg.WebhookSecret {
		log.WithField("request_id", c.GetString("request_id")).Warn("Webhook: неверный секрет")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var update telego.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.WithError(err).Warn("Webhook: некорректный JSON")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	select {
	case s.updates <- update:
		c.Status(http.StatusOK)
	case <-c.Request.Context().Done():
		// Telegram повторит доставку
		c.AbortWithStatus(http.StatusServiceUnavailable)
	}
}

// handleHealth проверяет зависимости.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := gin.H{}
	healthy := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			healthy = false
			status[name] = err.Error()
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"healthy": healthy, "checks": status})
}
