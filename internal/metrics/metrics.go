// Package metrics объявляет метрики Prometheus бота.
// Метрики регистрируются в глобальном реестре через promauto
// и отдаются на /metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"serotonyl.ru/points-bot/internal/common"
)

var (
	// EventsTotal считает входящие апдейты по типу
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_events_total",
			Help: "Total number of inbound chat events by kind",
		},
		[]string{"kind"},
	)

	// CommandsTotal считает команды по результату диспетчеризации
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of dispatched commands by outcome",
		},
		[]string{"command", "outcome"},
	)

	// PointsAwardedTotal суммирует начисленные очки по источнику
	PointsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_points_awarded_total",
			Help: "Sum of point deltas applied to the ledger by reason",
		},
		[]string{"reason"},
	)

	// StoreErrorsTotal считает ошибки слоя хранения по операции
	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_store_errors_total",
			Help: "Total number of storage errors by operation",
		},
		[]string{"op"},
	)

	// UpdateDuration измеряет длительность обработки одного апдейта
	UpdateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_update_duration_seconds",
			Help:    "Duration of update handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// HTTPRequestsTotal считает HTTP-запросы (webhook, healthz)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "status"},
	)
)

// Причины начисления очков
const (
	ReasonActivity = "activity"
	ReasonBonus    = "bonus"
	ReasonReward   = "reward"
	ReasonAdmin    = "admin"
)

// ObservePoints добавляет delta к счётчику по причине.
// Prometheus-счётчики не уменьшаются, поэтому отрицательные delta учитываются по модулю
// под отдельной причиной "<reason>_negative".
func ObservePoints(reason string, delta int64) {
	if delta < 0 {
		// -(delta+1) не переполняется и при delta == math.MinInt64
		PointsAwardedTotal.WithLabelValues(reason + "_negative").Add(float64(-(delta + 1)) + 1)
		return
	}
	PointsAwardedTotal.WithLabelValues(reason).Add(float64(delta))
}

// ObserveStoreError увеличивает счётчик, если err — StoreError.
func ObserveStoreError(err error) {
	var se *common.StoreError
	if errors.As(err, &se) {
		StoreErrorsTotal.WithLabelValues(se.Op).Inc()
	}
}

// ObserveUpdate записывает длительность обработки апдейта.
func ObserveUpdate(kind string, start time.Time) {
	UpdateDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
