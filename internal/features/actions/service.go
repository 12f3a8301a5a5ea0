// Package actions — service.go: бизнес-логика каталога и загрузка
// начального набора правил из YAML.
package actions

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"serotonyl.ru/points-bot/internal/metrics"
)

// Service управляет правилами начисления.
type Service struct {
	catalog Catalog
}

// NewService создаёт сервис каталога.
func NewService(catalog Catalog) *Service {
	return &Service{catalog: catalog}
}

// Points возвращает очки за действие (0, если правила нет).
func (s *Service) Points(ctx context.Context, action string) (int64, error) {
	points, err := s.catalog.GetPoints(ctx, action)
	if err != nil {
		metrics.ObserveStoreError(err)
	}
	return points, err
}

// Set перезаписывает правило.
func (s *Service) Set(ctx context.Context, action string, points int64) error {
	if err := s.catalog.SetPoints(ctx, action, points); err != nil {
		metrics.ObserveStoreError(err)
		return err
	}
	log.WithFields(log.Fields{
		"action": NormalizeAction(action),
		"points": points,
	}).Info("Правило начисления обновлено")
	return nil
}

// List возвращает все правила.
func (s *Service) List(ctx context.Context) ([]Rule, error) {
	rules, err := s.catalog.List(ctx)
	if err != nil {
		metrics.ObserveStoreError(err)
	}
	return rules, err
}

// seedFile — формат файла ACTIONS_SEED_FILE:
//
//	actions:
//	  - action: quiz_answer
//	    points: 5
type seedFile struct {
	Actions []Rule `yaml:"actions"`
}

// ParseSeed разбирает YAML с начальными правилами.
func ParseSeed(data []byte) ([]Rule, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML: %w", err)
	}
	for i, rule := range f.Actions {
		if NormalizeAction(rule.Action) == "" {
			return nil, fmt.Errorf("правило #%d: пустое имя действия", i+1)
		}
	}
	return f.Actions, nil
}

// SeedFromFile загружает правила из файла и добавляет отсутствующие.
// Уже настроенные владельцем значения не перезаписываются.
func (s *Service) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("не удалось прочитать %s: %w", path, err)
	}
	rules, err := ParseSeed(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	added, err := s.catalog.Seed(ctx, rules)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"file":  path,
		"total": len(rules),
		"added": added,
	}).Info("Начальные правила загружены")
	return nil
}
