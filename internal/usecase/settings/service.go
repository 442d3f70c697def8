package settings

import (
	"context"
	"fmt"

	"affil-dashboard/internal/domain"
)

// Значения по умолчанию для отсутствующих ключей конфигурации.
const (
	DefaultAIModel   = "gemini"
	DefaultPostTimes = "08:00,12:30,21:00"
)

// Ключи конфигурации пайплайна на бэкенде.
const (
	KeyAIModel            = "AI_MODEL"
	KeyXPostEnabled       = "X_POST_ENABLED"
	KeyThreadsPostEnabled = "THREADS_POST_ENABLED"
	KeyPostTimes          = "POST_TIMES"
	KeyCategoryProduct    = "CATEGORY_PRODUCT"
	KeyCategoryBook       = "CATEGORY_BOOK"
	KeyCategoryCD         = "CATEGORY_CD"
	KeyCategoryDVD        = "CATEGORY_DVD"
	KeyCategoryGame       = "CATEGORY_GAME"
	KeyCategoryTravel     = "CATEGORY_TRAVEL"
	KeyPromptTrend        = "PROMPT_TREND"
	KeyPromptXPost        = "PROMPT_X_POST"
	KeyPromptThreadsPost  = "PROMPT_THREADS_POST"
)

// Service загружает и сохраняет настройки пайплайна.
type Service struct {
	backend domain.Backend
	audit   domain.AuditLog
}

// NewService создаёт сервис настроек.
func NewService(backend domain.Backend, audit domain.AuditLog) *Service {
	return &Service{backend: backend, audit: audit}
}

// Load читает конфигурацию и подставляет умолчания для отсутствующих ключей:
// флаги — false, модель — gemini, расписание — "08:00,12:30,21:00".
func (s *Service) Load(ctx context.Context) (domain.Settings, error) {
	configs, err := s.backend.GetConfig(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("загрузка настроек: %w", err)
	}
	return FromConfig(configs), nil
}

// Save отправляет полную карту настроек; бэкенд перезаписывает её целиком.
func (s *Service) Save(ctx context.Context, settings domain.Settings) error {
	err := s.backend.UpdateConfig(ctx, ToConfig(settings))
	s.record(ctx, err)
	if err != nil {
		return fmt.Errorf("сохранение настроек: %w", err)
	}
	return nil
}

// FromConfig переводит плоскую карту бэкенда в типизированную форму.
func FromConfig(configs map[string]domain.ConfigValue) domain.Settings {
	settings := domain.Settings{
		AIModel:            configs[KeyAIModel].String(),
		XPostEnabled:       configs[KeyXPostEnabled].Bool(),
		ThreadsPostEnabled: configs[KeyThreadsPostEnabled].Bool(),
		PostTimes:          configs[KeyPostTimes].String(),
		CategoryProduct:    configs[KeyCategoryProduct].Bool(),
		CategoryBook:       configs[KeyCategoryBook].Bool(),
		CategoryCD:         configs[KeyCategoryCD].Bool(),
		CategoryDVD:        configs[KeyCategoryDVD].Bool(),
		CategoryGame:       configs[KeyCategoryGame].Bool(),
		CategoryTravel:     configs[KeyCategoryTravel].Bool(),
		PromptTrend:        configs[KeyPromptTrend].String(),
		PromptXPost:        configs[KeyPromptXPost].String(),
		PromptThreadsPost:  configs[KeyPromptThreadsPost].String(),
	}
	if settings.AIModel == "" {
		settings.AIModel = DefaultAIModel
	}
	if settings.PostTimes == "" {
		settings.PostTimes = DefaultPostTimes
	}
	return settings
}

// ToConfig собирает полную карту для updateConfig; частичных обновлений нет.
func ToConfig(settings domain.Settings) map[string]any {
	return map[string]any{
		KeyAIModel:            settings.AIModel,
		KeyXPostEnabled:       settings.XPostEnabled,
		KeyThreadsPostEnabled: settings.ThreadsPostEnabled,
		KeyPostTimes:          settings.PostTimes,
		KeyCategoryProduct:    settings.CategoryProduct,
		KeyCategoryBook:       settings.CategoryBook,
		KeyCategoryCD:         settings.CategoryCD,
		KeyCategoryDVD:        settings.CategoryDVD,
		KeyCategoryGame:       settings.CategoryGame,
		KeyCategoryTravel:     settings.CategoryTravel,
		KeyPromptTrend:        settings.PromptTrend,
		KeyPromptXPost:        settings.PromptXPost,
		KeyPromptThreadsPost:  settings.PromptThreadsPost,
	}
}

func (s *Service) record(ctx context.Context, err error) {
	if s.audit == nil {
		return
	}
	entry := domain.AuditEntry{Action: "updateConfig", OK: err == nil}
	if err != nil {
		entry.Message = err.Error()
	}
	_ = s.audit.Record(ctx, entry)
}
