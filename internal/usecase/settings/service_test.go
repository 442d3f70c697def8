package settings

import (
	"context"
	"errors"
	"testing"

	"affil-dashboard/internal/domain"
)

type stubBackend struct {
	domain.Backend
	getConfig    func(ctx context.Context) (map[string]domain.ConfigValue, error)
	updateConfig func(ctx context.Context, configs map[string]any) error
}

func (s *stubBackend) GetConfig(ctx context.Context) (map[string]domain.ConfigValue, error) {
	return s.getConfig(ctx)
}

func (s *stubBackend) UpdateConfig(ctx context.Context, configs map[string]any) error {
	return s.updateConfig(ctx, configs)
}

func TestFromConfigDefaults(t *testing.T) {
	settings := FromConfig(map[string]domain.ConfigValue{})
	if settings.AIModel != DefaultAIModel {
		t.Errorf("пустая модель должна падать в %q, получили %q", DefaultAIModel, settings.AIModel)
	}
	if settings.PostTimes != DefaultPostTimes {
		t.Errorf("пустое расписание должно падать в %q, получили %q", DefaultPostTimes, settings.PostTimes)
	}
	if settings.XPostEnabled || settings.ThreadsPostEnabled || settings.CategoryTravel {
		t.Errorf("отсутствующие флаги должны быть false: %+v", settings)
	}
}

func TestFromConfigStringBooleans(t *testing.T) {
	settings := FromConfig(map[string]domain.ConfigValue{
		KeyXPostEnabled:       {Value: "TRUE"},
		KeyThreadsPostEnabled: {Value: "FALSE"},
		KeyCategoryBook:       {Value: true},
		KeyCategoryCD:         {Value: "true"},
	})
	if !settings.XPostEnabled {
		t.Errorf("строка TRUE должна включать флаг")
	}
	if settings.ThreadsPostEnabled {
		t.Errorf("строка FALSE не должна включать флаг")
	}
	if !settings.CategoryBook {
		t.Errorf("булево true должно включать флаг")
	}
	if settings.CategoryCD {
		t.Errorf("строка в нижнем регистре не считается включённым флагом")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	original := domain.Settings{
		AIModel:            "openai",
		XPostEnabled:       true,
		ThreadsPostEnabled: false,
		PostTimes:          "09:15,18:45",
		CategoryProduct:    true,
		CategoryTravel:     true,
		PromptTrend:        "тренды недели",
		PromptXPost:        "пост для X",
		PromptThreadsPost:  "пост для Threads",
	}

	configs := ToConfig(original)
	wrapped := make(map[string]domain.ConfigValue, len(configs))
	for key, value := range configs {
		wrapped[key] = domain.ConfigValue{Value: value}
	}

	if restored := FromConfig(wrapped); restored != original {
		t.Fatalf("настройки не пережили цикл сохранения:\nбыло  %+v\nстало %+v", original, restored)
	}
}

func TestSaveSendsFullMap(t *testing.T) {
	var sent map[string]any
	backend := &stubBackend{
		updateConfig: func(ctx context.Context, configs map[string]any) error {
			sent = configs
			return nil
		},
	}
	svc := NewService(backend, nil)

	if err := svc.Save(context.Background(), domain.Settings{AIModel: "gemini"}); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(sent) != 13 {
		t.Fatalf("ожидали полную карту из 13 ключей, получили %d: %v", len(sent), sent)
	}
	for _, key := range []string{KeyAIModel, KeyPostTimes, KeyCategoryGame, KeyPromptThreadsPost} {
		if _, ok := sent[key]; !ok {
			t.Errorf("в карте нет ключа %s", key)
		}
	}
}

func TestLoadWrapsBackendError(t *testing.T) {
	failing := errors.New("unauthorized")
	backend := &stubBackend{
		getConfig: func(ctx context.Context) (map[string]domain.ConfigValue, error) {
			return nil, failing
		},
	}
	if _, err := NewService(backend, nil).Load(context.Background()); !errors.Is(err, failing) {
		t.Fatalf("ожидали обёрнутую ошибку бэкенда, получили %v", err)
	}
}

func TestParsePostTimes(t *testing.T) {
	times, err := ParsePostTimes("08:00, 12:30,21:00")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(times) != 3 || times[1].Hour != 12 || times[1].Minute != 30 {
		t.Fatalf("неожиданное расписание: %+v", times)
	}
	if got := times[0].CronSpec(); got != "0 8 * * *" {
		t.Errorf("неожиданное cron-выражение: %q", got)
	}
	if got := times[2].String(); got != "21:00" {
		t.Errorf("неожиданный формат времени: %q", got)
	}
}

func TestParsePostTimesInvalid(t *testing.T) {
	for _, raw := range []string{"", "  ", "25:00", "12:60", "12-30", "aa:bb"} {
		if _, err := ParsePostTimes(raw); !errors.Is(err, ErrInvalidPostTime) {
			t.Errorf("ParsePostTimes(%q): ожидали ErrInvalidPostTime, получили %v", raw, err)
		}
	}
}
