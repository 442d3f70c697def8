package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов дашборда.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsPort int    `envconfig:"METRICS_PORT" default:"9090"`

	Backend struct {
		APIURL  string        `envconfig:"BACKEND_API_URL"`
		APIKey  string        `envconfig:"BACKEND_API_KEY"`
		Timeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"30s"`
	} `envconfig:""`

	// Ключ доступа к самому дашборду; пустое значение отключает проверку.
	AccessKey string `envconfig:"DASHBOARD_ACCESS_KEY"`

	RedisAddr  string        `envconfig:"REDIS_ADDR"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	PGDSN string `envconfig:"PG_DSN"`

	Alerts struct {
		BotToken string `envconfig:"TG_BOT_TOKEN"`
		ChatID   int64  `envconfig:"TG_ALERT_CHAT_ID"`
	} `envconfig:""`

	Schedule struct {
		RunCount int `envconfig:"SCHEDULE_RUN_COUNT" default:"1"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
