package domain

import (
	"context"
	"errors"
)

// ErrNoSearch возвращается кэшем, если в сессии ещё не было поиска.
var ErrNoSearch = errors.New("поиск ещё не выполнялся")

// Backend описывает контракт удалённого бэкенда автоматизации.
// Каждая операция соответствует одному action в его API.
type Backend interface {
	GetStats(ctx context.Context) (StatSummary, error)
	GetTrends(ctx context.Context) ([]Trend, error)
	GetPosts(ctx context.Context) ([]PostRecord, error)
	GetConfig(ctx context.Context) (map[string]ConfigValue, error)

	FetchTrends(ctx context.Context) ([]Trend, error)
	SearchProducts(ctx context.Context, keyword string) ([]Product, error)
	SearchTravel(ctx context.Context, keyword string) ([]TravelItem, error)
	ManualPost(ctx context.Context, trendKeyword string, product Product, sns string) (string, error)
	UpdateConfig(ctx context.Context, configs map[string]any) error
	SetupTriggers(ctx context.Context) (string, error)
	DeleteTriggers(ctx context.Context) (string, error)
	RunScheduledPost(ctx context.Context, count int) ([]RunResult, error)
}

// ResultCache хранит результаты последнего поиска в рамках сессии оператора.
// Новый поиск целиком замещает предыдущий, слияния не бывает.
type ResultCache interface {
	ReplaceProducts(ctx context.Context, sessionID, keyword string, items []Product) error
	Products(ctx context.Context, sessionID string) (keyword string, items []Product, err error)
	ReplaceTravel(ctx context.Context, sessionID, keyword string, items []TravelItem) error
	Travel(ctx context.Context, sessionID string) (keyword string, items []TravelItem, err error)
}

// AuditLog локальный журнал действий оператора.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
}

// Alerter уведомляет оператора о сбоях вне дашборда.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}
