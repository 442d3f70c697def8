package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"affil-dashboard/internal/domain"
)

// RedisCache реализует domain.ResultCache поверх Redis.
// Каждый новый поиск кладётся одним SET и целиком замещает предыдущий.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis создаёт кэш результатов поиска.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

type storedSearch struct {
	Keyword string          `json:"keyword"`
	Items   json.RawMessage `json:"items"`
}

// ReplaceProducts замещает кэш товаров для сессии.
func (c *RedisCache) ReplaceProducts(ctx context.Context, sessionID, keyword string, items []domain.Product) error {
	return c.replace(ctx, productsKey(sessionID), keyword, items)
}

// Products возвращает последний поиск товаров сессии.
func (c *RedisCache) Products(ctx context.Context, sessionID string) (string, []domain.Product, error) {
	var items []domain.Product
	keyword, err := c.load(ctx, productsKey(sessionID), &items)
	if err != nil {
		return "", nil, err
	}
	return keyword, items, nil
}

// ReplaceTravel замещает кэш отелей для сессии.
func (c *RedisCache) ReplaceTravel(ctx context.Context, sessionID, keyword string, items []domain.TravelItem) error {
	return c.replace(ctx, travelKey(sessionID), keyword, items)
}

// Travel возвращает последний travel-поиск сессии.
func (c *RedisCache) Travel(ctx context.Context, sessionID string) (string, []domain.TravelItem, error) {
	var items []domain.TravelItem
	keyword, err := c.load(ctx, travelKey(sessionID), &items)
	if err != nil {
		return "", nil, err
	}
	return keyword, items, nil
}

func (c *RedisCache) replace(ctx context.Context, key, keyword string, items any) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal search: %w", err)
	}
	payload, err := json.Marshal(storedSearch{Keyword: keyword, Items: raw})
	if err != nil {
		return fmt.Errorf("marshal search: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("сохранение поиска: %w", err)
	}
	return nil
}

func (c *RedisCache) load(ctx context.Context, key string, out any) (string, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNoSearch
	}
	if err != nil {
		return "", fmt.Errorf("чтение поиска: %w", err)
	}
	var stored storedSearch
	if err := json.Unmarshal(payload, &stored); err != nil {
		return "", fmt.Errorf("декодирование поиска: %w", err)
	}
	if err := json.Unmarshal(stored.Items, out); err != nil {
		return "", fmt.Errorf("декодирование поиска: %w", err)
	}
	return stored.Keyword, nil
}

func productsKey(sessionID string) string {
	return "session:" + sessionID + ":products"
}

func travelKey(sessionID string) string {
	return "session:" + sessionID + ":travel"
}

var _ domain.ResultCache = (*RedisCache)(nil)
