package session

import (
	"context"
	"sync"

	"affil-dashboard/internal/domain"
)

// MemoryCache реализует domain.ResultCache в памяти процесса.
// Используется в dev-режиме без Redis и в тестах.
type MemoryCache struct {
	mu       sync.Mutex
	products map[string]memorySearch[domain.Product]
	travel   map[string]memorySearch[domain.TravelItem]
}

type memorySearch[T any] struct {
	keyword string
	items   []T
}

// NewMemory создаёт кэш в памяти.
func NewMemory() *MemoryCache {
	return &MemoryCache{
		products: make(map[string]memorySearch[domain.Product]),
		travel:   make(map[string]memorySearch[domain.TravelItem]),
	}
}

// ReplaceProducts замещает кэш товаров для сессии.
func (c *MemoryCache) ReplaceProducts(ctx context.Context, sessionID, keyword string, items []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[sessionID] = memorySearch[domain.Product]{keyword: keyword, items: append([]domain.Product(nil), items...)}
	return nil
}

// Products возвращает последний поиск товаров сессии.
func (c *MemoryCache) Products(ctx context.Context, sessionID string) (string, []domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	search, ok := c.products[sessionID]
	if !ok {
		return "", nil, domain.ErrNoSearch
	}
	return search.keyword, append([]domain.Product(nil), search.items...), nil
}

// ReplaceTravel замещает кэш отелей для сессии.
func (c *MemoryCache) ReplaceTravel(ctx context.Context, sessionID, keyword string, items []domain.TravelItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.travel[sessionID] = memorySearch[domain.TravelItem]{keyword: keyword, items: append([]domain.TravelItem(nil), items...)}
	return nil
}

// Travel возвращает последний travel-поиск сессии.
func (c *MemoryCache) Travel(ctx context.Context, sessionID string) (string, []domain.TravelItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	search, ok := c.travel[sessionID]
	if !ok {
		return "", nil, domain.ErrNoSearch
	}
	return search.keyword, append([]domain.TravelItem(nil), search.items...), nil
}

var _ domain.ResultCache = (*MemoryCache)(nil)
