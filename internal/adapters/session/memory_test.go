package session

import (
	"context"
	"errors"
	"testing"

	"affil-dashboard/internal/domain"
)

func TestMemoryCacheMissBeforeSearch(t *testing.T) {
	cache := NewMemory()
	if _, _, err := cache.Products(context.Background(), "s1"); !errors.Is(err, domain.ErrNoSearch) {
		t.Fatalf("ожидали ErrNoSearch, получили %v", err)
	}
	if _, _, err := cache.Travel(context.Background(), "s1"); !errors.Is(err, domain.ErrNoSearch) {
		t.Fatalf("ожидали ErrNoSearch, получили %v", err)
	}
}

func TestMemoryCacheReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory()

	first := []domain.Product{{Name: "Кофемолка"}, {Name: "Турка"}}
	second := []domain.Product{{Name: "Чайник"}}
	if err := cache.ReplaceProducts(ctx, "s1", "кофе", first); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if err := cache.ReplaceProducts(ctx, "s1", "чай", second); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	keyword, items, err := cache.Products(ctx, "s1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if keyword != "чай" {
		t.Fatalf("ожидали ключевое слово второго поиска, получили %q", keyword)
	}
	if len(items) != 1 || items[0].Name != "Чайник" {
		t.Fatalf("в кэше должна остаться только вторая выдача: %+v", items)
	}
}

func TestMemoryCacheSessionsIsolated(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory()
	_ = cache.ReplaceProducts(ctx, "s1", "кофе", []domain.Product{{Name: "Кофемолка"}})

	if _, _, err := cache.Products(ctx, "s2"); !errors.Is(err, domain.ErrNoSearch) {
		t.Fatalf("чужая сессия не должна видеть кэш: %v", err)
	}
}

func TestMemoryCacheCatalogsIndependent(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory()
	_ = cache.ReplaceProducts(ctx, "s1", "кофе", []domain.Product{{Name: "Кофемолка"}})
	_ = cache.ReplaceTravel(ctx, "s1", "осака", []domain.TravelItem{{Name: "Отель у парка"}})

	_, products, err := cache.Products(ctx, "s1")
	if err != nil || len(products) != 1 {
		t.Fatalf("товарный кэш пострадал: %v %+v", err, products)
	}
	keyword, travel, err := cache.Travel(ctx, "s1")
	if err != nil || keyword != "осака" || len(travel) != 1 {
		t.Fatalf("travel-кэш пострадал: %v %q %+v", err, keyword, travel)
	}
}
