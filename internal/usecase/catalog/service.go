package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"affil-dashboard/internal/domain"
)

var (
	// ErrEmptyKeyword возвращается при пустом поисковом запросе.
	ErrEmptyKeyword = errors.New("пустой поисковый запрос")
	// ErrItemGone возвращается, когда позиция не находится в кэше последнего поиска.
	ErrItemGone = errors.New("позиция не найдена в результатах последнего поиска")
)

// Service выполняет поиск по каталогам и держит кэш последней выдачи.
type Service struct {
	backend domain.Backend
	cache   domain.ResultCache
	audit   domain.AuditLog
}

// NewService создаёт сервис каталогов.
func NewService(backend domain.Backend, cache domain.ResultCache, audit domain.AuditLog) *Service {
	return &Service{backend: backend, cache: cache, audit: audit}
}

// SearchProducts ищет товары и целиком замещает кэш сессии свежей выдачей.
// Кэш обновляется до возврата результата, поэтому список на экране и кэш
// не могут разойтись.
func (s *Service) SearchProducts(ctx context.Context, sessionID, keyword string) ([]domain.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	items, err := s.backend.SearchProducts(ctx, keyword)
	if err != nil {
		s.record(ctx, "searchProducts", keyword, err)
		return nil, err
	}
	if err := s.cache.ReplaceProducts(ctx, sessionID, keyword, items); err != nil {
		return nil, fmt.Errorf("обновление кэша: %w", err)
	}
	s.record(ctx, "searchProducts", keyword, nil)
	return items, nil
}

// SearchTravel ищет отели, кэш travel замещается аналогично товарному.
func (s *Service) SearchTravel(ctx context.Context, sessionID, keyword string) ([]domain.TravelItem, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrEmptyKeyword
	}
	items, err := s.backend.SearchTravel(ctx, keyword)
	if err != nil {
		s.record(ctx, "searchTravel", keyword, err)
		return nil, err
	}
	if err := s.cache.ReplaceTravel(ctx, sessionID, keyword, items); err != nil {
		return nil, fmt.Errorf("обновление кэша: %w", err)
	}
	s.record(ctx, "searchTravel", keyword, nil)
	return items, nil
}

// ResolveProduct возвращает товар из кэша по позиции в выдаче.
// Имя служит проверкой, что кэш не был замещён другим поиском; при
// расхождении пробуем найти по имени, иначе позиция считается утерянной.
func (s *Service) ResolveProduct(ctx context.Context, sessionID string, index int, name string) (domain.Product, string, error) {
	keyword, items, err := s.cache.Products(ctx, sessionID)
	if errors.Is(err, domain.ErrNoSearch) {
		return domain.Product{}, "", ErrItemGone
	}
	if err != nil {
		return domain.Product{}, "", err
	}
	if index >= 0 && index < len(items) && items[index].Name == name {
		return items[index], keyword, nil
	}
	for _, item := range items {
		if item.Name == name {
			return item, keyword, nil
		}
	}
	return domain.Product{}, "", ErrItemGone
}

// ResolveTravel возвращает отель из кэша по позиции в выдаче.
func (s *Service) ResolveTravel(ctx context.Context, sessionID string, index int, name string) (domain.TravelItem, string, error) {
	keyword, items, err := s.cache.Travel(ctx, sessionID)
	if errors.Is(err, domain.ErrNoSearch) {
		return domain.TravelItem{}, "", ErrItemGone
	}
	if err != nil {
		return domain.TravelItem{}, "", err
	}
	if index >= 0 && index < len(items) && items[index].Name == name {
		return items[index], keyword, nil
	}
	for _, item := range items {
		if item.Name == name {
			return item, keyword, nil
		}
	}
	return domain.TravelItem{}, "", ErrItemGone
}

func (s *Service) record(ctx context.Context, action, detail string, err error) {
	if s.audit == nil {
		return
	}
	entry := domain.AuditEntry{Action: action, Detail: detail, OK: err == nil}
	if err != nil {
		entry.Message = err.Error()
	}
	_ = s.audit.Record(ctx, entry)
}
