package posting

import (
	"context"
	"errors"
	"testing"

	"affil-dashboard/internal/adapters/session"
	"affil-dashboard/internal/domain"
	"affil-dashboard/internal/usecase/catalog"
)

type stubBackend struct {
	domain.Backend
	manualPost func(ctx context.Context, trendKeyword string, product domain.Product, sns string) (string, error)
	runPost    func(ctx context.Context, count int) ([]domain.RunResult, error)

	manualCalls []string
}

func (s *stubBackend) SearchProducts(ctx context.Context, keyword string) ([]domain.Product, error) {
	return []domain.Product{{Name: "Кофемолка", Price: 4980}}, nil
}

func (s *stubBackend) ManualPost(ctx context.Context, trendKeyword string, product domain.Product, sns string) (string, error) {
	s.manualCalls = append(s.manualCalls, sns)
	return s.manualPost(ctx, trendKeyword, product, sns)
}

func (s *stubBackend) RunScheduledPost(ctx context.Context, count int) ([]domain.RunResult, error) {
	return s.runPost(ctx, count)
}

func newPostingService(backend *stubBackend) (*Service, string) {
	cache := session.NewMemory()
	catalogUC := catalog.NewService(backend, cache, nil)
	_, _ = catalogUC.SearchProducts(context.Background(), "s1", "кофе")
	return NewService(backend, catalogUC, nil, nil), "s1"
}

func TestManualPostBothPlatformsOrder(t *testing.T) {
	backend := &stubBackend{
		manualPost: func(ctx context.Context, trendKeyword string, product domain.Product, sns string) (string, error) {
			return "ok", nil
		},
	}
	svc, sessionID := newPostingService(backend)

	results, err := svc.ManualPost(context.Background(), sessionID, domain.CatalogProducts, 0, "Кофемолка", domain.SNSBoth)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(results) != 2 || results[0].SNS != domain.SNSX || results[1].SNS != domain.SNSThreads {
		t.Fatalf("ожидали X, затем Threads: %+v", results)
	}
	if len(backend.manualCalls) != 2 || backend.manualCalls[0] != domain.SNSX {
		t.Fatalf("неожиданный порядок запросов: %v", backend.manualCalls)
	}
}

func TestManualPostBothPartialFailure(t *testing.T) {
	backend := &stubBackend{
		manualPost: func(ctx context.Context, trendKeyword string, product domain.Product, sns string) (string, error) {
			if sns == domain.SNSThreads {
				return "", errors.New("rate limited")
			}
			return "ok", nil
		},
	}
	svc, sessionID := newPostingService(backend)

	results, err := svc.ManualPost(context.Background(), sessionID, domain.CatalogProducts, 0, "Кофемолка", domain.SNSBoth)
	if err != nil {
		t.Fatalf("частичный сбой не ошибка вызова: %v", err)
	}
	if !results[0].OK || results[1].OK {
		t.Fatalf("ожидали успех X и провал Threads: %+v", results)
	}
	// Ошибка одной платформы не отменяет запрос ко второй.
	if len(backend.manualCalls) != 2 {
		t.Fatalf("обе платформы должны получить запрос: %v", backend.manualCalls)
	}
}

func TestManualPostUnknownSNS(t *testing.T) {
	svc, sessionID := newPostingService(&stubBackend{})
	if _, err := svc.ManualPost(context.Background(), sessionID, domain.CatalogProducts, 0, "Кофемолка", "mastodon"); !errors.Is(err, ErrUnknownSNS) {
		t.Fatalf("ожидали ErrUnknownSNS, получили %v", err)
	}
}

func TestManualPostUnknownCatalog(t *testing.T) {
	svc, sessionID := newPostingService(&stubBackend{})
	if _, err := svc.ManualPost(context.Background(), sessionID, "books", 0, "Кофемолка", domain.SNSX); !errors.Is(err, ErrUnknownCatalog) {
		t.Fatalf("ожидали ErrUnknownCatalog, получили %v", err)
	}
}

func TestManualPostGoneItemSkipsBackend(t *testing.T) {
	backend := &stubBackend{
		manualPost: func(ctx context.Context, trendKeyword string, product domain.Product, sns string) (string, error) {
			return "ok", nil
		},
	}
	svc, sessionID := newPostingService(backend)

	_, err := svc.ManualPost(context.Background(), sessionID, domain.CatalogProducts, 3, "Самовар", domain.SNSX)
	if !errors.Is(err, catalog.ErrItemGone) {
		t.Fatalf("ожидали ErrItemGone, получили %v", err)
	}
	if len(backend.manualCalls) != 0 {
		t.Fatalf("утерянная позиция не должна уходить на бэкенд: %v", backend.manualCalls)
	}
}

func TestManualPostTravelAsProduct(t *testing.T) {
	var posted domain.Product
	backend := &stubBackend{
		manualPost: func(ctx context.Context, trendKeyword string, product domain.Product, sns string) (string, error) {
			posted = product
			return "ok", nil
		},
	}
	cache := session.NewMemory()
	_ = cache.ReplaceTravel(context.Background(), "s1", "осака",
		[]domain.TravelItem{{Name: "Отель у парка", Area: "Осака", Price: 12000, AffiliateURL: "https://example.com/h"}})
	svc := NewService(backend, catalog.NewService(backend, cache, nil), nil, nil)

	if _, err := svc.ManualPost(context.Background(), "s1", domain.CatalogTravel, 0, "Отель у парка", domain.SNSX); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if posted.Name != "Отель у парка" || posted.Category != "Осака" || posted.AffiliateURL != "https://example.com/h" {
		t.Fatalf("отель должен уходить в формате товара: %+v", posted)
	}
}

func TestRunNowTally(t *testing.T) {
	backend := &stubBackend{
		runPost: func(ctx context.Context, count int) ([]domain.RunResult, error) {
			if count != 3 {
				t.Fatalf("ожидали count=3, получили %d", count)
			}
			return []domain.RunResult{{Success: true}, {Success: false}, {Success: true}}, nil
		},
	}
	svc := NewService(backend, nil, nil, nil)

	tally, err := svc.RunNow(context.Background(), "3")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if tally.Requested != 3 || tally.Succeeded != 2 || tally.Failed != 1 {
		t.Fatalf("неожиданная сводка: %+v", tally)
	}
}

func TestRunNowBackendError(t *testing.T) {
	failing := errors.New("quota exceeded")
	backend := &stubBackend{
		runPost: func(ctx context.Context, count int) ([]domain.RunResult, error) {
			return nil, failing
		},
	}
	svc := NewService(backend, nil, nil, nil)
	if _, err := svc.RunNow(context.Background(), "1"); !errors.Is(err, failing) {
		t.Fatalf("ожидали ошибку бэкенда, получили %v", err)
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"3", 3},
		{" 2 ", 2},
		{"", 1},
		{"abc", 1},
		{"0", 1},
		{"-5", 1},
	}
	for _, tc := range cases {
		if got := ParseCount(tc.raw); got != tc.want {
			t.Errorf("ParseCount(%q) = %d, ожидали %d", tc.raw, got, tc.want)
		}
	}
}
