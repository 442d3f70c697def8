package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"affil-dashboard/internal/adapters/session"
	"affil-dashboard/internal/domain"
	"affil-dashboard/internal/usecase/catalog"
	"affil-dashboard/internal/usecase/posting"
	"affil-dashboard/internal/usecase/settings"
	"affil-dashboard/internal/usecase/trends"
	"affil-dashboard/internal/usecase/triggers"
)

type stubBackend struct {
	domain.Backend

	manualCalls int
	manualPost  func(ctx context.Context, trendKeyword string, product domain.Product, sns string) (string, error)
	products    []domain.Product
}

func (s *stubBackend) SearchProducts(ctx context.Context, keyword string) ([]domain.Product, error) {
	return s.products, nil
}

func (s *stubBackend) ManualPost(ctx context.Context, trendKeyword string, product domain.Product, sns string) (string, error) {
	s.manualCalls++
	if s.manualPost == nil {
		return "ok", nil
	}
	return s.manualPost(ctx, trendKeyword, product, sns)
}

func (s *stubBackend) GetStats(ctx context.Context) (domain.StatSummary, error) {
	return domain.StatSummary{}, nil
}

func (s *stubBackend) GetTrends(ctx context.Context) ([]domain.Trend, error) {
	return nil, nil
}

func (s *stubBackend) GetPosts(ctx context.Context) ([]domain.PostRecord, error) {
	return nil, nil
}

func newTestHandler(backend *stubBackend) (*Handler, *chi.Mux) {
	cache := session.NewMemory()
	catalogUC := catalog.NewService(backend, cache, nil)
	h := NewHandler(zerolog.Nop(), backend, nil,
		trends.NewService(backend, nil),
		catalogUC,
		posting.NewService(backend, catalogUC, nil, nil),
		settings.NewService(backend, nil),
		triggers.NewService(backend, nil, nil))
	r := chi.NewRouter()
	h.Register(r)
	return h, r
}

func submitForm(r http.Handler, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func toastOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == toastCookie && c.MaxAge >= 0 {
			decoded, err := url.QueryUnescape(c.Value)
			if err != nil {
				t.Fatalf("тост не раскодировался: %v", err)
			}
			return decoded
		}
	}
	t.Fatalf("ответ без тоста: %+v", rec.Result().Cookies())
	return ""
}

func TestManualPostRequiresConfirmation(t *testing.T) {
	backend := &stubBackend{}
	_, r := newTestHandler(backend)

	rec := submitForm(r, "/actions/post", url.Values{
		"catalog": {domain.CatalogProducts},
		"index":   {"0"},
		"name":    {"Кофемолка"},
		"sns":     {domain.SNSX},
	})

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("ожидали редирект 303, получили %d", rec.Code)
	}
	if toast := toastOf(t, rec); !strings.HasPrefix(toast, "warning|") {
		t.Fatalf("без галочки ожидали предупреждение: %q", toast)
	}
	if backend.manualCalls != 0 {
		t.Fatalf("без подтверждения бэкенд не должен вызываться")
	}
}

func TestManualPostHappyPath(t *testing.T) {
	backend := &stubBackend{products: []domain.Product{{Name: "Кофемолка", Price: 4980}}}
	h, r := newTestHandler(backend)

	// Поиск наполняет кэш сессии, из которого публикация берёт позицию.
	sessionID := "s1"
	cookie := &http.Cookie{Name: sessionCookie, Value: sessionID}
	if _, err := h.catalogUC.SearchProducts(context.Background(), sessionID, "кофе"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	rec := submitForm(r, "/actions/post", url.Values{
		"catalog": {domain.CatalogProducts},
		"index":   {"0"},
		"name":    {"Кофемолка"},
		"q":       {"кофе"},
		"sns":     {domain.SNSX},
		"confirm": {"on"},
	}, cookie)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("ожидали редирект 303, получили %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.Contains(loc, "q=%D0%BA%D0%BE%D1%84%D0%B5") {
		t.Fatalf("редирект должен сохранять поисковый запрос: %q", loc)
	}
	if toast := toastOf(t, rec); toast != "success|Опубликовано в X" {
		t.Fatalf("неожиданный тост: %q", toast)
	}
	if backend.manualCalls != 1 {
		t.Fatalf("ожидали один запрос публикации, было %d", backend.manualCalls)
	}
}

func TestManualPostStaleCache(t *testing.T) {
	backend := &stubBackend{}
	_, r := newTestHandler(backend)

	rec := submitForm(r, "/actions/post", url.Values{
		"catalog": {domain.CatalogProducts},
		"index":   {"0"},
		"name":    {"Кофемолка"},
		"sns":     {domain.SNSX},
		"confirm": {"on"},
	}, &http.Cookie{Name: sessionCookie, Value: "s1"})

	if toast := toastOf(t, rec); toast != "error|Результаты поиска устарели, повторите поиск" {
		t.Fatalf("неожиданный тост: %q", toast)
	}
	if backend.manualCalls != 0 {
		t.Fatalf("утерянная позиция не должна уходить на бэкенд")
	}
}

func TestBusyGuard(t *testing.T) {
	h, _ := newTestHandler(&stubBackend{})

	if !h.begin("manualPost", "s1") {
		t.Fatalf("первое действие должно проходить")
	}
	if h.begin("manualPost", "s1") {
		t.Fatalf("повтор того же действия в той же сессии должен отклоняться")
	}
	// Другая сессия и другое действие не блокируются.
	if !h.begin("manualPost", "s2") {
		t.Fatalf("другая сессия не должна блокироваться")
	}
	if !h.begin("fetchTrends", "s1") {
		t.Fatalf("другое действие не должно блокироваться")
	}

	h.finish("manualPost", "s1")
	if !h.begin("manualPost", "s1") {
		t.Fatalf("после завершения действие должно проходить снова")
	}
}

func TestProductsPageWithoutQuery(t *testing.T) {
	backend := &stubBackend{products: []domain.Product{{Name: "Кофемолка"}}}
	_, r := newTestHandler(backend)

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, placeholderSearch) {
		t.Fatalf("без запроса должна показываться подсказка поиска")
	}
	if strings.Contains(body, "Кофемолка") {
		t.Fatalf("без запроса каталог не должен грузиться")
	}
}

func TestProductsPageSearch(t *testing.T) {
	backend := &stubBackend{products: []domain.Product{{Name: "Кофемолка", Price: 4980}}}
	_, r := newTestHandler(backend)

	req := httptest.NewRequest(http.MethodGet, "/products?q="+url.QueryEscape("кофе"), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "Кофемолка") {
		t.Fatalf("выдача должна попадать на страницу:\n%s", body)
	}
	if !strings.Contains(body, `name="q" value="кофе"`) {
		t.Fatalf("формы публикации должны нести активный запрос")
	}
}

func TestTakeToastClearsCookie(t *testing.T) {
	h, _ := newTestHandler(&stubBackend{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: toastCookie, Value: url.QueryEscape("success|Готово")})
	rec := httptest.NewRecorder()

	html := h.takeToast(rec, req)
	if !strings.Contains(html, "Готово") || !strings.Contains(html, "toast-success") {
		t.Fatalf("неожиданный тост: %q", html)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == toastCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("cookie тоста должна гаситься после показа")
	}
}

func TestOutcomeMessage(t *testing.T) {
	ok := domain.PlatformResult{SNS: domain.SNSX, OK: true}
	fail := domain.PlatformResult{SNS: domain.SNSX, OK: false}
	okThreads := domain.PlatformResult{SNS: domain.SNSThreads, OK: true}
	failThreads := domain.PlatformResult{SNS: domain.SNSThreads, OK: false}

	cases := []struct {
		name    string
		results []domain.PlatformResult
		level   string
		message string
	}{
		{"both ok", []domain.PlatformResult{ok, okThreads}, "success", "Опубликовано в X и Threads"},
		{"threads failed", []domain.PlatformResult{ok, failThreads}, "warning", "Опубликовано в X, публикация в Threads не удалась"},
		{"x failed", []domain.PlatformResult{fail, okThreads}, "warning", "Опубликовано в Threads, публикация в X не удалась"},
		{"both failed", []domain.PlatformResult{fail, failThreads}, "error", "Публикация не удалась ни в X, ни в Threads"},
		{"single ok", []domain.PlatformResult{okThreads}, "success", "Опубликовано в Threads"},
		{"single failed", []domain.PlatformResult{fail}, "error", "Публикация в X не удалась"},
	}
	for _, tc := range cases {
		level, message := outcomeMessage(tc.results)
		if level != tc.level || message != tc.message {
			t.Errorf("%s: получили %q %q", tc.name, level, message)
		}
	}
}
