package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"affil-dashboard/internal/domain"
	"affil-dashboard/internal/infra/metrics"
	"affil-dashboard/internal/usecase/catalog"
	"affil-dashboard/internal/usecase/posting"
	"affil-dashboard/internal/usecase/settings"
	"affil-dashboard/internal/usecase/trends"
	"affil-dashboard/internal/usecase/triggers"
)

const (
	sessionCookie = "dash_session"
	toastCookie   = "dash_toast"

	latestLimit = 5
	auditLimit  = 10
)

// Handler обслуживает страницы и действия дашборда.
type Handler struct {
	log        zerolog.Logger
	backend    domain.Backend
	audit      domain.AuditLog
	trendsUC   *trends.Service
	catalogUC  *catalog.Service
	postingUC  *posting.Service
	settingsUC *settings.Service
	triggersUC *triggers.Service

	// Защита от повторной отправки: пока действие выполняется,
	// вторая отправка того же действия из той же сессии отклоняется.
	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewHandler создаёт обработчик дашборда.
func NewHandler(log zerolog.Logger, backend domain.Backend, audit domain.AuditLog,
	trendsUC *trends.Service, catalogUC *catalog.Service, postingUC *posting.Service,
	settingsUC *settings.Service, triggersUC *triggers.Service) *Handler {
	return &Handler{
		log:        log,
		backend:    backend,
		audit:      audit,
		trendsUC:   trendsUC,
		catalogUC:  catalogUC,
		postingUC:  postingUC,
		settingsUC: settingsUC,
		triggersUC: triggersUC,
		inflight:   make(map[string]struct{}),
	}
}

// Register вешает маршруты панелей и действий.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.dashboardPage)
	r.Get("/trends", h.trendsPage)
	r.Get("/products", h.productsPage)
	r.Get("/posts", h.postsPage)
	r.Get("/settings", h.settingsPage)

	r.Post("/actions/fetch-trends", h.fetchTrends)
	r.Post("/actions/post", h.manualPost)
	r.Post("/actions/settings", h.saveSettings)
	r.Post("/actions/triggers/setup", h.setupTriggers)
	r.Post("/actions/triggers/delete", h.deleteTriggers)
	r.Post("/actions/run-now", h.runNow)
}

// ---- страницы ----

func (h *Handler) dashboardPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics.PageRenderTotal.WithLabelValues(paneDashboard).Inc()
	toastHTML := h.takeToast(w, r)

	var body []string

	stats, err := h.backend.GetStats(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard: статистика недоступна")
		toastHTML += renderToast("error", "Не удалось загрузить статистику")
	}
	body = append(body, RenderStats(stats))

	body = append(body, `<div class="actions-bar">`+
		actionButton("/actions/fetch-trends", "Получить тренды")+
		runNowForm()+
		`</div>`)

	trendList, err := h.trendsUC.List(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard: тренды недоступны")
	}
	body = append(body, "<h2>Свежие тренды</h2>", RenderTrendList(firstN(trendList, latestLimit), false))

	posts, err := h.backend.GetPosts(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("dashboard: история недоступна")
	}
	body = append(body, "<h2>Последние публикации</h2>", RenderPostList(firstN(posts, latestLimit)))

	if h.audit != nil {
		entries, err := h.audit.Recent(ctx, auditLimit)
		if err != nil {
			h.log.Error().Err(err).Msg("dashboard: журнал недоступен")
		}
		body = append(body, "<h2>Журнал действий</h2>", RenderAuditTrail(entries))
	}

	h.writePage(w, paneDashboard, toastHTML, body...)
}

func (h *Handler) trendsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics.PageRenderTotal.WithLabelValues(paneTrends).Inc()
	toastHTML := h.takeToast(w, r)

	trendList, err := h.trendsUC.List(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("trends: список недоступен")
		toastHTML += renderToast("error", "Не удалось загрузить тренды")
	}
	body := []string{
		`<div class="actions-bar">` + actionButton("/actions/fetch-trends", "Получить тренды") + `</div>`,
		RenderTrendList(trendList, true),
	}
	h.writePage(w, paneTrends, toastHTML, body...)
}

// productsPage панель поиска. Без параметра q ничего не грузится:
// каталог заполняется только по явному поиску.
func (h *Handler) productsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics.PageRenderTotal.WithLabelValues(paneProducts).Inc()
	toastHTML := h.takeToast(w, r)
	sessionID := h.ensureSession(w, r)

	catalogName := r.URL.Query().Get("catalog")
	if catalogName != domain.CatalogTravel {
		catalogName = domain.CatalogProducts
	}
	keyword := r.URL.Query().Get("q")

	body := []string{searchForm(catalogName, keyword)}
	switch {
	case keyword == "":
		body = append(body, placeholder(placeholderSearch))
	case catalogName == domain.CatalogTravel:
		items, err := h.catalogUC.SearchTravel(ctx, sessionID, keyword)
		if err != nil {
			toastHTML += renderToast("error", searchErrorMessage(err))
		}
		body = append(body, RenderTravelList(items, keyword))
	default:
		items, err := h.catalogUC.SearchProducts(ctx, sessionID, keyword)
		if err != nil {
			toastHTML += renderToast("error", searchErrorMessage(err))
		}
		body = append(body, RenderProductList(items, keyword))
	}
	h.writePage(w, paneProducts, toastHTML, body...)
}

func (h *Handler) postsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics.PageRenderTotal.WithLabelValues(panePosts).Inc()
	toastHTML := h.takeToast(w, r)

	posts, err := h.backend.GetPosts(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("posts: история недоступна")
		toastHTML += renderToast("error", "Не удалось загрузить историю публикаций")
	}
	h.writePage(w, panePosts, toastHTML, RenderPostList(posts))
}

func (h *Handler) settingsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics.PageRenderTotal.WithLabelValues(paneSettings).Inc()
	toastHTML := h.takeToast(w, r)

	current, err := h.settingsUC.Load(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("settings: конфигурация недоступна")
		toastHTML += renderToast("error", "Не удалось загрузить настройки, показаны значения по умолчанию")
		current = settings.FromConfig(nil)
	}
	body := []string{
		RenderSettingsForm(current),
		"<h2>Триггеры расписания</h2>",
		triggerForms(),
	}
	h.writePage(w, paneSettings, toastHTML, body...)
}

// ---- действия ----

func (h *Handler) fetchTrends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := h.ensureSession(w, r)
	if !h.begin("fetchTrends", sessionID) {
		h.redirectWithToast(w, r, "/trends", "warning", "Сбор трендов уже выполняется")
		return
	}
	defer h.finish("fetchTrends", sessionID)

	count, err := h.trendsUC.Refresh(ctx)
	metrics.IncDashboardAction("fetchTrends", err)
	if err != nil {
		h.log.Error().Err(err).Msg("action: сбор трендов")
		h.redirectWithToast(w, r, "/trends", "error", "Не удалось получить тренды")
		return
	}
	h.redirectWithToast(w, r, "/trends", "success", fmt.Sprintf("Получено трендов: %d", count))
}

func (h *Handler) manualPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := h.ensureSession(w, r)

	catalogName := r.FormValue("catalog")
	back := "/products?catalog=" + url.QueryEscape(catalogName)
	if q := r.FormValue("q"); q != "" {
		back += "&q=" + url.QueryEscape(q)
	}

	if r.FormValue("confirm") == "" {
		h.redirectWithToast(w, r, back, "warning", "Подтвердите публикацию галочкой")
		return
	}
	if !h.begin("manualPost", sessionID) {
		h.redirectWithToast(w, r, back, "warning", "Публикация уже выполняется")
		return
	}
	defer h.finish("manualPost", sessionID)

	index := parseIndex(r.FormValue("index"))
	name := r.FormValue("name")
	sns := r.FormValue("sns")

	results, err := h.postingUC.ManualPost(ctx, sessionID, catalogName, index, name, sns)
	metrics.IncDashboardAction("manualPost", err)
	if err != nil {
		h.log.Error().Err(err).Str("item", name).Msg("action: ручная публикация")
		h.redirectWithToast(w, r, back, "error", postErrorMessage(err))
		return
	}
	level, message := outcomeMessage(results)
	h.redirectWithToast(w, r, back, level, message)
}

func (h *Handler) saveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := h.ensureSession(w, r)
	if !h.begin("saveSettings", sessionID) {
		h.redirectWithToast(w, r, "/settings", "warning", "Сохранение уже выполняется")
		return
	}
	defer h.finish("saveSettings", sessionID)

	form := domain.Settings{
		AIModel:            r.FormValue("ai_model"),
		XPostEnabled:       r.FormValue("x_enabled") != "",
		ThreadsPostEnabled: r.FormValue("threads_enabled") != "",
		PostTimes:          r.FormValue("post_times"),
		CategoryProduct:    r.FormValue("cat_product") != "",
		CategoryBook:       r.FormValue("cat_book") != "",
		CategoryCD:         r.FormValue("cat_cd") != "",
		CategoryDVD:        r.FormValue("cat_dvd") != "",
		CategoryGame:       r.FormValue("cat_game") != "",
		CategoryTravel:     r.FormValue("cat_travel") != "",
		PromptTrend:        r.FormValue("prompt_trend"),
		PromptXPost:        r.FormValue("prompt_x"),
		PromptThreadsPost:  r.FormValue("prompt_threads"),
	}
	err := h.settingsUC.Save(ctx, form)
	metrics.IncDashboardAction("updateConfig", err)
	if err != nil {
		h.log.Error().Err(err).Msg("action: сохранение настроек")
		h.redirectWithToast(w, r, "/settings", "error", "Не удалось сохранить настройки")
		return
	}
	h.redirectWithToast(w, r, "/settings", "success", "Настройки сохранены")
}

func (h *Handler) setupTriggers(w http.ResponseWriter, r *http.Request) {
	h.triggerAction(w, r, "setupTriggers", "Триггеры настроены", h.triggersUC.Setup)
}

func (h *Handler) deleteTriggers(w http.ResponseWriter, r *http.Request) {
	h.triggerAction(w, r, "deleteTriggers", "Триггеры удалены", h.triggersUC.Delete)
}

func (h *Handler) triggerAction(w http.ResponseWriter, r *http.Request, action, successMsg string,
	run func(context.Context) (string, error)) {
	ctx := r.Context()
	sessionID := h.ensureSession(w, r)

	if r.FormValue("confirm") == "" {
		h.redirectWithToast(w, r, "/settings", "warning", "Подтвердите действие галочкой")
		return
	}
	if !h.begin(action, sessionID) {
		h.redirectWithToast(w, r, "/settings", "warning", "Действие уже выполняется")
		return
	}
	defer h.finish(action, sessionID)

	message, err := run(ctx)
	metrics.IncDashboardAction(action, err)
	if err != nil {
		h.log.Error().Err(err).Str("action", action).Msg("action: триггеры")
		h.redirectWithToast(w, r, "/settings", "error", "Операция с триггерами не удалась")
		return
	}
	if message != "" {
		successMsg = message
	}
	h.redirectWithToast(w, r, "/settings", "success", successMsg)
}

func (h *Handler) runNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := h.ensureSession(w, r)
	if !h.begin("runScheduledPost", sessionID) {
		h.redirectWithToast(w, r, "/", "warning", "Плановый постинг уже запущен")
		return
	}
	defer h.finish("runScheduledPost", sessionID)

	tally, err := h.postingUC.RunNow(ctx, r.FormValue("count"))
	metrics.IncDashboardAction("runScheduledPost", err)
	if err != nil {
		h.log.Error().Err(err).Msg("action: плановый постинг")
		h.redirectWithToast(w, r, "/", "error", "Плановый постинг не запустился")
		return
	}
	level := "success"
	if tally.Failed > 0 {
		level = "warning"
	}
	h.redirectWithToast(w, r, "/", level,
		fmt.Sprintf("Плановый постинг: успешно %d, с ошибками %d", tally.Succeeded, tally.Failed))
}

// ---- вспомогательное ----

func (h *Handler) writePage(w http.ResponseWriter, pane, toastHTML string, body ...string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(renderPage(pane, toastHTML, strings.Join(body, ""))))
}

// ensureSession возвращает ID сессии оператора, при необходимости выдавая cookie.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (h *Handler) begin(action, sessionID string) bool {
	key := action + "|" + sessionID
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inflight[key]; busy {
		return false
	}
	h.inflight[key] = struct{}{}
	return true
}

func (h *Handler) finish(action, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inflight, action+"|"+sessionID)
}

func (h *Handler) redirectWithToast(w http.ResponseWriter, r *http.Request, target, level, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:  toastCookie,
		Value: url.QueryEscape(level + "|" + message),
		Path:  "/",
	})
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// takeToast забирает отложенный тост и сразу гасит cookie.
func (h *Handler) takeToast(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(toastCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: toastCookie, Value: "", Path: "/", MaxAge: -1})
	decoded, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	level, message, found := strings.Cut(decoded, "|")
	if !found {
		return renderToast("info", decoded)
	}
	return renderToast(level, message)
}

func parseIndex(raw string) int {
	index, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return index
}

// outcomeMessage сводит результаты публикации в один тост.
// Для "both" различаются все четыре исхода.
func outcomeMessage(results []domain.PlatformResult) (level, message string) {
	if len(results) == 2 {
		xOK := results[0].OK
		threadsOK := results[1].OK
		switch {
		case xOK && threadsOK:
			return "success", "Опубликовано в X и Threads"
		case xOK:
			return "warning", "Опубликовано в X, публикация в Threads не удалась"
		case threadsOK:
			return "warning", "Опубликовано в Threads, публикация в X не удалась"
		default:
			return "error", "Публикация не удалась ни в X, ни в Threads"
		}
	}
	if len(results) == 1 {
		result := results[0]
		if result.OK {
			return "success", "Опубликовано в " + platformLabel(result.SNS)
		}
		return "error", "Публикация в " + platformLabel(result.SNS) + " не удалась"
	}
	return "info", "Публикация не выполнялась"
}

func platformLabel(sns string) string {
	switch sns {
	case domain.SNSX:
		return "X"
	case domain.SNSThreads:
		return "Threads"
	default:
		return sns
	}
}

func searchErrorMessage(err error) string {
	if errors.Is(err, catalog.ErrEmptyKeyword) {
		return "Введите ключевое слово"
	}
	return "Поиск не удался"
}

func postErrorMessage(err error) string {
	switch {
	case errors.Is(err, catalog.ErrItemGone):
		return "Результаты поиска устарели, повторите поиск"
	case errors.Is(err, posting.ErrUnknownSNS), errors.Is(err, posting.ErrUnknownCatalog):
		return "Некорректные параметры публикации"
	default:
		return "Публикация не удалась"
	}
}

func firstN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func actionButton(action, label string) string {
	return `<form method="post" action="` + action + `"><button class="btn btn-primary" type="submit">` +
		escape(label) + `</button></form>`
}

func runNowForm() string {
	return `<form method="post" action="/actions/run-now" class="post-form">` +
		`<input type="number" name="count" value="1" min="1" size="3">` +
		`<button class="btn btn-secondary" type="submit">Запустить постинг сейчас</button></form>`
}

func searchForm(catalogName, keyword string) string {
	var b strings.Builder
	b.WriteString(`<form method="get" action="/products" class="actions-bar">`)
	b.WriteString(`<select name="catalog">`)
	b.WriteString(`<option value="` + domain.CatalogProducts + `"`)
	if catalogName == domain.CatalogProducts {
		b.WriteString(` selected`)
	}
	b.WriteString(`>Товары</option>`)
	b.WriteString(`<option value="` + domain.CatalogTravel + `"`)
	if catalogName == domain.CatalogTravel {
		b.WriteString(` selected`)
	}
	b.WriteString(`>Отели</option></select>`)
	b.WriteString(`<input type="text" name="q" placeholder="Ключевое слово" value="`)
	b.WriteString(escape(keyword))
	b.WriteString(`"><button class="btn btn-primary" type="submit">Искать</button></form>`)
	return b.String()
}

func triggerForms() string {
	confirm := `<label class="confirm"><input type="checkbox" name="confirm"> подтверждаю</label>`
	return `<div class="actions-bar">` +
		`<form method="post" action="/actions/triggers/setup" class="post-form">` + confirm +
		`<button class="btn btn-primary" type="submit">Настроить триггеры</button></form>` +
		`<form method="post" action="/actions/triggers/delete" class="post-form">` + confirm +
		`<button class="btn btn-secondary" type="submit">Удалить триггеры</button></form></div>`
}
