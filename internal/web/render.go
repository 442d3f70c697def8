package web

import (
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"affil-dashboard/internal/domain"
)

// Тексты-заглушки для пустых списков. Пустая выдача всегда рисует заглушку,
// а не пустой контейнер.
const (
	placeholderTrends   = "Трендов пока нет"
	placeholderProducts = "Товары не найдены"
	placeholderTravel   = "Отели не найдены"
	placeholderPosts    = "История публикаций пуста"
	placeholderAudit    = "Журнал действий пуст"
	placeholderSearch   = "Введите ключевое слово и запустите поиск"
)

// RenderStats формирует карточки статистики.
func RenderStats(stats domain.StatSummary) string {
	var b strings.Builder
	b.WriteString(`<div class="stat-grid">`)
	statCard(&b, "Всего публикаций", formatInt(int64(stats.TotalPosts)))
	statCard(&b, "Публикаций в X", formatInt(int64(stats.XPosts)))
	statCard(&b, "Публикаций в Threads", formatInt(int64(stats.ThreadsPosts)))
	statCard(&b, "Показы", formatInt(stats.TotalImpressions))
	b.WriteString(`</div>`)
	return b.String()
}

func statCard(b *strings.Builder, label, value string) {
	b.WriteString(`<div class="stat-card"><span class="stat-value">`)
	b.WriteString(escape(value))
	b.WriteString(`</span><span class="stat-label">`)
	b.WriteString(escape(label))
	b.WriteString(`</span></div>`)
}

// RenderTrendList формирует список трендов.
// withActions добавляет к каждому тренду кнопку поиска товаров.
func RenderTrendList(trends []domain.Trend, withActions bool) string {
	if len(trends) == 0 {
		return placeholder(placeholderTrends)
	}
	var b strings.Builder
	for _, trend := range trends {
		b.WriteString(`<div class="list-item"><div class="list-item-content"><h4>🔥 `)
		b.WriteString(escape(trend.Keyword))
		b.WriteString(`</h4><p>`)
		b.WriteString(escape(trend.Reason))
		if !trend.FetchedAt.IsZero() {
			b.WriteString(" | " + formatTime(trend.FetchedAt))
		}
		b.WriteString(`</p></div><div class="list-item-actions">`)
		if trend.Used {
			b.WriteString(`<span class="badge badge-success">использован</span>`)
		} else {
			b.WriteString(`<span class="badge">новый</span>`)
		}
		if withActions {
			b.WriteString(`<a class="btn btn-secondary" href="/products?catalog=products&amp;q=`)
			b.WriteString(queryEscape(trend.Keyword))
			b.WriteString(`">Искать товары</a>`)
		}
		b.WriteString(`</div></div>`)
	}
	return b.String()
}

// RenderProductList формирует выдачу товаров с формами публикации.
// В каждую форму зашиты позиция в выдаче, имя и активное ключевое слово,
// чтобы обработчик мог восстановить запись из кэша сессии.
func RenderProductList(items []domain.Product, keyword string) string {
	if len(items) == 0 {
		return placeholder(placeholderProducts)
	}
	var b strings.Builder
	for i, item := range items {
		b.WriteString(`<div class="list-item"><div class="list-item-content"><h4>`)
		b.WriteString(escape(item.Name))
		b.WriteString(`</h4><p>💰 `)
		b.WriteString(escape(formatPrice(item.Price)))
		b.WriteString(`円 | `)
		b.WriteString(escape(item.Category))
		b.WriteString(`</p></div><div class="list-item-actions">`)
		affiliateLink(&b, item.AffiliateURL)
		postForm(&b, domain.CatalogProducts, i, item.Name, keyword)
		b.WriteString(`</div></div>`)
	}
	return b.String()
}

// RenderTravelList формирует выдачу отелей, симметрично товарной.
func RenderTravelList(items []domain.TravelItem, keyword string) string {
	if len(items) == 0 {
		return placeholder(placeholderTravel)
	}
	var b strings.Builder
	for i, item := range items {
		b.WriteString(`<div class="list-item"><div class="list-item-content"><h4>🏨 `)
		b.WriteString(escape(item.Name))
		b.WriteString(`</h4><p>`)
		b.WriteString(escape(item.Area))
		b.WriteString(` | 💰 `)
		b.WriteString(escape(formatPrice(item.Price)))
		b.WriteString(`円</p></div><div class="list-item-actions">`)
		affiliateLink(&b, item.AffiliateURL)
		postForm(&b, domain.CatalogTravel, i, item.Name, keyword)
		b.WriteString(`</div></div>`)
	}
	return b.String()
}

// RenderPostList формирует историю публикаций.
func RenderPostList(posts []domain.PostRecord) string {
	if len(posts) == 0 {
		return placeholder(placeholderPosts)
	}
	var b strings.Builder
	for _, post := range posts {
		b.WriteString(`<div class="list-item"><div class="list-item-content"><h4>`)
		b.WriteString(escape(truncate(post.Content, 80)))
		b.WriteString(`</h4><p>🏷️ `)
		b.WriteString(escape(post.TrendKeyword))
		b.WriteString(` | `)
		b.WriteString(formatTime(post.PostedAt))
		b.WriteString(`</p></div><div class="list-item-actions"><span class="badge">`)
		b.WriteString(escape(strings.ToUpper(post.SNS)))
		b.WriteString(`</span>`)
		if post.Status == domain.PostStatusPosted {
			b.WriteString(`<span class="badge badge-success">posted</span>`)
		} else {
			b.WriteString(`<span class="badge badge-failed">`)
			b.WriteString(escape(post.Status))
			b.WriteString(`</span>`)
		}
		b.WriteString(`</div></div>`)
	}
	return b.String()
}

// RenderAuditTrail формирует журнал действий оператора.
func RenderAuditTrail(entries []domain.AuditEntry) string {
	if len(entries) == 0 {
		return placeholder(placeholderAudit)
	}
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(`<div class="list-item"><div class="list-item-content"><h4>`)
		b.WriteString(escape(entry.Action))
		if entry.Detail != "" {
			b.WriteString(` — `)
			b.WriteString(escape(entry.Detail))
		}
		b.WriteString(`</h4><p>`)
		b.WriteString(formatTime(entry.CreatedAt))
		if entry.Message != "" {
			b.WriteString(` | `)
			b.WriteString(escape(entry.Message))
		}
		b.WriteString(`</p></div>`)
		if entry.OK {
			b.WriteString(`<span class="badge badge-success">ok</span>`)
		} else {
			b.WriteString(`<span class="badge badge-failed">ошибка</span>`)
		}
		b.WriteString(`</div>`)
	}
	return b.String()
}

// RenderSettingsForm формирует форму настроек пайплайна.
func RenderSettingsForm(settings domain.Settings) string {
	var b strings.Builder
	b.WriteString(`<form method="post" action="/actions/settings" class="settings-form">`)

	b.WriteString(`<fieldset><legend>Генерация</legend>`)
	b.WriteString(`<label>Модель ИИ <select name="ai_model">`)
	for _, model := range []string{"gemini", "openai", "claude"} {
		b.WriteString(`<option value="` + model + `"`)
		if settings.AIModel == model {
			b.WriteString(` selected`)
		}
		b.WriteString(`>` + model + `</option>`)
	}
	b.WriteString(`</select></label>`)
	textArea(&b, "prompt_trend", "Промпт: отбор трендов", settings.PromptTrend)
	textArea(&b, "prompt_x", "Промпт: пост для X", settings.PromptXPost)
	textArea(&b, "prompt_threads", "Промпт: пост для Threads", settings.PromptThreadsPost)
	b.WriteString(`</fieldset>`)

	b.WriteString(`<fieldset><legend>Публикация</legend>`)
	checkbox(&b, "x_enabled", "Постить в X", settings.XPostEnabled)
	checkbox(&b, "threads_enabled", "Постить в Threads", settings.ThreadsPostEnabled)
	textInput(&b, "post_times", "Время постинга", settings.PostTimes)
	b.WriteString(`</fieldset>`)

	b.WriteString(`<fieldset><legend>Категории поиска</legend>`)
	checkbox(&b, "cat_product", "Товары", settings.CategoryProduct)
	checkbox(&b, "cat_book", "Книги", settings.CategoryBook)
	checkbox(&b, "cat_cd", "CD", settings.CategoryCD)
	checkbox(&b, "cat_dvd", "DVD", settings.CategoryDVD)
	checkbox(&b, "cat_game", "Игры", settings.CategoryGame)
	checkbox(&b, "cat_travel", "Отели", settings.CategoryTravel)
	b.WriteString(`</fieldset>`)

	b.WriteString(`<button class="btn btn-primary" type="submit">Сохранить настройки</button></form>`)
	return b.String()
}

func affiliateLink(b *strings.Builder, url string) {
	if url == "" {
		return
	}
	b.WriteString(`<a class="btn btn-secondary" target="_blank" rel="noopener" href="`)
	b.WriteString(escape(url))
	b.WriteString(`">Открыть</a>`)
}

func postForm(b *strings.Builder, catalogName string, index int, name, keyword string) {
	b.WriteString(`<form method="post" action="/actions/post" class="post-form">`)
	hidden(b, "catalog", catalogName)
	hidden(b, "index", strconv.Itoa(index))
	hidden(b, "name", name)
	hidden(b, "q", keyword)
	b.WriteString(`<select name="sns">`)
	b.WriteString(`<option value="` + domain.SNSX + `">X</option>`)
	b.WriteString(`<option value="` + domain.SNSThreads + `">Threads</option>`)
	b.WriteString(`<option value="` + domain.SNSBoth + `">X + Threads</option>`)
	b.WriteString(`</select>`)
	b.WriteString(`<label class="confirm"><input type="checkbox" name="confirm"> подтверждаю</label>`)
	b.WriteString(`<button class="btn btn-primary" type="submit">Опубликовать</button></form>`)
}

func hidden(b *strings.Builder, name, value string) {
	b.WriteString(`<input type="hidden" name="` + name + `" value="`)
	b.WriteString(escape(value))
	b.WriteString(`">`)
}

func checkbox(b *strings.Builder, name, label string, checked bool) {
	b.WriteString(`<label><input type="checkbox" name="` + name + `"`)
	if checked {
		b.WriteString(` checked`)
	}
	b.WriteString(`> `)
	b.WriteString(escape(label))
	b.WriteString(`</label>`)
}

func textInput(b *strings.Builder, name, label, value string) {
	b.WriteString(`<label>`)
	b.WriteString(escape(label))
	b.WriteString(` <input type="text" name="` + name + `" value="`)
	b.WriteString(escape(value))
	b.WriteString(`"></label>`)
}

func textArea(b *strings.Builder, name, label, value string) {
	b.WriteString(`<label>`)
	b.WriteString(escape(label))
	b.WriteString(` <textarea name="` + name + `" rows="3">`)
	b.WriteString(escape(value))
	b.WriteString(`</textarea></label>`)
}

func placeholder(text string) string {
	return `<p class="placeholder">` + escape(text) + `</p>`
}

func escape(s string) string {
	return html.EscapeString(s)
}

func queryEscape(s string) string {
	return escape(url.QueryEscape(s))
}

// formatInt расставляет разряды: 1234567 → 1 234 567.
func formatInt(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, " ")
	if neg {
		out = "-" + out
	}
	return out
}

func formatPrice(price float64) string {
	return formatInt(int64(price))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("02.01.2006 15:04")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
