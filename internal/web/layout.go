package web

import "strings"

// Панели дашборда.
const (
	paneDashboard = "dashboard"
	paneTrends    = "trends"
	paneProducts  = "products"
	panePosts     = "posts"
	paneSettings  = "settings"
)

var navItems = []struct {
	pane  string
	path  string
	title string
}{
	{paneDashboard, "/", "Дашборд"},
	{paneTrends, "/trends", "Тренды"},
	{paneProducts, "/products", "Товары"},
	{panePosts, "/posts", "История"},
	{paneSettings, "/settings", "Настройки"},
}

const pageStyle = `body{font-family:sans-serif;margin:0;background:#f4f5f7;color:#1c1e21}
nav{display:flex;gap:4px;background:#1f2933;padding:8px 16px}
nav a{color:#cbd2d9;text-decoration:none;padding:6px 12px;border-radius:6px}
nav a.active{background:#323f4b;color:#fff}
main{max-width:960px;margin:16px auto;padding:0 16px}
.stat-grid{display:grid;grid-template-columns:repeat(4,1fr);gap:12px;margin-bottom:16px}
.stat-card{background:#fff;border-radius:8px;padding:12px;display:flex;flex-direction:column}
.stat-value{font-size:24px;font-weight:700}
.stat-label{color:#52606d;font-size:13px}
.list-item{background:#fff;border-radius:8px;padding:12px;margin-bottom:8px;display:flex;justify-content:space-between;align-items:center;gap:12px}
.list-item h4{margin:0 0 4px}
.list-item p{margin:0;color:#52606d;font-size:13px}
.list-item-actions{display:flex;align-items:center;gap:8px;flex-shrink:0}
.badge{background:#e4e7eb;border-radius:10px;padding:2px 10px;font-size:12px}
.badge-success{background:#c6f7e2;color:#014d40}
.badge-failed{background:#ffd3d3;color:#611a15}
.btn{border:0;border-radius:6px;padding:6px 12px;cursor:pointer;text-decoration:none;font-size:13px}
.btn-primary{background:#2680c2;color:#fff}
.btn-secondary{background:#e4e7eb;color:#1c1e21}
.placeholder{color:#7b8794;padding:16px;text-align:center}
.toast{border-radius:8px;padding:10px 16px;margin-bottom:12px}
.toast-success{background:#c6f7e2}
.toast-error{background:#ffd3d3}
.toast-warning{background:#fff3c4}
.toast-info{background:#d9e8ff}
.settings-form fieldset{background:#fff;border:0;border-radius:8px;margin-bottom:12px;display:flex;flex-direction:column;gap:8px}
.settings-form input[type=text],.settings-form textarea,.settings-form select{width:100%;box-sizing:border-box}
.post-form{display:flex;align-items:center;gap:6px}
.actions-bar{display:flex;gap:8px;margin-bottom:12px;flex-wrap:wrap;align-items:center}
h2{margin-top:24px}`

// renderPage собирает полную страницу: шапку, навигацию, тост и тело панели.
func renderPage(active, toastHTML, body string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="ru"><head><meta charset="utf-8">`)
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	b.WriteString(`<title>AffilTweet — панель управления</title>`)
	b.WriteString(`<style>` + pageStyle + `</style></head><body><nav>`)
	for _, item := range navItems {
		b.WriteString(`<a href="` + item.path + `"`)
		if item.pane == active {
			b.WriteString(` class="active"`)
		}
		b.WriteString(`>` + item.title + `</a>`)
	}
	b.WriteString(`</nav><main>`)
	b.WriteString(toastHTML)
	b.WriteString(body)
	b.WriteString(`</main></body></html>`)
	return b.String()
}

func renderToast(level, message string) string {
	if message == "" {
		return ""
	}
	switch level {
	case "success", "error", "warning", "info":
	default:
		level = "info"
	}
	return `<div class="toast toast-` + level + `">` + escape(message) + `</div>`
}
