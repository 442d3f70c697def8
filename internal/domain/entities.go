package domain

import "time"

// Платформы публикации, как их понимает бэкенд автоматизации.
const (
	SNSX       = "x"
	SNSThreads = "threads"
	SNSBoth    = "both"
)

// Каталоги поиска партнёрских позиций.
const (
	CatalogProducts = "products"
	CatalogTravel   = "travel"
)

// StatSummary агрегированная статистика публикаций с бэкенда.
type StatSummary struct {
	TotalPosts       int   `json:"totalPosts"`
	XPosts           int   `json:"xPosts"`
	ThreadsPosts     int   `json:"threadsPosts"`
	TotalImpressions int64 `json:"totalImpressions"`
}

// Trend ключевое слово, которое бэкенд посчитал обсуждаемой темой.
type Trend struct {
	Keyword   string    `json:"keyword"`
	Reason    string    `json:"reason"`
	FetchedAt time.Time `json:"fetchedAt"`
	Used      bool      `json:"used"`
}

// Product партнёрская позиция из маркетплейса.
type Product struct {
	Name         string  `json:"productName"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	AffiliateURL string  `json:"affiliateUrl"`
}

// TravelItem отель из travel-поиска.
type TravelItem struct {
	Name         string  `json:"name"`
	Area         string  `json:"area"`
	Price        float64 `json:"price"`
	AffiliateURL string  `json:"affiliateUrl"`
}

// AsProduct приводит отель к форме, которую принимает manualPostRaw.
func (t TravelItem) AsProduct() Product {
	return Product{
		Name:         t.Name,
		Price:        t.Price,
		Category:     t.Area,
		AffiliateURL: t.AffiliateURL,
	}
}

// Статусы записи в истории публикаций.
const (
	PostStatusPosted = "posted"
	PostStatusFailed = "failed"
)

// PostRecord запись истории публикаций.
type PostRecord struct {
	Content      string    `json:"content"`
	SNS          string    `json:"sns"`
	Status       string    `json:"status"`
	TrendKeyword string    `json:"trendKeyword"`
	PostedAt     time.Time `json:"postedAt"`
}

// ConfigValue значение одного ключа конфигурации бэкенда.
// Булевы настройки могут приходить как true либо как строка "TRUE".
type ConfigValue struct {
	Value any `json:"value"`
}

// Bool интерпретирует значение как флаг.
func (v ConfigValue) Bool() bool {
	switch val := v.Value.(type) {
	case bool:
		return val
	case string:
		return val == "TRUE"
	default:
		return false
	}
}

// String интерпретирует значение как строку.
func (v ConfigValue) String() string {
	if s, ok := v.Value.(string); ok {
		return s
	}
	return ""
}

// Settings типизированная форма настроек пайплайна.
type Settings struct {
	AIModel            string
	XPostEnabled       bool
	ThreadsPostEnabled bool
	PostTimes          string
	CategoryProduct    bool
	CategoryBook       bool
	CategoryCD         bool
	CategoryDVD        bool
	CategoryGame       bool
	CategoryTravel     bool
	PromptTrend        string
	PromptXPost        string
	PromptThreadsPost  string
}

// PlatformResult итог публикации на одной платформе.
type PlatformResult struct {
	SNS     string
	OK      bool
	Message string
}

// RunResult итог одного прогона планового постинга.
type RunResult struct {
	Success bool `json:"success"`
}

// RunTally сводка по серии плановых прогонов.
type RunTally struct {
	Requested int
	Succeeded int
	Failed    int
}

// AuditEntry запись локального журнала действий оператора.
type AuditEntry struct {
	ID        int64
	Action    string
	Detail    string
	OK        bool
	Message   string
	CreatedAt time.Time
}
