package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"affil-dashboard/internal/domain"
	"affil-dashboard/internal/infra/metrics"
)

// Client выполняет action-запросы к бэкенду автоматизации.
// Чтения идут GET-ом с параметрами action/apiKey, записи — POST-ом
// с JSON телом {action, apiKey, ...payload}.
type Client struct {
	apiURL     *url.URL
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// New создаёт клиента бэкенда.
func New(apiURL, apiKey string, opts ...Option) (*Client, error) {
	if apiURL == "" {
		return nil, fmt.Errorf("apiURL is required")
	}
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	client := &Client{
		apiURL:     parsed,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// envelope общий конверт ответов на GET-действия.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// GetStats возвращает агрегированную статистику публикаций.
func (c *Client) GetStats(ctx context.Context) (domain.StatSummary, error) {
	var stats domain.StatSummary
	if err := c.get(ctx, "getStats", &stats); err != nil {
		return domain.StatSummary{}, err
	}
	return stats, nil
}

// GetTrends возвращает собранные тренды.
func (c *Client) GetTrends(ctx context.Context) ([]domain.Trend, error) {
	var trends []domain.Trend
	if err := c.get(ctx, "getTrends", &trends); err != nil {
		return nil, err
	}
	return trends, nil
}

// GetPosts возвращает историю публикаций.
func (c *Client) GetPosts(ctx context.Context) ([]domain.PostRecord, error) {
	var posts []domain.PostRecord
	if err := c.get(ctx, "getPosts", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetConfig возвращает плоскую карту настроек пайплайна.
func (c *Client) GetConfig(ctx context.Context) (map[string]domain.ConfigValue, error) {
	var configs map[string]domain.ConfigValue
	if err := c.get(ctx, "getConfig", &configs); err != nil {
		return nil, err
	}
	return configs, nil
}

// FetchTrends запускает на бэкенде сбор свежих трендов.
func (c *Client) FetchTrends(ctx context.Context) ([]domain.Trend, error) {
	var resp struct {
		Trends []domain.Trend `json:"trends"`
		Error  string         `json:"error"`
	}
	if err := c.post(ctx, "fetchTrends", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Trends == nil {
		return nil, backendError("fetchTrends", resp.Error)
	}
	return resp.Trends, nil
}

// SearchProducts ищет товары по ключевому слову.
func (c *Client) SearchProducts(ctx context.Context, keyword string) ([]domain.Product, error) {
	var resp struct {
		Products []domain.Product `json:"products"`
		Error    string           `json:"error"`
	}
	payload := map[string]any{"keyword": keyword}
	if err := c.post(ctx, "searchProducts", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Products == nil {
		return nil, backendError("searchProducts", resp.Error)
	}
	return resp.Products, nil
}

// SearchTravel ищет отели по ключевому слову.
func (c *Client) SearchTravel(ctx context.Context, keyword string) ([]domain.TravelItem, error) {
	var resp struct {
		Products []domain.TravelItem `json:"products"`
		Error    string              `json:"error"`
	}
	payload := map[string]any{"keyword": keyword}
	if err := c.post(ctx, "searchTravel", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Products == nil {
		return nil, backendError("searchTravel", resp.Error)
	}
	return resp.Products, nil
}

// ManualPost публикует позицию на одной платформе.
func (c *Client) ManualPost(ctx context.Context, trendKeyword string, product domain.Product, sns string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	payload := map[string]any{
		"trendKeyword": trendKeyword,
		"product":      product,
		"sns":          sns,
	}
	if err := c.post(ctx, "manualPostRaw", payload, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = resp.Error
		}
		return "", backendError("manualPostRaw", msg)
	}
	return resp.Message, nil
}

// UpdateConfig целиком перезаписывает настройки пайплайна.
func (c *Client) UpdateConfig(ctx context.Context, configs map[string]any) error {
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	payload := map[string]any{"configs": configs}
	if err := c.post(ctx, "updateConfig", payload, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return backendError("updateConfig", resp.Error)
	}
	return nil
}

// SetupTriggers создаёт расписание постинга на бэкенде.
func (c *Client) SetupTriggers(ctx context.Context) (string, error) {
	return c.triggerAction(ctx, "setupTriggers")
}

// DeleteTriggers удаляет расписание постинга на бэкенде.
func (c *Client) DeleteTriggers(ctx context.Context) (string, error) {
	return c.triggerAction(ctx, "deleteTriggers")
}

func (c *Client) triggerAction(ctx context.Context, action string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := c.post(ctx, action, nil, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = resp.Error
		}
		return "", backendError(action, msg)
	}
	return resp.Message, nil
}

// RunScheduledPost запускает серию плановых публикаций прямо сейчас.
func (c *Client) RunScheduledPost(ctx context.Context, count int) ([]domain.RunResult, error) {
	var resp struct {
		Success bool               `json:"success"`
		Results []domain.RunResult `json:"results"`
		Error   string             `json:"error"`
	}
	payload := map[string]any{"count": count}
	if err := c.post(ctx, "runScheduledPost", payload, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, backendError("runScheduledPost", resp.Error)
	}
	return resp.Results, nil
}

func (c *Client) get(ctx context.Context, action string, out any) error {
	start := time.Now()
	err := c.doGet(ctx, action, out)
	metrics.ObserveBackendRequest(action, start, err)
	return err
}

func (c *Client) doGet(ctx context.Context, action string, out any) error {
	resolved := *c.apiURL
	q := resolved.Query()
	q.Set("action", action)
	q.Set("apiKey", c.apiKey)
	resolved.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resolved.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос %s: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("запрос %s: статус %d: %s", action, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("декодирование ответа %s: %w", action, err)
	}
	if !env.Success {
		return backendError(action, env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("декодирование данных %s: %w", action, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, action string, payload map[string]any, out any) error {
	start := time.Now()
	err := c.doPost(ctx, action, payload, out)
	metrics.ObserveBackendRequest(action, start, err)
	return err
}

func (c *Client) doPost(ctx context.Context, action string, payload map[string]any, out any) error {
	body := map[string]any{"action": action, "apiKey": c.apiKey}
	for k, v := range payload {
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL.String(), bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос %s: %w", action, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("запрос %s: статус %d: %s", action, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("декодирование ответа %s: %w", action, err)
	}
	return nil
}

func backendError(action, message string) error {
	if message == "" {
		return fmt.Errorf("бэкенд отклонил %s", action)
	}
	return fmt.Errorf("бэкенд отклонил %s: %s", action, message)
}

var _ domain.Backend = (*Client)(nil)
