package posting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"affil-dashboard/internal/domain"
	"affil-dashboard/internal/usecase/catalog"
)

var (
	// ErrUnknownSNS возвращается при неизвестной платформе публикации.
	ErrUnknownSNS = errors.New("неизвестная платформа публикации")
	// ErrUnknownCatalog возвращается при неизвестном каталоге.
	ErrUnknownCatalog = errors.New("неизвестный каталог")
)

// Service отвечает за ручные и плановые публикации.
type Service struct {
	backend domain.Backend
	catalog *catalog.Service
	audit   domain.AuditLog
	alert   domain.Alerter
}

// NewService создаёт сервис публикаций.
func NewService(backend domain.Backend, catalogUC *catalog.Service, audit domain.AuditLog, alert domain.Alerter) *Service {
	return &Service{backend: backend, catalog: catalogUC, audit: audit, alert: alert}
}

// ManualPost публикует позицию из кэша последнего поиска.
// Если кэш был замещён и позиция утеряна, публикация не запускается.
// Вариант "both" шлёт два независимых запроса: сначала X, затем Threads;
// итог каждого сохраняется отдельно.
func (s *Service) ManualPost(ctx context.Context, sessionID, catalogName string, index int, name, sns string) ([]domain.PlatformResult, error) {
	platforms, err := platformsFor(sns)
	if err != nil {
		return nil, err
	}

	var (
		product domain.Product
		keyword string
	)
	switch catalogName {
	case domain.CatalogProducts:
		product, keyword, err = s.catalog.ResolveProduct(ctx, sessionID, index, name)
	case domain.CatalogTravel:
		var item domain.TravelItem
		item, keyword, err = s.catalog.ResolveTravel(ctx, sessionID, index, name)
		product = item.AsProduct()
	default:
		return nil, ErrUnknownCatalog
	}
	if err != nil {
		s.record(ctx, "manualPost", name, err)
		return nil, err
	}

	results := make([]domain.PlatformResult, 0, len(platforms))
	for _, platform := range platforms {
		message, postErr := s.backend.ManualPost(ctx, keyword, product, platform)
		result := domain.PlatformResult{SNS: platform, OK: postErr == nil, Message: message}
		if postErr != nil {
			result.Message = postErr.Error()
		}
		results = append(results, result)
	}

	var failed []string
	for _, result := range results {
		if !result.OK {
			failed = append(failed, result.SNS)
		}
	}
	overallErr := error(nil)
	if len(failed) > 0 {
		overallErr = fmt.Errorf("ошибка публикации: %s", strings.Join(failed, ", "))
		s.notify(ctx, fmt.Sprintf("публикация %q не прошла (%s)", name, strings.Join(failed, ", ")))
	}
	s.record(ctx, "manualPost", fmt.Sprintf("%s → %s", name, sns), overallErr)
	return results, nil
}

// RunNow запускает серию плановых публикаций и возвращает сводку.
func (s *Service) RunNow(ctx context.Context, rawCount string) (domain.RunTally, error) {
	count := ParseCount(rawCount)
	results, err := s.backend.RunScheduledPost(ctx, count)
	if err != nil {
		s.record(ctx, "runScheduledPost", rawCount, err)
		s.notify(ctx, "плановый постинг не запустился: "+err.Error())
		return domain.RunTally{}, err
	}
	tally := Tally(count, results)
	s.record(ctx, "runScheduledPost", fmt.Sprintf("успешно %d, с ошибками %d", tally.Succeeded, tally.Failed), nil)
	return tally, nil
}

// ParseCount приводит ввод оператора к количеству прогонов.
// Всё, что не парсится в положительное целое, означает один прогон.
func ParseCount(raw string) int {
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || count < 1 {
		return 1
	}
	return count
}

// Tally сводит результаты серии прогонов в счётчики.
func Tally(requested int, results []domain.RunResult) domain.RunTally {
	tally := domain.RunTally{Requested: requested}
	for _, result := range results {
		if result.Success {
			tally.Succeeded++
		} else {
			tally.Failed++
		}
	}
	return tally
}

func platformsFor(sns string) ([]string, error) {
	switch sns {
	case domain.SNSX:
		return []string{domain.SNSX}, nil
	case domain.SNSThreads:
		return []string{domain.SNSThreads}, nil
	case domain.SNSBoth:
		return []string{domain.SNSX, domain.SNSThreads}, nil
	default:
		return nil, ErrUnknownSNS
	}
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

func (s *Service) notify(ctx context.Context, text string) {
	if s.alert == nil {
		return
	}
	_ = s.alert.Alert(ctx, text)
}
