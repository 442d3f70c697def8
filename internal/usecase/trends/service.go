package trends

import (
	"context"

	"affil-dashboard/internal/domain"
)

// Service работает со списком трендов.
type Service struct {
	backend domain.Backend
	audit   domain.AuditLog
}

// NewService создаёт сервис трендов.
func NewService(backend domain.Backend, audit domain.AuditLog) *Service {
	return &Service{backend: backend, audit: audit}
}

// List возвращает собранные тренды.
func (s *Service) List(ctx context.Context) ([]domain.Trend, error) {
	return s.backend.GetTrends(ctx)
}

// Refresh запускает на бэкенде сбор свежих трендов и возвращает их число.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	fetched, err := s.backend.FetchTrends(ctx)
	if err != nil {
		s.record(ctx, err)
		return 0, err
	}
	s.record(ctx, nil)
	return len(fetched), nil
}

func (s *Service) record(ctx context.Context, err error) {
	if s.audit == nil {
		return
	}
	entry := domain.AuditEntry{Action: "fetchTrends", OK: err == nil}
	if err != nil {
		entry.Message = err.Error()
	}
	_ = s.audit.Record(ctx, entry)
}
