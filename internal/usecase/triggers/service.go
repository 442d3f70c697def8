package triggers

import (
	"context"

	"affil-dashboard/internal/domain"
)

// Service управляет расписанием постинга на бэкенде.
// Локального состояния у триггеров нет: обе операции уходят на бэкенд как есть.
type Service struct {
	backend domain.Backend
	audit   domain.AuditLog
	alert   domain.Alerter
}

// NewService создаёт сервис триггеров.
func NewService(backend domain.Backend, audit domain.AuditLog, alert domain.Alerter) *Service {
	return &Service{backend: backend, audit: audit, alert: alert}
}

// Setup создаёт расписание постинга. Операция идемпотентна на стороне бэкенда.
func (s *Service) Setup(ctx context.Context) (string, error) {
	message, err := s.backend.SetupTriggers(ctx)
	s.record(ctx, "setupTriggers", err)
	if err != nil {
		s.notify(ctx, "настройка триггеров не удалась: "+err.Error())
		return "", err
	}
	return message, nil
}

// Delete удаляет расписание постинга.
func (s *Service) Delete(ctx context.Context) (string, error) {
	message, err := s.backend.DeleteTriggers(ctx)
	s.record(ctx, "deleteTriggers", err)
	if err != nil {
		s.notify(ctx, "удаление триггеров не удалось: "+err.Error())
		return "", err
	}
	return message, nil
}

func (s *Service) record(ctx context.Context, action string, err error) {
	if s.audit == nil {
		return
	}
	entry := domain.AuditEntry{Action: action, OK: err == nil}
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
