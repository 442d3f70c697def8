package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"affil-dashboard/internal/domain"
)

// PostgresAudit хранит журнал действий оператора в Postgres.
type PostgresAudit struct {
	pool *pgxpool.Pool
}

// NewPostgresAudit создаёт журнал.
func NewPostgresAudit(pool *pgxpool.Pool) *PostgresAudit {
	return &PostgresAudit{pool: pool}
}

// Migrate создаёт таблицу журнала, если её ещё нет.
func (r *PostgresAudit) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS audit_log (
			id BIGSERIAL PRIMARY KEY,
			action TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			ok BOOLEAN NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("миграция журнала: %w", err)
	}
	return nil
}

// Record добавляет запись в журнал.
func (r *PostgresAudit) Record(ctx context.Context, entry domain.AuditEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_log (action, detail, ok, message, created_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.Action, entry.Detail, entry.OK, entry.Message, createdAt)
	if err != nil {
		return fmt.Errorf("запись в журнал: %w", err)
	}
	return nil
}

// Recent возвращает последние записи журнала, свежие первыми.
func (r *PostgresAudit) Recent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, action, detail, ok, message, created_at FROM audit_log ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("чтение журнала: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Detail, &entry.OK, &entry.Message, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("чтение журнала: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("чтение журнала: %w", err)
	}
	return entries, nil
}

var _ domain.AuditLog = (*PostgresAudit)(nil)
