package repository

import (
	"context"
	"encoding/json"

	"receipt-scanner/pkg/security"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// AuditRepository writes security audit events to the audit_events table.
// It implements security.EventStore.
type AuditRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAuditRepository(db *pgxpool.Pool, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AuditRepository) SaveEvent(ctx context.Context, ev security.Event) error {
	details, err := json.Marshal(ev.Details)
	if err != nil {
		return err
	}

	query := squirrel.Insert("audit_events").
		Columns("id", "event_type", "client_ip", "user_agent", "method", "path", "details", "created_at").
		Values(ev.ID, ev.Type, ev.ClientIP, ev.UserAgent, ev.Method, ev.Path, details, ev.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
