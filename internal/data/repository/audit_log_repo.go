package repository

import (
	"context"
	"fmt"

	"travel-booking/internal/data/entity"
	"travel-booking/pkg/database"

	"go.uber.org/zap"
)

type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
	FindByEntity(ctx context.Context, entityName, entityID string, limit int) ([]*entity.AuditLog, error)
}

type auditLogRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAuditLogRepository(db database.PgxIface, log *zap.Logger) AuditLogRepository {
	return &auditLogRepository{
		db:  db,
		log: log,
	}
}

func (ar *auditLogRepository) Create(ctx context.Context, auditLog *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, user_id, action, entity, entity_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := ar.db.Exec(ctx, query,
		auditLog.ID,
		auditLog.UserID,
		auditLog.Action,
		auditLog.Entity,
		auditLog.EntityID,
		auditLog.Metadata,
		auditLog.CreatedAt,
	)

	if err != nil {
		ar.log.Error("Failed to create audit log",
			zap.Error(err),
			zap.String("action", string(auditLog.Action)),
			zap.String("entity", auditLog.Entity),
		)
		return fmt.Errorf("create audit log for %s: %w", auditLog.Entity, err)
	}

	return nil
}

func (ar *auditLogRepository) FindByEntity(ctx context.Context, entityName, entityID string, limit int) ([]*entity.AuditLog, error) {
	query := `
		SELECT id, user_id, action, entity, entity_id, metadata, created_at
		FROM audit_logs
		WHERE entity = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := ar.db.Query(ctx, query, entityName, entityID, limit)
	if err != nil {
		ar.log.Error("Failed to list audit logs",
			zap.Error(err),
			zap.String("entity", entityName),
			zap.String("entity_id", entityID),
		)
		return nil, fmt.Errorf("find audit logs for %s %s: %w", entityName, entityID, err)
	}
	defer rows.Close()

	var logs []*entity.AuditLog
	for rows.Next() {
		var auditLog entity.AuditLog
		err := rows.Scan(
			&auditLog.ID,
			&auditLog.UserID,
			&auditLog.Action,
			&auditLog.Entity,
			&auditLog.EntityID,
			&auditLog.Metadata,
			&auditLog.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit log row: %w", err)
		}
		logs = append(logs, &auditLog)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log rows: %w", err)
	}

	return logs, nil
}
