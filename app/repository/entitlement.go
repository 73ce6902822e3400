package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

type EntitlementRepository struct {
	db DBTX
}

func NewEntitlementRepository(db DBTX) *EntitlementRepository {
	return &EntitlementRepository{db: db}
}

func (r *EntitlementRepository) Get(ctx context.Context, accountID string) (*entity.EntitlementRecord, error) {
	query := `
		SELECT account_id, plan_key, status, starts_at, ends_at, created_at, updated_at
		FROM entitlements
		WHERE account_id = ?
	`

	item := &entity.EntitlementRecord{}
	var planKey string
	var startsAt sql.NullTime
	var endsAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&item.AccountID,
		&planKey,
		&item.Status,
		&startsAt,
		&endsAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	item.PlanKey = entity.PlanKey(planKey)
	if startsAt.Valid {
		item.StartsAt = &startsAt.Time
	}
	if endsAt.Valid {
		item.EndsAt = &endsAt.Time
	}

	return item, nil
}

// Upsert writes the record keyed on account_id, last write wins. A single
// statement so concurrent re-activations of the same account stay correct
// without application-level locks.
func (r *EntitlementRepository) Upsert(ctx context.Context, record *entity.EntitlementRecord) error {
	query := `
		INSERT INTO entitlements (account_id, plan_key, status, starts_at, ends_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			plan_key = VALUES(plan_key),
			status = VALUES(status),
			starts_at = VALUES(starts_at),
			ends_at = VALUES(ends_at),
			updated_at = VALUES(updated_at)
	`

	_, err := r.db.ExecContext(ctx, query,
		strings.TrimSpace(record.AccountID),
		string(record.PlanKey),
		record.Status,
		nullableTimeValue(record.StartsAt),
		nullableTimeValue(record.EndsAt),
		record.CreatedAt,
		record.UpdatedAt,
	)
	return err
}

// ExpireStale flips active rows whose window has closed to inactive and
// returns how many rows changed.
func (r *EntitlementRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE entitlements
		SET status = ?, updated_at = ?
		WHERE status = ?
		  AND ends_at IS NOT NULL
		  AND ends_at <= ?
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.EntitlementStatusInactive,
		now,
		entity.EntitlementStatusActive,
		now,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func nullableTimeValue(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
