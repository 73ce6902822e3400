package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

var (
	ErrCodeNotFound      = errors.New("activation code not found")
	ErrCodeAlreadyExists = errors.New("activation code already exists")
)

type ActivationCodeRepository struct {
	db DBTX
}

func NewActivationCodeRepository(db DBTX) *ActivationCodeRepository {
	return &ActivationCodeRepository{db: db}
}

func (r *ActivationCodeRepository) FindByCode(ctx context.Context, code string) (*entity.ActivationCode, error) {
	query := `
		SELECT code, plan_key, max_uses, uses, expires_at,
		       customer_email, customer_name, source_order_ref, active, created_at
		FROM activation_codes
		WHERE code = ?
	`

	item := &entity.ActivationCode{}
	var planKey sql.NullString
	var expiresAt sql.NullTime
	var customerEmail sql.NullString
	var customerName sql.NullString
	var sourceOrderRef sql.NullString

	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&item.Code,
		&planKey,
		&item.MaxUses,
		&item.Uses,
		&expiresAt,
		&customerEmail,
		&customerName,
		&sourceOrderRef,
		&item.Active,
		&item.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	if planKey.Valid {
		key := entity.PlanKey(planKey.String)
		item.PlanKey = &key
	}
	if expiresAt.Valid {
		item.ExpiresAt = &expiresAt.Time
	}
	if customerEmail.Valid {
		item.CustomerEmail = &customerEmail.String
	}
	if customerName.Valid {
		item.CustomerName = &customerName.String
	}
	if sourceOrderRef.Valid {
		item.SourceOrderRef = &sourceOrderRef.String
	}

	return item, nil
}

func (r *ActivationCodeRepository) Insert(ctx context.Context, code *entity.ActivationCode) error {
	query := `
		INSERT INTO activation_codes (
			code, plan_key, max_uses, uses, expires_at,
			customer_email, customer_name, source_order_ref, active, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		code.Code,
		nullablePlanValue(code.PlanKey),
		code.MaxUses,
		code.Uses,
		nullableTimeValue(code.ExpiresAt),
		nullableStringValue(code.CustomerEmail),
		nullableStringValue(code.CustomerName),
		nullableStringValue(code.SourceOrderRef),
		code.Active,
		code.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrCodeAlreadyExists
		}
		return err
	}
	return nil
}

// IncrementUse bumps the usage counter only while the cap is not reached.
// The returned affected-row count is the whole concurrency story: under two
// simultaneous consumptions of a maxUses=1 code, exactly one caller sees 1.
func (r *ActivationCodeRepository) IncrementUse(ctx context.Context, code string) (int64, error) {
	query := `
		UPDATE activation_codes
		SET uses = uses + 1
		WHERE code = ?
		  AND uses < max_uses
	`

	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *ActivationCodeRepository) Deactivate(ctx context.Context, code string) error {
	query := `
		UPDATE activation_codes
		SET active = 0
		WHERE code = ?
		  AND active = 1
	`

	result, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCodeNotFound
	}
	return nil
}

func nullableStringValue(v *string) interface{} {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return strings.TrimSpace(*v)
}

func nullablePlanValue(v *entity.PlanKey) interface{} {
	if v == nil {
		return nil
	}
	return string(*v)
}
