package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"relief-disbursement-gateway/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

const categoryLimitColumns = `category, per_transaction_limit, daily_limit, weekly_limit, monthly_limit, is_active, emergency_override, override_expires_at, updated_at`

// CategoryLimitStore implements ports.CategoryLimitStore.
type CategoryLimitStore struct {
	pool Pool
}

// NewCategoryLimitStore creates a new CategoryLimitStore.
func NewCategoryLimitStore(pool Pool) *CategoryLimitStore {
	return &CategoryLimitStore{pool: pool}
}

// GetByCategory fetches the limit configuration for one category. A nil
// result means no limits are configured and spending is unrestricted.
func (s *CategoryLimitStore) GetByCategory(ctx context.Context, c domain.Category) (*domain.CategoryLimit, error) {
	query := `SELECT ` + categoryLimitColumns + ` FROM category_limits WHERE category = $1`
	return scanCategoryLimit(s.pool.QueryRow(ctx, query, c))
}

// List fetches all configured category limits.
func (s *CategoryLimitStore) List(ctx context.Context) ([]domain.CategoryLimit, error) {
	query := `SELECT ` + categoryLimitColumns + ` FROM category_limits ORDER BY category`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list category limits: %w", err)
	}
	defer rows.Close()

	var limits []domain.CategoryLimit
	for rows.Next() {
		l := domain.CategoryLimit{}
		err := rows.Scan(
			&l.Category, &l.PerTransactionLimit, &l.DailyLimit, &l.WeeklyLimit,
			&l.MonthlyLimit, &l.IsActive, &l.EmergencyOverride, &l.OverrideExpiresAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category limit row: %w", err)
		}
		limits = append(limits, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category limit rows: %w", err)
	}
	return limits, nil
}

// Upsert inserts or replaces the limit configuration for a category.
func (s *CategoryLimitStore) Upsert(ctx context.Context, l *domain.CategoryLimit) error {
	query := `INSERT INTO category_limits (category, per_transaction_limit, daily_limit, weekly_limit, monthly_limit, is_active, emergency_override, override_expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (category) DO UPDATE SET
			per_transaction_limit = EXCLUDED.per_transaction_limit,
			daily_limit = EXCLUDED.daily_limit,
			weekly_limit = EXCLUDED.weekly_limit,
			monthly_limit = EXCLUDED.monthly_limit,
			is_active = EXCLUDED.is_active,
			emergency_override = EXCLUDED.emergency_override,
			override_expires_at = EXCLUDED.override_expires_at,
			updated_at = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		l.Category, l.PerTransactionLimit, l.DailyLimit, l.WeeklyLimit,
		l.MonthlyLimit, l.IsActive, l.EmergencyOverride, l.OverrideExpiresAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert category limit: %w", err)
	}
	return nil
}

// SetOverride toggles the emergency override on an existing limit row.
func (s *CategoryLimitStore) SetOverride(ctx context.Context, c domain.Category, active bool, expiresAt *time.Time) error {
	query := `UPDATE category_limits SET emergency_override = $1, override_expires_at = $2, updated_at = $3 WHERE category = $4`

	tag, err := s.pool.Exec(ctx, query, active, expiresAt, time.Now().UTC(), c)
	if err != nil {
		return fmt.Errorf("set emergency override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("category limit not found: %s", c)
	}
	return nil
}

func scanCategoryLimit(row pgx.Row) (*domain.CategoryLimit, error) {
	l := &domain.CategoryLimit{}
	err := row.Scan(
		&l.Category, &l.PerTransactionLimit, &l.DailyLimit, &l.WeeklyLimit,
		&l.MonthlyLimit, &l.IsActive, &l.EmergencyOverride, &l.OverrideExpiresAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan category limit: %w", err)
	}
	return l, nil
}
