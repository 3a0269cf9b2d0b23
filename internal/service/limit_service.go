package service

import (
	"context"
	"time"

	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

// LimitServiceImpl implements ports.LimitService.
type LimitServiceImpl struct {
	limitStore ports.CategoryLimitStore
	txStore    ports.TransactionStore
	loc        *time.Location
	log        zerolog.Logger
}

// NewLimitService creates a new LimitServiceImpl. loc anchors the daily
// and monthly windows; pass time.UTC when no beneficiary timezone is
// configured.
func NewLimitService(limitStore ports.CategoryLimitStore, txStore ports.TransactionStore, loc *time.Location, log zerolog.Logger) *LimitServiceImpl {
	if loc == nil {
		loc = time.UTC
	}
	return &LimitServiceImpl{
		limitStore: limitStore,
		txStore:    txStore,
		loc:        loc,
		log:        log,
	}
}

// CheckSpendingLimits validates a proposed spend against the category's
// configured ceilings. A nil return means every check passed. Limits
// are skipped when no configuration exists, the configuration is
// inactive, or an emergency override is active; the balance check
// upstream still applies in all three cases.
func (s *LimitServiceImpl) CheckSpendingLimits(ctx context.Context, beneficiary string, category domain.Category, amount int64, now time.Time) error {
	limit, err := s.limitStore.GetByCategory(ctx, category)
	if err != nil {
		return apperror.ErrStoreUnavailable(err)
	}
	if limit == nil || !limit.IsActive {
		return nil
	}
	if limit.OverrideActive(now) {
		s.log.Info().
			Str("beneficiary", beneficiary).
			Str("category", string(category)).
			Msg("emergency override active, limits skipped")
		return nil
	}

	if amount > limit.PerTransactionLimit {
		return apperror.ErrPerTransactionLimitExceeded(apperror.LimitDetail{
			Category:   category,
			LimitType:  "per_transaction",
			LimitValue: limit.PerTransactionLimit,
			Requested:  amount,
			Remaining:  limit.PerTransactionLimit,
		})
	}

	windows := []struct {
		limitType string
		since     time.Time
		ceiling   int64
		reject    func(apperror.LimitDetail) *apperror.AppError
	}{
		{"daily", startOfDay(now, s.loc), limit.DailyLimit, apperror.ErrDailyLimitExceeded},
		{"weekly", now.Add(-7 * 24 * time.Hour), limit.WeeklyLimit, apperror.ErrWeeklyLimitExceeded},
		{"monthly", startOfMonth(now, s.loc), limit.MonthlyLimit, apperror.ErrMonthlyLimitExceeded},
	}

	for _, w := range windows {
		spent, err := s.txStore.SumOutgoing(ctx, ports.SpendWindow{
			Party:    beneficiary,
			Category: &category,
			Types:    []domain.TransactionType{domain.TransactionTypeSpending, domain.TransactionTypeVendorPayment},
			Statuses: []domain.TransactionStatus{domain.TransactionStatusConfirmed},
			Since:    w.since,
		})
		if err != nil {
			return apperror.ErrStoreUnavailable(err)
		}
		if spent+amount > w.ceiling {
			remaining := w.ceiling - spent
			if remaining < 0 {
				remaining = 0
			}
			return w.reject(apperror.LimitDetail{
				Category:     category,
				LimitType:    w.limitType,
				LimitValue:   w.ceiling,
				AlreadySpent: spent,
				Requested:    amount,
				Remaining:    remaining,
			})
		}
	}

	return nil
}

// startOfDay returns local midnight for the instant.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// startOfMonth returns the first of the month, local midnight.
func startOfMonth(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), 1, 0, 0, 0, 0, loc)
}
