package service

import (
	"context"
	"fmt"

	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// BalanceServiceImpl implements ports.BalanceService. Balances are
// derived from the transaction log on every call; nothing is cached,
// since any donation confirmed between calls changes the result.
type BalanceServiceImpl struct {
	txStore ports.TransactionStore
	log     zerolog.Logger
}

// NewBalanceService creates a new BalanceServiceImpl.
func NewBalanceService(txStore ports.TransactionStore, log zerolog.Logger) *BalanceServiceImpl {
	return &BalanceServiceImpl{txStore: txStore, log: log}
}

// ComputeCategoryBalances derives the per-category available balance for
// a beneficiary. Categories with earmarked donations get
// max(0, received-spent); categories without any earmarked donation
// share the unallocated wallet remainder equally.
func (s *BalanceServiceImpl) ComputeCategoryBalances(ctx context.Context, beneficiary string, totalWalletBalance int64) (*ports.BalanceReport, error) {
	received, err := s.txStore.SumReceivedByCategory(ctx, beneficiary)
	if err != nil {
		return nil, fmt.Errorf("aggregate donations: %w", err)
	}
	spent, err := s.txStore.SumSpentByCategory(ctx, beneficiary)
	if err != nil {
		return nil, fmt.Errorf("aggregate spending: %w", err)
	}

	categories := domain.StandardCategories()

	var totalEarmarked int64
	var withoutDonations []domain.Category
	for _, c := range categories {
		totalEarmarked += received[c]
		if received[c] == 0 {
			withoutDonations = append(withoutDonations, c)
		}
	}

	// Equal-split fallback for categories with no earmarked donations.
	// Skipped entirely when every category has donations.
	var fallbackShare int64
	if len(withoutDonations) > 0 {
		if unallocated := totalWalletBalance - totalEarmarked; unallocated > 0 {
			fallbackShare = unallocated / int64(len(withoutDonations))
		}
	}

	balances := make([]domain.CategoryBalance, 0, len(categories))
	var totalAvailable int64
	for _, c := range categories {
		b := domain.CategoryBalance{
			Category:      c,
			TotalReceived: received[c],
			TotalSpent:    spent[c],
		}
		if b.TotalReceived == 0 {
			b.AvailableBalance = fallbackShare
			b.FallbackAllocated = true
		} else if raw := b.TotalReceived - b.TotalSpent; raw > 0 {
			b.AvailableBalance = raw
		}
		totalAvailable += b.AvailableBalance
		balances = append(balances, b)
	}

	discrepancy := totalWalletBalance - totalAvailable
	if discrepancy < 0 {
		discrepancy = -discrepancy
	}
	if discrepancy > 0 {
		s.log.Debug().
			Str("beneficiary", beneficiary).
			Int64("wallet_balance", totalWalletBalance).
			Int64("sum_available", totalAvailable).
			Int64("discrepancy", discrepancy).
			Msg("balance oracle and transaction log diverge")
	}

	return &ports.BalanceReport{
		Beneficiary: beneficiary,
		Balances:    balances,
		Discrepancy: discrepancy,
	}, nil
}

// CategoryAvailable returns the available balance for a single category
// from a computed report.
func CategoryAvailable(report *ports.BalanceReport, c domain.Category) int64 {
	for _, b := range report.Balances {
		if b.Category == c {
			return b.AvailableBalance
		}
	}
	return 0
}
