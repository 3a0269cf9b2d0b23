package handler

import (
	"relief-disbursement-gateway/internal/adapter/http/dto"
	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/pkg/apperror"
	"relief-disbursement-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// BalanceHandler serves derived category balances.
type BalanceHandler struct {
	oracle     ports.BalanceOracle
	balanceSvc ports.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(oracle ports.BalanceOracle, balanceSvc ports.BalanceService) *BalanceHandler {
	return &BalanceHandler{oracle: oracle, balanceSvc: balanceSvc}
}

// GetCategoryBalances handles GET /api/v1/beneficiaries/:beneficiary/balances.
// Balances are recomputed from the transaction log on every call.
func (h *BalanceHandler) GetCategoryBalances(c *gin.Context) {
	beneficiary := c.Param("beneficiary")

	total, err := h.oracle.WalletBalance(c.Request.Context(), beneficiary)
	if err != nil {
		response.Error(c, apperror.ErrOracleUnavailable(err))
		return
	}

	report, err := h.balanceSvc.ComputeCategoryBalances(c.Request.Context(), beneficiary, total)
	if err != nil {
		response.Error(c, err)
		return
	}

	entries := make([]dto.CategoryBalanceEntry, 0, len(report.Balances))
	for _, b := range report.Balances {
		entries = append(entries, dto.CategoryBalanceEntry{
			Category:          string(b.Category),
			TotalReceived:     b.TotalReceived,
			TotalSpent:        b.TotalSpent,
			AvailableBalance:  b.AvailableBalance,
			FallbackAllocated: b.FallbackAllocated,
		})
	}

	response.OK(c, dto.BalancesResponse{
		Beneficiary:   report.Beneficiary,
		WalletBalance: total,
		Balances:      entries,
		Discrepancy:   report.Discrepancy,
	})
}
