package handler

import (
	"relief-disbursement-gateway/internal/adapter/http/dto"
	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/pkg/apperror"
	"relief-disbursement-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DisbursementHandler handles spend authorization endpoints.
type DisbursementHandler struct {
	disbSvc ports.DisbursementService
}

// NewDisbursementHandler creates a new DisbursementHandler.
func NewDisbursementHandler(disbSvc ports.DisbursementService) *DisbursementHandler {
	return &DisbursementHandler{disbSvc: disbSvc}
}

// AuthorizeSpend handles POST /api/v1/spend.
func (h *DisbursementHandler) AuthorizeSpend(c *gin.Context) {
	var req dto.SpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	spend, err := toSpendRequest(req.Beneficiary, req.VendorID, req.Amount, req.Category)
	if err != nil {
		response.Error(c, err)
		return
	}
	spend.Description = req.Description
	spend.ReceiptHash = req.ReceiptHash

	result, err := h.disbSvc.AuthorizeSpend(c.Request.Context(), spend)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.SpendResponse{
		TransactionID:  result.TransactionID.String(),
		Status:         string(result.Status),
		RiskLevel:      string(result.RiskLevel),
		RequiresReview: result.RequiresReview,
		CategoryBalance: dto.BalanceSnapshot{
			AvailableBeforeSpending: result.CategoryBalance.AvailableBeforeSpending,
			AvailableAfterSpending:  result.CategoryBalance.AvailableAfterSpending,
			SpentAmount:             result.CategoryBalance.SpentAmount,
		},
	})
}

// ValidatePurchase handles POST /api/v1/purchases/validate.
func (h *DisbursementHandler) ValidatePurchase(c *gin.Context) {
	var req dto.ValidatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	probe, err := toSpendRequest(req.Beneficiary, req.VendorID, req.Amount, req.Category)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.disbSvc.ValidatePurchase(c.Request.Context(), probe)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ValidatePurchaseResponse{
		Allowed:        result.Allowed,
		RiskLevel:      string(result.RiskLevel),
		Action:         string(result.Action),
		RequiresReview: result.RequiresReview,
		Flags:          toFlagEntries(result.Flags),
		Warnings:       toFlagEntries(result.Warnings),
	})
}

// toSpendRequest converts validated DTO fields to the service request.
func toSpendRequest(beneficiary, vendorID, amount, category string) (ports.SpendRequest, error) {
	vid, err := uuid.Parse(vendorID)
	if err != nil {
		return ports.SpendRequest{}, apperror.Validation("invalid vendor_id")
	}
	minor, err := dto.MinorUnits(amount)
	if err != nil {
		return ports.SpendRequest{}, apperror.Validation(err.Error())
	}
	return ports.SpendRequest{
		Beneficiary: beneficiary,
		VendorID:    vid,
		Amount:      minor,
		Category:    domain.Category(category),
	}, nil
}

// toFlagEntries converts detector findings to response entries.
func toFlagEntries(flags []domain.FraudFlag) []dto.FlagEntry {
	entries := make([]dto.FlagEntry, 0, len(flags))
	for _, f := range flags {
		entries = append(entries, dto.FlagEntry{
			Pattern:     f.Pattern,
			Severity:    string(f.Severity),
			Description: f.Description,
			Details:     f.Details,
		})
	}
	return entries
}
