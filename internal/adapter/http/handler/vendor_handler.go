package handler

import (
	"time"

	"relief-disbursement-gateway/internal/adapter/http/dto"
	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/pkg/apperror"
	"relief-disbursement-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VendorHandler handles vendor registration, flagging and review.
type VendorHandler struct {
	vendorSvc  ports.VendorService
	vendorRepo ports.VendorRepository
}

// NewVendorHandler creates a new VendorHandler.
func NewVendorHandler(vendorSvc ports.VendorService, vendorRepo ports.VendorRepository) *VendorHandler {
	return &VendorHandler{vendorSvc: vendorSvc, vendorRepo: vendorRepo}
}

// Create handles POST /api/v1/vendors. New vendors start in pending
// state and must pass review before they can transact.
func (h *VendorHandler) Create(c *gin.Context) {
	var req dto.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	now := time.Now().UTC()
	vendor := &domain.Vendor{
		ID:            uuid.New(),
		Name:          req.Name,
		WalletAddress: req.WalletAddress,
		Status:        domain.VendorStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.vendorRepo.Create(c.Request.Context(), vendor); err != nil {
		response.Error(c, apperror.ErrStoreUnavailable(err))
		return
	}

	response.Created(c, toVendorResponse(vendor))
}

// Get handles GET /api/v1/vendors/:id.
func (h *VendorHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid vendor id"))
		return
	}

	vendor, err := h.vendorRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, apperror.ErrStoreUnavailable(err))
		return
	}
	if vendor == nil {
		response.Error(c, apperror.ErrNotFound("vendor"))
		return
	}

	response.OK(c, toVendorResponse(vendor))
}

// Flag handles POST /api/v1/vendors/:id/flags.
func (h *VendorHandler) Flag(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid vendor id"))
		return
	}

	var req dto.FlagVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	vendor, outcome, err := h.vendorSvc.FlagVendor(
		c.Request.Context(), id, req.Reason, domain.Severity(req.Severity), req.ReportedBy)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FlagVendorResponse{
		Vendor:  toVendorResponse(vendor),
		Outcome: string(outcome),
	})
}

// Review handles PUT /api/v1/vendors/:id/status.
func (h *VendorHandler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid vendor id"))
		return
	}

	var req dto.ReviewVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	vendor, err := h.vendorSvc.ReviewVendor(c.Request.Context(), id, domain.VendorStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toVendorResponse(vendor))
}

// toVendorResponse converts a vendor to its DTO.
func toVendorResponse(v *domain.Vendor) dto.VendorResponse {
	resp := dto.VendorResponse{
		ID:                      v.ID.String(),
		Name:                    v.Name,
		WalletAddress:           v.WalletAddress,
		Status:                  string(v.Status),
		SuspiciousActivityCount: v.SuspiciousActivityCount,
		CreatedAt:               v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:               v.UpdatedAt.Format(time.RFC3339),
	}
	if v.LastSuspiciousActivity != nil {
		s := v.LastSuspiciousActivity.Format(time.RFC3339)
		resp.LastSuspiciousActivity = &s
	}
	return resp
}
