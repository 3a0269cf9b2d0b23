package handler

import (
	"time"

	"relief-disbursement-gateway/internal/adapter/http/dto"
	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/pkg/apperror"
	"relief-disbursement-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// LimitHandler handles category limit administration.
type LimitHandler struct {
	limits ports.CategoryLimitStore
}

// NewLimitHandler creates a new LimitHandler.
func NewLimitHandler(limits ports.CategoryLimitStore) *LimitHandler {
	return &LimitHandler{limits: limits}
}

// List handles GET /api/v1/limits.
func (h *LimitHandler) List(c *gin.Context) {
	configured, err := h.limits.List(c.Request.Context())
	if err != nil {
		response.Error(c, apperror.ErrStoreUnavailable(err))
		return
	}

	items := make([]dto.LimitResponse, 0, len(configured))
	for i := range configured {
		items = append(items, toLimitResponse(&configured[i]))
	}
	response.OK(c, items)
}

// Upsert handles PUT /api/v1/limits/:category.
func (h *LimitHandler) Upsert(c *gin.Context) {
	category := domain.Category(c.Param("category"))
	if !domain.ValidCategory(category) {
		response.Error(c, apperror.ErrUnknownCategory(c.Param("category")))
		return
	}

	var req dto.UpsertLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	limit := &domain.CategoryLimit{
		Category:  category,
		IsActive:  *req.IsActive,
		UpdatedAt: time.Now().UTC(),
	}

	var err error
	if limit.PerTransactionLimit, err = dto.MinorUnits(req.PerTransactionLimit); err != nil {
		response.Error(c, apperror.Validation("per_transaction_limit: "+err.Error()))
		return
	}
	if limit.DailyLimit, err = dto.MinorUnits(req.DailyLimit); err != nil {
		response.Error(c, apperror.Validation("daily_limit: "+err.Error()))
		return
	}
	if limit.WeeklyLimit, err = dto.MinorUnits(req.WeeklyLimit); err != nil {
		response.Error(c, apperror.Validation("weekly_limit: "+err.Error()))
		return
	}
	if limit.MonthlyLimit, err = dto.MinorUnits(req.MonthlyLimit); err != nil {
		response.Error(c, apperror.Validation("monthly_limit: "+err.Error()))
		return
	}

	if err := h.limits.Upsert(c.Request.Context(), limit); err != nil {
		response.Error(c, apperror.ErrStoreUnavailable(err))
		return
	}

	response.OK(c, toLimitResponse(limit))
}

// SetOverride handles POST /api/v1/limits/:category/override.
func (h *LimitHandler) SetOverride(c *gin.Context) {
	category := domain.Category(c.Param("category"))
	if !domain.ValidCategory(category) {
		response.Error(c, apperror.ErrUnknownCategory(c.Param("category")))
		return
	}

	var req dto.SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			response.Error(c, apperror.Validation("expires_at must be RFC3339"))
			return
		}
		expiresAt = &t
	}

	if err := h.limits.SetOverride(c.Request.Context(), category, *req.Active, expiresAt); err != nil {
		response.Error(c, err)
		return
	}

	updated, err := h.limits.GetByCategory(c.Request.Context(), category)
	if err != nil || updated == nil {
		response.Error(c, apperror.ErrStoreUnavailable(err))
		return
	}

	response.OK(c, toLimitResponse(updated))
}

// toLimitResponse converts a category limit to its DTO.
func toLimitResponse(l *domain.CategoryLimit) dto.LimitResponse {
	resp := dto.LimitResponse{
		Category:            string(l.Category),
		PerTransactionLimit: l.PerTransactionLimit,
		DailyLimit:          l.DailyLimit,
		WeeklyLimit:         l.WeeklyLimit,
		MonthlyLimit:        l.MonthlyLimit,
		IsActive:            l.IsActive,
		EmergencyOverride:   l.EmergencyOverride,
		UpdatedAt:           l.UpdatedAt.Format(time.RFC3339),
	}
	if l.OverrideExpiresAt != nil {
		s := l.OverrideExpiresAt.Format(time.RFC3339)
		resp.OverrideExpiresAt = &s
	}
	return resp
}
