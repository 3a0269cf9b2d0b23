package handler

import (
	"strconv"
	"time"

	"relief-disbursement-gateway/internal/adapter/http/dto"
	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/pkg/apperror"
	"relief-disbursement-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HistoryHandler serves the transaction audit feed.
type HistoryHandler struct {
	historySvc ports.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historySvc ports.HistoryService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

// Feed handles GET /api/v1/transactions?party=...&limit=...
func (h *HistoryHandler) Feed(c *gin.Context) {
	party := c.Query("party")
	if party == "" {
		response.Error(c, apperror.Validation("party is required"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	records, err := h.historySvc.Feed(c.Request.Context(), party, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionRecordResponse, 0, len(records))
	for i := range records {
		items = append(items, toTransactionRecordResponse(&records[i]))
	}

	response.OK(c, dto.FeedResponse{Party: party, Items: items})
}

// Get handles GET /api/v1/transactions/:id.
func (h *HistoryHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	record, err := h.historySvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionRecordResponse(record))
}

// toTransactionRecordResponse converts a feed record to its DTO.
func toTransactionRecordResponse(r *ports.TransactionRecord) dto.TransactionRecordResponse {
	tx := r.Transaction
	resp := dto.TransactionRecordResponse{
		Transaction: dto.TransactionResponse{
			ID:          tx.ID.String(),
			Type:        string(tx.Type),
			From:        tx.From,
			To:          tx.To,
			Amount:      tx.Amount,
			Status:      string(tx.Status),
			Description: tx.Description,
			ReceiptHash: tx.ReceiptHash,
			CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
		},
	}
	if tx.Category != nil {
		s := string(*tx.Category)
		resp.Transaction.Category = &s
	}
	if tx.ConfirmedAt != nil {
		s := tx.ConfirmedAt.Format(time.RFC3339)
		resp.Transaction.ConfirmedAt = &s
	}
	if r.Annotation != nil {
		resp.Annotation = &dto.AnnotationResponse{
			RiskLevel:      string(r.Annotation.RiskLevel),
			Action:         string(r.Annotation.Action),
			RequiresReview: r.Annotation.RequiresReview,
			Flags:          toFlagEntries(r.Annotation.Flags),
			Warnings:       toFlagEntries(r.Annotation.Warnings),
			CreatedAt:      r.Annotation.CreatedAt.Format(time.RFC3339),
		}
	}
	return resp
}
