package apperror

import (
	"fmt"
	"net/http"

	"relief-disbursement-gateway/internal/core/domain"
)

// AppError is a structured error that maps to HTTP responses. Details
// carries the machine-readable rejection payload (limit type, values,
// remaining amounts) a client needs to render the reason.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Details    any    `json:"details,omitempty"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithDetails attaches a structured detail payload.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// ---- Validation ----

// Validation returns a user-correctable input error. No store access
// has happened when this is returned.
func Validation(message string) *AppError {
	return New("VALIDATION_FAILED", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VALIDATION_FAILED", "Amount must be a positive decimal value", http.StatusBadRequest)
}

func ErrUnknownCategory(c string) *AppError {
	return New("VALIDATION_FAILED", fmt.Sprintf("Unknown aid category: %s", c), http.StatusBadRequest)
}

// ---- Balance & Limits (business rule violations) ----

// LimitDetail is the structured payload for every limit rejection.
type LimitDetail struct {
	Category     domain.Category `json:"category"`
	LimitType    string          `json:"limit_type"`
	LimitValue   int64           `json:"limit_value"`
	AlreadySpent int64           `json:"already_spent"`
	Requested    int64           `json:"requested"`
	Remaining    int64           `json:"remaining"`
}

// BalanceDetail is the structured payload for an insufficient-balance
// rejection.
type BalanceDetail struct {
	Category  domain.Category `json:"category"`
	Available int64           `json:"available"`
	Requested int64           `json:"requested"`
}

func ErrInsufficientCategoryBalance(d BalanceDetail) *AppError {
	return New("INSUFFICIENT_CATEGORY_BALANCE",
		fmt.Sprintf("Insufficient %s balance", d.Category),
		http.StatusPaymentRequired).WithDetails(d)
}

func ErrPerTransactionLimitExceeded(d LimitDetail) *AppError {
	return New("PER_TRANSACTION_LIMIT_EXCEEDED",
		fmt.Sprintf("Amount exceeds the per-transaction limit for %s", d.Category),
		http.StatusUnprocessableEntity).WithDetails(d)
}

func ErrDailyLimitExceeded(d LimitDetail) *AppError {
	return New("DAILY_LIMIT_EXCEEDED",
		fmt.Sprintf("Daily spending limit reached for %s", d.Category),
		http.StatusUnprocessableEntity).WithDetails(d)
}

func ErrWeeklyLimitExceeded(d LimitDetail) *AppError {
	return New("WEEKLY_LIMIT_EXCEEDED",
		fmt.Sprintf("Weekly spending limit reached for %s", d.Category),
		http.StatusUnprocessableEntity).WithDetails(d)
}

func ErrMonthlyLimitExceeded(d LimitDetail) *AppError {
	return New("MONTHLY_LIMIT_EXCEEDED",
		fmt.Sprintf("Monthly spending limit reached for %s", d.Category),
		http.StatusUnprocessableEntity).WithDetails(d)
}

// ---- Fraud ----

// FraudDetail is the payload attached to a fraud block so the client
// can route to a manual-review flow rather than imply a retry.
type FraudDetail struct {
	RiskLevel domain.RiskLevel   `json:"risk_level"`
	Flags     []domain.FraudFlag `json:"flags"`
}

func ErrFraudBlocked(d FraudDetail) *AppError {
	return New("FRAUD_BLOCKED",
		"Transaction blocked pending manual review",
		http.StatusForbidden).WithDetails(d)
}

// ---- Entities ----

func ErrNotFound(entity string) *AppError {
	return New("NOT_FOUND", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrVendorSuspended() *AppError {
	return New("VENDOR_SUSPENDED", "Vendor is suspended", http.StatusForbidden)
}

func ErrVendorNotApproved() *AppError {
	return New("VENDOR_NOT_APPROVED", "Vendor is not approved for payments", http.StatusForbidden)
}

func ErrInvalidTransition(from, to domain.VendorStatus) *AppError {
	return New("INVALID_STATUS_TRANSITION",
		fmt.Sprintf("Vendor cannot move from %s to %s", from, to),
		http.StatusConflict)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_INVALID_CREDENTIALS", "Invalid credentials", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_INVALID_TOKEN", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_LIMIT_EXCEEDED", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (fail closed) ----

// ErrOracleUnavailable signals the wallet balance oracle failed. The
// spend must not be approved; callers surface this for manual review.
func ErrOracleUnavailable(err error) *AppError {
	return Wrap("SYS_ORACLE_UNAVAILABLE", "Wallet balance oracle unavailable, spend requires manual review", http.StatusServiceUnavailable, err)
}

func ErrStoreUnavailable(err error) *AppError {
	return Wrap("SYS_STORE_UNAVAILABLE", "Transaction store unavailable, spend requires manual review", http.StatusServiceUnavailable, err)
}

// InternalError wraps an unexpected internal failure.
func InternalError(err error) *AppError {
	return Wrap("SYS_INTERNAL", "Internal server error", http.StatusInternalServerError, err)
}
