package ports

import (
	"context"
	"time"

	"relief-disbursement-gateway/internal/core/domain"

	"github.com/google/uuid"
)

// BalanceOracle reports a beneficiary's total wallet balance in minor
// units. The underlying ledger is external; a failure or timeout here
// must make the caller fail closed.
type BalanceOracle interface {
	WalletBalance(ctx context.Context, beneficiary string) (int64, error)
}

// DecisionEvent is emitted on block/review outcomes for the
// notification layer. Delivery is best-effort.
type DecisionEvent struct {
	TransactionID *uuid.UUID               `json:"transaction_id,omitempty"`
	Beneficiary   string                   `json:"beneficiary"`
	Vendor        string                   `json:"vendor"`
	Category      domain.Category          `json:"category"`
	Amount        int64                    `json:"amount"`
	RiskLevel     domain.RiskLevel         `json:"risk_level"`
	Action        domain.RecommendedAction `json:"action"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

// Notifier publishes decision events. Errors are logged, never
// propagated into the authorization outcome.
type Notifier interface {
	Publish(ctx context.Context, event DecisionEvent) error
}

// TokenService handles JWT token operations for the admin surface.
type TokenService interface {
	Generate(adminID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	AdminID  uuid.UUID
	Username string
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// --- Service Ports (Business Logic) ---

// BalanceReport is the allocator output for one beneficiary.
type BalanceReport struct {
	Beneficiary string
	Balances    []domain.CategoryBalance
	// Discrepancy is |oracle total - sum(available)| for drift monitoring.
	Discrepancy int64
}

// BalanceService derives per-category available balances on demand.
type BalanceService interface {
	ComputeCategoryBalances(ctx context.Context, beneficiary string, totalWalletBalance int64) (*BalanceReport, error)
}

// LimitService validates a proposed spend against category ceilings.
// A nil return means the spend is within every configured limit.
type LimitService interface {
	CheckSpendingLimits(ctx context.Context, beneficiary string, category domain.Category, amount int64, now time.Time) error
}

// FraudCandidate is the proposed transaction under analysis.
type FraudCandidate struct {
	From     string
	To       string
	Amount   int64
	Category domain.Category
	Type     domain.TransactionType
	Now      time.Time
}

// FraudAnalyzer runs the independent pattern detectors.
type FraudAnalyzer interface {
	Analyze(ctx context.Context, c FraudCandidate) *domain.FraudAnalysis
}

// VendorService tracks vendor suspicion state.
type VendorService interface {
	FlagVendor(ctx context.Context, vendorID uuid.UUID, reason string, severity domain.Severity, reportedBy string) (*domain.Vendor, domain.FlagOutcome, error)
	ReviewVendor(ctx context.Context, vendorID uuid.UUID, next domain.VendorStatus) (*domain.Vendor, error)
}

// SpendRequest is a validated beneficiary-initiated spend.
type SpendRequest struct {
	Beneficiary string
	VendorID    uuid.UUID
	Amount      int64 // minor units
	Category    domain.Category
	Description string
	ReceiptHash *string
}

// SpendResult is the successful authorization outcome.
type SpendResult struct {
	TransactionID   uuid.UUID
	Status          domain.TransactionStatus
	RiskLevel       domain.RiskLevel
	RequiresReview  bool
	CategoryBalance SpendBalanceSnapshot
}

// SpendBalanceSnapshot shows the category balance around the spend.
type SpendBalanceSnapshot struct {
	AvailableBeforeSpending int64 `json:"available_before_spending"`
	AvailableAfterSpending  int64 `json:"available_after_spending"`
	SpentAmount             int64 `json:"spent_amount"`
}

// PurchaseValidation is a vendor-initiated, read-only authorization
// probe: nothing is persisted.
type PurchaseValidation struct {
	Allowed        bool
	RiskLevel      domain.RiskLevel
	Action         domain.RecommendedAction
	RequiresReview bool
	Flags          []domain.FraudFlag
	Warnings       []domain.FraudFlag
}

// DisbursementService is the spend-authorization pipeline.
type DisbursementService interface {
	AuthorizeSpend(ctx context.Context, req SpendRequest) (*SpendResult, error)
	ValidatePurchase(ctx context.Context, req SpendRequest) (*PurchaseValidation, error)
}

// TransactionRecord pairs a transaction with its fraud annotation for
// audit feeds. Annotation is nil for donations and other rows that
// never went through the authorization pipeline.
type TransactionRecord struct {
	Transaction domain.Transaction      `json:"transaction"`
	Annotation  *domain.FraudAnnotation `json:"annotation,omitempty"`
}

// HistoryService serves the transaction audit feed.
type HistoryService interface {
	Feed(ctx context.Context, party string, limit int) ([]TransactionRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*TransactionRecord, error)
}

// AuthService authenticates administrators.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, time.Time, error) // token, expiry, error
}
