package ports

import (
	"context"
	"time"

	"relief-disbursement-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SpendWindow filters window aggregations over the transaction log.
type SpendWindow struct {
	Party    string            // sender for spend sums, recipient for receipt sums
	Category *domain.Category  // nil = all categories
	Types    []domain.TransactionType
	Statuses []domain.TransactionStatus
	Since    time.Time
}

// RecipientShare is one group-by-recipient row for concentration checks.
type RecipientShare struct {
	Recipient string
	Count     int64
}

// TransactionStore is the append-only transaction log. Rows are never
// mutated except the pending -> confirmed/failed status transition.
type TransactionStore interface {
	// Append inserts a transaction within a database transaction so the
	// caller can persist the fraud annotation atomically alongside it.
	Append(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error

	// SumByCategory aggregates confirmed amounts grouped by category.
	// Direction selects the party column: donations received (to) or
	// spending sent (from).
	SumReceivedByCategory(ctx context.Context, beneficiary string) (map[domain.Category]int64, error)
	SumSpentByCategory(ctx context.Context, beneficiary string) (map[domain.Category]int64, error)

	// SumOutgoing sums sent amounts matching the window filter.
	SumOutgoing(ctx context.Context, w SpendWindow) (int64, error)
	// SumIncoming sums received amounts matching the window filter.
	SumIncoming(ctx context.Context, w SpendWindow) (int64, error)

	// ListBySender returns the sender's transactions since the given
	// instant, oldest first.
	ListBySender(ctx context.Context, sender string, since time.Time) ([]domain.Transaction, error)
	// CountMatching counts transactions with identical (from, to, amount)
	// since the given instant, for duplicate detection.
	CountMatching(ctx context.Context, from, to string, amount int64, since time.Time) (int64, error)
	// RecipientShares groups the sender's transactions since the given
	// instant by recipient, largest count first.
	RecipientShares(ctx context.Context, sender string, since time.Time) ([]RecipientShare, error)

	// ListByParty returns transactions where the party is sender or
	// recipient, newest first, for audit feeds.
	ListByParty(ctx context.Context, party string, limit int) ([]domain.Transaction, error)
}

// AnnotationStore persists fraud annotations alongside transactions.
type AnnotationStore interface {
	Create(ctx context.Context, tx pgx.Tx, a *domain.FraudAnnotation) error
	GetByTransactionID(ctx context.Context, txID uuid.UUID) (*domain.FraudAnnotation, error)
}

// CategoryLimitStore is the administrator-owned limit configuration.
type CategoryLimitStore interface {
	GetByCategory(ctx context.Context, c domain.Category) (*domain.CategoryLimit, error)
	List(ctx context.Context) ([]domain.CategoryLimit, error)
	Upsert(ctx context.Context, l *domain.CategoryLimit) error
	SetOverride(ctx context.Context, c domain.Category, active bool, expiresAt *time.Time) error
}

// VendorRepository manages vendor suspicion state. IncrementSuspicion
// must be atomic per vendor: the count increment and the conditional
// transition to suspended happen in one statement.
type VendorRepository interface {
	Create(ctx context.Context, v *domain.Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error)
	IncrementSuspicion(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Vendor, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VendorStatus) error
	RecordFlag(ctx context.Context, f *domain.SuspicionFlag) error
}

// AdminRepository stores operator accounts for the admin surface.
type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
	Create(ctx context.Context, a *domain.Admin) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
