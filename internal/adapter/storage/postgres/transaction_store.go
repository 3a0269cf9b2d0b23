package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `id, type, from_party, to_party, amount, category, status, description, receipt_hash, created_at, confirmed_at`

// TransactionStore implements ports.TransactionStore over the
// transactions table.
type TransactionStore struct {
	pool Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Append inserts a transaction within a database transaction.
func (s *TransactionStore) Append(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, type, from_party, to_party, amount, category, status, description, receipt_hash, created_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.Type, t.From, t.To, t.Amount, t.Category,
		t.Status, t.Description, t.ReceiptHash, t.CreatedAt, t.ConfirmedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (s *TransactionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(s.pool.QueryRow(ctx, query, id))
}

// UpdateStatus moves a pending transaction to a terminal status within a
// database transaction.
func (s *TransactionStore) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	query := `UPDATE transactions SET status = $1, confirmed_at = $2 WHERE id = $3 AND status = 'pending'`

	var confirmedAt *time.Time
	if status == domain.TransactionStatusConfirmed {
		now := time.Now().UTC()
		confirmedAt = &now
	}

	tag, err := tx.Exec(ctx, query, status, confirmedAt, id)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("pending transaction not found: %s", id)
	}
	return nil
}

// SumReceivedByCategory aggregates confirmed earmarked donations to the
// beneficiary, grouped by category. Unearmarked donations carry a NULL
// category and are excluded here; the balance layer splits them.
func (s *TransactionStore) SumReceivedByCategory(ctx context.Context, beneficiary string) (map[domain.Category]int64, error) {
	query := `SELECT category, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE to_party = $1 AND type = 'donation' AND status = 'confirmed' AND category IS NOT NULL
		GROUP BY category`
	return s.sumByCategory(ctx, query, beneficiary)
}

// SumSpentByCategory aggregates the beneficiary's outgoing spending and
// vendor payments grouped by category. Pending rows count: a spend
// awaiting review still reserves its amount.
func (s *TransactionStore) SumSpentByCategory(ctx context.Context, beneficiary string) (map[domain.Category]int64, error) {
	query := `SELECT category, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE from_party = $1 AND type IN ('spending', 'vendor_payment')
		AND status IN ('pending', 'confirmed') AND category IS NOT NULL
		GROUP BY category`
	return s.sumByCategory(ctx, query, beneficiary)
}

func (s *TransactionStore) sumByCategory(ctx context.Context, query, party string) (map[domain.Category]int64, error) {
	rows, err := s.pool.Query(ctx, query, party)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	sums := make(map[domain.Category]int64)
	for rows.Next() {
		var c domain.Category
		var total int64
		if err := rows.Scan(&c, &total); err != nil {
			return nil, fmt.Errorf("scan category sum: %w", err)
		}
		sums[c] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category sums: %w", err)
	}
	return sums, nil
}

// SumOutgoing sums sent amounts matching the window filter.
func (s *TransactionStore) SumOutgoing(ctx context.Context, w ports.SpendWindow) (int64, error) {
	return s.sumWindow(ctx, "from_party", w)
}

// SumIncoming sums received amounts matching the window filter.
func (s *TransactionStore) SumIncoming(ctx context.Context, w ports.SpendWindow) (int64, error) {
	return s.sumWindow(ctx, "to_party", w)
}

func (s *TransactionStore) sumWindow(ctx context.Context, partyColumn string, w ports.SpendWindow) (int64, error) {
	conditions := []string{partyColumn + " = $1", "created_at >= $2"}
	args := []any{w.Party, w.Since}
	argIdx := 3

	if w.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *w.Category)
		argIdx++
	}
	if len(w.Types) > 0 {
		conditions = append(conditions, fmt.Sprintf("type = ANY($%d)", argIdx))
		args = append(args, typeStrings(w.Types))
		argIdx++
	}
	if len(w.Statuses) > 0 {
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", argIdx))
		args = append(args, statusStrings(w.Statuses))
	}

	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0) FROM transactions WHERE %s`,
		strings.Join(conditions, " AND "))

	var total int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum window: %w", err)
	}
	return total, nil
}

// ListBySender returns the sender's transactions since the given
// instant, oldest first, for gap analysis over consecutive submissions.
func (s *TransactionStore) ListBySender(ctx context.Context, sender string, since time.Time) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE from_party = $1 AND created_at >= $2
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, sender, since)
	if err != nil {
		return nil, fmt.Errorf("list by sender: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// CountMatching counts transactions with identical endpoints and amount
// since the given instant.
func (s *TransactionStore) CountMatching(ctx context.Context, from, to string, amount int64, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM transactions
		WHERE from_party = $1 AND to_party = $2 AND amount = $3 AND created_at >= $4`

	var count int64
	if err := s.pool.QueryRow(ctx, query, from, to, amount, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count matching transactions: %w", err)
	}
	return count, nil
}

// RecipientShares groups the sender's transactions since the given
// instant by recipient, largest count first.
func (s *TransactionStore) RecipientShares(ctx context.Context, sender string, since time.Time) ([]ports.RecipientShare, error) {
	query := `SELECT to_party, COUNT(*) FROM transactions
		WHERE from_party = $1 AND created_at >= $2
		GROUP BY to_party ORDER BY COUNT(*) DESC`

	rows, err := s.pool.Query(ctx, query, sender, since)
	if err != nil {
		return nil, fmt.Errorf("recipient shares: %w", err)
	}
	defer rows.Close()

	var shares []ports.RecipientShare
	for rows.Next() {
		var sh ports.RecipientShare
		if err := rows.Scan(&sh.Recipient, &sh.Count); err != nil {
			return nil, fmt.Errorf("scan recipient share: %w", err)
		}
		shares = append(shares, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recipient shares: %w", err)
	}
	return shares, nil
}

// ListByParty returns transactions where the party is sender or
// recipient, newest first.
func (s *TransactionStore) ListByParty(ctx context.Context, party string, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE from_party = $1 OR to_party = $1
		ORDER BY created_at DESC LIMIT $2`

	rows, err := s.pool.Query(ctx, query, party, limit)
	if err != nil {
		return nil, fmt.Errorf("list by party: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.Type, &t.From, &t.To, &t.Amount, &t.Category,
			&t.Status, &t.Description, &t.ReceiptHash, &t.CreatedAt, &t.ConfirmedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.Type, &t.From, &t.To, &t.Amount, &t.Category,
		&t.Status, &t.Description, &t.ReceiptHash, &t.CreatedAt, &t.ConfirmedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

func typeStrings(types []domain.TransactionType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func statusStrings(statuses []domain.TransactionStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
