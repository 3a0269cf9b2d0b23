package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Transaction Store ---

type inMemoryTxStore struct {
	mu   sync.RWMutex
	txns []domain.Transaction
}

func newInMemoryTxStore() *inMemoryTxStore {
	return &inMemoryTxStore{}
}

func (r *inMemoryTxStore) Append(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txns = append(r.txns, *t)
	return nil
}

func (r *inMemoryTxStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.txns {
		if r.txns[i].ID == id {
			t := r.txns[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (r *inMemoryTxStore) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.TransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.txns {
		if r.txns[i].ID == id {
			r.txns[i].Status = status
			if status == domain.TransactionStatusConfirmed {
				now := time.Now().UTC()
				r.txns[i].ConfirmedAt = &now
			}
			return nil
		}
	}
	return fmt.Errorf("transaction not found")
}

func (r *inMemoryTxStore) SumReceivedByCategory(ctx context.Context, beneficiary string) (map[domain.Category]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sums := make(map[domain.Category]int64)
	for i := range r.txns {
		t := &r.txns[i]
		if t.To == beneficiary && t.Type == domain.TransactionTypeDonation &&
			t.Status == domain.TransactionStatusConfirmed && t.Category != nil {
			sums[*t.Category] += t.Amount
		}
	}
	return sums, nil
}

func (r *inMemoryTxStore) SumSpentByCategory(ctx context.Context, beneficiary string) (map[domain.Category]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sums := make(map[domain.Category]int64)
	for i := range r.txns {
		t := &r.txns[i]
		if t.From == beneficiary && isSpendType(t.Type) && t.Category != nil &&
			(t.Status == domain.TransactionStatusPending || t.Status == domain.TransactionStatusConfirmed) {
			sums[*t.Category] += t.Amount
		}
	}
	return sums, nil
}

func (r *inMemoryTxStore) SumOutgoing(ctx context.Context, w ports.SpendWindow) (int64, error) {
	return r.sumWindow(w, func(t *domain.Transaction) string { return t.From })
}

func (r *inMemoryTxStore) SumIncoming(ctx context.Context, w ports.SpendWindow) (int64, error) {
	return r.sumWindow(w, func(t *domain.Transaction) string { return t.To })
}

func (r *inMemoryTxStore) sumWindow(w ports.SpendWindow, party func(*domain.Transaction) string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for i := range r.txns {
		t := &r.txns[i]
		if party(t) != w.Party || t.CreatedAt.Before(w.Since) {
			continue
		}
		if w.Category != nil && (t.Category == nil || *t.Category != *w.Category) {
			continue
		}
		if len(w.Types) > 0 && !containsType(w.Types, t.Type) {
			continue
		}
		if len(w.Statuses) > 0 && !containsStatus(w.Statuses, t.Status) {
			continue
		}
		total += t.Amount
	}
	return total, nil
}

func (r *inMemoryTxStore) ListBySender(ctx context.Context, sender string, since time.Time) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for i := range r.txns {
		if r.txns[i].From == sender && !r.txns[i].CreatedAt.Before(since) {
			out = append(out, r.txns[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *inMemoryTxStore) CountMatching(ctx context.Context, from, to string, amount int64, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for i := range r.txns {
		t := &r.txns[i]
		if t.From == from && t.To == to && t.Amount == amount && !t.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *inMemoryTxStore) RecipientShares(ctx context.Context, sender string, since time.Time) ([]ports.RecipientShare, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[string]int64)
	for i := range r.txns {
		t := &r.txns[i]
		if t.From == sender && !t.CreatedAt.Before(since) {
			counts[t.To]++
		}
	}
	shares := make([]ports.RecipientShare, 0, len(counts))
	for recipient, count := range counts {
		shares = append(shares, ports.RecipientShare{Recipient: recipient, Count: count})
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].Count > shares[j].Count })
	return shares, nil
}

func (r *inMemoryTxStore) ListByParty(ctx context.Context, party string, limit int) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Transaction
	for i := range r.txns {
		if r.txns[i].From == party || r.txns[i].To == party {
			out = append(out, r.txns[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func isSpendType(t domain.TransactionType) bool {
	return t == domain.TransactionTypeSpending || t == domain.TransactionTypeVendorPayment
}

func containsType(types []domain.TransactionType, t domain.TransactionType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsStatus(statuses []domain.TransactionStatus, s domain.TransactionStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

// --- In-Memory Annotation Store ---

type inMemoryAnnotationStore struct {
	mu          sync.RWMutex
	annotations map[uuid.UUID]*domain.FraudAnnotation
}

func newInMemoryAnnotationStore() *inMemoryAnnotationStore {
	return &inMemoryAnnotationStore{annotations: make(map[uuid.UUID]*domain.FraudAnnotation)}
}

func (r *inMemoryAnnotationStore) Create(ctx context.Context, tx pgx.Tx, a *domain.FraudAnnotation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *a
	r.annotations[a.TransactionID] = &copied
	return nil
}

func (r *inMemoryAnnotationStore) GetByTransactionID(ctx context.Context, txID uuid.UUID) (*domain.FraudAnnotation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.annotations[txID]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

// --- In-Memory Category Limit Store ---

type inMemoryLimitStore struct {
	mu     sync.RWMutex
	limits map[domain.Category]*domain.CategoryLimit
}

func newInMemoryLimitStore() *inMemoryLimitStore {
	return &inMemoryLimitStore{limits: make(map[domain.Category]*domain.CategoryLimit)}
}

func (r *inMemoryLimitStore) GetByCategory(ctx context.Context, c domain.Category) (*domain.CategoryLimit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.limits[c]
	if !ok {
		return nil, nil
	}
	copied := *l
	return &copied, nil
}

func (r *inMemoryLimitStore) List(ctx context.Context) ([]domain.CategoryLimit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.CategoryLimit
	for _, c := range domain.StandardCategories() {
		if l, ok := r.limits[c]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *inMemoryLimitStore) Upsert(ctx context.Context, l *domain.CategoryLimit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *l
	r.limits[l.Category] = &copied
	return nil
}

func (r *inMemoryLimitStore) SetOverride(ctx context.Context, c domain.Category, active bool, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limits[c]
	if !ok {
		return fmt.Errorf("limit not found")
	}
	l.EmergencyOverride = active
	l.OverrideExpiresAt = expiresAt
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Vendor Repo ---

type inMemoryVendorRepo struct {
	mu      sync.RWMutex
	vendors map[uuid.UUID]*domain.Vendor
	flags   []domain.SuspicionFlag
}

func newInMemoryVendorRepo() *inMemoryVendorRepo {
	return &inMemoryVendorRepo{vendors: make(map[uuid.UUID]*domain.Vendor)}
}

func (r *inMemoryVendorRepo) Create(ctx context.Context, v *domain.Vendor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *v
	r.vendors[v.ID] = &copied
	return nil
}

func (r *inMemoryVendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vendors[id]
	if !ok {
		return nil, nil
	}
	copied := *v
	return &copied, nil
}

// IncrementSuspicion mirrors the single-statement postgres update: the
// count increment and the conditional suspension happen under one lock.
func (r *inMemoryVendorRepo) IncrementSuspicion(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vendors[id]
	if !ok {
		return nil, nil
	}
	v.SuspiciousActivityCount++
	v.LastSuspiciousActivity = &at
	v.UpdatedAt = at
	if v.SuspiciousActivityCount >= domain.SuspensionThreshold {
		v.Status = domain.VendorStatusSuspended
	}
	copied := *v
	return &copied, nil
}

func (r *inMemoryVendorRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VendorStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vendors[id]
	if !ok {
		return fmt.Errorf("vendor not found")
	}
	v.Status = status
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryVendorRepo) RecordFlag(ctx context.Context, f *domain.SuspicionFlag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags = append(r.flags, *f)
	return nil
}

// --- In-Memory Admin Repo ---

type inMemoryAdminRepo struct {
	mu     sync.RWMutex
	admins map[uuid.UUID]*domain.Admin
}

func newInMemoryAdminRepo() *inMemoryAdminRepo {
	return &inMemoryAdminRepo{admins: make(map[uuid.UUID]*domain.Admin)}
}

func (r *inMemoryAdminRepo) Create(ctx context.Context, a *domain.Admin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.admins {
		if existing.Username == a.Username {
			return fmt.Errorf("username already exists")
		}
	}
	copied := *a
	r.admins[a.ID] = &copied
	return nil
}

func (r *inMemoryAdminRepo) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.admins {
		if a.Username == username {
			copied := *a
			return &copied, nil
		}
	}
	return nil, nil
}

// --- Stub Balance Oracle ---

type stubOracle struct {
	mu       sync.RWMutex
	balances map[string]int64
	down     bool
}

func newStubOracle() *stubOracle {
	return &stubOracle{balances: make(map[string]int64)}
}

func (o *stubOracle) set(beneficiary string, balance int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.balances[beneficiary] = balance
}

func (o *stubOracle) setDown(down bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.down = down
}

func (o *stubOracle) WalletBalance(ctx context.Context, beneficiary string) (int64, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.down {
		return 0, fmt.Errorf("oracle unreachable")
	}
	return o.balances[beneficiary], nil
}

// --- In-Memory Transactor ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
