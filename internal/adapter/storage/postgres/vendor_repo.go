package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"relief-disbursement-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const vendorColumns = `id, name, wallet_address, status, suspicious_activity_count, last_suspicious_activity, created_at, updated_at`

// VendorRepo implements ports.VendorRepository.
type VendorRepo struct {
	pool Pool
}

// NewVendorRepo creates a new VendorRepo.
func NewVendorRepo(pool Pool) *VendorRepo {
	return &VendorRepo{pool: pool}
}

// Create inserts a new vendor.
func (r *VendorRepo) Create(ctx context.Context, v *domain.Vendor) error {
	query := `INSERT INTO vendors (id, name, wallet_address, status, suspicious_activity_count, last_suspicious_activity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		v.ID, v.Name, v.WalletAddress, v.Status,
		v.SuspiciousActivityCount, v.LastSuspiciousActivity, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vendor: %w", err)
	}
	return nil
}

// GetByID fetches a vendor by UUID.
func (r *VendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vendor, error) {
	query := `SELECT ` + vendorColumns + ` FROM vendors WHERE id = $1`
	return scanVendor(r.pool.QueryRow(ctx, query, id))
}

// IncrementSuspicion bumps the suspicion count and suspends the vendor
// in the same statement when the new count reaches the threshold, so
// concurrent flags cannot lose an increment or skip the transition.
// Returns nil for an unknown vendor, like GetByID.
func (r *VendorRepo) IncrementSuspicion(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Vendor, error) {
	query := `UPDATE vendors SET
			suspicious_activity_count = suspicious_activity_count + 1,
			last_suspicious_activity = $2,
			status = CASE
				WHEN suspicious_activity_count + 1 >= $3 AND status NOT IN ('suspended', 'rejected') THEN 'suspended'
				ELSE status
			END,
			updated_at = $2
		WHERE id = $1
		RETURNING ` + vendorColumns

	v, err := scanVendor(r.pool.QueryRow(ctx, query, id, at, domain.SuspensionThreshold))
	if err != nil {
		return nil, fmt.Errorf("increment vendor suspicion: %w", err)
	}
	return v, nil
}

// UpdateStatus sets a vendor's status.
func (r *VendorRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.VendorStatus) error {
	query := `UPDATE vendors SET status = $1, updated_at = $2 WHERE id = $3`

	tag, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update vendor status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("vendor not found: %s", id)
	}
	return nil
}

// RecordFlag appends a suspicion flag record for audit.
func (r *VendorRepo) RecordFlag(ctx context.Context, f *domain.SuspicionFlag) error {
	query := `INSERT INTO suspicion_flags (id, vendor_id, reason, severity, reported_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		f.ID, f.VendorID, f.Reason, f.Severity, f.ReportedBy, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert suspicion flag: %w", err)
	}
	return nil
}

func scanVendor(row pgx.Row) (*domain.Vendor, error) {
	v := &domain.Vendor{}
	err := row.Scan(
		&v.ID, &v.Name, &v.WalletAddress, &v.Status,
		&v.SuspiciousActivityCount, &v.LastSuspiciousActivity, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan vendor: %w", err)
	}
	return v, nil
}
