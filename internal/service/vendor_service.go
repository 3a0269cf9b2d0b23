package service

import (
	"context"
	"time"

	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/pkg/apperror"
	"relief-disbursement-gateway/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// VendorServiceImpl implements ports.VendorService.
type VendorServiceImpl struct {
	vendorRepo ports.VendorRepository
	log        zerolog.Logger
}

// NewVendorService creates a new VendorServiceImpl.
func NewVendorService(vendorRepo ports.VendorRepository, log zerolog.Logger) *VendorServiceImpl {
	return &VendorServiceImpl{vendorRepo: vendorRepo, log: log}
}

// FlagVendor records a suspicion report against the vendor. The count
// increment and the conditional suspension are a single atomic store
// operation, so concurrent flags cannot double-count or race past the
// suspension threshold. The suspension transition is automatic and
// authoritative; only a manual administrator action reverses it.
func (s *VendorServiceImpl) FlagVendor(ctx context.Context, vendorID uuid.UUID, reason string, severity domain.Severity, reportedBy string) (*domain.Vendor, domain.FlagOutcome, error) {
	now := time.Now().UTC()

	vendor, err := s.vendorRepo.IncrementSuspicion(ctx, vendorID, now)
	if err != nil {
		return nil, "", apperror.ErrStoreUnavailable(err)
	}
	if vendor == nil {
		return nil, "", apperror.ErrNotFound("vendor")
	}

	flag := &domain.SuspicionFlag{
		ID:         uuid.New(),
		VendorID:   vendorID,
		Reason:     reason,
		Severity:   severity,
		ReportedBy: reportedBy,
		CreatedAt:  now,
	}
	if err := s.vendorRepo.RecordFlag(ctx, flag); err != nil {
		// The increment already happened; losing the report detail is
		// recoverable, losing the count is not.
		s.log.Error().Err(err).
			Str("vendor_id", vendorID.String()).
			Msg("failed to record suspicion flag detail")
	}

	outcome := domain.FlagOutcomeFlagged
	if vendor.Status == domain.VendorStatusSuspended &&
		vendor.SuspiciousActivityCount >= domain.SuspensionThreshold {
		outcome = domain.FlagOutcomeAutoSuspended
		metrics.VendorSuspensionsTotal.Inc()
	}

	event := s.log.Info()
	if outcome == domain.FlagOutcomeAutoSuspended {
		event = s.log.Warn()
	}
	event.
		Str("vendor_id", vendorID.String()).
		Str("reason", reason).
		Str("severity", string(severity)).
		Str("reported_by", reportedBy).
		Int("suspicious_count", vendor.SuspiciousActivityCount).
		Str("outcome", string(outcome)).
		Msg("vendor flagged")

	return vendor, outcome, nil
}

// ReviewVendor applies a manual verifier transition, validating the
// vendor state machine.
func (s *VendorServiceImpl) ReviewVendor(ctx context.Context, vendorID uuid.UUID, next domain.VendorStatus) (*domain.Vendor, error) {
	vendor, err := s.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	if vendor == nil {
		return nil, apperror.ErrNotFound("vendor")
	}
	if !vendor.CanTransitionTo(next) {
		return nil, apperror.ErrInvalidTransition(vendor.Status, next)
	}

	if err := s.vendorRepo.UpdateStatus(ctx, vendorID, next); err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}

	s.log.Info().
		Str("vendor_id", vendorID.String()).
		Str("from", string(vendor.Status)).
		Str("to", string(next)).
		Msg("vendor status updated")

	vendor.Status = next
	return vendor, nil
}
