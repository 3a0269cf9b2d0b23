package service

import (
	"context"
	"fmt"
	"time"

	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/pkg/apperror"
	"relief-disbursement-gateway/pkg/keylock"
	"relief-disbursement-gateway/pkg/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DisbursementServiceImpl implements ports.DisbursementService: the
// spend-authorization pipeline ordering balance, limit, and fraud
// checks, then persisting the decision.
type DisbursementServiceImpl struct {
	txStore    ports.TransactionStore
	annotStore ports.AnnotationStore
	vendorRepo ports.VendorRepository
	oracle     ports.BalanceOracle
	balanceSvc ports.BalanceService
	limitSvc   ports.LimitService
	fraudSvc   ports.FraudAnalyzer
	vendorSvc  ports.VendorService
	notifier   ports.Notifier
	transactor ports.DBTransactor
	locks      *keylock.KeyLock
	log        zerolog.Logger
}

// NewDisbursementService creates a new DisbursementServiceImpl.
func NewDisbursementService(
	txStore ports.TransactionStore,
	annotStore ports.AnnotationStore,
	vendorRepo ports.VendorRepository,
	oracle ports.BalanceOracle,
	balanceSvc ports.BalanceService,
	limitSvc ports.LimitService,
	fraudSvc ports.FraudAnalyzer,
	vendorSvc ports.VendorService,
	notifier ports.Notifier,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *DisbursementServiceImpl {
	return &DisbursementServiceImpl{
		txStore:    txStore,
		annotStore: annotStore,
		vendorRepo: vendorRepo,
		oracle:     oracle,
		balanceSvc: balanceSvc,
		limitSvc:   limitSvc,
		fraudSvc:   fraudSvc,
		vendorSvc:  vendorSvc,
		notifier:   notifier,
		transactor: transactor,
		locks:      keylock.New(),
		log:        log,
	}
}

// AuthorizeSpend runs the full beneficiary-initiated pipeline. The
// whole check-then-persist sequence holds the (beneficiary, category)
// lock: without it two concurrent requests would both read the same
// available balance and jointly overspend it.
func (s *DisbursementServiceImpl) AuthorizeSpend(ctx context.Context, req ports.SpendRequest) (*ports.SpendResult, error) {
	start := time.Now()

	vendor, err := s.validateSpend(ctx, req)
	if err != nil {
		return nil, err
	}

	key := req.Beneficiary + ":" + string(req.Category)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	now := time.Now().UTC()

	available, err := s.checkBalance(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.limitSvc.CheckSpendingLimits(ctx, req.Beneficiary, req.Category, req.Amount, now); err != nil {
		return nil, err
	}

	analysis := s.fraudSvc.Analyze(ctx, ports.FraudCandidate{
		From:     req.Beneficiary,
		To:       vendor.WalletAddress,
		Amount:   req.Amount,
		Category: req.Category,
		Type:     domain.TransactionTypeVendorPayment,
		Now:      now,
	})
	riskLevel, rec := Aggregate(analysis)
	s.recordFlagMetrics(analysis)

	// Beneficiary-initiated spends block outright only on the most
	// severe outcome; review and monitor results still record the
	// transaction.
	if riskLevel == domain.RiskLevelCritical {
		s.afterDecision(ctx, nil, req, vendor, riskLevel, rec, analysis)
		metrics.AuthorizationsTotal.WithLabelValues("blocked", string(riskLevel)).Inc()
		return nil, apperror.ErrFraudBlocked(apperror.FraudDetail{
			RiskLevel: riskLevel,
			Flags:     analysis.Flags,
		})
	}

	txn, err := s.persistDecision(ctx, req, vendor, now, riskLevel, rec, analysis)
	if err != nil {
		return nil, err
	}

	s.afterDecision(ctx, &txn.ID, req, vendor, riskLevel, rec, analysis)

	metrics.AuthorizationsTotal.WithLabelValues(string(txn.Status), string(riskLevel)).Inc()
	metrics.AuthorizationDuration.Observe(time.Since(start).Seconds())

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("beneficiary", req.Beneficiary).
		Str("vendor_id", req.VendorID.String()).
		Str("category", string(req.Category)).
		Int64("amount", req.Amount).
		Str("risk_level", string(riskLevel)).
		Str("status", string(txn.Status)).
		Msg("spend authorized")

	return &ports.SpendResult{
		TransactionID:  txn.ID,
		Status:         txn.Status,
		RiskLevel:      riskLevel,
		RequiresReview: rec.RequiresReview,
		CategoryBalance: ports.SpendBalanceSnapshot{
			AvailableBeforeSpending: available,
			AvailableAfterSpending:  available - req.Amount,
			SpentAmount:             req.Amount,
		},
	}, nil
}

// ValidatePurchase runs the pipeline read-only for a vendor-initiated
// purchase. A block recommendation is an outright rejection returned
// before anything is recorded.
func (s *DisbursementServiceImpl) ValidatePurchase(ctx context.Context, req ports.SpendRequest) (*ports.PurchaseValidation, error) {
	vendor, err := s.validateSpend(ctx, req)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if _, err := s.checkBalance(ctx, req); err != nil {
		return nil, err
	}
	if err := s.limitSvc.CheckSpendingLimits(ctx, req.Beneficiary, req.Category, req.Amount, now); err != nil {
		return nil, err
	}

	analysis := s.fraudSvc.Analyze(ctx, ports.FraudCandidate{
		From:     req.Beneficiary,
		To:       vendor.WalletAddress,
		Amount:   req.Amount,
		Category: req.Category,
		Type:     domain.TransactionTypeVendorPayment,
		Now:      now,
	})
	riskLevel, rec := Aggregate(analysis)
	s.recordFlagMetrics(analysis)

	if rec.Action == domain.ActionBlock {
		s.afterDecision(ctx, nil, req, vendor, riskLevel, rec, analysis)
		return nil, apperror.ErrFraudBlocked(apperror.FraudDetail{
			RiskLevel: riskLevel,
			Flags:     analysis.Flags,
		})
	}

	return &ports.PurchaseValidation{
		Allowed:        true,
		RiskLevel:      riskLevel,
		Action:         rec.Action,
		RequiresReview: rec.RequiresReview,
		Flags:          analysis.Flags,
		Warnings:       analysis.Warnings,
	}, nil
}

// validateSpend rejects malformed input before any balance or history
// access, and resolves the vendor.
func (s *DisbursementServiceImpl) validateSpend(ctx context.Context, req ports.SpendRequest) (*domain.Vendor, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.Beneficiary == "" {
		return nil, apperror.Validation("Beneficiary is required")
	}
	if req.VendorID == uuid.Nil {
		return nil, apperror.Validation("Vendor is required")
	}
	if !domain.ValidCategory(req.Category) {
		return nil, apperror.ErrUnknownCategory(string(req.Category))
	}

	vendor, err := s.vendorRepo.GetByID(ctx, req.VendorID)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	if vendor == nil {
		return nil, apperror.ErrNotFound("vendor")
	}
	if vendor.Status == domain.VendorStatusSuspended {
		return nil, apperror.ErrVendorSuspended()
	}
	if !vendor.CanTransact() {
		return nil, apperror.ErrVendorNotApproved()
	}
	return vendor, nil
}

// checkBalance consults the oracle and the allocator. Oracle failures
// fail closed: the error surfaces and the spend is never approved.
func (s *DisbursementServiceImpl) checkBalance(ctx context.Context, req ports.SpendRequest) (int64, error) {
	walletBalance, err := s.oracle.WalletBalance(ctx, req.Beneficiary)
	if err != nil {
		s.log.Error().Err(err).
			Str("beneficiary", req.Beneficiary).
			Msg("wallet oracle unavailable, failing closed")
		return 0, apperror.ErrOracleUnavailable(err)
	}

	report, err := s.balanceSvc.ComputeCategoryBalances(ctx, req.Beneficiary, walletBalance)
	if err != nil {
		s.log.Error().Err(err).
			Str("beneficiary", req.Beneficiary).
			Msg("balance computation failed, failing closed")
		return 0, apperror.ErrStoreUnavailable(err)
	}

	available := CategoryAvailable(report, req.Category)
	if req.Amount > available {
		return 0, apperror.ErrInsufficientCategoryBalance(apperror.BalanceDetail{
			Category:  req.Category,
			Available: available,
			Requested: req.Amount,
		})
	}
	return available, nil
}

// persistDecision writes the transaction and its fraud annotation in
// one database transaction.
func (s *DisbursementServiceImpl) persistDecision(
	ctx context.Context,
	req ports.SpendRequest,
	vendor *domain.Vendor,
	now time.Time,
	riskLevel domain.RiskLevel,
	rec domain.Recommendation,
	analysis *domain.FraudAnalysis,
) (*domain.Transaction, error) {
	status := domain.TransactionStatusConfirmed
	var confirmedAt *time.Time
	if rec.RequiresReview {
		status = domain.TransactionStatusPending
	} else {
		confirmedAt = &now
	}

	category := req.Category
	txn := &domain.Transaction{
		ID:          uuid.New(),
		Type:        domain.TransactionTypeVendorPayment,
		From:        req.Beneficiary,
		To:          vendor.WalletAddress,
		Amount:      req.Amount,
		Category:    &category,
		Status:      status,
		Description: req.Description,
		ReceiptHash: req.ReceiptHash,
		CreatedAt:   now,
		ConfirmedAt: confirmedAt,
	}

	annotation := &domain.FraudAnnotation{
		ID:             uuid.New(),
		TransactionID:  txn.ID,
		Flags:          analysis.Flags,
		Warnings:       analysis.Warnings,
		RiskLevel:      riskLevel,
		Action:         rec.Action,
		RequiresReview: rec.RequiresReview,
		CreatedAt:      now,
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.txStore.Append(ctx, dbTx, txn); err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("append transaction: %w", err))
	}
	if err := s.annotStore.Create(ctx, dbTx, annotation); err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("create annotation: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.ErrStoreUnavailable(fmt.Errorf("commit tx: %w", err))
	}
	return txn, nil
}

// afterDecision handles the vendor-side and notification consequences
// of an evaluation. Both are best-effort relative to the authorization
// outcome.
func (s *DisbursementServiceImpl) afterDecision(
	ctx context.Context,
	txID *uuid.UUID,
	req ports.SpendRequest,
	vendor *domain.Vendor,
	riskLevel domain.RiskLevel,
	rec domain.Recommendation,
	analysis *domain.FraudAnalysis,
) {
	if rec.AutoFlag {
		reason := "automated fraud analysis"
		if len(analysis.Flags) > 0 {
			reason = analysis.Flags[0].Description
		}
		severity := domain.SeverityMedium
		if riskLevel == domain.RiskLevelHigh || riskLevel == domain.RiskLevelCritical {
			severity = domain.SeverityHigh
		}
		if _, _, err := s.vendorSvc.FlagVendor(ctx, vendor.ID, reason, severity, "system"); err != nil {
			s.log.Error().Err(err).
				Str("vendor_id", vendor.ID.String()).
				Msg("failed to flag vendor after elevated risk decision")
		}
	}

	if rec.Action == domain.ActionBlock || rec.RequiresReview {
		event := ports.DecisionEvent{
			TransactionID: txID,
			Beneficiary:   req.Beneficiary,
			Vendor:        vendor.WalletAddress,
			Category:      req.Category,
			Amount:        req.Amount,
			RiskLevel:     riskLevel,
			Action:        rec.Action,
			OccurredAt:    time.Now().UTC(),
		}
		if err := s.notifier.Publish(ctx, event); err != nil {
			metrics.NotificationErrorsTotal.Inc()
			s.log.Warn().Err(err).
				Str("action", string(rec.Action)).
				Msg("failed to publish decision event")
		}
	}
}

// recordFlagMetrics counts detector triggers.
func (s *DisbursementServiceImpl) recordFlagMetrics(analysis *domain.FraudAnalysis) {
	for _, f := range analysis.Flags {
		metrics.FraudFlagsTotal.WithLabelValues(f.Pattern, string(f.Severity)).Inc()
	}
	for _, w := range analysis.Warnings {
		metrics.FraudFlagsTotal.WithLabelValues(w.Pattern, string(w.Severity)).Inc()
	}
}
