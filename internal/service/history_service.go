package service

import (
	"context"

	"relief-disbursement-gateway/internal/core/ports"
	"relief-disbursement-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultFeedLimit = 50
const maxFeedLimit = 500

// HistoryServiceImpl implements ports.HistoryService.
type HistoryServiceImpl struct {
	txStore    ports.TransactionStore
	annotStore ports.AnnotationStore
	log        zerolog.Logger
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(txStore ports.TransactionStore, annotStore ports.AnnotationStore, log zerolog.Logger) *HistoryServiceImpl {
	return &HistoryServiceImpl{txStore: txStore, annotStore: annotStore, log: log}
}

// Feed returns the party's recent transactions, newest first, each
// joined with its fraud annotation when one exists.
func (s *HistoryServiceImpl) Feed(ctx context.Context, party string, limit int) ([]ports.TransactionRecord, error) {
	if party == "" {
		return nil, apperror.Validation("Party is required")
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	txns, err := s.txStore.ListByParty(ctx, party, limit)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}

	records := make([]ports.TransactionRecord, 0, len(txns))
	for _, txn := range txns {
		annotation, err := s.annotStore.GetByTransactionID(ctx, txn.ID)
		if err != nil {
			// The feed is an audit surface; a missing annotation detail
			// degrades one row, not the whole response.
			s.log.Warn().Err(err).
				Str("tx_id", txn.ID.String()).
				Msg("failed to load annotation for feed row")
			annotation = nil
		}
		records = append(records, ports.TransactionRecord{
			Transaction: txn,
			Annotation:  annotation,
		})
	}
	return records, nil
}

// Get returns one transaction with its annotation.
func (s *HistoryServiceImpl) Get(ctx context.Context, id uuid.UUID) (*ports.TransactionRecord, error) {
	txn, err := s.txStore.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}

	annotation, err := s.annotStore.GetByTransactionID(ctx, id)
	if err != nil {
		return nil, apperror.ErrStoreUnavailable(err)
	}

	return &ports.TransactionRecord{Transaction: *txn, Annotation: annotation}, nil
}
