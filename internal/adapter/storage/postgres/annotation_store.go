package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"relief-disbursement-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AnnotationStore implements ports.AnnotationStore. Flags and warnings
// are stored as JSONB so new detector patterns need no schema change.
type AnnotationStore struct {
	pool Pool
}

// NewAnnotationStore creates a new AnnotationStore.
func NewAnnotationStore(pool Pool) *AnnotationStore {
	return &AnnotationStore{pool: pool}
}

// Create inserts an annotation within a database transaction so it
// commits atomically with the transaction it annotates.
func (s *AnnotationStore) Create(ctx context.Context, tx pgx.Tx, a *domain.FraudAnnotation) error {
	flags, err := marshalFlags(a.Flags)
	if err != nil {
		return err
	}
	warnings, err := marshalFlags(a.Warnings)
	if err != nil {
		return err
	}

	query := `INSERT INTO fraud_annotations (id, transaction_id, flags, warnings, risk_level, action, requires_review, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = tx.Exec(ctx, query,
		a.ID, a.TransactionID, flags, warnings,
		a.RiskLevel, a.Action, a.RequiresReview, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert fraud annotation: %w", err)
	}
	return nil
}

// GetByTransactionID fetches the annotation for a transaction.
func (s *AnnotationStore) GetByTransactionID(ctx context.Context, txID uuid.UUID) (*domain.FraudAnnotation, error) {
	query := `SELECT id, transaction_id, flags, warnings, risk_level, action, requires_review, created_at
		FROM fraud_annotations WHERE transaction_id = $1`

	a := &domain.FraudAnnotation{}
	var flags, warnings []byte
	err := s.pool.QueryRow(ctx, query, txID).Scan(
		&a.ID, &a.TransactionID, &flags, &warnings,
		&a.RiskLevel, &a.Action, &a.RequiresReview, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get fraud annotation: %w", err)
	}

	if err := json.Unmarshal(flags, &a.Flags); err != nil {
		return nil, fmt.Errorf("decode annotation flags: %w", err)
	}
	if err := json.Unmarshal(warnings, &a.Warnings); err != nil {
		return nil, fmt.Errorf("decode annotation warnings: %w", err)
	}
	return a, nil
}

func marshalFlags(flags []domain.FraudFlag) ([]byte, error) {
	if flags == nil {
		flags = []domain.FraudFlag{}
	}
	data, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("encode fraud flags: %w", err)
	}
	return data, nil
}
