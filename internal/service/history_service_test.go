package service

import (
	"context"
	"testing"
	"time"

	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports/mocks"
	"relief-disbursement-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHistoryService_Feed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txStore := mocks.NewMockTransactionStore(ctrl)
	annotStore := mocks.NewMockAnnotationStore(ctrl)
	svc := NewHistoryService(txStore, annotStore, zerolog.Nop())

	spend := domain.Transaction{
		ID:     uuid.New(),
		Type:   domain.TransactionTypeVendorPayment,
		From:   "beneficiary-77",
		Status: domain.TransactionStatusConfirmed,
	}
	donation := domain.Transaction{
		ID:     uuid.New(),
		Type:   domain.TransactionTypeDonation,
		To:     "beneficiary-77",
		Status: domain.TransactionStatusConfirmed,
	}

	txStore.EXPECT().ListByParty(gomock.Any(), "beneficiary-77", 50).
		Return([]domain.Transaction{spend, donation}, nil)
	annotStore.EXPECT().GetByTransactionID(gomock.Any(), spend.ID).
		Return(&domain.FraudAnnotation{TransactionID: spend.ID, RiskLevel: domain.RiskLevelLow}, nil)
	annotStore.EXPECT().GetByTransactionID(gomock.Any(), donation.ID).Return(nil, nil)

	records, err := svc.Feed(context.Background(), "beneficiary-77", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].Annotation)
	assert.Equal(t, domain.RiskLevelLow, records[0].Annotation.RiskLevel)
	assert.Nil(t, records[1].Annotation)
}

func TestHistoryService_Feed_LimitClamped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txStore := mocks.NewMockTransactionStore(ctrl)
	annotStore := mocks.NewMockAnnotationStore(ctrl)
	svc := NewHistoryService(txStore, annotStore, zerolog.Nop())

	txStore.EXPECT().ListByParty(gomock.Any(), "beneficiary-77", 500).Return(nil, nil)

	records, err := svc.Feed(context.Background(), "beneficiary-77", 10_000)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistoryService_Get_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txStore := mocks.NewMockTransactionStore(ctrl)
	annotStore := mocks.NewMockAnnotationStore(ctrl)
	svc := NewHistoryService(txStore, annotStore, zerolog.Nop())

	id := uuid.New()
	txStore.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	_, err := svc.Get(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", err.(*apperror.AppError).Code)
}

func TestHistoryService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	txStore := mocks.NewMockTransactionStore(ctrl)
	annotStore := mocks.NewMockAnnotationStore(ctrl)
	svc := NewHistoryService(txStore, annotStore, zerolog.Nop())

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:        uuid.New(),
		Type:      domain.TransactionTypeVendorPayment,
		From:      "beneficiary-77",
		Status:    domain.TransactionStatusPending,
		CreatedAt: now,
	}
	txStore.EXPECT().GetByID(gomock.Any(), txn.ID).Return(txn, nil)
	annotStore.EXPECT().GetByTransactionID(gomock.Any(), txn.ID).
		Return(&domain.FraudAnnotation{TransactionID: txn.ID, RiskLevel: domain.RiskLevelHigh, RequiresReview: true}, nil)

	record, err := svc.Get(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, txn.ID, record.Transaction.ID)
	require.NotNil(t, record.Annotation)
	assert.True(t, record.Annotation.RequiresReview)
}
