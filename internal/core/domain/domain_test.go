package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status TransactionStatus
		want   bool
	}{
		{"pending", TransactionStatusPending, false},
		{"confirmed", TransactionStatusConfirmed, true},
		{"failed", TransactionStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Status: tt.status}
			assert.Equal(t, tt.want, tx.IsTerminal())
		})
	}
}

func TestTransaction_CountsTowardSpend(t *testing.T) {
	tests := []struct {
		name   string
		txType TransactionType
		status TransactionStatus
		want   bool
	}{
		{"confirmed spending", TransactionTypeSpending, TransactionStatusConfirmed, true},
		{"pending spending", TransactionTypeSpending, TransactionStatusPending, true},
		{"failed spending", TransactionTypeSpending, TransactionStatusFailed, false},
		{"confirmed vendor payment", TransactionTypeVendorPayment, TransactionStatusConfirmed, true},
		{"confirmed donation", TransactionTypeDonation, TransactionStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Type: tt.txType, Status: tt.status}
			assert.Equal(t, tt.want, tx.CountsTowardSpend())
		})
	}
}

func TestValidCategory(t *testing.T) {
	for _, c := range StandardCategories() {
		assert.True(t, ValidCategory(c), string(c))
	}
	assert.False(t, ValidCategory(Category("jewelry")))
	assert.False(t, ValidCategory(Category("")))
}

func TestCategoryLimit_OverrideActive(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name  string
		limit CategoryLimit
		want  bool
	}{
		{"no override", CategoryLimit{EmergencyOverride: false}, false},
		{"override without expiry", CategoryLimit{EmergencyOverride: true}, true},
		{"override not yet expired", CategoryLimit{EmergencyOverride: true, OverrideExpiresAt: &future}, true},
		{"override expired", CategoryLimit{EmergencyOverride: true, OverrideExpiresAt: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.limit.OverrideActive(now))
		})
	}
}

func TestVendor_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from VendorStatus
		to   VendorStatus
		want bool
	}{
		{"pending to under_review", VendorStatusPending, VendorStatusUnderReview, true},
		{"pending to rejected", VendorStatusPending, VendorStatusRejected, true},
		{"pending to approved", VendorStatusPending, VendorStatusApproved, false},
		{"under_review to approved", VendorStatusUnderReview, VendorStatusApproved, true},
		{"under_review to rejected", VendorStatusUnderReview, VendorStatusRejected, true},
		{"approved to suspended", VendorStatusApproved, VendorStatusSuspended, true},
		{"suspended to approved", VendorStatusSuspended, VendorStatusApproved, true},
		{"suspended to rejected", VendorStatusSuspended, VendorStatusRejected, false},
		{"rejected is terminal", VendorStatusRejected, VendorStatusUnderReview, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Vendor{Status: tt.from}
			assert.Equal(t, tt.want, v.CanTransitionTo(tt.to))
		})
	}
}
