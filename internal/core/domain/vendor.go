package domain

import (
	"time"

	"github.com/google/uuid"
)

// VendorStatus is the verification state of a vendor.
type VendorStatus string

const (
	VendorStatusPending     VendorStatus = "pending"
	VendorStatusUnderReview VendorStatus = "under_review"
	VendorStatusApproved    VendorStatus = "approved"
	VendorStatusSuspended   VendorStatus = "suspended"
	VendorStatusRejected    VendorStatus = "rejected"
)

// SuspensionThreshold is the suspicious-activity count at which a vendor
// is automatically suspended.
const SuspensionThreshold = 5

// Vendor holds the vendor-side suspicion state consumed by the fraud
// pipeline. SuspiciousActivityCount is monotonic; whenever it reaches
// SuspensionThreshold the status must be suspended.
type Vendor struct {
	ID                      uuid.UUID    `json:"id"`
	Name                    string       `json:"name"`
	WalletAddress           string       `json:"wallet_address"`
	Status                  VendorStatus `json:"status"`
	SuspiciousActivityCount int          `json:"suspicious_activity_count"`
	LastSuspiciousActivity  *time.Time   `json:"last_suspicious_activity,omitempty"`
	CreatedAt               time.Time    `json:"created_at"`
	UpdatedAt               time.Time    `json:"updated_at"`
}

// CanTransact reports whether the vendor may receive payments.
func (v *Vendor) CanTransact() bool {
	return v.Status == VendorStatusApproved
}

// CanTransitionTo validates the vendor state machine for manual
// verifier transitions. Automatic suspension bypasses this check and is
// always permitted.
func (v *Vendor) CanTransitionTo(next VendorStatus) bool {
	switch v.Status {
	case VendorStatusPending:
		return next == VendorStatusUnderReview || next == VendorStatusRejected
	case VendorStatusUnderReview:
		return next == VendorStatusApproved || next == VendorStatusRejected
	case VendorStatusApproved:
		return next == VendorStatusSuspended
	case VendorStatusSuspended:
		// Manual reinstatement by an administrator.
		return next == VendorStatusApproved
	}
	return false
}

// FlagOutcome reports what a suspicion flag resulted in.
type FlagOutcome string

const (
	FlagOutcomeFlagged       FlagOutcome = "flagged"
	FlagOutcomeAutoSuspended FlagOutcome = "auto_suspended"
)

// SuspicionFlag is one recorded report against a vendor.
type SuspicionFlag struct {
	ID         uuid.UUID `json:"id"`
	VendorID   uuid.UUID `json:"vendor_id"`
	Reason     string    `json:"reason"`
	Severity   Severity  `json:"severity"`
	ReportedBy string    `json:"reported_by"`
	CreatedAt  time.Time `json:"created_at"`
}
