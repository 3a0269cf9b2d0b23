package dto

// LoginRequest is the request body for administrator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// SpendRequest is the request body for a beneficiary-initiated spend.
// Amount is a major-unit decimal string ("150.00"); it is converted to
// minor units at the boundary.
type SpendRequest struct {
	Beneficiary string  `json:"beneficiary" binding:"required,safe_id,max=100"`
	VendorID    string  `json:"vendor_id" binding:"required,uuid"`
	Amount      string  `json:"amount" binding:"required,money"`
	Category    string  `json:"category" binding:"required,aid_category"`
	Description string  `json:"description" binding:"max=500"`
	ReceiptHash *string `json:"receipt_hash,omitempty" binding:"omitempty,max=128"`
}

// ValidatePurchaseRequest is the request body for a vendor-initiated
// purchase probe. Nothing is persisted for these.
type ValidatePurchaseRequest struct {
	Beneficiary string `json:"beneficiary" binding:"required,safe_id,max=100"`
	VendorID    string `json:"vendor_id" binding:"required,uuid"`
	Amount      string `json:"amount" binding:"required,money"`
	Category    string `json:"category" binding:"required,aid_category"`
}

// CreateVendorRequest registers a vendor in pending state.
type CreateVendorRequest struct {
	Name          string `json:"name" binding:"required,min=1,max=100"`
	WalletAddress string `json:"wallet_address" binding:"required,safe_id,max=100"`
}

// FlagVendorRequest records a suspicion report against a vendor.
type FlagVendorRequest struct {
	Reason     string `json:"reason" binding:"required,max=500"`
	Severity   string `json:"severity" binding:"required,oneof=low medium high"`
	ReportedBy string `json:"reported_by" binding:"required,max=100"`
}

// ReviewVendorRequest moves a vendor through the manual review state
// machine.
type ReviewVendorRequest struct {
	Status string `json:"status" binding:"required,oneof=pending under_review approved suspended rejected"`
}

// UpsertLimitRequest configures the spending ceilings for one category.
// All limit values are major-unit decimal strings.
type UpsertLimitRequest struct {
	PerTransactionLimit string `json:"per_transaction_limit" binding:"required,money"`
	DailyLimit          string `json:"daily_limit" binding:"required,money"`
	WeeklyLimit         string `json:"weekly_limit" binding:"required,money"`
	MonthlyLimit        string `json:"monthly_limit" binding:"required,money"`
	IsActive            *bool  `json:"is_active" binding:"required"`
}

// SetOverrideRequest toggles the emergency override on a category
// limit. ExpiresAt is RFC3339; nil means the override holds until an
// administrator clears it.
type SetOverrideRequest struct {
	Active    *bool   `json:"active" binding:"required"`
	ExpiresAt *string `json:"expires_at,omitempty"`
}

// BalanceSnapshot shows the category balance around a spend.
type BalanceSnapshot struct {
	AvailableBeforeSpending int64 `json:"available_before_spending"`
	AvailableAfterSpending  int64 `json:"available_after_spending"`
	SpentAmount             int64 `json:"spent_amount"`
}

// SpendResponse is the response body for an authorized spend.
type SpendResponse struct {
	TransactionID   string          `json:"transaction_id"`
	Status          string          `json:"status"`
	RiskLevel       string          `json:"risk_level"`
	RequiresReview  bool            `json:"requires_review"`
	CategoryBalance BalanceSnapshot `json:"category_balance"`
}

// FlagEntry is one fraud detector finding in a response body.
type FlagEntry struct {
	Pattern     string         `json:"pattern"`
	Severity    string         `json:"severity"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
}

// ValidatePurchaseResponse is the response body for a purchase probe.
type ValidatePurchaseResponse struct {
	Allowed        bool        `json:"allowed"`
	RiskLevel      string      `json:"risk_level"`
	Action         string      `json:"action"`
	RequiresReview bool        `json:"requires_review"`
	Flags          []FlagEntry `json:"flags"`
	Warnings       []FlagEntry `json:"warnings"`
}

// CategoryBalanceEntry is one derived category balance.
type CategoryBalanceEntry struct {
	Category          string `json:"category"`
	TotalReceived     int64  `json:"total_received"`
	TotalSpent        int64  `json:"total_spent"`
	AvailableBalance  int64  `json:"available_balance"`
	FallbackAllocated bool   `json:"fallback_allocated"`
}

// BalancesResponse is the response for the category balance query.
type BalancesResponse struct {
	Beneficiary   string                 `json:"beneficiary"`
	WalletBalance int64                  `json:"wallet_balance"`
	Balances      []CategoryBalanceEntry `json:"balances"`
	Discrepancy   int64                  `json:"discrepancy"`
}

// VendorResponse is the vendor representation in response bodies.
type VendorResponse struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	WalletAddress           string  `json:"wallet_address"`
	Status                  string  `json:"status"`
	SuspiciousActivityCount int     `json:"suspicious_activity_count"`
	LastSuspiciousActivity  *string `json:"last_suspicious_activity,omitempty"`
	CreatedAt               string  `json:"created_at"`
	UpdatedAt               string  `json:"updated_at"`
}

// FlagVendorResponse reports the result of a suspicion flag.
type FlagVendorResponse struct {
	Vendor  VendorResponse `json:"vendor"`
	Outcome string         `json:"outcome"`
}

// LimitResponse is the category limit representation in response
// bodies. Limit values are minor units.
type LimitResponse struct {
	Category            string  `json:"category"`
	PerTransactionLimit int64   `json:"per_transaction_limit"`
	DailyLimit          int64   `json:"daily_limit"`
	WeeklyLimit         int64   `json:"weekly_limit"`
	MonthlyLimit        int64   `json:"monthly_limit"`
	IsActive            bool    `json:"is_active"`
	EmergencyOverride   bool    `json:"emergency_override"`
	OverrideExpiresAt   *string `json:"override_expires_at,omitempty"`
	UpdatedAt           string  `json:"updated_at"`
}

// TransactionResponse is the transaction representation in feeds.
type TransactionResponse struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Amount      int64   `json:"amount"`
	Category    *string `json:"category,omitempty"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
	ReceiptHash *string `json:"receipt_hash,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ConfirmedAt *string `json:"confirmed_at,omitempty"`
}

// AnnotationResponse is the fraud evaluation attached to a
// transaction in feeds.
type AnnotationResponse struct {
	RiskLevel      string      `json:"risk_level"`
	Action         string      `json:"action"`
	RequiresReview bool        `json:"requires_review"`
	Flags          []FlagEntry `json:"flags"`
	Warnings       []FlagEntry `json:"warnings"`
	CreatedAt      string      `json:"created_at"`
}

// TransactionRecordResponse pairs a transaction with its annotation.
type TransactionRecordResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Annotation  *AnnotationResponse `json:"annotation,omitempty"`
}

// FeedResponse wraps the audit feed for one party.
type FeedResponse struct {
	Party string                      `json:"party"`
	Items []TransactionRecordResponse `json:"items"`
}
