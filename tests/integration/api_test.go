package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "relief-disbursement-gateway/internal/adapter/http/handler"
	redisStorage "relief-disbursement-gateway/internal/adapter/storage/redis"
	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/service"
	"relief-disbursement-gateway/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack: real services and HTTP
// layer, in-memory repositories, a stub wallet oracle, and miniredis
// backing the decision notifier. Rate limiting is disabled so tests can
// hammer endpoints freely.

type testApp struct {
	server     *httptest.Server
	redis      *miniredis.Miniredis
	txStore    *inMemoryTxStore
	vendorRepo *inMemoryVendorRepo
	adminRepo  *inMemoryAdminRepo
	limitStore *inMemoryLimitStore
	oracle     *stubOracle
	hashSvc    *service.Argon2HashService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	notifier := redisStorage.NewNotifier(rdb, "disbursement.decisions.test")

	txStore := newInMemoryTxStore()
	annotStore := newInMemoryAnnotationStore()
	limitStore := newInMemoryLimitStore()
	vendorRepo := newInMemoryVendorRepo()
	adminRepo := newInMemoryAdminRepo()
	transactor := newInMemoryTransactor()
	oracle := newStubOracle()

	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", time.Hour, "test-issuer")
	log := logger.New("error", false)

	authSvc := service.NewAuthService(adminRepo, hashSvc, tokenSvc)
	balanceSvc := service.NewBalanceService(txStore, log)
	limitSvc := service.NewLimitService(limitStore, txStore, time.UTC, log)
	fraudSvc := service.NewFraudService(txStore, service.DefaultFraudThresholds(), time.UTC, log)
	vendorSvc := service.NewVendorService(vendorRepo, log)
	historySvc := service.NewHistoryService(txStore, annotStore, log)
	disbursementSvc := service.NewDisbursementService(
		txStore, annotStore, vendorRepo, oracle,
		balanceSvc, limitSvc, fraudSvc, vendorSvc,
		notifier, transactor, log,
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:         authSvc,
		DisbursementSvc: disbursementSvc,
		BalanceSvc:      balanceSvc,
		Oracle:          oracle,
		HistorySvc:      historySvc,
		VendorSvc:       vendorSvc,
		VendorRepo:      vendorRepo,
		LimitStore:      limitStore,
		TokenSvc:        tokenSvc,
		Logger:          log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:     server,
		redis:      mr,
		txStore:    txStore,
		vendorRepo: vendorRepo,
		adminRepo:  adminRepo,
		limitStore: limitStore,
		oracle:     oracle,
		hashSvc:    hashSvc,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

func (a *testApp) seedAdmin(t *testing.T, username, password string) {
	t.Helper()
	hash, err := a.hashSvc.Hash(password)
	require.NoError(t, err)
	require.NoError(t, a.adminRepo.Create(context.Background(), &domain.Admin{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}))
}

func (a *testApp) seedVendor(t *testing.T, name string, status domain.VendorStatus) *domain.Vendor {
	t.Helper()
	now := time.Now().UTC()
	v := &domain.Vendor{
		ID:            uuid.New(),
		Name:          name,
		WalletAddress: "wallet-" + name,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, a.vendorRepo.Create(context.Background(), v))
	return v
}

func (a *testApp) seedDonation(t *testing.T, beneficiary string, category domain.Category, amount int64) {
	t.Helper()
	at := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, a.txStore.Append(context.Background(), nil, &domain.Transaction{
		ID:          uuid.New(),
		Type:        domain.TransactionTypeDonation,
		From:        "donor-pool",
		To:          beneficiary,
		Amount:      amount,
		Category:    &category,
		Status:      domain.TransactionStatusConfirmed,
		CreatedAt:   at,
		ConfirmedAt: &at,
	}))
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	resp, body := postJSON(t, a.server.URL+"/api/v1/auth/login", map[string]any{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return dataOf(t, body)["token"].(string)
}

func postJSON(t *testing.T, url string, payload any, token string) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return doJSON(t, req)
}

func putJSON(t *testing.T, url string, payload any, token string) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return doJSON(t, req)
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return doJSON(t, req)
}

func doJSON(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func dataOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	return data
}

func spendPayload(beneficiary string, vendorID uuid.UUID, amount string) map[string]any {
	return map[string]any{
		"beneficiary": beneficiary,
		"vendor_id":   vendorID.String(),
		"amount":      amount,
		"category":    "food",
		"description": "market purchase",
	}
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := getJSON(t, app.server.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_AdminLoginAndLimitManagement(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.seedAdmin(t, "operator", "CorrectHorse9!")

	// Wrong password is rejected.
	resp, body := postJSON(t, app.server.URL+"/api/v1/auth/login", map[string]any{
		"username": "operator",
		"password": "wrong",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", body["error_code"])

	token := app.login(t, "operator", "CorrectHorse9!")

	limitBody := map[string]any{
		"per_transaction_limit": "50.00",
		"daily_limit":           "500.00",
		"weekly_limit":          "2000.00",
		"monthly_limit":         "8000.00",
		"is_active":             true,
	}

	// Limit management requires a token.
	resp, _ = putJSON(t, app.server.URL+"/api/v1/limits/food", limitBody, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = putJSON(t, app.server.URL+"/api/v1/limits/food", limitBody, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := dataOf(t, body)
	assert.Equal(t, float64(5000), data["per_transaction_limit"])
	assert.Equal(t, float64(50000), data["daily_limit"])
	assert.Equal(t, true, data["is_active"])

	// Listing limits is public.
	resp, body = getJSON(t, app.server.URL+"/api/v1/limits")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	limits, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, limits, 1)
}

func TestIntegration_SpendLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	vendor := app.seedVendor(t, "grocer", domain.VendorStatusApproved)
	app.seedDonation(t, "ben-001", domain.CategoryFood, 100_000)
	app.oracle.set("ben-001", 100_000)

	resp, body := postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-001", vendor.ID, "150.00"), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := dataOf(t, body)
	assert.Equal(t, "confirmed", data["status"])
	assert.Equal(t, "low", data["risk_level"])
	assert.Equal(t, false, data["requires_review"])

	snapshot, ok := data["category_balance"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(100_000), snapshot["available_before_spending"])
	assert.Equal(t, float64(85_000), snapshot["available_after_spending"])
	assert.Equal(t, float64(15_000), snapshot["spent_amount"])

	txID := data["transaction_id"].(string)

	// Category balances reflect the spend.
	resp, body = getJSON(t, app.server.URL+"/api/v1/beneficiaries/ben-001/balances")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	balData := dataOf(t, body)
	assert.Equal(t, float64(100_000), balData["wallet_balance"])
	foodBalance := categoryEntry(t, balData, "food")
	assert.Equal(t, float64(85_000), foodBalance["available_balance"])
	assert.Equal(t, float64(15_000), foodBalance["total_spent"])

	// The audit feed shows the donation and the spend, annotated.
	resp, body = getJSON(t, app.server.URL+"/api/v1/transactions?party=ben-001")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feedData := dataOf(t, body)
	items, ok := feedData["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)

	newest := items[0].(map[string]any)
	spendTx := newest["transaction"].(map[string]any)
	assert.Equal(t, txID, spendTx["id"])
	assert.Equal(t, "vendor_payment", spendTx["type"])
	annotation, ok := newest["annotation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "low", annotation["risk_level"])
	assert.Equal(t, "allow", annotation["action"])

	oldest := items[1].(map[string]any)
	donationTx := oldest["transaction"].(map[string]any)
	assert.Equal(t, "donation", donationTx["type"])
	assert.Nil(t, oldest["annotation"])

	// Single-transaction lookup.
	resp, body = getJSON(t, app.server.URL+"/api/v1/transactions/"+txID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	record := dataOf(t, body)
	assert.Equal(t, txID, record["transaction"].(map[string]any)["id"])
}

func TestIntegration_SpendInsufficientCategoryBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	vendor := app.seedVendor(t, "grocer", domain.VendorStatusApproved)
	app.seedDonation(t, "ben-002", domain.CategoryFood, 10_000)
	app.oracle.set("ben-002", 10_000)

	resp, body := postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-002", vendor.ID, "150.00"), "")
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_CATEGORY_BALANCE", body["error_code"])

	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(10_000), details["available"])
	assert.Equal(t, float64(15_000), details["requested"])
}

func TestIntegration_SpendVendorGating(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.seedDonation(t, "ben-003", domain.CategoryFood, 100_000)
	app.oracle.set("ben-003", 100_000)

	pending := app.seedVendor(t, "newcomer", domain.VendorStatusPending)
	resp, body := postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-003", pending.ID, "10.00"), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "VENDOR_NOT_APPROVED", body["error_code"])

	suspended := app.seedVendor(t, "banned", domain.VendorStatusSuspended)
	resp, body = postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-003", suspended.ID, "10.00"), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "VENDOR_SUSPENDED", body["error_code"])

	resp, body = postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-003", uuid.New(), "10.00"), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}

func TestIntegration_CategoryLimitAndEmergencyOverride(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.seedAdmin(t, "operator", "CorrectHorse9!")
	token := app.login(t, "operator", "CorrectHorse9!")

	vendor := app.seedVendor(t, "grocer", domain.VendorStatusApproved)
	app.seedDonation(t, "ben-004", domain.CategoryFood, 100_000)
	app.oracle.set("ben-004", 100_000)

	resp, _ := putJSON(t, app.server.URL+"/api/v1/limits/food", map[string]any{
		"per_transaction_limit": "50.00",
		"daily_limit":           "500.00",
		"weekly_limit":          "2000.00",
		"monthly_limit":         "8000.00",
		"is_active":             true,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// 60.00 breaches the 50.00 per-transaction ceiling.
	resp, body := postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-004", vendor.ID, "60.00"), "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "PER_TRANSACTION_LIMIT_EXCEEDED", body["error_code"])

	// The emergency override suspends enforcement.
	resp, _ = postJSON(t, app.server.URL+"/api/v1/limits/food/override", map[string]any{
		"active": true,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-004", vendor.ID, "60.00"), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "confirmed", dataOf(t, body)["status"])
}

func TestIntegration_VendorFlagAutoSuspension(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	vendor := app.seedVendor(t, "shady", domain.VendorStatusApproved)
	app.seedDonation(t, "ben-005", domain.CategoryFood, 100_000)
	app.oracle.set("ben-005", 100_000)

	flagBody := map[string]any{
		"reason":      "price gouging reported",
		"severity":    "medium",
		"reported_by": "verifier-7",
	}

	for i := 1; i <= domain.SuspensionThreshold; i++ {
		resp, body := postJSON(t, app.server.URL+"/api/v1/vendors/"+vendor.ID.String()+"/flags", flagBody, "")
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		data := dataOf(t, body)
		if i < domain.SuspensionThreshold {
			assert.Equal(t, "flagged", data["outcome"], "flag %d", i)
		} else {
			assert.Equal(t, "auto_suspended", data["outcome"])
		}
	}

	resp, body := getJSON(t, app.server.URL+"/api/v1/vendors/"+vendor.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := dataOf(t, body)
	assert.Equal(t, "suspended", data["status"])
	assert.Equal(t, float64(domain.SuspensionThreshold), data["suspicious_activity_count"])

	// A suspended vendor can no longer receive payments.
	resp, body = postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-005", vendor.ID, "10.00"), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "VENDOR_SUSPENDED", body["error_code"])

	// Flagging an unknown vendor is a client error, not a store outage.
	resp, body = postJSON(t, app.server.URL+"/api/v1/vendors/"+uuid.New().String()+"/flags", flagBody, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["error_code"])
}

func TestIntegration_ValidatePurchaseRecordsNothing(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	vendor := app.seedVendor(t, "grocer", domain.VendorStatusApproved)
	app.seedDonation(t, "ben-006", domain.CategoryFood, 100_000)
	app.oracle.set("ben-006", 100_000)

	resp, body := postJSON(t, app.server.URL+"/api/v1/purchases/validate", map[string]any{
		"beneficiary": "ben-006",
		"vendor_id":   vendor.ID.String(),
		"amount":      "150.00",
		"category":    "food",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := dataOf(t, body)
	assert.Equal(t, true, data["allowed"])
	assert.Equal(t, "allow", data["action"])
	assert.Equal(t, "low", data["risk_level"])

	// Only the seeded donation is in the feed; the probe left no trace.
	resp, body = getJSON(t, app.server.URL+"/api/v1/transactions?party=ben-006")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := dataOf(t, body)["items"].([]any)
	assert.Len(t, items, 1)
}

func TestIntegration_FraudEscalationBlocksRepeatSpend(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	vendor := app.seedVendor(t, "grocer", domain.VendorStatusApproved)
	app.seedDonation(t, "ben-007", domain.CategoryFood, 300_000)
	app.oracle.set("ben-007", 300_000)

	// 1100.00 exceeds the single-transaction fraud threshold: the spend
	// is recorded but held for review.
	resp, body := postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-007", vendor.ID, "1100.00"), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := dataOf(t, body)
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, "high", data["risk_level"])
	assert.Equal(t, true, data["requires_review"])

	// The identical repeat trips duplicate and daily-spend detectors on
	// top of the amount flag and is blocked outright.
	resp, body = postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-007", vendor.ID, "1100.00"), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FRAUD_BLOCKED", body["error_code"])

	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "critical", details["risk_level"])
}

func TestIntegration_OracleOutageFailsClosed(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	vendor := app.seedVendor(t, "grocer", domain.VendorStatusApproved)
	app.seedDonation(t, "ben-008", domain.CategoryFood, 100_000)
	app.oracle.setDown(true)

	resp, body := postJSON(t, app.server.URL+"/api/v1/spend", spendPayload("ben-008", vendor.ID, "10.00"), "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "SYS_ORACLE_UNAVAILABLE", body["error_code"])

	resp, body = getJSON(t, app.server.URL+"/api/v1/beneficiaries/ben-008/balances")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "SYS_ORACLE_UNAVAILABLE", body["error_code"])
}

func TestIntegration_VendorReviewWorkflow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	app.seedAdmin(t, "operator", "CorrectHorse9!")
	token := app.login(t, "operator", "CorrectHorse9!")

	resp, body := postJSON(t, app.server.URL+"/api/v1/vendors", map[string]any{
		"name":           "New Market",
		"wallet_address": "wallet-new-market",
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := dataOf(t, body)
	assert.Equal(t, "pending", data["status"])
	vendorID := data["id"].(string)

	statusURL := app.server.URL + "/api/v1/vendors/" + vendorID + "/status"

	// pending -> approved skips review and is rejected.
	resp, body = putJSON(t, statusURL, map[string]any{"status": "approved"}, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", body["error_code"])

	resp, _ = putJSON(t, statusURL, map[string]any{"status": "under_review"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = putJSON(t, statusURL, map[string]any{"status": "approved"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "approved", dataOf(t, body)["status"])
}

func categoryEntry(t *testing.T, balData map[string]any, category string) map[string]any {
	t.Helper()
	balances, ok := balData["balances"].([]any)
	require.True(t, ok)
	for _, raw := range balances {
		entry := raw.(map[string]any)
		if entry["category"] == category {
			return entry
		}
	}
	t.Fatalf("category %s not in balances: %v", category, balData)
	return nil
}
