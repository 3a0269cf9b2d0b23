package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"relief-disbursement-gateway/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRaw is a goroutine-safe POST helper: it records the outcome
// instead of failing the test, so races can be asserted after the join.
func postRaw(url string, payload any) (int, map[string]any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return -1, nil
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		return -1, nil
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, body
}

// TestIntegration_ConcurrentSpendsDoNotOverspend fires many identical
// spend requests against one (beneficiary, category) pair at once. The
// authorization pipeline serializes the check-then-persist sequence per
// pair, so the authorized total can never exceed the derived category
// balance regardless of interleaving.
func TestIntegration_ConcurrentSpendsDoNotOverspend(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	vendor := app.seedVendor(t, "grocer", domain.VendorStatusApproved)
	app.seedDonation(t, "ben-c01", domain.CategoryFood, 50_000)
	app.oracle.set("ben-c01", 50_000)

	const attempts = 12
	const amount = "100.00" // 10_000 minor units; 5 fit into the 50_000 balance

	payload := spendPayload("ben-c01", vendor.ID, amount)
	statuses := make([]int, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			statuses[idx], _ = postRaw(app.server.URL+"/api/v1/spend", payload)
		}(i)
	}
	wg.Wait()

	var authorized, rejected int
	for _, code := range statuses {
		switch code {
		case http.StatusCreated:
			authorized++
		case http.StatusPaymentRequired:
			rejected++
		default:
			t.Fatalf("unexpected status code %d", code)
		}
	}
	assert.Equal(t, 5, authorized, "exactly the balance-covered spends succeed")
	assert.Equal(t, attempts-5, rejected)

	// The category is drained to exactly zero; pending rows held for
	// review reserve their amount the same as confirmed ones.
	resp, body := getJSON(t, app.server.URL+"/api/v1/beneficiaries/ben-c01/balances")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	food := categoryEntry(t, dataOf(t, body), "food")
	assert.Equal(t, float64(0), food["available_balance"])
	assert.Equal(t, float64(50_000), food["total_spent"])
}

// TestIntegration_ConcurrentVendorFlags races suspicion reports against
// one vendor. The increment is atomic, so the count is exact and the
// suspension fires exactly once.
func TestIntegration_ConcurrentVendorFlags(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	vendor := app.seedVendor(t, "shady", domain.VendorStatusApproved)
	flagURL := app.server.URL + "/api/v1/vendors/" + vendor.ID.String() + "/flags"

	codes := make([]int, domain.SuspensionThreshold)
	outcomes := make([]string, domain.SuspensionThreshold)
	var wg sync.WaitGroup
	for i := 0; i < domain.SuspensionThreshold; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			code, body := postRaw(flagURL, map[string]any{
				"reason":      "duplicate receipts",
				"severity":    "high",
				"reported_by": "verifier-3",
			})
			codes[idx] = code
			if data, ok := body["data"].(map[string]any); ok {
				outcomes[idx], _ = data["outcome"].(string)
			}
		}(i)
	}
	wg.Wait()

	var suspensions int
	for _, code := range codes {
		require.Equal(t, http.StatusCreated, code)
	}
	for _, outcome := range outcomes {
		if outcome == string(domain.FlagOutcomeAutoSuspended) {
			suspensions++
		}
	}
	assert.Equal(t, 1, suspensions, "only the threshold-crossing flag reports the suspension")

	resp, body := getJSON(t, app.server.URL+"/api/v1/vendors/"+vendor.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := dataOf(t, body)
	assert.Equal(t, "suspended", data["status"])
	assert.Equal(t, float64(domain.SuspensionThreshold), data["suspicious_activity_count"])
}
