package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"relief-disbursement-gateway/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(config.OracleConfig{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	})
}

func TestClient_WalletBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallets/beneficiary-77/balance", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"beneficiary":"beneficiary-77","balance":100000}`))
	}))
	defer srv.Close()

	balance, err := newTestClient(srv).WalletBalance(context.Background(), "beneficiary-77")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), balance)
}

func TestClient_WalletBalance_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).WalletBalance(context.Background(), "beneficiary-77")
	assert.Error(t, err)
}

func TestClient_WalletBalance_NegativeBalanceRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"beneficiary":"beneficiary-77","balance":-5}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).WalletBalance(context.Background(), "beneficiary-77")
	assert.Error(t, err)
}

func TestClient_WalletBalance_Unreachable(t *testing.T) {
	client := NewClient(config.OracleConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
	})

	_, err := client.WalletBalance(context.Background(), "beneficiary-77")
	assert.Error(t, err)
}
