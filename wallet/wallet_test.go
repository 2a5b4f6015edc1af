package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcCapture records the last RPC request a test server received.
type rpcCapture struct {
	header http.Header
	body   rpcTestRequest
}

type rpcTestRequest struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      string          `json:"id"`
}

// newRPCServer starts a wallet service stub that answers every RPC with
// the given result and records what it received.
func newRPCServer(t *testing.T, result interface{}) (*httptest.Server, *rpcCapture) {
	t.Helper()

	capture := &rpcCapture{}
	mux := http.NewServeMux()
	mux.HandleFunc(healthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc(requestsPath, func(w http.ResponseWriter, r *http.Request) {
		capture.header = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capture.body))

		resultBytes, err := json.Marshal(result)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"result":  json.RawMessage(resultBytes),
			"id":      capture.body.ID,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, capture
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("http://localhost:1789", "token")

	assert.Equal(t, "http://localhost:1789", c.BaseURL())
	assert.Equal(t, "http://localhost:1789", c.origin)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

func TestNewClient_Options(t *testing.T) {
	custom := &http.Client{}
	c := NewClient("http://localhost:1789", "token",
		WithHTTPClient(custom),
		WithTimeout(5*time.Second),
		WithOrigin("mintctl"),
	)

	assert.Same(t, custom, c.httpClient)
	assert.Equal(t, 5*time.Second, custom.Timeout)
	assert.Equal(t, "mintctl", c.origin)
}

func TestNewClient_TimeoutBeforeCustomClient(t *testing.T) {
	custom := &http.Client{}
	c := NewClient("http://localhost:1789", "token",
		WithTimeout(5*time.Second),
		WithHTTPClient(custom),
	)

	assert.Same(t, custom, c.httpClient)
	assert.Equal(t, 5*time.Second, custom.Timeout)
}

func TestConnect_HealthCheckFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := Connect(context.Background(), srv.URL, "token")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestConnect_ServiceDown(t *testing.T) {
	// Reserve then immediately release a port so nothing listens on it.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := Connect(context.Background(), url, "token")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestListKeys(t *testing.T) {
	srv, capture := newRPCServer(t, keysResult{Keys: []Key{
		{Name: "deployer", PublicKey: "b5fd9d3c"},
		{Name: "trader", PublicKey: "4acb8cf0"},
	}})

	c := NewClient(srv.URL, "s3cret")
	keys, err := c.ListKeys(context.Background())
	require.NoError(t, err)

	require.Len(t, keys, 2)
	assert.Equal(t, "deployer", keys[0].Name)
	assert.Equal(t, "4acb8cf0", keys[1].PublicKey)

	assert.Equal(t, "2.0", capture.body.Jsonrpc)
	assert.Equal(t, methodListKeys, capture.body.Method)
	assert.NotEmpty(t, capture.body.ID)
}

func TestRPC_Headers(t *testing.T) {
	srv, capture := newRPCServer(t, keysResult{})

	c := NewClient(srv.URL, "s3cret", WithOrigin("mintctl"))
	_, err := c.ListKeys(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "VWT s3cret", capture.header.Get("Authorization"))
	assert.Equal(t, "mintctl", capture.header.Get("Origin"))
	assert.Equal(t, "application/json", capture.header.Get("Content-Type"))
}

func TestSendTransaction(t *testing.T) {
	srv, capture := newRPCServer(t, SentTransaction{
		TransactionHash: "0xdeadbeef",
		Transaction:     json.RawMessage(`{"signature":"sig"}`),
	})

	c := NewClient(srv.URL, "s3cret")
	sent, err := c.SendTransaction(context.Background(), "pubkey1", OrderSubmission{
		MarketID:    "market-1",
		Price:       "123450",
		Size:        10,
		Side:        SideBuy,
		TimeInForce: TimeInForceGTC,
		Type:        OrderTypeLimit,
	})
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", sent.TransactionHash)

	assert.Equal(t, methodSendTransaction, capture.body.Method)

	var params struct {
		PublicKey   string `json:"publicKey"`
		SendingMode string `json:"sendingMode"`
		Transaction struct {
			OrderSubmission *OrderSubmission `json:"orderSubmission"`
		} `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(capture.body.Params, &params))
	assert.Equal(t, "pubkey1", params.PublicKey)
	assert.Equal(t, SendingModeSync, params.SendingMode)
	require.NotNil(t, params.Transaction.OrderSubmission)
	assert.Equal(t, "market-1", params.Transaction.OrderSubmission.MarketID)
}

func TestSignTransaction_NoSendingMode(t *testing.T) {
	srv, capture := newRPCServer(t, SignedTransaction{
		Transaction: json.RawMessage(`{"signature":"sig"}`),
	})

	c := NewClient(srv.URL, "s3cret")
	_, err := c.SignTransaction(context.Background(), "pubkey1", VoteSubmission{
		ProposalID: "prop-1",
		Value:      VoteValueYes,
	})
	require.NoError(t, err)

	assert.Equal(t, methodSignTransaction, capture.body.Method)

	var params map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(capture.body.Params, &params))
	_, hasSendingMode := params["sendingMode"]
	assert.False(t, hasSendingMode)
}

func TestRPC_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","error":{"code":1000,"message":"order not found"},"id":"1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "s3cret")
	_, err := c.SendTransaction(context.Background(), "pubkey1", OrderCancellation{
		OrderID:  "missing",
		MarketID: "market-1",
	})
	require.Error(t, err)

	var svcErr *Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, CodeApplicationError, svcErr.Code)
	assert.True(t, svcErr.IsApplicationError())
	assert.True(t, IsServiceError(err))
}

func TestRPC_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "wrong")
	_, err := c.ListKeys(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, errors.Is(err, ErrServiceUnavailable))
}
