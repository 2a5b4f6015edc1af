// Package wallet is the Go client for the MintForge wallet service.
//
// The wallet service holds the marketplace signing keys and exposes a
// JSON-RPC 2.0 API over HTTP. The client authenticates with a long-lived
// session token and submits marketplace commands (orders, votes) for
// signing and broadcast.
package wallet

import (
	"context"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the default wallet service endpoint.
	DefaultBaseURL = "http://localhost:1789"
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	healthPath   = "/api/v2/health"
	requestsPath = "/api/v2/requests"

	// SendingModeSync asks the service to wait for the transaction to be
	// accepted by the network before responding.
	SendingModeSync = "TYPE_SYNC"
)

// Client is the wallet service API client.
//
// Use NewClient for a client without connectivity checks, or Connect to
// verify the service is reachable up front:
//
//	clt, err := wallet.Connect(ctx, wallet.DefaultBaseURL, token)
type Client struct {
	baseURL    string
	token      string
	origin     string
	httpClient *http.Client

	// timeout is applied to httpClient after all options resolve, so
	// WithTimeout and WithHTTPClient compose in either order.
	timeout time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP client timeout. It applies even when a
// custom client is supplied via WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithOrigin overrides the Origin header sent with every RPC request.
// The service uses it to attribute the session; it defaults to the base
// URL.
func WithOrigin(origin string) Option {
	return func(c *Client) {
		c.origin = origin
	}
}

// NewClient creates a wallet service client. No network I/O is performed;
// use Connect if the caller should fail fast on an unreachable service.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.timeout != 0 {
		c.httpClient.Timeout = c.timeout
	}
	if c.origin == "" {
		c.origin = baseURL
	}

	return c
}

// Connect creates a client and verifies the service is healthy before
// returning it.
func Connect(ctx context.Context, baseURL, token string, opts ...Option) (*Client, error) {
	c := NewClient(baseURL, token, opts...)
	if err := c.Health(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// BaseURL returns the current base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health checks service reachability.
func (c *Client) Health(ctx context.Context) error {
	return c.getHealth(ctx)
}

// ListKeys returns the public keys the session token grants access to.
func (c *Client) ListKeys(ctx context.Context) ([]Key, error) {
	var result keysResult
	if err := c.rpc(ctx, methodListKeys, nil, &result); err != nil {
		return nil, err
	}
	return result.Keys, nil
}

// SendTransaction signs cmd with the key identified by pubKey and
// broadcasts it, waiting for network acceptance (TYPE_SYNC).
func (c *Client) SendTransaction(ctx context.Context, pubKey string, cmd Command) (*SentTransaction, error) {
	params := transactionParams{
		PublicKey:   pubKey,
		SendingMode: SendingModeSync,
		Transaction: commandEnvelope{cmd: cmd},
	}
	var result SentTransaction
	if err := c.rpc(ctx, methodSendTransaction, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignTransaction signs cmd with the key identified by pubKey without
// broadcasting it.
func (c *Client) SignTransaction(ctx context.Context, pubKey string, cmd Command) (*SignedTransaction, error) {
	params := transactionParams{
		PublicKey:   pubKey,
		Transaction: commandEnvelope{cmd: cmd},
	}
	var result SignedTransaction
	if err := c.rpc(ctx, methodSignTransaction, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
