// Package httpapi implements the remote gateway against the JSON feed
// endpoint. Only reads are real network calls; create/update/delete are
// local simulations that acknowledge success, mirroring the upstream API
// which exposes no mutation endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/remote"
)

const defaultTimeout = 10 * time.Second

// envelope is the wire format of the transaction feed.
type envelope struct {
	Status string             `json:"status"`
	Data   []core.Transaction `json:"data"`
}

type Client struct {
	baseURL string
	http    *http.Client

	// idSeq disambiguates ids fabricated within the same millisecond.
	idSeq atomic.Uint64
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchTransactions retrieves the full transaction list. Transport
// failures, malformed payloads and non-success envelope statuses are all
// reported as errors so the caller can leave its state untouched.
func (c *Client) FetchTransactions(ctx context.Context) ([]core.Transaction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch transactions: unexpected HTTP status %d", res.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	if env.Status != "success" {
		return nil, fmt.Errorf("%w: %q", remote.ErrRemoteStatus, env.Status)
	}

	slog.DebugContext(ctx, "Fetched transactions from remote",
		"count", len(env.Data),
		"component", "gateway")

	return env.Data, nil
}

// CreateTransaction simulates the create endpoint: it returns a copy of tx
// with a timestamp-derived unique id, the way the upstream client fabricates
// ids locally.
func (c *Client) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = c.nextID()
	return tx, nil
}

// UpdateTransaction is a pass-through acknowledgement.
func (c *Client) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// DeleteTransaction acknowledges deletion of the given id.
func (c *Client) DeleteTransaction(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Client) nextID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strconv.FormatUint(c.idSeq.Add(1), 10)
}

var _ remote.Gateway = (*Client)(nil)
