package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"veritrust/internal/domain"
)

const (
	defaultPollInterval   = 500 * time.Millisecond
	defaultConfirmTimeout = 30 * time.Second
	maxResponseBytes      = 64 * 1024
)

const (
	txStatusPending   = "pending"
	txStatusConfirmed = "confirmed"
	txStatusRejected  = "rejected"
)

// Client talks to the VeriTrustAnchor gateway, the HTTP boundary in
// front of the append-only ledger contract. The signing identity (API
// key) is bound at construction and never changes at runtime.
type Client struct {
	baseURL        string
	apiKey         string
	httpDo         func(*http.Request) (*http.Response, error)
	pollInterval   time.Duration
	confirmTimeout time.Duration
}

type Options struct {
	HTTPClient     *http.Client
	PollInterval   time.Duration
	ConfirmTimeout time.Duration
}

func NewClient(baseURL, apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("ledger base url is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ledger api key is required")
	}
	doer := http.DefaultClient.Do
	if opts.HTTPClient != nil {
		doer = opts.HTTPClient.Do
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	confirmTimeout := opts.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = defaultConfirmTimeout
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		httpDo:         doer,
		pollInterval:   pollInterval,
		confirmTimeout: confirmTimeout,
	}, nil
}

type submitRequest struct {
	Op          string `json:"op"`
	Fingerprint string `json:"fingerprint"`
}

type submitResponse struct {
	TxID    string `json:"tx_id"`
	Message string `json:"message,omitempty"`
}

type txStatusResponse struct {
	TxID        string `json:"tx_id"`
	Status      string `json:"status"`
	BlockNumber int64  `json:"block_number,omitempty"`
	ConfirmedAt string `json:"confirmed_at,omitempty"`
	Message     string `json:"message,omitempty"`
}

type recordResponse struct {
	Exists     bool   `json:"exists"`
	AnchoredAt string `json:"anchored_at,omitempty"`
	Revoked    bool   `json:"revoked"`
}

// Submit sends an anchor or revoke instruction under the bound identity
// and returns immediately; confirmation is asynchronous.
func (c *Client) Submit(ctx context.Context, op domain.LedgerOp, fp domain.Fingerprint) (domain.TxHandle, error) {
	if op != domain.LedgerOpAnchor && op != domain.LedgerOpRevoke {
		return domain.TxHandle{}, fmt.Errorf("%w: unknown ledger op %q", domain.ErrLedgerRejected, op)
	}
	if fp.IsZero() {
		return domain.TxHandle{}, domain.ErrInvalidInput
	}
	body, err := json.Marshal(submitRequest{Op: string(op), Fingerprint: fp.Hex()})
	if err != nil {
		return domain.TxHandle{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return domain.TxHandle{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpDo(req)
	if err != nil {
		return domain.TxHandle{}, transportError(ctx, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.TxHandle{}, transportError(ctx, err)
	}
	if resp.StatusCode == http.StatusConflict {
		return domain.TxHandle{}, fmt.Errorf("%w: %s", domain.ErrAnchorConflict, responseMessage(respBody))
	}
	if resp.StatusCode >= 500 {
		return domain.TxHandle{}, fmt.Errorf("%w: status %d", domain.ErrLedgerUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.TxHandle{}, fmt.Errorf("%w: status %d: %s", domain.ErrLedgerRejected, resp.StatusCode, responseMessage(respBody))
	}
	var out submitResponse
	if err := json.Unmarshal(respBody, &out); err != nil || out.TxID == "" {
		return domain.TxHandle{}, fmt.Errorf("%w: malformed submit response", domain.ErrLedgerRejected)
	}
	return domain.TxHandle{
		TxID:        out.TxID,
		Op:          op,
		Fingerprint: fp,
		SubmittedAt: time.Now().UTC(),
	}, nil
}

// AwaitConfirmation polls the gateway until the transaction is included
// or the bounded wait elapses. A timeout does not mean the transaction
// failed; it may still confirm on the ledger afterwards.
func (c *Client) AwaitConfirmation(ctx context.Context, handle domain.TxHandle) (domain.ConfirmationReceipt, error) {
	if handle.TxID == "" {
		return domain.ConfirmationReceipt{}, fmt.Errorf("%w: empty tx handle", domain.ErrLedgerRejected)
	}
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	for {
		status, err := c.fetchTxStatus(ctx, handle.TxID)
		if err != nil {
			return domain.ConfirmationReceipt{}, err
		}
		switch status.Status {
		case txStatusConfirmed:
			confirmedAt := time.Now().UTC()
			if status.ConfirmedAt != "" {
				if parsed, err := time.Parse(time.RFC3339, status.ConfirmedAt); err == nil {
					confirmedAt = parsed.UTC()
				}
			}
			return domain.ConfirmationReceipt{
				TxID:        handle.TxID,
				BlockNumber: status.BlockNumber,
				ConfirmedAt: confirmedAt,
			}, nil
		case txStatusRejected:
			return domain.ConfirmationReceipt{}, fmt.Errorf("%w: %s", domain.ErrLedgerRejected, status.Message)
		case txStatusPending, "":
		default:
			return domain.ConfirmationReceipt{}, fmt.Errorf("%w: unknown tx status %q", domain.ErrLedgerRejected, status.Status)
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return domain.ConfirmationReceipt{}, domain.ErrLedgerTimeout
			}
			return domain.ConfirmationReceipt{}, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Client) fetchTxStatus(ctx context.Context, txID string) (txStatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/transactions/"+txID, nil)
	if err != nil {
		return txStatusResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpDo(req)
	if err != nil {
		return txStatusResponse{}, transportError(ctx, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return txStatusResponse{}, transportError(ctx, err)
	}
	if resp.StatusCode >= 500 {
		return txStatusResponse{}, fmt.Errorf("%w: status %d", domain.ErrLedgerUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return txStatusResponse{}, fmt.Errorf("%w: status %d: %s", domain.ErrLedgerRejected, resp.StatusCode, responseMessage(respBody))
	}
	var out txStatusResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return txStatusResponse{}, fmt.Errorf("%w: malformed tx status response", domain.ErrLedgerRejected)
	}
	return out, nil
}

// Query reads the ledger's current view of a fingerprint. It never
// creates a transaction and is safe to call arbitrarily often. A
// never-anchored fingerprint yields Exists=false, not an error.
func (c *Client) Query(ctx context.Context, fp domain.Fingerprint) (domain.AnchorRecord, error) {
	if fp.IsZero() {
		return domain.AnchorRecord{}, domain.ErrInvalidInput
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/records/"+fp.Hex(), nil)
	if err != nil {
		return domain.AnchorRecord{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.httpDo(req)
	if err != nil {
		return domain.AnchorRecord{}, transportError(ctx, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.AnchorRecord{}, transportError(ctx, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return domain.AnchorRecord{Fingerprint: fp}, nil
	}
	if resp.StatusCode >= 500 {
		return domain.AnchorRecord{}, fmt.Errorf("%w: status %d", domain.ErrLedgerUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.AnchorRecord{}, fmt.Errorf("%w: status %d: %s", domain.ErrLedgerRejected, resp.StatusCode, responseMessage(respBody))
	}
	var out recordResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return domain.AnchorRecord{}, fmt.Errorf("%w: malformed record response", domain.ErrLedgerRejected)
	}
	record := domain.AnchorRecord{
		Fingerprint: fp,
		Exists:      out.Exists,
		Revoked:     out.Revoked,
	}
	if out.AnchoredAt != "" {
		if parsed, err := time.Parse(time.RFC3339, out.AnchoredAt); err == nil {
			record.AnchoredAt = parsed.UTC()
		}
	}
	return record, nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrLedgerTimeout
	}
	return fmt.Errorf("%w: %v", domain.ErrLedgerUnavailable, err)
}

func responseMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if len(body) == 0 {
		return "no response body"
	}
	if len(body) > 120 {
		body = body[:120]
	}
	return string(body)
}
