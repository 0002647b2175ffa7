package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
	"golang.org/x/time/rate"

	"github.com/dexproxy/proxy-client/pkg/retry"
	"github.com/dexproxy/proxy-client/pkg/retry/backoff"
)

const (
	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	// Reference: https://github.com/solana-labs/solana/blob/14d793b22c1571fb092d5822189d5b64f32605e6/client/src/rpc_custom_error.rs#L10
	preflightFailureCode = -32002
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// ParseCommitment maps a commitment name to its value.
func ParseCommitment(s string) (Commitment, error) {
	switch s {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	}
	return Commitment{}, errors.Errorf("unknown commitment %q", s)
}

var (
	ErrNoAccountInfo = errors.New("no account info")
)

// AccountInfo contains the Solana account information (not to be confused
// with a token account).
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// LatestBlockhash is a blockhash and the last block height at which
// transactions referencing it are accepted.
type LatestBlockhash struct {
	Blockhash            Blockhash
	LastValidBlockHeight uint64
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations is nil once the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() || s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}
	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Reached reports whether the status satisfies the commitment level.
func (s SignatureStatus) Reached(c Commitment) bool {
	switch c {
	case CommitmentFinalized:
		return s.Finalized()
	case CommitmentConfirmed:
		return s.Confirmed()
	}
	return true
}

// SubmitConfig controls how a node accepts a transaction.
type SubmitConfig struct {
	// SkipPreflight bypasses simulation. The node then accepts any well formed
	// transaction and failures only surface through its signature status.
	SkipPreflight       bool
	PreflightCommitment Commitment
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ctx context.Context, account ed25519.PublicKey, commitment Commitment) (AccountInfo, error)
	GetLatestBlockhash(ctx context.Context, commitment Commitment) (LatestBlockhash, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
	GetSignatureStatus(ctx context.Context, sig Signature) (*SignatureStatus, error)
	GetSignatureStatuses(ctx context.Context, sigs []Signature) ([]*SignatureStatus, error)
	GetSlot(ctx context.Context, commitment Commitment) (uint64, error)

	// SubmitTransaction broadcasts the transaction exactly once. A rejected
	// preflight is returned as a *TransactionError.
	SubmitTransaction(ctx context.Context, txn Transaction, config SubmitConfig) (Signature, error)
}

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

type client struct {
	log     *logrus.Entry
	rpc     jsonrpc.RPCClient
	limiter *rate.Limiter

	// Reads only. Broadcasts never go through the retrier.
	retrier retry.Retrier
}

// ClientOption configures a client.
type ClientOption func(*client)

// WithRateLimit paces outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRPCClient replaces the underlying JSON-RPC transport.
func WithRPCClient(rpc jsonrpc.RPCClient) ClientOption {
	return func(c *client) {
		c.rpc = rpc
	}
}

// New returns a client using the specified endpoint.
func New(endpoint string, opts ...ClientOption) Client {
	c := &client{
		log:     logrus.StandardLogger().WithField("type", "solana/client"),
		rpc:     jsonrpc.NewClient(endpoint),
		limiter: rate.NewLimiter(rate.Inf, 1),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(250*time.Millisecond), 2*time.Second, 0.1),
		),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// call issues a single request. The ybbus client is not context aware, so a
// cancelled ctx abandons the in-flight request rather than aborting it.
func (c *client) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- c.rpc.CallFor(out, method, params...)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *client) read(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(ctx, func() error {
		return c.classify(method, c.call(ctx, out, method, params...))
	})
	return err
}

func (c *client) classify(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return err
	}
	if rpcErr.Code == 429 {
		c.log.WithField("method", method).Warn("rate limited")
		return errors.Wrap(errRateLimited, rpcErr.Message)
	}
	if rpcErr.Code >= 500 || rpcErr.Code == rpcNodeUnhealthyCode {
		return errors.Wrap(errServiceError, rpcErr.Message)
	}
	return err
}

func (c *client) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (lamports uint64, err error) {
	if err := c.read(ctx, &lamports, "getMinimumBalanceForRentExemption", size); err != nil {
		return 0, errors.Wrap(err, "getMinimumBalanceForRentExemption() failed to send request")
	}
	return lamports, nil
}

func (c *client) GetSlot(ctx context.Context, commitment Commitment) (slot uint64, err error) {
	// The commitment has to be wrapped in an array, otherwise the node
	// rejects the request.
	if err := c.read(ctx, &slot, "getSlot", []interface{}{commitment}); err != nil {
		return 0, errors.Wrap(err, "getSlot() failed to send request")
	}
	return slot, nil
}

func (c *client) GetLatestBlockhash(ctx context.Context, commitment Commitment) (LatestBlockhash, error) {
	var resp struct {
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	if err := c.read(ctx, &resp, "getLatestBlockhash", []interface{}{commitment}); err != nil {
		return LatestBlockhash{}, errors.Wrap(err, "getLatestBlockhash() failed to send request")
	}

	bh, err := ParseBlockhash(resp.Value.Blockhash)
	if err != nil {
		return LatestBlockhash{}, errors.Wrap(err, "invalid blockhash in response")
	}

	return LatestBlockhash{
		Blockhash:            bh,
		LastValidBlockHeight: resp.Value.LastValidBlockHeight,
	}, nil
}

func (c *client) SubmitTransaction(ctx context.Context, txn Transaction, config SubmitConfig) (Signature, error) {
	sig := txn.Signatures[0]

	preflight := config.PreflightCommitment
	if preflight == (Commitment{}) {
		preflight = CommitmentProcessed
	}

	params := struct {
		Encoding            string `json:"encoding"`
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		Encoding:            "base64",
		SkipPreflight:       config.SkipPreflight,
		PreflightCommitment: preflight.Commitment,
	}

	var returned string
	err := c.call(ctx, &returned, "sendTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), params)
	if err == nil {
		if returned != base58.Encode(sig[:]) {
			c.log.WithField("returned", returned).Warn("node returned unexpected signature")
		}
		return sig, nil
	}

	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return sig, errors.Wrap(err, "sendTransaction() failed to send request")
	}

	txErr, parseErr := ParseRPCError(rpcErr)
	if parseErr == nil && txErr != nil {
		return sig, txErr
	}
	return sig, errors.Wrap(rpcErr, "sendTransaction() rejected")
}

func (c *client) GetAccountInfo(ctx context.Context, account ed25519.PublicKey, commitment Commitment) (info AccountInfo, err error) {
	var resp struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	config := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	if err := c.read(ctx, &resp, "getAccountInfo", base58.Encode(account), config); err != nil {
		return info, errors.Wrap(err, "getAccountInfo() failed to send request")
	}
	if resp.Value == nil {
		return info, ErrNoAccountInfo
	}

	if info.Owner, err = ParseAddress(resp.Value.Owner); err != nil {
		return info, errors.Wrap(err, "invalid owner")
	}
	if len(resp.Value.Data) > 0 {
		if info.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0]); err != nil {
			return info, errors.Wrap(err, "invalid base64 encoded data")
		}
	}
	info.Lamports = resp.Value.Lamports
	info.Executable = resp.Value.Executable

	return info, nil
}

// GetSignatureStatus returns nil without error when the node has no record
// of the signature.
func (c *client) GetSignatureStatus(ctx context.Context, sig Signature) (*SignatureStatus, error) {
	statuses, err := c.GetSignatureStatuses(ctx, []Signature{sig})
	if err != nil {
		return nil, err
	}
	return statuses[0], nil
}

func (c *client) GetSignatureStatuses(ctx context.Context, sigs []Signature) ([]*SignatureStatus, error) {
	encoded := make([]string, len(sigs))
	for i := range sigs {
		encoded[i] = base58.Encode(sigs[i][:])
	}

	config := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	var resp struct {
		Value []*struct {
			Slot               uint64          `json:"slot"`
			Confirmations      *int            `json:"confirmations"`
			ConfirmationStatus string          `json:"confirmationStatus"`
			Err                json.RawMessage `json:"err"`
		} `json:"value"`
	}
	if err := c.read(ctx, &resp, "getSignatureStatuses", encoded, config); err != nil {
		return nil, errors.Wrap(err, "getSignatureStatuses() failed to send request")
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil || i >= len(statuses) {
			continue
		}

		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
		}

		if len(v.Err) == 0 || string(v.Err) == "null" {
			continue
		}

		var raw interface{}
		if err := json.Unmarshal(v.Err, &raw); err != nil {
			return nil, errors.Wrap(err, "failed to parse transaction result")
		}
		txErr, err := ParseTransactionError(raw)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse transaction result")
		}
		statuses[i].ErrorResult = txErr
	}

	return statuses, nil
}
