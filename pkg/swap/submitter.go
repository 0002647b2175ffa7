package swap

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/dexproxy/proxy-client/pkg/cache"
	"github.com/dexproxy/proxy-client/pkg/metrics"
	"github.com/dexproxy/proxy-client/pkg/retry"
	"github.com/dexproxy/proxy-client/pkg/retry/backoff"
	"github.com/dexproxy/proxy-client/pkg/solana"
	address_lookup_table "github.com/dexproxy/proxy-client/pkg/solana/addresslookuptable"
)

const (
	submitterMetricsStructName = "swap.submitter"

	submittedMetricName = "swap.submitted"
	rejectedMetricName  = "swap.rejected"

	defaultPollInterval = 2 * time.Second

	// Weighted by address count; 32 full tables.
	defaultLookupTableCacheBudget = 32 * 256
)

var errPending = errors.New("signature status pending")

// SubmitOptions control a single submission.
type SubmitOptions struct {
	// Commitment is used for the blockhash fetch and as the preflight
	// commitment.
	Commitment solana.Commitment

	// SkipPreflight bypasses simulation. Receipts are then provisional: the
	// transaction may still fail on chain.
	SkipPreflight bool

	// LookupTables are loaded before compiling a v0 transaction.
	LookupTables []ed25519.PublicKey
}

// DefaultSubmitOptions fetches a confirmed blockhash and skips preflight.
func DefaultSubmitOptions() SubmitOptions {
	return SubmitOptions{
		Commitment:    solana.CommitmentConfirmed,
		SkipPreflight: true,
	}
}

// Receipt records the outcome of a submission.
type Receipt struct {
	Operation string
	Signature solana.Signature
	State     State

	// Provisional is set when the transaction was accepted without
	// simulation.
	Provisional bool

	// LastValidBlockHeight bounds how long the transaction can land.
	LastValidBlockHeight uint64

	// Slot is set once a status has been observed.
	Slot uint64
}

func (r *Receipt) SignatureBase58() string {
	return base58.Encode(r.Signature[:])
}

type SubmitterOption func(*Submitter)

// WithPollInterval sets the delay between status checks in AwaitConfirmation.
func WithPollInterval(d time.Duration) SubmitterOption {
	return func(s *Submitter) {
		s.pollInterval = d
	}
}

// WithLookupTableCache replaces the default lookup table cache, for example
// to share one between submitters.
func WithLookupTableCache(c cache.Cache[solana.AddressLookupTable]) SubmitterOption {
	return func(s *Submitter) {
		s.tables = c
	}
}

// Submitter signs and broadcasts plans. Broadcasts are attempted exactly once.
type Submitter struct {
	log          *logrus.Entry
	client       solana.Client
	tables       cache.Cache[solana.AddressLookupTable]
	pollInterval time.Duration
}

func NewSubmitter(client solana.Client, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		log:          logrus.StandardLogger().WithField("type", "swap/submitter"),
		client:       client,
		tables:       cache.NewCache[solana.AddressLookupTable](defaultLookupTableCacheBudget),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit attaches a fresh blockhash, signs with the provided keys and
// broadcasts the plan's transaction.
//
// Missing signers are reported before any network call. A preflight rejection
// yields a Failed receipt and a *RejectedError. Any other broadcast failure
// yields an Unknown receipt and an ErrNetwork error, since the node may or may
// not have forwarded the transaction.
func (s *Submitter) Submit(ctx context.Context, plan *Plan, signers []ed25519.PrivateKey, opts SubmitOptions) (receipt *Receipt, err error) {
	tracer := metrics.TraceMethodCall(ctx, submitterMetricsStructName, "Submit")
	tracer.AddAttribute("operation", plan.Operation.String())
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	if opts.Commitment == (solana.Commitment{}) {
		opts.Commitment = solana.CommitmentConfirmed
	}

	log := s.log.WithFields(logrus.Fields{
		"method":     "Submit",
		"operation":  plan.Operation.String(),
		"commitment": opts.Commitment.Commitment,
	})

	// Compiling here only determines the required signers; the final
	// transaction may differ once lookup tables are applied.
	unsigned := plan.Transaction()
	signing, err := selectSigners(unsigned.RequiredSigners(), signers)
	if err != nil {
		return nil, err
	}

	var tables []solana.AddressLookupTable
	for _, key := range opts.LookupTables {
		table, err := s.loadLookupTable(ctx, key, opts.Commitment)
		if err != nil {
			return nil, WithKind(ErrNetwork, err, "error loading address lookup table "+base58.Encode(key))
		}
		tables = append(tables, table)
	}

	txn := plan.Transaction(tables...)

	latest, err := s.client.GetLatestBlockhash(ctx, opts.Commitment)
	if err != nil {
		return nil, WithKind(ErrNetwork, err, "error getting latest blockhash")
	}
	txn.SetBlockhash(latest.Blockhash)

	if err := txn.Sign(signing...); err != nil {
		return nil, errors.Wrap(err, "error signing transaction")
	}
	if state := SigningState(&txn); state != StateFullySigned {
		return nil, errors.Wrapf(ErrNotFullySigned, "transaction is %s", state)
	}

	receipt = &Receipt{
		Operation:            plan.Operation.String(),
		Signature:            txn.Signatures[0],
		State:                StateFullySigned,
		LastValidBlockHeight: latest.LastValidBlockHeight,
	}
	log = log.WithField("signature", receipt.SignatureBase58())

	_, err = s.client.SubmitTransaction(ctx, txn, solana.SubmitConfig{
		SkipPreflight:       opts.SkipPreflight,
		PreflightCommitment: opts.Commitment,
	})
	if err != nil {
		if txErr, ok := err.(*solana.TransactionError); ok {
			receipt.State = StateFailed
			metrics.RecordCount(ctx, rejectedMetricName, 1)
			log.WithError(txErr).Info("transaction rejected in preflight")
			return receipt, &RejectedError{Signature: receipt.Signature, Err: txErr}
		}

		receipt.State = StateUnknown
		log.WithError(err).Warn("failure submitting transaction")
		return receipt, WithKind(ErrNetwork, err, "error submitting transaction")
	}

	receipt.State = StateSubmitted
	receipt.Provisional = opts.SkipPreflight
	metrics.RecordCount(ctx, submittedMetricName, 1)
	log.WithField("provisional", receipt.Provisional).Debug("transaction submitted")

	return receipt, nil
}

// AwaitConfirmation polls the signature status of a submitted receipt until
// it reaches commitment, fails, or ctx ends. The receipt is updated in place:
// Confirmed, Failed with a *RejectedError, or Unknown with the context error.
func (s *Submitter) AwaitConfirmation(ctx context.Context, receipt *Receipt, commitment solana.Commitment) (err error) {
	tracer := metrics.TraceMethodCall(ctx, submitterMetricsStructName, "AwaitConfirmation")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	if receipt.State != StateSubmitted {
		return errors.Errorf("cannot await a %s transaction", receipt.State)
	}

	var status *solana.SignatureStatus
	_, err = retry.Retry(
		ctx,
		func() error {
			current, err := s.client.GetSignatureStatus(ctx, receipt.Signature)
			if err != nil {
				return WithKind(ErrNetwork, err, "error getting signature status")
			}
			if current == nil {
				return errPending
			}

			status = current
			if current.ErrorResult == nil && !current.Reached(commitment) {
				return errPending
			}
			return nil
		},
		retry.RetriableErrors(errPending, ErrNetwork),
		retry.Backoff(backoff.Constant(s.pollInterval), s.pollInterval),
	)

	if status != nil {
		receipt.Slot = status.Slot
	}

	switch {
	case err == nil && status.ErrorResult != nil:
		receipt.State = StateFailed
		receipt.Provisional = false
		return &RejectedError{Signature: receipt.Signature, Err: status.ErrorResult}
	case err == nil:
		receipt.State = StateConfirmed
		receipt.Provisional = false
		return nil
	}

	receipt.State = StateUnknown
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(ctxErr, "confirmation not observed")
	}
	return err
}

// loadLookupTable serves tables from the cache. Tables only ever grow, so a
// cached copy still resolves every address it holds.
func (s *Submitter) loadLookupTable(ctx context.Context, key ed25519.PublicKey, commitment solana.Commitment) (solana.AddressLookupTable, error) {
	cacheKey := base58.Encode(key)
	if table, ok := s.tables.Retrieve(cacheKey); ok {
		return table, nil
	}

	table, err := address_lookup_table.Load(ctx, s.client, key, commitment)
	if err != nil {
		return solana.AddressLookupTable{}, err
	}

	// A concurrent load of the same table may have won.
	_ = s.tables.Insert(cacheKey, table, max(len(table.Addresses), 1))
	return table, nil
}

// selectSigners picks a key for every required signer, in signer order.
func selectSigners(required []ed25519.PublicKey, keys []ed25519.PrivateKey) ([]ed25519.PrivateKey, error) {
	selected := make([]ed25519.PrivateKey, 0, len(required))
	for _, pub := range required {
		var found bool
		for _, key := range keys {
			if len(key) == ed25519.PrivateKeySize && bytes.Equal(key.Public().(ed25519.PublicKey), pub) {
				selected = append(selected, key)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Wrapf(ErrNotFullySigned, "missing signer %s", base58.Encode(pub))
		}
	}
	return selected, nil
}
