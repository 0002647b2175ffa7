package swap

import (
	"github.com/pkg/errors"

	"github.com/dexproxy/proxy-client/pkg/solana"
)

var (
	// ErrConfiguration is raised before any network call when a required
	// secret or deployment value is missing or malformed.
	ErrConfiguration = errors.New("configuration error")

	// ErrNetwork indicates a blockhash fetch, account lookup or broadcast
	// failed. It is never retried here.
	ErrNetwork = errors.New("network error")

	// ErrRejectedOnChain indicates the cluster reported a transaction error,
	// either during preflight or once the transaction landed.
	ErrRejectedOnChain = errors.New("transaction rejected on chain")

	ErrInstructionOrder  = errors.New("account is created after an instruction that references it")
	ErrDuplicateCreation = errors.New("account is created more than once")
	ErrNotFullySigned    = errors.New("transaction is not fully signed")
	ErrSeedCollision     = errors.New("unable to issue a unique seed")
)

// RejectedError is returned when the cluster rejects a transaction. It
// matches ErrRejectedOnChain and unwraps to the underlying
// *solana.TransactionError.
type RejectedError struct {
	Signature solana.Signature
	Err       *solana.TransactionError
}

func (e *RejectedError) Error() string {
	return "transaction rejected on chain: " + e.Err.Error()
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejectedOnChain
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// kindError tags a cause with one of the sentinel kinds above while keeping
// the cause reachable through errors.Unwrap.
type kindError struct {
	kind  error
	msg   string
	cause error
}

// WithKind wraps cause so that it matches kind under errors.Is.
func WithKind(kind, cause error, msg string) error {
	return &kindError{kind: kind, msg: msg, cause: cause}
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.msg + ": " + e.cause.Error()
}

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

func (e *kindError) Unwrap() error {
	return e.cause
}
