package swap

import (
	"crypto/ed25519"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexproxy/proxy-client/pkg/solana"
	"github.com/dexproxy/proxy-client/pkg/solana/memo"
	"github.com/dexproxy/proxy-client/pkg/testutil"
)

func TestState_Terminal(t *testing.T) {
	for _, tc := range []struct {
		state    State
		name     string
		terminal bool
	}{
		{StateUnsigned, "unsigned", false},
		{StatePartiallySigned, "partially_signed", false},
		{StateFullySigned, "fully_signed", false},
		{StateSubmitted, "submitted", false},
		{StateConfirmed, "confirmed", true},
		{StateFailed, "failed", true},
		{StateUnknown, "unknown", true},
	} {
		assert.Equal(t, tc.name, tc.state.String())
		assert.Equal(t, tc.terminal, tc.state.IsTerminal(), tc.name)
	}
}

func TestSigningState(t *testing.T) {
	keys := testutil.GenerateSolanaKeypairs(t, 2)
	payer, cosigner := keys[0], keys[1]

	ix := memo.Instruction("hi")
	ix.Accounts = append(ix.Accounts, solana.NewReadonlyAccountMeta(cosigner.Public().(ed25519.PublicKey), true))

	txn := solana.NewTransaction(payer.Public().(ed25519.PublicKey), ix)
	assert.Equal(t, StateUnsigned, SigningState(&txn))

	require.NoError(t, txn.Sign(payer))
	assert.Equal(t, StatePartiallySigned, SigningState(&txn))

	require.NoError(t, txn.Sign(cosigner))
	assert.Equal(t, StateFullySigned, SigningState(&txn))
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	err := WithKind(ErrNetwork, cause, "failed to get blockhash")

	assert.True(t, errors.Is(err, ErrNetwork))
	assert.False(t, errors.Is(err, ErrConfiguration))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "network error: failed to get blockhash: connection refused", err.Error())

	txErr := solana.NewTransactionError(solana.TransactionErrorInsufficientFundsForFee)
	rejected := &RejectedError{Err: txErr}
	assert.True(t, errors.Is(rejected, ErrRejectedOnChain))
	assert.Contains(t, rejected.Error(), "InsufficientFundsForFee")

	var unwrapped *solana.TransactionError
	require.True(t, errors.As(rejected, &unwrapped))
	assert.Equal(t, solana.TransactionErrorInsufficientFundsForFee, unwrapped.ErrorKey())
}
