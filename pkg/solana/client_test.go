package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexproxy/proxy-client/pkg/testutil"
)

func TestSignatureStatus(t *testing.T) {
	zero, one := 0, 1

	for _, tc := range []struct {
		s         SignatureStatus
		confirmed bool
		finalized bool
	}{
		{s: SignatureStatus{Slot: 10, Confirmations: &zero}},
		{s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: "random"}},
		{s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusProcessed}},
		{s: SignatureStatus{Slot: 10, Confirmations: &one}, confirmed: true},
		{s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusConfirmed}, confirmed: true},
		{s: SignatureStatus{Slot: 10, Confirmations: &zero, ConfirmationStatus: confirmationStatusFinalized}, confirmed: true, finalized: true},
		{s: SignatureStatus{Slot: 10}, confirmed: true, finalized: true},
	} {
		assert.Equal(t, tc.confirmed, tc.s.Confirmed())
		assert.Equal(t, tc.finalized, tc.s.Finalized())
		assert.Equal(t, tc.confirmed, tc.s.Reached(CommitmentConfirmed))
		assert.Equal(t, tc.finalized, tc.s.Reached(CommitmentFinalized))
		assert.True(t, tc.s.Reached(CommitmentProcessed))
	}
}

func TestParseCommitment(t *testing.T) {
	for _, c := range []Commitment{CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized} {
		parsed, err := ParseCommitment(c.Commitment)
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseCommitment("max")
	assert.Error(t, err)
}

func TestClient_GetLatestBlockhash(t *testing.T) {
	server := testutil.NewRPCServer(t)

	var expected Blockhash
	expected[0] = 7
	server.Result("getLatestBlockhash", map[string]interface{}{
		"context": map[string]interface{}{"slot": 100},
		"value": map[string]interface{}{
			"blockhash":            expected.String(),
			"lastValidBlockHeight": 250,
		},
	})

	c := New(server.URL)
	actual, err := c.GetLatestBlockhash(context.Background(), CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, expected, actual.Blockhash)
	assert.EqualValues(t, 250, actual.LastValidBlockHeight)

	requests := server.Requests("getLatestBlockhash")
	require.Len(t, requests, 1)
	require.Len(t, requests[0].Params, 1)
	assert.JSONEq(t, `{"commitment":"confirmed"}`, string(requests[0].Params[0]))
}

func TestClient_SubmitTransaction(t *testing.T) {
	server := testutil.NewRPCServer(t)

	payer := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	txn := NewTransaction(payer.Public().(ed25519.PublicKey), NewInstruction(
		MustParseAddress("Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo"),
		[]byte("hi"),
	))
	require.NoError(t, txn.Sign(payer))

	server.Handle("sendTransaction", func(params []json.RawMessage) (interface{}, *testutil.RPCError) {
		return txn.SignatureBase58(), nil
	})

	c := New(server.URL)
	sig, err := c.SubmitTransaction(context.Background(), txn, SubmitConfig{SkipPreflight: true, PreflightCommitment: CommitmentConfirmed})
	require.NoError(t, err)
	assert.Equal(t, txn.Signatures[0], sig)

	requests := server.Requests("sendTransaction")
	require.Len(t, requests, 1)
	require.Len(t, requests[0].Params, 2)

	var encoded string
	require.NoError(t, json.Unmarshal(requests[0].Params[0], &encoded))
	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, txn.Marshal(), raw)
	assert.JSONEq(t, `{"encoding":"base64","skipPreflight":true,"preflightCommitment":"confirmed"}`, string(requests[0].Params[1]))
}

func TestClient_SubmitTransaction_PreflightFailure(t *testing.T) {
	server := testutil.NewRPCServer(t)
	server.Handle("sendTransaction", func([]json.RawMessage) (interface{}, *testutil.RPCError) {
		return nil, &testutil.RPCError{
			Code:    preflightFailureCode,
			Message: "Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1",
			Data: map[string]interface{}{
				"err":  map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 1}}},
				"logs": []string{"Program log: insufficient funds"},
			},
		}
	})

	payer := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	txn := NewTransaction(payer.Public().(ed25519.PublicKey))
	require.NoError(t, txn.Sign(payer))

	_, err := New(server.URL).SubmitTransaction(context.Background(), txn, SubmitConfig{})
	require.Error(t, err)

	txErr, ok := err.(*TransactionError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, CustomError(1), *txErr.InstructionError().CustomError())
	assert.Equal(t, []string{"Program log: insufficient funds"}, txErr.Logs)

	// Broadcasts are attempted once, regardless of outcome.
	assert.Len(t, server.Requests("sendTransaction"), 1)
}

func TestClient_SubmitTransaction_NotRetried(t *testing.T) {
	server := testutil.NewRPCServer(t)
	server.Handle("sendTransaction", func([]json.RawMessage) (interface{}, *testutil.RPCError) {
		return nil, &testutil.RPCError{Code: rpcNodeUnhealthyCode, Message: "Node is unhealthy"}
	})

	payer := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	txn := NewTransaction(payer.Public().(ed25519.PublicKey))
	require.NoError(t, txn.Sign(payer))

	_, err := New(server.URL).SubmitTransaction(context.Background(), txn, SubmitConfig{})
	assert.Error(t, err)
	_, isTxErr := err.(*TransactionError)
	assert.False(t, isTxErr)
	assert.Len(t, server.Requests("sendTransaction"), 1)
}

func TestClient_ReadsRetryUnhealthyNode(t *testing.T) {
	server := testutil.NewRPCServer(t)

	var calls int
	server.Handle("getSlot", func([]json.RawMessage) (interface{}, *testutil.RPCError) {
		calls++
		if calls == 1 {
			return nil, &testutil.RPCError{Code: rpcNodeUnhealthyCode, Message: "Node is behind"}
		}
		return 12345, nil
	})

	slot, err := New(server.URL).GetSlot(context.Background(), CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, 12345, slot)
	assert.Equal(t, 2, calls)
}

func TestClient_GetSignatureStatuses(t *testing.T) {
	server := testutil.NewRPCServer(t)

	var ok, failed, missing Signature
	ok[0], failed[0], missing[0] = 1, 2, 3

	server.Handle("getSignatureStatuses", func(params []json.RawMessage) (interface{}, *testutil.RPCError) {
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 5},
			"value": []interface{}{
				map[string]interface{}{"slot": 4, "confirmations": nil, "confirmationStatus": "finalized", "err": nil},
				map[string]interface{}{"slot": 4, "confirmations": 1, "confirmationStatus": "confirmed", "err": map[string]interface{}{
					"InstructionError": []interface{}{2, map[string]interface{}{"Custom": 6003}},
				}},
				nil,
			},
		}, nil
	})

	c := New(server.URL)
	statuses, err := c.GetSignatureStatuses(context.Background(), []Signature{ok, failed, missing})
	require.NoError(t, err)
	require.Len(t, statuses, 3)

	require.NotNil(t, statuses[0])
	assert.True(t, statuses[0].Finalized())
	assert.Nil(t, statuses[0].ErrorResult)

	require.NotNil(t, statuses[1])
	require.NotNil(t, statuses[1].ErrorResult)
	assert.Equal(t, 2, statuses[1].ErrorResult.InstructionError().Index)

	assert.Nil(t, statuses[2])

	var params []string
	require.NoError(t, json.Unmarshal(server.Requests("getSignatureStatuses")[0].Params[0], &params))
	assert.Equal(t, []string{base58.Encode(ok[:]), base58.Encode(failed[:]), base58.Encode(missing[:])}, params)
}

func TestClient_GetAccountInfo(t *testing.T) {
	server := testutil.NewRPCServer(t)
	owner := MustParseAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	server.Result("getAccountInfo", map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value": map[string]interface{}{
			"lamports":   2039280,
			"owner":      base58.Encode(owner),
			"data":       []string{base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), "base64"},
			"executable": false,
		},
	})

	info, err := New(server.URL).GetAccountInfo(context.Background(), owner, CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 2039280, info.Lamports)
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, []byte{1, 2, 3}, info.Data)

	server.Result("getAccountInfo", map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value":   nil,
	})
	_, err = New(server.URL).GetAccountInfo(context.Background(), owner, CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_GetMinimumBalanceForRentExemption(t *testing.T) {
	server := testutil.NewRPCServer(t)
	server.Result("getMinimumBalanceForRentExemption", 2039280)

	lamports, err := New(server.URL).GetMinimumBalanceForRentExemption(context.Background(), 165)
	require.NoError(t, err)
	assert.EqualValues(t, 2039280, lamports)

	assert.JSONEq(t, `165`, string(server.Requests("getMinimumBalanceForRentExemption")[0].Params[0]))
}

func TestClient_CancelledContext(t *testing.T) {
	server := testutil.NewRPCServer(t)
	server.Result("getSlot", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(server.URL, WithRateLimit(1, 1)).GetSlot(ctx, CommitmentConfirmed)
	assert.Error(t, err)
	assert.Empty(t, server.Requests("getSlot"))
}

func TestClient_RateLimit(t *testing.T) {
	server := testutil.NewRPCServer(t)
	server.Result("getSlot", 1)

	c := New(server.URL, WithRateLimit(20, 1))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.GetSlot(context.Background(), CommitmentConfirmed)
		require.NoError(t, err)
	}
	assert.True(t, time.Since(start) >= 90*time.Millisecond)
}
