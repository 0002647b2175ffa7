package solana

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func decodeRaw(t *testing.T, s string) interface{} {
	var raw interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

func TestParseTransactionError(t *testing.T) {
	e, err := ParseTransactionError(decodeRaw(t, `{"InstructionError":[2,{"Custom":3}]}`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorInstructionError, e.ErrorKey())
	require.NotNil(t, e.InstructionError())
	assert.Equal(t, 2, e.InstructionError().Index)
	assert.Equal(t, InstructionErrorCustom, e.InstructionError().ErrorKey())
	require.NotNil(t, e.InstructionError().CustomError())
	assert.Equal(t, CustomError(3), *e.InstructionError().CustomError())
	assert.Equal(t, "error processing instruction 2: custom program error: 0x3", e.Error())

	e, err = ParseTransactionError(decodeRaw(t, `{"InstructionError":[0,"InvalidArgument"]}`))
	require.NoError(t, err)
	assert.Equal(t, InstructionErrorInvalidArgument, e.InstructionError().ErrorKey())

	e, err = ParseTransactionError(decodeRaw(t, `"BlockhashNotFound"`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorBlockhashNotFound, e.ErrorKey())
	assert.Nil(t, e.InstructionError())

	e, err = ParseTransactionError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseTransactionError(decodeRaw(t, `{"a":1,"b":2}`))
	assert.Error(t, err)

	_, err = ParseTransactionError(decodeRaw(t, `12`))
	assert.Error(t, err)
}

func TestParseRPCError(t *testing.T) {
	rpcErr := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: decodeRaw(t, `{
			"err": {"InstructionError": [1, {"Custom": 6001}]},
			"logs": ["Program log: Instruction: Buy", "Program log: slippage"]
		}`),
	}

	e, err := ParseRPCError(rpcErr)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, 1, e.InstructionError().Index)
	assert.Equal(t, CustomError(6001), *e.InstructionError().CustomError())
	assert.Equal(t, []string{"Program log: Instruction: Buy", "Program log: slippage"}, e.Logs)

	// Not a transaction failure.
	e, err = ParseRPCError(&jsonrpc.RPCError{Code: -32005, Data: decodeRaw(t, `{"numSlotsBehind": 10}`)})
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseRPCError(&jsonrpc.RPCError{Code: -32602, Message: "invalid params"})
	assert.Error(t, err)

	e, err = ParseRPCError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func TestNewTransactionError(t *testing.T) {
	e := NewTransactionError(TransactionErrorAlreadyProcessed)
	assert.Equal(t, TransactionErrorAlreadyProcessed, e.ErrorKey())

	s, err := e.JSONString()
	require.NoError(t, err)
	assert.Equal(t, `"AlreadyProcessed"`, s)
}

func TestParseJSONNumber(t *testing.T) {
	for i, c := range []interface{}{"1", 1.0, json.Number("1")} {
		v, err := parseJSONNumber(c)
		assert.NoError(t, err)
		assert.Equal(t, 1, v, i)
	}

	_, err := parseJSONNumber(true)
	assert.Error(t, err)
}
