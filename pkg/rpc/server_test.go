package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pac-network/pacusd-go/pkg/config"
	"github.com/pac-network/pacusd-go/pkg/genesis"
)

func newTestServer(t *testing.T) (*Server, *genesis.System) {
	t.Helper()

	sys, err := genesis.NewSystem(config.Default())
	require.NoError(t, err)
	return NewServer(sys), sys
}

// call performs a JSON-RPC request and returns the decoded response.
func call(t *testing.T, s *Server, method string, params ...interface{}) Response {
	t.Helper()

	body, err := json.Marshal(Request{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  method,
		Params:  mustMarshal(t, params),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestWeb3ClientVersion(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, "web3_clientVersion")
	require.Nil(t, resp.Error)
	assert.Equal(t, ClientVersion, resp.Result)
}

func TestMethodNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, "eth_blockNumber")
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeMethodNotFound, resp.Error.Code)
}

func TestOracleGetLatestPrice(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, "oracle_getLatestPrice")
	require.Nil(t, resp.Error)
	assert.Equal(t, hexutil.EncodeBig(config.DefaultInitialPrice), resp.Result)
}

func TestOracleAddPrice(t *testing.T) {
	s, sys := newTestServer(t)

	resp := call(t, s, "oracle_addPrice", hexutil.EncodeBig(big.NewInt(105_000_000)), hexutil.EncodeUint64(1700000000))
	require.Nil(t, resp.Error)

	price, err := sys.Oracle.GetLatestPrice()
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(105_000_000), price)
}

func TestPacBalanceOf(t *testing.T) {
	s, sys := newTestServer(t)
	addr := sys.Accounts[2].Address

	resp := call(t, s, "pac_balanceOf", addr.Hex())
	require.Nil(t, resp.Error)
	assert.Equal(t, "0x0", resp.Result)
}

func TestPacBalanceOf_InvalidAddress(t *testing.T) {
	s, _ := newTestServer(t)

	resp := call(t, s, "pac_balanceOf", "not-an-address")
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidParams, resp.Error.Code)
}

func TestMmfBalanceOf(t *testing.T) {
	s, sys := newTestServer(t)
	addr := sys.Accounts[2].Address

	resp := call(t, s, "mmf_balanceOf", addr.Hex())
	require.Nil(t, resp.Error)
	assert.Equal(t, hexutil.EncodeBig(config.DefaultMMFBalance), resp.Result)
}

func TestVaultSwapOverRPC(t *testing.T) {
	s, sys := newTestServer(t)
	caller := sys.Accounts[2].Address
	amount := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))

	// Compute the identifier, authorize it, then swap.
	resp := call(t, s, "vault_computeTxId", caller.Hex(), hexutil.EncodeBig(amount), caller.Hex(), hexutil.EncodeUint64(1000))
	require.Nil(t, resp.Error)
	txID, ok := resp.Result.(string)
	require.True(t, ok)

	resp = call(t, s, "pac_setMintByTx", sys.Admin.Hex(), txID)
	require.Nil(t, resp.Error)

	resp = call(t, s, "vault_mintPacUSD", caller.Hex(), txID, hexutil.EncodeBig(amount), caller.Hex(), hexutil.EncodeUint64(1000))
	require.Nil(t, resp.Error)

	resp = call(t, s, "pac_balanceOf", caller.Hex())
	require.Nil(t, resp.Error)
	assert.Equal(t, hexutil.EncodeBig(amount), resp.Result)

	resp = call(t, s, "vault_totalMMFToken")
	require.Nil(t, resp.Error)
	assert.Equal(t, hexutil.EncodeBig(amount), resp.Result)
}

func TestVaultSwapOverRPC_ErrorSurfaced(t *testing.T) {
	s, sys := newTestServer(t)
	caller := sys.Accounts[2].Address
	amount := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))

	resp := call(t, s, "vault_computeTxId", caller.Hex(), hexutil.EncodeBig(amount), caller.Hex(), hexutil.EncodeUint64(1000))
	require.Nil(t, resp.Error)
	txID := resp.Result.(string)

	// Never authorized: the swap must fail and report the ledger error.
	resp = call(t, s, "vault_mintPacUSD", caller.Hex(), txID, hexutil.EncodeBig(amount), caller.Hex(), hexutil.EncodeUint64(1000))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInternal, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "not authorized")
}

func TestStakingOverRPC(t *testing.T) {
	s, sys := newTestServer(t)
	caller := sys.Accounts[2].Address
	amount := new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18))

	// Fund the caller with PacUSD through the vault flow.
	txID := sys.Vault.ComputeTxID(caller, amount, caller, 1000)
	require.NoError(t, sys.Token.SetMintByTx(sys.Admin, txID))
	require.NoError(t, sys.Vault.MintPacUSD(caller, txID, amount, caller, 1000))

	resp := call(t, s, "staking_stake", caller.Hex(), hexutil.EncodeBig(amount), hexutil.EncodeUint64(2000))
	require.Nil(t, resp.Error)

	resp = call(t, s, "staking_balanceOf", caller.Hex())
	require.Nil(t, resp.Error)
	assert.Equal(t, hexutil.EncodeBig(amount), resp.Result)

	resp = call(t, s, "staking_totalStaked")
	require.Nil(t, resp.Error)
	assert.Equal(t, hexutil.EncodeBig(amount), resp.Result)
}

func TestParseError(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{invalid")))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeParseError, resp.Error.Code)
}

func TestAccountsListing(t *testing.T) {
	s, sys := newTestServer(t)

	resp := call(t, s, "pacusd_accounts")
	require.Nil(t, resp.Error)

	addrs, ok := resp.Result.([]interface{})
	require.True(t, ok)
	require.Len(t, addrs, len(sys.Accounts))
	assert.Equal(t, sys.Accounts[0].Address.Hex(), addrs[0])
}

func TestCORSHeader(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"jsonrpc":"2.0","id":1,"method":"web3_clientVersion","params":[]}`)))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
