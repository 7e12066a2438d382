// Package rpc provides the JSON-RPC server for the pacusd node.
package rpc

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/pac-network/pacusd-go/pkg/genesis"
	"github.com/pac-network/pacusd-go/pkg/staking"
	"github.com/pac-network/pacusd-go/pkg/vault"
)

// JSON-RPC error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// Version information.
const (
	ClientVersion = "pacusd-go/v1.0.0"
)

// Request represents a JSON-RPC request.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response represents a JSON-RPC response.
type Response struct {
	Jsonrpc string       `json:"jsonrpc"`
	ID      interface{}  `json:"id"`
	Result  interface{}  `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// ErrorObject represents a JSON-RPC error.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server exposes the accounting engine over JSON-RPC.
type Server struct {
	sys *genesis.System
}

// NewServer creates a new RPC server over a wired system.
func NewServer(sys *genesis.System) *Server {
	return &Server{sys: sys}
}

// ServeHTTP handles HTTP requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if origin := s.sys.Config.AllowOrigin; origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, nil, ErrCodeParseError, "Failed to read request body")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, nil, ErrCodeParseError, "Parse error")
		return
	}

	result, rpcErr := s.handleMethod(req.Method, req.Params)
	if rpcErr != nil {
		s.writeError(w, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}

	json.NewEncoder(w).Encode(Response{
		Jsonrpc: "2.0",
		ID:      req.ID,
		Result:  result,
	})
}

func (s *Server) writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	json.NewEncoder(w).Encode(Response{
		Jsonrpc: "2.0",
		ID:      id,
		Error: &ErrorObject{
			Code:    code,
			Message: message,
		},
	})
}

func (s *Server) handleMethod(method string, params json.RawMessage) (interface{}, *ErrorObject) {
	switch method {
	// web3_* / net_* methods
	case "web3_clientVersion":
		return ClientVersion, nil
	case "net_version":
		return hexutil.EncodeUint64(s.sys.Config.ChainID), nil
	case "pacusd_accounts":
		return s.pacusdAccounts()

	// oracle_* methods
	case "oracle_addPrice":
		return s.oracleAddPrice(params)
	case "oracle_updatePrice":
		return s.oracleUpdatePrice(params)
	case "oracle_getPrice":
		return s.oracleGetPrice(params)
	case "oracle_getLatestPrice":
		return s.oracleGetLatestPrice()

	// pac_* methods (stablecoin ledger)
	case "pac_balanceOf":
		return s.pacBalanceOf(params)
	case "pac_totalSupply":
		return hexutil.EncodeBig(s.sys.Token.GetTotalSupply()), nil
	case "pac_setMintByTx":
		return s.pacSetAuth(params, s.sys.Token.SetMintByTx)
	case "pac_cancelMintByTx":
		return s.pacSetAuth(params, s.sys.Token.CancelMintByTx)
	case "pac_setBurnByTx":
		return s.pacSetAuth(params, s.sys.Token.SetBurnByTx)
	case "pac_cancelBurnByTx":
		return s.pacSetAuth(params, s.sys.Token.CancelBurnByTx)
	case "pac_blacklist":
		return s.pacAccountPair(params, s.sys.Token.Blacklist)
	case "pac_unblacklist":
		return s.pacAccountPair(params, s.sys.Token.Unblacklist)
	case "pac_isBlacklisted":
		return s.pacIsBlacklisted(params)
	case "pac_isMinter":
		return s.pacIsMinter(params)
	case "pac_pause":
		return s.pacSingle(params, s.sys.Token.Pause)
	case "pac_unpause":
		return s.pacSingle(params, s.sys.Token.Unpause)

	// mmf_* methods (reference asset)
	case "mmf_balanceOf":
		return s.mmfBalanceOf(params)
	case "mmf_totalSupply":
		return hexutil.EncodeBig(s.sys.Asset.GetTotalSupply()), nil

	// vault_* methods
	case "vault_mintPacUSD":
		return s.vaultSwap(params, s.sys.Vault.MintPacUSD)
	case "vault_redeemMMF":
		return s.vaultSwap(params, s.sys.Vault.RedeemMMF)
	case "vault_mintReward":
		return s.vaultMintReward(params)
	case "vault_computeTxId":
		return s.vaultComputeTxID(params)
	case "vault_totalMMFToken":
		return hexutil.EncodeBig(s.sys.Vault.TotalMMFToken()), nil
	case "vault_lastPrice":
		return hexutil.EncodeBig(s.sys.Vault.LastPrice()), nil
	case "vault_version":
		return vault.Version, nil
	case "vault_pause":
		return s.pacSingle(params, s.sys.Vault.Pause)
	case "vault_unpause":
		return s.pacSingle(params, s.sys.Vault.Unpause)
	case "vault_updateFeeReceiver":
		return s.pacAccountPair(params, s.sys.Vault.UpdateFeeReceiver)
	case "vault_updateMintFeeRate":
		return s.vaultUpdateFeeRate(params, s.sys.Vault.UpdateMintFeeRate)
	case "vault_updateRedeemFeeRate":
		return s.vaultUpdateFeeRate(params, s.sys.Vault.UpdateRedeemFeeRate)

	// staking_* methods
	case "staking_stake":
		return s.stakingMove(params, s.sys.Staking.Stake)
	case "staking_unstake":
		return s.stakingMove(params, s.sys.Staking.Unstake)
	case "staking_restake":
		return s.stakingMove(params, s.sys.Staking.Restake)
	case "staking_claimReward":
		return s.stakingMove(params, s.sys.Staking.ClaimReward)
	case "staking_balanceOf":
		return s.stakingQuery(params, s.sys.Staking.BalanceOf)
	case "staking_rewardOf":
		return s.stakingQuery(params, s.sys.Staking.RewardOf)
	case "staking_totalStaked":
		return hexutil.EncodeBig(s.sys.Staking.TotalStaked()), nil
	case "staking_version":
		return staking.Version, nil

	default:
		return nil, &ErrorObject{Code: ErrCodeMethodNotFound, Message: "Method not found"}
	}
}

// parseArgs decodes a positional-parameter array of at least n entries.
func parseArgs(params json.RawMessage, n int) ([]interface{}, *ErrorObject) {
	var args []interface{}
	if err := json.Unmarshal(params, &args); err != nil || len(args) < n {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}
	return args, nil
}

func parseAddress(arg interface{}) (common.Address, *ErrorObject) {
	str, ok := arg.(string)
	if !ok || !common.IsHexAddress(str) {
		return common.Address{}, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid address"}
	}
	return common.HexToAddress(str), nil
}

func parseBig(arg interface{}) (*big.Int, *ErrorObject) {
	str, ok := arg.(string)
	if !ok {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid amount"}
	}
	amount, err := hexutil.DecodeBig(str)
	if err != nil {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid amount format"}
	}
	return amount, nil
}

func parseUint64(arg interface{}) (uint64, *ErrorObject) {
	str, ok := arg.(string)
	if !ok {
		return 0, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid quantity"}
	}
	v, err := hexutil.DecodeUint64(str)
	if err != nil {
		return 0, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid quantity format"}
	}
	return v, nil
}

func parseHash(arg interface{}) (common.Hash, *ErrorObject) {
	str, ok := arg.(string)
	if !ok {
		return common.Hash{}, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid hash"}
	}
	return common.HexToHash(str), nil
}

func (s *Server) pacusdAccounts() (interface{}, *ErrorObject) {
	addrs := make([]string, len(s.sys.Accounts))
	for i, acc := range s.sys.Accounts {
		addrs[i] = acc.Address.Hex()
	}
	return addrs, nil
}

func (s *Server) oracleAddPrice(params json.RawMessage) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 2)
	if rpcErr != nil {
		return nil, rpcErr
	}
	price, rpcErr := parseBig(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	timestamp, rpcErr := parseUint64(args[1])
	if rpcErr != nil {
		return nil, rpcErr
	}

	id, err := s.sys.Oracle.AddPrice(price, timestamp)
	if err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return hexutil.EncodeUint64(id), nil
}

func (s *Server) oracleUpdatePrice(params json.RawMessage) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 2)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseUint64(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	price, rpcErr := parseBig(args[1])
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.sys.Oracle.UpdatePrice(id, price); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

func (s *Server) oracleGetPrice(params json.RawMessage) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	id, rpcErr := parseUint64(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}

	price, err := s.sys.Oracle.GetPrice(id)
	if err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return hexutil.EncodeBig(price), nil
}

func (s *Server) oracleGetLatestPrice() (interface{}, *ErrorObject) {
	price, err := s.sys.Oracle.GetLatestPrice()
	if err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return hexutil.EncodeBig(price), nil
}

func (s *Server) pacBalanceOf(params json.RawMessage) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	return hexutil.EncodeBig(s.sys.Token.GetBalance(addr)), nil
}

func (s *Server) mmfBalanceOf(params json.RawMessage) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	return hexutil.EncodeBig(s.sys.Asset.GetBalance(addr)), nil
}

func (s *Server) pacIsBlacklisted(params json.RawMessage) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.sys.Token.IsBlacklisted(addr), nil
}

func (s *Server) pacIsMinter(params json.RawMessage) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	return s.sys.Token.IsMinter(addr), nil
}

// pacSetAuth handles [caller, txId] authorization methods.
func (s *Server) pacSetAuth(params json.RawMessage, fn func(common.Address, common.Hash) error) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 2)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	txID, rpcErr := parseHash(args[1])
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := fn(caller, txID); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// pacAccountPair handles [caller, account] admin methods.
func (s *Server) pacAccountPair(params json.RawMessage, fn func(common.Address, common.Address) error) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 2)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, rpcErr := parseAddress(args[1])
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := fn(caller, account); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// pacSingle handles [caller] methods.
func (s *Server) pacSingle(params json.RawMessage, fn func(common.Address) error) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := fn(caller); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// vaultSwap handles [caller, txId, amount, to, timestamp] swap methods.
func (s *Server) vaultSwap(params json.RawMessage, fn func(common.Address, common.Hash, *big.Int, common.Address, uint64) error) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 5)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	txID, rpcErr := parseHash(args[1])
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseBig(args[2])
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddress(args[3])
	if rpcErr != nil {
		return nil, rpcErr
	}
	timestamp, rpcErr := parseUint64(args[4])
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := fn(caller, txID, amount, to, timestamp); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

func (s *Server) vaultMintReward(params json.RawMessage) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 2)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	price, rpcErr := parseBig(args[1])
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := s.sys.Vault.MintReward(caller, price); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

func (s *Server) vaultComputeTxID(params json.RawMessage) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 4)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseBig(args[1])
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parseAddress(args[2])
	if rpcErr != nil {
		return nil, rpcErr
	}
	timestamp, rpcErr := parseUint64(args[3])
	if rpcErr != nil {
		return nil, rpcErr
	}

	return s.sys.Vault.ComputeTxID(caller, amount, to, timestamp).Hex(), nil
}

// vaultUpdateFeeRate handles [caller, rate] fee-rate methods.
func (s *Server) vaultUpdateFeeRate(params json.RawMessage, fn func(common.Address, uint64) error) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 2)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	rate, rpcErr := parseUint64(args[1])
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := fn(caller, rate); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// stakingMove handles [caller, amount, timestamp] staking methods.
func (s *Server) stakingMove(params json.RawMessage, fn func(common.Address, *big.Int, uint64) error) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 3)
	if rpcErr != nil {
		return nil, rpcErr
	}
	caller, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseBig(args[1])
	if rpcErr != nil {
		return nil, rpcErr
	}
	timestamp, rpcErr := parseUint64(args[2])
	if rpcErr != nil {
		return nil, rpcErr
	}

	if err := fn(caller, amount, timestamp); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// stakingQuery handles [account] read-only staking methods.
func (s *Server) stakingQuery(params json.RawMessage, fn func(common.Address) *big.Int) (interface{}, *ErrorObject) {
	args, rpcErr := parseArgs(params, 1)
	if rpcErr != nil {
		return nil, rpcErr
	}
	addr, rpcErr := parseAddress(args[0])
	if rpcErr != nil {
		return nil, rpcErr
	}
	return hexutil.EncodeBig(fn(addr)), nil
}
