package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AuthState is the lifecycle state of a transaction identifier.
type AuthState uint8

// Transaction identifier states.
const (
	AuthUnset AuthState = iota
	AuthAuthorized
	AuthExecuted
)

// ComputeTxID derives the deterministic transaction identifier binding a
// mint or burn to its full parameter tuple.
// Layout: uint256(chainID) || vault(20) || caller(20) || uint256(amount) || to(20) || uint256(timestamp).
func ComputeTxID(chainID uint64, vault, caller common.Address, amount *big.Int, to common.Address, timestamp uint64) common.Hash {
	data := make([]byte, 0, 32+20+20+32+20+32)
	data = append(data, common.LeftPadBytes(new(big.Int).SetUint64(chainID).Bytes(), 32)...)
	data = append(data, vault.Bytes()...)
	data = append(data, caller.Bytes()...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	data = append(data, to.Bytes()...)
	data = append(data, common.LeftPadBytes(new(big.Int).SetUint64(timestamp).Bytes(), 32)...)
	return crypto.Keccak256Hash(data)
}
