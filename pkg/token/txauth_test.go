package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestComputeTxID_Deterministic(t *testing.T) {
	vault := common.HexToAddress("0x1111111111111111111111111111111111111111")
	caller := common.HexToAddress("0x2222222222222222222222222222222222222222")
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")
	amount := big.NewInt(1000)

	id1 := ComputeTxID(31337, vault, caller, amount, to, 1700000000)
	id2 := ComputeTxID(31337, vault, caller, amount, to, 1700000000)
	assert.Equal(t, id1, id2)
}

func TestComputeTxID_FieldSensitivity(t *testing.T) {
	vault := common.HexToAddress("0x1111111111111111111111111111111111111111")
	caller := common.HexToAddress("0x2222222222222222222222222222222222222222")
	to := common.HexToAddress("0x3333333333333333333333333333333333333333")
	other := common.HexToAddress("0x4444444444444444444444444444444444444444")
	amount := big.NewInt(1000)

	base := ComputeTxID(31337, vault, caller, amount, to, 1700000000)

	// Any single-field change must produce a different identifier.
	assert.NotEqual(t, base, ComputeTxID(1, vault, caller, amount, to, 1700000000))
	assert.NotEqual(t, base, ComputeTxID(31337, other, caller, amount, to, 1700000000))
	assert.NotEqual(t, base, ComputeTxID(31337, vault, other, amount, to, 1700000000))
	assert.NotEqual(t, base, ComputeTxID(31337, vault, caller, big.NewInt(1001), to, 1700000000))
	assert.NotEqual(t, base, ComputeTxID(31337, vault, caller, amount, other, 1700000000))
	assert.NotEqual(t, base, ComputeTxID(31337, vault, caller, amount, to, 1700000001))
}
