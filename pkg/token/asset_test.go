package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetLedger_MintAndTransfer(t *testing.T) {
	a := NewAssetLedger(admin)

	require.NoError(t, a.Mint(admin, alice, big.NewInt(1000)))
	assert.Equal(t, big.NewInt(1000), a.GetTotalSupply())

	require.NoError(t, a.Transfer(alice, bob, big.NewInt(400)))
	assert.Equal(t, big.NewInt(600), a.GetBalance(alice))
	assert.Equal(t, big.NewInt(400), a.GetBalance(bob))
}

func TestAssetLedger_Mint_RequiresAdmin(t *testing.T) {
	a := NewAssetLedger(admin)

	err := a.Mint(alice, alice, big.NewInt(1000))
	require.Error(t, err)
	assert.Equal(t, ErrUnauthorized, err)
}

func TestAssetLedger_Transfer_InsufficientBalance(t *testing.T) {
	a := NewAssetLedger(admin)

	err := a.Transfer(alice, bob, big.NewInt(1))
	require.Error(t, err)
	assert.Equal(t, ErrInsufficientBalance, err)
}

func TestAssetLedger_SnapshotRevert(t *testing.T) {
	a := NewAssetLedger(admin)
	require.NoError(t, a.Mint(admin, alice, big.NewInt(1000)))

	id := a.Snapshot()
	require.NoError(t, a.Transfer(alice, bob, big.NewInt(500)))

	a.RevertToSnapshot(id)
	assert.Equal(t, big.NewInt(1000), a.GetBalance(alice))
	assert.Equal(t, big.NewInt(0), a.GetBalance(bob))
}
