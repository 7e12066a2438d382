package staking

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pac-network/pacusd-go/pkg/events"
	"github.com/pac-network/pacusd-go/pkg/token"
)

var (
	admin     = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	poolAcct  = common.HexToAddress("0x0000000000000000000000000000000000002002")
	vaultAddr = common.HexToAddress("0x0000000000000000000000000000000000002001")
	alice     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob       = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func newTestLedger(t *testing.T) (*Ledger, *token.Ledger) {
	t.Helper()

	log := events.NewLog()
	tok := token.NewLedger(admin, log)
	s := NewLedger(tok, poolAcct, admin, log)
	require.NoError(t, s.RegisterVault(admin, vaultAddr))
	return s, tok
}

func fund(t *testing.T, tok *token.Ledger, to common.Address, amount int64) {
	t.Helper()
	require.NoError(t, tok.MintReward(admin, big.NewInt(amount), to))
}

func TestStake(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)

	require.NoError(t, s.Stake(alice, big.NewInt(600), 100))

	assert.Equal(t, big.NewInt(600), s.BalanceOf(alice))
	assert.Equal(t, big.NewInt(600), s.TotalStaked())
	assert.Equal(t, big.NewInt(400), tok.GetBalance(alice))
	assert.Equal(t, big.NewInt(600), tok.GetBalance(poolAcct))
}

func TestStake_InsufficientBalance(t *testing.T) {
	s, _ := newTestLedger(t)

	err := s.Stake(alice, big.NewInt(1), 100)
	require.Error(t, err)
	assert.Equal(t, token.ErrInsufficientBalance, err)
	assert.Equal(t, big.NewInt(0), s.TotalStaked())
}

func TestUnstake(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)

	require.NoError(t, s.Stake(alice, big.NewInt(600), 100))
	require.NoError(t, s.Unstake(alice, big.NewInt(200), 200))

	assert.Equal(t, big.NewInt(400), s.BalanceOf(alice))
	assert.Equal(t, big.NewInt(400), s.TotalStaked())
	assert.Equal(t, big.NewInt(600), tok.GetBalance(alice))
}

func TestUnstake_MoreThanStaked(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)

	require.NoError(t, s.Stake(alice, big.NewInt(600), 100))

	err := s.Unstake(alice, big.NewInt(601), 200)
	require.Error(t, err)
	assert.Equal(t, ErrInsufficientStake, err)
}

func TestDistributeReward_Accumulator(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)

	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(50)))

	// accRewardRate += 50 * Precision / 500
	expected := new(big.Int).Div(new(big.Int).Mul(big.NewInt(50), Precision), big.NewInt(500))
	assert.Equal(t, expected, s.AccRewardRate())
	assert.Equal(t, big.NewInt(50), s.RewardOf(alice))
}

func TestDistributeReward_RequiresRegisteredVault(t *testing.T) {
	s, _ := newTestLedger(t)

	err := s.DistributeReward(bob, big.NewInt(50))
	require.Error(t, err)
	assert.Equal(t, ErrNotVault, err)
}

func TestDistributeReward_NoStakers_Retained(t *testing.T) {
	s, tok := newTestLedger(t)

	// Reward arrives with no stake: held in the undistributed reserve.
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(100)))
	assert.Equal(t, big.NewInt(100), s.Undistributed())
	assert.Equal(t, big.NewInt(0), s.AccRewardRate())

	// The next distribution with stakers folds the reserve in.
	fund(t, tok, alice, 1000)
	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(100)))

	assert.Equal(t, big.NewInt(0), s.Undistributed())
	assert.Equal(t, big.NewInt(200), s.RewardOf(alice))
}

func TestRewardFairness_EntryTimeIndependent(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)
	fund(t, tok, bob, 1000)

	// Alice stakes before the first distribution, Bob after it. Each
	// accrues exactly stakedAmount * delta for the distributions it was
	// staked through.
	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(50)))

	require.NoError(t, s.Stake(bob, big.NewInt(500), 200))
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(100)))

	// Alice: 50 (alone) + 50 (half of 100). Bob: 50 (half of 100).
	assert.Equal(t, big.NewInt(100), s.RewardOf(alice))
	assert.Equal(t, big.NewInt(50), s.RewardOf(bob))
}

func TestRestake(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)

	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(50)))

	require.NoError(t, s.Restake(alice, big.NewInt(30), 200))

	assert.Equal(t, big.NewInt(530), s.BalanceOf(alice))
	assert.Equal(t, big.NewInt(530), s.TotalStaked())
	assert.Equal(t, big.NewInt(20), s.RewardOf(alice))

	// Restake moves no tokens; the pool account balance is unchanged.
	assert.Equal(t, big.NewInt(500), tok.GetBalance(poolAcct))
}

func TestRestake_MoreThanReward(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)

	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(50)))

	err := s.Restake(alice, big.NewInt(51), 200)
	require.Error(t, err)
	assert.Equal(t, ErrInsufficientReward, err)
}

func TestClaimReward(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)

	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(50)))

	// The reward tokens must actually sit in the pool account for the
	// claim transfer; the vault normally mints them there.
	fund(t, tok, poolAcct, 50)

	require.NoError(t, s.ClaimReward(alice, big.NewInt(50), 200))
	assert.Equal(t, big.NewInt(550), tok.GetBalance(alice))
	assert.Equal(t, big.NewInt(0), s.RewardOf(alice))
}

func TestClaimReward_MoreThanReward(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)

	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))

	err := s.ClaimReward(alice, big.NewInt(1), 200)
	require.Error(t, err)
	assert.Equal(t, ErrInsufficientReward, err)
}

func TestCheckpoint_RealizesBeforeStakeChange(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)

	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(50)))

	// Unstaking must not forfeit the accrued reward.
	require.NoError(t, s.Unstake(alice, big.NewInt(500), 200))
	assert.Equal(t, big.NewInt(50), s.RewardOf(alice))
	assert.Equal(t, big.NewInt(0), s.BalanceOf(alice))
}

func TestLastDistribution(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)
	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))

	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(50)))
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(70)))

	last, total := s.LastDistribution(vaultAddr)
	assert.Equal(t, big.NewInt(70), last)
	assert.Equal(t, big.NewInt(120), total)
}

func TestSnapshotRevert(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)
	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))

	id := s.Snapshot()
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(50)))
	require.NoError(t, s.Restake(alice, big.NewInt(50), 200))

	s.RevertToSnapshot(id)
	assert.Equal(t, big.NewInt(500), s.BalanceOf(alice))
	assert.Equal(t, big.NewInt(0), s.RewardOf(alice))
	assert.Equal(t, big.NewInt(500), s.TotalStaked())
}

func TestSnapshotRevert_RestoresDistributionRecords(t *testing.T) {
	s, tok := newTestLedger(t)
	fund(t, tok, alice, 1000)
	require.NoError(t, s.Stake(alice, big.NewInt(500), 100))
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(50)))

	id := s.Snapshot()
	require.NoError(t, s.DistributeReward(vaultAddr, big.NewInt(70)))

	s.RevertToSnapshot(id)
	last, total := s.LastDistribution(vaultAddr)
	assert.Equal(t, big.NewInt(50), last)
	assert.Equal(t, big.NewInt(50), total)
}
