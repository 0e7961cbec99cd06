package pool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhbchain/iptpool/internal/memledger"
	"github.com/nhbchain/iptpool/pkg/address"
	"github.com/nhbchain/iptpool/pool"
)

// testHarness wires one Engine to one memledger.Ledger, bound and
// initialized the same way a host would: init_pool then init_pool_step2.
type testHarness struct {
	t       *testing.T
	engine  *pool.Engine
	ledger  *memledger.Ledger
	admin   address.Address
	oracle  address.Address
	fees    address.Address
	reserve address.Address
}

func newHarness(t *testing.T, cfg pool.Config) *testHarness {
	t.Helper()
	ledger := memledger.New()
	engine := pool.NewEngine(ledger)

	reserveAssetMint := addr(200)
	require.NoError(t, engine.InitPool(cfg.AdminAuthority, cfg, reserveAssetMint))
	require.NoError(t, engine.InitPoolStep2(cfg.AdminAuthority))
	ledger.BindVault(engine.Pool().ReserveVault)

	return &testHarness{
		t:       t,
		engine:  engine,
		ledger:  ledger,
		admin:   cfg.AdminAuthority,
		oracle:  cfg.OracleAuthority,
		fees:    cfg.FeeCollector,
		reserve: reserveAssetMint,
	}
}

// approvePoolAuthority grants the engine's pool authority an allowance over
// user's share balance, the delegated-burn right that lets a queued
// withdrawal settle later without the user re-signing.
func (h *testHarness) approvePoolAuthority(user address.Address, amount uint64) {
	h.ledger.Approve(user, h.engine.PoolAuthority(), amount)
}

// seedShares mints amount of S directly to user on the ledger, bypassing
// user_deposit, and keeps the pool's own total_share_supply counter in
// lockstep — tests that need a user to already hold S (without caring how
// they got it) use this instead of running a full deposit first.
func (h *testHarness) seedShares(user address.Address, amount uint64) {
	h.ledger.MintShares(user, amount)
	h.engine.Pool().TotalShareSupply += amount
}

func baseConfig(depBps, wdBps uint16, rate uint64) pool.Config {
	return pool.Config{
		AdminAuthority:      addr(1),
		OracleAuthority:     addr(2),
		FeeCollector:        addr(3),
		DepositFeeBps:       depBps,
		WithdrawalFeeBps:    wdBps,
		ManagementFeeBps:    0,
		InitialExchangeRate: rate,
		MaxTotalSupply:      0,
		MaxQueueSize:        5,
	}
}

func TestDepositMintsSharesAtCurrentRate(t *testing.T) {
	cfg := baseConfig(0, 100, 1_034_200)
	h := newHarness(t, cfg)

	user := addr(10)
	h.ledger.Credit(user, 10_000_000_000)

	require.NoError(t, h.engine.UserDeposit(user, 10_000_000_000, 0))

	// floor(10_000_000_000 * 1e6 / 1_034_200) = 9_669_309_611.
	snap := h.engine.Pool().Snapshot()
	require.Equal(t, uint64(9_669_309_611), snap.TotalShareSupply)
	require.Equal(t, uint64(10_000_000_000), snap.TotalReserveHoldings)
	require.Equal(t, uint64(0), snap.TotalAccumulatedFees)

	shareBalance, err := h.ledger.BalanceOf(user)
	require.NoError(t, err)
	require.Equal(t, uint64(9_669_309_611), shareBalance)
}

func TestImmediateWithdrawPaysNetAndBooksFee(t *testing.T) {
	cfg := baseConfig(0, 100, 1_034_200)
	h := newHarness(t, cfg)

	user := addr(10)
	h.ledger.Credit(user, 10_000_000_000)
	require.NoError(t, h.engine.UserDeposit(user, 10_000_000_000, 0))
	h.approvePoolAuthority(user, 1_000_000_000)

	require.NoError(t, h.engine.UserWithdraw(user, 1_000_000_000, 0))

	snap := h.engine.Pool().Snapshot()
	require.Equal(t, uint64(10_342_000), snap.TotalAccumulatedFees)

	// User spent all 10k R on the deposit; the withdraw pays back net R.
	require.Equal(t, uint64(1_023_858_000), h.ledger.ReserveBalanceOf(user))
}

// A withdraw that outstrips unearmarked reserves queues instead of
// settling; no tokens move until settlement.
func TestWithdrawQueuesOnReserveShortage(t *testing.T) {
	cfg := baseConfig(0, 0, 1_000_000)
	h := newHarness(t, cfg)

	admin, user2 := h.admin, addr(20)
	h.ledger.Credit(admin, 5_000_000_000)
	require.NoError(t, h.engine.AdminDepositReserve(admin, 5_000_000_000))
	require.NoError(t, h.engine.AdminWithdrawReserve(admin, 4_000_000_000)) // down to 1e9

	h.seedShares(user2, 2_000_000_000)
	h.approvePoolAuthority(user2, 2_000_000_000)

	require.NoError(t, h.engine.UserWithdraw(user2, 2_000_000_000, 0))

	require.Equal(t, 1, h.engine.Pool().Queue.Len())
	require.Equal(t, uint64(0), h.ledger.ReserveBalanceOf(user2)) // no R paid out yet
	allowance, err := h.ledger.AllowanceOf(user2, h.engine.PoolAuthority())
	require.NoError(t, err)
	require.Equal(t, uint64(2_000_000_000), allowance) // allowance untouched
}

// A queued user who disposes of their shares after queuing loses only
// their own slot: the batch skips them and settles the next entry.
func TestBatchSkipsGriefingEntryAndSettlesRest(t *testing.T) {
	cfg := baseConfig(0, 0, 1_000_000)
	h := newHarness(t, cfg)

	admin := h.admin
	h.ledger.Credit(admin, 1_000_000_000)
	require.NoError(t, h.engine.AdminDepositReserve(admin, 1_000_000_000))
	require.NoError(t, h.engine.AdminWithdrawReserve(admin, 1_000_000_000)) // reserves to 0

	attacker, user1 := addr(30), addr(31)
	h.seedShares(attacker, 1_000_000_000)
	h.approvePoolAuthority(attacker, 1_000_000_000)
	require.NoError(t, h.engine.UserWithdraw(attacker, 1_000_000_000, 0))

	h.seedShares(user1, 1_000_000_000)
	h.approvePoolAuthority(user1, 1_000_000_000)
	require.NoError(t, h.engine.UserWithdraw(user1, 1_000_000_000, 0))
	require.Equal(t, 2, h.engine.Pool().Queue.Len())

	// Attacker disposes of their shares after queuing (the grief).
	require.NoError(t, h.ledger.BurnSharesFrom(attacker, 1_000_000_000))

	// Admin refills reserves enough to pay user1.
	h.ledger.Credit(admin, 2_000_000_000)
	require.NoError(t, h.engine.AdminDepositReserve(admin, 2_000_000_000))

	var events []pool.Event
	h.engine.SetEmitter(recordingEmitter{events: &events})

	err := h.engine.BatchExecuteWithdraw(addr(99), []uint64{1_000_000_000, 1_000_000_000}, []pool.BatchAccountRef{
		{ShareAccount: attacker, ReserveAccount: attacker},
		{ShareAccount: user1, ReserveAccount: user1},
	})
	require.NoError(t, err)
	require.Equal(t, 0, h.engine.Pool().Queue.Len())

	var skip pool.WithdrawSkipped
	var exec pool.WithdrawExecuted
	var summary pool.BatchWithdrawExecuted
	for _, ev := range events {
		switch v := ev.(type) {
		case pool.WithdrawSkipped:
			skip = v
		case pool.WithdrawExecuted:
			exec = v
		case pool.BatchWithdrawExecuted:
			summary = v
		}
	}
	require.Equal(t, attacker, skip.User)
	require.Equal(t, pool.SkipInsufficientBalance, skip.Reason)
	require.Equal(t, user1, exec.User)
	require.Equal(t, 1, summary.Successful)
	require.Equal(t, 1, summary.Skipped)
}

func TestFeeCollectionCannotExceedAccumulatedFees(t *testing.T) {
	cfg := baseConfig(0, 100, 1_034_200)
	h := newHarness(t, cfg)

	user := addr(10)
	h.ledger.Credit(user, 10_000_000_000)
	require.NoError(t, h.engine.UserDeposit(user, 10_000_000_000, 0))
	h.approvePoolAuthority(user, 1_000_000_000)
	require.NoError(t, h.engine.UserWithdraw(user, 1_000_000_000, 0))
	require.Equal(t, uint64(10_342_000), h.engine.Pool().TotalAccumulatedFees)

	err := h.engine.FeeCollectorWithdraw(h.fees, 10_342_001)
	require.Error(t, err)
	require.Equal(t, pool.ErrInsufficientAccumulatedFees, pool.KindOf(err))

	require.NoError(t, h.engine.FeeCollectorWithdraw(h.fees, 10_342_000))
	require.Equal(t, uint64(0), h.engine.Pool().TotalAccumulatedFees)

	err = h.engine.FeeCollectorWithdraw(h.fees, 1)
	require.Error(t, err)
	require.Equal(t, pool.ErrInsufficientAccumulatedFees, pool.KindOf(err))
}

func TestSupplyCapRejectsOversizedDeposit(t *testing.T) {
	cfg := baseConfig(100, 0, 1_000_000)
	cfg.MaxTotalSupply = 1_000_000_000
	h := newHarness(t, cfg)

	user := addr(10)
	h.ledger.Credit(user, 2_000_000_000)

	err := h.engine.UserDeposit(user, 2_000_000_000, 0)
	require.Error(t, err)
	require.Equal(t, pool.ErrMaxTotalSupplyExceeded, pool.KindOf(err))
}

func TestUpdateExchangeRateRejectsNoOp(t *testing.T) {
	cfg := baseConfig(0, 0, 1_000_000)
	h := newHarness(t, cfg)

	err := h.engine.UpdateExchangeRate(h.oracle, 1_000_000)
	require.Error(t, err)
	require.Equal(t, pool.ErrInvalidExchangeRate, pool.KindOf(err))
}

func TestCancelWithdrawalRequestRestoresQueueWithNoTokenMovement(t *testing.T) {
	cfg := baseConfig(0, 0, 1_000_000)
	h := newHarness(t, cfg)

	user := addr(10)
	h.ledger.MintShares(user, 1_000_000_000)
	h.approvePoolAuthority(user, 1_000_000_000)
	require.NoError(t, h.engine.UserWithdrawalRequest(user, 1_000_000_000, 0))
	require.Equal(t, 1, h.engine.Pool().Queue.Len())

	require.NoError(t, h.engine.CancelWithdrawalRequest(user))
	require.Equal(t, 0, h.engine.Pool().Queue.Len())

	// No token movement occurred: the user's shares are untouched.
	shareBalance, err := h.ledger.BalanceOf(user)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), shareBalance)
}

func TestQueueFullRejectsNextWithdraw(t *testing.T) {
	cfg := baseConfig(0, 0, 1_000_000)
	cfg.MaxQueueSize = 1
	h := newHarness(t, cfg)

	first := addr(10)
	h.ledger.MintShares(first, 1_000_000_000)
	h.approvePoolAuthority(first, 1_000_000_000)
	require.NoError(t, h.engine.UserWithdrawalRequest(first, 1_000_000_000, 0))

	second := addr(11)
	h.ledger.MintShares(second, 1_000_000_000)
	h.approvePoolAuthority(second, 1_000_000_000)
	err := h.engine.UserWithdrawalRequest(second, 1_000_000_000, 0)
	require.Error(t, err)
	require.Equal(t, pool.ErrQueueFull, pool.KindOf(err))
}

func TestFullFeeBpsZeroesSharesAndRejectsSlippage(t *testing.T) {
	cfg := baseConfig(10_000, 0, 1_000_000)
	h := newHarness(t, cfg)

	user := addr(10)
	h.ledger.Credit(user, 1_000_000_000)
	err := h.engine.UserDeposit(user, 1_000_000_000, 1)
	require.Error(t, err)
	require.Equal(t, pool.ErrSlippageExceeded, pool.KindOf(err))
}

func TestUnauthorizedAdminRejected(t *testing.T) {
	cfg := baseConfig(0, 0, 1_000_000)
	h := newHarness(t, cfg)

	err := h.engine.AdminDepositReserve(addr(99), 100)
	require.Error(t, err)
	require.Equal(t, pool.ErrUnauthorizedAdmin, pool.KindOf(err))
}

// max_total_supply = 0 means unlimited: two large deposits totalling well
// past 2^40 raw S units both succeed.
func TestUnlimitedSupplyPermitsLargeDeposits(t *testing.T) {
	cfg := baseConfig(0, 0, 1_000_000)
	h := newHarness(t, cfg)

	big := uint64(1) << 41
	user1, user2 := addr(10), addr(11)
	h.ledger.Credit(user1, big)
	h.ledger.Credit(user2, big)

	require.NoError(t, h.engine.UserDeposit(user1, big, 0))
	require.NoError(t, h.engine.UserDeposit(user2, big, 0))

	require.Equal(t, 2*big, h.engine.Pool().TotalShareSupply)
}

// Depositing r then withdrawing every received share at the same rate pays
// the user r scaled by both fee factors, exact here because the rate is
// 1.0 so no conversion dust is shaved off.
func TestDepositWithdrawRoundTrip(t *testing.T) {
	cfg := baseConfig(50, 100, 1_000_000)
	h := newHarness(t, cfg)

	user := addr(10)
	h.ledger.Credit(user, 1_000_000_000)
	require.NoError(t, h.engine.UserDeposit(user, 1_000_000_000, 0))

	shares, err := h.ledger.BalanceOf(user)
	require.NoError(t, err)
	require.Equal(t, uint64(995_000_000), shares)

	h.approvePoolAuthority(user, shares)
	require.NoError(t, h.engine.UserWithdraw(user, shares, 0))

	// 1e9 * (1 - 0.005) * (1 - 0.01) = 985_050_000.
	require.Equal(t, uint64(985_050_000), h.ledger.ReserveBalanceOf(user))
}

// Admin reserve withdrawals may not encroach on the earmarked fee pot even
// when the vault physically holds enough.
func TestAdminWithdrawCannotEncroachOnFees(t *testing.T) {
	cfg := baseConfig(100, 0, 1_000_000)
	h := newHarness(t, cfg)

	user := addr(10)
	h.ledger.Credit(user, 1_000_000_000)
	require.NoError(t, h.engine.UserDeposit(user, 1_000_000_000, 0))
	require.Equal(t, uint64(990_000_000), h.engine.Pool().TotalReserveHoldings)
	require.Equal(t, uint64(10_000_000), h.engine.Pool().TotalAccumulatedFees)

	err := h.engine.AdminWithdrawReserve(h.admin, 990_000_001)
	require.Error(t, err)
	require.Equal(t, pool.ErrInsufficientReserves, pool.KindOf(err))

	require.NoError(t, h.engine.AdminWithdrawReserve(h.admin, 990_000_000))
}

func TestAdminUpdateConfigRejectsShrinkBelowQueueLength(t *testing.T) {
	cfg := baseConfig(0, 0, 1_000_000)
	h := newHarness(t, cfg)

	for _, user := range []address.Address{addr(10), addr(11)} {
		h.ledger.MintShares(user, 1_000_000)
		h.approvePoolAuthority(user, 1_000_000)
		require.NoError(t, h.engine.UserWithdrawalRequest(user, 1_000_000, 0))
	}

	shrunk := cfg
	shrunk.MaxQueueSize = 1
	err := h.engine.AdminUpdateConfig(h.admin, shrunk)
	require.Error(t, err)
	require.Equal(t, pool.ErrInvalidConfigParameter, pool.KindOf(err))

	shrunk.MaxQueueSize = 2
	require.NoError(t, h.engine.AdminUpdateConfig(h.admin, shrunk))
	require.Equal(t, uint32(2), h.engine.Pool().Config.MaxQueueSize)
}

func TestInitPoolValidatesConfig(t *testing.T) {
	valid := baseConfig(0, 0, 1_000_000)

	cases := []struct {
		name   string
		mutate func(*pool.Config)
		kind   pool.ErrorKind
	}{
		{"null admin", func(c *pool.Config) { c.AdminAuthority = address.Null }, pool.ErrInvalidAuthority},
		{"null oracle", func(c *pool.Config) { c.OracleAuthority = address.Null }, pool.ErrInvalidAuthority},
		{"null fee collector", func(c *pool.Config) { c.FeeCollector = address.Null }, pool.ErrInvalidAuthority},
		{"deposit fee over 100%", func(c *pool.Config) { c.DepositFeeBps = 10_001 }, pool.ErrInvalidFeeRate},
		{"zero initial rate", func(c *pool.Config) { c.InitialExchangeRate = 0 }, pool.ErrInvalidExchangeRate},
		{"zero queue size", func(c *pool.Config) { c.MaxQueueSize = 0 }, pool.ErrInvalidConfigParameter},
		{"queue size over ceiling", func(c *pool.Config) { c.MaxQueueSize = 21 }, pool.ErrInvalidConfigParameter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			engine := pool.NewEngine(memledger.New())
			err := engine.InitPool(cfg.AdminAuthority, cfg, addr(200))
			require.Error(t, err)
			require.Equal(t, tc.kind, pool.KindOf(err))
		})
	}
}

func TestZeroAmountsRejected(t *testing.T) {
	cfg := baseConfig(0, 0, 1_000_000)
	h := newHarness(t, cfg)

	require.Equal(t, pool.ErrZeroAmountNotAllowed, pool.KindOf(h.engine.AdminDepositReserve(h.admin, 0)))
	require.Equal(t, pool.ErrZeroAmountNotAllowed, pool.KindOf(h.engine.AdminWithdrawReserve(h.admin, 0)))
	require.Equal(t, pool.ErrInvalidAmount, pool.KindOf(h.engine.UserDeposit(addr(10), 0, 0)))
	require.Equal(t, pool.ErrInvalidAmount, pool.KindOf(h.engine.UserWithdraw(addr(10), 0, 0)))
	require.Equal(t, pool.ErrInvalidAmount, pool.KindOf(h.engine.FeeCollectorWithdraw(h.fees, 0)))
}

func TestImmediateWithdrawRequiresApproval(t *testing.T) {
	cfg := baseConfig(0, 0, 1_000_000)
	h := newHarness(t, cfg)

	h.ledger.Credit(h.admin, 5_000_000_000)
	require.NoError(t, h.engine.AdminDepositReserve(h.admin, 5_000_000_000))

	user := addr(10)
	h.seedShares(user, 1_000_000_000)

	err := h.engine.UserWithdraw(user, 1_000_000_000, 0)
	require.Error(t, err)
	require.Equal(t, pool.ErrInsufficientApproval, pool.KindOf(err))
}

// After any mix of operations, the vault balance equals unearmarked
// holdings plus accumulated fees.
func TestVaultBalanceMatchesHoldingsPlusFees(t *testing.T) {
	cfg := baseConfig(100, 100, 1_034_200)
	h := newHarness(t, cfg)

	user := addr(10)
	h.ledger.Credit(user, 10_000_000_000)
	require.NoError(t, h.engine.UserDeposit(user, 10_000_000_000, 0))
	h.approvePoolAuthority(user, 2_000_000_000)
	require.NoError(t, h.engine.UserWithdraw(user, 2_000_000_000, 0))
	require.NoError(t, h.engine.FeeCollectorWithdraw(h.fees, 1_000_000))

	snap := h.engine.Pool().Snapshot()
	vault, err := h.ledger.BalanceOf(h.engine.Pool().ReserveVault)
	require.NoError(t, err)
	require.Equal(t, snap.TotalReserveHoldings+snap.TotalAccumulatedFees, vault)
}

type recordingEmitter struct {
	events *[]pool.Event
}

func (r recordingEmitter) Emit(ev pool.Event) {
	*r.events = append(*r.events, ev)
}
