package pool

import "github.com/nhbchain/iptpool/pkg/address"

// Pool is the authoritative in-memory record: configuration, reserves,
// supply, fees, rate, and the pending queue, plus the invariants tying
// them together.
type Pool struct {
	Config Config

	ReserveAssetMint address.Address
	ShareMint        address.Address
	ReserveVault     address.Address

	CurrentExchangeRate  uint64
	TotalShareSupply     uint64
	TotalReserveHoldings uint64
	TotalAccumulatedFees uint64

	// State is the pool's own lifecycle gate (lifecycle.go).
	State LifecycleState

	Queue *Queue
}

// NewPool constructs a freshly initialized pool. The mint/vault addresses
// are populated separately by BindAccounts (init_pool_step2).
func NewPool(cfg Config, reserveAssetMint address.Address) *Pool {
	return &Pool{
		Config:              cfg,
		ReserveAssetMint:    reserveAssetMint,
		CurrentExchangeRate: cfg.InitialExchangeRate,
		State:               StateActive,
		Queue:               NewQueue(cfg.MaxQueueSize),
	}
}

// BindAccounts records the program-owned share-mint and reserve-vault
// addresses derived by init_pool_step2.
func (p *Pool) BindAccounts(shareMint, reserveVault address.Address) {
	p.ShareMint = shareMint
	p.ReserveVault = reserveVault
}

// Snapshot is a read-only copy of the pool's accounting fields, for hosts
// that want to expose state to RPC/telemetry without risking a mutable
// alias into the authoritative record.
type Snapshot struct {
	Config               Config
	ReserveAssetMint     address.Address
	ShareMint            address.Address
	ReserveVault         address.Address
	CurrentExchangeRate  uint64
	TotalShareSupply     uint64
	TotalReserveHoldings uint64
	TotalAccumulatedFees uint64
	State                LifecycleState
	QueueLength          int
}

// Snapshot returns a copy of p's accounting fields.
func (p *Pool) Snapshot() Snapshot {
	return Snapshot{
		Config:               p.Config,
		ReserveAssetMint:     p.ReserveAssetMint,
		ShareMint:            p.ShareMint,
		ReserveVault:         p.ReserveVault,
		CurrentExchangeRate:  p.CurrentExchangeRate,
		TotalShareSupply:     p.TotalShareSupply,
		TotalReserveHoldings: p.TotalReserveHoldings,
		TotalAccumulatedFees: p.TotalAccumulatedFees,
		State:                p.State,
		QueueLength:          p.Queue.Len(),
	}
}

// mustCheckInvariants re-verifies every in-memory invariant this struct is
// responsible for: a positive exchange rate, fees never exceeding the vault
// balance, supply under the cap, and the queue within its bound. The
// vault-balance invariant, which compares against the token ledger, is
// checked by the engine (verifyVaultInvariant) after every operation that
// moves reserves. The mint-supply invariant is not checked anywhere:
// TokenLedger has no supply query. A violation
// here is always a bug, never a user error, so it aborts the process the
// way an unrecoverable assertion failure would in the host environment.
func (p *Pool) mustCheckInvariants() {
	if p.CurrentExchangeRate == 0 {
		panic("pool: exchange-rate invariant violated: current_exchange_rate == 0")
	}
	if p.TotalAccumulatedFees > p.TotalReserveHoldings+p.TotalAccumulatedFees {
		panic("pool: accumulated-fees invariant violated: fees exceed vault balance")
	}
	if p.Config.MaxTotalSupply != 0 && p.TotalShareSupply > p.Config.MaxTotalSupply {
		panic("pool: supply-cap invariant violated: total share supply exceeds cap")
	}
	if uint32(p.Queue.Len()) > p.Queue.Capacity() {
		panic("pool: queue-capacity invariant violated: queue exceeds max size")
	}
}

// applyAdminDeposit records an admin_deposit_reserve.
func (p *Pool) applyAdminDeposit(amount uint64) {
	p.TotalReserveHoldings += amount
	p.mustCheckInvariants()
}

// applyAdminWithdraw records an admin_withdraw_reserve.
func (p *Pool) applyAdminWithdraw(amount uint64) {
	p.TotalReserveHoldings -= amount
	p.mustCheckInvariants()
}

// applyExchangeRateUpdate records update_exchange_rate.
func (p *Pool) applyExchangeRateUpdate(newRate uint64) {
	p.CurrentExchangeRate = newRate
	p.mustCheckInvariants()
}

// applyConfigUpdate records admin_update_config. The queue
// capacity is updated in lockstep so future enqueues see the new bound.
func (p *Pool) applyConfigUpdate(newConfig Config) {
	p.Config = newConfig
	p.Queue.SetCapacity(newConfig.MaxQueueSize)
	p.mustCheckInvariants()
}

// applyDeposit records user_deposit.
func (p *Pool) applyDeposit(netR, feeR, shares uint64) {
	p.TotalReserveHoldings += netR
	p.TotalAccumulatedFees += feeR
	p.TotalShareSupply += shares
	p.mustCheckInvariants()
}

// applySettledWithdraw records the immediate path of user_withdraw, or a
// single executed entry of batch_execute_withdraw.
func (p *Pool) applySettledWithdraw(netR, feeR, shares uint64) {
	p.TotalReserveHoldings -= netR + feeR
	p.TotalAccumulatedFees += feeR
	p.TotalShareSupply -= shares
	p.mustCheckInvariants()
}

// applySetState records admin_set_pool_state, a lifecycle transition.
func (p *Pool) applySetState(newState LifecycleState) {
	p.State = newState
	p.mustCheckInvariants()
}

// applyFeeWithdraw records fee_collector_withdraw.
func (p *Pool) applyFeeWithdraw(amount uint64) {
	p.TotalAccumulatedFees -= amount
	p.mustCheckInvariants()
}
