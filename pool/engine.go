// Package pool implements the accounting and queue state machine: pool
// state, the authority guard, the bounded withdrawal queue, and the public
// operations that mutate them, orchestrated the way a lending engine
// orchestrates account mutations through a handful of host-provided
// collaborators.
package pool

import (
	"github.com/nhbchain/iptpool/pkg/address"
	"github.com/nhbchain/iptpool/pkg/feemath"
	"github.com/nhbchain/iptpool/pkg/fixedpoint"
)

const maxBatchSize = 10

// Engine orchestrates the twelve public operations, plus the supplemented
// admin_set_pool_state, against a single Pool. A
// host keeps one Engine per deployed pool, the same way native/lending keeps
// one Engine configured with a single poolID at a time.
type Engine struct {
	pool          *Pool
	poolAuthority address.Address
	ledger        TokenLedger
	emitter       Emitter
	pauses        PauseView
	metrics       MetricsRecorder

	now  func() uint64
	tick uint64
}

// MetricsRecorder is an optional observability sink. A nil recorder is a
// no-op; it is never consulted for correctness.
type MetricsRecorder interface {
	ObserveOperation(name string, ok bool)
	SetQueueDepth(depth int)
	SetAccumulatedFees(amount uint64)
}

// NewEngine constructs an Engine bound to ledger. The pool itself is created
// by InitPool.
func NewEngine(ledger TokenLedger) *Engine {
	return &Engine{ledger: ledger, emitter: NoopEmitter{}}
}

// SetEmitter wires a structured event sink.
func (e *Engine) SetEmitter(em Emitter) {
	if em == nil {
		em = NoopEmitter{}
	}
	e.emitter = em
}

// SetPauses wires an optional circuit breaker.
func (e *Engine) SetPauses(p PauseView) { e.pauses = p }

// SetMetrics wires an optional ambient metrics recorder.
func (e *Engine) SetMetrics(m MetricsRecorder) { e.metrics = m }

// SetClock wires the host's monotonic tick (wall clock or slot height)
// stamped onto queued withdrawals. Without one the engine falls back to a
// per-engine counter; the tick is observational only and never drives
// ordering or settlement.
func (e *Engine) SetClock(now func() uint64) { e.now = now }

func (e *Engine) tickNow() uint64 {
	if e.now != nil {
		return e.now()
	}
	e.tick++
	return e.tick
}

// Pool returns the underlying pool record, or nil before InitPool.
func (e *Engine) Pool() *Pool { return e.pool }

// PoolAuthority returns the deterministic program authority address bound
// at InitPool time, or the zero address before that.
func (e *Engine) PoolAuthority() address.Address { return e.poolAuthority }

func (e *Engine) emit(ev Event) {
	if e.emitter != nil {
		e.emitter.Emit(ev)
	}
}

func (e *Engine) observe(name string, errp *error) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveOperation(name, *errp == nil)
	if e.pool != nil {
		e.metrics.SetQueueDepth(e.pool.Queue.Len())
		e.metrics.SetAccumulatedFees(e.pool.TotalAccumulatedFees)
	}
}

// verifyVaultInvariant re-checks that reserve_vault.balance equals
// total_reserve_holdings + total_accumulated_fees against the ledger. Any
// mismatch is a bug in the host's token accounting, not a user error, so it
// aborts the process the same way Pool.mustCheckInvariants does for the
// in-memory invariants.
func (e *Engine) verifyVaultInvariant() {
	balance, err := e.ledger.BalanceOf(e.pool.ReserveVault)
	if err != nil {
		panic("pool: failed to read reserve vault balance while checking vault-balance invariant: " + err.Error())
	}
	if balance != e.pool.TotalReserveHoldings+e.pool.TotalAccumulatedFees {
		panic("pool: vault-balance invariant violated: vault balance diverges from tracked reserves and fees")
	}
}

// --- (a) init_pool ----------------------------------------------------

// InitPool creates a Pool with the given config. The signer
// must equal cfg.AdminAuthority, since no pool record exists yet to check
// against.
func (e *Engine) InitPool(signer address.Address, cfg Config, reserveAssetMint address.Address) (err error) {
	defer e.observe("init_pool", &err)
	if e.pool != nil {
		return newError(ErrInvalidConfigParameter, "pool already initialized")
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	if signer != cfg.AdminAuthority {
		return newError(ErrUnauthorizedAdmin, "signer is not the admin authority named in config")
	}
	if reserveAssetMint.IsNull() {
		return newError(ErrInvalidAuthority, "reserve asset mint must be non-null")
	}

	poolID := address.DerivePoolRecord(reserveAssetMint)
	e.pool = NewPool(cfg, reserveAssetMint)
	e.poolAuthority = address.DerivePoolAuthority(poolID)

	e.emit(PoolInitialized{PoolID: poolID, Config: cfg})
	return nil
}

// --- (b) init_pool_step2 ----------------------------------------------

// InitPoolStep2 creates the share mint and reserve vault addresses and
// records them on the pool.
func (e *Engine) InitPoolStep2(signer address.Address) (err error) {
	defer e.observe("init_pool_step2", &err)
	if e.pool == nil {
		return newError(ErrInvalidConfigParameter, "pool not initialized")
	}
	if err := checkAuthority(e.pool.Config, RoleAdmin, signer); err != nil {
		return err
	}
	if !e.pool.ShareMint.IsNull() || !e.pool.ReserveVault.IsNull() {
		return newError(ErrInvalidConfigParameter, "accounts already bound")
	}
	poolID := address.DerivePoolRecord(e.pool.ReserveAssetMint)
	shareMint := address.DeriveShareMint(poolID)
	reserveVault := address.DeriveReserveVault(poolID)
	e.pool.BindAccounts(shareMint, reserveVault)
	return nil
}

// --- (c) admin_deposit_reserve ------------------------------------------

// AdminDepositReserve transfers amount R from the admin to the vault
// without minting S.
func (e *Engine) AdminDepositReserve(signer address.Address, amount uint64) (err error) {
	defer e.observe("admin_deposit_reserve", &err)
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := checkAuthority(e.pool.Config, RoleAdmin, signer); err != nil {
		return err
	}
	if err := guardPaused(e.pauses); err != nil {
		return err
	}
	if amount == 0 {
		return newError(ErrZeroAmountNotAllowed, "amount must be positive")
	}

	if err := e.ledger.TransferReserveIn(signer, amount); err != nil {
		return wrapLedgerErr(err)
	}
	e.pool.applyAdminDeposit(amount)
	e.verifyVaultInvariant()
	e.emit(ReserveDeposited{By: signer, Amount: amount})
	return nil
}

// --- (d) admin_withdraw_reserve ------------------------------------------

// AdminWithdrawReserve transfers amount R out of the vault without touching
// accumulated fees.
func (e *Engine) AdminWithdrawReserve(signer address.Address, amount uint64) (err error) {
	defer e.observe("admin_withdraw_reserve", &err)
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := checkAuthority(e.pool.Config, RoleAdmin, signer); err != nil {
		return err
	}
	if err := guardPaused(e.pauses); err != nil {
		return err
	}
	if amount == 0 {
		return newError(ErrZeroAmountNotAllowed, "amount must be positive")
	}
	if amount > e.pool.TotalReserveHoldings {
		return newError(ErrInsufficientReserves, "amount exceeds unearmarked reserves")
	}

	if err := e.ledger.TransferReserveOut(signer, amount); err != nil {
		return wrapLedgerErr(err)
	}
	e.pool.applyAdminWithdraw(amount)
	e.verifyVaultInvariant()
	e.emit(ReserveWithdrawn{By: signer, Amount: amount})
	return nil
}

// --- (e) update_exchange_rate --------------------------------------------

// UpdateExchangeRate sets a new exogenous mark.
func (e *Engine) UpdateExchangeRate(signer address.Address, newRate uint64) (err error) {
	defer e.observe("update_exchange_rate", &err)
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := checkAuthority(e.pool.Config, RoleOracle, signer); err != nil {
		return err
	}
	if newRate == 0 {
		return newError(ErrInvalidExchangeRate, "rate must be positive")
	}
	if newRate == e.pool.CurrentExchangeRate {
		return newError(ErrInvalidExchangeRate, "rate is unchanged")
	}

	old := e.pool.CurrentExchangeRate
	e.pool.applyExchangeRateUpdate(newRate)
	e.emit(ExchangeRateUpdated{Old: old, New: newRate})
	return nil
}

// --- (f) admin_update_config ----------------------------------------------

// AdminUpdateConfig revalidates and atomically replaces the config.
func (e *Engine) AdminUpdateConfig(signer address.Address, newConfig Config) (err error) {
	defer e.observe("admin_update_config", &err)
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := checkAuthority(e.pool.Config, RoleAdmin, signer); err != nil {
		return err
	}
	if err := newConfig.validate(); err != nil {
		return err
	}
	if uint32(e.pool.Queue.Len()) > newConfig.MaxQueueSize {
		return newError(ErrInvalidConfigParameter, "new max queue size is below current queue length")
	}

	old := e.pool.Config
	e.pool.applyConfigUpdate(newConfig)
	e.emit(ConfigUpdated{Old: old, New: newConfig})
	return nil
}

// --- admin_set_pool_state --------------------------------------------------

// AdminSetPoolState transitions the pool's own lifecycle gate. It never
// overrides the invariants the other operations enforce.
func (e *Engine) AdminSetPoolState(signer address.Address, newState LifecycleState) (err error) {
	defer e.observe("admin_set_pool_state", &err)
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := checkAuthority(e.pool.Config, RoleAdmin, signer); err != nil {
		return err
	}

	old := e.pool.State
	e.pool.applySetState(newState)
	e.emit(PoolStateChanged{Old: old, New: newState})
	return nil
}

// --- (g) user_deposit -----------------------------------------------------

// UserDeposit converts reserveIn R to S at the current rate, less the
// deposit fee.
func (e *Engine) UserDeposit(signer address.Address, reserveIn uint64, minSharesOut uint64) (err error) {
	defer e.observe("user_deposit", &err)
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := guardPaused(e.pauses); err != nil {
		return err
	}
	if err := e.pool.State.validateForOperation(true); err != nil {
		return err
	}
	if reserveIn == 0 {
		return newError(ErrInvalidAmount, "reserve_in must be positive")
	}

	netR, feeR, ferr := feemath.ApplyBps(reserveIn, e.pool.Config.DepositFeeBps)
	if ferr != nil {
		return newError(ErrInvalidFeeRate, "%s", ferr)
	}
	shares, cerr := fixedpoint.RToS(netR, e.pool.CurrentExchangeRate)
	if cerr != nil {
		return convertFixedpointErr(cerr)
	}
	if shares < minSharesOut {
		return newError(ErrSlippageExceeded, "shares %d below minimum %d", shares, minSharesOut)
	}
	if e.pool.Config.MaxTotalSupply != 0 && e.pool.TotalShareSupply+shares > e.pool.Config.MaxTotalSupply {
		return newError(ErrMaxTotalSupplyExceeded, "deposit would exceed max total supply")
	}

	if err := e.ledger.TransferReserveIn(signer, reserveIn); err != nil {
		return wrapLedgerErr(err)
	}
	if err := e.ledger.MintShares(signer, shares); err != nil {
		return wrapLedgerErr(err)
	}
	e.pool.applyDeposit(netR, feeR, shares)
	e.verifyVaultInvariant()
	e.emit(UserDeposited{User: signer, ReserveIn: reserveIn, NetR: netR, FeeR: feeR, SharesOut: shares})
	return nil
}

// --- (h) user_withdraw ------------------------------------------------

// UserWithdraw burns sharesIn for R, immediately if reserves allow or by
// queuing otherwise.
func (e *Engine) UserWithdraw(signer address.Address, sharesIn uint64, minReserveOut uint64) (err error) {
	defer e.observe("user_withdraw", &err)
	netR, feeR, verr := e.quoteWithdraw(sharesIn, minReserveOut)
	if verr != nil {
		return verr
	}

	if netR+feeR <= e.pool.TotalReserveHoldings {
		return e.settleImmediateWithdraw(signer, sharesIn, netR, feeR)
	}
	return e.enqueueWithdraw(signer, sharesIn, minReserveOut)
}

// --- (i) user_withdrawal_request ----------------------------------------

// UserWithdrawalRequest always takes the queued path, regardless of
// reserve sufficiency.
func (e *Engine) UserWithdrawalRequest(signer address.Address, sharesIn uint64, minReserveOut uint64) (err error) {
	defer e.observe("user_withdrawal_request", &err)
	if _, _, verr := e.quoteWithdraw(sharesIn, minReserveOut); verr != nil {
		return verr
	}
	return e.enqueueWithdraw(signer, sharesIn, minReserveOut)
}

// quoteWithdraw runs the shared validation both (h) and (i) perform before
// branching: engine readiness, pause guard, non-zero shares, and the
// slippage floor.
func (e *Engine) quoteWithdraw(sharesIn uint64, minReserveOut uint64) (netR, feeR uint64, err error) {
	if err := e.requireReady(); err != nil {
		return 0, 0, err
	}
	if err := guardPaused(e.pauses); err != nil {
		return 0, 0, err
	}
	if err := e.pool.State.validateForOperation(false); err != nil {
		return 0, 0, err
	}
	if sharesIn == 0 {
		return 0, 0, newError(ErrInvalidAmount, "shares_in must be positive")
	}
	grossR, cerr := fixedpoint.SToR(sharesIn, e.pool.CurrentExchangeRate)
	if cerr != nil {
		return 0, 0, convertFixedpointErr(cerr)
	}
	net, fee, ferr := feemath.ApplyBps(grossR, e.pool.Config.WithdrawalFeeBps)
	if ferr != nil {
		return 0, 0, newError(ErrInvalidFeeRate, "%s", ferr)
	}
	if net < minReserveOut {
		return 0, 0, newError(ErrSlippageExceeded, "net %d below minimum %d", net, minReserveOut)
	}
	return net, fee, nil
}

func (e *Engine) settleImmediateWithdraw(signer address.Address, sharesIn, netR, feeR uint64) error {
	allowance, err := e.ledger.AllowanceOf(signer, e.poolAuthority)
	if err != nil {
		return wrapLedgerErr(err)
	}
	if allowance < sharesIn {
		return newError(ErrInsufficientApproval, "pool authority allowance %d below required %d", allowance, sharesIn)
	}

	if err := e.ledger.BurnSharesFrom(signer, sharesIn); err != nil {
		return wrapLedgerErr(err)
	}
	if err := e.ledger.TransferReserveOut(signer, netR); err != nil {
		return wrapLedgerErr(err)
	}
	e.pool.applySettledWithdraw(netR, feeR, sharesIn)
	e.verifyVaultInvariant()
	e.emit(WithdrawExecuted{User: signer, Shares: sharesIn, NetR: netR, FeeR: feeR})
	return nil
}

func (e *Engine) enqueueWithdraw(signer address.Address, sharesIn uint64, minReserveOut uint64) error {
	allowance, err := e.ledger.AllowanceOf(signer, e.poolAuthority)
	if err != nil {
		return wrapLedgerErr(err)
	}
	if allowance < sharesIn {
		return newError(ErrInsufficientApproval, "pool authority allowance %d below required %d", allowance, sharesIn)
	}

	if err := e.pool.Queue.Enqueue(PendingWithdrawal{
		User:          signer,
		ShareAmount:   sharesIn,
		MinReserveOut: minReserveOut,
		EnqueuedAt:    e.tickNow(),
	}); err != nil {
		return err
	}
	e.emit(WithdrawalQueued{User: signer, Shares: sharesIn, Position: e.pool.Queue.Len() - 1})
	return nil
}

// --- (j) cancel_withdrawal_request ----------------------------------------

// CancelWithdrawalRequest removes the signer's own queue entry, with no
// token side effects.
func (e *Engine) CancelWithdrawalRequest(signer address.Address) (err error) {
	defer e.observe("cancel_withdrawal_request", &err)
	if err := e.requireReady(); err != nil {
		return err
	}
	idx := e.pool.Queue.FindByUser(signer)
	if idx < 0 {
		return newError(ErrInvalidUserAccount, "no queued withdrawal for signer")
	}
	e.pool.Queue.RemoveAt(idx)
	e.emit(WithdrawalCancelled{User: signer})
	return nil
}

// --- (k) batch_execute_withdraw -------------------------------------------

// BatchAccountRef names the share-account/reserve-account pair the host
// provides out of band for one position of a settlement batch.
type BatchAccountRef struct {
	ShareAccount   address.Address
	ReserveAccount address.Address
}

// BatchExecuteWithdraw is the settlement procedure. amounts
// and accounts must have equal length, matched 1:1 against the front of the
// queue.
func (e *Engine) BatchExecuteWithdraw(signer address.Address, amounts []uint64, accounts []BatchAccountRef) (err error) {
	defer e.observe("batch_execute_withdraw", &err)
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := guardPaused(e.pauses); err != nil {
		return err
	}
	if err := e.pool.State.validateForOperation(false); err != nil {
		return err
	}
	if len(amounts) == 0 {
		return newError(ErrEmptyWithdrawalBatch, "batch must be non-empty")
	}
	if len(amounts) > maxBatchSize {
		return newError(ErrBatchSizeTooLarge, "batch size %d exceeds max %d", len(amounts), maxBatchSize)
	}
	if len(accounts) != len(amounts) {
		return newError(ErrInvalidAccountsCount, "expected %d account pairs, got %d", len(amounts), len(accounts))
	}
	if len(amounts) > e.pool.Queue.Len() {
		return newError(ErrEmptyWithdrawalBatch, "batch size exceeds queue length")
	}

	successful, skipped := 0, 0
	for i := 0; i < len(amounts); i++ {
		entry, ok := e.pool.Queue.Front()
		if !ok {
			break
		}

		if accounts[i].ShareAccount != entry.User || accounts[i].ReserveAccount != entry.User || amounts[i] != entry.ShareAmount {
			e.pool.Queue.PopFront()
			skipped++
			e.emit(WithdrawSkipped{User: entry.User, Reason: SkipAccountMismatch})
			continue
		}

		balance, berr := e.ledger.BalanceOf(entry.User)
		if berr != nil {
			return wrapLedgerErr(berr)
		}
		if balance < entry.ShareAmount {
			e.pool.Queue.PopFront()
			skipped++
			e.emit(WithdrawSkipped{User: entry.User, Reason: SkipInsufficientBalance})
			continue
		}

		allowance, aerr := e.ledger.AllowanceOf(entry.User, e.poolAuthority)
		if aerr != nil {
			return wrapLedgerErr(aerr)
		}
		if allowance < entry.ShareAmount {
			e.pool.Queue.PopFront()
			skipped++
			e.emit(WithdrawSkipped{User: entry.User, Reason: SkipInsufficientApproval})
			continue
		}

		grossR, cerr := fixedpoint.SToR(entry.ShareAmount, e.pool.CurrentExchangeRate)
		if cerr != nil {
			return convertFixedpointErr(cerr)
		}
		netR, feeR, ferr := feemath.ApplyBps(grossR, e.pool.Config.WithdrawalFeeBps)
		if ferr != nil {
			return newError(ErrInvalidFeeRate, "%s", ferr)
		}
		if netR < entry.MinReserveOut {
			e.pool.Queue.PopFront()
			skipped++
			e.emit(WithdrawSkipped{User: entry.User, Reason: SkipSlippageExceeded})
			continue
		}

		if netR+feeR > e.pool.TotalReserveHoldings {
			// Pool-wide liquidity shortfall: halt at this position without
			// touching the entry. The already processed prefix stays
			// committed; the rest stay queued.
			break
		}

		if err := e.ledger.BurnSharesFrom(entry.User, entry.ShareAmount); err != nil {
			return wrapLedgerErr(err)
		}
		if err := e.ledger.TransferReserveOut(entry.User, netR); err != nil {
			return wrapLedgerErr(err)
		}
		e.pool.applySettledWithdraw(netR, feeR, entry.ShareAmount)
		e.verifyVaultInvariant()
		e.pool.Queue.PopFront()
		successful++
		e.emit(WithdrawExecuted{User: entry.User, Shares: entry.ShareAmount, NetR: netR, FeeR: feeR})
	}

	e.emit(BatchWithdrawExecuted{Successful: successful, Skipped: skipped})
	return nil
}

// --- (l) fee_collector_withdraw --------------------------------------------

// FeeCollectorWithdraw transfers amount R from accumulated fees to the fee
// collector.
func (e *Engine) FeeCollectorWithdraw(signer address.Address, amount uint64) (err error) {
	defer e.observe("fee_collector_withdraw", &err)
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := checkAuthority(e.pool.Config, RoleFeeCollector, signer); err != nil {
		return err
	}
	if amount == 0 {
		return newError(ErrInvalidAmount, "amount must be positive")
	}
	if amount > e.pool.TotalAccumulatedFees {
		return newError(ErrInsufficientAccumulatedFees, "amount exceeds accumulated fees")
	}

	if err := e.ledger.TransferReserveOut(signer, amount); err != nil {
		return wrapLedgerErr(err)
	}
	e.pool.applyFeeWithdraw(amount)
	e.verifyVaultInvariant()
	e.emit(FeesCollected{To: signer, Amount: amount})
	return nil
}

// requireReady ensures the pool has completed both init steps before any
// operation other than (a)/(b) runs.
func (e *Engine) requireReady() error {
	if e.pool == nil {
		return newError(ErrInvalidConfigParameter, "pool not initialized")
	}
	if e.pool.ShareMint.IsNull() || e.pool.ReserveVault.IsNull() {
		return newError(ErrInvalidConfigParameter, "pool accounts not bound: call init_pool_step2 first")
	}
	return nil
}

func wrapLedgerErr(err error) error {
	if pe, ok := err.(*Error); ok {
		return pe
	}
	return newError(ErrInsufficientAccountBalance, "%s", err)
}

func convertFixedpointErr(err error) error {
	switch err {
	case fixedpoint.ErrInvalidExchangeRate:
		return newError(ErrInvalidExchangeRate, "%s", err)
	case fixedpoint.ErrArithmeticOverflow:
		return newError(ErrArithmeticOverflow, "%s", err)
	default:
		return newError(ErrArithmeticOverflow, "%s", err)
	}
}
