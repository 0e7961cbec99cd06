package pool

import "github.com/nhbchain/iptpool/pkg/address"

// Event is a structured record emitted by every state-changing operation.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to whatever the host wires up downstream
// (indexers, RPC subscribers). Event subscription itself is out of scope;
// this package only emits.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards every event. Operations default to this when no
// Emitter is configured, so the core never requires telemetry wiring to
// function.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}

const (
	TypePoolInitialized       = "pool.initialized"
	TypeReserveDeposited      = "pool.reserve_deposited"
	TypeReserveWithdrawn      = "pool.reserve_withdrawn"
	TypeExchangeRateUpdated   = "pool.exchange_rate_updated"
	TypeConfigUpdated         = "pool.config_updated"
	TypeUserDeposited         = "pool.user_deposited"
	TypeWithdrawExecuted      = "pool.withdraw_executed"
	TypeWithdrawalQueued      = "pool.withdrawal_queued"
	TypeWithdrawalCancelled   = "pool.withdrawal_cancelled"
	TypeWithdrawSkipped       = "pool.withdraw_skipped"
	TypeBatchWithdrawExecuted = "pool.batch_withdraw_executed"
	TypeFeesCollected         = "pool.fees_collected"
	TypePoolStateChanged      = "pool.state_changed"
)

// SkipReason distinguishes why a queued entry was skipped during batch
// settlement, with a dedicated reason code per failure mode rather than
// one generic skip reason.
type SkipReason string

const (
	SkipAccountMismatch      SkipReason = "account_mismatch"
	SkipInsufficientBalance  SkipReason = "insufficient_balance"
	SkipInsufficientApproval SkipReason = "insufficient_approval"
	SkipSlippageExceeded     SkipReason = "slippage_exceeded"
)

type PoolInitialized struct {
	PoolID address.Address
	Config Config
}

func (PoolInitialized) EventType() string { return TypePoolInitialized }

type ReserveDeposited struct {
	By     address.Address
	Amount uint64
}

func (ReserveDeposited) EventType() string { return TypeReserveDeposited }

type ReserveWithdrawn struct {
	By     address.Address
	Amount uint64
}

func (ReserveWithdrawn) EventType() string { return TypeReserveWithdrawn }

type ExchangeRateUpdated struct {
	Old uint64
	New uint64
}

func (ExchangeRateUpdated) EventType() string { return TypeExchangeRateUpdated }

type ConfigUpdated struct {
	Old Config
	New Config
}

func (ConfigUpdated) EventType() string { return TypeConfigUpdated }

type UserDeposited struct {
	User      address.Address
	ReserveIn uint64
	NetR      uint64
	FeeR      uint64
	SharesOut uint64
}

func (UserDeposited) EventType() string { return TypeUserDeposited }

// WithdrawExecuted is emitted for both the immediate (user_withdraw) and
// batched (batch_execute_withdraw) settlement paths.
type WithdrawExecuted struct {
	User   address.Address
	Shares uint64
	NetR   uint64
	FeeR   uint64
}

func (WithdrawExecuted) EventType() string { return TypeWithdrawExecuted }

type WithdrawalQueued struct {
	User     address.Address
	Shares   uint64
	Position int
}

func (WithdrawalQueued) EventType() string { return TypeWithdrawalQueued }

type WithdrawalCancelled struct {
	User address.Address
}

func (WithdrawalCancelled) EventType() string { return TypeWithdrawalCancelled }

type WithdrawSkipped struct {
	User   address.Address
	Reason SkipReason
}

func (WithdrawSkipped) EventType() string { return TypeWithdrawSkipped }

type BatchWithdrawExecuted struct {
	Successful int
	Skipped    int
}

func (BatchWithdrawExecuted) EventType() string { return TypeBatchWithdrawExecuted }

type FeesCollected struct {
	To     address.Address
	Amount uint64
}

func (FeesCollected) EventType() string { return TypeFeesCollected }

// PoolStateChanged is emitted by the supplemented admin_set_pool_state
// operation (pool/lifecycle.go).
type PoolStateChanged struct {
	Old LifecycleState
	New LifecycleState
}

func (PoolStateChanged) EventType() string { return TypePoolStateChanged }
