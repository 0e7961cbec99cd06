package pool

// LifecycleState is the pool's own operating mode, independent of the
// host-wide PauseView circuit breaker (pause.go): a pool can be throttled
// to deposits-only or withdrawals-only, or halted outright, without an
// operator needing the host-wide pause.
type LifecycleState int

const (
	// StateActive permits every operation (the default after init_pool).
	StateActive LifecycleState = iota
	// StatePaused rejects every deposit and withdrawal, but still allows
	// admin/fee-collector/oracle maintenance operations.
	StatePaused
	// StateFrozen is the same rejection as StatePaused; kept as a distinct
	// value so a routine pause can be distinguished from an incident-grade
	// freeze in the event log, even though both gate identically today.
	StateFrozen
	// StateDepositOnly rejects withdrawals (immediate, queued, and batch
	// settlement) but still accepts deposits.
	StateDepositOnly
	// StateWithdrawOnly rejects deposits but still accepts withdrawals,
	// for winding a pool down without admitting new capital.
	StateWithdrawOnly
)

func (s LifecycleState) String() string {
	switch s {
	case StateActive:
		return "Active"
	case StatePaused:
		return "Paused"
	case StateFrozen:
		return "Frozen"
	case StateDepositOnly:
		return "DepositOnly"
	case StateWithdrawOnly:
		return "WithdrawOnly"
	default:
		return "Unknown"
	}
}

// validateForOperation gates a mutating call by the pool's current
// lifecycle state: isDeposit distinguishes a deposit-shaped call from
// every withdrawal-shaped one (immediate withdraw, queued withdrawal
// request, batch settlement).
func (s LifecycleState) validateForOperation(isDeposit bool) error {
	switch s {
	case StateActive:
		return nil
	case StatePaused:
		return newError(ErrPoolPaused, "pool is paused")
	case StateFrozen:
		return newError(ErrPoolFrozen, "pool is frozen")
	case StateDepositOnly:
		if isDeposit {
			return nil
		}
		return newError(ErrWithdrawalsDisabled, "pool is deposit-only")
	case StateWithdrawOnly:
		if isDeposit {
			return newError(ErrDepositsDisabled, "pool is withdraw-only")
		}
		return nil
	default:
		return newError(ErrInvalidConfigParameter, "unknown pool lifecycle state")
	}
}
