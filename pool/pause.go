package pool

// PauseView lets a host halt pool operations without touching the
// operations themselves, the same separation native/lending and
// native/escrow use for their own circuit breakers. It gates admin reserve
// deposits and withdrawals, user deposits, immediate and queued withdrawals,
// and batch settlement; init, rate updates, config and lifecycle updates,
// cancel and fee collection are not gated. It defaults to a no-op: a nil
// PauseView never blocks anything.
type PauseView interface {
	IsPaused(module string) bool
}

const moduleName = "ipt_pool"

func guardPaused(p PauseView) error {
	if p == nil {
		return nil
	}
	if p.IsPaused(moduleName) {
		return newError(ErrModulePaused, "pool is paused")
	}
	return nil
}
