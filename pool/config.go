package pool

import "github.com/nhbchain/iptpool/pkg/address"

// MaxQueueSizeCeiling is the upper bound on Config.MaxQueueSize.
const MaxQueueSizeCeiling = 20

// MaxFeeBps is the basis-point denominator shared by every fee field.
const MaxFeeBps = 10_000

// Config captures the immutable-until-admin-update fields of the pool.
type Config struct {
	AdminAuthority   address.Address
	OracleAuthority  address.Address
	FeeCollector     address.Address
	DepositFeeBps    uint16
	WithdrawalFeeBps uint16
	ManagementFeeBps uint16

	// InitialExchangeRate is only consulted by InitPool; subsequent
	// updates go through UpdateExchangeRate.
	InitialExchangeRate uint64

	// MaxTotalSupply is in raw S units; 0 means unlimited, not "deposits
	// disabled" (see DESIGN.md).
	MaxTotalSupply uint64

	// MaxQueueSize must be in [1, 20].
	MaxQueueSize uint32
}

// validate checks the invariants init_pool and admin_update_config both
// enforce, independent of any existing pool state.
func (c Config) validate() error {
	if c.AdminAuthority.IsNull() || c.OracleAuthority.IsNull() || c.FeeCollector.IsNull() {
		return newError(ErrInvalidAuthority, "admin, oracle and fee collector authorities must be non-null")
	}
	if c.DepositFeeBps > MaxFeeBps || c.WithdrawalFeeBps > MaxFeeBps || c.ManagementFeeBps > MaxFeeBps {
		return newError(ErrInvalidFeeRate, "fee bps must not exceed %d", MaxFeeBps)
	}
	if c.InitialExchangeRate == 0 {
		return newError(ErrInvalidExchangeRate, "initial exchange rate must be positive")
	}
	if c.MaxQueueSize < 1 || c.MaxQueueSize > MaxQueueSizeCeiling {
		return newError(ErrInvalidConfigParameter, "max queue size must be in [1, %d]", MaxQueueSizeCeiling)
	}
	return nil
}
