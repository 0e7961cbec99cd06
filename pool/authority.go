package pool

import "github.com/nhbchain/iptpool/pkg/address"

// Role is one of the five non-overlapping authority roles operations can
// require of their signer.
type Role int

const (
	// RoleAdmin requires signer == config.AdminAuthority.
	RoleAdmin Role = iota
	// RoleOracle requires signer == config.OracleAuthority.
	RoleOracle
	// RoleFeeCollector requires signer == config.FeeCollector.
	RoleFeeCollector
	// RoleUser requires no particular principal: the signer simply acts
	// as themselves (e.g. depositing their own funds).
	RoleUser
	// RoleExecutor accepts any signer: batch settlement is permissionless
	// and the executor is not a trusted role.
	RoleExecutor
)

// checkAuthority compares signer against cfg for the given role, returning
// the matching Unauthorized* error kind on mismatch. Signer identity itself
// is supplied by the host; this function only compares against config.
func checkAuthority(cfg Config, role Role, signer address.Address) error {
	switch role {
	case RoleAdmin:
		if signer != cfg.AdminAuthority {
			return newError(ErrUnauthorizedAdmin, "signer is not the admin authority")
		}
	case RoleOracle:
		if signer != cfg.OracleAuthority {
			return newError(ErrUnauthorizedOracle, "signer is not the oracle authority")
		}
	case RoleFeeCollector:
		if signer != cfg.FeeCollector {
			return newError(ErrUnauthorizedFeeCollector, "signer is not the fee collector")
		}
	case RoleUser, RoleExecutor:
		// No authority mismatch is possible: any signer qualifies.
	}
	return nil
}
