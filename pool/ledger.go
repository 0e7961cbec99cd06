package pool

import "github.com/nhbchain/iptpool/pkg/address"

// TokenLedger abstracts the six token primitives the host's token subsystem
// must provide. This is the single boundary through which
// token state moves; the operations layer never touches balances directly.
// Concrete adapters live outside this package: internal/memledger for tests
// and the demo CLI, solanaledger for a real SPL-token-backed deployment.
type TokenLedger interface {
	// MintShares mints amount of S to the `to` account. Only the pool
	// authority may invoke this.
	MintShares(to address.Address, amount uint64) error

	// BurnSharesFrom burns amount of S from owner's account via a
	// delegated allowance held by the pool authority. Requires
	// AllowanceOf(owner, pool authority) >= amount.
	BurnSharesFrom(owner address.Address, amount uint64) error

	// TransferReserveIn moves amount of R from fromUser into the reserve
	// vault, signed by the user.
	TransferReserveIn(fromUser address.Address, amount uint64) error

	// TransferReserveOut moves amount of R from the reserve vault to `to`,
	// signed by the pool authority.
	TransferReserveOut(to address.Address, amount uint64) error

	// BalanceOf returns the current balance of tokenAccount.
	BalanceOf(tokenAccount address.Address) (uint64, error)

	// AllowanceOf returns the amount tokenAccount has delegated to
	// delegate.
	AllowanceOf(tokenAccount address.Address, delegate address.Address) (uint64, error)
}
