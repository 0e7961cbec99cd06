// Package memledger is an in-memory pool.TokenLedger, used by the pool
// package's own tests and by the demo CLI. It models the SPL-token
// primitives (mint authority, delegated burn, plain transfer) the same way
// solanaledger's real adapter does, without a network round trip.
//
// It tracks share (S) and reserve (R) balances in separate maps even
// though both are addressed by the same address.Address space: in a real
// SPL-token deployment, a "tokenAccount" is a per-mint associated token
// account, so the same user owns one account for each mint. Commingling
// the two into a single balance would let a share credit be spent as
// reserve, which no real two-mint ledger permits.
package memledger

import (
	"errors"
	"sync"

	"github.com/nhbchain/iptpool/pkg/address"
)

// ErrInsufficientBalance is returned by any debit that would take an
// account negative.
var ErrInsufficientBalance = errors.New("memledger: insufficient balance")

type allowanceKey struct {
	owner    address.Address
	delegate address.Address
}

// Ledger is a simple, non-persistent, two-mint token ledger.
type Ledger struct {
	mu              sync.Mutex
	shareBalances   map[address.Address]uint64
	reserveBalances map[address.Address]uint64
	shareAllowances map[allowanceKey]uint64
	vault           address.Address
}

// New constructs an empty Ledger. BindVault must be called with the pool's
// reserve vault address before any reserve transfer is exercised.
func New() *Ledger {
	return &Ledger{
		shareBalances:   make(map[address.Address]uint64),
		reserveBalances: make(map[address.Address]uint64),
		shareAllowances: make(map[allowanceKey]uint64),
	}
}

// Credit adds amount of R to account's reserve balance, for seeding test
// fixtures (e.g. giving the admin or a depositing user R to spend).
func (l *Ledger) Credit(account address.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reserveBalances[account] += amount
}

// Approve sets owner's share allowance to delegate, mirroring an
// SPL-token approve instruction. Used by tests to grant the pool authority
// permission to burn shares on a user's behalf.
func (l *Ledger) Approve(owner, delegate address.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shareAllowances[allowanceKey{owner, delegate}] = amount
}

// MintShares implements pool.TokenLedger.
func (l *Ledger) MintShares(to address.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shareBalances[to] += amount
	return nil
}

// BurnSharesFrom implements pool.TokenLedger. The caller (the engine) is
// trusted to have already checked the allowance via AllowanceOf.
func (l *Ledger) BurnSharesFrom(owner address.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.shareBalances[owner] < amount {
		return ErrInsufficientBalance
	}
	l.shareBalances[owner] -= amount
	return nil
}

// TransferReserveIn implements pool.TokenLedger, moving amount of R from
// fromUser into the bound reserve vault.
func (l *Ledger) TransferReserveIn(fromUser address.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reserveBalances[fromUser] < amount {
		return ErrInsufficientBalance
	}
	l.reserveBalances[fromUser] -= amount
	l.reserveBalances[l.vault] += amount
	return nil
}

// TransferReserveOut implements pool.TokenLedger, moving amount of R out of
// the bound reserve vault to `to`.
func (l *Ledger) TransferReserveOut(to address.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reserveBalances[l.vault] < amount {
		return ErrInsufficientBalance
	}
	l.reserveBalances[l.vault] -= amount
	l.reserveBalances[to] += amount
	return nil
}

// BindVault records which address is the reserve vault, so
// TransferReserveIn/Out move balances against the same account the engine
// reads back via BalanceOf(pool.ReserveVault).
func (l *Ledger) BindVault(vault address.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vault = vault
}

// BalanceOf implements pool.TokenLedger. The engine only ever queries a
// share token account (a user's S balance) or the reserve vault (its R
// balance); both are answered correctly since the vault never appears in
// shareBalances.
func (l *Ledger) BalanceOf(tokenAccount address.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tokenAccount == l.vault {
		return l.reserveBalances[tokenAccount], nil
	}
	return l.shareBalances[tokenAccount], nil
}

// ReserveBalanceOf returns account's R balance directly, for tests that
// need to assert on reserve holdings without relying on the vault-address
// special case in BalanceOf.
func (l *Ledger) ReserveBalanceOf(account address.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reserveBalances[account]
}

// AllowanceOf implements pool.TokenLedger.
func (l *Ledger) AllowanceOf(owner, delegate address.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shareAllowances[allowanceKey{owner, delegate}], nil
}
