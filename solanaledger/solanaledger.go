// Package solanaledger adapts pool.TokenLedger to a real SPL-token mint and
// vault on Solana, using github.com/gagliardetto/solana-go the way the
// corpus's raydium/pumpswap clients build and send token-program
// instructions through an rpc.Client.
package solanaledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/nhbchain/iptpool/pkg/address"
)

// Signer abstracts transaction signing so the ledger never holds raw
// private key material itself.
type Signer interface {
	PublicKey() solana.PublicKey
	Sign(tx *solana.Transaction) error
}

// Ledger implements pool.TokenLedger against a live Solana cluster. All
// accounts are associated token accounts for either the share mint or the
// reserve asset mint, addressed by address.Address, whose 32 bytes are
// copied unchanged into a solana.PublicKey (see toPubkey).
type Ledger struct {
	client *rpc.Client

	shareMint        solana.PublicKey
	reserveAssetMint solana.PublicKey
	reserveVault     solana.PublicKey
	poolAuthority    Signer

	commitment rpc.CommitmentType
}

// New constructs a Ledger against the given cluster endpoint. shareMint and
// reserveAssetMint identify the two SPL token mints this pool operates
// over; poolAuthority signs every mint/burn/vault-debit instruction on the
// program's behalf.
func New(endpoint string, shareMint, reserveAssetMint, reserveVault solana.PublicKey, poolAuthority Signer) *Ledger {
	return &Ledger{
		client:           rpc.New(endpoint),
		shareMint:        shareMint,
		reserveAssetMint: reserveAssetMint,
		reserveVault:     reserveVault,
		poolAuthority:    poolAuthority,
		commitment:       rpc.CommitmentConfirmed,
	}
}

func toPubkey(a address.Address) solana.PublicKey {
	var pk solana.PublicKey
	copy(pk[:], a[:])
	return pk
}

// MintShares implements pool.TokenLedger by issuing an SPL-token MintTo
// instruction from the share mint to `to`'s associated token account.
func (l *Ledger) MintShares(to address.Address, amount uint64) error {
	ix := token.NewMintToInstructionBuilder().
		SetAmount(amount).
		SetMintAccount(l.shareMint).
		SetDestinationAccount(toPubkey(to)).
		SetAuthorityAccount(l.poolAuthority.PublicKey()).
		Build()
	return l.sendOne(ix)
}

// BurnSharesFrom implements pool.TokenLedger by issuing a delegated Burn
// instruction, authorized by the pool authority's standing allowance over
// owner's account (see pool.TokenLedger.AllowanceOf).
func (l *Ledger) BurnSharesFrom(owner address.Address, amount uint64) error {
	ix := token.NewBurnInstructionBuilder().
		SetAmount(amount).
		SetSourceAccount(toPubkey(owner)).
		SetMintAccount(l.shareMint).
		SetOwnerAccount(l.poolAuthority.PublicKey()).
		Build()
	return l.sendOne(ix)
}

// TransferReserveIn implements pool.TokenLedger, moving reserve asset from
// fromUser's associated token account into the reserve vault. The user is
// expected to have already signed or pre-approved this transfer out of
// band; this adapter only builds and submits the instruction.
func (l *Ledger) TransferReserveIn(fromUser address.Address, amount uint64) error {
	ix := token.NewTransferInstructionBuilder().
		SetAmount(amount).
		SetSourceAccount(toPubkey(fromUser)).
		SetDestinationAccount(l.reserveVault).
		SetOwnerAccount(toPubkey(fromUser)).
		Build()
	return l.sendOne(ix)
}

// TransferReserveOut implements pool.TokenLedger, moving reserve asset out
// of the vault to `to`, signed by the pool authority.
func (l *Ledger) TransferReserveOut(to address.Address, amount uint64) error {
	ix := token.NewTransferInstructionBuilder().
		SetAmount(amount).
		SetSourceAccount(l.reserveVault).
		SetDestinationAccount(toPubkey(to)).
		SetOwnerAccount(l.poolAuthority.PublicKey()).
		Build()
	return l.sendOne(ix)
}

// BalanceOf implements pool.TokenLedger by querying the token account
// balance over RPC.
func (l *Ledger) BalanceOf(tokenAccount address.Address) (uint64, error) {
	ctx := context.Background()
	out, err := l.client.GetTokenAccountBalance(ctx, toPubkey(tokenAccount), l.commitment)
	if err != nil {
		return 0, fmt.Errorf("solanaledger: get balance: %w", err)
	}
	var amount uint64
	if _, err := fmt.Sscanf(out.Value.Amount, "%d", &amount); err != nil {
		return 0, fmt.Errorf("solanaledger: parse balance: %w", err)
	}
	return amount, nil
}

// AllowanceOf implements pool.TokenLedger by reading the token account's
// delegated_amount field, populated when the owner approves the pool
// authority as delegate.
func (l *Ledger) AllowanceOf(tokenAccount address.Address, delegate address.Address) (uint64, error) {
	ctx := context.Background()
	var acc token.Account
	err := l.client.GetAccountDataInto(ctx, toPubkey(tokenAccount), &acc)
	if err != nil {
		return 0, fmt.Errorf("solanaledger: get account: %w", err)
	}
	if acc.Delegate == nil || *acc.Delegate != toPubkey(delegate) {
		return 0, nil
	}
	return acc.DelegatedAmount, nil
}

// sendOne wraps ix in a single-instruction transaction, signs it with the
// pool authority, and submits it, the way the corpus's DEX clients build
// and send one-off instructions via solana.NewTransaction.
func (l *Ledger) sendOne(ix solana.Instruction) error {
	ctx := context.Background()
	recent, err := l.client.GetLatestBlockhash(ctx, l.commitment)
	if err != nil {
		return fmt.Errorf("solanaledger: get blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		recent.Value.Blockhash,
		solana.TransactionPayer(l.poolAuthority.PublicKey()),
	)
	if err != nil {
		return fmt.Errorf("solanaledger: build transaction: %w", err)
	}
	if err := l.poolAuthority.Sign(tx); err != nil {
		return fmt.Errorf("solanaledger: sign transaction: %w", err)
	}
	if _, err := l.client.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("solanaledger: send transaction: %w", err)
	}
	return nil
}
