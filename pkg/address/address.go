// Package address models the principal identifiers the pool operates over
// and its deterministic derivation scheme: two addresses per pool (share
// mint, reserve vault) and the pool record's own address, all reproducible
// off-chain from a fixed byte tag plus a seed.
package address

import (
	"encoding/hex"
	"errors"

	"lukechampine.com/blake3"
)

// Size is the fixed byte width of every principal in this system.
const Size = 32

// Address is an opaque 32-byte principal identifier: a user, the pool
// authority, a mint, or a vault. It carries no notion of a network prefix;
// the host ledger environment owns human-readable encoding, and this
// package only derives and compares raw identifiers.
type Address [Size]byte

// Null is the zero-valued address; several config fields must not equal it.
var Null Address

// IsNull reports whether a is the zero address.
func (a Address) IsNull() bool { return a == Null }

// String renders the address as lowercase hex, mirroring the debug
// formatting the corpus uses for raw digest-derived identifiers.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// FromBytes copies b into an Address, requiring an exact Size-byte input.
func FromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != Size {
		return a, errors.New("address: input must be exactly 32 bytes")
	}
	copy(a[:], b)
	return a, nil
}

// Fixed derivation tags. Each is hashed together with a seed to produce a
// reproducible program-owned address, the way a Solana PDA is derived from a
// program id and a set of seeds — documented here so any off-chain indexer
// can recompute the same addresses.
const (
	TagPoolRecord   = "ipt-pool/pool-record/v1"
	TagShareMint    = "ipt-pool/share-mint/v1"
	TagReserveVault = "ipt-pool/reserve-vault/v1"
)

// Derive hashes tag and seed with BLAKE3 to produce a deterministic
// Address. The same (tag, seed) pair always yields the same address,
// letting a host or off-chain tool recompute pool/mint/vault addresses
// without consulting on-chain state.
func Derive(tag string, seed Address) Address {
	h := blake3.New(Size, nil)
	_, _ = h.Write([]byte(tag))
	_, _ = h.Write(seed[:])
	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

// DerivePoolRecord computes the pool record's own address from the
// reserve-asset mint, so one pool exists per reserve asset.
func DerivePoolRecord(reserveAssetMint Address) Address {
	return Derive(TagPoolRecord, reserveAssetMint)
}

// DeriveShareMint computes the share-mint address from the pool's own
// address.
func DeriveShareMint(poolAddress Address) Address {
	return Derive(TagShareMint, poolAddress)
}

// DeriveReserveVault computes the reserve-vault address from the pool's own
// address.
func DeriveReserveVault(poolAddress Address) Address {
	return Derive(TagReserveVault, poolAddress)
}
