package address

// TagPoolAuthority derives the program-owned authority that signs every
// pool-originated token movement: mints, delegated burns, and transfers out
// of the reserve vault.
const TagPoolAuthority = "ipt-pool/pool-authority/v1"

// DerivePoolAuthority computes the pool authority address from the pool's
// own address.
func DerivePoolAuthority(poolAddress Address) Address {
	return Derive(TagPoolAuthority, poolAddress)
}
