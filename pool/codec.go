package pool

import (
	"github.com/near/borsh-go"

	"github.com/nhbchain/iptpool/pkg/address"
)

// wireConfig and wireRecord mirror Config and Pool field-for-field but
// with exported, fixed-order fields borsh can walk deterministically —
// kept distinct from Config/Pool themselves so neither gains a borsh
// struct-tag dependency it doesn't otherwise need.
type wireConfig struct {
	AdminAuthority      address.Address
	OracleAuthority     address.Address
	FeeCollector        address.Address
	DepositFeeBps       uint16
	WithdrawalFeeBps    uint16
	ManagementFeeBps    uint16
	InitialExchangeRate uint64
	MaxTotalSupply      uint64
	MaxQueueSize        uint32
}

type wirePendingWithdrawal struct {
	User          address.Address
	ShareAmount   uint64
	MinReserveOut uint64
	EnqueuedAt    uint64
}

type wireRecord struct {
	Config               wireConfig
	ReserveAssetMint     address.Address
	ShareMint            address.Address
	ReserveVault         address.Address
	CurrentExchangeRate  uint64
	TotalShareSupply     uint64
	TotalReserveHoldings uint64
	TotalAccumulatedFees uint64
	State                int32
	Queue                []wirePendingWithdrawal
}

// EncodeRecord borsh-serializes the pool's full accounting state, the way
// a Solana program account would be packed for on-chain storage.
func EncodeRecord(p *Pool) ([]byte, error) {
	w := wireRecord{
		Config:               wireConfig(p.Config),
		ReserveAssetMint:     p.ReserveAssetMint,
		ShareMint:            p.ShareMint,
		ReserveVault:         p.ReserveVault,
		CurrentExchangeRate:  p.CurrentExchangeRate,
		TotalShareSupply:     p.TotalShareSupply,
		TotalReserveHoldings: p.TotalReserveHoldings,
		TotalAccumulatedFees: p.TotalAccumulatedFees,
		State:                int32(p.State),
	}
	for _, e := range p.Queue.Entries() {
		w.Queue = append(w.Queue, wirePendingWithdrawal(e))
	}
	return borsh.Serialize(w)
}

// DecodeRecord reconstructs a Pool from bytes produced by EncodeRecord.
func DecodeRecord(data []byte) (*Pool, error) {
	var w wireRecord
	if err := borsh.Deserialize(&w, data); err != nil {
		return nil, err
	}
	p := &Pool{
		Config:               Config(w.Config),
		ReserveAssetMint:     w.ReserveAssetMint,
		ShareMint:            w.ShareMint,
		ReserveVault:         w.ReserveVault,
		CurrentExchangeRate:  w.CurrentExchangeRate,
		TotalShareSupply:     w.TotalShareSupply,
		TotalReserveHoldings: w.TotalReserveHoldings,
		TotalAccumulatedFees: w.TotalAccumulatedFees,
		State:                LifecycleState(w.State),
		Queue:                NewQueue(w.Config.MaxQueueSize),
	}
	for _, e := range w.Queue {
		p.Queue.entries = append(p.Queue.entries, PendingWithdrawal(e))
	}
	return p, nil
}
