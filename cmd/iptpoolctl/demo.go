package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	hostconfig "github.com/nhbchain/iptpool/internal/config"
	"github.com/nhbchain/iptpool/internal/logging"
	"github.com/nhbchain/iptpool/internal/memledger"
	"github.com/nhbchain/iptpool/internal/metrics"
	"github.com/nhbchain/iptpool/pkg/address"
	"github.com/nhbchain/iptpool/pool"
)

func demoAddress(label string) address.Address {
	return address.Derive("iptpoolctl/demo/"+label, address.Null)
}

// runDemo walks a happy-path deposit/withdraw scenario plus a grief-then-
// batch-settlement scenario end to end against an in-memory ledger,
// printing one line per operation.
func runDemo() {
	host, err := hostconfig.Load("./iptpoolctl.toml")
	if err != nil {
		fmt.Fprintln(os.Stderr, "iptpoolctl: load config:", err)
		return
	}

	logger := logging.Setup("demo-pool", host.Environment)
	logger.Info("starting demo", slog.String("run_id", uuid.NewString()))

	ledger := memledger.New()
	engine := pool.NewEngine(ledger)
	engine.SetEmitter(logging.EventLogger{Logger: logger})
	engine.SetMetrics(metrics.Pool())

	admin := demoAddress("admin")
	oracle := demoAddress("oracle")
	feeCollector := demoAddress("fee-collector")
	reserveAssetMint := demoAddress("reserve-mint")

	cfg := pool.Config{
		AdminAuthority:      admin,
		OracleAuthority:     oracle,
		FeeCollector:        feeCollector,
		DepositFeeBps:       host.DepositFeeBps,
		WithdrawalFeeBps:    host.WithdrawalFeeBps,
		ManagementFeeBps:    host.ManagementFeeBps,
		InitialExchangeRate: host.InitialExchangeRate,
		MaxTotalSupply:      host.MaxTotalSupply,
		MaxQueueSize:        host.MaxQueueSize,
	}
	must(engine.InitPool(admin, cfg, reserveAssetMint))
	must(engine.InitPoolStep2(admin))
	ledger.BindVault(engine.Pool().ReserveVault)
	logger.Info("pool initialized", slog.String("authority", engine.PoolAuthority().String()))

	user := demoAddress("user-1")
	ledger.Credit(user, 10_000_000_000)
	must(engine.UserDeposit(user, 10_000_000_000, 0))
	printSnapshot(logger, engine)

	ledger.Approve(user, engine.PoolAuthority(), 1_000_000_000)
	must(engine.UserWithdraw(user, 1_000_000_000, 0))
	printSnapshot(logger, engine)

	attacker := demoAddress("attacker")
	ledger.MintShares(attacker, 500_000_000)
	engine.Pool().TotalShareSupply += 500_000_000
	ledger.Approve(attacker, engine.PoolAuthority(), 500_000_000)
	must(engine.AdminWithdrawReserve(admin, engine.Pool().TotalReserveHoldings))
	must(engine.UserWithdraw(attacker, 500_000_000, 0))
	logger.Info("attacker queued, now griefing by revoking shares")
	must(ledger.BurnSharesFrom(attacker, 500_000_000))

	ledger.Credit(admin, 10_000_000_000)
	must(engine.AdminDepositReserve(admin, 10_000_000_000))

	must(engine.BatchExecuteWithdraw(demoAddress("executor"), []uint64{500_000_000}, []pool.BatchAccountRef{
		{ShareAccount: attacker, ReserveAccount: attacker},
	}))
	printSnapshot(logger, engine)

	must(engine.FeeCollectorWithdraw(feeCollector, engine.Pool().TotalAccumulatedFees))
	logger.Info("demo complete")
}

func printSnapshot(logger *slog.Logger, engine *pool.Engine) {
	snap := engine.Pool().Snapshot()
	logger.Info("pool snapshot",
		slog.Uint64("total_share_supply", snap.TotalShareSupply),
		slog.Uint64("total_reserve_holdings", snap.TotalReserveHoldings),
		slog.Uint64("total_accumulated_fees", snap.TotalAccumulatedFees),
		slog.Int("queue_length", snap.QueueLength),
	)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
