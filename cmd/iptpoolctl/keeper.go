package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	hostconfig "github.com/nhbchain/iptpool/internal/config"
	"github.com/nhbchain/iptpool/internal/logging"
	"github.com/nhbchain/iptpool/internal/memledger"
	"github.com/nhbchain/iptpool/internal/metrics"
	"github.com/nhbchain/iptpool/pkg/address"
	"github.com/nhbchain/iptpool/pool"
)

// runKeeper seeds a pool with a handful of queued withdrawals, then repeatedly
// calls BatchExecuteWithdraw for the given duration, throttled by a
// rate.Limiter so a misconfigured external executor can't hammer an RPC
// endpoint in production. The pace itself is ambient infrastructure; it
// never governs the operations' own invariants.
func runKeeper(seconds int) {
	host, err := hostconfig.Load("./iptpoolctl.toml")
	if err != nil {
		logging.Setup("keeper", "local").Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.Setup("keeper", host.Environment)

	ledger := memledger.New()
	engine := pool.NewEngine(ledger)
	engine.SetEmitter(logging.EventLogger{Logger: logger})
	engine.SetMetrics(metrics.Pool())
	engine.SetClock(func() uint64 { return uint64(time.Now().Unix()) })

	admin := demoAddress("keeper-admin")
	oracle := demoAddress("keeper-oracle")
	feeCollector := demoAddress("keeper-fees")
	reserveAssetMint := demoAddress("keeper-mint")

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

	seedQueuedWithdrawals(engine, ledger, 3)

	// Refill reserves enough to settle the seeded batch; otherwise every
	// attempt would halt at step 5 of batch_execute_withdraw forever.
	ledger.Credit(admin, 10_000_000_000)
	must(engine.AdminDepositReserve(admin, 10_000_000_000))

	limiter := rate.NewLimiter(rate.Every(500*time.Millisecond), 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(seconds)*time.Second)
	defer cancel()

	for engine.Pool().Queue.Len() > 0 {
		if err := limiter.Wait(ctx); err != nil {
			logger.Info("keeper stopping", slog.String("reason", err.Error()))
			return
		}

		runID := uuid.New()
		entries := engine.Pool().Queue.Entries()
		if len(entries) == 0 {
			break
		}
		batchSize := len(entries)
		if batchSize > 10 {
			batchSize = 10
		}
		amounts := make([]uint64, 0, batchSize)
		accounts := make([]pool.BatchAccountRef, 0, batchSize)
		for _, e := range entries[:batchSize] {
			amounts = append(amounts, e.ShareAmount)
			accounts = append(accounts, pool.BatchAccountRef{ShareAccount: e.User, ReserveAccount: e.User})
		}

		if err := engine.BatchExecuteWithdraw(demoAddress("executor"), amounts, accounts); err != nil {
			logger.Error("batch execute failed", slog.String("run_id", runID.String()), slog.String("error", err.Error()))
			return
		}
		logger.Info("batch settled", slog.String("run_id", runID.String()), slog.Int("queue_remaining", engine.Pool().Queue.Len()))
	}
	logger.Info("keeper idle: queue drained")
}

func seedQueuedWithdrawals(engine *pool.Engine, ledger *memledger.Ledger, n int) {
	for i := 0; i < n; i++ {
		user := address.Derive("iptpoolctl/keeper/user", demoAddress("seed"))
		user[31] = byte(i)
		ledger.MintShares(user, 1_000_000_000)
		engine.Pool().TotalShareSupply += 1_000_000_000
		ledger.Approve(user, engine.PoolAuthority(), 1_000_000_000)
		must(engine.UserWithdrawalRequest(user, 1_000_000_000, 0))
	}
}
