package server

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wzec-network/wzec-bridge/internal/config"
	bridgelogic "github.com/wzec-network/wzec-bridge/internal/logic/bridge"
	solanalogic "github.com/wzec-network/wzec-bridge/internal/logic/solana"
	zcashlogic "github.com/wzec-network/wzec-bridge/internal/logic/zcash"
	"github.com/wzec-network/wzec-bridge/internal/model"
	logger "github.com/wzec-network/wzec-bridge/pkg/log"
	solrpc "github.com/wzec-network/wzec-bridge/pkg/solana"
	zcashrpc "github.com/wzec-network/wzec-bridge/pkg/zcash"
)

const eventChanSize = 64

// Context carries what the start command hands to the server.
type Context struct {
	Config *config.Config
	Logger logger.Logger
}

// Start wires the listeners, the settlement client and the orchestrator
// together and blocks until a quit signal arrives.
func Start(ctx *Context, cmd *cobra.Command) error {
	cfg := ctx.Config
	log := ctx.Logger

	db, err := GetDbContextFromCmd(cmd)
	if err != nil {
		log.Errorw("failed to get db context", "error", err.Error())
		return err
	}
	if err := Migrate(db, cfg); err != nil {
		log.Errorw("failed to migrate ledger schema", "error", err.Error())
		return err
	}

	zclient, err := zcashrpc.NewClient(cfg.Zcash.RPCHost, cfg.Zcash.RPCPort, cfg.Zcash.RPCUser, cfg.Zcash.RPCPass)
	if err != nil {
		log.Errorw("failed to create zcash client", "error", err.Error())
		return err
	}
	defer zclient.Shutdown()

	// check the node is reachable and the deposit address is real
	valid, err := zclient.ValidateAddress(cfg.Zcash.BridgeAddress)
	if err != nil {
		log.Errorw("failed to reach zcash node", "error", err.Error())
		return err
	}
	if !valid.IsValid {
		return log.ErrorR("bridge address rejected by zcash node",
			"address", cfg.Zcash.BridgeAddress)
	}
	if balance, err := zclient.GetBalance(cfg.Zcash.BridgeAddress); err != nil {
		log.Warnw("failed to read bridge address balance", "error", err.Error())
	} else {
		log.Infow("bridge address reserve balance", "balance", balance)
	}

	authority, err := solrpc.LoadKeypair(cfg.Solana.KeypairPath)
	if err != nil {
		log.Errorw("failed to load solana authority keypair", "error", err.Error())
		return err
	}
	solClient := solrpc.NewClient(cfg.Solana.RPCURL)
	bridgeClient, err := solanalogic.NewBridgeClient(
		solClient,
		authority,
		cfg.Solana.MintAddress,
		cfg.Solana.ProgramID,
		cfg.Solana.TokenDecimals,
		log.WithName("solana"),
	)
	if err != nil {
		log.Errorw("failed to create solana settlement client", "error", err.Error())
		return err
	}
	if cfg.Solana.ProgramID != "" {
		state, err := bridgeClient.FetchBridgeState(cmd.Context())
		if err != nil {
			log.Warnw("failed to read on-chain bridge state", "error", err.Error())
		} else {
			if state.Mint != cfg.Solana.MintAddress {
				return log.ErrorR("on-chain bridge state mint mismatch",
					"onchain", state.Mint, "configured", cfg.Solana.MintAddress)
			}
			log.Infow("on-chain bridge state",
				"feeBps", state.FeeBps,
				"paused", state.Paused,
				"totalMinted", state.TotalMinted,
				"totalBurned", state.TotalBurned)
		}
	}

	depositCh := make(chan model.Deposit, eventChanSize)
	burnCh := make(chan model.Burn, eventChanSize)

	listener := zcashlogic.NewListenerService(
		zclient,
		db,
		zcashlogic.Options{
			BridgeAddress:         cfg.Zcash.BridgeAddress,
			ChangeAddress:         cfg.Zcash.ChangeAddress,
			MinDepositAmount:      decimal.NewFromFloat(cfg.Zcash.MinDepositAmount),
			MaxDepositAmount:      decimal.NewFromFloat(cfg.Zcash.MaxDepositAmount),
			ConfirmationThreshold: cfg.Zcash.ConfirmationThreshold,
			PollInterval:          cfg.ZcashPollInterval(),
			PayoutFee:             cfg.Zcash.PayoutFee,
		},
		depositCh,
		log.WithName("zcash"),
	)

	orchestrator := bridgelogic.NewOrchestratorService(
		db,
		bridgeClient,
		listener,
		decimal.NewFromFloat(cfg.Solana.FeePercent),
		cfg.Zcash.ConfirmationThreshold,
		depositCh,
		burnCh,
		log.WithName("orchestrator"),
	)

	errCh := make(chan error, 4)
	go func() {
		if err := orchestrator.OnStart(); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := listener.OnStart(); err != nil {
			errCh <- err
		}
	}()
	defer listener.OnStop()
	defer orchestrator.OnStop()

	if cfg.Solana.ProgramID != "" {
		watcher, err := solanalogic.NewBurnWatcherService(
			solClient,
			bridgeClient,
			db,
			cfg.Solana.SignatureLimit,
			cfg.SolanaPollInterval(),
			burnCh,
			log.WithName("burn-watcher"),
		)
		if err != nil {
			log.Errorw("failed to create burn watcher", "error", err.Error())
			return err
		}
		go func() {
			if err := watcher.OnStart(); err != nil {
				errCh <- err
			}
		}()
		defer watcher.OnStop()
	} else {
		log.Warnw("bridge program not configured, burn ingestion disabled")
	}

	go func() {
		if err := RunHTTP(cfg, db, orchestrator, log.WithName("http")); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second): // assume server started successfully
	}
	log.Infow("wzec bridge started",
		"depositAddress", cfg.Zcash.BridgeAddress,
		"httpPort", cfg.HTTPPort)

	code := WaitForQuitSignals()
	log.Infow("server stop!!!", "quit code", code)
	return nil
}

func WaitForQuitSignals() int {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	sig := <-sigs
	return int(sig.(syscall.Signal)) + 128
}
