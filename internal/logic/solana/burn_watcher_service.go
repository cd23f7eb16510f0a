package solana

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cometbft/cometbft/libs/service"
	"gorm.io/gorm"

	"github.com/wzec-network/wzec-bridge/internal/metrics"
	"github.com/wzec-network/wzec-bridge/internal/model"
	"github.com/wzec-network/wzec-bridge/pkg/log"
	solrpc "github.com/wzec-network/wzec-bridge/pkg/solana"
)

const (
	BurnWatcherServiceName = "SolanaBurnWatcherService"

	fetchTimeout = 30 * time.Second
)

// BurnWatcherService polls the bridge program's recent signatures and
// turns burn announcements into CONFIRMED burn rows. There is no separate
// confirmation-count phase on this leg: the signatures endpoint already
// serves confirmed transactions.
type BurnWatcherService struct {
	service.BaseService

	rpc       RPC
	bridge    *BridgeClient
	programID string
	db        *gorm.DB
	log       log.Logger

	sigLimit     int
	pollInterval time.Duration
	burnCh       chan<- model.Burn

	busy     atomic.Bool
	stopChan chan struct{}
}

// NewBurnWatcherService returns a new service instance. The bridge client
// must have a program configured.
func NewBurnWatcherService(
	rpc RPC,
	bridge *BridgeClient,
	db *gorm.DB,
	sigLimit int,
	pollInterval time.Duration,
	burnCh chan<- model.Burn,
	logger log.Logger,
) (*BurnWatcherService, error) {
	programID, ok := bridge.ProgramID()
	if !ok {
		return nil, ErrProgramNotConfigured
	}
	ws := &BurnWatcherService{
		rpc:          rpc,
		bridge:       bridge,
		programID:    programID,
		db:           db,
		log:          logger,
		sigLimit:     sigLimit,
		pollInterval: pollInterval,
		burnCh:       burnCh,
		stopChan:     make(chan struct{}),
	}
	ws.BaseService = *service.NewBaseService(nil, BurnWatcherServiceName, ws)
	return ws, nil
}

// OnStart runs the poll loop until the service stops.
func (ws *BurnWatcherService) OnStart() error {
	ticker := time.NewTicker(ws.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ws.stopChan:
			ws.log.Warnf("burn watcher stopping...")
			return nil
		case <-ticker.C:
			if err := ws.Poll(); err != nil {
				ws.log.Errorw("burn watcher poll failed", "error", err)
			}
		}
	}
}

func (ws *BurnWatcherService) OnStop() {
	close(ws.stopChan)
}

// Poll fetches the most recent program signatures past the stored cursor
// and ingests burn events. Single-flight like the deposit listener.
func (ws *BurnWatcherService) Poll() error {
	if !ws.busy.CompareAndSwap(false, true) {
		ws.log.Debugw("burn watcher poll still running, skipping cycle")
		return nil
	}
	defer ws.busy.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	var state model.BridgeState
	if err := ws.db.First(&state, model.BridgeStateID).Error; err != nil {
		return fmt.Errorf("load bridge state: %w", err)
	}

	sigs, err := ws.rpc.GetSignaturesForAddress(ctx, ws.programID, &solrpc.GetSignaturesOpts{
		Limit: ws.sigLimit,
		Until: state.LastSolSig,
	})
	if err != nil {
		return fmt.Errorf("get signatures: %w", err)
	}
	if len(sigs) == 0 {
		return nil
	}

	// newest first from the RPC; ingest oldest first
	for i := len(sigs) - 1; i >= 0; i-- {
		s := sigs[i]
		if s.Err != nil {
			continue // failed transaction, nothing burned
		}
		if err := ws.ingestSignature(ctx, s.Signature); err != nil {
			ws.log.Errorw("ingest signature failed", "error", err, "signature", s.Signature)
			return err
		}
	}

	// advance the cursor to the newest scanned signature
	return ws.db.Model(&model.BridgeState{}).
		Where("id = ?", model.BridgeStateID).
		Update(model.BridgeState{}.Column().LastSolSig, sigs[0].Signature).Error
}

func (ws *BurnWatcherService) ingestSignature(ctx context.Context, signature string) error {
	var existing model.Burn
	err := ws.db.
		Where(
			fmt.Sprintf("%s = ?", model.Burn{}.Column().SolSignature),
			signature,
		).
		First(&existing).Error
	if err == nil {
		return nil // already tracked
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	tx, err := ws.rpc.GetTransaction(ctx, signature)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if tx.Meta == nil {
		return nil
	}

	ev, ok := ParseBurnLogs(tx.Meta.LogMessages)
	if !ok {
		return nil // not a burn (mint, admin call, ...)
	}
	amount := ws.bridge.FromBaseUnits(ev.AmountUnits)

	if !IsValidShieldedAddress(ev.ZecRecipient) {
		ws.log.Warnw("rejected burn with invalid redemption address",
			"signature", signature,
			"address", ev.ZecRecipient)
		metrics.RejectedTransfers.WithLabelValues("solana").Inc()
		return ws.db.Create(&model.TransactionLog{
			Action:      model.LogActionBurnRejected,
			ReferenceID: signature,
			Amount:      amount,
			Status:      "rejected",
			Detail:      fmt.Sprintf("invalid redemption address %q", ev.ZecRecipient),
		}).Error
	}

	burn := model.Burn{
		SolSignature: signature,
		Amount:       amount,
		SolSender:    ev.Sender,
		ZecRecipient: ev.ZecRecipient,
		Status:       model.BurnStatusConfirmed,
	}
	err = ws.db.Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Create(&burn).Error; err != nil {
			return err
		}
		return dbtx.Create(&model.TransactionLog{
			Action:      model.LogActionBurnSeen,
			ReferenceID: signature,
			Amount:      amount,
			Status:      "confirmed",
			Detail:      fmt.Sprintf("sender %s, redeem to %s", ev.Sender, ev.ZecRecipient),
		}).Error
	})
	if err != nil {
		return err
	}

	ws.log.Infow("tracked burn",
		"signature", signature,
		"amount", amount,
		"sender", ev.Sender,
		"zecRecipient", ev.ZecRecipient)

	select {
	case ws.burnCh <- burn:
	case <-ws.stopChan:
	}
	return nil
}
