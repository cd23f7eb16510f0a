package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cometbft/cometbft/libs/service"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wzec-network/wzec-bridge/internal/metrics"
	"github.com/wzec-network/wzec-bridge/internal/model"
	"github.com/wzec-network/wzec-bridge/internal/types"
	"github.com/wzec-network/wzec-bridge/pkg/log"
)

const (
	OrchestratorServiceName = "BridgeOrchestratorService"

	ReconcileInterval = 60 * time.Second
	SettlementTimeout = 2 * time.Minute
)

var (
	ErrInsufficientReserves = errors.New("insufficient reserves")
	ErrAlreadyInitialized   = errors.New("bridge already initialized")
)

// OrchestratorService drives the settlement state machine: exactly-once
// execution of the mint and payout legs, fee and reserve accounting, pause
// enforcement, and crash recovery via the reconciliation sweep.
type OrchestratorService struct {
	service.BaseService

	db     *gorm.DB
	minter types.WZECMinter
	wallet types.ZECWallet
	log    log.Logger

	feePercent            decimal.Decimal
	confirmationThreshold int64

	depositCh <-chan model.Deposit
	burnCh    <-chan model.Burn

	// fast-path duplicate guard; the conditional status update on the
	// ledger row is the authoritative one
	mu       sync.Mutex
	inflight map[string]struct{}

	running   atomic.Bool
	paused    atomic.Bool
	sweepBusy atomic.Bool
	stopChan  chan struct{}
}

// NewOrchestratorService returns a new service instance.
func NewOrchestratorService(
	db *gorm.DB,
	minter types.WZECMinter,
	wallet types.ZECWallet,
	feePercent decimal.Decimal,
	confirmationThreshold int64,
	depositCh <-chan model.Deposit,
	burnCh <-chan model.Burn,
	logger log.Logger,
) *OrchestratorService {
	os := &OrchestratorService{
		db:                    db,
		minter:                minter,
		wallet:                wallet,
		log:                   logger,
		feePercent:            feePercent,
		confirmationThreshold: confirmationThreshold,
		depositCh:             depositCh,
		burnCh:                burnCh,
		inflight:              make(map[string]struct{}),
		stopChan:              make(chan struct{}),
	}
	os.BaseService = *service.NewBaseService(nil, OrchestratorServiceName, os)
	return os
}

// OnStart consumes settlement-ready events and runs the periodic sweep
// until the service stops. A single loop keeps settlements serialized.
func (o *OrchestratorService) OnStart() error {
	var state model.BridgeState
	if err := o.db.First(&state, model.BridgeStateID).Error; err != nil {
		return fmt.Errorf("load bridge state: %w", err)
	}
	o.paused.Store(state.Paused)
	if state.Paused {
		metrics.Paused.Set(1)
	}

	o.running.Store(true)
	defer o.running.Store(false)

	ticker := time.NewTicker(ReconcileInterval)
	defer ticker.Stop()

	// recover work left over from the previous run before taking new events
	o.ReconciliationSweep()

	for {
		select {
		case <-o.stopChan:
			o.log.Warnf("orchestrator stopping...")
			return nil
		case deposit := <-o.depositCh:
			if err := o.HandleConfirmedDeposit(deposit); err != nil {
				o.log.Errorw("handle confirmed deposit failed", "error", err, "zecTxid", deposit.ZecTxid)
			}
		case burn := <-o.burnCh:
			if err := o.HandleConfirmedBurn(burn); err != nil {
				o.log.Errorw("handle confirmed burn failed", "error", err, "signature", burn.SolSignature)
			}
		case <-ticker.C:
			o.ReconciliationSweep()
		}
	}
}

func (o *OrchestratorService) OnStop() {
	close(o.stopChan)
}

func (o *OrchestratorService) acquire(refID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[refID]; busy {
		return false
	}
	o.inflight[refID] = struct{}{}
	return true
}

func (o *OrchestratorService) release(refID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, refID)
}

// splitFee computes fee = amount × feePercent / 100 and the net remainder.
func (o *OrchestratorService) splitFee(amount decimal.Decimal) (fee, net decimal.Decimal) {
	fee = amount.Mul(o.feePercent).Div(decimal.NewFromInt(100))
	net = amount.Sub(fee)
	return fee, net
}

// HandleConfirmedDeposit settles one confirmed deposit as a wZEC mint.
// Safe to call repeatedly for the same reference id: the in-flight set and
// the conditional CONFIRMED→PROCESSING update make duplicate invocations
// no-ops.
func (o *OrchestratorService) HandleConfirmedDeposit(deposit model.Deposit) error {
	refID := deposit.ZecTxid
	if !o.acquire(refID) {
		return nil // another invocation owns this deposit
	}
	defer o.release(refID)

	res := o.db.Model(&model.Deposit{}).
		Where(fmt.Sprintf("%s = ?", model.Deposit{}.Column().ZecTxid), refID).
		Where(fmt.Sprintf("%s = ?", model.Deposit{}.Column().Status), model.DepositStatusConfirmed).
		Update(model.Deposit{}.Column().Status, model.DepositStatusProcessing)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil // already settled, failed, or claimed elsewhere
	}

	if o.paused.Load() {
		// defer, don't fail: the row goes back to CONFIRMED and the
		// post-resume sweep picks it up
		return o.db.Model(&model.Deposit{}).
			Where(fmt.Sprintf("%s = ?", model.Deposit{}.Column().ZecTxid), refID).
			Where(fmt.Sprintf("%s = ?", model.Deposit{}.Column().Status), model.DepositStatusProcessing).
			Update(model.Deposit{}.Column().Status, model.DepositStatusConfirmed).Error
	}

	fee, net := o.splitFee(deposit.Amount)

	ctx, cancel := context.WithTimeout(context.Background(), SettlementTimeout)
	defer cancel()
	signature, err := o.minter.Mint(ctx, deposit.SolRecipient, net, refID)
	if err != nil {
		o.log.Errorw("mint failed",
			"error", err,
			"zecTxid", refID,
			"recipient", deposit.SolRecipient,
			"net", net)
		metrics.Settlements.WithLabelValues(metrics.LegMint, metrics.OutcomeFailed).Inc()
		return o.failDeposit(refID, deposit.Amount, err)
	}

	err = o.db.Transaction(func(tx *gorm.DB) error {
		mint := model.Mint{
			SolSignature: signature,
			Amount:       net,
			Recipient:    deposit.SolRecipient,
			ZecTxid:      refID,
			DepositID:    deposit.ID,
			Status:       model.MintStatusCompleted,
		}
		if err := tx.Create(&mint).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Deposit{}).
			Where(fmt.Sprintf("%s = ?", model.Deposit{}.Column().ZecTxid), refID).
			Update(model.Deposit{}.Column().Status, model.DepositStatusCompleted).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.BridgeState{}).
			Where("id = ?", model.BridgeStateID).
			Update(model.BridgeState{}.Column().LastZecTxid, refID).Error; err != nil {
			return err
		}
		return tx.Create(&model.TransactionLog{
			Action:      model.LogActionMintCompleted,
			ReferenceID: refID,
			Amount:      net,
			Fee:         fee,
			Status:      "completed",
			Detail:      fmt.Sprintf("minted to %s, signature %s", deposit.SolRecipient, signature),
		}).Error
	})
	if err != nil {
		return err
	}

	metrics.Settlements.WithLabelValues(metrics.LegMint, metrics.OutcomeCompleted).Inc()
	o.log.Infow("deposit settled",
		"zecTxid", refID,
		"gross", deposit.Amount,
		"net", net,
		"fee", fee,
		"signature", signature)
	return o.RecomputeBridgeState()
}

func (o *OrchestratorService) failDeposit(refID string, amount decimal.Decimal, cause error) error {
	return o.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Deposit{}).
			Where(fmt.Sprintf("%s = ?", model.Deposit{}.Column().ZecTxid), refID).
			Updates(map[string]interface{}{
				model.Deposit{}.Column().Status: model.DepositStatusFailed,
				model.Deposit{}.Column().ErrMsg: cause.Error(),
			}).Error; err != nil {
			return err
		}
		return tx.Create(&model.TransactionLog{
			Action:      model.LogActionMintFailed,
			ReferenceID: refID,
			Amount:      amount,
			Status:      "failed",
			Detail:      cause.Error(),
		}).Error
	})
}

// HandleConfirmedBurn settles one confirmed burn as a shielded payout.
func (o *OrchestratorService) HandleConfirmedBurn(burn model.Burn) error {
	refID := burn.SolSignature
	if !o.acquire(refID) {
		return nil
	}
	defer o.release(refID)

	res := o.db.Model(&model.Burn{}).
		Where(fmt.Sprintf("%s = ?", model.Burn{}.Column().SolSignature), refID).
		Where(fmt.Sprintf("%s = ?", model.Burn{}.Column().Status), model.BurnStatusConfirmed).
		Update(model.Burn{}.Column().Status, model.BurnStatusProcessing)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	if o.paused.Load() {
		return o.db.Model(&model.Burn{}).
			Where(fmt.Sprintf("%s = ?", model.Burn{}.Column().SolSignature), refID).
			Where(fmt.Sprintf("%s = ?", model.Burn{}.Column().Status), model.BurnStatusProcessing).
			Update(model.Burn{}.Column().Status, model.BurnStatusConfirmed).Error
	}

	var state model.BridgeState
	if err := o.db.First(&state, model.BridgeStateID).Error; err != nil {
		return fmt.Errorf("load bridge state: %w", err)
	}
	reserve := state.TotalLocked.Sub(state.TotalWithdrawn)
	if burn.Amount.GreaterThan(reserve) {
		o.log.Errorw("burn exceeds current reserve",
			"signature", refID,
			"amount", burn.Amount,
			"reserve", reserve)
		metrics.Settlements.WithLabelValues(metrics.LegPayout, metrics.OutcomeFailed).Inc()
		return o.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&model.Burn{}).
				Where(fmt.Sprintf("%s = ?", model.Burn{}.Column().SolSignature), refID).
				Updates(map[string]interface{}{
					model.Burn{}.Column().Status: model.BurnStatusFailed,
					model.Burn{}.Column().ErrMsg: ErrInsufficientReserves.Error(),
				}).Error; err != nil {
				return err
			}
			return tx.Create(&model.TransactionLog{
				Action:      model.LogActionReserveShort,
				ReferenceID: refID,
				Amount:      burn.Amount,
				Status:      "failed",
				Detail:      fmt.Sprintf("burn %s exceeds reserve %s", burn.Amount, reserve),
			}).Error
		})
	}

	fee, net := o.splitFee(burn.Amount)

	ctx, cancel := context.WithTimeout(context.Background(), SettlementTimeout)
	defer cancel()
	memo := "wZEC redemption " + refID
	txid, err := o.wallet.SendPayment(ctx, burn.ZecRecipient, net, memo)
	if err != nil {
		o.log.Errorw("payout failed",
			"error", err,
			"signature", refID,
			"zecRecipient", burn.ZecRecipient,
			"net", net)
		metrics.Settlements.WithLabelValues(metrics.LegPayout, metrics.OutcomeFailed).Inc()
		return o.failBurn(refID, burn.Amount, err)
	}

	err = o.db.Transaction(func(tx *gorm.DB) error {
		withdrawal := model.Withdrawal{
			ZecTxid:       txid,
			Amount:        net,
			Recipient:     burn.ZecRecipient,
			BurnSignature: refID,
			BurnID:        burn.ID,
			Status:        model.WithdrawalStatusSent,
		}
		if err := tx.Create(&withdrawal).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Burn{}).
			Where(fmt.Sprintf("%s = ?", model.Burn{}.Column().SolSignature), refID).
			Update(model.Burn{}.Column().Status, model.BurnStatusCompleted).Error; err != nil {
			return err
		}
		return tx.Create(&model.TransactionLog{
			Action:      model.LogActionPayoutCompleted,
			ReferenceID: refID,
			Amount:      net,
			Fee:         fee,
			Status:      "completed",
			Detail:      fmt.Sprintf("paid to %s, zec txid %s", burn.ZecRecipient, txid),
		}).Error
	})
	if err != nil {
		return err
	}

	metrics.Settlements.WithLabelValues(metrics.LegPayout, metrics.OutcomeCompleted).Inc()
	o.log.Infow("burn settled",
		"signature", refID,
		"gross", burn.Amount,
		"net", net,
		"fee", fee,
		"zecTxid", txid)
	return o.RecomputeBridgeState()
}

func (o *OrchestratorService) failBurn(refID string, amount decimal.Decimal, cause error) error {
	return o.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Burn{}).
			Where(fmt.Sprintf("%s = ?", model.Burn{}.Column().SolSignature), refID).
			Updates(map[string]interface{}{
				model.Burn{}.Column().Status: model.BurnStatusFailed,
				model.Burn{}.Column().ErrMsg: cause.Error(),
			}).Error; err != nil {
			return err
		}
		return tx.Create(&model.TransactionLog{
			Action:      model.LogActionPayoutFailed,
			ReferenceID: refID,
			Amount:      amount,
			Status:      "failed",
			Detail:      cause.Error(),
		}).Error
	})
}

// ReconciliationSweep re-drives CONFIRMED rows that never reached a
// terminal state. This is the durable recovery path after a restart: the
// in-memory in-flight set is gone, only persisted status matters. FAILED
// rows are deliberately left alone.
func (o *OrchestratorService) ReconciliationSweep() {
	if !o.sweepBusy.CompareAndSwap(false, true) {
		o.log.Debugw("reconciliation sweep still running, skipping cycle")
		return
	}
	defer o.sweepBusy.Store(false)

	var deposits []model.Deposit
	err := o.db.
		Where(fmt.Sprintf("%s = ?", model.Deposit{}.Column().Status), model.DepositStatusConfirmed).
		Where(fmt.Sprintf("%s >= ?", model.Deposit{}.Column().Confirmations), o.confirmationThreshold).
		Order("id ASC").
		Find(&deposits).Error
	if err != nil {
		o.log.Errorw("sweep: find confirmed deposits failed", "error", err)
	} else {
		for _, deposit := range deposits {
			if err := o.HandleConfirmedDeposit(deposit); err != nil {
				o.log.Errorw("sweep: handle deposit failed", "error", err, "zecTxid", deposit.ZecTxid)
			}
		}
	}

	var burns []model.Burn
	err = o.db.
		Where(fmt.Sprintf("%s = ?", model.Burn{}.Column().Status), model.BurnStatusConfirmed).
		Where("id NOT IN (?)", o.db.Model(&model.Withdrawal{}).Select(model.Withdrawal{}.Column().BurnID)).
		Order("id ASC").
		Find(&burns).Error
	if err != nil {
		o.log.Errorw("sweep: find confirmed burns failed", "error", err)
		return
	}
	for _, burn := range burns {
		if err := o.HandleConfirmedBurn(burn); err != nil {
			o.log.Errorw("sweep: handle burn failed", "error", err, "signature", burn.SolSignature)
		}
	}
}
