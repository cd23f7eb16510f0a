package bridge

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wzec-network/wzec-bridge/internal/metrics"
	"github.com/wzec-network/wzec-bridge/internal/model"
)

// Pause stops new settlements from progressing past CONFIRMED. Rows
// already recorded are untouched.
func (o *OrchestratorService) Pause() error {
	err := o.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.BridgeState{}).
			Where("id = ?", model.BridgeStateID).
			Update(model.BridgeState{}.Column().Paused, true).Error; err != nil {
			return err
		}
		return tx.Create(&model.TransactionLog{
			Action: model.LogActionPause,
			Status: "paused",
		}).Error
	})
	if err != nil {
		return err
	}
	o.paused.Store(true)
	metrics.Paused.Set(1)
	o.log.Warnw("bridge paused")
	return nil
}

// Resume re-enables settlement and immediately sweeps for rows that were
// deferred while paused.
func (o *OrchestratorService) Resume() error {
	err := o.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.BridgeState{}).
			Where("id = ?", model.BridgeStateID).
			Update(model.BridgeState{}.Column().Paused, false).Error; err != nil {
			return err
		}
		return tx.Create(&model.TransactionLog{
			Action: model.LogActionResume,
			Status: "running",
		}).Error
	})
	if err != nil {
		return err
	}
	o.paused.Store(false)
	metrics.Paused.Set(0)
	o.log.Infow("bridge resumed")

	go o.ReconciliationSweep()
	return nil
}

// Paused reports the cached pause flag.
func (o *OrchestratorService) Paused() bool {
	return o.paused.Load()
}

// Initialize performs the one-time bridge-state bootstrap, recording the
// fee in basis points. Fails if already done.
func (o *OrchestratorService) Initialize(feeBps int64) error {
	var state model.BridgeState
	if err := o.db.First(&state, model.BridgeStateID).Error; err != nil {
		return err
	}
	if state.Initialized {
		return ErrAlreadyInitialized
	}
	return o.db.Transaction(func(tx *gorm.DB) error {
		col := model.BridgeState{}.Column()
		if err := tx.Model(&model.BridgeState{}).
			Where("id = ?", model.BridgeStateID).
			Updates(map[string]interface{}{
				col.FeeBps:      feeBps,
				col.Initialized: true,
			}).Error; err != nil {
			return err
		}
		return tx.Create(&model.TransactionLog{
			Action: model.LogActionInitialize,
			Status: "initialized",
			Detail: fmt.Sprintf("fee %d bps", feeBps),
		}).Error
	})
}

// StatusReport is a read-only projection of the settlement state.
type StatusReport struct {
	Running bool `json:"running"`
	Paused  bool `json:"paused"`

	TotalLocked    decimal.Decimal `json:"total_locked"`
	TotalMinted    decimal.Decimal `json:"total_minted"`
	TotalBurned    decimal.Decimal `json:"total_burned"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	FeesCollected  decimal.Decimal `json:"fees_collected"`
	Reserve        decimal.Decimal `json:"reserve"`
	Outstanding    decimal.Decimal `json:"outstanding"`

	LastZecTxid string `json:"last_zec_txid"`
	LastSolSig  string `json:"last_sol_sig"`

	PendingDeposits   int64 `json:"pending_deposits"`
	CompletedDeposits int64 `json:"completed_deposits"`
	PendingBurns      int64 `json:"pending_burns"`
	CompletedBurns    int64 `json:"completed_burns"`
	InFlight          int   `json:"in_flight"`
}

// Status assembles the operator status view.
func (o *OrchestratorService) Status() (*StatusReport, error) {
	var state model.BridgeState
	if err := o.db.First(&state, model.BridgeStateID).Error; err != nil {
		return nil, err
	}

	report := &StatusReport{
		Running:        o.running.Load(),
		Paused:         state.Paused,
		TotalLocked:    state.TotalLocked,
		TotalMinted:    state.TotalMinted,
		TotalBurned:    state.TotalBurned,
		TotalWithdrawn: state.TotalWithdrawn,
		FeesCollected:  state.FeesCollected,
		Reserve:        state.TotalLocked.Sub(state.TotalWithdrawn),
		Outstanding:    state.TotalMinted.Sub(state.TotalBurned),
		LastZecTxid:    state.LastZecTxid,
		LastSolSig:     state.LastSolSig,
	}

	counts := []struct {
		dst      *int64
		m        interface{}
		col      string
		statuses []int
	}{
		{&report.PendingDeposits, &model.Deposit{}, model.Deposit{}.Column().Status,
			[]int{model.DepositStatusPending, model.DepositStatusConfirmed, model.DepositStatusProcessing}},
		{&report.CompletedDeposits, &model.Deposit{}, model.Deposit{}.Column().Status,
			[]int{model.DepositStatusCompleted}},
		{&report.PendingBurns, &model.Burn{}, model.Burn{}.Column().Status,
			[]int{model.BurnStatusConfirmed, model.BurnStatusProcessing}},
		{&report.CompletedBurns, &model.Burn{}, model.Burn{}.Column().Status,
			[]int{model.BurnStatusCompleted}},
	}
	for _, c := range counts {
		if err := o.db.Model(c.m).
			Where(fmt.Sprintf("%s IN (?)", c.col), c.statuses).
			Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	o.mu.Lock()
	report.InFlight = len(o.inflight)
	o.mu.Unlock()
	return report, nil
}
