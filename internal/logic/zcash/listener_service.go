package zcash

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cometbft/cometbft/libs/service"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wzec-network/wzec-bridge/internal/metrics"
	"github.com/wzec-network/wzec-bridge/internal/model"
	"github.com/wzec-network/wzec-bridge/internal/types"
	"github.com/wzec-network/wzec-bridge/pkg/log"
	zcashrpc "github.com/wzec-network/wzec-bridge/pkg/zcash"
)

const (
	ListenerServiceName = "ZcashListenerService"

	// async payment operation polling
	PaymentPollInterval = 1 * time.Second
	PaymentMaxAttempts  = 60

	payoutMinConf = 1
)

var ErrPaymentTimeout = errors.New("payment operation result timeout")

// Node is the zcashd RPC surface the listener depends on.
type Node interface {
	ListReceivedByAddress(address string, minConf int) ([]zcashrpc.ReceivedResult, error)
	SendMany(fromAddress string, recipients []zcashrpc.SendManyRecipient, minConf int, fee float64) (string, error)
	GetOperationResult(opids []string) ([]zcashrpc.OperationResult, error)
}

// Options carries the listener configuration.
type Options struct {
	BridgeAddress         string
	ChangeAddress         string
	MinDepositAmount      decimal.Decimal
	MaxDepositAmount      decimal.Decimal
	ConfirmationThreshold int64
	PollInterval          time.Duration
	PayoutFee             float64
}

// ListenerService turns inbound shielded transfers into confirmation-tracked
// deposit rows and provides the outbound payout primitive for redemptions.
type ListenerService struct {
	service.BaseService

	node      Node
	db        *gorm.DB
	log       log.Logger
	opts      Options
	depositCh chan<- model.Deposit

	busy     atomic.Bool
	stopChan chan struct{}
}

var _ types.ZECWallet = (*ListenerService)(nil)

// NewListenerService returns a new service instance.
func NewListenerService(
	node Node,
	db *gorm.DB,
	opts Options,
	depositCh chan<- model.Deposit,
	logger log.Logger,
) *ListenerService {
	ls := &ListenerService{
		node:      node,
		db:        db,
		log:       logger,
		opts:      opts,
		depositCh: depositCh,
		stopChan:  make(chan struct{}),
	}
	ls.BaseService = *service.NewBaseService(nil, ListenerServiceName, ls)
	return ls
}

// OnStart runs the poll loop until the service stops.
func (ls *ListenerService) OnStart() error {
	ticker := time.NewTicker(ls.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ls.stopChan:
			ls.log.Warnf("zcash listener stopping...")
			return nil
		case <-ticker.C:
			if err := ls.Poll(); err != nil {
				ls.log.Errorw("zcash listener poll failed", "error", err)
			}
		}
	}
}

func (ls *ListenerService) OnStop() {
	close(ls.stopChan)
}

// Poll scans all transfers received at the bridge address and advances
// deposit tracking. Single-flight: a cycle that finds the previous one
// still running returns immediately.
func (ls *ListenerService) Poll() error {
	if !ls.busy.CompareAndSwap(false, true) {
		ls.log.Debugw("zcash listener poll still running, skipping cycle")
		return nil
	}
	defer ls.busy.Store(false)

	received, err := ls.node.ListReceivedByAddress(ls.opts.BridgeAddress, 1)
	if err != nil {
		// transient RPC failure, retried on the next cycle
		return fmt.Errorf("list received: %w", err)
	}

	for _, r := range received {
		if r.Change {
			continue
		}
		if err := ls.trackTransfer(r); err != nil {
			ls.log.Errorw("track transfer failed", "error", err, "zecTxid", r.Txid)
		}
	}
	return nil
}

func (ls *ListenerService) trackTransfer(r zcashrpc.ReceivedResult) error {
	var deposit model.Deposit
	err := ls.db.
		Where(
			fmt.Sprintf("%s = ?", model.Deposit{}.Column().ZecTxid),
			r.Txid,
		).
		First(&deposit).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ls.recordNewTransfer(r)
	case err != nil:
		return err
	}

	if deposit.Status == model.DepositStatusRejected {
		return nil
	}

	// already tracked: only the confirmation count moves
	if r.Confirmations != deposit.Confirmations {
		res := ls.db.Model(&model.Deposit{}).
			Where("id = ?", deposit.ID).
			Update(model.Deposit{}.Column().Confirmations, r.Confirmations)
		if res.Error != nil {
			return res.Error
		}
		deposit.Confirmations = r.Confirmations
	}
	return ls.maybeConfirm(deposit)
}

func (ls *ListenerService) recordNewTransfer(r zcashrpc.ReceivedResult) error {
	// zcashd surfaces UTF-8 memos decoded as memoStr; fall back to
	// decoding the raw memo field ourselves otherwise.
	memo := r.MemoStr
	if memo == "" {
		memo = DecodeMemo(r.Memo)
	}
	amount := decimal.NewFromFloat(r.Amount)

	recipient, ok := ExtractSolanaAddress(memo)
	if !ok {
		ls.rejectTransfer(r, amount, memo, "no valid solana address in memo")
		return nil
	}
	if !AmountWithinBounds(amount, ls.opts.MinDepositAmount, ls.opts.MaxDepositAmount) {
		ls.rejectTransfer(r, amount, memo, fmt.Sprintf("amount outside [%s, %s]",
			ls.opts.MinDepositAmount, ls.opts.MaxDepositAmount))
		return nil
	}

	deposit := model.Deposit{
		ZecTxid:       r.Txid,
		Amount:        amount,
		SolRecipient:  recipient,
		Memo:          memo,
		Confirmations: r.Confirmations,
		Status:        model.DepositStatusPending,
	}
	err := ls.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&deposit).Error; err != nil {
			return err
		}
		return tx.Create(&model.TransactionLog{
			Action:      model.LogActionDepositSeen,
			ReferenceID: r.Txid,
			Amount:      amount,
			Status:      "pending",
			Detail:      fmt.Sprintf("recipient %s, %d confirmations", recipient, r.Confirmations),
		}).Error
	})
	if err != nil {
		return err
	}
	ls.log.Infow("tracked new deposit",
		"zecTxid", r.Txid,
		"amount", amount,
		"recipient", recipient,
		"confirmations", r.Confirmations)

	return ls.maybeConfirm(deposit)
}

// rejectTransfer records a validation failure as a terminal REJECTED
// deposit row plus one audit entry. The row keeps later polls from
// re-running validation on the same txid; the value stays at the bridge
// address and operators work the audit trail as the manual-recovery queue.
func (ls *ListenerService) rejectTransfer(r zcashrpc.ReceivedResult, amount decimal.Decimal, memo, reason string) {
	ls.log.Warnw("rejected inbound transfer",
		"zecTxid", r.Txid,
		"amount", amount,
		"reason", reason)
	metrics.RejectedTransfers.WithLabelValues("zcash").Inc()
	err := ls.db.Transaction(func(tx *gorm.DB) error {
		deposit := model.Deposit{
			ZecTxid:       r.Txid,
			Amount:        amount,
			Memo:          memo,
			Confirmations: r.Confirmations,
			Status:        model.DepositStatusRejected,
			ErrMsg:        reason,
		}
		if err := tx.Create(&deposit).Error; err != nil {
			return err
		}
		return tx.Create(&model.TransactionLog{
			Action:      model.LogActionDepositRejected,
			ReferenceID: r.Txid,
			Amount:      amount,
			Status:      "rejected",
			Detail:      reason,
		}).Error
	})
	if err != nil {
		ls.log.Errorw("failed to record rejected transfer", "error", err, "zecTxid", r.Txid)
	}
}

// maybeConfirm fires the PENDING→CONFIRMED transition exactly once when the
// confirmation threshold is reached. The conditional update is the guard:
// whichever cycle flips the row emits the event.
func (ls *ListenerService) maybeConfirm(deposit model.Deposit) error {
	if deposit.Status != model.DepositStatusPending ||
		deposit.Confirmations < ls.opts.ConfirmationThreshold {
		return nil
	}

	res := ls.db.Model(&model.Deposit{}).
		Where("id = ?", deposit.ID).
		Where(
			fmt.Sprintf("%s = ?", model.Deposit{}.Column().Status),
			model.DepositStatusPending,
		).
		Update(model.Deposit{}.Column().Status, model.DepositStatusConfirmed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	deposit.Status = model.DepositStatusConfirmed
	if err := ls.db.Create(&model.TransactionLog{
		Action:      model.LogActionDepositConfirmed,
		ReferenceID: deposit.ZecTxid,
		Amount:      deposit.Amount,
		Status:      "confirmed",
		Detail:      fmt.Sprintf("%d confirmations", deposit.Confirmations),
	}).Error; err != nil {
		ls.log.Errorw("failed to record confirmation", "error", err, "zecTxid", deposit.ZecTxid)
	}

	ls.log.Infow("deposit confirmed", "zecTxid", deposit.ZecTxid, "amount", deposit.Amount)
	select {
	case ls.depositCh <- deposit:
	case <-ls.stopChan:
	}
	return nil
}

// ListReceived exposes the raw received-transfer view.
func (ls *ListenerService) ListReceived(_ context.Context, address string, minConf int) ([]types.ReceivedTransfer, error) {
	received, err := ls.node.ListReceivedByAddress(address, minConf)
	if err != nil {
		return nil, err
	}
	transfers := make([]types.ReceivedTransfer, 0, len(received))
	for _, r := range received {
		transfers = append(transfers, types.ReceivedTransfer{
			Txid:          r.Txid,
			Amount:        decimal.NewFromFloat(r.Amount),
			Memo:          DecodeMemo(r.Memo),
			Confirmations: r.Confirmations,
		})
	}
	return transfers, nil
}

// SendPayment submits an async outbound payout and blocks until the node
// reports a txid, the operation fails, or polling times out.
func (ls *ListenerService) SendPayment(ctx context.Context, toAddress string, amount decimal.Decimal, memo string) (string, error) {
	amountF, _ := amount.Float64()
	recipient := zcashrpc.SendManyRecipient{
		Address: toAddress,
		Amount:  amountF,
	}
	if memo != "" {
		recipient.Memo = EncodeMemoHex(memo)
	}

	opid, err := ls.node.SendMany(ls.opts.ChangeAddress, []zcashrpc.SendManyRecipient{recipient}, payoutMinConf, ls.opts.PayoutFee)
	if err != nil {
		return "", fmt.Errorf("send payment: %w", err)
	}
	ls.log.Infow("payout submitted", "opid", opid, "to", toAddress, "amount", amount)

	for attempt := 0; attempt < PaymentMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(PaymentPollInterval):
		}

		results, err := ls.node.GetOperationResult([]string{opid})
		if err != nil {
			ls.log.Errorw("poll operation result failed", "error", err, "opid", opid)
			continue
		}
		for _, res := range results {
			if res.ID != opid {
				continue
			}
			switch res.Status {
			case zcashrpc.OperationStatusSuccess:
				if res.Result == nil || res.Result.Txid == "" {
					return "", fmt.Errorf("operation %s succeeded without txid", opid)
				}
				return res.Result.Txid, nil
			case zcashrpc.OperationStatusFailed:
				if res.Error != nil {
					return "", fmt.Errorf("payment operation failed: %s", res.Error.Message)
				}
				return "", fmt.Errorf("payment operation %s failed", opid)
			}
		}
	}
	return "", ErrPaymentTimeout
}
