package zcash

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wzec-network/wzec-bridge/internal/model"
	"github.com/wzec-network/wzec-bridge/pkg/log"
	zcashrpc "github.com/wzec-network/wzec-bridge/pkg/zcash"
)

const (
	testBridgeAddress = "ztestsapling1qqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqq"
	testRecipient     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

type fakeNode struct {
	received []zcashrpc.ReceivedResult
	listErr  error

	sendOpid       string
	sendErr        error
	lastFrom       string
	lastRecipients []zcashrpc.SendManyRecipient

	opResults []zcashrpc.OperationResult
	opErr     error
}

func (f *fakeNode) ListReceivedByAddress(_ string, _ int) ([]zcashrpc.ReceivedResult, error) {
	return f.received, f.listErr
}

func (f *fakeNode) SendMany(fromAddress string, recipients []zcashrpc.SendManyRecipient, _ int, _ float64) (string, error) {
	f.lastFrom = fromAddress
	f.lastRecipients = recipients
	return f.sendOpid, f.sendErr
}

func (f *fakeNode) GetOperationResult(_ []string) ([]zcashrpc.OperationResult, error) {
	return f.opResults, f.opErr
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Deposit{},
		&model.TransactionLog{},
	))
	return db
}

func newTestListener(t *testing.T, node Node, db *gorm.DB) (*ListenerService, chan model.Deposit) {
	t.Helper()
	depositCh := make(chan model.Deposit, 8)
	ls := NewListenerService(node, db, Options{
		BridgeAddress:         testBridgeAddress,
		ChangeAddress:         testBridgeAddress,
		MinDepositAmount:      decimal.RequireFromString("0.001"),
		MaxDepositAmount:      decimal.RequireFromString("100"),
		ConfirmationThreshold: 6,
		PollInterval:          time.Second,
	}, depositCh, log.NewNopLogger())
	return ls, depositCh
}

func TestPollTracksTransferOnce(t *testing.T) {
	db := newTestDB(t)
	node := &fakeNode{received: []zcashrpc.ReceivedResult{
		{Txid: "txid-1", Amount: 1.5, Memo: testRecipient, Confirmations: 2},
	}}
	ls, depositCh := newTestListener(t, node, db)

	require.NoError(t, ls.Poll())
	// same transfer seen again with more confirmations
	node.received[0].Confirmations = 4
	require.NoError(t, ls.Poll())

	var deposits []model.Deposit
	require.NoError(t, db.Find(&deposits).Error)
	require.Len(t, deposits, 1)
	require.Equal(t, "txid-1", deposits[0].ZecTxid)
	require.Equal(t, model.DepositStatusPending, deposits[0].Status)
	require.Equal(t, int64(4), deposits[0].Confirmations)
	require.True(t, deposits[0].Amount.Equal(decimal.RequireFromString("1.5")))
	require.Equal(t, testRecipient, deposits[0].SolRecipient)
	require.Empty(t, depositCh)
}

func TestPollConfirmsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	node := &fakeNode{received: []zcashrpc.ReceivedResult{
		{Txid: "txid-2", Amount: 2, Memo: testRecipient, Confirmations: 3},
	}}
	ls, depositCh := newTestListener(t, node, db)

	require.NoError(t, ls.Poll())
	require.Empty(t, depositCh)

	// threshold crossed in one jump
	node.received[0].Confirmations = 7
	require.NoError(t, ls.Poll())
	require.Len(t, depositCh, 1)

	deposit := <-depositCh
	require.Equal(t, "txid-2", deposit.ZecTxid)
	require.Equal(t, model.DepositStatusConfirmed, deposit.Status)

	// further polls must not refire the event
	node.received[0].Confirmations = 8
	require.NoError(t, ls.Poll())
	require.NoError(t, ls.Poll())
	require.Empty(t, depositCh)

	var logs []model.TransactionLog
	require.NoError(t, db.Where("action = ?", model.LogActionDepositConfirmed).Find(&logs).Error)
	require.Len(t, logs, 1)
}

func TestPollRejectsInvalidTransfers(t *testing.T) {
	db := newTestDB(t)
	node := &fakeNode{received: []zcashrpc.ReceivedResult{
		{Txid: "no-memo", Amount: 1, Memo: "thanks!", Confirmations: 9},
		{Txid: "too-small", Amount: 0.0001, Memo: testRecipient, Confirmations: 9},
		{Txid: "too-big", Amount: 5000, Memo: testRecipient, Confirmations: 9},
	}}
	ls, depositCh := newTestListener(t, node, db)

	require.NoError(t, ls.Poll())
	require.Empty(t, depositCh)

	var deposits []model.Deposit
	require.NoError(t, db.Find(&deposits).Error)
	require.Len(t, deposits, 3)
	for _, d := range deposits {
		require.Equal(t, model.DepositStatusRejected, d.Status)
		require.NotEmpty(t, d.ErrMsg)
	}

	var logs []model.TransactionLog
	require.NoError(t, db.Where("action = ?", model.LogActionDepositRejected).Find(&logs).Error)
	require.Len(t, logs, 3)
}

func TestPollRecordsRejectionOnce(t *testing.T) {
	db := newTestDB(t)
	node := &fakeNode{received: []zcashrpc.ReceivedResult{
		{Txid: "bad-memo", Amount: 1, Memo: "thanks!", Confirmations: 9},
	}}
	ls, depositCh := newTestListener(t, node, db)

	// the node returns full history, so the same invalid transfer shows
	// up on every cycle
	require.NoError(t, ls.Poll())
	require.NoError(t, ls.Poll())
	require.NoError(t, ls.Poll())
	require.Empty(t, depositCh)

	var deposits []model.Deposit
	require.NoError(t, db.Find(&deposits).Error)
	require.Len(t, deposits, 1)
	require.Equal(t, model.DepositStatusRejected, deposits[0].Status)

	var logs []model.TransactionLog
	require.NoError(t, db.Where("action = ?", model.LogActionDepositRejected).Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, "bad-memo", logs[0].ReferenceID)
}

func TestPollPrefersNodeDecodedMemo(t *testing.T) {
	db := newTestDB(t)
	node := &fakeNode{received: []zcashrpc.ReceivedResult{
		{Txid: "txid-memostr", Amount: 1, Memo: "f6", MemoStr: testRecipient, Confirmations: 2},
	}}
	ls, _ := newTestListener(t, node, db)

	require.NoError(t, ls.Poll())

	var deposit model.Deposit
	require.NoError(t, db.Where("zec_txid = ?", "txid-memostr").First(&deposit).Error)
	require.Equal(t, model.DepositStatusPending, deposit.Status)
	require.Equal(t, testRecipient, deposit.SolRecipient)
	require.Equal(t, testRecipient, deposit.Memo)
}

func TestPollSkipsChangeOutputs(t *testing.T) {
	db := newTestDB(t)
	node := &fakeNode{received: []zcashrpc.ReceivedResult{
		{Txid: "change-txid", Amount: 0.4, Memo: testRecipient, Confirmations: 9, Change: true},
	}}
	ls, _ := newTestListener(t, node, db)

	require.NoError(t, ls.Poll())

	var count int64
	require.NoError(t, db.Model(&model.Deposit{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSendPaymentSuccess(t *testing.T) {
	db := newTestDB(t)
	node := &fakeNode{
		sendOpid: "opid-1",
		opResults: []zcashrpc.OperationResult{{
			ID:     "opid-1",
			Status: zcashrpc.OperationStatusSuccess,
			Result: &zcashrpc.OperationTxResult{Txid: "payout-txid"},
		}},
	}
	ls, _ := newTestListener(t, node, db)

	txid, err := ls.SendPayment(context.Background(), testBridgeAddress, decimal.RequireFromString("0.999"), "redemption memo")
	require.NoError(t, err)
	require.Equal(t, "payout-txid", txid)
	require.Equal(t, testBridgeAddress, node.lastFrom)
	require.Len(t, node.lastRecipients, 1)
	require.Equal(t, EncodeMemoHex("redemption memo"), node.lastRecipients[0].Memo)
}

func TestSendPaymentFailure(t *testing.T) {
	db := newTestDB(t)
	node := &fakeNode{
		sendOpid: "opid-2",
		opResults: []zcashrpc.OperationResult{{
			ID:     "opid-2",
			Status: zcashrpc.OperationStatusFailed,
			Error:  &zcashrpc.OperationError{Code: -6, Message: "insufficient funds"},
		}},
	}
	ls, _ := newTestListener(t, node, db)

	_, err := ls.SendPayment(context.Background(), testBridgeAddress, decimal.RequireFromString("1"), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "insufficient funds")
}

func TestSendPaymentContextCancelled(t *testing.T) {
	db := newTestDB(t)
	node := &fakeNode{sendOpid: "opid-3"}
	ls, _ := newTestListener(t, node, db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ls.SendPayment(ctx, testBridgeAddress, decimal.RequireFromString("1"), "")
	require.ErrorIs(t, err, context.Canceled)
}
