package solana

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wzec-network/wzec-bridge/internal/model"
	"github.com/wzec-network/wzec-bridge/pkg/log"
	solrpc "github.com/wzec-network/wzec-bridge/pkg/solana"
)

func newWatcherTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Burn{},
		&model.BridgeState{},
		&model.TransactionLog{},
	))
	require.NoError(t, db.Create(&model.BridgeState{Base: model.Base{ID: model.BridgeStateID}}).Error)
	return db
}

func newTestWatcher(t *testing.T, rpc *fakeRPC, db *gorm.DB) (*BurnWatcherService, chan model.Burn) {
	t.Helper()
	bc := newTestBridgeClient(t, rpc, testProgramID)
	burnCh := make(chan model.Burn, 8)
	ws, err := NewBurnWatcherService(rpc, bc, db, 20, time.Second, burnCh, log.NewNopLogger())
	require.NoError(t, err)
	return ws, burnCh
}

func TestNewBurnWatcherRequiresProgram(t *testing.T) {
	bc := newTestBridgeClient(t, &fakeRPC{}, "")
	_, err := NewBurnWatcherService(&fakeRPC{}, bc, newWatcherTestDB(t), 20, time.Second, nil, log.NewNopLogger())
	require.ErrorIs(t, err, ErrProgramNotConfigured)
}

func TestPollIngestsBurnsOldestFirst(t *testing.T) {
	db := newWatcherTestDB(t)
	rpc := &fakeRPC{
		// newest first, the way the RPC returns them
		sigs: []solrpc.SignatureInfo{
			{Signature: "sig-2"},
			{Signature: "sig-1"},
		},
		txs: map[string]*solrpc.TransactionResult{
			"sig-1": {Meta: &solrpc.TransactionMeta{
				LogMessages: burnLogs("100000000", testSender, testShieldedAddr),
			}},
			"sig-2": {Meta: &solrpc.TransactionMeta{
				LogMessages: burnLogs("250000000", testSender, testShieldedAddr),
			}},
		},
	}
	ws, burnCh := newTestWatcher(t, rpc, db)

	require.NoError(t, ws.Poll())
	require.Len(t, burnCh, 2)

	first := <-burnCh
	require.Equal(t, "sig-1", first.SolSignature)
	require.True(t, first.Amount.Equal(decimal.RequireFromString("1")))
	require.Equal(t, model.BurnStatusConfirmed, first.Status)

	second := <-burnCh
	require.Equal(t, "sig-2", second.SolSignature)
	require.True(t, second.Amount.Equal(decimal.RequireFromString("2.5")))

	// cursor advanced to the newest scanned signature
	var state model.BridgeState
	require.NoError(t, db.First(&state, model.BridgeStateID).Error)
	require.Equal(t, "sig-2", state.LastSolSig)

	// next poll passes the cursor to the node
	require.NoError(t, ws.Poll())
	require.Equal(t, "sig-2", rpc.lastOpts.Until)
}

func TestPollSkipsFailedAndDuplicateSignatures(t *testing.T) {
	db := newWatcherTestDB(t)
	rpc := &fakeRPC{
		sigs: []solrpc.SignatureInfo{
			{Signature: "sig-failed", Err: map[string]interface{}{"InstructionError": []interface{}{}}},
			{Signature: "sig-ok"},
		},
		txs: map[string]*solrpc.TransactionResult{
			"sig-ok": {Meta: &solrpc.TransactionMeta{
				LogMessages: burnLogs("100000000", testSender, testShieldedAddr),
			}},
		},
	}
	ws, burnCh := newTestWatcher(t, rpc, db)

	require.NoError(t, ws.Poll())
	require.Len(t, burnCh, 1)
	<-burnCh

	// the same window scanned again must not duplicate rows or events
	require.NoError(t, ws.Poll())
	require.Empty(t, burnCh)

	var count int64
	require.NoError(t, db.Model(&model.Burn{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestPollRejectsInvalidRedemptionAddress(t *testing.T) {
	db := newWatcherTestDB(t)
	rpc := &fakeRPC{
		sigs: []solrpc.SignatureInfo{{Signature: "sig-bad-dest"}},
		txs: map[string]*solrpc.TransactionResult{
			"sig-bad-dest": {Meta: &solrpc.TransactionMeta{
				LogMessages: burnLogs("100000000", testSender, "zs1tooshort"),
			}},
		},
	}
	ws, burnCh := newTestWatcher(t, rpc, db)

	require.NoError(t, ws.Poll())
	require.Empty(t, burnCh)

	var count int64
	require.NoError(t, db.Model(&model.Burn{}).Count(&count).Error)
	require.Zero(t, count)

	var logs []model.TransactionLog
	require.NoError(t, db.Where("action = ?", model.LogActionBurnRejected).Find(&logs).Error)
	require.Len(t, logs, 1)
	require.Equal(t, "sig-bad-dest", logs[0].ReferenceID)
}

func TestPollIgnoresNonBurnTransactions(t *testing.T) {
	db := newWatcherTestDB(t)
	rpc := &fakeRPC{
		sigs: []solrpc.SignatureInfo{{Signature: "sig-mint"}},
		txs: map[string]*solrpc.TransactionResult{
			"sig-mint": {Meta: &solrpc.TransactionMeta{
				LogMessages: []string{"Program log: Instruction: MintWzec"},
			}},
		},
	}
	ws, burnCh := newTestWatcher(t, rpc, db)

	require.NoError(t, ws.Poll())
	require.Empty(t, burnCh)

	var count int64
	require.NoError(t, db.Model(&model.Burn{}).Count(&count).Error)
	require.Zero(t, count)
}
