package server

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wzec-network/wzec-bridge/internal/config"
	"github.com/wzec-network/wzec-bridge/internal/model"
	"github.com/wzec-network/wzec-bridge/internal/types"
)

// NewDB opens the ledger database.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseSource), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate creates the ledger schema and bootstraps the singleton
// bridge-state row.
func Migrate(db *gorm.DB, cfg *config.Config) error {
	err := db.AutoMigrate(
		&model.Deposit{},
		&model.Mint{},
		&model.Burn{},
		&model.Withdrawal{},
		&model.BridgeState{},
		&model.TransactionLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var state model.BridgeState
	if err := db.First(&state, model.BridgeStateID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		state = model.BridgeState{
			Base:           model.Base{ID: model.BridgeStateID},
			TotalLocked:    decimal.Zero,
			TotalMinted:    decimal.Zero,
			TotalBurned:    decimal.Zero,
			TotalWithdrawn: decimal.Zero,
			FeesCollected:  decimal.Zero,
			FeeBps:         feeBps(cfg.Solana.FeePercent),
		}
		if err := db.Create(&state).Error; err != nil {
			return fmt.Errorf("bootstrap bridge state: %w", err)
		}
	}
	return nil
}

// feeBps converts a fee percent into basis points (0.1% -> 10).
func feeBps(feePercent float64) int64 {
	return decimal.NewFromFloat(feePercent).Mul(decimal.NewFromInt(100)).IntPart()
}

// GetDbContextFromCmd returns the database handle stashed on the command
// context by the entry point.
func GetDbContextFromCmd(cmd *cobra.Command) (*gorm.DB, error) {
	if v := cmd.Context().Value(types.DBContextKey); v != nil {
		db := v.(*gorm.DB)
		return db, nil
	}
	return nil, fmt.Errorf("db context not set")
}
