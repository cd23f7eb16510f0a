package model

import "github.com/shopspring/decimal"

const (
	LogActionDepositSeen      = "deposit_seen"
	LogActionDepositConfirmed = "deposit_confirmed"
	LogActionDepositRejected  = "deposit_rejected"
	LogActionMintCompleted    = "mint_completed"
	LogActionMintFailed       = "mint_failed"
	LogActionBurnSeen         = "burn_seen"
	LogActionBurnRejected     = "burn_rejected"
	LogActionPayoutCompleted  = "payout_completed"
	LogActionPayoutFailed     = "payout_failed"
	LogActionReserveShort     = "reserve_insufficient"
	LogActionPause            = "pause"
	LogActionResume           = "resume"
	LogActionInitialize       = "initialize"
)

// TransactionLog is the append-only audit trail. Rows are never updated
// or deleted.
type TransactionLog struct {
	Base
	Action      string          `json:"action" gorm:"type:varchar(32);not null;index"`
	ReferenceID string          `json:"reference_id" gorm:"type:varchar(88);index;comment:chain tx id or signature"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null;default:0"`
	Fee         decimal.Decimal `json:"fee" gorm:"type:decimal(20,8);not null;default:0"`
	Status      string          `json:"status" gorm:"type:varchar(16)"`
	Detail      string          `json:"detail" gorm:"type:text;comment:free-form detail payload"`
}

func (TransactionLog) TableName() string {
	return "transaction_log"
}
