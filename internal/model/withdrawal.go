package model

import "github.com/shopspring/decimal"

const (
	WithdrawalStatusSent      = 1 // payout submitted, not yet fully confirmed
	WithdrawalStatusConfirmed = 2
	WithdrawalStatusCompleted = 3
)

// Withdrawal records the Zcash payout settling a burn, linked to exactly
// one burn.
type Withdrawal struct {
	Base
	ZecTxid       string          `json:"zec_txid" gorm:"type:varchar(64);not null;uniqueIndex;comment:zcash payout tx id"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null;comment:net paid out amount"`
	Recipient     string          `json:"recipient" gorm:"type:varchar(128);not null"`
	BurnSignature string          `json:"burn_signature" gorm:"type:varchar(88);not null;index;comment:source burn signature"`
	BurnID        int64           `json:"burn_id" gorm:"uniqueIndex;comment:burn_history id"`
	Confirmations int64           `json:"confirmations"`
	Status        int             `json:"status" gorm:"type:SMALLINT"`
}

func (Withdrawal) TableName() string {
	return "withdrawal_history"
}

type WithdrawalColumns struct {
	ZecTxid       string
	Amount        string
	Recipient     string
	BurnSignature string
	BurnID        string
	Confirmations string
	Status        string
}

func (Withdrawal) Column() WithdrawalColumns {
	return WithdrawalColumns{
		ZecTxid:       "zec_txid",
		Amount:        "amount",
		Recipient:     "recipient",
		BurnSignature: "burn_signature",
		BurnID:        "burn_id",
		Confirmations: "confirmations",
		Status:        "status",
	}
}
