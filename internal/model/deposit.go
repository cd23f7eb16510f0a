package model

import "github.com/shopspring/decimal"

const (
	DepositStatusPending    = 0 // seen on chain, below confirmation threshold
	DepositStatusConfirmed  = 1 // threshold reached, waiting for settlement
	DepositStatusProcessing = 2 // settlement in flight
	DepositStatusCompleted  = 3 // mint settled, terminal
	DepositStatusFailed     = 4 // terminal
	DepositStatusRejected   = 5 // failed validation, terminal, never settled
)

// Deposit tracks an inbound shielded transfer on the Zcash side awaiting
// settlement as a wZEC mint.
type Deposit struct {
	Base
	ZecTxid       string          `json:"zec_txid" gorm:"type:varchar(64);not null;uniqueIndex;comment:zcash tx id"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null;comment:gross zec amount"`
	SolRecipient  string          `json:"sol_recipient" gorm:"type:varchar(44);not null;index;comment:solana recipient extracted from memo"`
	Memo          string          `json:"memo" gorm:"type:text;comment:raw decoded memo"`
	Confirmations int64           `json:"confirmations" gorm:"comment:observed confirmation depth"`
	Status        int             `json:"status" gorm:"type:SMALLINT;index"`
	ErrMsg        string          `json:"err_msg" gorm:"type:text"`
}

func (Deposit) TableName() string {
	return "deposit_history"
}

type DepositColumns struct {
	ZecTxid       string
	Amount        string
	SolRecipient  string
	Memo          string
	Confirmations string
	Status        string
	ErrMsg        string
}

func (Deposit) Column() DepositColumns {
	return DepositColumns{
		ZecTxid:       "zec_txid",
		Amount:        "amount",
		SolRecipient:  "sol_recipient",
		Memo:          "memo",
		Confirmations: "confirmations",
		Status:        "status",
		ErrMsg:        "err_msg",
	}
}
