package model

import "github.com/shopspring/decimal"

const (
	BurnStatusConfirmed  = 1 // burn event observed, waiting for payout
	BurnStatusProcessing = 2
	BurnStatusCompleted  = 3
	BurnStatusFailed     = 4
)

// Burn tracks a wZEC burn event emitted by the bridge program, requesting
// redemption to a shielded Zcash address.
type Burn struct {
	Base
	SolSignature string          `json:"sol_signature" gorm:"type:varchar(88);not null;uniqueIndex;comment:solana tx signature"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null;comment:gross burned amount"`
	SolSender    string          `json:"sol_sender" gorm:"type:varchar(44);not null;index"`
	ZecRecipient string          `json:"zec_recipient" gorm:"type:varchar(128);not null;comment:shielded redemption address"`
	Status       int             `json:"status" gorm:"type:SMALLINT;index"`
	ErrMsg       string          `json:"err_msg" gorm:"type:text"`
}

func (Burn) TableName() string {
	return "burn_history"
}

type BurnColumns struct {
	SolSignature string
	Amount       string
	SolSender    string
	ZecRecipient string
	Status       string
	ErrMsg       string
}

func (Burn) Column() BurnColumns {
	return BurnColumns{
		SolSignature: "sol_signature",
		Amount:       "amount",
		SolSender:    "sol_sender",
		ZecRecipient: "zec_recipient",
		Status:       "status",
		ErrMsg:       "err_msg",
	}
}
