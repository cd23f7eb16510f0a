package model

import "github.com/shopspring/decimal"

const (
	MintStatusCompleted = 1
)

// Mint records a settled wZEC mint on Solana. A row is only ever created
// after the mint transaction succeeded, linked to exactly one deposit.
type Mint struct {
	Base
	SolSignature string          `json:"sol_signature" gorm:"type:varchar(88);not null;uniqueIndex;comment:solana tx signature"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(20,8);not null;comment:net minted amount"`
	Recipient    string          `json:"recipient" gorm:"type:varchar(44);not null;index"`
	ZecTxid      string          `json:"zec_txid" gorm:"type:varchar(64);not null;index;comment:source deposit tx id"`
	DepositID    int64           `json:"deposit_id" gorm:"uniqueIndex;comment:deposit_history id"`
	Status       int             `json:"status" gorm:"type:SMALLINT"`
}

func (Mint) TableName() string {
	return "mint_history"
}

type MintColumns struct {
	SolSignature string
	Amount       string
	Recipient    string
	ZecTxid      string
	DepositID    string
	Status       string
}

func (Mint) Column() MintColumns {
	return MintColumns{
		SolSignature: "sol_signature",
		Amount:       "amount",
		Recipient:    "recipient",
		ZecTxid:      "zec_txid",
		DepositID:    "deposit_id",
		Status:       "status",
	}
}
