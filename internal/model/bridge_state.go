package model

import "github.com/shopspring/decimal"

// BridgeStateID is the primary key of the singleton aggregate row.
const BridgeStateID = 1

// BridgeState is the singleton reserve aggregate, recomputed from completed
// settlement rows after every settlement. current reserve = TotalLocked -
// TotalWithdrawn; outstanding supply = TotalMinted - TotalBurned.
type BridgeState struct {
	Base
	TotalLocked    decimal.Decimal `json:"total_locked" gorm:"type:decimal(20,8);not null;default:0"`
	TotalMinted    decimal.Decimal `json:"total_minted" gorm:"type:decimal(20,8);not null;default:0"`
	TotalBurned    decimal.Decimal `json:"total_burned" gorm:"type:decimal(20,8);not null;default:0"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn" gorm:"type:decimal(20,8);not null;default:0"`
	FeesCollected  decimal.Decimal `json:"fees_collected" gorm:"type:decimal(20,8);not null;default:0"`
	LastZecTxid    string          `json:"last_zec_txid" gorm:"type:varchar(64);comment:last processed zcash tx id"`
	LastSolSig     string          `json:"last_sol_sig" gorm:"type:varchar(88);comment:last processed solana signature"`
	FeeBps         int64           `json:"fee_bps" gorm:"comment:fee in basis points, 10 = 0.1%"`
	Paused         bool            `json:"paused" gorm:"not null;default:false"`
	Initialized    bool            `json:"initialized" gorm:"not null;default:false"`
}

func (BridgeState) TableName() string {
	return "bridge_state"
}

type BridgeStateColumns struct {
	TotalLocked    string
	TotalMinted    string
	TotalBurned    string
	TotalWithdrawn string
	FeesCollected  string
	LastZecTxid    string
	LastSolSig     string
	FeeBps         string
	Paused         string
	Initialized    string
}

func (BridgeState) Column() BridgeStateColumns {
	return BridgeStateColumns{
		TotalLocked:    "total_locked",
		TotalMinted:    "total_minted",
		TotalBurned:    "total_burned",
		TotalWithdrawn: "total_withdrawn",
		FeesCollected:  "fees_collected",
		LastZecTxid:    "last_zec_txid",
		LastSolSig:     "last_sol_sig",
		FeeBps:         "fee_bps",
		Paused:         "paused",
		Initialized:    "initialized",
	}
}
