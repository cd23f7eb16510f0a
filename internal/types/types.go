package types

import (
	"context"

	"github.com/shopspring/decimal"
)

// ZECWallet is the source-chain collaborator: it observes inbound shielded
// transfers to the bridge address and submits outbound payouts.
type ZECWallet interface {
	// ListReceived returns all transfers received by the bridge address
	// with at least minConf confirmations.
	ListReceived(ctx context.Context, address string, minConf int) ([]ReceivedTransfer, error)
	// SendPayment submits an asynchronous outbound transfer and blocks
	// until the async operation resolves to a txid or fails.
	SendPayment(ctx context.Context, toAddress string, amount decimal.Decimal, memo string) (string, error)
}

// ReceivedTransfer is a single inbound shielded transfer.
type ReceivedTransfer struct {
	Txid          string
	Amount        decimal.Decimal
	Memo          string
	Confirmations int64
}

// WZECMinter is the destination-chain collaborator executing the mint leg.
type WZECMinter interface {
	// Mint credits net wrapped value to recipient and returns the
	// resulting transaction signature. No ledger state is touched here;
	// the caller persists the outcome.
	Mint(ctx context.Context, recipient string, amount decimal.Decimal, zecTxid string) (string, error)
	// TokenBalance returns the wrapped-token balance of owner, zero if
	// no token account exists.
	TokenBalance(ctx context.Context, owner string) (decimal.Decimal, error)
}
