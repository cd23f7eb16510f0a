package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wzec-network/wzec-bridge/internal/types"
	"github.com/wzec-network/wzec-bridge/pkg/log"
	solrpc "github.com/wzec-network/wzec-bridge/pkg/solana"
)

// anchor instruction of the bridge program
const mintInstructionName = "mint_wzec"

// seed of the program's singleton state account
var bridgeStateSeed = []byte("bridge_state")

var (
	ErrProgramNotConfigured = errors.New("bridge program not configured")
	ErrAmountPrecision      = errors.New("amount exceeds token precision")
)

// RPC is the Solana node surface the settlement client depends on.
type RPC interface {
	GetLatestBlockhash(ctx context.Context) (string, error)
	GetSignaturesForAddress(ctx context.Context, address string, opts *solrpc.GetSignaturesOpts) ([]solrpc.SignatureInfo, error)
	GetTransaction(ctx context.Context, signature string) (*solrpc.TransactionResult, error)
	GetAccountInfo(ctx context.Context, address string) (*solrpc.AccountInfoResult, error)
	GetTokenAccountsByOwner(ctx context.Context, owner, mint string) (*solrpc.TokenAccountsResult, error)
	SendTransaction(ctx context.Context, signedTxBase64 string) (string, error)
}

// BridgeClient executes the mint leg against the wZEC program and exposes
// read-only token queries. It never writes ledger state; settlement
// outcomes are persisted by the orchestrator.
type BridgeClient struct {
	rpc       RPC
	authority ed25519.PrivateKey
	payer     solrpc.PublicKey
	mint      solrpc.PublicKey
	decimals  int32
	log       log.Logger

	// zero when no program is configured; mints then fall back to the
	// direct spl-token path
	programID      solrpc.PublicKey
	bridgeStatePDA solrpc.PublicKey
	hasProgram     bool
}

var _ types.WZECMinter = (*BridgeClient)(nil)

// NewBridgeClient builds the settlement client. programID may be empty.
func NewBridgeClient(rpc RPC, authority ed25519.PrivateKey, mintAddress, programID string, decimals int32, logger log.Logger) (*BridgeClient, error) {
	mint, err := solrpc.ParsePubkey(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("mint address: %w", err)
	}
	bc := &BridgeClient{
		rpc:       rpc,
		authority: authority,
		payer:     solrpc.PublicKeyOf(authority),
		mint:      mint,
		decimals:  decimals,
		log:       logger,
	}
	if programID != "" {
		pid, err := solrpc.ParsePubkey(programID)
		if err != nil {
			return nil, fmt.Errorf("program id: %w", err)
		}
		statePDA, _, err := solrpc.FindProgramAddress([][]byte{bridgeStateSeed}, pid)
		if err != nil {
			return nil, fmt.Errorf("derive bridge state: %w", err)
		}
		bc.programID = pid
		bc.bridgeStatePDA = statePDA
		bc.hasProgram = true
	}
	return bc, nil
}

// ProgramID returns the configured program address and whether one exists.
func (bc *BridgeClient) ProgramID() (string, bool) {
	if !bc.hasProgram {
		return "", false
	}
	return bc.programID.String(), true
}

// ToBaseUnits converts a decimal token amount into chain base units.
func (bc *BridgeClient) ToBaseUnits(amount decimal.Decimal) (uint64, error) {
	units := amount.Shift(bc.decimals)
	if !units.Equal(units.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s", ErrAmountPrecision, amount)
	}
	if units.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", amount)
	}
	return uint64(units.IntPart()), nil
}

// FromBaseUnits converts chain base units back into a decimal amount.
func (bc *BridgeClient) FromBaseUnits(units uint64) decimal.Decimal {
	return decimal.NewFromUint64(units).Shift(-bc.decimals)
}

// Mint credits net wrapped value to recipient, creating the recipient's
// associated token account when missing, and returns the transaction
// signature. Failures propagate without partial ledger mutation.
func (bc *BridgeClient) Mint(ctx context.Context, recipient string, amount decimal.Decimal, zecTxid string) (string, error) {
	recipientPk, err := solrpc.ParsePubkey(recipient)
	if err != nil {
		return "", fmt.Errorf("recipient: %w", err)
	}
	units, err := bc.ToBaseUnits(amount)
	if err != nil {
		return "", err
	}
	if units == 0 {
		return "", fmt.Errorf("mint amount %s rounds to zero base units", amount)
	}

	ata, err := solrpc.FindAssociatedTokenAddress(recipientPk, bc.mint)
	if err != nil {
		return "", fmt.Errorf("derive token account: %w", err)
	}

	instructions := []solrpc.Instruction{
		solrpc.NewCreateATAIdempotentInstruction(bc.payer, ata, recipientPk, bc.mint),
	}
	if bc.hasProgram {
		instructions = append(instructions, bc.mintWZECInstruction(ata, units, zecTxid))
	} else {
		instructions = append(instructions, solrpc.NewMintToInstruction(bc.mint, ata, bc.payer, units))
	}

	blockhash, err := bc.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("latest blockhash: %w", err)
	}
	signedTx, err := solrpc.NewTransaction(instructions, blockhash, bc.authority)
	if err != nil {
		return "", fmt.Errorf("build mint tx: %w", err)
	}
	signature, err := bc.rpc.SendTransaction(ctx, signedTx)
	if err != nil {
		return "", fmt.Errorf("send mint tx: %w", err)
	}

	bc.log.Infow("mint submitted",
		"signature", signature,
		"recipient", recipient,
		"amount", amount,
		"zecTxid", zecTxid)
	return signature, nil
}

func (bc *BridgeClient) mintWZECInstruction(recipientATA solrpc.PublicKey, units uint64, zecTxid string) solrpc.Instruction {
	data := solrpc.AnchorDiscriminator(mintInstructionName)
	var amountLE [8]byte
	binary.LittleEndian.PutUint64(amountLE[:], units)
	data = append(data, amountLE[:]...)
	data = solrpc.AppendBorshString(data, zecTxid)

	return solrpc.Instruction{
		ProgramID: bc.programID,
		Accounts: []solrpc.AccountMeta{
			{PubKey: bc.bridgeStatePDA, IsWritable: true},
			{PubKey: bc.mint, IsWritable: true},
			{PubKey: recipientATA, IsWritable: true},
			{PubKey: bc.payer, IsSigner: true, IsWritable: true},
			{PubKey: solrpc.TokenProgramID},
		},
		Data: data,
	}
}

// TokenBalance returns owner's wrapped-token balance, zero when no token
// account exists.
func (bc *BridgeClient) TokenBalance(ctx context.Context, owner string) (decimal.Decimal, error) {
	accounts, err := bc.rpc.GetTokenAccountsByOwner(ctx, owner, bc.mint.String())
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, acc := range accounts.Value {
		units, err := decimal.NewFromString(acc.Account.Data.Parsed.Info.TokenAmount.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse token amount: %w", err)
		}
		balance = balance.Add(units.Shift(-bc.decimals))
	}
	return balance, nil
}

// ProgramState mirrors the on-chain bridge_state account.
type ProgramState struct {
	Authority    string
	Mint         string
	FeeBps       uint16
	Paused       bool
	TotalMinted  uint64
	TotalBurned  uint64
	FeeCollected uint64
}

// FetchBridgeState reads and decodes the program's state account.
func (bc *BridgeClient) FetchBridgeState(ctx context.Context) (*ProgramState, error) {
	if !bc.hasProgram {
		return nil, ErrProgramNotConfigured
	}
	info, err := bc.rpc.GetAccountInfo(ctx, bc.bridgeStatePDA.String())
	if err != nil {
		return nil, err
	}
	if info.Value == nil || len(info.Value.Data) == 0 {
		return nil, errors.New("bridge state account not found")
	}
	raw, err := base64.StdEncoding.DecodeString(info.Value.Data[0])
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return decodeProgramState(raw)
}

// decodeProgramState parses the anchor account layout: 8-byte account
// discriminator, authority, mint, fee bps, paused, three u64 totals.
func decodeProgramState(raw []byte) (*ProgramState, error) {
	const size = 8 + 32 + 32 + 2 + 1 + 8 + 8 + 8
	if len(raw) < size {
		return nil, fmt.Errorf("bridge state account holds %d bytes, want %d", len(raw), size)
	}
	var authority, mint solrpc.PublicKey
	offset := 8
	copy(authority[:], raw[offset:offset+32])
	offset += 32
	copy(mint[:], raw[offset:offset+32])
	offset += 32
	state := &ProgramState{
		Authority: authority.String(),
		Mint:      mint.String(),
		FeeBps:    binary.LittleEndian.Uint16(raw[offset : offset+2]),
	}
	offset += 2
	state.Paused = raw[offset] != 0
	offset++
	state.TotalMinted = binary.LittleEndian.Uint64(raw[offset : offset+8])
	offset += 8
	state.TotalBurned = binary.LittleEndian.Uint64(raw[offset : offset+8])
	offset += 8
	state.FeeCollected = binary.LittleEndian.Uint64(raw[offset : offset+8])
	return state, nil
}
