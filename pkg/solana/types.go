package solana

import "encoding/json"

// JSON-RPC 2.0 request/response envelope.

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC level failure returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// getLatestBlockhash result
type LatestBlockhashResult struct {
	Value struct {
		Blockhash            string `json:"blockhash"`
		LastValidBlockHeight int64  `json:"lastValidBlockHeight"`
	} `json:"value"`
}

// getSignaturesForAddress result entry, newest first.
type SignatureInfo struct {
	Signature          string      `json:"signature"`
	Slot               int64       `json:"slot"`
	BlockTime          *int64      `json:"blockTime"`
	Err                interface{} `json:"err"`
	Memo               *string     `json:"memo"`
	ConfirmationStatus *string     `json:"confirmationStatus"`
}

// GetSignaturesOpts narrows a getSignaturesForAddress scan.
type GetSignaturesOpts struct {
	Limit  int
	Before string // signature to start searching backwards from
	Until  string // signature to search until (exclusive)
}

// getTransaction result (jsonParsed encoding).
type TransactionResult struct {
	Slot        int64            `json:"slot"`
	BlockTime   *int64           `json:"blockTime"`
	Transaction json.RawMessage  `json:"transaction"`
	Meta        *TransactionMeta `json:"meta"`
}

type TransactionMeta struct {
	Err         interface{} `json:"err"`
	Fee         uint64      `json:"fee"`
	LogMessages []string    `json:"logMessages"`
}

// getAccountInfo result (base64 encoding).
type AccountInfoResult struct {
	Value *struct {
		Data     []string `json:"data"` // [payload, encoding]
		Owner    string   `json:"owner"`
		Lamports uint64   `json:"lamports"`
	} `json:"value"`
}

// getTokenAccountsByOwner result (jsonParsed encoding).
type TokenAccountsResult struct {
	Value []struct {
		Pubkey  string `json:"pubkey"`
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						TokenAmount struct {
							Amount         string `json:"amount"`
							Decimals       int32  `json:"decimals"`
							UIAmountString string `json:"uiAmountString"`
						} `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}
