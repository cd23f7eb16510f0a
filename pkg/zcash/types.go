package zcash

// Raw result shapes of the zcashd shielded RPC extensions.

// ReceivedResult is one entry of z_listreceivedbyaddress.
type ReceivedResult struct {
	Txid          string  `json:"txid"`
	Amount        float64 `json:"amount"`
	Memo          string  `json:"memo"`
	MemoStr       string  `json:"memoStr"`
	Confirmations int64   `json:"confirmations"`
	OutIndex      int     `json:"outindex"`
	Change        bool    `json:"change"`
}

// SendManyRecipient is one output of z_sendmany.
type SendManyRecipient struct {
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
	Memo    string  `json:"memo,omitempty"`
}

// OperationResult is one entry of z_getoperationresult.
type OperationResult struct {
	ID           string             `json:"id"`
	Status       string             `json:"status"`
	CreationTime int64              `json:"creation_time"`
	Result       *OperationTxResult `json:"result,omitempty"`
	Error        *OperationError    `json:"error,omitempty"`
}

// OperationTxResult carries the txid of a finished operation.
type OperationTxResult struct {
	Txid string `json:"txid"`
}

// OperationError carries the node-reported failure of an operation.
type OperationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	OperationStatusSuccess = "success"
	OperationStatusFailed  = "failed"
)

// ValidateAddressResult is the result of z_validateaddress.
type ValidateAddressResult struct {
	IsValid bool   `json:"isvalid"`
	Address string `json:"address"`
	Type    string `json:"type"`
}
