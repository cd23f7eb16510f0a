package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is a minimal Solana JSON-RPC client covering the methods the
// bridge needs.
type Client struct {
	http      *resty.Client
	requestID atomic.Int64
}

// NewClient creates a client against the given RPC endpoint.
func NewClient(rpcURL string) *Client {
	http := resty.New().
		SetBaseURL(rpcURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Client{http: http}
}

func (c *Client) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	resp := &rpcResponse{}
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(resp).
		Post("")
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if httpResp.IsError() {
		return fmt.Errorf("%s: http status %d: %s", method, httpResp.StatusCode(), httpResp.String())
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: %w", method, resp.Error)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%s unmarshal result: %w", method, err)
	}
	return nil
}

// GetLatestBlockhash returns a recent blockhash to build transactions with.
func (c *Client) GetLatestBlockhash(ctx context.Context) (string, error) {
	result := &LatestBlockhashResult{}
	params := []interface{}{map[string]string{"commitment": "confirmed"}}
	if err := c.call(ctx, "getLatestBlockhash", params, result); err != nil {
		return "", err
	}
	return result.Value.Blockhash, nil
}

// GetSignaturesForAddress returns transaction signatures touching address,
// newest first.
func (c *Client) GetSignaturesForAddress(ctx context.Context, address string, opts *GetSignaturesOpts) ([]SignatureInfo, error) {
	config := map[string]interface{}{"commitment": "confirmed"}
	if opts != nil {
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Until != "" {
			config["until"] = opts.Until
		}
	}
	var sigs []SignatureInfo
	if err := c.call(ctx, "getSignaturesForAddress", []interface{}{address, config}, &sigs); err != nil {
		return nil, err
	}
	return sigs, nil
}

// GetTransaction fetches a parsed transaction by signature.
func (c *Client) GetTransaction(ctx context.Context, signature string) (*TransactionResult, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		},
	}
	result := &TransactionResult{}
	if err := c.call(ctx, "getTransaction", params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAccountInfo fetches raw account data, base64-encoded.
func (c *Client) GetAccountInfo(ctx context.Context, address string) (*AccountInfoResult, error) {
	params := []interface{}{
		address,
		map[string]interface{}{"encoding": "base64", "commitment": "confirmed"},
	}
	result := &AccountInfoResult{}
	if err := c.call(ctx, "getAccountInfo", params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetTokenAccountsByOwner lists owner's token accounts for one mint.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner, mint string) (*TokenAccountsResult, error) {
	params := []interface{}{
		owner,
		map[string]string{"mint": mint},
		map[string]string{"encoding": "jsonParsed", "commitment": "confirmed"},
	}
	result := &TokenAccountsResult{}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, result); err != nil {
		return nil, err
	}
	return result, nil
}

// SendTransaction submits a signed, base64-encoded transaction and returns
// its signature.
func (c *Client) SendTransaction(ctx context.Context, signedTxBase64 string) (string, error) {
	params := []interface{}{
		signedTxBase64,
		map[string]interface{}{"encoding": "base64", "preflightCommitment": "confirmed"},
	}
	var signature string
	if err := c.call(ctx, "sendTransaction", params, &signature); err != nil {
		return "", err
	}
	return signature, nil
}
