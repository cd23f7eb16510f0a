package zcash

import (
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/rpcclient"
)

// Client talks to a zcashd node. zcashd speaks the bitcoind JSON-RPC
// protocol, so the underlying transport is btcd's rpcclient in HTTP POST
// mode; the shielded z_* extensions go through RawRequest.
type Client struct {
	rpc *rpcclient.Client
}

// RawRequester is the subset of rpcclient.Client the zcash methods need,
// split out so tests can substitute a fake node.
type RawRequester interface {
	RawRequest(method string, params []json.RawMessage) (json.RawMessage, error)
}

// NewClient connects to zcashd at host:port with basic auth.
func NewClient(host, port, user, pass string) (*Client, error) {
	rpc, err := rpcclient.New(&rpcclient.ConnConfig{
		Host:         host + ":" + port,
		User:         user,
		Pass:         pass,
		HTTPPostMode: true, // zcashd only supports HTTP POST mode
		DisableTLS:   true, // zcashd does not provide TLS by default
	}, nil)
	if err != nil {
		return nil, err
	}
	return &Client{rpc: rpc}, nil
}

func (c *Client) Shutdown() {
	c.rpc.Shutdown()
}

// Requester returns the raw RPC transport.
func (c *Client) Requester() RawRequester {
	return c.rpc
}

func marshalParams(params ...interface{}) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, 0, len(params))
	for _, p := range params {
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		raw = append(raw, b)
	}
	return raw, nil
}

func call(rpc RawRequester, method string, result interface{}, params ...interface{}) error {
	raw, err := marshalParams(params...)
	if err != nil {
		return fmt.Errorf("%s marshal params: %w", method, err)
	}
	res, err := rpc.RawRequest(method, raw)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(res, result); err != nil {
		return fmt.Errorf("%s unmarshal result: %w", method, err)
	}
	return nil
}

// ListReceivedByAddress returns transfers received by a shielded address
// with at least minConf confirmations.
func (c *Client) ListReceivedByAddress(address string, minConf int) ([]ReceivedResult, error) {
	return ListReceivedByAddress(c.rpc, address, minConf)
}

// SendMany submits an async shielded payment and returns the operation id.
func (c *Client) SendMany(fromAddress string, recipients []SendManyRecipient, minConf int, fee float64) (string, error) {
	return SendMany(c.rpc, fromAddress, recipients, minConf, fee)
}

// GetOperationResult returns finished async operations for the given ids.
// Operations still running are not included in the result.
func (c *Client) GetOperationResult(opids []string) ([]OperationResult, error) {
	return GetOperationResult(c.rpc, opids)
}

// GetBalance returns the confirmed balance of a shielded address.
func (c *Client) GetBalance(address string) (float64, error) {
	return GetBalance(c.rpc, address)
}

// ValidateAddress asks the node whether a shielded address is valid.
func (c *Client) ValidateAddress(address string) (*ValidateAddressResult, error) {
	return ValidateAddress(c.rpc, address)
}

// Free function variants over a RawRequester, used by the client methods
// above and directly by tests.

func ListReceivedByAddress(rpc RawRequester, address string, minConf int) ([]ReceivedResult, error) {
	var received []ReceivedResult
	if err := call(rpc, "z_listreceivedbyaddress", &received, address, minConf); err != nil {
		return nil, err
	}
	return received, nil
}

func SendMany(rpc RawRequester, fromAddress string, recipients []SendManyRecipient, minConf int, fee float64) (string, error) {
	var opid string
	if err := call(rpc, "z_sendmany", &opid, fromAddress, recipients, minConf, fee); err != nil {
		return "", err
	}
	return opid, nil
}

func GetOperationResult(rpc RawRequester, opids []string) ([]OperationResult, error) {
	var results []OperationResult
	if err := call(rpc, "z_getoperationresult", &results, opids); err != nil {
		return nil, err
	}
	return results, nil
}

func GetBalance(rpc RawRequester, address string) (float64, error) {
	var balance float64
	if err := call(rpc, "z_getbalance", &balance, address); err != nil {
		return 0, err
	}
	return balance, nil
}

func ValidateAddress(rpc RawRequester, address string) (*ValidateAddressResult, error) {
	result := &ValidateAddressResult{}
	if err := call(rpc, "z_validateaddress", result, address); err != nil {
		return nil, err
	}
	return result, nil
}
