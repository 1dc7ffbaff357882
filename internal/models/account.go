package models

import "time"

// EscrowAccount is the per-merchant fund custodian. The account is the
// exclusive authorized spender of its own ledger balances; the invoice
// engine reaches it only through its narrow refund/add_token/balance
// interface.
type EscrowAccount struct {
	Address     string    `json:"address"`
	Owner       string    `json:"owner"`   // merchant address
	Manager     string    `json:"manager"` // invoice engine identity
	MerchantID  uint64    `json:"merchant_id"`
	Restricted  bool      `json:"restricted"`
	Verified    bool      `json:"verified"`
	DateCreated time.Time `json:"date_created"`
}

type TokenBalance struct {
	Token   string `json:"token"`
	Balance int64  `json:"balance"`
}

// ContractInfo is written once at initialization and immutable thereafter.
type ContractInfo struct {
	Admin     string    `json:"admin"`
	Timestamp time.Time `json:"timestamp"`
}
