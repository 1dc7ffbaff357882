package events

import (
	"context"
	"time"
)

// Topics, one per event kind.
const (
	TopicInitialized              = "initialized"
	TopicRoleGranted              = "role_granted"
	TopicRoleRevoked              = "role_revoked"
	TopicMerchantRegistered       = "merchant_registered"
	TopicMerchantVerified         = "merchant_verified"
	TopicTokenAdded               = "token_added"
	TopicTokenRemoved             = "token_removed"
	TopicFeeSet                   = "fee_set"
	TopicContractPaused           = "contract_paused"
	TopicContractUnpaused         = "contract_unpaused"
	TopicInvoiceCreated           = "invoice_created"
	TopicInvoicePaid              = "invoice_paid"
	TopicInvoiceCancelled         = "invoice_cancelled"
	TopicInvoiceRefunded          = "invoice_refunded"
	TopicInvoicePartiallyRefunded = "invoice_partially_refunded"
	TopicAccountInitialized       = "account_initialized"
	TopicAccountTokenAdded        = "account_token_added"
	TopicWithdrawalTo             = "withdrawal_to"
	TopicRefundProcessed          = "refund_processed"
	TopicAccountRestricted        = "account_restricted"
)

// Event is implemented by every payload struct below. One variant per
// event kind; all serialization goes through the single Envelope path.
type Event interface {
	Topic() string
}

type Initialized struct {
	Admin     string    `json:"admin"`
	Timestamp time.Time `json:"timestamp"`
}

func (Initialized) Topic() string { return TopicInitialized }

type RoleGranted struct {
	User      string    `json:"user"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

func (RoleGranted) Topic() string { return TopicRoleGranted }

type RoleRevoked struct {
	User      string    `json:"user"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

func (RoleRevoked) Topic() string { return TopicRoleRevoked }

type MerchantRegistered struct {
	MerchantID uint64    `json:"merchant_id"`
	Address    string    `json:"address"`
	Timestamp  time.Time `json:"timestamp"`
}

func (MerchantRegistered) Topic() string { return TopicMerchantRegistered }

type MerchantVerified struct {
	MerchantID uint64    `json:"merchant_id"`
	Verified   bool      `json:"verified"`
	Timestamp  time.Time `json:"timestamp"`
}

func (MerchantVerified) Topic() string { return TopicMerchantVerified }

type TokenAdded struct {
	Token     string    `json:"token"`
	Timestamp time.Time `json:"timestamp"`
}

func (TokenAdded) Topic() string { return TopicTokenAdded }

type TokenRemoved struct {
	Token     string    `json:"token"`
	Timestamp time.Time `json:"timestamp"`
}

func (TokenRemoved) Topic() string { return TopicTokenRemoved }

type FeeSet struct {
	Token     string    `json:"token"`
	FeeBPS    int       `json:"fee_bps"`
	Timestamp time.Time `json:"timestamp"`
}

func (FeeSet) Topic() string { return TopicFeeSet }

type ContractPaused struct {
	Admin     string    `json:"admin"`
	Timestamp time.Time `json:"timestamp"`
}

func (ContractPaused) Topic() string { return TopicContractPaused }

type ContractUnpaused struct {
	Admin     string    `json:"admin"`
	Timestamp time.Time `json:"timestamp"`
}

func (ContractUnpaused) Topic() string { return TopicContractUnpaused }

type InvoiceCreated struct {
	InvoiceID uint64 `json:"invoice_id"`
	Merchant  string `json:"merchant"`
	Amount    int64  `json:"amount"`
	Token     string `json:"token"`
}

func (InvoiceCreated) Topic() string { return TopicInvoiceCreated }

type InvoicePaid struct {
	InvoiceID      uint64    `json:"invoice_id"`
	Payer          string    `json:"payer"`
	Amount         int64     `json:"amount"`
	Fee            int64     `json:"fee"`
	MerchantAmount int64     `json:"merchant_amount"`
	Timestamp      time.Time `json:"timestamp"`
}

func (InvoicePaid) Topic() string { return TopicInvoicePaid }

type InvoiceCancelled struct {
	InvoiceID uint64    `json:"invoice_id"`
	Merchant  string    `json:"merchant"`
	Timestamp time.Time `json:"timestamp"`
}

func (InvoiceCancelled) Topic() string { return TopicInvoiceCancelled }

type InvoiceRefunded struct {
	InvoiceID      uint64    `json:"invoice_id"`
	Merchant       string    `json:"merchant"`
	Amount         int64     `json:"amount"`
	AmountRefunded int64     `json:"amount_refunded"` // cumulative
	Timestamp      time.Time `json:"timestamp"`
}

func (InvoiceRefunded) Topic() string { return TopicInvoiceRefunded }

type InvoicePartiallyRefunded struct {
	InvoiceID      uint64    `json:"invoice_id"`
	Merchant       string    `json:"merchant"`
	Amount         int64     `json:"amount"`
	AmountRefunded int64     `json:"amount_refunded"` // cumulative
	Timestamp      time.Time `json:"timestamp"`
}

func (InvoicePartiallyRefunded) Topic() string { return TopicInvoicePartiallyRefunded }

type AccountInitialized struct {
	Account    string    `json:"account"`
	Merchant   string    `json:"merchant"`
	MerchantID uint64    `json:"merchant_id"`
	Timestamp  time.Time `json:"timestamp"`
}

func (AccountInitialized) Topic() string { return TopicAccountInitialized }

type AccountTokenAdded struct {
	Account   string    `json:"account"`
	Token     string    `json:"token"`
	Timestamp time.Time `json:"timestamp"`
}

func (AccountTokenAdded) Topic() string { return TopicAccountTokenAdded }

type WithdrawalTo struct {
	Account   string    `json:"account"`
	Token     string    `json:"token"`
	Recipient string    `json:"recipient"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

func (WithdrawalTo) Topic() string { return TopicWithdrawalTo }

type RefundProcessed struct {
	Account   string    `json:"account"`
	Token     string    `json:"token"`
	Amount    int64     `json:"amount"`
	Recipient string    `json:"recipient"`
	Timestamp time.Time `json:"timestamp"`
}

func (RefundProcessed) Topic() string { return TopicRefundProcessed }

type AccountRestricted struct {
	Account   string    `json:"account"`
	Status    bool      `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (AccountRestricted) Topic() string { return TopicAccountRestricted }

// Envelope is the wire form of every event.
type Envelope struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

func Wrap(e Event) Envelope {
	return Envelope{Topic: e.Topic(), Payload: e}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, handler func(Envelope)) error
}
