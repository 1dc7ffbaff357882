package models

import "time"

// Invoice statuses
const (
	InvoiceStatusPending           = "pending"
	InvoiceStatusPaid              = "paid"
	InvoiceStatusCancelled         = "cancelled"
	InvoiceStatusPartiallyRefunded = "partially_refunded"
	InvoiceStatusRefunded          = "refunded"
)

// Valid state transitions: from -> []to
var ValidInvoiceTransitions = map[string][]string{
	InvoiceStatusPending:           {InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusPaid:              {InvoiceStatusRefunded, InvoiceStatusPartiallyRefunded},
	InvoiceStatusPartiallyRefunded: {InvoiceStatusRefunded, InvoiceStatusPartiallyRefunded},
	InvoiceStatusRefunded:          {},
	InvoiceStatusCancelled:         {},
}

func IsValidInvoiceTransition(from, to string) bool {
	allowed, ok := ValidInvoiceTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// RefundWindow is the period after payment during which refunds are
// permitted. A refund at exactly date_paid + RefundWindow still succeeds.
const RefundWindow = 604800 * time.Second

// MaxFeeBPS is 100% expressed in basis points.
const MaxFeeBPS = 10000

// SplitFee divides an invoice amount into the protocol fee and the
// merchant's share. fee = floor(amount * bps / 10000).
func SplitFee(amount int64, feeBPS int) (fee, merchantAmount int64) {
	fee = amount * int64(feeBPS) / MaxFeeBPS
	return fee, amount - fee
}

type Invoice struct {
	ID             uint64     `json:"id"`
	Description    string     `json:"description"`
	Amount         int64      `json:"amount"`
	Token          string     `json:"token"`
	Status         string     `json:"status"`
	MerchantID     uint64     `json:"merchant_id"`
	Payer          *string    `json:"payer,omitempty"`
	DateCreated    time.Time  `json:"date_created"`
	DatePaid       *time.Time `json:"date_paid,omitempty"`
	AmountRefunded int64      `json:"amount_refunded"`
}

// Refundable reports whether the invoice is in a state that accepts
// further refunds.
func (i *Invoice) Refundable() bool {
	return i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusPartiallyRefunded
}

// InvoiceFilter predicates are AND-combined; a nil field matches everything.
type InvoiceFilter struct {
	Status    *string
	Merchant  *string // merchant address, resolved to merchant id
	MinAmount *int64
	MaxAmount *int64
}
