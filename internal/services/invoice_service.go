package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shade-pay/backend/internal/events"
	"github.com/shade-pay/backend/internal/models"
	"go.uber.org/zap"
)

// InvoiceService is the invoice lifecycle engine: it creates, pays, voids
// and refunds invoices, splits payment proceeds into the protocol fee and
// the merchant's escrow share, and talks to each merchant's escrow account
// only through the EscrowGateway.
type InvoiceService struct {
	store      Store
	gateway    EscrowGateway
	publisher  events.Publisher
	engineAddr string
	log        *zap.Logger
	now        func() time.Time
}

func NewInvoiceService(store Store, gateway EscrowGateway, publisher events.Publisher, engineAddr string, log *zap.Logger) *InvoiceService {
	return &InvoiceService{
		store:      store,
		gateway:    gateway,
		publisher:  publisher,
		engineAddr: engineAddr,
		log:        log,
		now:        time.Now,
	}
}

func (s *InvoiceService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("event publish failed", zap.String("topic", e.Topic()), zap.Error(err))
	}
}

func invoiceEntity(id uint64) *string {
	e := fmt.Sprintf("%d", id)
	return &e
}

// Create opens a pending invoice for the calling merchant.
func (s *InvoiceService) Create(ctx context.Context, caller, description string, amount int64, token string) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := assertNotPaused(ctx, st); err != nil {
			return err
		}
		if amount <= 0 {
			return ErrInvalidAmount
		}
		m, err := st.Merchants().GetByAddress(ctx, caller)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotAuthorized
		}
		inv := &models.Invoice{
			Description: description,
			Amount:      amount,
			Token:       token,
			Status:      models.InvoiceStatusPending,
			MerchantID:  m.ID,
			DateCreated: s.now(),
		}
		if err := st.Invoices().Create(ctx, inv); err != nil {
			return err
		}
		invoice = inv

		return st.Audit().Log(ctx, models.AuditLog{
			Actor:      &caller,
			ActorType:  "merchant",
			Action:     "invoice_created",
			EntityType: "invoice",
			EntityID:   invoiceEntity(inv.ID),
			Meta:       map[string]any{"amount": amount, "token": token},
		})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.InvoiceCreated{
		InvoiceID: invoice.ID,
		Merchant:  caller,
		Amount:    invoice.Amount,
		Token:     invoice.Token,
	})
	return invoice, nil
}

// Pay settles a pending invoice: the fee share goes to the engine's own
// ledger address, the remainder to the merchant's escrow account. Both
// transfers commit atomically with the status update or not at all.
func (s *InvoiceService) Pay(ctx context.Context, payer string, invoiceID uint64) error {
	var evt events.InvoicePaid
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := assertNotPaused(ctx, st); err != nil {
			return err
		}
		inv, err := st.Invoices().GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return ErrInvoiceNotFound
		}
		if inv.Status != models.InvoiceStatusPending {
			return ErrInvalidInvoiceStatus
		}
		accepted, err := st.Settings().IsAcceptedToken(ctx, inv.Token)
		if err != nil {
			return err
		}
		if !accepted {
			return ErrTokenNotAccepted
		}
		account, err := st.Merchants().GetAccount(ctx, inv.MerchantID)
		if err != nil {
			return err
		}
		if account == "" {
			return ErrAccountNotSet
		}
		feeBPS, err := st.Settings().GetFee(ctx, inv.Token)
		if err != nil {
			return err
		}
		fee, merchantAmount := models.SplitFee(inv.Amount, feeBPS)

		if fee > 0 {
			if err := st.Ledger().Transfer(ctx, inv.Token, payer, s.engineAddr, fee); err != nil {
				return err
			}
		}
		if merchantAmount > 0 {
			if err := st.Ledger().Transfer(ctx, inv.Token, payer, account, merchantAmount); err != nil {
				return err
			}
		}

		paidAt := s.now()
		inv.Status = models.InvoiceStatusPaid
		inv.Payer = &payer
		inv.DatePaid = &paidAt
		if err := st.Invoices().Update(ctx, inv); err != nil {
			return err
		}

		evt = events.InvoicePaid{
			InvoiceID:      inv.ID,
			Payer:          payer,
			Amount:         inv.Amount,
			Fee:            fee,
			MerchantAmount: merchantAmount,
			Timestamp:      paidAt,
		}
		return st.Audit().Log(ctx, models.AuditLog{
			Actor:      &payer,
			ActorType:  "payer",
			Action:     "invoice_paid",
			EntityType: "invoice",
			EntityID:   invoiceEntity(inv.ID),
			Meta:       map[string]any{"fee": fee, "merchant_amount": merchantAmount},
		})
	})
	if err != nil {
		return err
	}
	s.publish(ctx, evt)
	return nil
}

// Void cancels a pending invoice. Only the owning merchant may void.
func (s *InvoiceService) Void(ctx context.Context, caller string, invoiceID uint64) error {
	var evt events.InvoiceCancelled
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := assertNotPaused(ctx, st); err != nil {
			return err
		}
		inv, err := st.Invoices().GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return ErrInvoiceNotFound
		}
		m, err := st.Merchants().GetByID(ctx, inv.MerchantID)
		if err != nil {
			return err
		}
		if m == nil || m.Address != caller {
			return ErrNotAuthorized
		}
		if inv.Status != models.InvoiceStatusPending {
			return ErrInvalidInvoiceStatus
		}
		inv.Status = models.InvoiceStatusCancelled
		if err := st.Invoices().Update(ctx, inv); err != nil {
			return err
		}
		evt = events.InvoiceCancelled{InvoiceID: inv.ID, Merchant: caller, Timestamp: s.now()}
		return st.Audit().Log(ctx, models.AuditLog{
			Actor:      &caller,
			ActorType:  "merchant",
			Action:     "invoice_cancelled",
			EntityType: "invoice",
			EntityID:   invoiceEntity(inv.ID),
		})
	})
	if err != nil {
		return err
	}
	s.publish(ctx, evt)
	return nil
}

// RefundPartial returns part of a paid invoice's proceeds to the payer
// through the merchant's escrow account. Permitted within seven days of
// payment; the boundary second still succeeds.
func (s *InvoiceService) RefundPartial(ctx context.Context, caller string, invoiceID uint64, amount int64) error {
	var evt events.Event
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := assertNotPaused(ctx, st); err != nil {
			return err
		}
		inv, err := st.Invoices().GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return ErrInvoiceNotFound
		}
		m, err := st.Merchants().GetByID(ctx, inv.MerchantID)
		if err != nil {
			return err
		}
		if m == nil || m.Address != caller {
			return ErrNotAuthorized
		}
		if !inv.Refundable() {
			return ErrInvalidInvoiceStatus
		}
		if amount <= 0 || inv.AmountRefunded+amount > inv.Amount {
			return ErrInvalidAmount
		}
		if inv.DatePaid == nil {
			return ErrRefundPeriodExpired
		}
		if s.now().Sub(*inv.DatePaid) > models.RefundWindow {
			return ErrRefundPeriodExpired
		}
		account, err := st.Merchants().GetAccount(ctx, inv.MerchantID)
		if err != nil {
			return err
		}
		if account == "" {
			return ErrAccountNotSet
		}

		if err := s.gateway.Refund(ctx, account, inv.Token, amount, *inv.Payer); err != nil {
			return err
		}

		inv.AmountRefunded += amount
		if inv.AmountRefunded == inv.Amount {
			inv.Status = models.InvoiceStatusRefunded
		} else {
			inv.Status = models.InvoiceStatusPartiallyRefunded
		}
		if err := st.Invoices().Update(ctx, inv); err != nil {
			return err
		}

		ts := s.now()
		if inv.Status == models.InvoiceStatusRefunded {
			evt = events.InvoiceRefunded{
				InvoiceID:      inv.ID,
				Merchant:       caller,
				Amount:         amount,
				AmountRefunded: inv.AmountRefunded,
				Timestamp:      ts,
			}
		} else {
			evt = events.InvoicePartiallyRefunded{
				InvoiceID:      inv.ID,
				Merchant:       caller,
				Amount:         amount,
				AmountRefunded: inv.AmountRefunded,
				Timestamp:      ts,
			}
		}
		return st.Audit().Log(ctx, models.AuditLog{
			Actor:      &caller,
			ActorType:  "merchant",
			Action:     "invoice_refund",
			EntityType: "invoice",
			EntityID:   invoiceEntity(inv.ID),
			Meta:       map[string]any{"amount": amount, "amount_refunded": inv.AmountRefunded},
		})
	})
	if err != nil {
		return err
	}
	s.publish(ctx, evt)
	return nil
}

// Refund returns the invoice's entire remaining balance to the payer.
func (s *InvoiceService) Refund(ctx context.Context, caller string, invoiceID uint64) error {
	inv, err := s.Get(ctx, invoiceID)
	if err != nil {
		return err
	}
	remaining := inv.Amount - inv.AmountRefunded
	if remaining <= 0 {
		return ErrInvalidAmount
	}
	return s.RefundPartial(ctx, caller, invoiceID, remaining)
}

func (s *InvoiceService) Get(ctx context.Context, invoiceID uint64) (*models.Invoice, error) {
	inv, err := s.store.Invoices().GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

// List applies the filter's predicates, AND-combined; an absent predicate
// matches everything. An unknown merchant address matches no invoices.
func (s *InvoiceService) List(ctx context.Context, f models.InvoiceFilter) ([]models.Invoice, error) {
	q := InvoiceQuery{
		Status:    f.Status,
		MinAmount: f.MinAmount,
		MaxAmount: f.MaxAmount,
	}
	if f.Merchant != nil {
		m, err := s.store.Merchants().GetByAddress(ctx, *f.Merchant)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return []models.Invoice{}, nil
		}
		q.MerchantID = &m.ID
	}
	return s.store.Invoices().List(ctx, q)
}

// GetEvents returns the invoice's audit trail, most recent first.
func (s *InvoiceService) GetEvents(ctx context.Context, invoiceID uint64) ([]models.AuditLog, error) {
	return s.store.Audit().ListByEntity(ctx, "invoice", fmt.Sprintf("%d", invoiceID), 100)
}
