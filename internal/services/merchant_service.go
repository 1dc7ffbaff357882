package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shade-pay/backend/internal/events"
	"github.com/shade-pay/backend/internal/models"
	"go.uber.org/zap"
)

type MerchantService struct {
	store     Store
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewMerchantService(store Store, publisher events.Publisher, log *zap.Logger) *MerchantService {
	return &MerchantService{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (s *MerchantService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("event publish failed", zap.String("topic", e.Topic()), zap.Error(err))
	}
}

// Register self-registers the caller as a merchant. Sequential ids,
// active=true, verified=false.
func (s *MerchantService) Register(ctx context.Context, caller string) (*models.Merchant, error) {
	var merchant *models.Merchant
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := assertNotPaused(ctx, st); err != nil {
			return err
		}
		existing, err := st.Merchants().GetByAddress(ctx, caller)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrMerchantAlreadyRegistered
		}
		m := &models.Merchant{
			Address:        caller,
			Active:         true,
			Verified:       false,
			DateRegistered: s.now(),
		}
		if err := st.Merchants().Create(ctx, m); err != nil {
			return err
		}
		merchant = m

		entity := fmt.Sprintf("%d", m.ID)
		return st.Audit().Log(ctx, models.AuditLog{
			Actor:      &caller,
			ActorType:  "merchant",
			Action:     "merchant_registered",
			EntityType: "merchant",
			EntityID:   &entity,
		})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.MerchantRegistered{
		MerchantID: merchant.ID,
		Address:    merchant.Address,
		Timestamp:  merchant.DateRegistered,
	})
	return merchant, nil
}

// Verify sets the merchant's verified flag. Admin-only.
func (s *MerchantService) Verify(ctx context.Context, caller string, merchantID uint64, status bool) error {
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := requireAdmin(ctx, st, caller); err != nil {
			return err
		}
		m, err := st.Merchants().GetByID(ctx, merchantID)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrMerchantNotFound
		}
		return st.Merchants().SetVerified(ctx, merchantID, status)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.MerchantVerified{MerchantID: merchantID, Verified: status, Timestamp: s.now()})
	return nil
}

func (s *MerchantService) Get(ctx context.Context, merchantID uint64) (*models.Merchant, error) {
	m, err := s.store.Merchants().GetByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMerchantNotFound
	}
	return m, nil
}

func (s *MerchantService) IsMerchant(ctx context.Context, address string) (bool, error) {
	m, err := s.store.Merchants().GetByAddress(ctx, address)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

func (s *MerchantService) IsVerified(ctx context.Context, merchantID uint64) (bool, error) {
	m, err := s.Get(ctx, merchantID)
	if err != nil {
		return false, err
	}
	return m.Verified, nil
}

// List scans all registered merchants and returns those matching every
// specified predicate.
func (s *MerchantService) List(ctx context.Context, f models.MerchantFilter) ([]models.Merchant, error) {
	return s.store.Merchants().List(ctx, f)
}

// SetAccount links an escrow account to the caller's merchant record. The
// account must exist and be owned by the caller.
func (s *MerchantService) SetAccount(ctx context.Context, caller, account string) error {
	return s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		m, err := st.Merchants().GetByAddress(ctx, caller)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotAuthorized
		}
		a, err := st.Accounts().GetByAddress(ctx, account)
		if err != nil {
			return err
		}
		if a == nil {
			return ErrAccountNotFound
		}
		if a.Owner != caller {
			return ErrNotAuthorized
		}
		return st.Merchants().SetAccount(ctx, m.ID, account)
	})
}
