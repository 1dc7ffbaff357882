package services

import (
	"context"
	"time"

	"github.com/shade-pay/backend/internal/events"
	"github.com/shade-pay/backend/internal/models"
	"go.uber.org/zap"
)

// AdminService owns contract-wide state: the write-once admin record, the
// pause switch, the accepted-token allowlist and per-token fee rates, and
// the admin mint path into the token ledger.
type AdminService struct {
	store     Store
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewAdminService(store Store, publisher events.Publisher, log *zap.Logger) *AdminService {
	return &AdminService{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func requireAdmin(ctx context.Context, s Store, caller string) error {
	info, err := s.Settings().GetContractInfo(ctx)
	if err != nil {
		return err
	}
	if info == nil {
		return ErrNotInitialized
	}
	if caller != info.Admin {
		return ErrNotAuthorized
	}
	return nil
}

func assertNotPaused(ctx context.Context, s Store) error {
	paused, err := s.Settings().IsPaused(ctx)
	if err != nil {
		return err
	}
	if paused {
		return ErrContractPaused
	}
	return nil
}

func (s *AdminService) publish(ctx context.Context, evts ...events.Event) {
	for _, e := range evts {
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.log.Warn("event publish failed", zap.String("topic", e.Topic()), zap.Error(err))
		}
	}
}

// Initialize writes the ContractInfo record. Write-once: a second call
// fails with ErrAlreadyInitialized.
func (s *AdminService) Initialize(ctx context.Context, admin string) error {
	var evt events.Event
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		info, err := st.Settings().GetContractInfo(ctx)
		if err != nil {
			return err
		}
		if info != nil {
			return ErrAlreadyInitialized
		}
		ts := s.now()
		if err := st.Settings().SetContractInfo(ctx, models.ContractInfo{Admin: admin, Timestamp: ts}); err != nil {
			return err
		}
		evt = events.Initialized{Admin: admin, Timestamp: ts}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, evt)
	return nil
}

func (s *AdminService) GetAdmin(ctx context.Context) (string, error) {
	info, err := s.store.Settings().GetContractInfo(ctx)
	if err != nil {
		return "", err
	}
	if info == nil {
		return "", ErrNotInitialized
	}
	return info.Admin, nil
}

func (s *AdminService) Pause(ctx context.Context, caller string) error {
	var evt events.Event
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := requireAdmin(ctx, st, caller); err != nil {
			return err
		}
		paused, err := st.Settings().IsPaused(ctx)
		if err != nil {
			return err
		}
		if paused {
			return ErrContractPaused
		}
		if err := st.Settings().SetPaused(ctx, true); err != nil {
			return err
		}
		evt = events.ContractPaused{Admin: caller, Timestamp: s.now()}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, evt)
	return nil
}

func (s *AdminService) Unpause(ctx context.Context, caller string) error {
	var evt events.Event
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := requireAdmin(ctx, st, caller); err != nil {
			return err
		}
		paused, err := st.Settings().IsPaused(ctx)
		if err != nil {
			return err
		}
		if !paused {
			return ErrContractNotPaused
		}
		if err := st.Settings().SetPaused(ctx, false); err != nil {
			return err
		}
		evt = events.ContractUnpaused{Admin: caller, Timestamp: s.now()}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, evt)
	return nil
}

func (s *AdminService) IsPaused(ctx context.Context) (bool, error) {
	return s.store.Settings().IsPaused(ctx)
}

func (s *AdminService) AddAcceptedToken(ctx context.Context, caller, token string) error {
	var evt events.Event
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := assertNotPaused(ctx, st); err != nil {
			return err
		}
		if err := requireAdmin(ctx, st, caller); err != nil {
			return err
		}
		if err := st.Settings().AddAcceptedToken(ctx, token); err != nil {
			return err
		}
		evt = events.TokenAdded{Token: token, Timestamp: s.now()}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, evt)
	return nil
}

func (s *AdminService) RemoveAcceptedToken(ctx context.Context, caller, token string) error {
	var evt events.Event
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := assertNotPaused(ctx, st); err != nil {
			return err
		}
		if err := requireAdmin(ctx, st, caller); err != nil {
			return err
		}
		if err := st.Settings().RemoveAcceptedToken(ctx, token); err != nil {
			return err
		}
		evt = events.TokenRemoved{Token: token, Timestamp: s.now()}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, evt)
	return nil
}

func (s *AdminService) IsAcceptedToken(ctx context.Context, token string) (bool, error) {
	return s.store.Settings().IsAcceptedToken(ctx, token)
}

// SetFee stores the basis-point rate for a token. Rates outside 0..10000
// are rejected rather than clamped: a fee above 100% can never be intended.
func (s *AdminService) SetFee(ctx context.Context, caller, token string, feeBPS int) error {
	if feeBPS < 0 || feeBPS > models.MaxFeeBPS {
		return ErrInvalidAmount
	}
	var evt events.Event
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := requireAdmin(ctx, st, caller); err != nil {
			return err
		}
		if err := st.Settings().SetFee(ctx, token, feeBPS); err != nil {
			return err
		}
		evt = events.FeeSet{Token: token, FeeBPS: feeBPS, Timestamp: s.now()}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, evt)
	return nil
}

func (s *AdminService) GetFee(ctx context.Context, token string) (int, error) {
	return s.store.Settings().GetFee(ctx, token)
}

// Mint credits a ledger balance. Admin-only; used for operational top-ups
// and test fixtures.
func (s *AdminService) Mint(ctx context.Context, caller, token, to string, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := requireAdmin(ctx, st, caller); err != nil {
			return err
		}
		return st.Ledger().Mint(ctx, token, to, amount)
	})
}
