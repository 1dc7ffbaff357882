package services

import (
	"context"
	"time"

	"github.com/shade-pay/backend/internal/events"
	"github.com/shade-pay/backend/internal/rbac"
	"go.uber.org/zap"
)

// AccessService is the role-based access-control layer. Only the stored
// admin identity may grant or revoke; the admin implicitly holds every
// role regardless of explicit grants.
type AccessService struct {
	store     Store
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

func NewAccessService(store Store, publisher events.Publisher, log *zap.Logger) *AccessService {
	return &AccessService{
		store:     store,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// GrantRole is idempotent: granting an already-held role succeeds and
// emits the normal role_granted event.
func (s *AccessService) GrantRole(ctx context.Context, caller, user, role string) error {
	if !rbac.IsValidRole(role) {
		return ErrInvalidRole
	}
	var evt events.Event
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := requireAdmin(ctx, st, caller); err != nil {
			return err
		}
		if err := st.Roles().Grant(ctx, user, role); err != nil {
			return err
		}
		evt = events.RoleGranted{User: user, Role: role, Timestamp: s.now()}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("event publish failed", zap.String("topic", evt.Topic()), zap.Error(err))
	}
	return nil
}

// RevokeRole of a non-existent grant is a no-op, not an error.
func (s *AccessService) RevokeRole(ctx context.Context, caller, user, role string) error {
	if !rbac.IsValidRole(role) {
		return ErrInvalidRole
	}
	var evt events.Event
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		if err := requireAdmin(ctx, st, caller); err != nil {
			return err
		}
		if err := st.Roles().Revoke(ctx, user, role); err != nil {
			return err
		}
		evt = events.RoleRevoked{User: user, Role: role, Timestamp: s.now()}
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("event publish failed", zap.String("topic", evt.Topic()), zap.Error(err))
	}
	return nil
}

func (s *AccessService) HasRole(ctx context.Context, user, role string) (bool, error) {
	if !rbac.IsValidRole(role) {
		return false, ErrInvalidRole
	}
	info, err := s.store.Settings().GetContractInfo(ctx)
	if err != nil {
		return false, err
	}
	if info == nil {
		return false, ErrNotInitialized
	}
	if user == info.Admin {
		return true, nil
	}
	return s.store.Roles().Has(ctx, user, role)
}
