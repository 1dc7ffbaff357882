package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shade-pay/backend/internal/events"
	"github.com/shade-pay/backend/internal/models"
	"go.uber.org/zap"
)

// AccountService manages per-merchant escrow accounts: the custodial
// balance holders the invoice engine settles merchant proceeds into.
// Exactly one account exists per merchant. The engine identity acts as
// every account's manager; the merchant is its owner.
type AccountService struct {
	store      Store
	publisher  events.Publisher
	engineAddr string
	log        *zap.Logger
	now        func() time.Time
}

func NewAccountService(store Store, publisher events.Publisher, engineAddr string, log *zap.Logger) *AccountService {
	return &AccountService{
		store:      store,
		publisher:  publisher,
		engineAddr: engineAddr,
		log:        log,
		now:        time.Now,
	}
}

func (s *AccountService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("event publish failed", zap.String("topic", e.Topic()), zap.Error(err))
	}
}

func getAccount(ctx context.Context, st Store, address string) (*models.EscrowAccount, error) {
	a, err := st.Accounts().GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrAccountNotFound
	}
	return a, nil
}

// Open creates the caller's escrow account. Write-once per merchant: a
// second call fails with ErrAlreadyInitialized.
func (s *AccountService) Open(ctx context.Context, caller string) (*models.EscrowAccount, error) {
	var account *models.EscrowAccount
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		m, err := st.Merchants().GetByAddress(ctx, caller)
		if err != nil {
			return err
		}
		if m == nil {
			return ErrNotAuthorized
		}
		existing, err := st.Accounts().GetByMerchantID(ctx, m.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyInitialized
		}
		a := &models.EscrowAccount{
			Address:     "esc:" + uuid.New().String(),
			Owner:       caller,
			Manager:     s.engineAddr,
			MerchantID:  m.ID,
			DateCreated: s.now(),
		}
		if err := st.Accounts().Create(ctx, a); err != nil {
			return err
		}
		account = a

		return st.Audit().Log(ctx, models.AuditLog{
			Actor:      &caller,
			ActorType:  "merchant",
			Action:     "account_opened",
			EntityType: "account",
			EntityID:   &a.Address,
		})
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.AccountInitialized{
		Account:    account.Address,
		Merchant:   account.Owner,
		MerchantID: account.MerchantID,
		Timestamp:  account.DateCreated,
	})
	return account, nil
}

func (s *AccountService) Get(ctx context.Context, address string) (*models.EscrowAccount, error) {
	return getAccount(ctx, s.store, address)
}

// AddToken starts tracking a token on the account. Manager-authorized.
// Re-adding an already-tracked token is a silent no-op: no event, no
// state change.
func (s *AccountService) AddToken(ctx context.Context, caller, address, token string) error {
	var added bool
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		a, err := getAccount(ctx, st, address)
		if err != nil {
			return err
		}
		if caller != a.Manager {
			return ErrNotAuthorized
		}
		added, err = st.Accounts().AddToken(ctx, address, token)
		return err
	})
	if err != nil {
		return err
	}
	if added {
		s.publish(ctx, events.AccountTokenAdded{Account: address, Token: token, Timestamp: s.now()})
	}
	return nil
}

func (s *AccountService) HasToken(ctx context.Context, address, token string) (bool, error) {
	if _, err := getAccount(ctx, s.store, address); err != nil {
		return false, err
	}
	return s.store.Accounts().HasToken(ctx, address, token)
}

// GetBalance delegates to the token ledger's live balance for the
// account's address.
func (s *AccountService) GetBalance(ctx context.Context, address, token string) (int64, error) {
	if _, err := getAccount(ctx, s.store, address); err != nil {
		return 0, err
	}
	return s.store.Ledger().Balance(ctx, token, address)
}

// GetBalances returns one entry per tracked token, each balance queried
// live from the ledger, not cached.
func (s *AccountService) GetBalances(ctx context.Context, address string) ([]models.TokenBalance, error) {
	if _, err := getAccount(ctx, s.store, address); err != nil {
		return nil, err
	}
	tokens, err := s.store.Accounts().ListTokens(ctx, address)
	if err != nil {
		return nil, err
	}
	balances := make([]models.TokenBalance, 0, len(tokens))
	for _, token := range tokens {
		b, err := s.store.Ledger().Balance(ctx, token, address)
		if err != nil {
			return nil, err
		}
		balances = append(balances, models.TokenBalance{Token: token, Balance: b})
	}
	return balances, nil
}

// WithdrawTo moves escrowed funds out to an external recipient. Owner
// only — the manager cannot withdraw — and blocked while the account is
// restricted. A failed ledger transfer leaves all state unchanged.
func (s *AccountService) WithdrawTo(ctx context.Context, caller, address, token string, amount int64, recipient string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	var ts time.Time
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		a, err := getAccount(ctx, st, address)
		if err != nil {
			return err
		}
		if caller != a.Owner {
			return ErrNotAuthorized
		}
		if a.Restricted {
			return ErrAccountRestricted
		}
		if err := st.Ledger().Transfer(ctx, token, address, recipient, amount); err != nil {
			return err
		}
		ts = s.now()
		return st.Audit().Log(ctx, models.AuditLog{
			Actor:      &caller,
			ActorType:  "merchant",
			Action:     "withdrawal",
			EntityType: "account",
			EntityID:   &address,
			Meta:       map[string]any{"token": token, "amount": amount, "recipient": recipient},
		})
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.WithdrawalTo{
		Account:   address,
		Token:     token,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: ts,
	})
	return nil
}

// Refund moves escrowed funds back to a payer. Manager only: this is the
// single path by which the invoice engine spends account balances. Blocked
// while the account is restricted.
func (s *AccountService) Refund(ctx context.Context, caller, address, token string, amount int64, recipient string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	var ts time.Time
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		a, err := getAccount(ctx, st, address)
		if err != nil {
			return err
		}
		if caller != a.Manager {
			return ErrNotAuthorized
		}
		if a.Restricted {
			return ErrAccountRestricted
		}
		if err := st.Ledger().Transfer(ctx, token, address, recipient, amount); err != nil {
			return err
		}
		ts = s.now()
		return st.Audit().Log(ctx, models.AuditLog{
			Actor:      &caller,
			ActorType:  "system",
			Action:     "refund_processed",
			EntityType: "account",
			EntityID:   &address,
			Meta:       map[string]any{"token": token, "amount": amount, "recipient": recipient},
		})
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.RefundProcessed{
		Account:   address,
		Token:     token,
		Amount:    amount,
		Recipient: recipient,
		Timestamp: ts,
	})
	return nil
}

// Restrict toggles the withdrawal restriction. Manager only. The event is
// emitted on every call, including no-op value changes.
func (s *AccountService) Restrict(ctx context.Context, caller, address string, restricted bool) error {
	err := s.store.Atomic(ctx, func(ctx context.Context, st Store) error {
		a, err := getAccount(ctx, st, address)
		if err != nil {
			return err
		}
		if caller != a.Manager {
			return ErrNotAuthorized
		}
		return st.Accounts().SetRestricted(ctx, address, restricted)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.AccountRestricted{Account: address, Status: restricted, Timestamp: s.now()})
	return nil
}

func (s *AccountService) IsRestricted(ctx context.Context, address string) (bool, error) {
	a, err := getAccount(ctx, s.store, address)
	if err != nil {
		return false, err
	}
	return a.Restricted, nil
}

// EscrowGateway is the narrow interface the invoice engine holds on the
// escrow side: it knows the account's address and nothing of its storage.
type EscrowGateway interface {
	Refund(ctx context.Context, account, token string, amount int64, recipient string) error
	AddToken(ctx context.Context, account, token string) error
	Balance(ctx context.Context, account, token string) (int64, error)
}

// engineGateway adapts AccountService to EscrowGateway, calling as the
// engine's manager identity.
type engineGateway struct {
	accounts   *AccountService
	engineAddr string
}

func NewEngineGateway(accounts *AccountService, engineAddr string) EscrowGateway {
	return &engineGateway{accounts: accounts, engineAddr: engineAddr}
}

func (g *engineGateway) Refund(ctx context.Context, account, token string, amount int64, recipient string) error {
	return g.accounts.Refund(ctx, g.engineAddr, account, token, amount, recipient)
}

func (g *engineGateway) AddToken(ctx context.Context, account, token string) error {
	return g.accounts.AddToken(ctx, g.engineAddr, account, token)
}

func (g *engineGateway) Balance(ctx context.Context, account, token string) (int64, error) {
	return g.accounts.GetBalance(ctx, account, token)
}
