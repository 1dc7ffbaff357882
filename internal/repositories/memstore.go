package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shade-pay/backend/internal/models"
	"github.com/shade-pay/backend/internal/services"
)

type memTxKey struct{}

// MemStore is an in-memory services.Store. Atomic snapshots the state and
// restores it when fn fails, giving the same all-or-nothing semantics as
// the pgx store. Service tests run against it.
type MemStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	merchants        map[uint64]*models.Merchant
	merchantSeq      uint64
	merchantAccounts map[uint64]string
	invoices         map[uint64]*models.Invoice
	invoiceSeq       uint64
	roles            map[string]map[string]bool
	info             *models.ContractInfo
	paused           bool
	acceptedTokens   map[string]bool
	fees             map[string]int
	accounts         map[string]*models.EscrowAccount
	accountTokens    map[string]map[string]bool
	balances         map[string]map[string]int64 // token -> holder -> balance
	audit            []models.AuditLog
}

func NewMemStore() *MemStore {
	return &MemStore{state: &memState{
		merchants:        map[uint64]*models.Merchant{},
		merchantAccounts: map[uint64]string{},
		invoices:         map[uint64]*models.Invoice{},
		roles:            map[string]map[string]bool{},
		acceptedTokens:   map[string]bool{},
		fees:             map[string]int{},
		accounts:         map[string]*models.EscrowAccount{},
		accountTokens:    map[string]map[string]bool{},
		balances:         map[string]map[string]int64{},
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		merchants:        make(map[uint64]*models.Merchant, len(s.merchants)),
		merchantSeq:      s.merchantSeq,
		merchantAccounts: make(map[uint64]string, len(s.merchantAccounts)),
		invoices:         make(map[uint64]*models.Invoice, len(s.invoices)),
		invoiceSeq:       s.invoiceSeq,
		roles:            make(map[string]map[string]bool, len(s.roles)),
		paused:           s.paused,
		acceptedTokens:   make(map[string]bool, len(s.acceptedTokens)),
		fees:             make(map[string]int, len(s.fees)),
		accounts:         make(map[string]*models.EscrowAccount, len(s.accounts)),
		accountTokens:    make(map[string]map[string]bool, len(s.accountTokens)),
		balances:         make(map[string]map[string]int64, len(s.balances)),
		audit:            append([]models.AuditLog{}, s.audit...),
	}
	if s.info != nil {
		info := *s.info
		c.info = &info
	}
	for id, m := range s.merchants {
		mc := *m
		c.merchants[id] = &mc
	}
	for id, a := range s.merchantAccounts {
		c.merchantAccounts[id] = a
	}
	for id, inv := range s.invoices {
		ic := *inv
		c.invoices[id] = &ic
	}
	for user, roles := range s.roles {
		rc := make(map[string]bool, len(roles))
		for r, v := range roles {
			rc[r] = v
		}
		c.roles[user] = rc
	}
	for t := range s.acceptedTokens {
		c.acceptedTokens[t] = true
	}
	for t, bps := range s.fees {
		c.fees[t] = bps
	}
	for addr, a := range s.accounts {
		ac := *a
		c.accounts[addr] = &ac
	}
	for addr, tokens := range s.accountTokens {
		tc := make(map[string]bool, len(tokens))
		for t := range tokens {
			tc[t] = true
		}
		c.accountTokens[addr] = tc
	}
	for t, holders := range s.balances {
		hc := make(map[string]int64, len(holders))
		for h, b := range holders {
			hc[h] = b
		}
		c.balances[t] = hc
	}
	return c
}

func (s *MemStore) Atomic(ctx context.Context, fn func(ctx context.Context, st services.Store) error) error {
	if _, ok := ctx.Value(memTxKey{}).(bool); ok {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	ctx = context.WithValue(ctx, memTxKey{}, true)
	if err := fn(ctx, s); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *MemStore) Merchants() services.MerchantStore { return memMerchants{s} }
func (s *MemStore) Invoices() services.InvoiceStore   { return memInvoices{s} }
func (s *MemStore) Roles() services.RoleStore         { return memRoles{s} }
func (s *MemStore) Settings() services.SettingsStore  { return memSettings{s} }
func (s *MemStore) Accounts() services.AccountStore   { return memAccounts{s} }
func (s *MemStore) Ledger() services.TokenLedger      { return memLedger{s} }
func (s *MemStore) Audit() services.AuditStore        { return memAudit{s} }

type memMerchants struct{ s *MemStore }

func (r memMerchants) Create(_ context.Context, m *models.Merchant) error {
	st := r.s.state
	st.merchantSeq++
	m.ID = st.merchantSeq
	mc := *m
	st.merchants[m.ID] = &mc
	return nil
}

func (r memMerchants) GetByID(_ context.Context, id uint64) (*models.Merchant, error) {
	m, ok := r.s.state.merchants[id]
	if !ok {
		return nil, nil
	}
	mc := *m
	return &mc, nil
}

func (r memMerchants) GetByAddress(_ context.Context, address string) (*models.Merchant, error) {
	for _, m := range r.s.state.merchants {
		if m.Address == address {
			mc := *m
			return &mc, nil
		}
	}
	return nil, nil
}

func (r memMerchants) SetVerified(_ context.Context, id uint64, verified bool) error {
	if m, ok := r.s.state.merchants[id]; ok {
		m.Verified = verified
	}
	return nil
}

func (r memMerchants) List(_ context.Context, f models.MerchantFilter) ([]models.Merchant, error) {
	st := r.s.state
	ids := make([]uint64, 0, len(st.merchants))
	for id := range st.merchants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []models.Merchant{}
	for _, id := range ids {
		if f.Matches(st.merchants[id]) {
			out = append(out, *st.merchants[id])
		}
	}
	return out, nil
}

func (r memMerchants) SetAccount(_ context.Context, merchantID uint64, account string) error {
	r.s.state.merchantAccounts[merchantID] = account
	return nil
}

func (r memMerchants) GetAccount(_ context.Context, merchantID uint64) (string, error) {
	return r.s.state.merchantAccounts[merchantID], nil
}

type memInvoices struct{ s *MemStore }

func (r memInvoices) Create(_ context.Context, inv *models.Invoice) error {
	st := r.s.state
	st.invoiceSeq++
	inv.ID = st.invoiceSeq
	ic := *inv
	st.invoices[inv.ID] = &ic
	return nil
}

func (r memInvoices) GetByID(_ context.Context, id uint64) (*models.Invoice, error) {
	inv, ok := r.s.state.invoices[id]
	if !ok {
		return nil, nil
	}
	ic := *inv
	return &ic, nil
}

func (r memInvoices) Update(_ context.Context, inv *models.Invoice) error {
	ic := *inv
	r.s.state.invoices[inv.ID] = &ic
	return nil
}

func (r memInvoices) List(_ context.Context, q services.InvoiceQuery) ([]models.Invoice, error) {
	st := r.s.state
	out := []models.Invoice{}
	for id := uint64(1); id <= st.invoiceSeq; id++ {
		inv, ok := st.invoices[id]
		if !ok {
			continue
		}
		if q.Status != nil && inv.Status != *q.Status {
			continue
		}
		if q.MerchantID != nil && inv.MerchantID != *q.MerchantID {
			continue
		}
		if q.MinAmount != nil && inv.Amount < *q.MinAmount {
			continue
		}
		if q.MaxAmount != nil && inv.Amount > *q.MaxAmount {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

type memRoles struct{ s *MemStore }

func (r memRoles) Grant(_ context.Context, user, role string) error {
	st := r.s.state
	if st.roles[user] == nil {
		st.roles[user] = map[string]bool{}
	}
	st.roles[user][role] = true
	return nil
}

func (r memRoles) Revoke(_ context.Context, user, role string) error {
	if roles := r.s.state.roles[user]; roles != nil {
		delete(roles, role)
	}
	return nil
}

func (r memRoles) Has(_ context.Context, user, role string) (bool, error) {
	return r.s.state.roles[user][role], nil
}

type memSettings struct{ s *MemStore }

func (r memSettings) GetContractInfo(_ context.Context) (*models.ContractInfo, error) {
	if r.s.state.info == nil {
		return nil, nil
	}
	info := *r.s.state.info
	return &info, nil
}

func (r memSettings) SetContractInfo(_ context.Context, info models.ContractInfo) error {
	r.s.state.info = &info
	return nil
}

func (r memSettings) IsPaused(_ context.Context) (bool, error) {
	return r.s.state.paused, nil
}

func (r memSettings) SetPaused(_ context.Context, paused bool) error {
	r.s.state.paused = paused
	return nil
}

func (r memSettings) AddAcceptedToken(_ context.Context, token string) error {
	r.s.state.acceptedTokens[token] = true
	return nil
}

func (r memSettings) RemoveAcceptedToken(_ context.Context, token string) error {
	delete(r.s.state.acceptedTokens, token)
	return nil
}

func (r memSettings) IsAcceptedToken(_ context.Context, token string) (bool, error) {
	return r.s.state.acceptedTokens[token], nil
}

func (r memSettings) SetFee(_ context.Context, token string, feeBPS int) error {
	r.s.state.fees[token] = feeBPS
	return nil
}

func (r memSettings) GetFee(_ context.Context, token string) (int, error) {
	return r.s.state.fees[token], nil
}

type memAccounts struct{ s *MemStore }

func (r memAccounts) Create(_ context.Context, a *models.EscrowAccount) error {
	ac := *a
	r.s.state.accounts[a.Address] = &ac
	return nil
}

func (r memAccounts) GetByAddress(_ context.Context, address string) (*models.EscrowAccount, error) {
	a, ok := r.s.state.accounts[address]
	if !ok {
		return nil, nil
	}
	ac := *a
	return &ac, nil
}

func (r memAccounts) GetByMerchantID(_ context.Context, merchantID uint64) (*models.EscrowAccount, error) {
	for _, a := range r.s.state.accounts {
		if a.MerchantID == merchantID {
			ac := *a
			return &ac, nil
		}
	}
	return nil, nil
}

func (r memAccounts) SetRestricted(_ context.Context, address string, restricted bool) error {
	if a, ok := r.s.state.accounts[address]; ok {
		a.Restricted = restricted
	}
	return nil
}

func (r memAccounts) AddToken(_ context.Context, address, token string) (bool, error) {
	st := r.s.state
	if st.accountTokens[address] == nil {
		st.accountTokens[address] = map[string]bool{}
	}
	if st.accountTokens[address][token] {
		return false, nil
	}
	st.accountTokens[address][token] = true
	return true, nil
}

func (r memAccounts) HasToken(_ context.Context, address, token string) (bool, error) {
	return r.s.state.accountTokens[address][token], nil
}

func (r memAccounts) ListTokens(_ context.Context, address string) ([]string, error) {
	tokens := []string{}
	for t := range r.s.state.accountTokens[address] {
		tokens = append(tokens, t)
	}
	sort.Strings(tokens)
	return tokens, nil
}

type memLedger struct{ s *MemStore }

func (r memLedger) Transfer(_ context.Context, token, from, to string, amount int64) error {
	if amount <= 0 {
		return services.ErrInvalidAmount
	}
	st := r.s.state
	if st.balances[token][from] < amount {
		return services.ErrInsufficientBalance
	}
	st.balances[token][from] -= amount
	st.balances[token][to] += amount
	return nil
}

func (r memLedger) Balance(_ context.Context, token, holder string) (int64, error) {
	return r.s.state.balances[token][holder], nil
}

func (r memLedger) Mint(_ context.Context, token, to string, amount int64) error {
	if amount <= 0 {
		return services.ErrInvalidAmount
	}
	st := r.s.state
	if st.balances[token] == nil {
		st.balances[token] = map[string]int64{}
	}
	st.balances[token][to] += amount
	return nil
}

type memAudit struct{ s *MemStore }

func (r memAudit) Log(_ context.Context, entry models.AuditLog) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	r.s.state.audit = append(r.s.state.audit, entry)
	return nil
}

func (r memAudit) ListByEntity(_ context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []models.AuditLog{}
	for i := len(r.s.state.audit) - 1; i >= 0 && len(out) < limit; i-- {
		l := r.s.state.audit[i]
		if l.EntityType == entityType && l.EntityID != nil && *l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}
