package flip

import (
	"cashflip/internal/locker"
	"cashflip/internal/middleware"
	"cashflip/internal/model"
	"cashflip/internal/repository"
	"cashflip/pkg/fairness"
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const testPlayer = 7

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func playerCtx(id int) context.Context {
	return middleware.WithUserID(context.Background(), id)
}

type walletKey struct {
	player   int
	currency string
}

// memStore - состояние "базы" для тестов сервиса
type memStore struct {
	mu sync.Mutex

	sessions map[string]model.FlipSession
	flips    map[string][]model.FlipResult
	wallets  map[walletKey]model.Wallet
	ledger   []model.WalletTransaction
	configs  map[string]model.CurrencyConfig
	catalogs map[string]model.Catalog
	override *model.SimulationOverride

	statsRecorded []string
	rtpUpdates    int

	// hideOpen - GetOpenByPlayer не видит чужую незакоммиченную сессию
	hideOpen bool
	// failAppend - ошибка следующей записи флипа
	failAppend error
}

type snapshot struct {
	sessions map[string]model.FlipSession
	flips    map[string][]model.FlipResult
	wallets  map[walletKey]model.Wallet
	ledger   []model.WalletTransaction
	override *model.SimulationOverride
}

func newMemStore() *memStore {
	st := &memStore{
		sessions: map[string]model.FlipSession{},
		flips:    map[string][]model.FlipResult{},
		wallets:  map[walletKey]model.Wallet{},
		configs:  map[string]model.CurrencyConfig{},
		catalogs: map[string]model.Catalog{},
	}
	st.configs["USD"] = model.CurrencyConfig{
		Currency:            "USD",
		NormalPayoutPercent: dec("30"),
		BoostPayoutPercent:  dec("40"),
		PayoutMode:          model.PayoutModeNormal,
		DecayFactor:         0.08,
		MaxFlips:            10,
		HouseEdgeTarget:     dec("30"),
		MinStake:            dec("1"),
		MaxStake:            dec("1000"),
		PauseFeePercent:     dec("10"),
		HolidayBoostPercent: dec("50"),
		HolidayBoostOdds:    1,
		HolidayBoostMaxTier: 1,
		IsActive:            true,
	}
	st.catalogs["USD"] = model.Catalog{
		Tier: model.StakeTier{ID: 1, Currency: "USD", Level: 1, MinStake: dec("1")},
		Denominations: []model.Denomination{
			{ID: 1, Currency: "USD", Value: decimal.Zero, IsZero: true, IsActive: true},
			{ID: 2, Currency: "USD", Value: dec("1"), IsActive: true},
			{ID: 3, Currency: "USD", Value: dec("2"), IsActive: true},
			{ID: 4, Currency: "USD", Value: dec("5"), IsActive: true},
			{ID: 5, Currency: "USD", Value: dec("10"), IsActive: true},
		},
	}
	st.wallets[walletKey{testPlayer, "USD"}] = model.Wallet{PlayerID: testPlayer, Currency: "USD", Balance: dec("1000")}
	return st
}

func (st *memStore) snapshot() snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	snap := snapshot{
		sessions: make(map[string]model.FlipSession, len(st.sessions)),
		flips:    make(map[string][]model.FlipResult, len(st.flips)),
		wallets:  make(map[walletKey]model.Wallet, len(st.wallets)),
		ledger:   append([]model.WalletTransaction(nil), st.ledger...),
	}
	for k, v := range st.sessions {
		snap.sessions[k] = v
	}
	for k, v := range st.flips {
		snap.flips[k] = append([]model.FlipResult(nil), v...)
	}
	for k, v := range st.wallets {
		snap.wallets[k] = v
	}
	if st.override != nil {
		o := *st.override
		snap.override = &o
	}
	return snap
}

func (st *memStore) restore(snap snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions = snap.sessions
	st.flips = snap.flips
	st.wallets = snap.wallets
	st.ledger = snap.ledger
	st.override = snap.override
}

func (st *memStore) session(t *testing.T, id string) model.FlipSession {
	t.Helper()
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if !ok {
		t.Fatalf("session %s not found", id)
	}
	return s
}

func (st *memStore) wallet(player int, currency string) model.Wallet {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.wallets[walletKey{player, currency}]
}

func (st *memStore) setWallet(w model.Wallet) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.wallets[walletKey{w.PlayerID, w.Currency}] = w
}

func (st *memStore) ledgerFor(sessionID string) []model.WalletTransaction {
	st.mu.Lock()
	defer st.mu.Unlock()
	var res []model.WalletTransaction
	for _, tx := range st.ledger {
		if tx.SessionID == sessionID {
			res = append(res, tx)
		}
	}
	return res
}

func (st *memStore) setOverride(o *model.SimulationOverride) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.override = o
}

// seedSession кладёт сессию напрямую, минуя Start; ставка уже заблокирована в кошельке
func (st *memStore) seedSession(t *testing.T, player int, stake, cashout, budget string, status model.SessionStatus, age time.Duration) model.FlipSession {
	t.Helper()
	secret, err := fairness.NewSecret()
	if err != nil {
		t.Fatal(err)
	}
	created := time.Now().UTC().Add(-age)
	s := model.FlipSession{
		ID:              uuid.NewString(),
		PlayerID:        player,
		Currency:        "USD",
		Stake:           dec(stake),
		CashoutBalance:  dec(cashout),
		PayoutBudget:    dec(budget),
		RemainingBudget: dec(budget).Sub(dec(cashout)),
		ServerSecret:    secret,
		CommitmentHash:  fairness.Commit(secret),
		ClientSeed:      "seed",
		PayoutPercent:   dec("30"),
		TierLevel:       1,
		Status:          status,
		CreatedAt:       created,
		LastActionAt:    created,
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
	k := walletKey{player, "USD"}
	w := st.wallets[k]
	w.PlayerID, w.Currency = player, "USD"
	w.Balance = w.Balance.Sub(s.Stake)
	w.LockedBalance = w.LockedBalance.Add(s.Stake)
	st.wallets[k] = w
	return s
}

func isOpen(status model.SessionStatus) bool {
	return status == model.SessionActive || status == model.SessionPaused
}

type fakeSessionRepo struct{ st *memStore }

func (r fakeSessionRepo) Create(ctx context.Context, s *model.FlipSession) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.sessions[s.ID]; ok {
		return fmt.Errorf("duplicate session %s", s.ID)
	}
	for _, prev := range r.st.sessions {
		if prev.PlayerID == s.PlayerID && isOpen(prev.Status) && isOpen(s.Status) {
			return fmt.Errorf("%w: flip_sessions_one_open_per_player", repository.ErrConflict)
		}
	}
	r.st.sessions[s.ID] = *s
	return nil
}

func (r fakeSessionRepo) Get(ctx context.Context, id string) (*model.FlipSession, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	s, ok := r.st.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r fakeSessionRepo) GetForUpdate(ctx context.Context, id string) (*model.FlipSession, error) {
	return r.Get(ctx, id)
}

func (r fakeSessionRepo) GetOpenByPlayer(ctx context.Context, playerID int) (*model.FlipSession, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.hideOpen {
		return nil, repository.ErrNotFound
	}
	for _, s := range r.st.sessions {
		if s.PlayerID == playerID && isOpen(s.Status) {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeSessionRepo) Update(ctx context.Context, s *model.FlipSession) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.sessions[s.ID]; !ok {
		return repository.ErrNotFound
	}
	r.st.sessions[s.ID] = *s
	return nil
}

func (r fakeSessionRepo) list(limit int, match func(model.FlipSession) bool, key func(model.FlipSession) time.Time) []string {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var found []model.FlipSession
	for _, s := range r.st.sessions {
		if s.Status == model.SessionActive && match(s) {
			found = append(found, s)
		}
	}
	sort.Slice(found, func(i, j int) bool { return key(found[i]).Before(key(found[j])) })
	ids := make([]string, 0, len(found))
	for i, s := range found {
		if i == limit {
			break
		}
		ids = append(ids, s.ID)
	}
	return ids
}

func (r fakeSessionRepo) ListIdle(ctx context.Context, idleSince time.Time, limit int) ([]string, error) {
	return r.list(limit,
		func(s model.FlipSession) bool { return s.LastActionAt.Before(idleSince) },
		func(s model.FlipSession) time.Time { return s.LastActionAt }), nil
}

func (r fakeSessionRepo) ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	return r.list(limit,
		func(s model.FlipSession) bool { return s.CreatedAt.Before(createdBefore) },
		func(s model.FlipSession) time.Time { return s.CreatedAt }), nil
}

type fakeFlipRepo struct{ st *memStore }

func (r fakeFlipRepo) Append(ctx context.Context, f *model.FlipResult) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if err := r.st.failAppend; err != nil {
		r.st.failAppend = nil
		return err
	}
	for _, prev := range r.st.flips[f.SessionID] {
		if prev.FlipNumber == f.FlipNumber {
			return fmt.Errorf("duplicate flip %d", f.FlipNumber)
		}
	}
	r.st.flips[f.SessionID] = append(r.st.flips[f.SessionID], *f)
	return nil
}

func (r fakeFlipRepo) ListBySession(ctx context.Context, sessionID string) ([]model.FlipResult, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return append([]model.FlipResult(nil), r.st.flips[sessionID]...), nil
}

type fakeWalletRepo struct{ st *memStore }

func (r fakeWalletRepo) GetForUpdate(ctx context.Context, playerID int, currency string) (*model.Wallet, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	w, ok := r.st.wallets[walletKey{playerID, currency}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (r fakeWalletRepo) Update(ctx context.Context, w *model.Wallet) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.wallets[walletKey{w.PlayerID, w.Currency}] = *w
	return nil
}

func (r fakeWalletRepo) RecordTransaction(ctx context.Context, tx *model.WalletTransaction) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, prev := range r.st.ledger {
		if prev.SessionID == tx.SessionID && prev.Kind == tx.Kind {
			return false, nil
		}
	}
	r.st.ledger = append(r.st.ledger, *tx)
	return true, nil
}

func (r fakeWalletRepo) FindTransaction(ctx context.Context, sessionID string, kind model.TransactionKind) (*model.WalletTransaction, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, tx := range r.st.ledger {
		if tx.SessionID == sessionID && tx.Kind == kind {
			return &tx, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeCatalogRepo struct{ st *memStore }

func (r fakeCatalogRepo) ForStake(ctx context.Context, currency string, stake decimal.Decimal) (*model.Catalog, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c, ok := r.st.catalogs[currency]
	if !ok || stake.LessThan(c.Tier.MinStake) {
		return nil, repository.ErrNotFound
	}
	if c.Tier.MaxStake.IsPositive() && stake.GreaterThan(c.Tier.MaxStake) {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

type fakeConfigRepo struct{ st *memStore }

func (r fakeConfigRepo) ActiveConfig(ctx context.Context, currency string) (*model.CurrencyConfig, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	c, ok := r.st.configs[currency]
	if !ok || !c.IsActive {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

type fakeSimulationRepo struct{ st *memStore }

func (r fakeSimulationRepo) Get(ctx context.Context) (*model.SimulationOverride, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.override == nil {
		return nil, repository.ErrNotFound
	}
	o := *r.st.override
	return &o, nil
}

func (r fakeSimulationRepo) Replace(ctx context.Context, o model.SimulationOverride, expectedVersion int64) (*model.SimulationOverride, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.override != nil && r.st.override.Version != expectedVersion {
		return nil, repository.ErrVersionConflict
	}
	o.Version = expectedVersion + 1
	r.st.override = &o
	return &o, nil
}

func (r fakeSimulationRepo) IncrementUsage(ctx context.Context) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.override == nil {
		return nil
	}
	r.st.override.UsageCount++
	if r.st.override.MaxUses > 0 && r.st.override.UsageCount >= r.st.override.MaxUses {
		r.st.override.Enabled = false
	}
	return nil
}

type fakePlayerStatsRepo struct{ st *memStore }

func (r fakePlayerStatsRepo) RecordSession(ctx context.Context, s *model.FlipSession) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.statsRecorded = append(r.st.statsRecorded, s.ID+":"+string(s.Status))
	return nil
}

type fakeRTPStatsRepo struct{ st *memStore }

func (r fakeRTPStatsRepo) UpdateState(currency string, stake, payout float64) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.rtpUpdates++
}

func (r fakeRTPStatsRepo) SmartCheck(currency string, targetRTP float64) bool { return false }

// fakeTxManager сериализует транзакции и откатывает состояние при ошибке
type fakeTxManager struct {
	mu sync.Mutex
	st *memStore
}

func (m *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.st.snapshot()
	if err := fn(ctx); err != nil {
		m.st.restore(snap)
		return err
	}
	return nil
}

func (m *fakeTxManager) DoWithSettings(ctx context.Context, _ trm.Settings, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}

type fakeEngineCfg struct {
	idle, ttl, lockTTL time.Duration
	batch              int
}

func (c fakeEngineCfg) AutoFlipSpec() string { return "@every 1s" }
func (c fakeEngineCfg) ExpirySpec() string { return "@every 1s" }
func (c fakeEngineCfg) IdleThreshold() time.Duration { return c.idle }
func (c fakeEngineCfg) SessionTTL() time.Duration { return c.ttl }
func (c fakeEngineCfg) SessionLockTTL() time.Duration { return c.lockTTL }
func (c fakeEngineCfg) DBLockTimeout() time.Duration { return time.Second }
func (c fakeEngineCfg) SweepBatchSize() int { return c.batch }
func (c fakeEngineCfg) RTPWindowSize() int { return 100 }

type testEnv struct {
	serv   *serv
	st     *memStore
	locker *locker.MemoryLocker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := newMemStore()
	lk := locker.NewMemoryLocker()
	s := newServ(Deps{
		SessionRepo:     fakeSessionRepo{st},
		FlipRepo:        fakeFlipRepo{st},
		WalletRepo:      fakeWalletRepo{st},
		CatalogRepo:     fakeCatalogRepo{st},
		ConfigRepo:      fakeConfigRepo{st},
		SimulationRepo:  fakeSimulationRepo{st},
		PlayerStatsRepo: fakePlayerStatsRepo{st},
		RTPStatsRepo:    fakeRTPStatsRepo{st},
		Locker:          lk,
		TxManager:       &fakeTxManager{st: st},
		Cfg:             fakeEngineCfg{idle: time.Minute, ttl: time.Hour, lockTTL: 10 * time.Second, batch: 10},
		Log:             zap.NewNop(),
	})
	// Хуки после коммита выполняем синхронно
	s.async = func(f func()) { f() }
	return &testEnv{serv: s, st: st, locker: lk}
}

func (e *testEnv) start(t *testing.T, stake string) *model.StartedSession {
	t.Helper()
	res, err := e.serv.Start(playerCtx(testPlayer), model.StartSession{Stake: dec(stake), Currency: "USD", ClientSeed: "client"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return res
}
