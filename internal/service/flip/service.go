package flip

import (
	"cashflip/internal/config"
	"cashflip/internal/locker"
	"cashflip/internal/metrics"
	"cashflip/internal/middleware"
	"cashflip/internal/model"
	"cashflip/internal/repository"
	"cashflip/internal/service"
	"context"
	"errors"
	"time"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// lockPrefix префикс ключа блокировки сессии
	lockPrefix = "flip:session:"
	// statsTimeout сколько ждём запись статистики после завершения сессии
	statsTimeout = 5 * time.Second
)

type Deps struct {
	SessionRepo     repository.SessionRepository
	FlipRepo        repository.FlipRepository
	WalletRepo      repository.WalletRepository
	CatalogRepo     repository.CatalogRepository
	ConfigRepo      repository.ConfigRepository
	SimulationRepo  repository.SimulationRepository
	PlayerStatsRepo repository.PlayerStatsRepository
	RTPStatsRepo    repository.RTPStatsRepository
	Locker          locker.Locker
	TxManager       trm.Manager
	Cfg             config.EngineConfig
	Log             *zap.Logger
}

type serv struct {
	sessionRepo     repository.SessionRepository
	flipRepo        repository.FlipRepository
	walletRepo      repository.WalletRepository
	catalogRepo     repository.CatalogRepository
	configRepo      repository.ConfigRepository
	simulationRepo  repository.SimulationRepository
	playerStatsRepo repository.PlayerStatsRepository
	rtpStatsRepo    repository.RTPStatsRepository
	locker          locker.Locker
	txManager       trm.Manager
	cfg             config.EngineConfig
	log             *zap.Logger

	now func() time.Time
	// async запускает хуки после коммита
	async func(func())
}

// NewFlipService Сервис игровых сессий флипов
func NewFlipService(deps Deps) service.FlipService {
	return newServ(deps)
}

func newServ(deps Deps) *serv {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &serv{
		sessionRepo:     deps.SessionRepo,
		flipRepo:        deps.FlipRepo,
		walletRepo:      deps.WalletRepo,
		catalogRepo:     deps.CatalogRepo,
		configRepo:      deps.ConfigRepo,
		simulationRepo:  deps.SimulationRepo,
		playerStatsRepo: deps.PlayerStatsRepo,
		rtpStatsRepo:    deps.RTPStatsRepo,
		locker:          deps.Locker,
		txManager:       deps.TxManager,
		cfg:             deps.Cfg,
		log:             log.Named("flip"),
		now:             time.Now,
		async:           func(f func()) { go f() },
	}
}

func playerFromContext(ctx context.Context) (int, error) {
	id, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return 0, service.ErrPlayerNotInContext
	}
	return id, nil
}

// withSessionLock выполняет fn под блокировкой сессии. Занятая сессия - ErrSessionBusy без ожидания
func withSessionLock[T any](ctx context.Context, s *serv, sessionID, op string, fn func() (T, error)) (T, error) {
	var zero T

	key := lockPrefix + sessionID
	token, err := s.locker.TryLock(ctx, key, s.cfg.SessionLockTTL())
	if err != nil {
		if errors.Is(err, locker.ErrNotAcquired) {
			metrics.LockContention.WithLabelValues(op).Inc()
			return zero, service.ErrSessionBusy
		}
		return zero, err
	}
	defer func() {
		// Снимаем блокировку даже при отменённом контексте запроса
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.locker.Unlock(unlockCtx, key, token); err != nil {
			s.log.Warn("failed to release session lock", zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	return fn()
}

// lockOwnedSession берёт строку сессии под FOR UPDATE и проверяет владельца и статус
func (s *serv) lockOwnedSession(txCtx context.Context, sessionID string, playerID int, status model.SessionStatus) (*model.FlipSession, error) {
	sess, err := s.sessionRepo.GetForUpdate(txCtx, sessionID)
	if err != nil {
		return nil, s.mapRepoErr(err, "session", service.ErrNoActiveSession)
	}
	// Чужая сессия неотличима от несуществующей
	if sess.PlayerID != playerID {
		return nil, service.ErrNoActiveSession
	}
	if sess.Status != status {
		if status == model.SessionPaused {
			return nil, service.ErrSessionNotPaused
		}
		return nil, service.ErrNoActiveSession
	}
	return sess, nil
}

// mapRepoErr приводит ошибки репозиториев к ошибкам сервиса
func (s *serv) mapRepoErr(err error, op string, notFound error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrLockTimeout):
		metrics.LockContention.WithLabelValues(op).Inc()
		return service.ErrLockTimeout
	}
	return err
}

func (s *serv) activeConfig(ctx context.Context, currency string) (*model.CurrencyConfig, error) {
	cfg, err := s.configRepo.ActiveConfig(ctx, currency)
	if err != nil {
		return nil, s.mapRepoErr(err, "config", service.ErrNoActiveConfig)
	}
	if cfg.MaxFlips <= 0 {
		s.integrity("invalid_config", "max flips must be positive", zap.String("currency", currency))
		return nil, service.ErrInvalidConfig
	}
	return cfg, nil
}

// loadOverride - текущий слот оверрайда; отсутствие слота не ошибка
func (s *serv) loadOverride(ctx context.Context) (*model.SimulationOverride, error) {
	o, err := s.simulationRepo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return o, err
}

// settle освобождает ставку и зачисляет credit на баланс вместе с записью журнала.
// Повтор с тем же (session_id, kind) кошелёк не меняет
func (s *serv) settle(txCtx context.Context, sess *model.FlipSession, kind model.TransactionKind, credit decimal.Decimal) (*model.Wallet, error) {
	w, err := s.walletRepo.GetForUpdate(txCtx, sess.PlayerID, sess.Currency)
	if err != nil {
		return nil, s.mapRepoErr(err, "wallet", service.ErrInsufficientFunds)
	}

	newLocked := w.LockedBalance.Sub(sess.Stake)
	if newLocked.IsNegative() {
		s.integrity("locked_underflow", "locked balance is below the session stake",
			zap.String("session_id", sess.ID), zap.String("locked", w.LockedBalance.String()))
		newLocked = decimal.Zero
	}

	amount := credit
	if kind == model.TxStakeForfeit {
		amount = sess.Stake
	}

	tx := &model.WalletTransaction{
		Reference:     uuid.NewString(),
		PlayerID:      sess.PlayerID,
		SessionID:     sess.ID,
		Kind:          kind,
		Amount:        amount,
		BalanceBefore: w.Balance,
		BalanceAfter:  w.Balance.Add(credit),
		LockedBefore:  w.LockedBalance,
		LockedAfter:   newLocked,
		CreatedAt:     s.now().UTC(),
	}

	inserted, err := s.walletRepo.RecordTransaction(txCtx, tx)
	if err != nil {
		return nil, s.mapRepoErr(err, "wallet", err)
	}
	if !inserted {
		// Повторная попытка: кошелёк не трогаем, отдаём состояние из уже записанной проводки
		prev, err := s.walletRepo.FindTransaction(txCtx, sess.ID, kind)
		if err != nil {
			return nil, s.mapRepoErr(err, "wallet", err)
		}
		s.log.Warn("session already settled",
			zap.String("session_id", sess.ID), zap.String("kind", string(kind)), zap.String("reference", prev.Reference))
		settled := *w
		settled.Balance = prev.BalanceAfter
		settled.LockedBalance = prev.LockedAfter
		return &settled, nil
	}

	w.Balance = tx.BalanceAfter
	w.LockedBalance = tx.LockedAfter
	if err := s.walletRepo.Update(txCtx, w); err != nil {
		return nil, s.mapRepoErr(err, "wallet", err)
	}
	return w, nil
}

// settlementConfig - конфигурация для статистики при закрытии сессии.
// Выключенная конфигурация не мешает забрать деньги, поэтому ошибка не возвращается
func (s *serv) settlementConfig(ctx context.Context, currency string) *model.CurrencyConfig {
	cfg, err := s.configRepo.ActiveConfig(ctx, currency)
	if err != nil {
		s.log.Debug("no active config on settlement", zap.String("currency", currency), zap.Error(err))
		return nil
	}
	return cfg
}

// afterFinish - статистика по завершённой сессии, вне транзакции и без ожидания
func (s *serv) afterFinish(sess *model.FlipSession, cfg *model.CurrencyConfig) {
	metrics.SessionsFinished.WithLabelValues(sess.Currency, string(sess.Status)).Inc()

	snapshot := *sess
	s.async(func() {
		payout := decimal.Zero
		if snapshot.Status != model.SessionLost {
			payout = snapshot.CashoutBalance
		}
		s.rtpStatsRepo.UpdateState(snapshot.Currency, snapshot.Stake.InexactFloat64(), payout.InexactFloat64())
		if cfg != nil {
			s.rtpStatsRepo.SmartCheck(snapshot.Currency, 100-cfg.HouseEdgeTarget.InexactFloat64())
		}

		ctx, cancel := context.WithTimeout(context.Background(), statsTimeout)
		defer cancel()
		if err := s.playerStatsRepo.RecordSession(ctx, &snapshot); err != nil {
			s.log.Warn("failed to record player stats", zap.String("session_id", snapshot.ID), zap.Error(err))
		}
	})
}

// integrity логирует дефект данных и считает его в метриках
func (s *serv) integrity(kind, msg string, fields ...zap.Field) {
	metrics.IntegrityErrors.WithLabelValues(kind).Inc()
	s.log.Error(msg, append(fields, zap.String("integrity", kind))...)
}
