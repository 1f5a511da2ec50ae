package flip

import (
	"cashflip/internal/metrics"
	"cashflip/internal/model"
	"cashflip/internal/payout"
	"cashflip/internal/repository"
	"cashflip/internal/service"
	"cashflip/pkg/fairness"
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxClientSeedLen ограничение на длину клиентского сида
const maxClientSeedLen = 64

// Start открывает сессию: бюджет, сиды, блокировка ставки в кошельке
func (s *serv) Start(ctx context.Context, req model.StartSession) (*model.StartedSession, error) {
	playerID, err := playerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	req.PlayerID = playerID
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))

	// Ставка положительная и не мельче цента
	if !req.Stake.IsPositive() || !req.Stake.Equal(req.Stake.Truncate(2)) {
		return nil, service.ErrInvalidStake
	}
	if len(req.ClientSeed) > maxClientSeedLen {
		return nil, service.ErrInvalidStake
	}

	cfg, err := s.activeConfig(ctx, req.Currency)
	if err != nil {
		return nil, err
	}

	override, err := s.loadOverride(ctx)
	if err != nil {
		return nil, err
	}
	if !stakeInLimits(req.Stake, cfg, override, playerID) {
		return nil, service.ErrInvalidStake
	}

	catalog, err := s.catalogRepo.ForStake(ctx, req.Currency, req.Stake)
	if err != nil {
		return nil, s.mapRepoErr(err, "catalog", service.ErrInvalidStake)
	}

	sess, err := newSession(req, cfg, catalog.Tier.Level)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	sess.CreatedAt = now
	sess.LastActionAt = now

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		// Блокировка кошелька сериализует старты игрока в одной валюте
		w, err := s.walletRepo.GetForUpdate(txCtx, playerID, req.Currency)
		if err != nil {
			return s.mapRepoErr(err, "wallet", service.ErrInsufficientFunds)
		}

		_, err = s.sessionRepo.GetOpenByPlayer(txCtx, playerID)
		if err == nil {
			return service.ErrAlreadyActive
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if w.Available().LessThan(req.Stake) {
			return service.ErrInsufficientFunds
		}

		tx := &model.WalletTransaction{
			Reference:     uuid.NewString(),
			PlayerID:      playerID,
			SessionID:     sess.ID,
			Kind:          model.TxStakeLock,
			Amount:        req.Stake,
			BalanceBefore: w.Balance,
			BalanceAfter:  w.Balance.Sub(req.Stake),
			LockedBefore:  w.LockedBalance,
			LockedAfter:   w.LockedBalance.Add(req.Stake),
			CreatedAt:     now,
		}
		if _, err := s.walletRepo.RecordTransaction(txCtx, tx); err != nil {
			return s.mapRepoErr(err, "wallet", err)
		}

		w.Balance = tx.BalanceAfter
		w.LockedBalance = tx.LockedAfter
		if err := s.walletRepo.Update(txCtx, w); err != nil {
			return s.mapRepoErr(err, "wallet", err)
		}

		// Параллельный старт в другой валюте держит другой кошелёк,
		// тогда одну открытую сессию гарантирует уникальный индекс
		if err := s.sessionRepo.Create(txCtx, sess); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return service.ErrAlreadyActive
			}
			return s.mapRepoErr(err, "session", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsStarted.WithLabelValues(sess.Currency, strconv.FormatBool(sess.HolidayBoost)).Inc()
	s.log.Info("session started",
		zap.String("session_id", sess.ID),
		zap.Int("player_id", playerID),
		zap.String("stake", sess.Stake.String()),
		zap.String("budget", sess.PayoutBudget.String()),
		zap.Bool("holiday_boost", sess.HolidayBoost),
	)

	return &model.StartedSession{
		SessionID:      sess.ID,
		CommitmentHash: sess.CommitmentHash,
		Stake:          sess.Stake,
	}, nil
}

// stakeInLimits - лимиты валюты; оверрайд игрока подменяет их, если задан
func stakeInLimits(stake decimal.Decimal, cfg *model.CurrencyConfig, o *model.SimulationOverride, playerID int) bool {
	minStake, maxStake := cfg.MinStake, cfg.MaxStake
	if o.AppliesTo(playerID) {
		if o.MinStake != nil {
			minStake = *o.MinStake
		}
		if o.MaxStake != nil {
			maxStake = *o.MaxStake
		}
	}

	if stake.LessThan(minStake) {
		return false
	}
	if maxStake.IsPositive() && stake.GreaterThan(maxStake) {
		return false
	}
	return true
}

// newSession генерирует секрет и считает бюджет.
// Розыгрыш буста берётся из хэша с nonce 0, поэтому его можно проверить после раскрытия секрета
func newSession(req model.StartSession, cfg *model.CurrencyConfig, tierLevel int) (*model.FlipSession, error) {
	secret, err := fairness.NewSecret()
	if err != nil {
		return nil, err
	}
	clientSeed := req.ClientSeed
	if clientSeed == "" {
		clientSeed, err = fairness.NewClientSeed()
		if err != nil {
			return nil, err
		}
	}

	boostDraw, err := fairness.UnitFloat(fairness.FlipHash(secret, clientSeed, fairness.BoostNonce), fairness.BoostOffset)
	if err != nil {
		return nil, err
	}
	percent, boosted := payout.EffectivePercent(*cfg, tierLevel, boostDraw)
	budget := payout.Budget(req.Stake, percent)

	return &model.FlipSession{
		ID:              uuid.NewString(),
		PlayerID:        req.PlayerID,
		Currency:        req.Currency,
		Stake:           req.Stake,
		CashoutBalance:  decimal.Zero,
		PayoutBudget:    budget,
		RemainingBudget: budget,
		Nonce:           fairness.BoostNonce,
		ServerSecret:    secret,
		CommitmentHash:  fairness.Commit(secret),
		ClientSeed:      clientSeed,
		PayoutPercent:   percent,
		HolidayBoost:    boosted,
		TierLevel:       tierLevel,
		Status:          model.SessionActive,
	}, nil
}
