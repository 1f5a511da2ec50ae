package flip

import (
	"cashflip/internal/metrics"
	"cashflip/internal/model"
	"cashflip/internal/payout"
	"cashflip/internal/service"
	"cashflip/pkg/fairness"
	"context"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Flip - один флип активной сессии игрока
func (s *serv) Flip(ctx context.Context, sessionID string) (*model.FlipOutcome, error) {
	playerID, err := playerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return withSessionLock(ctx, s, sessionID, "flip", func() (*model.FlipOutcome, error) {
		return s.flip(ctx, sessionID, playerID)
	})
}

// flip выполняется под блокировкой сессии
func (s *serv) flip(ctx context.Context, sessionID string, playerID int) (*model.FlipOutcome, error) {
	var (
		result   *model.FlipResult
		finished *model.FlipSession
		cfg      *model.CurrencyConfig
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		sess, err := s.lockOwnedSession(txCtx, sessionID, playerID, model.SessionActive)
		if err != nil {
			return err
		}

		cfg, err = s.activeConfig(txCtx, sess.Currency)
		if err != nil {
			return err
		}
		if sess.FlipCount >= cfg.MaxFlips {
			return service.ErrMaxFlipsReached
		}

		catalog, err := s.catalogRepo.ForStake(txCtx, sess.Currency, sess.Stake)
		if err != nil {
			return s.mapRepoErr(err, "catalog", service.ErrInvalidConfig)
		}
		override, err := s.loadOverride(txCtx)
		if err != nil {
			return err
		}

		// Счётчики двигаются в той же транзакции, что и начисление. При откате повтор
		// возьмёт тот же nonce, но он нигде не записан; двойной флип исключают
		// блокировка строки сессии и первичный ключ (session_id, flip_number)
		sess.Nonce++
		sess.FlipCount++

		result, err = s.resolveFlip(sess, cfg, catalog, override)
		if err != nil {
			return err
		}
		if result.Forced {
			if err := s.simulationRepo.IncrementUsage(txCtx); err != nil {
				return err
			}
		}

		if err := s.flipRepo.Append(txCtx, result); err != nil {
			return err
		}
		if err := s.sessionRepo.Update(txCtx, sess); err != nil {
			return err
		}

		if sess.Status == model.SessionLost {
			// Ставка сгорает: снимаем блокировку без зачисления
			if _, err := s.settle(txCtx, sess, model.TxStakeForfeit, decimal.Zero); err != nil {
				return err
			}
			finished = sess
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := "win"
	if result.IsZero {
		outcome = "zero"
	}
	metrics.Flips.WithLabelValues(cfg.Currency, outcome, strconv.FormatBool(result.Forced)).Inc()
	if finished != nil {
		s.log.Info("session lost", zap.String("session_id", finished.ID), zap.Int("flips", finished.FlipCount))
		s.afterFinish(finished, cfg)
	}

	return &model.FlipOutcome{
		FlipNumber:      result.FlipNumber,
		Value:           result.Value,
		IsZero:          result.IsZero,
		CashoutBalance:  result.CashoutBalance,
		RemainingBudget: result.RemainingBudget,
		FairnessHash:    result.FairnessHash,
	}, nil
}

// resolveFlip считает исход флипа и меняет балансы сессии.
// Счётчики nonce и flip_count уже увеличены
func (s *serv) resolveFlip(
	sess *model.FlipSession,
	cfg *model.CurrencyConfig,
	catalog *model.Catalog,
	override *model.SimulationOverride,
) (*model.FlipResult, error) {
	hash := fairness.FlipHash(sess.ServerSecret, sess.ClientSeed, sess.Nonce)
	outcomeDraw, err := fairness.UnitFloat(hash, fairness.OutcomeOffset)
	if err != nil {
		return nil, err
	}
	tieDraw, err := fairness.UnitFloat(hash, fairness.TieBreakOffset)
	if err != nil {
		return nil, err
	}

	target, err := payout.Target(sess.PayoutBudget, cfg.DecayFactor, cfg.MaxFlips, sess.FlipCount)
	if err != nil {
		s.integrity("invalid_config", "decay schedule failed", zap.String("currency", cfg.Currency), zap.Error(err))
		return nil, service.ErrInvalidConfig
	}

	decision := payout.ResolveOverride(override, sess.PlayerID, sess.FlipCount, outcomeDraw)

	var (
		denom model.Denomination
		win   bool
	)
	switch decision.Kind {
	case payout.DecisionZero:
	case payout.DecisionWin:
		denom, win = payout.SelectWin(*catalog, decision.ForcedDenominationID, target, sess.RemainingBudget, tieDraw)
	default:
		denom, win = payout.Select(catalog.Payable(), target, sess.RemainingBudget, tieDraw)
	}

	now := s.now().UTC()
	sess.LastActionAt = now

	result := &model.FlipResult{
		SessionID:    sess.ID,
		FlipNumber:   sess.FlipCount,
		Nonce:        sess.Nonce,
		FairnessHash: hash,
		Forced:       decision.Applied(),
		CreatedAt:    now,
	}

	if win {
		award := payout.Apply(denom.Value, sess.RemainingBudget, sess.CashoutBalance, cfg.MaxCashout)
		if award.Anomaly {
			metrics.PayoutAnomalies.WithLabelValues("clamped").Inc()
			s.log.Warn("award clamped by remaining budget",
				zap.String("session_id", sess.ID),
				zap.Int64("denomination_id", denom.ID),
				zap.String("value", denom.Value.String()),
				zap.String("awarded", award.Awarded.String()),
			)
		}
		if award.Capped {
			metrics.PayoutAnomalies.WithLabelValues("max_cashout").Inc()
		}

		sess.RemainingBudget = award.RemainingBudget
		sess.CashoutBalance = award.CashoutBalance

		id := denom.ID
		result.DenominationID = &id
		result.Value = denom.Value
		result.Awarded = award.Awarded
	} else {
		if zero, ok := catalog.Zero(); ok {
			id := zero.ID
			result.DenominationID = &id
			result.Value = zero.Value
		} else {
			s.integrity("missing_zero", service.ErrMissingZeroDenomination.Error(),
				zap.String("currency", sess.Currency), zap.Int64("tier_id", catalog.Tier.ID))
		}
		result.IsZero = true
		result.Awarded = decimal.Zero

		sess.Status = model.SessionLost
		sess.EndedAt = &now
	}

	result.CashoutBalance = sess.CashoutBalance
	result.RemainingBudget = sess.RemainingBudget
	return result, nil
}
