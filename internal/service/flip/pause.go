package flip

import (
	"cashflip/internal/model"
	"cashflip/internal/service"
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// Pause - ставит сессию на паузу за комиссию с накопленного баланса
func (s *serv) Pause(ctx context.Context, sessionID string, confirm bool) (*model.PauseResult, error) {
	playerID, err := playerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return withSessionLock(ctx, s, sessionID, "pause", func() (*model.PauseResult, error) {
		var res *model.PauseResult

		err := s.txManager.Do(ctx, func(txCtx context.Context) error {
			sess, err := s.lockOwnedSession(txCtx, sessionID, playerID, model.SessionActive)
			if err != nil {
				return err
			}
			if !sess.CashoutBalance.IsPositive() {
				return service.ErrNothingToCashOut
			}
			if !confirm {
				return service.ErrPauseNotConfirmed
			}

			cfg, err := s.activeConfig(txCtx, sess.Currency)
			if err != nil {
				return err
			}

			fee := PauseFee(sess.CashoutBalance, cfg.PauseFeePercent)
			sess.CashoutBalance = sess.CashoutBalance.Sub(fee)
			sess.Status = model.SessionPaused
			sess.LastActionAt = s.now().UTC()
			if err := s.sessionRepo.Update(txCtx, sess); err != nil {
				return err
			}

			res = &model.PauseResult{Fee: fee, RemainingBalance: sess.CashoutBalance}
			return nil
		})
		if err != nil {
			return nil, err
		}

		s.log.Info("session paused", zap.String("session_id", sessionID), zap.String("fee", res.Fee.String()))
		return res, nil
	})
}

// Resume - возвращает сессию с паузы, балансы не меняются
func (s *serv) Resume(ctx context.Context, sessionID string) error {
	playerID, err := playerFromContext(ctx)
	if err != nil {
		return err
	}

	_, err = withSessionLock(ctx, s, sessionID, "resume", func() (struct{}, error) {
		return struct{}{}, s.txManager.Do(ctx, func(txCtx context.Context) error {
			sess, err := s.lockOwnedSession(txCtx, sessionID, playerID, model.SessionPaused)
			if err != nil {
				return err
			}

			sess.Status = model.SessionActive
			sess.LastActionAt = s.now().UTC()
			return s.sessionRepo.Update(txCtx, sess)
		})
	})
	return err
}

// PauseFee = cashout * percent / 100, обрезка до 2 знаков к нулю
func PauseFee(cashout, percent decimal.Decimal) decimal.Decimal {
	if !percent.IsPositive() {
		return decimal.Zero
	}
	fee := cashout.Mul(percent).Div(hundred).Truncate(2)
	if fee.GreaterThan(cashout) {
		return cashout
	}
	return fee
}
