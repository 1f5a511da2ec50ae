package flip

import (
	"cashflip/internal/model"
	"cashflip/internal/service"
	"context"

	"go.uber.org/zap"
)

// Cashout - зачисляет накопленный баланс сессии в кошелёк и закрывает сессию
func (s *serv) Cashout(ctx context.Context, sessionID string) (*model.CashoutResult, error) {
	playerID, err := playerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	return withSessionLock(ctx, s, sessionID, "cashout", func() (*model.CashoutResult, error) {
		return s.cashout(ctx, sessionID, playerID)
	})
}

func (s *serv) cashout(ctx context.Context, sessionID string, playerID int) (*model.CashoutResult, error) {
	var (
		res  *model.CashoutResult
		sess *model.FlipSession
		cfg  *model.CurrencyConfig
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		sess, err = s.lockOwnedSession(txCtx, sessionID, playerID, model.SessionActive)
		if err != nil {
			return err
		}
		if !sess.CashoutBalance.IsPositive() {
			return service.ErrNothingToCashOut
		}

		cfg = s.settlementConfig(txCtx, sess.Currency)

		w, err := s.settle(txCtx, sess, model.TxCashoutCredit, sess.CashoutBalance)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		sess.Status = model.SessionCashedOut
		sess.LastActionAt = now
		sess.EndedAt = &now
		if err := s.sessionRepo.Update(txCtx, sess); err != nil {
			return err
		}

		res = &model.CashoutResult{
			Amount:           sess.CashoutBalance,
			NewWalletBalance: w.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("session cashed out",
		zap.String("session_id", sess.ID),
		zap.Int("player_id", sess.PlayerID),
		zap.String("amount", res.Amount.String()),
	)
	s.afterFinish(sess, cfg)

	return res, nil
}
