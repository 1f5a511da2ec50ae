package flip

import (
	"cashflip/internal/model"
	"cashflip/internal/service"
	"context"
	"errors"

	"go.uber.org/zap"
)

// AutoFlipIdle - флип за игрока в активных сессиях, простаивающих дольше порога.
// Занятые сессии пропускаются. Сессия, упёршаяся в max_flips, забирается автоматически
func (s *serv) AutoFlipIdle(ctx context.Context) (int, error) {
	idleSince := s.now().UTC().Add(-s.cfg.IdleThreshold())
	ids, err := s.sessionRepo.ListIdle(ctx, idleSince, s.cfg.SweepBatchSize())
	if err != nil {
		return 0, err
	}

	done := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}

		sess, err := s.sessionRepo.Get(ctx, id)
		if err != nil {
			s.log.Warn("auto-flip: load session", zap.String("session_id", id), zap.Error(err))
			continue
		}

		_, err = withSessionLock(ctx, s, id, "auto_flip", func() (struct{}, error) {
			_, err := s.flip(ctx, id, sess.PlayerID)
			if errors.Is(err, service.ErrMaxFlipsReached) {
				_, err = s.cashout(ctx, id, sess.PlayerID)
			}
			return struct{}{}, err
		})
		switch {
		case err == nil:
			done++
		case errors.Is(err, service.ErrSessionBusy), errors.Is(err, service.ErrNoActiveSession):
			// Игрок или другой воркер успел раньше
		default:
			s.log.Warn("auto-flip failed", zap.String("session_id", id), zap.Error(err))
		}
	}
	return done, nil
}

// ExpireStale - закрывает активные сессии старше session_ttl с зачислением накопленного
func (s *serv) ExpireStale(ctx context.Context) (int, error) {
	createdBefore := s.now().UTC().Add(-s.cfg.SessionTTL())
	ids, err := s.sessionRepo.ListStale(ctx, createdBefore, s.cfg.SweepBatchSize())
	if err != nil {
		return 0, err
	}

	done := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}

		_, err := withSessionLock(ctx, s, id, "expire", func() (struct{}, error) {
			return struct{}{}, s.expire(ctx, id)
		})
		switch {
		case err == nil:
			done++
		case errors.Is(err, service.ErrSessionBusy), errors.Is(err, service.ErrNoActiveSession):
		default:
			s.log.Warn("expire failed", zap.String("session_id", id), zap.Error(err))
		}
	}
	return done, nil
}

func (s *serv) expire(ctx context.Context, sessionID string) error {
	var (
		sess *model.FlipSession
		cfg  *model.CurrencyConfig
	)

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		sess, err = s.sessionRepo.GetForUpdate(txCtx, sessionID)
		if err != nil {
			return s.mapRepoErr(err, "expire", service.ErrNoActiveSession)
		}
		if sess.Status != model.SessionActive {
			return service.ErrNoActiveSession
		}

		cfg = s.settlementConfig(txCtx, sess.Currency)

		if _, err := s.settle(txCtx, sess, model.TxExpiryCredit, sess.CashoutBalance); err != nil {
			return err
		}

		now := s.now().UTC()
		sess.Status = model.SessionExpired
		sess.LastActionAt = now
		sess.EndedAt = &now
		return s.sessionRepo.Update(txCtx, sess)
	})
	if err != nil {
		return err
	}

	s.log.Info("session expired", zap.String("session_id", sess.ID), zap.String("credited", sess.CashoutBalance.String()))
	s.afterFinish(sess, cfg)
	return nil
}
