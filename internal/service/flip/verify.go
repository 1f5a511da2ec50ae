package flip

import (
	"cashflip/internal/model"
	"cashflip/internal/service"
	"cashflip/pkg/fairness"
	"context"

	"go.uber.org/zap"
)

// Verify - раскрывает секрет завершённой сессии и пересчитывает хэши всех флипов.
// При расхождении возвращает и результат, и ErrFairnessMismatch
func (s *serv) Verify(ctx context.Context, sessionID string) (*model.VerifyResult, error) {
	sess, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, s.mapRepoErr(err, "verify", service.ErrSessionNotFound)
	}
	if !sess.Status.IsTerminal() {
		return nil, service.ErrSessionStillActive
	}

	flips, err := s.flipRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	commitmentOK := fairness.VerifyCommitment(sess.ServerSecret, sess.CommitmentHash)
	res := &model.VerifyResult{
		Secret:         sess.ServerSecret,
		CommitmentHash: sess.CommitmentHash,
		ClientSeed:     sess.ClientSeed,
		Flips:          make([]model.VerifiedFlip, 0, len(flips)),
	}

	var (
		mismatch     = !commitmentOK
		denomBroken  bool
		expectedFlip = 1
	)
	for _, f := range flips {
		ok := commitmentOK && fairness.Verify(sess.ServerSecret, sess.ClientSeed, f.Nonce, f.FairnessHash)
		// Нумерация флипов непрерывна с 1
		if f.FlipNumber != expectedFlip {
			ok = false
		}
		expectedFlip++

		if !ok {
			mismatch = true
		}
		if awardBroken(f) {
			denomBroken = true
		}

		res.Flips = append(res.Flips, model.VerifiedFlip{
			FlipNumber:   f.FlipNumber,
			Value:        f.Value,
			IsZero:       f.IsZero,
			FairnessHash: f.FairnessHash,
			Verified:     ok,
		})
	}

	if mismatch {
		s.integrity("fairness_mismatch", service.ErrFairnessMismatch.Error(),
			zap.String("session_id", sessionID), zap.Bool("commitment_ok", commitmentOK))
		return res, service.ErrFairnessMismatch
	}
	if denomBroken {
		s.integrity("denomination_mismatch", service.ErrDenominationMismatch.Error(), zap.String("session_id", sessionID))
		return res, service.ErrDenominationMismatch
	}
	return res, nil
}

// awardBroken - начислено больше номинала или что-то начислено за проигрыш
func awardBroken(f model.FlipResult) bool {
	if f.IsZero {
		return !f.Awarded.IsZero()
	}
	return f.Awarded.GreaterThan(f.Value) || f.Awarded.IsNegative()
}
