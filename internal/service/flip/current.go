package flip

import (
	"cashflip/internal/model"
	"cashflip/internal/service"
	"context"
)

// Current - открытая сессия игрока (активная или на паузе), без секрета
func (s *serv) Current(ctx context.Context) (*model.FlipSession, error) {
	playerID, err := playerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessionRepo.GetOpenByPlayer(ctx, playerID)
	if err != nil {
		return nil, s.mapRepoErr(err, "current", service.ErrNoActiveSession)
	}

	res := *sess
	res.ServerSecret = ""
	return &res, nil
}
