package simulation

import (
	"cashflip/internal/model"
	"cashflip/internal/repository"
	"cashflip/internal/service"
	"context"
	"errors"

	"go.uber.org/zap"
)

type serv struct {
	repo repository.SimulationRepository
	log  *zap.Logger
}

// NewSimulationService Управление слотом тестового профиля
func NewSimulationService(repo repository.SimulationRepository, log *zap.Logger) service.SimulationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &serv{
		repo: repo,
		log:  log.Named("simulation"),
	}
}

// Current - состояние слота; пустой слот читается как выключенный normal
func (s *serv) Current(ctx context.Context) (*model.SimulationOverride, error) {
	o, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return &model.SimulationOverride{Mode: model.SimNormal}, nil
	}
	return o, err
}

// Replace - заменяет слот целиком. Проходит только при совпадении версии
func (s *serv) Replace(ctx context.Context, o model.SimulationOverride, expectedVersion int64) (*model.SimulationOverride, error) {
	if err := Validate(o); err != nil {
		return nil, err
	}

	res, err := s.repo.Replace(ctx, o, expectedVersion)
	if err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return nil, service.ErrOverrideVersionConflict
		}
		return nil, err
	}

	s.log.Info("simulation override replaced",
		zap.String("mode", string(res.Mode)),
		zap.Bool("enabled", res.Enabled),
		zap.Bool("apply_to_all", res.ApplyToAll),
		zap.Ints("player_ids", res.PlayerIDs),
		zap.Int64("version", res.Version),
	)
	return res, nil
}

// Validate проверяет параметры режима
func Validate(o model.SimulationOverride) error {
	switch o.Mode {
	case model.SimNormal, model.SimAlwaysWin, model.SimAlwaysLose:
	case model.SimForceZeroAtFlip, model.SimWinStreakThenLose:
		if o.FlipN <= 0 {
			return service.ErrInvalidOverride
		}
	case model.SimFixedProbability:
		if o.Probability < 0 || o.Probability > 1 {
			return service.ErrInvalidOverride
		}
	default:
		return service.ErrInvalidOverride
	}

	if o.MaxUses < 0 {
		return service.ErrInvalidOverride
	}
	if o.ForcedDenominationID != nil && *o.ForcedDenominationID <= 0 {
		return service.ErrInvalidOverride
	}
	if o.Enabled && o.Mode != model.SimNormal && !o.ApplyToAll && len(o.PlayerIDs) == 0 {
		return service.ErrInvalidOverride
	}
	if o.MinStake != nil && o.MinStake.IsNegative() {
		return service.ErrInvalidOverride
	}
	if o.MinStake != nil && o.MaxStake != nil && o.MaxStake.IsPositive() && o.MinStake.GreaterThan(*o.MaxStake) {
		return service.ErrInvalidOverride
	}
	return nil
}
