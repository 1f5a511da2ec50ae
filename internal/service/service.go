package service

import (
	"cashflip/internal/model"
	"context"
)

type FlipService interface {
	Start(ctx context.Context, req model.StartSession) (*model.StartedSession, error)
	Flip(ctx context.Context, sessionID string) (*model.FlipOutcome, error)
	Cashout(ctx context.Context, sessionID string) (*model.CashoutResult, error)
	Pause(ctx context.Context, sessionID string, confirm bool) (*model.PauseResult, error)
	Resume(ctx context.Context, sessionID string) error
	Verify(ctx context.Context, sessionID string) (*model.VerifyResult, error)
	Current(ctx context.Context) (*model.FlipSession, error)

	// Фоновые задачи
	AutoFlipIdle(ctx context.Context) (int, error)
	ExpireStale(ctx context.Context) (int, error)
}

type SimulationService interface {
	Current(ctx context.Context) (*model.SimulationOverride, error)
	Replace(ctx context.Context, o model.SimulationOverride, expectedVersion int64) (*model.SimulationOverride, error)
}
