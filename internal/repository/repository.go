package repository

import (
	"cashflip/internal/model"
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrLockTimeout     = errors.New("row lock timeout")
	ErrConflict        = errors.New("unique constraint violation")
)

type SessionRepository interface {
	Create(ctx context.Context, s *model.FlipSession) error
	Get(ctx context.Context, id string) (*model.FlipSession, error)
	// GetForUpdate блокирует строку сессии до конца транзакции
	GetForUpdate(ctx context.Context, id string) (*model.FlipSession, error)
	// GetOpenByPlayer - активная или на паузе
	GetOpenByPlayer(ctx context.Context, playerID int) (*model.FlipSession, error)
	Update(ctx context.Context, s *model.FlipSession) error

	ListIdle(ctx context.Context, idleSince time.Time, limit int) ([]string, error)
	ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]string, error)
}

type FlipRepository interface {
	Append(ctx context.Context, f *model.FlipResult) error
	ListBySession(ctx context.Context, sessionID string) ([]model.FlipResult, error)
}

type WalletRepository interface {
	GetForUpdate(ctx context.Context, playerID int, currency string) (*model.Wallet, error)
	Update(ctx context.Context, w *model.Wallet) error
	// RecordTransaction возвращает false, если запись с таким (session_id, kind) уже есть
	RecordTransaction(ctx context.Context, tx *model.WalletTransaction) (bool, error)
	FindTransaction(ctx context.Context, sessionID string, kind model.TransactionKind) (*model.WalletTransaction, error)
}

type CatalogRepository interface {
	ForStake(ctx context.Context, currency string, stake decimal.Decimal) (*model.Catalog, error)
}

type ConfigRepository interface {
	ActiveConfig(ctx context.Context, currency string) (*model.CurrencyConfig, error)
}

type SimulationRepository interface {
	Get(ctx context.Context) (*model.SimulationOverride, error)
	Replace(ctx context.Context, o model.SimulationOverride, expectedVersion int64) (*model.SimulationOverride, error)
	// IncrementUsage учитывает применение и отключает слот по достижении лимита
	IncrementUsage(ctx context.Context) error
}

type PlayerStatsRepository interface {
	RecordSession(ctx context.Context, s *model.FlipSession) error
}

type RTPStatsRepository interface {
	UpdateState(currency string, stake, payout float64)
	SmartCheck(currency string, targetRTP float64) bool
}
