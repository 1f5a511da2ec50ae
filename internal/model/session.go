package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCashedOut SessionStatus = "cashed_out"
	SessionLost      SessionStatus = "lost"
	SessionExpired   SessionStatus = "expired"
)

// IsTerminal - сессия завершена и секрет можно раскрыть
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCashedOut || s == SessionLost || s == SessionExpired
}

// FlipSession - игровая сессия флипов
type FlipSession struct {
	ID       string
	PlayerID int
	Currency string
	Stake    decimal.Decimal

	CashoutBalance  decimal.Decimal // Сумма начисленных выигрышей
	PayoutBudget    decimal.Decimal // Бюджет выплат, фиксируется при старте
	RemainingBudget decimal.Decimal // Остаток бюджета

	FlipCount int
	Nonce     int64

	ServerSecret   string // Раскрывается только после завершения
	CommitmentHash string
	ClientSeed     string

	PayoutPercent decimal.Decimal
	HolidayBoost  bool
	TierLevel     int

	Status       SessionStatus
	CreatedAt    time.Time
	LastActionAt time.Time
	EndedAt      *time.Time
}

// FlipResult - результат одного флипа, не изменяется после записи
type FlipResult struct {
	SessionID       string
	FlipNumber      int
	Nonce           int64
	DenominationID  *int64 // nil только если в каталоге нет нулевого номинала
	Value           decimal.Decimal
	Awarded         decimal.Decimal
	IsZero          bool
	CashoutBalance  decimal.Decimal
	RemainingBudget decimal.Decimal
	FairnessHash    string
	Forced          bool
	CreatedAt       time.Time
}

type StartSession struct {
	PlayerID   int
	Stake      decimal.Decimal
	Currency   string
	ClientSeed string
}

type StartedSession struct {
	SessionID      string
	CommitmentHash string
	Stake          decimal.Decimal
}

type FlipOutcome struct {
	FlipNumber      int
	Value           decimal.Decimal
	IsZero          bool
	CashoutBalance  decimal.Decimal
	RemainingBudget decimal.Decimal
	FairnessHash    string
}

type CashoutResult struct {
	Amount           decimal.Decimal
	NewWalletBalance decimal.Decimal
}

type PauseResult struct {
	Fee              decimal.Decimal
	RemainingBalance decimal.Decimal
}

type VerifiedFlip struct {
	FlipNumber   int
	Value        decimal.Decimal
	IsZero       bool
	FairnessHash string
	Verified     bool
}

type VerifyResult struct {
	Secret         string
	CommitmentHash string
	ClientSeed     string
	Flips          []VerifiedFlip
}
