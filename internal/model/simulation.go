package model

import "github.com/shopspring/decimal"

type SimulationMode string

const (
	SimNormal            SimulationMode = "normal"
	SimAlwaysWin         SimulationMode = "always_win"
	SimAlwaysLose        SimulationMode = "always_lose"
	SimForceZeroAtFlip   SimulationMode = "force_zero_at_flip"
	SimFixedProbability  SimulationMode = "fixed_probability"
	SimWinStreakThenLose SimulationMode = "win_streak_then_lose"
)

// SimulationOverride - единственный слот тестового профиля
type SimulationOverride struct {
	Mode SimulationMode

	FlipN       int     // force_zero_at_flip, win_streak_then_lose
	Probability float64 // fixed_probability

	ForcedDenominationID *int64

	ApplyToAll bool
	PlayerIDs  []int

	// Подменяют лимиты ставки из конфигурации валюты
	MinStake *decimal.Decimal
	MaxStake *decimal.Decimal

	UsageCount int
	MaxUses    int // 0 - без автоотключения

	Enabled bool
	Version int64
}

// AppliesTo - действует ли оверрайд на игрока
func (o *SimulationOverride) AppliesTo(playerID int) bool {
	if o == nil || !o.Enabled || o.Mode == SimNormal || o.Mode == "" {
		return false
	}
	if o.ApplyToAll {
		return true
	}
	for _, id := range o.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}
