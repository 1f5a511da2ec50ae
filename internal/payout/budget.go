package payout

import (
	"errors"
	"math"

	"cashflip/internal/model"

	"github.com/shopspring/decimal"
)

var ErrInvalidSchedule = errors.New("max flips must be positive")

var hundred = decimal.NewFromInt(100)

// EffectivePercent выбирает процент выплаты для новой сессии.
// boostDraw - число из [0, 1) из хэша сессии с nonce = 0
func EffectivePercent(cfg model.CurrencyConfig, tierLevel int, boostDraw float64) (decimal.Decimal, bool) {
	if HolidayBoostWon(cfg, tierLevel, boostDraw) {
		return cfg.HolidayBoostPercent, true
	}
	if cfg.PayoutMode == model.PayoutModeBoost {
		return cfg.BoostPayoutPercent, false
	}
	return cfg.NormalPayoutPercent, false
}

// HolidayBoostWon - розыгрыш "1 из N", только для уровней ставки не выше потолка
func HolidayBoostWon(cfg model.CurrencyConfig, tierLevel int, draw float64) bool {
	if !cfg.HolidayBoostEnabled || cfg.HolidayBoostOdds <= 0 {
		return false
	}
	if tierLevel > cfg.HolidayBoostMaxTier {
		return false
	}
	return draw < 1/float64(cfg.HolidayBoostOdds)
}

// Budget = stake * percent / 100, обрезка до 2 знаков к нулю
func Budget(stake, percent decimal.Decimal) decimal.Decimal {
	return stake.Mul(percent).Div(hundred).Truncate(2)
}

// DecaySchedule возвращает нормированные веса e^(-k*(i-1)) для i = 1..maxFlips
func DecaySchedule(k float64, maxFlips int) ([]float64, error) {
	if maxFlips <= 0 {
		return nil, ErrInvalidSchedule
	}

	weights := make([]float64, maxFlips)
	var total float64
	for i := range weights {
		weights[i] = math.Exp(-k * float64(i))
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights, nil
}

// Target - целевая выплата для флипа flipNumber (с 1)
func Target(budget decimal.Decimal, k float64, maxFlips, flipNumber int) (float64, error) {
	weights, err := DecaySchedule(k, maxFlips)
	if err != nil {
		return 0, err
	}
	if flipNumber < 1 || flipNumber > maxFlips {
		return 0, nil
	}
	return weights[flipNumber-1] * budget.InexactFloat64(), nil
}
