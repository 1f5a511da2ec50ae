package model

import "github.com/shopspring/decimal"

type PayoutMode string

const (
	PayoutModeNormal PayoutMode = "normal"
	PayoutModeBoost  PayoutMode = "boost"
)

// CurrencyConfig - параметры игры для валюты
type CurrencyConfig struct {
	Currency string

	NormalPayoutPercent decimal.Decimal
	BoostPayoutPercent  decimal.Decimal
	PayoutMode          PayoutMode

	DecayFactor     float64
	MaxFlips        int
	HouseEdgeTarget decimal.Decimal // в процентах

	MinStake   decimal.Decimal
	MaxStake   decimal.Decimal // 0 - без ограничения
	MaxCashout decimal.Decimal // 0 - без ограничения

	PauseFeePercent decimal.Decimal

	HolidayBoostEnabled bool
	HolidayBoostPercent decimal.Decimal
	HolidayBoostOdds    int // 1 из N
	HolidayBoostMaxTier int

	IsActive bool
}
