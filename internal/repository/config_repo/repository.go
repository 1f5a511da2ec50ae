package config_repo

import (
	"cashflip/internal/model"
	"cashflip/internal/repository"
	"context"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table                  = "currency_configs"
	colCurrency            = "currency"
	colNormalPayoutPercent = "normal_payout_percent"
	colBoostPayoutPercent  = "boost_payout_percent"
	colPayoutMode          = "payout_mode"
	colDecayFactor         = "decay_factor"
	colMaxFlips            = "max_flips"
	colHouseEdgeTarget     = "house_edge_target"
	colMinStake            = "min_stake"
	colMaxStake            = "max_stake"
	colMaxCashout          = "max_cashout"
	colPauseFeePercent     = "pause_fee_percent"
	colHolidayEnabled      = "holiday_boost_enabled"
	colHolidayPercent      = "holiday_boost_percent"
	colHolidayOdds         = "holiday_boost_odds"
	colHolidayMaxTier      = "holiday_boost_max_tier"
	colIsActive            = "is_active"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewConfigRepository(dbc *pgxpool.Pool) repository.ConfigRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// ActiveConfig - активная конфигурация валюты или repository.ErrNotFound
func (r *repo) ActiveConfig(ctx context.Context, currency string) (*model.CurrencyConfig, error) {
	query := sq.Select(colCurrency, colNormalPayoutPercent, colBoostPayoutPercent, colPayoutMode, colDecayFactor,
		colMaxFlips, colHouseEdgeTarget, colMinStake, colMaxStake, colMaxCashout, colPauseFeePercent,
		colHolidayEnabled, colHolidayPercent, colHolidayOdds, colHolidayMaxTier, colIsActive).
		From(table).
		Where(sq.Eq{colCurrency: currency, colIsActive: true}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		cfg  model.CurrencyConfig
		mode string
	)
	err = r.getter.DefaultTrOrDB(ctx, r.dbc).QueryRow(ctx, sqlStr, args...).Scan(
		&cfg.Currency, &cfg.NormalPayoutPercent, &cfg.BoostPayoutPercent, &mode, &cfg.DecayFactor,
		&cfg.MaxFlips, &cfg.HouseEdgeTarget, &cfg.MinStake, &cfg.MaxStake, &cfg.MaxCashout, &cfg.PauseFeePercent,
		&cfg.HolidayBoostEnabled, &cfg.HolidayBoostPercent, &cfg.HolidayBoostOdds, &cfg.HolidayBoostMaxTier, &cfg.IsActive,
	)
	if err != nil {
		return nil, repository.MapError(err)
	}
	cfg.PayoutMode = model.PayoutMode(mode)

	return &cfg, nil
}
