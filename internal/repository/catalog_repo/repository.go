package catalog_repo

import (
	"cashflip/internal/model"
	"cashflip/internal/repository"
	"context"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	tiersTable  = "stake_tiers"
	colID       = "id"
	colCurrency = "currency"
	colLevel    = "level"
	colMinStake = "min_stake"
	colMaxStake = "max_stake"

	denominationsTable = "denominations"
	colValue           = "value"
	colIsZero          = "is_zero"
	colIsActive        = "is_active"
	colWeight          = "weight"
	colLabel           = "label"
	colImageURL        = "image_url"

	tierDenominationsTable = "stake_tier_denominations"
	colTierID              = "tier_id"
	colDenominationID      = "denomination_id"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewCatalogRepository(dbc *pgxpool.Pool) repository.CatalogRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// ForStake - ярус ставки и его номиналы.
// Нулевой номинал валюты добавляется всегда, даже если он не привязан к ярусу
func (r *repo) ForStake(ctx context.Context, currency string, stake decimal.Decimal) (*model.Catalog, error) {
	conn := r.getter.DefaultTrOrDB(ctx, r.dbc)

	// Формируем запрос на ярус: max_stake = 0 означает без верхней границы
	tierQuery := sq.Select(colID, colCurrency, colLevel, colMinStake, colMaxStake).
		From(tiersTable).
		Where(sq.Eq{colCurrency: currency}).
		Where(sq.LtOrEq{colMinStake: stake}).
		Where(sq.Or{sq.GtOrEq{colMaxStake: stake}, sq.Eq{colMaxStake: 0}}).
		OrderBy(colLevel + " DESC").
		Limit(1).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := tierQuery.ToSql()
	if err != nil {
		return nil, err
	}

	var tier model.StakeTier
	err = conn.QueryRow(ctx, sqlStr, args...).Scan(&tier.ID, &tier.Currency, &tier.Level, &tier.MinStake, &tier.MaxStake)
	if err != nil {
		return nil, repository.MapError(err)
	}

	denomQuery := sq.Select("d."+colID, "d."+colCurrency, "d."+colValue, "d."+colIsZero, "d."+colIsActive,
		"d."+colWeight, "d."+colLabel, "d."+colImageURL).
		From(denominationsTable+" d").
		Where(sq.Eq{"d." + colCurrency: currency}).
		Where(sq.Or{
			sq.Eq{"d." + colIsZero: true},
			sq.Expr("d."+colID+" IN (SELECT "+colDenominationID+" FROM "+tierDenominationsTable+" WHERE "+colTierID+" = ?)", tier.ID),
		}).
		OrderBy("d." + colValue).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err = denomQuery.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}

	denoms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Denomination, error) {
		var d model.Denomination
		err := row.Scan(&d.ID, &d.Currency, &d.Value, &d.IsZero, &d.IsActive, &d.Weight, &d.Label, &d.ImageURL)
		return d, err
	})
	if err != nil {
		return nil, err
	}

	return &model.Catalog{Tier: tier, Denominations: denoms}, nil
}
