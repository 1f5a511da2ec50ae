package simulation_repo

import (
	"cashflip/internal/model"
	"cashflip/internal/repository"
	"context"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	table                   = "simulation_override"
	colID                   = "id"
	colMode                 = "mode"
	colFlipN                = "flip_n"
	colProbability          = "probability"
	colForcedDenominationID = "forced_denomination_id"
	colApplyToAll           = "apply_to_all"
	colPlayerIDs            = "player_ids"
	colMinStake             = "min_stake"
	colMaxStake             = "max_stake"
	colUsageCount           = "usage_count"
	colMaxUses              = "max_uses"
	colEnabled              = "enabled"
	colVersion              = "version"

	// slotID - слот всегда один
	slotID = 1
)

var columns = []string{
	colMode, colFlipN, colProbability, colForcedDenominationID, colApplyToAll, colPlayerIDs,
	colMinStake, colMaxStake, colUsageCount, colMaxUses, colEnabled, colVersion,
}

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewSimulationRepository(dbc *pgxpool.Pool) repository.SimulationRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

func (r *repo) conn(ctx context.Context) trmpgx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.dbc)
}

// Get - текущее состояние слота
func (r *repo) Get(ctx context.Context) (*model.SimulationOverride, error) {
	query := sq.Select(columns...).
		From(table).
		Where(sq.Eq{colID: slotID}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		o         model.SimulationOverride
		mode      string
		playerIDs []int64
		minStake  decimal.NullDecimal
		maxStake  decimal.NullDecimal
	)
	err = r.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(
		&mode, &o.FlipN, &o.Probability, &o.ForcedDenominationID, &o.ApplyToAll, &playerIDs,
		&minStake, &maxStake, &o.UsageCount, &o.MaxUses, &o.Enabled, &o.Version,
	)
	if err != nil {
		return nil, repository.MapError(err)
	}

	o.Mode = model.SimulationMode(mode)
	o.PlayerIDs = make([]int, 0, len(playerIDs))
	for _, id := range playerIDs {
		o.PlayerIDs = append(o.PlayerIDs, int(id))
	}
	if minStake.Valid {
		o.MinStake = &minStake.Decimal
	}
	if maxStake.Valid {
		o.MaxStake = &maxStake.Decimal
	}

	return &o, nil
}

// Replace - заменяет слот целиком, если версия совпала.
// Счётчик применений сбрасывается, версия увеличивается
func (r *repo) Replace(ctx context.Context, o model.SimulationOverride, expectedVersion int64) (*model.SimulationOverride, error) {
	playerIDs := make([]int64, 0, len(o.PlayerIDs))
	for _, id := range o.PlayerIDs {
		playerIDs = append(playerIDs, int64(id))
	}

	query := sq.Update(table).
		Set(colMode, string(o.Mode)).
		Set(colFlipN, o.FlipN).
		Set(colProbability, o.Probability).
		Set(colForcedDenominationID, o.ForcedDenominationID).
		Set(colApplyToAll, o.ApplyToAll).
		Set(colPlayerIDs, playerIDs).
		Set(colMinStake, nullable(o.MinStake)).
		Set(colMaxStake, nullable(o.MaxStake)).
		Set(colUsageCount, 0).
		Set(colMaxUses, o.MaxUses).
		Set(colEnabled, o.Enabled).
		Set(colVersion, sq.Expr(colVersion+" + 1")).
		Where(sq.Eq{colID: slotID, colVersion: expectedVersion}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	res, err := r.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return nil, repository.MapError(err)
	}
	if res.RowsAffected() == 0 {
		return nil, repository.ErrVersionConflict
	}

	return r.Get(ctx)
}

// IncrementUsage - учитывает применение; при достижении max_uses слот выключается
func (r *repo) IncrementUsage(ctx context.Context) error {
	query := sq.Update(table).
		Set(colUsageCount, sq.Expr(colUsageCount+" + 1")).
		Set(colEnabled, sq.Expr("CASE WHEN "+colMaxUses+" > 0 AND "+colUsageCount+" + 1 >= "+colMaxUses+" THEN FALSE ELSE "+colEnabled+" END")).
		Where(sq.Eq{colID: slotID}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, sqlStr, args...)
	return repository.MapError(err)
}

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
