package player_stats_repo

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
	table            = "player_stats"
	colPlayerID      = "player_id"
	colCurrency      = "currency"
	colSessions      = "sessions"
	colWins          = "wins"
	colTotalStaked   = "total_staked"
	colTotalPaid     = "total_paid"
	colLastSessionAt = "last_session_at"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewPlayerStatsRepository(dbc *pgxpool.Pool) repository.PlayerStatsRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// RecordSession - добавляет завершённую сессию в агрегаты игрока
func (r *repo) RecordSession(ctx context.Context, s *model.FlipSession) error {
	// Накопленное в проигранной сессии сгорает
	win, paid := 0, decimal.Zero
	if s.Status == model.SessionCashedOut || s.Status == model.SessionExpired {
		win, paid = 1, s.CashoutBalance
	}

	query := sq.Insert(table).
		Columns(colPlayerID, colCurrency, colSessions, colWins, colTotalStaked, colTotalPaid, colLastSessionAt).
		Values(s.PlayerID, s.Currency, 1, win, s.Stake, paid, s.LastActionAt).
		Suffix("ON CONFLICT (" + colPlayerID + ", " + colCurrency + ") DO UPDATE SET " +
			colSessions + " = " + table + "." + colSessions + " + 1, " +
			colWins + " = " + table + "." + colWins + " + EXCLUDED." + colWins + ", " +
			colTotalStaked + " = " + table + "." + colTotalStaked + " + EXCLUDED." + colTotalStaked + ", " +
			colTotalPaid + " = " + table + "." + colTotalPaid + " + EXCLUDED." + colTotalPaid + ", " +
			colLastSessionAt + " = EXCLUDED." + colLastSessionAt).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	return repository.MapError(err)
}
