package flip_repo

import (
	"cashflip/internal/model"
	"cashflip/internal/repository"
	"context"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table              = "flip_results"
	colSessionID       = "session_id"
	colFlipNumber      = "flip_number"
	colNonce           = "nonce"
	colDenominationID  = "denomination_id"
	colValue           = "value"
	colAwarded         = "awarded"
	colIsZero          = "is_zero"
	colCashoutBalance  = "cashout_balance"
	colRemainingBudget = "remaining_budget"
	colFairnessHash    = "fairness_hash"
	colForced          = "forced"
	colCreatedAt       = "created_at"
)

type repo struct {
	dbc    *pgxpool.Pool
	getter *trmpgx.CtxGetter
}

func NewFlipRepository(dbc *pgxpool.Pool) repository.FlipRepository {
	return &repo{
		dbc:    dbc,
		getter: trmpgx.DefaultCtxGetter,
	}
}

// Append - добавляет результат флипа. Уникальность (session_id, flip_number) держит БД
func (r *repo) Append(ctx context.Context, f *model.FlipResult) error {
	query := sq.Insert(table).
		Columns(colSessionID, colFlipNumber, colNonce, colDenominationID, colValue, colAwarded, colIsZero,
			colCashoutBalance, colRemainingBudget, colFairnessHash, colForced, colCreatedAt).
		Values(f.SessionID, f.FlipNumber, f.Nonce, f.DenominationID, f.Value, f.Awarded, f.IsZero,
			f.CashoutBalance, f.RemainingBudget, f.FairnessHash, f.Forced, f.CreatedAt).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.getter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	return repository.MapError(err)
}

// ListBySession - все флипы сессии по порядку
func (r *repo) ListBySession(ctx context.Context, sessionID string) ([]model.FlipResult, error) {
	query := sq.Select(colSessionID, colFlipNumber, colNonce, colDenominationID, colValue, colAwarded, colIsZero,
		colCashoutBalance, colRemainingBudget, colFairnessHash, colForced, colCreatedAt).
		From(table).
		Where(sq.Eq{colSessionID: sessionID}).
		OrderBy(colFlipNumber).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.getter.DefaultTrOrDB(ctx, r.dbc).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.FlipResult, error) {
		var f model.FlipResult
		err := row.Scan(&f.SessionID, &f.FlipNumber, &f.Nonce, &f.DenominationID, &f.Value, &f.Awarded, &f.IsZero,
			&f.CashoutBalance, &f.RemainingBudget, &f.FairnessHash, &f.Forced, &f.CreatedAt)
		return f, err
	})
}
