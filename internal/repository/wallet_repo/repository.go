package wallet_repo

import (
	"cashflip/internal/model"
	"cashflip/internal/repository"
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	walletsTable     = "wallets"
	colPlayerID      = "player_id"
	colCurrency      = "currency"
	colBalance       = "balance"
	colLockedBalance = "locked_balance"
	colUpdatedAt     = "updated_at"

	transactionsTable = "wallet_transactions"
	colReference      = "reference"
	colSessionID      = "session_id"
	colKind           = "kind"
	colAmount         = "amount"
	colBalanceBefore  = "balance_before"
	colBalanceAfter   = "balance_after"
	colLockedBefore   = "locked_before"
	colLockedAfter    = "locked_after"
	colCreatedAt      = "created_at"
)

type repo struct {
	dbc         *pgxpool.Pool
	getter      *trmpgx.CtxGetter
	lockTimeout time.Duration
}

func NewWalletRepository(dbc *pgxpool.Pool, lockTimeout time.Duration) repository.WalletRepository {
	return &repo{
		dbc:         dbc,
		getter:      trmpgx.DefaultCtxGetter,
		lockTimeout: lockTimeout,
	}
}

func (r *repo) conn(ctx context.Context) trmpgx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.dbc)
}

// GetForUpdate - блокирует строку кошелька до конца транзакции
func (r *repo) GetForUpdate(ctx context.Context, playerID int, currency string) (*model.Wallet, error) {
	if r.lockTimeout > 0 {
		_, err := r.conn(ctx).Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds()))
		if err != nil {
			return nil, err
		}
	}

	query := sq.Select(colPlayerID, colCurrency, colBalance, colLockedBalance).
		From(walletsTable).
		Where(sq.Eq{colPlayerID: playerID, colCurrency: currency}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var w model.Wallet
	err = r.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(&w.PlayerID, &w.Currency, &w.Balance, &w.LockedBalance)
	if err != nil {
		return nil, repository.MapError(err)
	}

	return &w, nil
}

// Update - записывает балансы кошелька
func (r *repo) Update(ctx context.Context, w *model.Wallet) error {
	query := sq.Update(walletsTable).
		Set(colBalance, w.Balance).
		Set(colLockedBalance, w.LockedBalance).
		Set(colUpdatedAt, time.Now().UTC()).
		Where(sq.Eq{colPlayerID: w.PlayerID, colCurrency: w.Currency}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	res, err := r.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return repository.MapError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// RecordTransaction - пишет строку журнала.
// При конфликте по (session_id, kind) ничего не делает и возвращает false
func (r *repo) RecordTransaction(ctx context.Context, tx *model.WalletTransaction) (bool, error) {
	query := sq.Insert(transactionsTable).
		Columns(colReference, colPlayerID, colSessionID, colKind, colAmount,
			colBalanceBefore, colBalanceAfter, colLockedBefore, colLockedAfter, colCreatedAt).
		Values(tx.Reference, tx.PlayerID, tx.SessionID, string(tx.Kind), tx.Amount,
			tx.BalanceBefore, tx.BalanceAfter, tx.LockedBefore, tx.LockedAfter, tx.CreatedAt).
		Suffix("ON CONFLICT (" + colSessionID + ", " + colKind + ") DO NOTHING").
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return false, err
	}

	res, err := r.conn(ctx).Exec(ctx, sqlStr, args...)
	if err != nil {
		return false, repository.MapError(err)
	}

	return res.RowsAffected() == 1, nil
}

// FindTransaction - запись журнала сессии заданного типа
func (r *repo) FindTransaction(ctx context.Context, sessionID string, kind model.TransactionKind) (*model.WalletTransaction, error) {
	query := sq.Select(colReference, colPlayerID, colSessionID, colKind, colAmount,
		colBalanceBefore, colBalanceAfter, colLockedBefore, colLockedAfter, colCreatedAt).
		From(transactionsTable).
		Where(sq.Eq{colSessionID: sessionID, colKind: string(kind)}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		tx      model.WalletTransaction
		kindStr string
	)
	err = r.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(&tx.Reference, &tx.PlayerID, &tx.SessionID, &kindStr, &tx.Amount,
		&tx.BalanceBefore, &tx.BalanceAfter, &tx.LockedBefore, &tx.LockedAfter, &tx.CreatedAt)
	if err != nil {
		return nil, repository.MapError(err)
	}
	tx.Kind = model.TransactionKind(kindStr)

	return &tx, nil
}
