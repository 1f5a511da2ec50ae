package session_repo

import (
	"cashflip/internal/model"
	"cashflip/internal/repository"
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	table              = "flip_sessions"
	colID              = "id"
	colPlayerID        = "player_id"
	colCurrency        = "currency"
	colStake           = "stake"
	colCashoutBalance  = "cashout_balance"
	colPayoutBudget    = "payout_budget"
	colRemainingBudget = "remaining_budget"
	colFlipCount       = "flip_count"
	colNonce           = "nonce"
	colServerSecret    = "server_secret"
	colCommitmentHash  = "commitment_hash"
	colClientSeed      = "client_seed"
	colPayoutPercent   = "payout_percent"
	colHolidayBoost    = "holiday_boost"
	colTierLevel       = "tier_level"
	colStatus          = "status"
	colCreatedAt       = "created_at"
	colLastActionAt    = "last_action_at"
	colEndedAt         = "ended_at"
)

var columns = []string{
	colID, colPlayerID, colCurrency, colStake, colCashoutBalance, colPayoutBudget, colRemainingBudget,
	colFlipCount, colNonce, colServerSecret, colCommitmentHash, colClientSeed, colPayoutPercent,
	colHolidayBoost, colTierLevel, colStatus, colCreatedAt, colLastActionAt, colEndedAt,
}

type repo struct {
	dbc         *pgxpool.Pool
	getter      *trmpgx.CtxGetter
	lockTimeout time.Duration
}

func NewSessionRepository(dbc *pgxpool.Pool, lockTimeout time.Duration) repository.SessionRepository {
	return &repo{
		dbc:         dbc,
		getter:      trmpgx.DefaultCtxGetter,
		lockTimeout: lockTimeout,
	}
}

// conn возвращает текущую транзакцию из контекста или пул
func (r *repo) conn(ctx context.Context) trmpgx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.dbc)
}

// Create - сохраняет новую сессию
func (r *repo) Create(ctx context.Context, s *model.FlipSession) error {
	query := sq.Insert(table).
		Columns(columns...).
		Values(
			s.ID, s.PlayerID, s.Currency, s.Stake, s.CashoutBalance, s.PayoutBudget, s.RemainingBudget,
			s.FlipCount, s.Nonce, s.ServerSecret, s.CommitmentHash, s.ClientSeed, s.PayoutPercent,
			s.HolidayBoost, s.TierLevel, string(s.Status), s.CreatedAt, s.LastActionAt, s.EndedAt,
		).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.conn(ctx).Exec(ctx, sqlStr, args...)
	return repository.MapError(err)
}

// Get - сессия по ID без блокировки
func (r *repo) Get(ctx context.Context, id string) (*model.FlipSession, error) {
	query := sq.Select(columns...).
		From(table).
		Where(sq.Eq{colID: id}).
		PlaceholderFormat(sq.Dollar)

	return r.selectOne(ctx, query)
}

// GetForUpdate - сессия по ID с блокировкой строки.
// Ждём не дольше lockTimeout, дальше - repository.ErrLockTimeout
func (r *repo) GetForUpdate(ctx context.Context, id string) (*model.FlipSession, error) {
	if r.lockTimeout > 0 {
		_, err := r.conn(ctx).Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds()))
		if err != nil {
			return nil, err
		}
	}

	query := sq.Select(columns...).
		From(table).
		Where(sq.Eq{colID: id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar)

	return r.selectOne(ctx, query)
}

// GetOpenByPlayer - активная сессия игрока или сессия на паузе
func (r *repo) GetOpenByPlayer(ctx context.Context, playerID int) (*model.FlipSession, error) {
	query := sq.Select(columns...).
		From(table).
		Where(sq.Eq{
			colPlayerID: playerID,
			colStatus:   []string{string(model.SessionActive), string(model.SessionPaused)},
		}).
		OrderBy(colCreatedAt + " DESC").
		Limit(1).
		PlaceholderFormat(sq.Dollar)

	return r.selectOne(ctx, query)
}

// Update - сохраняет изменяемые поля сессии
func (r *repo) Update(ctx context.Context, s *model.FlipSession) error {
	query := sq.Update(table).
		Set(colCashoutBalance, s.CashoutBalance).
		Set(colRemainingBudget, s.RemainingBudget).
		Set(colFlipCount, s.FlipCount).
		Set(colNonce, s.Nonce).
		Set(colStatus, string(s.Status)).
		Set(colLastActionAt, s.LastActionAt).
		Set(colEndedAt, s.EndedAt).
		Where(sq.Eq{colID: s.ID}).
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

// ListIdle - активные сессии без действий с момента idleSince
func (r *repo) ListIdle(ctx context.Context, idleSince time.Time, limit int) ([]string, error) {
	query := sq.Select(colID).
		From(table).
		Where(sq.Eq{colStatus: string(model.SessionActive)}).
		Where(sq.Lt{colLastActionAt: idleSince}).
		OrderBy(colLastActionAt).
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar)

	return r.selectIDs(ctx, query)
}

// ListStale - активные сессии, созданные раньше createdBefore
func (r *repo) ListStale(ctx context.Context, createdBefore time.Time, limit int) ([]string, error) {
	query := sq.Select(colID).
		From(table).
		Where(sq.Eq{colStatus: string(model.SessionActive)}).
		Where(sq.Lt{colCreatedAt: createdBefore}).
		OrderBy(colCreatedAt).
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar)

	return r.selectIDs(ctx, query)
}

func (r *repo) selectOne(ctx context.Context, query sq.SelectBuilder) (*model.FlipSession, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var (
		s      model.FlipSession
		status string
	)
	err = r.conn(ctx).QueryRow(ctx, sqlStr, args...).Scan(
		&s.ID, &s.PlayerID, &s.Currency, &s.Stake, &s.CashoutBalance, &s.PayoutBudget, &s.RemainingBudget,
		&s.FlipCount, &s.Nonce, &s.ServerSecret, &s.CommitmentHash, &s.ClientSeed, &s.PayoutPercent,
		&s.HolidayBoost, &s.TierLevel, &status, &s.CreatedAt, &s.LastActionAt, &s.EndedAt,
	)
	if err != nil {
		return nil, repository.MapError(err)
	}
	s.Status = model.SessionStatus(status)

	return &s, nil
}

func (r *repo) selectIDs(ctx context.Context, query sq.SelectBuilder) ([]string, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, pgx.RowTo[string])
}
