package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet - кошелёк игрока. Balance хранится за вычетом заблокированных средств
type Wallet struct {
	PlayerID      int
	Currency      string
	Balance       decimal.Decimal
	LockedBalance decimal.Decimal
}

// Available - сумма, доступная для новой ставки
func (w Wallet) Available() decimal.Decimal {
	return w.Balance
}

type TransactionKind string

const (
	TxStakeLock     TransactionKind = "stake_lock"
	TxCashoutCredit TransactionKind = "cashout_credit"
	TxStakeForfeit  TransactionKind = "stake_forfeit"
	TxExpiryCredit  TransactionKind = "expiry_credit"
)

// WalletTransaction - запись журнала, парная каждому изменению кошелька
type WalletTransaction struct {
	Reference     string
	PlayerID      int
	SessionID     string
	Kind          TransactionKind
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	LockedBefore  decimal.Decimal
	LockedAfter   decimal.Decimal
	CreatedAt     time.Time
}
