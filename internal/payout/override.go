package payout

import (
	"cashflip/internal/model"

	"github.com/shopspring/decimal"
)

type DecisionKind int

const (
	// DecisionNone - обычная логика выбора
	DecisionNone DecisionKind = iota
	// DecisionZero - принудительный проигрыш
	DecisionZero
	// DecisionWin - принудительный выигрыш
	DecisionWin
)

type Decision struct {
	Kind                 DecisionKind
	ForcedDenominationID *int64
}

// Applied - оверрайд повлиял на флип
func (d Decision) Applied() bool {
	return d.Kind != DecisionNone
}

// ResolveOverride решает исход флипа по тестовому профилю.
// Детерминирован при одинаковом draw.
func ResolveOverride(o *model.SimulationOverride, playerID, flipNumber int, draw float64) Decision {
	if !o.AppliesTo(playerID) {
		return Decision{}
	}

	win := Decision{Kind: DecisionWin, ForcedDenominationID: o.ForcedDenominationID}
	zero := Decision{Kind: DecisionZero}

	switch o.Mode {
	case model.SimAlwaysWin:
		return win
	case model.SimAlwaysLose:
		return zero
	case model.SimForceZeroAtFlip:
		if flipNumber == o.FlipN {
			return zero
		}
		if o.ForcedDenominationID != nil {
			return win
		}
		return Decision{}
	case model.SimFixedProbability:
		if draw < o.Probability {
			return zero
		}
		return win
	case model.SimWinStreakThenLose:
		if flipNumber <= o.FlipN {
			return win
		}
		return zero
	}
	return Decision{}
}

// SelectWin подбирает номинал для принудительного выигрыша.
// Порядок: заданный номинал (если влезает), обычный выбор, самый дешёвый ненулевой.
func SelectWin(catalog model.Catalog, forcedID *int64, target float64, remaining decimal.Decimal, draw float64) (model.Denomination, bool) {
	if forcedID != nil {
		if d, ok := catalog.ByID(*forcedID); ok && d.IsActive && !d.IsZero && d.Value.LessThanOrEqual(remaining) {
			return d, true
		}
	}

	payable := catalog.Payable()
	if d, ok := Select(payable, target, remaining, draw); ok {
		return d, true
	}

	if len(payable) == 0 {
		return model.Denomination{}, false
	}
	cheapest := payable[0]
	for _, d := range payable[1:] {
		if d.Value.LessThan(cheapest.Value) {
			cheapest = d
		}
	}
	return cheapest, true
}
