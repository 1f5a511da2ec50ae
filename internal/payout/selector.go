package payout

import (
	"math"
	"sort"

	"cashflip/internal/model"

	"github.com/shopspring/decimal"
)

const (
	// candidateCount сколько ближайших к цели номиналов участвуют в розыгрыше
	candidateCount = 3
	// epsilon защищает от деления на ноль при точном попадании в цель
	epsilon = 1e-9
)

type ranked struct {
	denom    model.Denomination
	distance float64
}

// Select выбирает номинал для флипа. false - выпадает ноль.
// Функция чистая: результат зависит только от аргументов.
func Select(candidates []model.Denomination, target float64, remaining decimal.Decimal, draw float64) (model.Denomination, bool) {
	// 1. Оставляем только то, что влезает в остаток бюджета
	affordable := make([]ranked, 0, len(candidates))
	for _, d := range candidates {
		if d.IsZero || !d.IsActive {
			continue
		}
		if d.Value.LessThanOrEqual(remaining) {
			affordable = append(affordable, ranked{
				denom:    d,
				distance: math.Abs(d.Value.InexactFloat64() - target),
			})
		}
	}

	// 2. Ничего не влезает - ноль
	if len(affordable) == 0 {
		return model.Denomination{}, false
	}

	// 3. Сортируем по близости к цели, при равенстве - меньший номинал раньше
	sort.SliceStable(affordable, func(i, j int) bool {
		if affordable[i].distance != affordable[j].distance {
			return affordable[i].distance < affordable[j].distance
		}
		return affordable[i].denom.Value.LessThan(affordable[j].denom.Value)
	})

	// 4. До трёх ближайших
	n := candidateCount
	if len(affordable) < n {
		n = len(affordable)
	}
	top := affordable[:n]

	// 5. Взвешенный выбор
	chosen := pick(top, draw)

	// 6. Повторная проверка
	if chosen.Value.GreaterThan(remaining) {
		for _, r := range affordable {
			if r.denom.Value.LessThanOrEqual(remaining) {
				return r.denom, true
			}
		}
		return model.Denomination{}, false
	}

	return chosen, true
}

// pick проходит по кумулятивному распределению весов 1/(d+eps).
// При переполнении из-за погрешности float берётся последний кандидат.
func pick(top []ranked, draw float64) model.Denomination {
	if len(top) == 1 {
		return top[0].denom
	}

	weights := make([]float64, len(top))
	var total float64
	for i, r := range top {
		weights[i] = 1 / (r.distance + epsilon)
		total += weights[i]
	}

	var cumulative float64
	for i, r := range top {
		cumulative += weights[i] / total
		if draw < cumulative {
			return r.denom
		}
	}
	return top[len(top)-1].denom
}

// Award - результат начисления номинала
type Award struct {
	Awarded         decimal.Decimal
	RemainingBudget decimal.Decimal
	CashoutBalance  decimal.Decimal
	// Anomaly - начислено меньше номинала (по инвариантам невозможно)
	Anomaly bool
	// Capped - баланс упёрся в максимальный кэшаут
	Capped bool
}

// Apply начисляет номинал: награда не больше остатка, баланс не больше maxCashout (0 - без лимита)
func Apply(value, remaining, cashout, maxCashout decimal.Decimal) Award {
	awarded := decimal.Min(value, remaining)
	if awarded.IsNegative() {
		awarded = decimal.Zero
	}

	newRemaining := remaining.Sub(awarded)
	if newRemaining.IsNegative() {
		newRemaining = decimal.Zero
	}

	res := Award{
		Awarded:         awarded,
		RemainingBudget: newRemaining,
		CashoutBalance:  cashout.Add(awarded),
		Anomaly:         !awarded.Equal(value),
	}

	if maxCashout.IsPositive() && res.CashoutBalance.GreaterThan(maxCashout) {
		res.CashoutBalance = maxCashout
		res.Capped = true
	}
	return res
}
