package model

import "github.com/shopspring/decimal"

// Denomination - номинал выплаты из каталога валюты
type Denomination struct {
	ID       int64
	Currency string
	Value    decimal.Decimal
	IsZero   bool
	IsActive bool
	Weight   int

	// Отображение, движком не используется
	Label    string
	ImageURL string
}

// StakeTier - диапазон ставок и доступные ему номиналы
type StakeTier struct {
	ID       int64
	Currency string
	Level    int
	MinStake decimal.Decimal
	MaxStake decimal.Decimal
}

// Catalog - номиналы, доступные конкретной ставке
type Catalog struct {
	Tier          StakeTier
	Denominations []Denomination
}

// Zero возвращает нулевой номинал, если он настроен
func (c Catalog) Zero() (Denomination, bool) {
	for _, d := range c.Denominations {
		if d.IsZero && d.IsActive {
			return d, true
		}
	}
	return Denomination{}, false
}

// Payable - активные ненулевые номиналы
func (c Catalog) Payable() []Denomination {
	res := make([]Denomination, 0, len(c.Denominations))
	for _, d := range c.Denominations {
		if d.IsActive && !d.IsZero {
			res = append(res, d)
		}
	}
	return res
}

// ByID ищет номинал по ID
func (c Catalog) ByID(id int64) (Denomination, bool) {
	for _, d := range c.Denominations {
		if d.ID == id {
			return d, true
		}
	}
	return Denomination{}, false
}
