package simulation

import "github.com/shopspring/decimal"

type Override struct {
	Mode                 string           `json:"mode"`
	FlipN                int              `json:"flip_n,omitempty"`
	Probability          float64          `json:"probability,omitempty"`
	ForcedDenominationID *int64           `json:"forced_denomination_id,omitempty"`
	ApplyToAll           bool             `json:"apply_to_all"`
	PlayerIDs            []int            `json:"player_ids,omitempty"`
	MinStake             *decimal.Decimal `json:"min_stake,omitempty"`
	MaxStake             *decimal.Decimal `json:"max_stake,omitempty"`
	MaxUses              int              `json:"max_uses"` // 0 - без автоотключения
	Enabled              bool             `json:"enabled"`
}

type ReplaceRequest struct {
	Override
	ExpectedVersion int64 `json:"expected_version"`
}

type OverrideResponse struct {
	Override
	UsageCount int   `json:"usage_count"`
	Version    int64 `json:"version"`
}
