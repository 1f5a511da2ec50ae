package flip

import "github.com/shopspring/decimal"

type StartRequest struct {
	Stake      decimal.Decimal `json:"stake"`                 // Ставка, не мельче цента
	Currency   string          `json:"currency"`              // Код валюты
	ClientSeed string          `json:"client_seed,omitempty"` // Сид игрока, иначе генерируется
}

type StartResponse struct {
	SessionID      string `json:"session_id"`
	CommitmentHash string `json:"commitment_hash"` // SHA-256 серверного секрета
	Stake          string `json:"stake"`
}

type FlipResponse struct {
	FlipNumber      int    `json:"flip_number"`
	Value           string `json:"value"` // Номинал, он же начисление
	IsZero          bool   `json:"is_zero"`
	CashoutBalance  string `json:"cashout_balance"`
	RemainingBudget string `json:"remaining_budget"`
	FairnessHash    string `json:"fairness_hash"`
}

type CashoutResponse struct {
	Amount           string `json:"amount"`
	NewWalletBalance string `json:"new_wallet_balance"`
}

type PauseRequest struct {
	Confirm bool `json:"confirm"` // Игрок согласен с комиссией
}

type PauseResponse struct {
	Fee              string `json:"fee"`
	RemainingBalance string `json:"remaining_balance"`
}

type VerifiedFlip struct {
	Number       int    `json:"number"`
	Value        string `json:"value"`
	IsZero       bool   `json:"is_zero"`
	FairnessHash string `json:"fairness_hash"`
	Verified     bool   `json:"verified"`
}

type VerifyResponse struct {
	Secret         string         `json:"secret"`
	CommitmentHash string         `json:"commitment_hash"`
	ClientSeed     string         `json:"client_seed"`
	Flips          []VerifiedFlip `json:"flips"`
	Code           string         `json:"code,omitempty"` // Заполнен, если проверка не прошла
}

type SessionResponse struct {
	SessionID       string `json:"session_id"`
	Currency        string `json:"currency"`
	Stake           string `json:"stake"`
	CashoutBalance  string `json:"cashout_balance"`
	RemainingBudget string `json:"remaining_budget"`
	FlipCount       int    `json:"flip_count"`
	CommitmentHash  string `json:"commitment_hash"`
	ClientSeed      string `json:"client_seed"`
	HolidayBoost    bool   `json:"holiday_boost"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
}
