package converter

import (
	"cashflip/internal/api/dto/flip"
	"cashflip/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

// money - суммы отдаём строкой с двумя знаками
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func ToStartSession(req flip.StartRequest) model.StartSession {
	return model.StartSession{
		Stake:      req.Stake,
		Currency:   req.Currency,
		ClientSeed: req.ClientSeed,
	}
}

func ToStartResponse(res model.StartedSession) flip.StartResponse {
	return flip.StartResponse{
		SessionID:      res.SessionID,
		CommitmentHash: res.CommitmentHash,
		Stake:          money(res.Stake),
	}
}

func ToFlipResponse(res model.FlipOutcome) flip.FlipResponse {
	return flip.FlipResponse{
		FlipNumber:      res.FlipNumber,
		Value:           money(res.Value),
		IsZero:          res.IsZero,
		CashoutBalance:  money(res.CashoutBalance),
		RemainingBudget: money(res.RemainingBudget),
		FairnessHash:    res.FairnessHash,
	}
}

func ToCashoutResponse(res model.CashoutResult) flip.CashoutResponse {
	return flip.CashoutResponse{
		Amount:           money(res.Amount),
		NewWalletBalance: money(res.NewWalletBalance),
	}
}

func ToPauseResponse(res model.PauseResult) flip.PauseResponse {
	return flip.PauseResponse{
		Fee:              money(res.Fee),
		RemainingBalance: money(res.RemainingBalance),
	}
}

func ToVerifyResponse(res model.VerifyResult) flip.VerifyResponse {
	flips := make([]flip.VerifiedFlip, len(res.Flips))
	for i, f := range res.Flips {
		flips[i] = flip.VerifiedFlip{
			Number:       f.FlipNumber,
			Value:        money(f.Value),
			IsZero:       f.IsZero,
			FairnessHash: f.FairnessHash,
			Verified:     f.Verified,
		}
	}
	return flip.VerifyResponse{
		Secret:         res.Secret,
		CommitmentHash: res.CommitmentHash,
		ClientSeed:     res.ClientSeed,
		Flips:          flips,
	}
}

func ToSessionResponse(s model.FlipSession) flip.SessionResponse {
	return flip.SessionResponse{
		SessionID:       s.ID,
		Currency:        s.Currency,
		Stake:           money(s.Stake),
		CashoutBalance:  money(s.CashoutBalance),
		RemainingBudget: money(s.RemainingBudget),
		FlipCount:       s.FlipCount,
		CommitmentHash:  s.CommitmentHash,
		ClientSeed:      s.ClientSeed,
		HolidayBoost:    s.HolidayBoost,
		Status:          string(s.Status),
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339),
	}
}
