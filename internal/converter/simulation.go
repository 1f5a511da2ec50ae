package converter

import (
	"cashflip/internal/api/dto/simulation"
	"cashflip/internal/model"
)

func ToSimulationOverride(req simulation.ReplaceRequest) model.SimulationOverride {
	return model.SimulationOverride{
		Mode:                 model.SimulationMode(req.Mode),
		FlipN:                req.FlipN,
		Probability:          req.Probability,
		ForcedDenominationID: req.ForcedDenominationID,
		ApplyToAll:           req.ApplyToAll,
		PlayerIDs:            req.PlayerIDs,
		MinStake:             req.MinStake,
		MaxStake:             req.MaxStake,
		MaxUses:              req.MaxUses,
		Enabled:              req.Enabled,
	}
}

func ToOverrideResponse(o model.SimulationOverride) simulation.OverrideResponse {
	return simulation.OverrideResponse{
		Override: simulation.Override{
			Mode:                 string(o.Mode),
			FlipN:                o.FlipN,
			Probability:          o.Probability,
			ForcedDenominationID: o.ForcedDenominationID,
			ApplyToAll:           o.ApplyToAll,
			PlayerIDs:            o.PlayerIDs,
			MinStake:             o.MinStake,
			MaxStake:             o.MaxStake,
			MaxUses:              o.MaxUses,
			Enabled:              o.Enabled,
		},
		UsageCount: o.UsageCount,
		Version:    o.Version,
	}
}
