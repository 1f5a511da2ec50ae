package payout

import (
	"testing"

	"cashflip/internal/model"

	"github.com/shopspring/decimal"
)

func TestResolveOverride(t *testing.T) {
	forced := int64(3)
	cases := []struct {
		name string
		o    *model.SimulationOverride
		flip int
		draw float64
		want DecisionKind
	}{
		{"nil override", nil, 1, 0, DecisionNone},
		{"disabled", &model.SimulationOverride{Mode: model.SimAlwaysLose, ApplyToAll: true}, 1, 0, DecisionNone},
		{"normal mode", &model.SimulationOverride{Mode: model.SimNormal, ApplyToAll: true, Enabled: true}, 1, 0, DecisionNone},
		{"not targeted", &model.SimulationOverride{Mode: model.SimAlwaysLose, PlayerIDs: []int{9}, Enabled: true}, 1, 0, DecisionNone},
		{"targeted", &model.SimulationOverride{Mode: model.SimAlwaysLose, PlayerIDs: []int{7}, Enabled: true}, 1, 0, DecisionZero},
		{"always win", &model.SimulationOverride{Mode: model.SimAlwaysWin, ApplyToAll: true, Enabled: true}, 4, 0, DecisionWin},
		{"force zero at N hit", &model.SimulationOverride{Mode: model.SimForceZeroAtFlip, FlipN: 3, ApplyToAll: true, Enabled: true}, 3, 0.9, DecisionZero},
		{"force zero at N miss", &model.SimulationOverride{Mode: model.SimForceZeroAtFlip, FlipN: 3, ApplyToAll: true, Enabled: true}, 2, 0.9, DecisionNone},
		{"force zero at N miss forced", &model.SimulationOverride{Mode: model.SimForceZeroAtFlip, FlipN: 3, ForcedDenominationID: &forced, ApplyToAll: true, Enabled: true}, 2, 0.9, DecisionWin},
		{"fixed probability zero", &model.SimulationOverride{Mode: model.SimFixedProbability, Probability: 0.3, ApplyToAll: true, Enabled: true}, 1, 0.29, DecisionZero},
		{"fixed probability win", &model.SimulationOverride{Mode: model.SimFixedProbability, Probability: 0.3, ApplyToAll: true, Enabled: true}, 1, 0.3, DecisionWin},
		{"streak within", &model.SimulationOverride{Mode: model.SimWinStreakThenLose, FlipN: 2, ApplyToAll: true, Enabled: true}, 2, 0, DecisionWin},
		{"streak after", &model.SimulationOverride{Mode: model.SimWinStreakThenLose, FlipN: 2, ApplyToAll: true, Enabled: true}, 3, 0, DecisionZero},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveOverride(tc.o, 7, tc.flip, tc.draw)
			if got.Kind != tc.want {
				t.Fatalf("kind=%v want=%v", got.Kind, tc.want)
			}
			again := ResolveOverride(tc.o, 7, tc.flip, tc.draw)
			if again != got {
				t.Fatalf("override must be deterministic: %+v vs %+v", got, again)
			}
		})
	}
}

func TestSelectWin(t *testing.T) {
	d := decimal.RequireFromString
	forced := int64(3)
	catalog := model.Catalog{Denominations: []model.Denomination{
		{ID: 1, Value: d("0"), IsZero: true, IsActive: true},
		{ID: 2, Value: d("1"), IsActive: true},
		{ID: 3, Value: d("5"), IsActive: true},
		{ID: 4, Value: d("20"), IsActive: true},
	}}

	got, ok := SelectWin(catalog, &forced, 1, d("10"), 0.5)
	if !ok || got.ID != 3 {
		t.Fatalf("forced denomination expected, got=%d ok=%v", got.ID, ok)
	}

	// заданный номинал не влезает - обычный выбор
	got, ok = SelectWin(catalog, &forced, 1, d("4"), 0.5)
	if !ok || got.ID != 2 {
		t.Fatalf("selector pick expected, got=%d ok=%v", got.ID, ok)
	}

	// бюджет исчерпан - самый дешёвый ненулевой
	got, ok = SelectWin(catalog, nil, 1, d("0"), 0.5)
	if !ok || got.ID != 2 {
		t.Fatalf("cheapest payable expected, got=%d ok=%v", got.ID, ok)
	}

	if _, ok := SelectWin(model.Catalog{}, nil, 1, d("10"), 0.5); ok {
		t.Fatal("empty catalog cannot produce a win")
	}
}
