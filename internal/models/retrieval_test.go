package models

import "testing"

func TestCombineScores(t *testing.T) {
	tests := []struct {
		name                        string
		vector, keyword             float64
		vectorWeight, keywordWeight float64
		want                        float64
	}{
		{"all zero", 0, 0, 0.7, 0.3, 0},
		{"vector only", 1, 0, 0.7, 0.3, 0.7},
		{"keyword only", 0, 1, 0.7, 0.3, 0.3},
		{"both max", 1, 1, 0.7, 0.3, 1.0},
		{"keyword shifted", 0.5, 0.5, 0, 1.0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombineScores(tt.vector, tt.keyword, tt.vectorWeight, tt.keywordWeight)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("CombineScores() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCombineScores_Monotonic(t *testing.T) {
	base := CombineScores(0.5, 0.5, 0.7, 0.3)
	if CombineScores(0.6, 0.5, 0.7, 0.3) <= base {
		t.Error("raising the vector score must raise the blend")
	}
	if CombineScores(0.5, 0.6, 0.7, 0.3) <= base {
		t.Error("raising the keyword score must raise the blend")
	}
}

func TestLevelRange_Contains(t *testing.T) {
	r := LevelRange{Min: 2, Max: 4}
	for level, want := range map[int]bool{1: false, 2: true, 3: true, 4: true, 5: false} {
		if got := r.Contains(level); got != want {
			t.Errorf("Contains(%d) = %v, want %v", level, got, want)
		}
	}
}
