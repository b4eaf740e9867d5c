package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func int64Ptr(v int64) *int64 { return &v }

func TestComputeTrialID_Formula(t *testing.T) {
	sum := sha256.Sum256([]byte("run-1|ELASTIC_150|7|"))
	want := hex.EncodeToString(sum[:])

	if got := ComputeTrialID("run-1", "ELASTIC_150", 7, nil); got != want {
		t.Errorf("ComputeTrialID() = %s, want %s", got, want)
	}

	sum = sha256.Sum256([]byte("run-1|ELASTIC_150|0|1042"))
	want = hex.EncodeToString(sum[:])
	if got := ComputeTrialID("run-1", "ELASTIC_150", 0, int64Ptr(1042)); got != want {
		t.Errorf("ComputeTrialID() with flight = %s, want %s", got, want)
	}
}

func TestComputeTrialID_Distinct(t *testing.T) {
	base := ComputeTrialID("run-1", "ELASTIC_150", 0, nil)

	tests := []struct {
		name string
		id   string
	}{
		{"different run", ComputeTrialID("run-2", "ELASTIC_150", 0, nil)},
		{"different policy", ComputeTrialID("run-1", "BUSINESS_CLASS_900_800_1200", 0, nil)},
		{"different index", ComputeTrialID("run-1", "ELASTIC_150", 1, nil)},
		{"with flight", ComputeTrialID("run-1", "ELASTIC_150", 0, int64Ptr(0))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.id) != 64 {
				t.Errorf("length = %d, want 64", len(tt.id))
			}
			if tt.id == base {
				t.Errorf("expected distinct id, got collision %s", tt.id)
			}
		})
	}
}
