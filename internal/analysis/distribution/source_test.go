package distribution

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"goqv/domain/core"
	"goqv/domain/qv"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// TestAmplitudes_BellState squares magnitudes per basis state
func TestAmplitudes_BellState(t *testing.T) {
	invSqrt2 := complex(1/math.Sqrt2, 0)
	amps := Amplitudes{invSqrt2, 0, 0, invSqrt2}

	dist, err := amps.Distribution(2)
	if err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}

	want := qv.Distribution{"00": 0.5, "01": 0, "10": 0, "11": 0.5}
	if diff := cmp.Diff(want, dist, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Distribution mismatch (-want +got):\n%s", diff)
	}
}

// TestAmplitudes_GlobalPhaseInvariance verifies that multiplying the whole
// statevector by e^{i theta} leaves the distribution unchanged.
func TestAmplitudes_GlobalPhaseInvariance(t *testing.T) {
	base := Amplitudes{complex(0.6, 0), complex(0, 0.8)}

	phase := cmplx.Exp(complex(0, 1.234))
	rotated := make(Amplitudes, len(base))
	for i, a := range base {
		rotated[i] = a * phase
	}

	distA, err := base.Distribution(1)
	if err != nil {
		t.Fatalf("base Distribution failed: %v", err)
	}
	distB, err := rotated.Distribution(1)
	if err != nil {
		t.Fatalf("rotated Distribution failed: %v", err)
	}

	if diff := cmp.Diff(distA, distB, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Global phase changed the distribution (-base +rotated):\n%s", diff)
	}
}

// TestAmplitudes_DimensionMismatch rejects vectors of the wrong length
func TestAmplitudes_DimensionMismatch(t *testing.T) {
	amps := Amplitudes{1, 0, 0}
	if _, err := amps.Distribution(2); !errors.Is(err, core.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

// TestProbabilities_Densifies fills implied zeros for absent bitstrings
func TestProbabilities_Densifies(t *testing.T) {
	probs := Probabilities{"00": 0.5, "11": 0.5}

	dist, err := probs.Distribution(2)
	if err != nil {
		t.Fatalf("Distribution failed: %v", err)
	}
	if len(dist) != 4 {
		t.Fatalf("Expected dense distribution over 4 outcomes, got %d", len(dist))
	}
	if dist["01"] != 0 || dist["10"] != 0 {
		t.Errorf("Expected implied zeros for 01 and 10, got %f and %f", dist["01"], dist["10"])
	}
}

// TestProbabilities_RejectsBadKeys covers length and character validation
func TestProbabilities_RejectsBadKeys(t *testing.T) {
	cases := []struct {
		name  string
		probs Probabilities
	}{
		{"wrong length", Probabilities{"000": 1.0}},
		{"non-binary", Probabilities{"0x": 1.0}},
	}

	for _, tc := range cases {
		if _, err := tc.probs.Distribution(2); !errors.Is(err, core.ErrInvalidDistribution) {
			t.Errorf("%s: expected ErrInvalidDistribution, got %v", tc.name, err)
		}
	}
}
