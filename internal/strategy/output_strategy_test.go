package strategy

import (
	"testing"

	"go-c2rcc/internal/algorithm"
	apperrors "go-c2rcc/internal/errors"
)

func TestForName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"standard", "standard"},
		{"MINIMAL", "minimal"},
		{" full ", "full"},
	}

	for _, tt := range tests {
		s, err := ForName(tt.input)
		if err != nil {
			t.Fatalf("ForName(%q) returned error: %v", tt.input, err)
		}
		if s.GetStrategyName() != tt.expected {
			t.Errorf("Expected strategy %q for %q, got %q", tt.expected, tt.input, s.GetStrategyName())
		}
	}
}

func TestForName_Unknown(t *testing.T) {
	_, err := ForName("everything")
	if err == nil {
		t.Fatal("Expected error for unknown preset")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestApply_KeepsPhysicalKnobs(t *testing.T) {
	cfg := algorithm.DefaultConfig().WithWater(30, 10).WithDerivedRw()

	minimal := NewMinimalOutputStrategy().Apply(cfg)
	if minimal.Salinity != 30 || minimal.Temperature != 10 {
		t.Errorf("Expected water properties to survive, got S=%g T=%g", minimal.Salinity, minimal.Temperature)
	}
	if !minimal.DeriveRwFromPathAndTransmittance {
		t.Error("Expected derived rw option to survive")
	}
	if minimal.OutputKd || minimal.OutputUncertainties || minimal.OutputOOS {
		t.Error("Expected minimal preset to disable kd, OOS and uncertainties")
	}

	full := NewFullOutputStrategy().Apply(minimal)
	if !full.OutputRwn || !full.OutputRrs || !full.OutputKd || !full.OutputTdown {
		t.Error("Expected full preset to enable every optional output")
	}

	standard := NewStandardOutputStrategy().Apply(full)
	if standard.OutputRwn || !standard.OutputKd {
		t.Errorf("Expected standard outputs, got rwn=%v kd=%v", standard.OutputRwn, standard.OutputKd)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	expected := []string{"full", "minimal", "standard"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %d names, got %v", len(expected), names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Expected %q at %d, got %q", expected[i], i, names[i])
		}
	}
}
