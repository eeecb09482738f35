package models

import (
	"math"
	"testing"

	"go-c2rcc/internal/algorithm"
)

func TestNewPixelResult(t *testing.T) {
	var r algorithm.Result
	r.RToa = []float64{0.05, 0.04}
	r.Flags.Set(algorithm.FlagRtosaOOS, true)
	r.Flags.Set(algorithm.FlagValid, true)

	pr := NewPixelResult(r)
	if len(pr.FlagNames) != 2 || pr.FlagNames[0] != "Rtosa_OOS" || pr.FlagNames[1] != "Valid_PE" {
		t.Errorf("Unexpected flag names: %v", pr.FlagNames)
	}
	if pr.RToa[1] != 0.04 {
		t.Errorf("Expected r_toa to be kept, got %v", pr.RToa)
	}
}

func TestNewPixelResult_NoFlags(t *testing.T) {
	pr := NewPixelResult(algorithm.Result{})
	if pr.FlagNames == nil || len(pr.FlagNames) != 0 {
		t.Errorf("Expected empty, non-nil flag names, got %#v", pr.FlagNames)
	}
}

func TestNewPixelResult_NonFinite(t *testing.T) {
	var r algorithm.Result
	r.RToa = []float64{-0.01, 0.03}
	r.Rwa = []float64{math.NaN(), 0.01}
	r.IOPs.Apig = math.Inf(1)
	r.Unc.IOPRel[2] = math.NaN()
	r.CHL = 1.5
	r.Flags.Set(algorithm.FlagValid, true)

	pr := NewPixelResult(r)
	if pr.Rwa[0] != 0 || pr.IOPs.Apig != 0 || pr.Unc.IOPRel[2] != 0 {
		t.Errorf("Expected non-finite values to be zeroed: %v %v %v", pr.Rwa[0], pr.IOPs.Apig, pr.Unc.IOPRel[2])
	}
	if pr.CHL != 1.5 || pr.RToa[0] != -0.01 {
		t.Error("Expected finite values to be kept")
	}
	if pr.Flags.Has(algorithm.FlagValid) {
		t.Error("Expected Valid_PE to be cleared")
	}
	for _, name := range pr.FlagNames {
		if name == "Valid_PE" {
			t.Errorf("Expected Valid_PE to be missing from flag names, got %v", pr.FlagNames)
		}
	}
}

func TestPixelInput_IsValid(t *testing.T) {
	no := false
	yes := true
	tests := []struct {
		name  string
		valid *bool
		want  bool
	}{
		{"unset", nil, true},
		{"true", &yes, true},
		{"false", &no, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PixelInput{Valid: tt.valid}
			if got := p.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJobStatus_Done(t *testing.T) {
	for status, want := range map[JobStatus]bool{
		JobQueued: false, JobRunning: false, JobSucceeded: true, JobFailed: true,
	} {
		if status.Done() != want {
			t.Errorf("%s.Done() = %v, want %v", status, status.Done(), want)
		}
	}
}
