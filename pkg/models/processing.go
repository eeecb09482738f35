package models

import (
	"math"
	"time"

	"go-c2rcc/internal/algorithm"
	"go-c2rcc/internal/processor"
)

// PixelResult is the per-pixel output with the raised flags spelled out
type PixelResult struct {
	algorithm.Result
	FlagNames []string `json:"flag_names"`
}

// NewPixelResult wraps an algorithm result for the wire. JSON has no
// representation for NaN or infinity: such values are written as 0 and
// the pixel loses its Valid_PE flag.
func NewPixelResult(r algorithm.Result) PixelResult {
	if sanitize(&r) {
		r.Flags.Clear(algorithm.FlagValid)
	}
	names := r.Flags.Names()
	if names == nil {
		names = []string{}
	}
	return PixelResult{Result: r, FlagNames: names}
}

func sanitize(r *algorithm.Result) bool {
	replaced := false
	scalar := func(v *float64) {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
			replaced = true
		}
	}
	for _, vec := range [][]float64{r.RToa, r.RTosa, r.RTosaAann, r.RPath, r.TransD, r.TransU, r.Rwa, r.Rwn, r.Rrs} {
		for i := range vec {
			scalar(&vec[i])
		}
	}
	iops := &r.IOPs
	unc := &r.Unc
	for _, v := range []*float64{
		&r.AtmosphereOOS, &r.WaterOOS, &r.Kd489, &r.KdMin, &r.CHL, &r.TSM,
		&iops.Apig, &iops.Adet, &iops.Agelb, &iops.Bpart, &iops.Bwit, &iops.Adg, &iops.Atot, &iops.Btot,
		&unc.Adg, &unc.Atot, &unc.Btot, &unc.Kd489, &unc.KdMin, &unc.CHL, &unc.TSM,
	} {
		scalar(v)
	}
	for i := range unc.IOPAbs {
		scalar(&unc.IOPAbs[i])
		scalar(&unc.IOPRel[i])
	}
	return replaced
}

// ProcessResponse is the outcome of a processed batch
type ProcessResponse struct {
	Sensor            string            `json:"sensor"`
	NetSet            string            `json:"net_set"`
	Timestamp         time.Time         `json:"timestamp"`
	ProcessingTimeSec float64           `json:"processing_time_sec"`
	SolarFluxFactor   float64           `json:"solar_flux_factor,omitempty"`
	Summary           processor.Summary `json:"summary"`
	Results           []PixelResult     `json:"results"`
}

// JobStatus is the lifecycle state of an asynchronous job
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Done reports whether the job has reached a final state
func (s JobStatus) Done() bool {
	return s == JobSucceeded || s == JobFailed
}

// Job is an asynchronous processing request and, once finished, its result
type Job struct {
	ID         string           `json:"id"`
	Status     JobStatus        `json:"status"`
	Sensor     string           `json:"sensor"`
	NetSet     string           `json:"net_set"`
	Pixels     int              `json:"pixels"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Result     *ProcessResponse `json:"result,omitempty"`
	Error      *ErrorResponse   `json:"error,omitempty"`
}
