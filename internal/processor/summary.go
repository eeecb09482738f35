package processor

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"go-c2rcc/internal/algorithm"
)

// Stats describes one quantity over the valid pixels of a scene
type Stats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary aggregates the results of a scene
type Summary struct {
	Pixels        int            `json:"pixels"`
	ValidPixels   int            `json:"valid_pixels"`
	FlagCounts    map[string]int `json:"flag_counts"`
	AtmosphereOOS Stats          `json:"atmosphere_oos"`
	WaterOOS      Stats          `json:"water_oos"`
	Apig          Stats          `json:"apig"`
	Btot          Stats          `json:"btot"`
	Adg           Stats          `json:"adg"`
	CHL           Stats          `json:"chl"`
	TSM           Stats          `json:"tsm"`
	Kd489         Stats          `json:"kd489"`
}

// Summarize counts flags over all pixels and computes statistics over the
// valid ones. Non-finite values are left out of the statistics.
func Summarize(results []algorithm.Result) Summary {
	s := Summary{
		Pixels:     len(results),
		FlagCounts: make(map[string]int),
	}
	for _, f := range algorithm.AllFlags() {
		s.FlagCounts[f.String()] = 0
	}

	var aoos, woos, apig, btot, adg, chl, tsm, kd []float64
	for _, r := range results {
		for _, name := range r.Flags.Names() {
			s.FlagCounts[name]++
		}
		if !r.Flags.Has(algorithm.FlagValid) {
			continue
		}
		s.ValidPixels++
		aoos = appendFinite(aoos, r.AtmosphereOOS)
		woos = appendFinite(woos, r.WaterOOS)
		apig = appendFinite(apig, r.IOPs.Apig)
		btot = appendFinite(btot, r.IOPs.Btot)
		adg = appendFinite(adg, r.IOPs.Adg)
		chl = appendFinite(chl, r.CHL)
		tsm = appendFinite(tsm, r.TSM)
		kd = appendFinite(kd, r.Kd489)
	}

	s.AtmosphereOOS = describe(aoos)
	s.WaterOOS = describe(woos)
	s.Apig = describe(apig)
	s.Btot = describe(btot)
	s.Adg = describe(adg)
	s.CHL = describe(chl)
	s.TSM = describe(tsm)
	s.Kd489 = describe(kd)
	return s
}

func appendFinite(xs []float64, v float64) []float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return xs
	}
	return append(xs, v)
}

func describe(xs []float64) Stats {
	switch len(xs) {
	case 0:
		return Stats{}
	case 1:
		return Stats{Count: 1, Mean: xs[0], Min: xs[0], Max: xs[0]}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	return Stats{
		Count:  len(xs),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
	}
}
