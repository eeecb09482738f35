package algorithm

import (
	"math"

	"go-c2rcc/internal/netset"
	"go-c2rcc/internal/nn"
)

type waterOutput struct {
	logIOPs    []float64
	iops       [iopCount]float64
	kdComputed bool
}

// WaterInput assembles [sun zenith, view zenith, azimuth difference,
// temperature, salinity, log rw[0:n]...] padded with zeros to
// waterHeader+width entries.
func WaterInput(sunZenith, viewZenith, aziDiffDeg, temperature, salinity float64, logRw []float64, n, width int) []float64 {
	in := make([]float64, waterHeader+max(n, width))
	copy(in, []float64{sunZenith, viewZenith, aziDiffDeg, temperature, salinity})
	copy(in[waterHeader:], logRw[:n])
	return in
}

// WaterOOS compares the 5/2 and 6/5 log band ratios of the inverted and the
// forward modelled water reflectance and returns the larger mismatch.
func WaterOOS(logRw, logRwForward []float64) float64 {
	s1 := math.Abs(math.Abs(logRwForward[4]-logRwForward[1]) - math.Abs(logRw[4]-logRw[1]))
	s2 := math.Abs(math.Abs(logRwForward[5]-logRwForward[4]) - math.Abs(logRw[5]-logRw[4]))
	return math.Max(s1, s2)
}

func (a *Algorithm) invertWater(sunZenith, viewZenith float64, geo GeometryAngles, logRw []float64, res *Result) waterOutput {
	cfg := a.cfg
	in := WaterInput(sunZenith, viewZenith, geo.AziDiffDeg, cfg.Temperature, cfg.Salinity, logRw, a.profile.WaterBands, a.profile.WaterInputBands())
	res.Flags.Set(FlagRwOOR, nn.OutOfRange(in, a.iopIn.min, a.iopIn.max))

	if cfg.OutputRwn {
		res.Rwn = expAll(a.nets.Model(netset.RwRwNorm).Evaluate(in))
	}

	logIOPs := a.nets.Model(netset.RwIop).Evaluate(in)[:iopCount]
	out := waterOutput{logIOPs: logIOPs}
	for i, v := range logIOPs {
		out.iops[i] = math.Exp(v)
	}
	iops := &res.IOPs
	iops.Apig, iops.Adet, iops.Agelb, iops.Bpart, iops.Bwit = out.iops[0], out.iops[1], out.iops[2], out.iops[3], out.iops[4]
	iops.Adg = iops.Adet + iops.Agelb
	iops.Atot = iops.Adg + iops.Apig
	iops.Btot = iops.Bpart + iops.Bwit

	res.CHL = cfg.CHLFactor * math.Pow(iops.Apig, cfg.CHLExponent)
	res.TSM = cfg.TSMFactor * math.Pow(iops.Btot, cfg.TSMExponent)

	res.Flags.Set(FlagIopOOR, nn.OutOfRange(logIOPs, a.iopOut.min, a.iopOut.max))
	for i, v := range logIOPs {
		res.Flags.Set(FlagApigAtMax+Flag(i), v > a.iopOut.max[i]-atLimitTolerance)
		res.Flags.Set(FlagApigAtMin+Flag(i), v < a.iopOut.min[i]+atLimitTolerance)
	}

	if cfg.OutputOOS {
		forwardIn := make([]float64, 0, waterHeader+iopCount)
		forwardIn = append(forwardIn, in[:waterHeader]...)
		forwardIn = append(forwardIn, logIOPs...)
		logRwForward := a.nets.Model(netset.IopRw).Evaluate(forwardIn)

		res.WaterOOS = WaterOOS(logRw, logRwForward)
		res.Flags.Set(FlagRwOOS, res.WaterOOS > cfg.ThresholdWaterOOS)
	}

	if cfg.OutputKd {
		logKd := a.nets.Model(netset.RwKd).Evaluate(in)
		res.KdMin = math.Exp(logKd[0])
		res.Kd489 = math.Exp(logKd[1])
		out.kdComputed = true

		min, max := a.kdOut.min, a.kdOut.max
		res.Flags.Set(FlagKdminOOR, logKd[0] < min[0] || logKd[0] > max[0])
		res.Flags.Set(FlagKd489OOR, logKd[1] < min[1] || logKd[1] > max[1])
		res.Flags.Set(FlagKd489AtMax, logKd[1] > max[1]-atLimitTolerance)
		// Kdmin_at_max is evaluated on the kd489 component, same as Kd489_at_max.
		res.Flags.Set(FlagKdminAtMax, logKd[1] > max[1]-atLimitTolerance)
	}
	return out
}
