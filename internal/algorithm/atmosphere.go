package algorithm

import (
	"math"

	"go-c2rcc/internal/netset"
	"go-c2rcc/internal/nn"
)

// AtmosphereInput assembles [sun zenith, view direction, temperature,
// salinity, pressure, log r_tosa...].
func AtmosphereInput(sunZenith float64, geo GeometryAngles, temperature, salinity, pressure float64, logRTosa []float64) []float64 {
	in := make([]float64, 0, atmosphereHeader+len(logRTosa))
	in = append(in, sunZenith, geo.ViewDir[0], geo.ViewDir[1], geo.ViewDir[2], temperature, salinity, pressure)
	return append(in, logRTosa...)
}

// AtmosphereOOS is the largest absolute log-space difference between the
// observed and the reconstructed spectrum.
func AtmosphereOOS(logObserved, logReconstructed []float64) float64 {
	score := 0.0
	for i := range logObserved {
		score = math.Max(score, math.Abs(logObserved[i]-logReconstructed[i]))
	}
	return score
}

// invertAtmosphere runs the atmosphere networks and returns log water reflectance
func (a *Algorithm) invertAtmosphere(sunZenith float64, geo GeometryAngles, pressure float64, rTosa, logRTosa []float64, res *Result) []float64 {
	cfg := a.cfg
	in := AtmosphereInput(sunZenith, geo, cfg.Temperature, cfg.Salinity, pressure, logRTosa)
	res.Flags.Set(FlagRtosaOOR, nn.OutOfRange(in, a.aannIn.min, a.aannIn.max))

	if cfg.needsAutoencoder() {
		logAann := a.nets.Model(netset.RtosaAann).Evaluate(in)
		res.AtmosphereOOS = AtmosphereOOS(logRTosa, logAann)
		res.Flags.Set(FlagRtosaOOS, res.AtmosphereOOS > cfg.ThresholdAtmosphereOOS)
		if cfg.OutputRtosaAann {
			res.RTosaAann = expAll(logAann)
		}
	}

	var rpath []float64
	if cfg.needsPath() {
		rpath = expAll(a.nets.Model(netset.RtosaRpath).Evaluate(in))
		if cfg.OutputRpath {
			res.RPath = rpath
		}
	}

	var transD, transU []float64
	if cfg.needsTransmittance() {
		trans := a.nets.Model(netset.RtosaTrans).Evaluate(in)
		half := len(trans) / 2
		transD, transU = trans[:half:half], trans[half:]
		res.Flags.Set(FlagCloud, transD[a.profile.CloudBand] < cfg.ThresholdCloudTransD)
		if cfg.OutputTdown {
			res.TransD = transD
		}
		if cfg.OutputTup {
			res.TransU = transU
		}
	}

	var logRw []float64
	if cfg.DeriveRwFromPathAndTransmittance {
		logRw = make([]float64, len(rTosa))
		for i := range rTosa {
			logRw[i] = math.Log((rTosa[i] - rpath[i]) / (transU[i] * transD[i]))
		}
	} else {
		logRw = a.nets.Model(netset.RtosaRw).Evaluate(in)
	}

	if cfg.OutputRwa || cfg.OutputRrs {
		rwa := expAll(logRw)
		if cfg.OutputRwa {
			res.Rwa = rwa
		}
		if cfg.OutputRrs {
			res.Rrs = make([]float64, len(rwa))
			for i, v := range rwa {
				res.Rrs[i] = v / math.Pi
			}
		}
	}
	return logRw
}

func expAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Exp(x)
	}
	return out
}
