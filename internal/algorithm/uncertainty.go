package algorithm

import (
	"math"

	"go-c2rcc/internal/netset"
)

// AbsoluteUncertainty converts a log-space uncertainty of value into an
// absolute one.
func AbsoluteUncertainty(value, logUnc float64) float64 {
	return value * (1.0 - math.Exp(-logUnc))
}

// RelativeUncertainty converts a log-space uncertainty into percent
func RelativeUncertainty(logUnc float64) float64 {
	return (math.Exp(logUnc) - 1.0) * 100.0
}

func (a *Algorithm) propagateUncertainties(wat waterOutput, res *Result) {
	cfg := a.cfg
	unc := &res.Unc

	logUnc := a.nets.Model(netset.IopUncIop).Evaluate(wat.logIOPs)
	for i := 0; i < iopCount; i++ {
		unc.IOPAbs[i] = AbsoluteUncertainty(wat.iops[i], logUnc[i])
		unc.IOPRel[i] = RelativeUncertainty(logUnc[i])
	}

	combined := a.nets.Model(netset.IopUncSumIopUncKd).Evaluate(wat.logIOPs)
	unc.Adg = AbsoluteUncertainty(res.IOPs.Adg, combined[0])
	unc.Atot = AbsoluteUncertainty(res.IOPs.Atot, combined[1])
	unc.Btot = AbsoluteUncertainty(res.IOPs.Btot, combined[2])
	if wat.kdComputed {
		unc.Kd489 = AbsoluteUncertainty(res.Kd489, combined[3])
		// networks with four outputs carry no separate kdmin term
		kdminTerm := combined[3]
		if len(combined) > 4 {
			kdminTerm = combined[4]
		}
		unc.KdMin = AbsoluteUncertainty(res.KdMin, kdminTerm)
	}

	unc.CHL = cfg.CHLFactor * math.Pow(unc.IOPAbs[0], cfg.CHLExponent)
	unc.TSM = cfg.TSMFactor * unc.Btot
}
