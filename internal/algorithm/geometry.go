package algorithm

import "math"

const deg2rad = math.Pi / 180

// ComputeGeometry derives the angle terms used by the networks. The azimuth
// difference is folded into [0, 180] degrees through acos so that
// wrap-around at 360 degrees does not matter.
func ComputeGeometry(sunZenith, sunAzimuth, viewZenith, viewAzimuth float64) GeometryAngles {
	var g GeometryAngles
	g.CosSun = math.Cos(sunZenith * deg2rad)
	g.SinSun = math.Sin(sunZenith * deg2rad)
	g.CosView = math.Cos(viewZenith * deg2rad)
	g.SinView = math.Sin(viewZenith * deg2rad)

	g.CosAziDiff = math.Cos((viewAzimuth - sunAzimuth) * deg2rad)
	aziDiff := math.Acos(clamp(g.CosAziDiff, -1, 1))
	g.SinAziDiff = math.Sin(aziDiff)
	g.AziDiffDeg = aziDiff / deg2rad

	g.ViewDir = [3]float64{
		g.SinView * g.CosAziDiff,
		g.SinView * g.SinAziDiff,
		g.CosView,
	}
	return g
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
