package algorithm

import (
	"math"

	"go-c2rcc/internal/sensor"
)

// h2oCorrection maps the 900/885 nm reflectance ratio to the water vapour
// transmittance at 708 nm.
var h2oCorrection = [4]float64{0.3832989, 1.6527957, -1.5635101, 0.5311913}

const (
	scaleHeight       = 8000.0
	minCorrectionAlti = 10.0
	modelOzone        = 0.0
)

// ToaReflectance converts radiance to top-of-atmosphere reflectance
func ToaReflectance(radiances, solarFlux []float64, cosSun float64) []float64 {
	rToa := make([]float64, len(radiances))
	for i, l := range radiances {
		rToa[i] = math.Pi * l / solarFlux[i] / cosSun
	}
	return rToa
}

// WaterVapourTransmittance evaluates the third order correction polynomial
func WaterVapourTransmittance(ratio float64) float64 {
	c := h2oCorrection
	return c[0] + (c[1]+(c[2]+c[3]*ratio)*ratio)*ratio
}

// OzoneTransmittance returns the downward and upward ozone transmittance of
// one band for an ozone column in DU.
func OzoneTransmittance(coef, ozone, cosSun, cosView float64) (down, up float64) {
	tau := coef*ozone/1000.0 - modelOzone
	return math.Exp(-tau / cosSun), math.Exp(-tau / cosView)
}

// AltitudeCorrectedPressure scales surface pressure to the pixel altitude
func AltitudeCorrectedPressure(pressure, altitude float64) float64 {
	if altitude > minCorrectionAlti {
		return pressure * math.Exp(-altitude/scaleHeight)
	}
	return pressure
}

// GasCorrect selects the atmosphere bands of r_toa and removes water vapour
// and ozone absorption. It returns r_tosa and its logarithm.
func GasCorrect(p *sensor.Profile, rToa []float64, ozone float64, geo GeometryAngles) ([]float64, []float64) {
	n := len(p.AtmosphereBands)
	rTosa := make([]float64, n)
	for i, b := range p.AtmosphereBands {
		rTosa[i] = rToa[b]
	}

	if wv := p.WaterVapour; wv != nil {
		ratio := rToa[wv.Numerator] / rToa[wv.Denominator]
		rTosa[wv.Target] /= WaterVapourTransmittance(ratio)
	}

	logRTosa := make([]float64, n)
	for i := range rTosa {
		down, up := OzoneTransmittance(p.OzoneAbsorption[i], ozone, geo.CosSun, geo.CosView)
		rTosa[i] /= down * up
		logRTosa[i] = math.Log(rTosa[i])
	}
	return rTosa, logRTosa
}
