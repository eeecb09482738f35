package ancillary

import (
	"math"
	"time"
)

// SolarFluxCorrectionFactor returns the squared inverse sun-earth distance
// in astronomical units for the day of t (Iqbal 1983, eq. 1.2.1). The
// extraterrestrial solar flux at t is the mean flux times this factor.
func SolarFluxCorrectionFactor(t time.Time) float64 {
	t = t.UTC()
	return dayCorrectionFactor(t.YearDay(), daysInYear(t.Year()))
}

func dayCorrectionFactor(day, yearLength int) float64 {
	gamma := 2 * math.Pi * float64(day-1) / float64(yearLength)
	return 1.000110 +
		0.034221*math.Cos(gamma) +
		0.001280*math.Sin(gamma) +
		0.000719*math.Cos(2*gamma) +
		0.000077*math.Sin(2*gamma)
}

func daysInYear(year int) int {
	return time.Date(year, time.December, 31, 12, 0, 0, 0, time.UTC).YearDay()
}

// CorrectSolarFlux scales a mean solar flux spectrum to the date of t.
// The input slice is not modified.
func CorrectSolarFlux(flux []float64, t time.Time) []float64 {
	f := SolarFluxCorrectionFactor(t)
	out := make([]float64, len(flux))
	for i, v := range flux {
		out[i] = v * f
	}
	return out
}

// CenterTime returns the midpoint of an acquisition interval regardless of
// argument order.
func CenterTime(start, end time.Time) time.Time {
	if end.Before(start) {
		start, end = end, start
	}
	return start.Add(end.Sub(start) / 2)
}
