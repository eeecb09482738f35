// Package ancillary supplies the per-pixel atmospheric inputs that are not
// part of the sensor measurement: ozone column, surface pressure, altitude
// and the sun-earth distance correction of the solar flux.
package ancillary

import (
	"fmt"
	"time"

	apperrors "go-c2rcc/internal/errors"
)

const (
	DefaultOzone           = 330.0  // DU
	DefaultSurfacePressure = 1000.0 // hPa
	DefaultAltitude        = 0.0    // m
)

// Atmosphere provides ozone and surface pressure for a pixel at a time
type Atmosphere interface {
	Ozone(t time.Time, x, y int, lat, lon float64) (float64, error)
	SurfacePressure(t time.Time, x, y int, lat, lon float64) (float64, error)
}

// Elevation provides the terrain altitude of a location in metres
type Elevation interface {
	Altitude(lat, lon float64) (float64, error)
}

// Constant ignores time and location and always returns the same values
type Constant struct {
	ozone    float64
	pressure float64
}

// NewConstant validates ozone (DU) and surface pressure (hPa)
func NewConstant(ozone, pressure float64) (*Constant, error) {
	if ozone < 0 || ozone > 1000 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("ozone %g DU outside [0, 1000]", ozone), nil)
	}
	if pressure < 500 || pressure > 1100 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("surface pressure %g hPa outside [500, 1100]", pressure), nil)
	}
	return &Constant{ozone: ozone, pressure: pressure}, nil
}

// DefaultAtmosphere returns the climatological constants
func DefaultAtmosphere() *Constant {
	return &Constant{ozone: DefaultOzone, pressure: DefaultSurfacePressure}
}

func (c *Constant) Ozone(time.Time, int, int, float64, float64) (float64, error) {
	return c.ozone, nil
}

func (c *Constant) SurfacePressure(time.Time, int, int, float64, float64) (float64, error) {
	return c.pressure, nil
}

// ConstantElevation is a flat terrain model
type ConstantElevation float64

func (e ConstantElevation) Altitude(float64, float64) (float64, error) {
	return float64(e), nil
}

// Interpolated blends two snapshots that bracket the acquisition linearly
// in time. Times outside [StartTime, EndTime] are clamped.
type Interpolated struct {
	Start, End         Atmosphere
	StartTime, EndTime time.Time
}

func NewInterpolated(start Atmosphere, startTime time.Time, end Atmosphere, endTime time.Time) (*Interpolated, error) {
	if start == nil || end == nil {
		return nil, apperrors.NewConfigError("both atmosphere snapshots are required", nil)
	}
	if endTime.Before(startTime) {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("snapshot end %s before start %s", endTime.Format(time.RFC3339), startTime.Format(time.RFC3339)), nil)
	}
	return &Interpolated{Start: start, End: end, StartTime: startTime, EndTime: endTime}, nil
}

func (a *Interpolated) weight(t time.Time) float64 {
	span := a.EndTime.Sub(a.StartTime)
	if span <= 0 || !t.After(a.StartTime) {
		return 0
	}
	if !t.Before(a.EndTime) {
		return 1
	}
	return float64(t.Sub(a.StartTime)) / float64(span)
}

func (a *Interpolated) Ozone(t time.Time, x, y int, lat, lon float64) (float64, error) {
	return a.blend(t, func(src Atmosphere) (float64, error) { return src.Ozone(t, x, y, lat, lon) })
}

func (a *Interpolated) SurfacePressure(t time.Time, x, y int, lat, lon float64) (float64, error) {
	return a.blend(t, func(src Atmosphere) (float64, error) { return src.SurfacePressure(t, x, y, lat, lon) })
}

func (a *Interpolated) blend(t time.Time, get func(Atmosphere) (float64, error)) (float64, error) {
	v0, err := get(a.Start)
	if err != nil {
		return 0, err
	}
	v1, err := get(a.End)
	if err != nil {
		return 0, err
	}
	w := a.weight(t)
	return v0 + w*(v1-v0), nil
}
