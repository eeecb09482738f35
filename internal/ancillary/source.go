package ancillary

import (
	"fmt"
	"time"
)

// Values are the ancillary inputs of one pixel
type Values struct {
	Ozone           float64
	SurfacePressure float64
	Altitude        float64
}

// Source bundles the providers consulted for values a pixel does not carry
type Source struct {
	Atmosphere Atmosphere
	Elevation  Elevation
}

// DefaultSource uses the climatological constants and flat terrain
func DefaultSource() Source {
	return Source{Atmosphere: DefaultAtmosphere(), Elevation: ConstantElevation(DefaultAltitude)}
}

// Resolve keeps every value the pixel supplies and asks the providers for
// the rest.
func (s Source) Resolve(t time.Time, x, y int, lat, lon float64, ozone, pressure, altitude *float64) (Values, error) {
	var v Values
	var err error

	if ozone != nil {
		v.Ozone = *ozone
	} else if v.Ozone, err = s.Atmosphere.Ozone(t, x, y, lat, lon); err != nil {
		return Values{}, fmt.Errorf("ozone at (%d,%d): %w", x, y, err)
	}

	if pressure != nil {
		v.SurfacePressure = *pressure
	} else if v.SurfacePressure, err = s.Atmosphere.SurfacePressure(t, x, y, lat, lon); err != nil {
		return Values{}, fmt.Errorf("surface pressure at (%d,%d): %w", x, y, err)
	}

	if altitude != nil {
		v.Altitude = *altitude
	} else if v.Altitude, err = s.Elevation.Altitude(lat, lon); err != nil {
		return Values{}, fmt.Errorf("altitude at (%d,%d): %w", x, y, err)
	}
	return v, nil
}
