// Package algorithm implements the per-pixel case-2 water processor: gas
// correction, neural atmospheric inversion, IOP retrieval, diffuse
// attenuation, uncertainty propagation and quality flagging.
//
// An Algorithm is immutable once built and ProcessPixel is a pure function
// of its input, so one instance can serve any number of goroutines.
package algorithm

import (
	"fmt"
	"strings"

	apperrors "go-c2rcc/internal/errors"
	"go-c2rcc/internal/netset"
	"go-c2rcc/internal/sensor"
)

// atLimitTolerance is the log-space distance to a training bound below
// which a value counts as sitting at that bound.
const atLimitTolerance = 0.02

// number of leading geometry/atmosphere inputs of the atmosphere networks
// and of the water networks
const (
	atmosphereHeader = 7
	waterHeader      = 5
	iopCount         = 5
)

type bounds struct {
	min []float64
	max []float64
}

// Algorithm runs the pixel pipeline for one sensor, network set and configuration
type Algorithm struct {
	profile *sensor.Profile
	cfg     Config
	nets    *netset.Set

	aannIn bounds
	iopIn  bounds
	iopOut bounds
	kdOut  bounds
}

// New validates the configuration and checks every network against the
// vector sizes the sensor profile implies. All failures are fatal.
func New(profile *sensor.Profile, nets *netset.Set, cfg Config) (*Algorithm, error) {
	if profile == nil || nets == nil {
		return nil, apperrors.NewConfigError("sensor profile and network set are required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid sensor profile", err)
	}
	if err := checkSizes(profile, nets); err != nil {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("network set does not match sensor %s", profile.Name), err)
	}

	aann := nets.Model(netset.RtosaAann)
	iop := nets.Model(netset.RwIop)
	kd := nets.Model(netset.RwKd)
	return &Algorithm{
		profile: profile,
		cfg:     cfg,
		nets:    nets,
		aannIn:  bounds{aann.InputMin(), aann.InputMax()},
		iopIn:   bounds{iop.InputMin(), iop.InputMax()},
		iopOut:  bounds{iop.OutputMin(), iop.OutputMax()},
		kdOut:   bounds{kd.OutputMin(), kd.OutputMax()},
	}, nil
}

type sizeRule struct {
	role      netset.Role
	in        int
	minOut    int
	exactOut  bool
	outReason string
}

func checkSizes(p *sensor.Profile, nets *netset.Set) error {
	nAtm := len(p.AtmosphereBands)
	atmIn := atmosphereHeader + nAtm
	watIn := waterHeader + p.WaterInputBands()

	rules := []sizeRule{
		{netset.RtosaAann, atmIn, nAtm, true, "one reflectance per atmosphere band"},
		{netset.RtosaRw, atmIn, p.WaterBands, false, "water reflectances"},
		{netset.RtosaRpath, atmIn, nAtm, true, "one path reflectance per atmosphere band"},
		{netset.RtosaTrans, atmIn, 2 * nAtm, true, "downward and upward transmittance per band"},
		{netset.RwIop, watIn, iopCount, true, "five IOPs"},
		{netset.RwRwNorm, watIn, 1, false, "normalised reflectances"},
		{netset.RwKd, watIn, 2, true, "kdmin and kd489"},
		{netset.IopRw, waterHeader + iopCount, 6, false, "water reflectances for the band ratio test"},
		{netset.IopUncIop, iopCount, iopCount, true, "one uncertainty per IOP"},
		{netset.IopUncSumIopUncKd, iopCount, 4, false, "adg, atot, btot and kd uncertainties"},
	}

	var problems []string
	for _, r := range rules {
		m := nets.Model(r.role)
		if m.InputSize() != r.in {
			problems = append(problems, fmt.Sprintf("%s: %d inputs, want %d", r.role, m.InputSize(), r.in))
		}
		if len(m.InputMin()) != m.InputSize() || len(m.InputMax()) != m.InputSize() {
			problems = append(problems, fmt.Sprintf("%s: input bounds do not match input size", r.role))
		}
		out := m.OutputSize()
		if (r.exactOut && out != r.minOut) || out < r.minOut {
			problems = append(problems, fmt.Sprintf("%s: %d outputs, want %d (%s)", r.role, out, r.minOut, r.outReason))
		}
		if len(m.OutputMin()) != out || len(m.OutputMax()) != out {
			problems = append(problems, fmt.Sprintf("%s: output bounds do not match output size", r.role))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// Profile returns the sensor the algorithm was built for
func (a *Algorithm) Profile() *sensor.Profile { return a.profile }

// Config returns a copy of the run configuration
func (a *Algorithm) Config() Config { return a.cfg }

// CheckObservation reports observations whose vectors do not fit the sensor.
// ProcessPixel assumes a checked observation.
func (a *Algorithm) CheckObservation(obs PixelObservation) error {
	n := a.profile.InputBands
	if len(obs.Radiances) != n {
		return fmt.Errorf("pixel (%d,%d): %d band values, sensor %s has %d", obs.X, obs.Y, len(obs.Radiances), a.profile.Name, n)
	}
	if len(obs.SolarFlux) != 0 && len(obs.SolarFlux) != n {
		return fmt.Errorf("pixel (%d,%d): %d solar flux values, want %d", obs.X, obs.Y, len(obs.SolarFlux), n)
	}
	return nil
}

// ProcessPixel runs the full pipeline for one observation. Out-of-range
// and out-of-scope conditions are reported through flags, never as errors.
func (a *Algorithm) ProcessPixel(obs PixelObservation) Result {
	res := Result{X: obs.X, Y: obs.Y}
	geo := ComputeGeometry(obs.SunZenith, obs.SunAzimuth, obs.ViewZenith, obs.ViewAzimuth)

	if a.profile.InputIsReflectance {
		res.RToa = append([]float64(nil), obs.Radiances...)
	} else {
		flux := obs.SolarFlux
		if len(flux) == 0 {
			flux = a.profile.DefaultSolarFlux
		}
		res.RToa = ToaReflectance(obs.Radiances, flux, geo.CosSun)
	}
	if !obs.Valid {
		return res
	}

	rTosa, logRTosa := GasCorrect(a.profile, res.RToa, obs.Ozone, geo)
	if a.cfg.OutputRtosa {
		res.RTosa = rTosa
	}
	pressure := AltitudeCorrectedPressure(obs.SurfacePressure, obs.Altitude)

	logRw := a.invertAtmosphere(obs.SunZenith, geo, pressure, rTosa, logRTosa, &res)
	wat := a.invertWater(obs.SunZenith, obs.ViewZenith, geo, logRw, &res)
	if a.cfg.OutputUncertainties {
		a.propagateUncertainties(wat, &res)
	}

	res.Flags.Set(FlagValid, true)
	return res
}
