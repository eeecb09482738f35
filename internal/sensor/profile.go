// Package sensor describes the supported instruments: band layout, gas
// absorption tables, solar flux defaults and network bindings. The pixel
// pipeline is generic and takes everything sensor specific from a Profile.
package sensor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"

	apperrors "go-c2rcc/internal/errors"
	"go-c2rcc/internal/netset"
)

// WaterVapourCorrection divides one atmosphere band by a polynomial of the
// ratio of two input bands.
type WaterVapourCorrection struct {
	Numerator   int // input band index
	Denominator int // input band index
	Target      int // atmosphere band index
}

// Profile is the static description of one sensor variant
type Profile struct {
	Name               string
	Description        string
	InputBands         int
	InputIsReflectance bool
	// AtmosphereBands are 0-based input indices fed to the atmosphere networks
	AtmosphereBands []int
	// WaterBands is the number of leading water reflectances fed to the water networks
	WaterBands int
	// WaterInputWidth is the number of reflectance slots of the water
	// network input. Slots past WaterBands are zero. Zero means WaterBands.
	WaterInputWidth  int
	OzoneAbsorption  []float64
	WaterVapour      *WaterVapourCorrection
	CloudBand        int
	Wavelengths      []float64
	DefaultSolarFlux []float64
	NetSets          map[string]netset.Binding
	DefaultNetSet    string
}

// WaterInputBands returns the reflectance width of the water network input
func (p *Profile) WaterInputBands() int {
	if p.WaterInputWidth > 0 {
		return p.WaterInputWidth
	}
	return p.WaterBands
}

// Validate checks the internal consistency of the tables
func (p *Profile) Validate() error {
	nAtm := len(p.AtmosphereBands)
	switch {
	case p.InputBands <= 0:
		return fmt.Errorf("%s: no input bands", p.Name)
	case len(p.Wavelengths) != p.InputBands:
		return fmt.Errorf("%s: %d wavelengths for %d bands", p.Name, len(p.Wavelengths), p.InputBands)
	case nAtm == 0:
		return fmt.Errorf("%s: no atmosphere bands", p.Name)
	case len(p.OzoneAbsorption) != nAtm:
		return fmt.Errorf("%s: %d ozone coefficients for %d atmosphere bands", p.Name, len(p.OzoneAbsorption), nAtm)
	case p.WaterBands < 6 || p.WaterBands > nAtm:
		return fmt.Errorf("%s: water band count %d outside [6, %d]", p.Name, p.WaterBands, nAtm)
	case p.WaterInputWidth != 0 && p.WaterInputWidth < p.WaterBands:
		return fmt.Errorf("%s: water input width %d below water band count %d", p.Name, p.WaterInputWidth, p.WaterBands)
	case p.CloudBand < 0 || p.CloudBand >= nAtm:
		return fmt.Errorf("%s: cloud band %d outside atmosphere bands", p.Name, p.CloudBand)
	case !p.InputIsReflectance && len(p.DefaultSolarFlux) != p.InputBands:
		return fmt.Errorf("%s: %d solar flux values for %d bands", p.Name, len(p.DefaultSolarFlux), p.InputBands)
	}
	for _, b := range p.AtmosphereBands {
		if b < 0 || b >= p.InputBands {
			return fmt.Errorf("%s: atmosphere band %d outside input bands", p.Name, b)
		}
	}
	if wv := p.WaterVapour; wv != nil {
		if wv.Numerator >= p.InputBands || wv.Denominator >= p.InputBands || wv.Target >= nAtm {
			return fmt.Errorf("%s: water vapour bands out of range", p.Name)
		}
	}
	if _, ok := p.NetSets[p.DefaultNetSet]; !ok {
		return fmt.Errorf("%s: default net set %q not defined", p.Name, p.DefaultNetSet)
	}
	return nil
}

// NetSet returns the binding registered under name; an empty name selects
// the default set.
func (p *Profile) NetSet(name string) (netset.Binding, error) {
	if strings.TrimSpace(name) == "" {
		name = p.DefaultNetSet
	}
	for key, b := range p.NetSets {
		if !strings.EqualFold(key, name) {
			continue
		}
		if err := b.Validate(); err != nil {
			return netset.Binding{}, apperrors.NewConfigError(
				fmt.Sprintf("network set %s of sensor %s is incomplete", key, p.Name), err,
			).WithDetails("use net_set=alternative with a directory holding all ten roles")
		}
		return b, nil
	}
	return netset.Binding{}, apperrors.NewConfigError(
		fmt.Sprintf("unknown network set %q for sensor %s", name, p.Name), nil,
	).WithDetails("available: " + strings.Join(p.NetSetNames(), ", "))
}

// NetSetNames lists the registered set names in sorted order
func (p *Profile) NetSetNames() []string {
	names := make([]string, 0, len(p.NetSets))
	for k := range p.NetSets {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var registry = map[string]*Profile{}

func register(p *Profile) {
	if err := p.Validate(); err != nil {
		panic(err)
	}
	registry[p.Name] = p
}

// Names lists every registered sensor
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a profile by case-insensitive name. Unknown names produce a
// validation error suggesting the closest registered sensor.
func Lookup(name string) (*Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if p, ok := registry[key]; ok {
		return p, nil
	}

	err := apperrors.NewValidationError(fmt.Sprintf("unknown sensor %q", name), nil)
	if suggestion := closest(key); suggestion != "" {
		return nil, err.WithDetails(fmt.Sprintf("did you mean %q?", suggestion))
	}
	return nil, err.WithDetails("available: " + strings.Join(Names(), ", "))
}

func closest(name string) string {
	best, bestDist := "", 3
	for _, candidate := range Names() {
		if d := levenshtein.Distance(name, candidate); d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}
