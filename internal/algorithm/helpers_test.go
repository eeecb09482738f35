package algorithm

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"go-c2rcc/internal/netset"
	"go-c2rcc/internal/nn"
	"go-c2rcc/internal/sensor"
)

// stubModel is a network double with fixed bounds, a scripted response and
// an invocation counter.
type stubModel struct {
	inMin, inMax   []float64
	outMin, outMax []float64
	fn             func(in []float64) []float64
	calls          atomic.Int64
	lastIn         atomic.Pointer[[]float64]
}

func (s *stubModel) Evaluate(in []float64) []float64 {
	s.calls.Add(1)
	cp := append([]float64(nil), in...)
	s.lastIn.Store(&cp)
	return s.fn(in)
}

func (s *stubModel) InputSize() int       { return len(s.inMin) }
func (s *stubModel) OutputSize() int      { return len(s.outMin) }
func (s *stubModel) InputMin() []float64  { return append([]float64(nil), s.inMin...) }
func (s *stubModel) InputMax() []float64  { return append([]float64(nil), s.inMax...) }
func (s *stubModel) OutputMin() []float64 { return append([]float64(nil), s.outMin...) }
func (s *stubModel) OutputMax() []float64 { return append([]float64(nil), s.outMax...) }

func (s *stubModel) Calls() int64 { return s.calls.Load() }

func (s *stubModel) LastInput() []float64 {
	if p := s.lastIn.Load(); p != nil {
		return *p
	}
	return nil
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func constant(v []float64) func([]float64) []float64 {
	return func([]float64) []float64 { return append([]float64(nil), v...) }
}

// atmosphereBounds covers [sun zenith, x, y, z, T, S, P, log r_tosa...]
func atmosphereBounds(nBands int) ([]float64, []float64) {
	min := []float64{0, -1, -1, -1, 0, 0, 800}
	max := []float64{80, 1, 1, 1, 36, 43, 1040}
	return append(min, filled(nBands, -8)...), append(max, filled(nBands, 0)...)
}

// waterBounds covers [sun zenith, view zenith, azimuth difference, T, S, log rw...]
func waterBounds(nBands int) ([]float64, []float64) {
	min := []float64{0, 0, 0, 0, 0}
	max := []float64{80, 80, 180, 36, 43}
	return append(min, filled(nBands, -12)...), append(max, filled(nBands, 0)...)
}

// referenceLogRw is a plausible log water reflectance spectrum
var referenceLogRw = []float64{-4.1, -4.0, -3.8, -3.7, -3.6, -4.3, -4.6, -4.7, -5.2, -6.0, -6.5, -7.0}

type fixture struct {
	profile *sensor.Profile
	models  map[netset.Role]*stubModel
	set     *netset.Set
}

func (f *fixture) model(r netset.Role) *stubModel { return f.models[r] }

// newMerisFixture builds a network set whose outputs are all in range:
// the autoencoder reproduces its input spectrum, the forward water network
// reproduces the inverted reflectance and IOPs sit mid-range.
func newMerisFixture(t *testing.T) *fixture {
	t.Helper()
	p, err := sensor.Lookup("meris")
	require.NoError(t, err)

	nAtm := len(p.AtmosphereBands)
	aMin, aMax := atmosphereBounds(nAtm)
	wMin, wMax := waterBounds(p.WaterBands)

	models := map[netset.Role]*stubModel{
		netset.RtosaAann: {
			inMin: aMin, inMax: aMax, outMin: filled(nAtm, -8), outMax: filled(nAtm, 0),
			fn: func(in []float64) []float64 { return append([]float64(nil), in[atmosphereHeader:]...) },
		},
		netset.RtosaRw: {
			inMin: aMin, inMax: aMax, outMin: filled(nAtm, -12), outMax: filled(nAtm, 0),
			fn: constant(referenceLogRw),
		},
		netset.RtosaRpath: {
			inMin: aMin, inMax: aMax, outMin: filled(nAtm, -8), outMax: filled(nAtm, 0),
			fn: constant(filled(nAtm, math.Log(0.02))),
		},
		netset.RtosaTrans: {
			inMin: aMin, inMax: aMax, outMin: filled(2*nAtm, 0), outMax: filled(2*nAtm, 1),
			fn: constant(filled(2*nAtm, 0.98)),
		},
		netset.RwIop: {
			inMin: wMin, inMax: wMax, outMin: filled(5, -6), outMax: filled(5, 3),
			fn: constant([]float64{-1.5, -2.0, -1.0, 0.5, -0.5}),
		},
		netset.RwRwNorm: {
			inMin: wMin, inMax: wMax, outMin: filled(p.WaterBands, -12), outMax: filled(p.WaterBands, 0),
			fn: constant(referenceLogRw[:p.WaterBands]),
		},
		netset.RwKd: {
			inMin: wMin, inMax: wMax, outMin: []float64{-4, -4}, outMax: []float64{2, 2},
			fn: constant([]float64{-2.0, -1.0}),
		},
		netset.IopRw: {
			inMin: append(filled(5, 0), filled(5, -6)...), inMax: append(filled(5, 180), filled(5, 3)...),
			outMin: filled(nAtm, -12), outMax: filled(nAtm, 0),
			fn: constant(referenceLogRw),
		},
		netset.IopUncIop: {
			inMin: filled(5, -6), inMax: filled(5, 3), outMin: filled(5, 0), outMax: filled(5, 2),
			fn: constant([]float64{0.1, 0.2, 0.3, 0.4, 0.5}),
		},
		netset.IopUncSumIopUncKd: {
			inMin: filled(5, -6), inMax: filled(5, 3), outMin: filled(5, 0), outMax: filled(5, 2),
			fn: constant([]float64{0.15, 0.25, 0.35, 0.45, 0.55}),
		},
	}

	f := &fixture{profile: p, models: models}
	f.rebuild(t)
	return f
}

func (f *fixture) rebuild(t *testing.T) {
	t.Helper()
	var arr [netset.RoleCount]nn.Model
	var src netset.Binding
	for r, m := range f.models {
		arr[r] = m
		src[r] = "stub/" + r.String()
	}
	set, err := netset.NewSet(arr, src)
	require.NoError(t, err)
	f.set = set
}

func (f *fixture) algorithm(t *testing.T, cfg Config) *Algorithm {
	t.Helper()
	alg, err := New(f.profile, f.set, cfg)
	require.NoError(t, err)
	return alg
}

// merisObservation returns a valid pixel whose TOA reflectance is 0.05 in
// every band before gas correction.
func merisObservation(p *sensor.Profile) PixelObservation {
	obs := PixelObservation{
		X: 3, Y: 7, Lat: 54.2, Lon: 7.9,
		SunZenith: 40, SunAzimuth: 150, ViewZenith: 20, ViewAzimuth: 100,
		Altitude: 0, SurfacePressure: 1013, Ozone: 0,
		Valid: true,
	}
	cosSun := math.Cos(obs.SunZenith * deg2rad)
	obs.Radiances = make([]float64, p.InputBands)
	for i, f0 := range p.DefaultSolarFlux {
		obs.Radiances[i] = 0.05 * f0 * cosSun / math.Pi
	}
	return obs
}
