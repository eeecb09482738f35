// Package nettest writes small, valid network definitions for tests. Every
// network has zero weights, so its output is the middle of the declared
// output range.
package nettest

import (
	"os"
	"path/filepath"
	"testing"

	"go-c2rcc/internal/netset"
	"go-c2rcc/internal/nn"
	"go-c2rcc/internal/sensor"
)

const hidden = 3

// Shape is the declared topology and ranges of one role
type Shape struct {
	In, Out        int
	InMin, InMax   float64
	OutMin, OutMax float64
}

// Shapes returns a shape per role that fits profile p. Input ranges are
// wide enough for any plausible pixel.
func Shapes(p *sensor.Profile) [netset.RoleCount]Shape {
	nAtm := len(p.AtmosphereBands)
	atmIn := 7 + nAtm
	watIn := 5 + p.WaterInputBands()

	var s [netset.RoleCount]Shape
	s[netset.RtosaAann] = Shape{atmIn, nAtm, -2000, 2000, -8, 0}
	s[netset.RtosaRw] = Shape{atmIn, nAtm, -2000, 2000, -10, -2}
	s[netset.RtosaRpath] = Shape{atmIn, nAtm, -2000, 2000, -6, -2}
	s[netset.RtosaTrans] = Shape{atmIn, 2 * nAtm, -2000, 2000, 0.96, 1.0}
	s[netset.RwIop] = Shape{watIn, 5, -2000, 2000, -6, 3}
	s[netset.RwRwNorm] = Shape{watIn, p.WaterBands, -2000, 2000, -10, -2}
	s[netset.RwKd] = Shape{watIn, 2, -2000, 2000, -4, 2}
	s[netset.IopRw] = Shape{10, nAtm, -2000, 2000, -10, -2}
	s[netset.IopUncIop] = Shape{5, 5, -2000, 2000, 0, 1}
	s[netset.IopUncSumIopUncKd] = Shape{5, 5, -2000, 2000, 0, 1}
	return s
}

// Net builds a zero-weight network of the given shape
func Net(t testing.TB, s Shape) *nn.FFBP {
	t.Helper()
	layers := []nn.Layer{
		{Weights: matrix(hidden, s.In), Bias: make([]float64, hidden)},
		{Weights: matrix(s.Out, hidden), Bias: make([]float64, s.Out)},
	}
	net, err := nn.NewFFBP([]int{s.In, hidden, s.Out},
		fill(s.In, s.InMin), fill(s.In, s.InMax), fill(s.Out, s.OutMin), fill(s.Out, s.OutMax), layers)
	if err != nil {
		t.Fatalf("building network: %v", err)
	}
	return net
}

// WriteSet writes one network per role of binding below root
func WriteSet(t testing.TB, root string, p *sensor.Profile, binding netset.Binding) {
	t.Helper()
	shapes := Shapes(p)
	for _, r := range netset.Roles() {
		writeNet(t, filepath.Join(root, filepath.FromSlash(binding[r])), Net(t, shapes[r]))
	}
}

// WriteDefaultSet writes the default network set of p below root
func WriteDefaultSet(t testing.TB, root string, p *sensor.Profile) {
	t.Helper()
	WriteSet(t, root, p, p.NetSets[p.DefaultNetSet])
}

// WriteAlternative writes <root>/<dir>/<role>/zero.net for every role
func WriteAlternative(t testing.TB, root, dir string, p *sensor.Profile) {
	t.Helper()
	var b netset.Binding
	for _, r := range netset.Roles() {
		b[r] = dir + "/" + r.String() + "/zero.net"
	}
	WriteSet(t, root, p, b)
}

func writeNet(t testing.TB, path string, net *nn.FFBP) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := nn.Write(f, net, "zero weight test network"); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func matrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func fill(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
