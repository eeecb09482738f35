package nn

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// FFBP is a fully connected feed-forward network with sigmoid activation on
// every plane after the input plane. Inputs are scaled to [0,1] with the
// declared input ranges and outputs are scaled back with the output ranges.
type FFBP struct {
	sizes   []int
	inMin   []float64
	inMax   []float64
	outMin  []float64
	outMax  []float64
	weights []*mat.Dense
	biases  []*mat.VecDense
}

// Layer holds the parameters connecting plane p to plane p+1.
// Weights has one row per node of plane p+1.
type Layer struct {
	Weights [][]float64
	Bias    []float64
}

// NewFFBP validates the given topology and parameters and builds a network.
func NewFFBP(sizes []int, inMin, inMax, outMin, outMax []float64, layers []Layer) (*FFBP, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("need at least 2 planes, got %d", len(sizes))
	}
	for i, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("plane %d has invalid size %d", i, s)
		}
	}
	if len(layers) != len(sizes)-1 {
		return nil, fmt.Errorf("expected %d layers, got %d", len(sizes)-1, len(layers))
	}
	nIn, nOut := sizes[0], sizes[len(sizes)-1]
	if len(inMin) != nIn || len(inMax) != nIn {
		return nil, fmt.Errorf("input range length mismatch: want %d", nIn)
	}
	if len(outMin) != nOut || len(outMax) != nOut {
		return nil, fmt.Errorf("output range length mismatch: want %d", nOut)
	}

	net := &FFBP{
		sizes:  append([]int(nil), sizes...),
		inMin:  append([]float64(nil), inMin...),
		inMax:  append([]float64(nil), inMax...),
		outMin: append([]float64(nil), outMin...),
		outMax: append([]float64(nil), outMax...),
	}
	for p, layer := range layers {
		rows, cols := sizes[p+1], sizes[p]
		if len(layer.Bias) != rows {
			return nil, fmt.Errorf("layer %d: bias length %d, want %d", p, len(layer.Bias), rows)
		}
		if len(layer.Weights) != rows {
			return nil, fmt.Errorf("layer %d: %d weight rows, want %d", p, len(layer.Weights), rows)
		}
		w := mat.NewDense(rows, cols, nil)
		for r, row := range layer.Weights {
			if len(row) != cols {
				return nil, fmt.Errorf("layer %d row %d: %d weights, want %d", p, r, len(row), cols)
			}
			w.SetRow(r, row)
		}
		net.weights = append(net.weights, w)
		net.biases = append(net.biases, mat.NewVecDense(rows, append([]float64(nil), layer.Bias...)))
	}
	return net, nil
}

// Evaluate runs a forward pass. It allocates its own buffers so concurrent
// calls never share state. The input length must equal InputSize.
func (n *FFBP) Evaluate(in []float64) []float64 {
	if len(in) != n.sizes[0] {
		panic(fmt.Sprintf("nn: input length %d, want %d", len(in), n.sizes[0]))
	}
	x := mat.NewVecDense(len(in), nil)
	for i, v := range in {
		x.SetVec(i, normalize(v, n.inMin[i], n.inMax[i]))
	}

	for p, w := range n.weights {
		y := mat.NewVecDense(n.sizes[p+1], nil)
		y.MulVec(w, x)
		y.AddVec(y, n.biases[p])
		for i := 0; i < y.Len(); i++ {
			y.SetVec(i, sigmoid(y.AtVec(i)))
		}
		x = y
	}

	out := make([]float64, x.Len())
	for i := range out {
		out[i] = n.outMin[i] + x.AtVec(i)*(n.outMax[i]-n.outMin[i])
	}
	return out
}

func (n *FFBP) InputSize() int  { return n.sizes[0] }
func (n *FFBP) OutputSize() int { return n.sizes[len(n.sizes)-1] }

func (n *FFBP) InputMin() []float64  { return append([]float64(nil), n.inMin...) }
func (n *FFBP) InputMax() []float64  { return append([]float64(nil), n.inMax...) }
func (n *FFBP) OutputMin() []float64 { return append([]float64(nil), n.outMin...) }
func (n *FFBP) OutputMax() []float64 { return append([]float64(nil), n.outMax...) }

// Sizes returns the node count of every plane, input plane first.
func (n *FFBP) Sizes() []int { return append([]int(nil), n.sizes...) }

// Topology renders the plane sizes the way net files are usually named, e.g. "15x77x37x5".
func (n *FFBP) Topology() string {
	parts := make([]string, len(n.sizes))
	for i, s := range n.sizes {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, "x")
}

func normalize(v, min, max float64) float64 {
	span := max - min
	if span == 0 {
		return 0
	}
	return (v - min) / span
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
