package nn

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyNet = `problem: tiny test net
trained on nothing
$
#planes=3 2 3 1
0 10
-1 1
100 200
bias 0 3
0
0.5
-0.5
bias 1 1
0.1
wgt 0 3 2
1 0
0 1
0.5 0.5
wgt 1 1 3
1 -1 2
`

func TestParse_TinyNet(t *testing.T) {
	net, header, err := Parse(strings.NewReader(tinyNet))
	require.NoError(t, err)

	assert.Contains(t, header, "problem: tiny test net")
	assert.Equal(t, []int{2, 3, 1}, net.Sizes())
	assert.Equal(t, "2x3x1", net.Topology())
	assert.Equal(t, 2, net.InputSize())
	assert.Equal(t, 1, net.OutputSize())
	assert.Equal(t, []float64{0, -1}, net.InputMin())
	assert.Equal(t, []float64{10, 1}, net.InputMax())
	assert.Equal(t, []float64{100}, net.OutputMin())
	assert.Equal(t, []float64{200}, net.OutputMax())
}

func TestEvaluate_MatchesHandComputation(t *testing.T) {
	net, _, err := Parse(strings.NewReader(tinyNet))
	require.NoError(t, err)

	in := []float64{5, 0}
	x0, x1 := 0.5, 0.5
	h0 := sigmoid(1*x0 + 0*x1 + 0)
	h1 := sigmoid(0*x0 + 1*x1 + 0.5)
	h2 := sigmoid(0.5*x0 + 0.5*x1 - 0.5)
	o := sigmoid(h0 - h1 + 2*h2 + 0.1)
	want := 100 + o*100

	got := net.Evaluate(in)
	require.Len(t, got, 1)
	assert.InDelta(t, want, got[0], 1e-12)
}

func TestEvaluate_OutputStaysWithinRange(t *testing.T) {
	net, _, err := Parse(strings.NewReader(tinyNet))
	require.NoError(t, err)

	for _, in := range [][]float64{{-1e6, -1e6}, {0, 0}, {1e6, 1e6}} {
		out := net.Evaluate(in)
		assert.GreaterOrEqual(t, out[0], 100.0)
		assert.LessOrEqual(t, out[0], 200.0)
	}
}

func TestEvaluate_Concurrent(t *testing.T) {
	net, _, err := Parse(strings.NewReader(tinyNet))
	require.NoError(t, err)
	want := net.Evaluate([]float64{3, 0.25})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got := net.Evaluate([]float64{3, 0.25})
				if got[0] != want[0] {
					t.Errorf("concurrent evaluation diverged: %v != %v", got[0], want[0])
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestEvaluate_WrongInputLengthPanics(t *testing.T) {
	net, _, err := Parse(strings.NewReader(tinyNet))
	require.NoError(t, err)
	assert.Panics(t, func() { net.Evaluate([]float64{1}) })
}

func TestWrite_ParsesBackToSameBehaviour(t *testing.T) {
	net, header, err := Parse(strings.NewReader(tinyNet))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, net, header))

	again, _, err := Parse(&buf)
	require.NoError(t, err)
	for _, in := range [][]float64{{0, 0}, {2.5, -0.3}, {9, 1}} {
		assert.Equal(t, net.Evaluate(in), again.Evaluate(in))
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"no terminator", "just a header\n#planes=2 1 1\n", "missing '$'"},
		{"bad planes", "$\n#plans=2 1 1\n", "expected #planes="},
		{"truncated", "$\n#planes=2 1 1\n0 1\n", "output ranges"},
		{"wrong bias header", "$\n#planes=2 1 1\n0 1\n0 1\nbias 0 2\n0\n", "got 2, want 1"},
		{"wrong keyword", "$\n#planes=2 1 1\n0 1\n0 1\nwgt 0 1\n0\n", `expected "bias"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestNewFFBP_RejectsMismatchedLayers(t *testing.T) {
	_, err := NewFFBP([]int{2, 1}, []float64{0, 0}, []float64{1, 1}, []float64{0}, []float64{1},
		[]Layer{{Weights: [][]float64{{1}}, Bias: []float64{0}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 weights, want 2")
}

func TestNormalize_ZeroSpan(t *testing.T) {
	assert.Equal(t, 0.0, normalize(5, 3, 3))
	assert.False(t, math.IsNaN(normalize(5, 3, 3)))
}

func TestOutOfRange(t *testing.T) {
	min := []float64{0, 0}
	max := []float64{1, 1}
	assert.False(t, OutOfRange([]float64{0, 1}, min, max))
	assert.True(t, OutOfRange([]float64{0, 1.01}, min, max))
	assert.True(t, OutOfRange([]float64{-0.01, 0.5}, min, max))
	// extra components beyond the declared ranges are ignored
	assert.False(t, OutOfRange([]float64{0.5, 0.5, 99}, min, max))
}
