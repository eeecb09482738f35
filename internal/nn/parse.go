package nn

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads a network in the FFBP text format:
//
//	free header text, ignored up to a line starting with '$'
//	#planes=N s0 s1 ... sN-1
//	s0 lines "min max" for the inputs
//	sN-1 lines "min max" for the outputs
//	for p=1..N-1: "bias p-1 sp" followed by sp values
//	for p=1..N-1: "wgt p-1 sp s(p-1)" followed by sp rows of s(p-1) values
//
// The header is returned separately so callers can surface it.
func Parse(r io.Reader) (*FFBP, string, error) {
	header, tokens, err := tokenize(r)
	if err != nil {
		return nil, "", err
	}
	p := &parser{tokens: tokens}

	planesTok, err := p.next()
	if err != nil {
		return nil, header, err
	}
	if !strings.HasPrefix(planesTok, "#planes=") {
		return nil, header, fmt.Errorf("expected #planes=, got %q", planesTok)
	}
	nPlanes, err := strconv.Atoi(strings.TrimPrefix(planesTok, "#planes="))
	if err != nil || nPlanes < 2 {
		return nil, header, fmt.Errorf("invalid plane count %q", planesTok)
	}
	sizes := make([]int, nPlanes)
	for i := range sizes {
		if sizes[i], err = p.int(); err != nil {
			return nil, header, fmt.Errorf("plane size %d: %w", i, err)
		}
	}

	nIn, nOut := sizes[0], sizes[nPlanes-1]
	inMin, inMax, err := p.ranges(nIn)
	if err != nil {
		return nil, header, fmt.Errorf("input ranges: %w", err)
	}
	outMin, outMax, err := p.ranges(nOut)
	if err != nil {
		return nil, header, fmt.Errorf("output ranges: %w", err)
	}

	layers := make([]Layer, nPlanes-1)
	for l := range layers {
		if err := p.keyword("bias", l, sizes[l+1]); err != nil {
			return nil, header, err
		}
		if layers[l].Bias, err = p.floats(sizes[l+1]); err != nil {
			return nil, header, fmt.Errorf("bias %d: %w", l, err)
		}
	}
	for l := range layers {
		if err := p.keyword("wgt", l, sizes[l+1], sizes[l]); err != nil {
			return nil, header, err
		}
		rows := make([][]float64, sizes[l+1])
		for r := range rows {
			if rows[r], err = p.floats(sizes[l]); err != nil {
				return nil, header, fmt.Errorf("wgt %d row %d: %w", l, r, err)
			}
		}
		layers[l].Weights = rows
	}

	net, err := NewFFBP(sizes, inMin, inMax, outMin, outMax, layers)
	if err != nil {
		return nil, header, err
	}
	return net, header, nil
}

// Write serialises a network in the format accepted by Parse.
func Write(w io.Writer, net *FFBP, header string) error {
	bw := bufio.NewWriter(w)
	if header != "" {
		fmt.Fprintln(bw, strings.TrimRight(header, "\n"))
	}
	fmt.Fprintln(bw, "$")
	fmt.Fprintf(bw, "#planes=%d", len(net.sizes))
	for _, s := range net.sizes {
		fmt.Fprintf(bw, " %d", s)
	}
	fmt.Fprintln(bw)
	for i := range net.inMin {
		fmt.Fprintf(bw, "%s %s\n", ftoa(net.inMin[i]), ftoa(net.inMax[i]))
	}
	for i := range net.outMin {
		fmt.Fprintf(bw, "%s %s\n", ftoa(net.outMin[i]), ftoa(net.outMax[i]))
	}
	for l, b := range net.biases {
		fmt.Fprintf(bw, "bias %d %d\n", l, b.Len())
		for i := 0; i < b.Len(); i++ {
			fmt.Fprintln(bw, ftoa(b.AtVec(i)))
		}
	}
	for l, wm := range net.weights {
		rows, cols := wm.Dims()
		fmt.Fprintf(bw, "wgt %d %d %d\n", l, rows, cols)
		for r := 0; r < rows; r++ {
			vals := make([]string, cols)
			for c := 0; c < cols; c++ {
				vals[c] = ftoa(wm.At(r, c))
			}
			fmt.Fprintln(bw, strings.Join(vals, " "))
		}
	}
	return bw.Flush()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func tokenize(r io.Reader) (string, []string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var header strings.Builder
	var tokens []string
	inBody := false
	for sc.Scan() {
		line := sc.Text()
		if !inBody {
			if strings.HasPrefix(line, "$") {
				inBody = true
				continue
			}
			header.WriteString(line)
			header.WriteByte('\n')
			continue
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	if err := sc.Err(); err != nil {
		return "", nil, err
	}
	if !inBody {
		return "", nil, fmt.Errorf("missing '$' header terminator")
	}
	return header.String(), tokens, nil
}

type parser struct {
	tokens []string
	pos    int
}

func (p *parser) next() (string, error) {
	if p.pos >= len(p.tokens) {
		return "", io.ErrUnexpectedEOF
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, nil
}

func (p *parser) int() (int, error) {
	t, err := p.next()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(t)
}

func (p *parser) floats(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		t, err := p.next()
		if err != nil {
			return nil, err
		}
		if out[i], err = strconv.ParseFloat(t, 64); err != nil {
			return nil, fmt.Errorf("value %q: %w", t, err)
		}
	}
	return out, nil
}

func (p *parser) ranges(n int) ([]float64, []float64, error) {
	min := make([]float64, n)
	max := make([]float64, n)
	for i := 0; i < n; i++ {
		pair, err := p.floats(2)
		if err != nil {
			return nil, nil, fmt.Errorf("range %d: %w", i, err)
		}
		min[i], max[i] = pair[0], pair[1]
	}
	return min, max, nil
}

func (p *parser) keyword(word string, want ...int) error {
	t, err := p.next()
	if err != nil {
		return fmt.Errorf("expected %q: %w", word, err)
	}
	if t != word {
		return fmt.Errorf("expected %q, got %q", word, t)
	}
	for i, w := range want {
		got, err := p.int()
		if err != nil {
			return fmt.Errorf("%s header field %d: %w", word, i, err)
		}
		if got != w {
			return fmt.Errorf("%s header field %d: got %d, want %d", word, i, got, w)
		}
	}
	return nil
}
