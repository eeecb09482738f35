// Package nn provides the neural network capability used by the pixel
// algorithm: an immutable model that maps an input vector to an output
// vector and declares the value ranges it was trained on.
package nn

// Model is a loaded, read-only network. Implementations must be safe for
// concurrent use; Evaluate must not retain or mutate shared state.
type Model interface {
	Evaluate(in []float64) []float64
	InputSize() int
	OutputSize() int
	InputMin() []float64
	InputMax() []float64
	OutputMin() []float64
	OutputMax() []float64
}

// OutOfRange reports whether any value lies outside [min[i], max[i]].
// Only the first len(min) components are checked.
func OutOfRange(values, min, max []float64) bool {
	for i := range min {
		if i >= len(values) {
			break
		}
		if values[i] < min[i] || values[i] > max[i] {
			return true
		}
	}
	return false
}
