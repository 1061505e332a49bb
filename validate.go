package imgblend

import "fmt"

// Validate checks that all layers share the shape of the first one.
// It reports the first offending layer as *MismatchError.
func Validate(layers ...Layer) error {
	if len(layers) == 0 {
		return nil
	}
	for i, l := range layers {
		if l == nil || l.Empty() {
			return fmt.Errorf("%w: input %d has no samples", ErrEmptySurface, i)
		}
	}
	want := layers[0].Shape()
	if !want.Valid() {
		return fmt.Errorf("%w: input 0 has unsupported shape %s", ErrMismatch, want)
	}
	for i := 1; i < len(layers); i++ {
		if got := layers[i].Shape(); got != want {
			return &MismatchError{Index: i, Got: got, Want: want}
		}
	}
	return nil
}
