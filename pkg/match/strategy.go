// Package match resolves live components, styles and variables to the
// registered library they belong to.
package match

// Strategy is one tier of a fallback chain. It reports false when it has
// no opinion about the input.
type Strategy[I, O any] func(I) (O, bool)

// First tries strategies in order and returns the first result.
func First[I, O any](strategies ...Strategy[I, O]) Strategy[I, O] {
	return func(in I) (O, bool) {
		for _, s := range strategies {
			if out, ok := s(in); ok {
				return out, true
			}
		}
		var zero O
		return zero, false
	}
}
