package vector

import (
	"fmt"
	"reflect"
	"sort"
)

// Keys returns the filter keys in sorted order so that backends building
// query predicates produce stable statements.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Matches reports whether metadata satisfies every key/value pair of the
// filter.
func (f Filter) Matches(metadata map[string]any) bool {
	for k, want := range f {
		got, ok := metadata[k]
		if !ok {
			return false
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares filter values loosely enough that values which went
// through a JSON round trip (numbers become float64, typed string aliases
// become string) still compare equal. Values of any other differing kinds
// never match.
func valuesEqual(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return false
	}

	switch {
	case isNumeric(va.Kind()) && isNumeric(vb.Kind()):
		return numericValue(va) == numericValue(vb)
	case va.Kind() == reflect.String && vb.Kind() == reflect.String:
		return va.String() == vb.String()
	default:
		return false
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func numericValue(v reflect.Value) float64 {
	switch {
	case v.CanInt():
		return float64(v.Int())
	case v.CanUint():
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

// CheckDimensions returns ErrDimensionMismatch when dims is non-zero and the
// embedding length differs from it.
func CheckDimensions(embedding []float32, dims uint) error {
	if dims == 0 || uint(len(embedding)) == dims {
		return nil
	}
	return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(embedding), dims)
}
