package tensors

import (
	"bytes"
	"fmt"
	"strings"
)

// maxPrintedLen is the maximum number of entries printed along an axis: longer axes print only
// their first and last maxPrintedLen/2 entries.
const maxPrintedLen = 6

// Summary returns a multi-line summary of the Array's content, with the outermost axis first.
// Inspired by numpy output.
//
// Floats are printed with the given precision, or with the shortest exact representation if
// precision is negative. Axes longer than 6 entries are elided in the middle.
func (a *Array[T]) Summary(precision int) string {
	var buf bytes.Buffer
	w := func(format string, args ...any) { _, _ = fmt.Fprintf(&buf, format, args...) }
	wValue := func(value T) {
		switch x := any(value).(type) {
		case float32:
			w("%.*g", precision, x)
		case float64:
			w("%.*g", precision, x)
		default:
			w("%v", x)
		}
	}

	w("(%s)%s", a.DType(), a.shape)
	var recursive func(v View[T], indent int)
	recursive = func(v View[T], indent int) {
		n := v.Len()
		if v.Rank() == 1 {
			w("{")
			for ii, value := range v.data {
				if skipped(ii, n) {
					continue
				}
				if ii > 0 {
					w(", ")
				}
				if n > maxPrintedLen && ii == n-maxPrintedLen/2 {
					w("..., ")
				}
				wValue(value)
			}
			w("}")
			return
		}

		w("{\n")
		prefix := strings.Repeat(" ", indent+1)
		for ii, sub := range v.Iter() {
			if skipped(ii, n) {
				continue
			}
			if n > maxPrintedLen && ii == n-maxPrintedLen/2 {
				w("%s...,\n", prefix)
			}
			w("%s", prefix)
			recursive(sub, indent+1)
			if ii < n-1 {
				w(",\n")
			}
		}
		w("}")
	}
	recursive(a.View(), 0)
	return buf.String()
}

// skipped returns whether the entry at index of an axis of length n is elided when printing.
func skipped(index, n int) bool {
	if n <= maxPrintedLen {
		return false
	}
	half := maxPrintedLen / 2
	return index >= half && index < n-half
}
