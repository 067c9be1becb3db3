// Package tsort implements a stable hybrid insertion/merge sort.
//
// The input is cut into runs of RunLength elements, each run is insertion
// sorted, then adjacent runs are merged bottom-up through a scratch buffer
// until one run spans the whole array. Particle arrays tend to arrive in
// almost the order they left the previous frame in, which keeps the
// insertion passes close to linear.
package tsort

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// RunLength is the size of the insertion-sorted runs.
const RunLength = 64

// ErrScratchLimit is returned when a sort would need a scratch buffer larger
// than the sorter's Limit.
var ErrScratchLimit = errors.New("tsort: scratch buffer limit exceeded")

// Ordering is the result of a three-way comparison.
type Ordering int8

const (
	Lesser  Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

// CompareFunc orders a against b.
type CompareFunc[T any] func(a, b T) Ordering

// Compare orders two values of an ordered type.
func Compare[T constraints.Ordered](a, b T) Ordering {
	switch {
	case a < b:
		return Lesser
	case a > b:
		return Greater
	}
	return Equal
}

// Reverse swaps the operands of cmp so the sort runs in descending order.
// Equal elements still compare Equal and keep their input order.
func Reverse[T any](cmp CompareFunc[T]) CompareFunc[T] {
	return func(a, b T) Ordering { return cmp(b, a) }
}

// IsSorted reports whether data is already in ascending order under cmp.
func IsSorted[T any](data []T, cmp CompareFunc[T]) bool {
	for i := 1; i < len(data); i++ {
		if cmp(data[i-1], data[i]) == Greater {
			return false
		}
	}
	return true
}

// Sort sorts data with a throwaway Sorter.
func Sort[T any](data []T, cmp CompareFunc[T]) error {
	var s Sorter[T]
	return s.Sort(data, cmp)
}

// Sorter keeps its scratch buffer between calls so per-frame sorting does
// not allocate once it has warmed up.
type Sorter[T any] struct {
	// Limit caps the number of elements a merge pass may buffer. Zero means
	// no limit.
	Limit int

	scratch []T
	merges  int
}

// Merges returns how many run merges the last Sort performed.
func (s *Sorter[T]) Merges() int { return s.merges }

// Sort sorts data in place, stable for elements that compare Equal.
// Already ordered input returns after a single scan.
func (s *Sorter[T]) Sort(data []T, cmp CompareFunc[T]) error {
	s.merges = 0
	n := len(data)
	if n < 2 || IsSorted(data, cmp) {
		return nil
	}
	if n <= RunLength {
		insertionSort(data, cmp)
		return nil
	}
	if s.Limit > 0 && n > s.Limit {
		return fmt.Errorf("%w: %d elements, limit %d", ErrScratchLimit, n, s.Limit)
	}

	for lo := 0; lo < n; lo += RunLength {
		insertionSort(data[lo:min(lo+RunLength, n)], cmp)
	}

	if cap(s.scratch) < n {
		s.scratch = make([]T, n)
	}
	src, dst := data, s.scratch[:n]
	for width := RunLength; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			if s.merge(dst[lo:hi], src[lo:mid], src[mid:hi], cmp) {
				s.merges++
			}
		}
		src, dst = dst, src
	}
	if &src[0] != &data[0] {
		copy(data, src)
	}
	return nil
}

func insertionSort[T any](data []T, cmp CompareFunc[T]) {
	for i := 1; i < len(data); i++ {
		v := data[i]
		j := i
		for j > 0 && cmp(data[j-1], v) == Greater {
			data[j] = data[j-1]
			j--
		}
		data[j] = v
	}
}

// merge writes left+right into dst and reports whether any interleaving
// work was needed.
func (s *Sorter[T]) merge(dst, left, right []T, cmp CompareFunc[T]) bool {
	if len(right) == 0 || cmp(left[len(left)-1], right[0]) != Greater {
		copy(dst, left)
		copy(dst[len(left):], right)
		return false
	}
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		if cmp(left[i], right[j]) == Greater {
			dst[k] = right[j]
			j++
		} else {
			dst[k] = left[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], left[i:])
	copy(dst[k:], right[j:])
	return true
}
