package tsort

import "fmt"

// KeyValue pairs a float sort key with an opaque reference, usually an index
// into the array being ordered.
type KeyValue struct {
	Key float32
	Ref int32
}

// KeyValueSorter is the Sorter specialisation for KeyValue slices. Keys are
// compared inline instead of through a CompareFunc.
type KeyValueSorter struct {
	Limit int

	scratch []KeyValue
	merges  int
}

// Merges returns how many run merges the last Sort performed.
func (s *KeyValueSorter) Merges() int { return s.merges }

// KeysSorted reports whether kv is already ordered by key.
func KeysSorted(kv []KeyValue, descending bool) bool {
	for i := 1; i < len(kv); i++ {
		if outOfOrder(kv[i-1].Key, kv[i].Key, descending) {
			return false
		}
	}
	return true
}

func outOfOrder(a, b float32, descending bool) bool {
	if descending {
		return a < b
	}
	return a > b
}

// Sort orders kv by key, ascending unless descending is set. Equal keys keep
// their input order in both directions.
func (s *KeyValueSorter) Sort(kv []KeyValue, descending bool) error {
	s.merges = 0
	n := len(kv)
	if n < 2 || KeysSorted(kv, descending) {
		return nil
	}
	if n <= RunLength {
		insertionSortKeys(kv, descending)
		return nil
	}
	if s.Limit > 0 && n > s.Limit {
		return fmt.Errorf("%w: %d pairs, limit %d", ErrScratchLimit, n, s.Limit)
	}

	for lo := 0; lo < n; lo += RunLength {
		insertionSortKeys(kv[lo:min(lo+RunLength, n)], descending)
	}

	if cap(s.scratch) < n {
		s.scratch = make([]KeyValue, n)
	}
	src, dst := kv, s.scratch[:n]
	for width := RunLength; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			if mergeKeys(dst[lo:hi], src[lo:mid], src[mid:hi], descending) {
				s.merges++
			}
		}
		src, dst = dst, src
	}
	if &src[0] != &kv[0] {
		copy(kv, src)
	}
	return nil
}

func insertionSortKeys(kv []KeyValue, descending bool) {
	for i := 1; i < len(kv); i++ {
		v := kv[i]
		j := i
		for j > 0 && outOfOrder(kv[j-1].Key, v.Key, descending) {
			kv[j] = kv[j-1]
			j--
		}
		kv[j] = v
	}
}

func mergeKeys(dst, left, right []KeyValue, descending bool) bool {
	if len(right) == 0 || !outOfOrder(left[len(left)-1].Key, right[0].Key, descending) {
		copy(dst, left)
		copy(dst[len(left):], right)
		return false
	}
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		if outOfOrder(left[i].Key, right[j].Key, descending) {
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
