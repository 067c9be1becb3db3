package tsort

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	key, seq int
}

func compareItems(a, b item) Ordering { return Compare(a.key, b.key) }

func randomItems(n, keys int, seed int64) []item {
	r := rand.New(rand.NewSource(seed))
	out := make([]item, n)
	for i := range out {
		out[i] = item{key: r.Intn(keys), seq: i}
	}
	return out
}

func assertStable(t *testing.T, data []item, descending bool) {
	t.Helper()
	for i := 1; i < len(data); i++ {
		a, b := data[i-1], data[i]
		if descending {
			require.GreaterOrEqual(t, a.key, b.key, "index %d", i)
		} else {
			require.LessOrEqual(t, a.key, b.key, "index %d", i)
		}
		if a.key == b.key {
			require.Less(t, a.seq, b.seq, "equal keys swapped at %d", i)
		}
	}
}

func TestSortSmall(t *testing.T) {
	assert.NoError(t, Sort([]item(nil), compareItems))
	one := []item{{key: 3}}
	assert.NoError(t, Sort(one, compareItems))
	assert.Equal(t, []item{{key: 3}}, one)

	data := randomItems(40, 5, 1)
	require.NoError(t, Sort(data, compareItems))
	assertStable(t, data, false)
}

func TestSortStableAcrossRuns(t *testing.T) {
	for _, n := range []int{65, 128, 129, 1000, 4097} {
		data := randomItems(n, 17, int64(n))
		var s Sorter[item]
		require.NoError(t, s.Sort(data, compareItems))
		assertStable(t, data, false)
		if n >= 2*RunLength {
			assert.Positive(t, s.Merges(), "n=%d", n)
		}
	}
}

func TestSortIdempotent(t *testing.T) {
	data := randomItems(777, 50, 7)
	require.NoError(t, Sort(data, compareItems))
	once := slices.Clone(data)

	var s Sorter[item]
	require.NoError(t, s.Sort(data, compareItems))
	assert.Equal(t, once, data)
	assert.Zero(t, s.Merges())
}

func TestSortReverse(t *testing.T) {
	data := randomItems(300, 9, 3)
	require.NoError(t, Sort(data, Reverse(compareItems)))
	assertStable(t, data, true)
}

func TestSortNearlySorted(t *testing.T) {
	data := make([]int, 500)
	for i := range data {
		data[i] = i
	}
	data[10], data[11] = data[11], data[10]
	data[300], data[301] = data[301], data[300]

	var s Sorter[int]
	require.NoError(t, s.Sort(data, Compare[int]))
	assert.True(t, IsSorted(data, Compare[int]))
	assert.Zero(t, s.Merges(), "runs were already in order relative to each other")
}

func TestSortScratchLimit(t *testing.T) {
	s := Sorter[int]{Limit: 100}
	data := make([]int, 200)
	for i := range data {
		data[i] = len(data) - i
	}
	err := s.Sort(data, Compare[int])
	assert.ErrorIs(t, err, ErrScratchLimit)

	// Short inputs never need scratch space.
	short := []int{3, 2, 1}
	assert.NoError(t, s.Sort(short, Compare[int]))
	assert.Equal(t, []int{1, 2, 3}, short)
}

func TestKeyValueSort(t *testing.T) {
	var s KeyValueSorter
	kv := []KeyValue{{9, 0}, {1, 1}, {4, 2}}
	require.NoError(t, s.Sort(kv, false))
	assert.Equal(t, []KeyValue{{1, 1}, {4, 2}, {9, 0}}, kv)

	require.NoError(t, s.Sort(kv, true))
	assert.Equal(t, []KeyValue{{9, 0}, {4, 2}, {1, 1}}, kv)
}

func TestKeyValueSortStableLarge(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	kv := make([]KeyValue, 1500)
	for i := range kv {
		kv[i] = KeyValue{Key: float32(r.Intn(20)), Ref: int32(i)}
	}
	var s KeyValueSorter
	require.NoError(t, s.Sort(kv, true))
	for i := 1; i < len(kv); i++ {
		require.GreaterOrEqual(t, kv[i-1].Key, kv[i].Key)
		if kv[i-1].Key == kv[i].Key {
			require.Less(t, kv[i-1].Ref, kv[i].Ref)
		}
	}
	assert.True(t, KeysSorted(kv, true))

	require.NoError(t, s.Sort(kv, true))
	assert.Zero(t, s.Merges())
}
