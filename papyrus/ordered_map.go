package papyrus

import "github.com/probechain/papyrus-core/common"

// listErrorf builds a *common.ListError for a failed element within a
// length-prefixed collection (§7 ListError).
func listErrorf(index, count int, cause error) error {
	return &common.ListError{Index: index, Count: count, Cause: cause}
}

// elementErrorf wraps a per-node decode failure (§7 ElementError).
func elementErrorf(partial interface{}, cause error) error {
	return &common.ElementError{Element: partial, Cause: cause}
}

// orderedMap is an insertion-ordered keyed collection. Iteration order is
// always insertion order (§5 "Ordering guarantees"), which for every
// primary collection in the Papyrus block is also read order and write
// order.
type orderedMap[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func newOrderedMap[K comparable, V any](capacity int) *orderedMap[K, V] {
	return &orderedMap[K, V]{keys: make([]K, 0, capacity), values: make(map[K]V, capacity)}
}

func (m *orderedMap[K, V]) Set(k K, v V) {
	if _, exists := m.values[k]; !exists {
		m.keys = append(m.keys, k)
	}
	m.values[k] = v
}

func (m *orderedMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.values[k]
	return v, ok
}

func (m *orderedMap[K, V]) Delete(k K) {
	if _, ok := m.values[k]; !ok {
		return
	}
	delete(m.values, k)
	for i, kk := range m.keys {
		if kk == k {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *orderedMap[K, V]) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *orderedMap[K, V]) Keys() []K { return m.keys }

// Values returns the values in insertion (key) order.
func (m *orderedMap[K, V]) Values() []V {
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.values[k])
	}
	return out
}

// Each iterates in insertion order.
func (m *orderedMap[K, V]) Each(fn func(K, V)) {
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}
