package coord

// Map is an associative container keyed by Pos4. Buckets are selected with
// Pos4.Hash and entries inside a bucket are matched by full structural
// equality, so two positions colliding on the hash never alias each other.
//
// Map is not safe for concurrent use without external locking.
type Map[V any] struct {
	buckets map[uint64][]mapEntry[V]
	length  int
}

type mapEntry[V any] struct {
	pos   Pos4
	value V
}

// NewMap creates an empty Map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{buckets: make(map[uint64][]mapEntry[V])}
}

// Get returns the value stored under p and whether it was present.
func (m *Map[V]) Get(p Pos4) (V, bool) {
	for _, e := range m.buckets[p.Hash()] {
		if e.pos == p {
			return e.value, true
		}
	}

	var zero V

	return zero, false
}

// Put stores v under p, replacing any previous value.
func (m *Map[V]) Put(p Pos4, v V) {
	h := p.Hash()
	bucket := m.buckets[h]
	for i, e := range bucket {
		if e.pos == p {
			bucket[i].value = v
			return
		}
	}

	m.buckets[h] = append(bucket, mapEntry[V]{pos: p, value: v})
	m.length++
}

// Delete removes the entry stored under p and reports whether one existed.
func (m *Map[V]) Delete(p Pos4) bool {
	h := p.Hash()
	bucket := m.buckets[h]
	for i, e := range bucket {
		if e.pos != p {
			continue
		}

		last := len(bucket) - 1
		bucket[i] = bucket[last]
		bucket = bucket[:last]
		if len(bucket) == 0 {
			delete(m.buckets, h)
		} else {
			m.buckets[h] = bucket
		}
		m.length--

		return true
	}

	return false
}

// Len returns the number of stored entries.
func (m *Map[V]) Len() int {
	return m.length
}

// Range calls fn for every entry until fn returns false. Iteration order is
// unspecified. The map must not be modified during iteration.
func (m *Map[V]) Range(fn func(Pos4, V) bool) {
	for _, bucket := range m.buckets {
		for _, e := range bucket {
			if !fn(e.pos, e.value) {
				return
			}
		}
	}
}
