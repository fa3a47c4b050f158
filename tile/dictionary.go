package tile

// Dictionary numbers distinct keys in the order they are first added.
type Dictionary[K comparable] struct {
	index map[K]int
	keys  []K
}

// NewDictionary returns an empty dictionary.
func NewDictionary[K comparable]() *Dictionary[K] {
	return &Dictionary[K]{
		index: make(map[K]int),
	}
}

// Add returns the index of k, adding it if it has not been seen before.
// The boolean reports whether k was added.
func (d *Dictionary[K]) Add(k K) (int, bool) {
	if i, ok := d.index[k]; ok {
		return i, false
	}
	i := len(d.keys)
	d.index[k] = i
	d.keys = append(d.keys, k)
	return i, true
}

// Len returns the number of keys.
func (d *Dictionary[K]) Len() int {
	return len(d.keys)
}

// Clone returns an independent copy of d.
func (d *Dictionary[K]) Clone() *Dictionary[K] {
	c := &Dictionary[K]{
		index: make(map[K]int, len(d.index)),
		keys:  append([]K(nil), d.keys...),
	}
	for k, v := range d.index {
		c.index[k] = v
	}
	return c
}

// Reset empties the dictionary.
func (d *Dictionary[K]) Reset() {
	d.index = make(map[K]int)
	d.keys = nil
}
