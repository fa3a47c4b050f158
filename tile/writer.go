package tile

import "io"

// Key is either encoded tile type.
type Key interface {
	Tile | Tall
	Bytes() []byte
}

// Bytes returns the encoded tile.
func (t Tile) Bytes() []byte {
	return t[:]
}

// Bytes returns the encoded tile pair, upper tile first.
func (t Tall) Bytes() []byte {
	return t[:]
}

// Encoder writes CHR data, appending each distinct tile the first time it
// is seen.
type Encoder[K Key] struct {
	w    io.Writer
	dict *Dictionary[K]
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder[K Key](w io.Writer) *Encoder[K] {
	return &Encoder[K]{
		w:    w,
		dict: NewDictionary[K](),
	}
}

// Encode returns the index of t, writing it to the underlying writer if it
// is new.
func (e *Encoder[K]) Encode(t K) (int, error) {
	i, added := e.dict.Add(t)
	if !added {
		return i, nil
	}
	if _, err := e.w.Write(t.Bytes()); err != nil {
		return 0, err
	}
	return i, nil
}

// Len returns the number of distinct tiles written.
func (e *Encoder[K]) Len() int {
	return e.dict.Len()
}

// Dictionary returns the dictionary of tiles written so far.
func (e *Encoder[K]) Dictionary() *Dictionary[K] {
	return e.dict
}

// Reset starts a new dictionary writing to w.
func (e *Encoder[K]) Reset(w io.Writer) {
	e.w = w
	e.dict.Reset()
}
