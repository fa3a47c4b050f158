package palette

import (
	"fmt"
	"math/bits"
	"strings"
)

// Colors is an ordered set of color indices. The zero value is an empty set
// and values can be compared with ==.
type Colors [4]uint64

// NewColors returns a set containing cs.
func NewColors(cs ...uint8) Colors {
	var s Colors
	for _, c := range cs {
		s = s.Add(c)
	}
	return s
}

// Add returns s with c added.
func (s Colors) Add(c uint8) Colors {
	s[c>>6] |= 1 << (c & 63)
	return s
}

// Remove returns s with c removed.
func (s Colors) Remove(c uint8) Colors {
	s[c>>6] &^= 1 << (c & 63)
	return s
}

// Has reports whether c is a member of s.
func (s Colors) Has(c uint8) bool {
	return s[c>>6]&(1<<(c&63)) != 0
}

// Len returns the number of members.
func (s Colors) Len() int {
	return bits.OnesCount64(s[0]) + bits.OnesCount64(s[1]) + bits.OnesCount64(s[2]) + bits.OnesCount64(s[3])
}

// Empty reports whether s has no members.
func (s Colors) Empty() bool {
	return s == Colors{}
}

// Union returns the members of either set.
func (s Colors) Union(o Colors) Colors {
	for i := range s {
		s[i] |= o[i]
	}
	return s
}

// Intersect returns the members of both sets.
func (s Colors) Intersect(o Colors) Colors {
	for i := range s {
		s[i] &= o[i]
	}
	return s
}

// SubsetOf reports whether every member of s is also in o.
func (s Colors) SubsetOf(o Colors) bool {
	for i := range s {
		if s[i]&^o[i] != 0 {
			return false
		}
	}
	return true
}

// Slice returns the members in ascending order.
func (s Colors) Slice() []uint8 {
	out := make([]uint8, 0, s.Len())
	for i, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, uint8(i<<6+b))
			w &^= 1 << b
		}
	}
	return out
}

// Slot returns the 1-based position of c in ascending order, or 0 if c is
// not a member. Slot 0 is reserved for the shared background color.
func (s Colors) Slot(c uint8) int {
	if !s.Has(c) {
		return 0
	}
	n := 1
	for i := 0; i < int(c>>6); i++ {
		n += bits.OnesCount64(s[i])
	}
	return n + bits.OnesCount64(s[c>>6]&(1<<(c&63)-1))
}

func (s Colors) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, c := range s.Slice() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
	}
	sb.WriteByte('}')
	return sb.String()
}
