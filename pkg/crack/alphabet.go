// Package crack is a preimage search engine for the Wwise FNV-1 name hash:
// given 32-bit target hashes and an alphabet with positional rules, it
// recovers short names whose hash lands in the target set, either by direct
// enumeration or by a meet-in-the-middle split.
package crack

import "fmt"

// MaxCandidateLength is the longest candidate name the engine will
// enumerate. It mirrors the 32-byte candidate buffers (31 usable characters
// plus a terminator) the original tooling used; requests beyond it are a
// contract violation, not a silent truncation.
const MaxCandidateLength = 31

// Wwise naming rules: the first character of an event name is a letter,
// the remaining characters may also be an underscore or a digit.
const (
	wwiseFirstCharset = "abcdefghijklmnopqrstuvwxyz"
	wwiseRestCharset  = "abcdefghijklmnopqrstuvwxyz_0123456789"
)

// Alphabet is an ordered, duplicate-free character set, optionally split
// into a restricted first-position set and a broader set for all remaining
// positions. The order defines enumeration order. Immutable once built.
//
// Character-to-index lookup is a 256-entry table built once here, so the
// enumerator's increment step never scans the charset.
type Alphabet struct {
	first []byte
	rest  []byte

	firstIndex [256]int16
	restIndex  [256]int16
}

// NewAlphabet builds a uniform alphabet: every position draws from chars.
func NewAlphabet(chars string) (*Alphabet, error) {
	return NewSplitAlphabet(chars, chars)
}

// NewSplitAlphabet builds an alphabet where position 0 draws from first and
// every later position draws from rest.
func NewSplitAlphabet(first, rest string) (*Alphabet, error) {
	a := &Alphabet{}
	var err error
	if a.first, err = checkCharset(&a.firstIndex, first); err != nil {
		return nil, fmt.Errorf("first-position charset: %w", err)
	}
	if a.rest, err = checkCharset(&a.restIndex, rest); err != nil {
		return nil, fmt.Errorf("rest-position charset: %w", err)
	}
	return a, nil
}

// WwiseAlphabet returns the alphabet matching the Wwise event naming rules
// (first char a-z, rest a-z_0-9).
func WwiseAlphabet() *Alphabet {
	a, err := NewSplitAlphabet(wwiseFirstCharset, wwiseRestCharset)
	if err != nil {
		panic(err) // the charsets above are constants
	}
	return a
}

func checkCharset(index *[256]int16, chars string) ([]byte, error) {
	if len(chars) == 0 {
		return nil, fmt.Errorf("%w: empty charset", ErrInvalidAlphabet)
	}
	for i := range index {
		index[i] = -1
	}
	out := make([]byte, 0, len(chars))
	for i := 0; i < len(chars); i++ {
		c := chars[i]
		if c >= 0x80 {
			return nil, fmt.Errorf("%w: non-ASCII byte 0x%02X", ErrInvalidAlphabet, c)
		}
		if index[c] >= 0 {
			return nil, fmt.Errorf("%w: duplicate character %q", ErrInvalidAlphabet, c)
		}
		index[c] = int16(i)
		out = append(out, c)
	}
	return out, nil
}

// FirstSize returns the number of characters usable at position 0.
func (a *Alphabet) FirstSize() int { return len(a.first) }

// RestSize returns the number of characters usable at positions 1+.
func (a *Alphabet) RestSize() int { return len(a.rest) }

// sizeAt returns the charset size for a position. Interior positions (and
// any position when interior is set) use the rest charset.
func (a *Alphabet) sizeAt(pos int, interior bool) int {
	if pos == 0 && !interior {
		return len(a.first)
	}
	return len(a.rest)
}

// charAt returns the idx-th character of the charset governing a position.
func (a *Alphabet) charAt(pos, idx int, interior bool) byte {
	if pos == 0 && !interior {
		return a.first[idx]
	}
	return a.rest[idx]
}

// indexAt returns the index of c within the charset governing a position,
// or -1 when c is not part of it.
func (a *Alphabet) indexAt(pos int, c byte, interior bool) int {
	if pos == 0 && !interior {
		return int(a.firstIndex[c])
	}
	return int(a.restIndex[c])
}

// SpaceSize returns the number of candidates of the given length,
// saturating at the maximum uint64 on overflow.
func (a *Alphabet) SpaceSize(length int, interior bool) uint64 {
	total := uint64(1)
	for pos := 0; pos < length; pos++ {
		size := uint64(a.sizeAt(pos, interior))
		if total > ^uint64(0)/size {
			return ^uint64(0)
		}
		total *= size
	}
	return total
}
