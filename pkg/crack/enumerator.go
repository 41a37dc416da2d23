package crack

import "fmt"

// Enumerator walks every fixed-length candidate over an Alphabet in
// lexicographic-by-index order, rightmost position varying fastest
// (odometer semantics). The candidate buffer is allocated once and
// advanced in place; Candidate returns a view into it.
//
// A fixed prefix may be seeded: only the positions after it advance. In
// interior mode position 0 uses the rest-charset, which is how suffix
// tables are generated (a suffix never sits at position 0 of a name).
type Enumerator struct {
	alphabet *Alphabet
	interior bool

	buf   []byte
	idx   []int16
	start int
	done  bool
}

// NewEnumerator returns an Enumerator over candidates of the given length,
// optionally seeded with a fixed prefix (prefix may be empty). It is
// positioned at the first candidate; drive it with Next.
func NewEnumerator(alphabet *Alphabet, length int, prefix string) (*Enumerator, error) {
	return newEnumerator(alphabet, length, prefix, false)
}

// NewInteriorEnumerator is NewEnumerator without the first-position rule:
// every position, including the first, draws from the rest-charset.
func NewInteriorEnumerator(alphabet *Alphabet, length int) (*Enumerator, error) {
	return newEnumerator(alphabet, length, "", true)
}

func newEnumerator(alphabet *Alphabet, length int, prefix string, interior bool) (*Enumerator, error) {
	if length < 1 || length > MaxCandidateLength {
		return nil, fmt.Errorf("%w: length %d not in [1, %d]", ErrLengthOutOfRange, length, MaxCandidateLength)
	}
	if len(prefix) > length {
		return nil, fmt.Errorf("%w: prefix %q longer than candidate length %d", ErrLengthOutOfRange, prefix, length)
	}

	e := &Enumerator{
		alphabet: alphabet,
		interior: interior,
		buf:      make([]byte, length),
		idx:      make([]int16, length),
		start:    len(prefix),
	}
	copy(e.buf, prefix)
	e.Reset()
	return e, nil
}

// Reset rewinds the Enumerator to the first candidate.
func (e *Enumerator) Reset() {
	for pos := e.start; pos < len(e.buf); pos++ {
		e.idx[pos] = 0
		e.buf[pos] = e.alphabet.charAt(pos, 0, e.interior)
	}
	e.done = false
}

// Candidate returns the current candidate. The slice aliases the internal
// buffer and is only valid until the next call to Next or SkipFrom.
func (e *Enumerator) Candidate() []byte { return e.buf }

// Length returns the candidate length.
func (e *Enumerator) Length() int { return len(e.buf) }

// PrefixLength returns the number of fixed (seeded) leading positions.
func (e *Enumerator) PrefixLength() int { return e.start }

// SpaceSize returns the total number of candidates this Enumerator yields.
func (e *Enumerator) SpaceSize() uint64 {
	total := uint64(1)
	for pos := e.start; pos < len(e.buf); pos++ {
		total *= uint64(e.alphabet.sizeAt(pos, e.interior))
	}
	return total
}

// Next advances to the next candidate, returning false once the sequence
// is exhausted.
func (e *Enumerator) Next() bool {
	return e.advanceFrom(len(e.buf) - 1)
}

// SkipFrom abandons the subtree below position pos: every candidate
// sharing the current characters at positions [0, pos] is skipped. Used by
// n-gram pruning to discard a whole block whose leading trigram is
// implausible. Returns false once the sequence is exhausted.
func (e *Enumerator) SkipFrom(pos int) bool {
	if pos >= len(e.buf) {
		pos = len(e.buf) - 1
	}
	return e.advanceFrom(pos)
}

// advanceFrom increments position pos, carrying leftward, and rewinds
// every position to its right.
func (e *Enumerator) advanceFrom(pos int) bool {
	if e.done {
		return false
	}
	p := pos + 1
	if p < e.start {
		p = e.start
	}
	for ; p < len(e.buf); p++ {
		e.idx[p] = 0
		e.buf[p] = e.alphabet.charAt(p, 0, e.interior)
	}
	for ; pos >= e.start; pos-- {
		next := int(e.idx[pos]) + 1
		if next < e.alphabet.sizeAt(pos, e.interior) {
			e.idx[pos] = int16(next)
			e.buf[pos] = e.alphabet.charAt(pos, next, e.interior)
			return true
		}
		e.idx[pos] = 0
		e.buf[pos] = e.alphabet.charAt(pos, 0, e.interior)
	}
	e.done = true
	return false
}
