package crack

import "fmt"

// NgramFilter is an optional precomputed bitmap marking which character
// trigrams are statistically plausible in real names. Searches consult it
// to skip whole enumeration subtrees; it only ever prunes, so a search run
// without a filter is still correct, just slower.
//
// The filter is caller-owned and passed into search settings by reference;
// there is no process-wide filter state. A nil *NgramFilter is valid and
// considers every trigram plausible.
//
// Bit addressing matches the original filter tables: raw byte values
// folded as ((a*k)+b)*k+c mod k^3, one bit per slot, k = rest-charset
// size. Tables generated for the C tooling load unchanged.
type NgramFilter struct {
	base uint32
	bits []byte
}

// NgramFilterSize returns the exact byte size a filter table for the given
// alphabet must have.
func NgramFilterSize(alphabet *Alphabet) int {
	k := alphabet.RestSize()
	return (k*k*k + 7) / 8
}

// NewNgramFilter wraps a filter table for the given alphabet. The table
// must be exactly NgramFilterSize bytes; anything else is rejected with
// ErrFilterSizeMismatch so a short table can never be read out of bounds.
// The table is copied; the caller may release its buffer afterwards.
func NewNgramFilter(alphabet *Alphabet, table []byte) (*NgramFilter, error) {
	want := NgramFilterSize(alphabet)
	if len(table) != want {
		return nil, fmt.Errorf("%w: got %d bytes, alphabet requires %d",
			ErrFilterSizeMismatch, len(table), want)
	}
	bits := make([]byte, len(table))
	copy(bits, table)
	return &NgramFilter{
		base: uint32(alphabet.RestSize()),
		bits: bits,
	}, nil
}

// Plausible reports whether the trigram (a, b, c) is considered plausible.
// A nil filter reports everything plausible.
func (f *NgramFilter) Plausible(a, b, c byte) bool {
	if f == nil {
		return true
	}
	k := f.base
	idx := ((uint32(a)*k+uint32(b))*k + uint32(c)) % (k * k * k)
	return f.bits[idx/8]>>(idx%8)&1 == 1
}
