// Package fnv1 implements the 32-bit FNV-1 variant used by Audiokinetic
// Wwise to derive event and object IDs from symbolic names
// (AkFNVHash.h: multiply by the prime first, then XOR in the byte).
//
// The primitive is case-insensitive by construction: every byte is
// lower-cased before it is folded in, so callers never normalize input
// themselves.
package fnv1

const (
	// OffsetBasis is Hash32::s_offsetBasis from the Wwise SDK.
	OffsetBasis uint32 = 2166136261

	// Prime is Hash32::Prime() from the Wwise SDK.
	Prime uint32 = 16777619

	// PrimeInverse is the multiplicative inverse of Prime modulo 2^32.
	// It exists because Prime is odd; it is what makes HashInverse (and
	// therefore meet-in-the-middle search) possible.
	PrimeInverse uint32 = 899433627

	hash30Mask uint32 = 0x3FFFFFFF
)

func foldLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	return c
}

// Hash returns the Wwise FNV-1 hash of s.
func Hash(s string) uint32 {
	return HashContinue(OffsetBasis, s)
}

// HashLen hashes exactly n bytes of b. It is the terminator-free form of
// Hash for callers that already know the length. n must not exceed len(b).
func HashLen(b []byte, n int) uint32 {
	return HashContinueBytes(OffsetBasis, b[:n])
}

// HashContinue resumes folding from an existing accumulator value,
// appending the bytes of s. For any p and s:
//
//	HashContinue(Hash(p), s) == Hash(p + s)
//
// which is the identity prefix-hash caching relies on.
func HashContinue(prev uint32, s string) uint32 {
	h := prev
	for i := 0; i < len(s); i++ {
		h *= Prime
		h ^= uint32(foldLower(s[i]))
	}
	return h
}

// HashContinueBytes is HashContinue over a byte slice. Search inner loops
// use it to hash reused candidate buffers without a string conversion.
func HashContinueBytes(prev uint32, b []byte) uint32 {
	h := prev
	for i := 0; i < len(b); i++ {
		h *= Prime
		h ^= uint32(foldLower(b[i]))
	}
	return h
}

// HashInverse unwinds a known suffix from a hash value: given the hash of
// some prefix+suffix and the suffix itself, it returns what the hash of the
// prefix alone must have been. For any p and s:
//
//	HashInverse(Hash(p+s), s) == Hash(p)
//
// Each byte is XORed back out (XOR is self-inverse) and the accumulator is
// multiplied by PrimeInverse, walking the suffix from last byte to first.
func HashInverse(target uint32, suffix string) uint32 {
	h := target
	for i := len(suffix) - 1; i >= 0; i-- {
		h = (h ^ uint32(foldLower(suffix[i]))) * PrimeInverse
	}
	return h
}

// HashInverseBytes is HashInverse over a byte slice.
func HashInverseBytes(target uint32, suffix []byte) uint32 {
	h := target
	for i := len(suffix) - 1; i >= 0; i-- {
		h = (h ^ uint32(foldLower(suffix[i]))) * PrimeInverse
	}
	return h
}

// FoldTo30 XOR-folds the top two bits of a 32-bit hash down into a 30-bit
// value (Hash30 in the Wwise SDK). Purely a bit operation.
func FoldTo30(h uint32) uint32 {
	return (h >> 30) ^ (h & hash30Mask)
}

// Hash30 is the 30-bit hash of s: Hash followed by FoldTo30.
func Hash30(s string) uint32 {
	return FoldTo30(Hash(s))
}
