package crack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collectCandidates(t *testing.T, e *Enumerator) []string {
	t.Helper()
	var out []string
	for ok := true; ok; ok = e.Next() {
		out = append(out, string(e.Candidate()))
	}
	return out
}

func TestEnumeratorExhaustive(t *testing.T) {
	a, err := NewAlphabet("abc")
	require.NoError(t, err)

	e, err := NewEnumerator(a, 3, "")
	require.NoError(t, err)

	got := collectCandidates(t, e)
	require.Len(t, got, 27)

	// Each candidate appears once, in strictly increasing
	// lexicographic-by-index order, rightmost position fastest.
	require.Equal(t, "aaa", got[0])
	require.Equal(t, "aab", got[1])
	require.Equal(t, "aba", got[3])
	require.Equal(t, "ccc", got[26])
	seen := map[string]struct{}{}
	for i, c := range got {
		if i > 0 {
			require.Less(t, got[i-1], c)
		}
		_, dup := seen[c]
		require.False(t, dup, "duplicate candidate %q", c)
		seen[c] = struct{}{}
	}

	// Exhausted enumerators stay exhausted.
	require.False(t, e.Next())

	e.Reset()
	require.Equal(t, "aaa", string(e.Candidate()))
}

func TestEnumeratorSplitAlphabet(t *testing.T) {
	a, err := NewSplitAlphabet("ab", "ab_")
	require.NoError(t, err)

	e, err := NewEnumerator(a, 2, "")
	require.NoError(t, err)

	got := collectCandidates(t, e)
	require.Equal(t, []string{"aa", "ab", "a_", "ba", "bb", "b_"}, got)
	require.Equal(t, uint64(6), e.SpaceSize())
}

func TestEnumeratorInterior(t *testing.T) {
	a, err := NewSplitAlphabet("a", "ab")
	require.NoError(t, err)

	e, err := NewInteriorEnumerator(a, 2)
	require.NoError(t, err)

	// Interior mode ignores the first-position restriction.
	got := collectCandidates(t, e)
	require.Equal(t, []string{"aa", "ab", "ba", "bb"}, got)
}

func TestEnumeratorPrefixSeeding(t *testing.T) {
	a, err := NewAlphabet("ab")
	require.NoError(t, err)

	e, err := NewEnumerator(a, 3, "b")
	require.NoError(t, err)

	got := collectCandidates(t, e)
	require.Equal(t, []string{"baa", "bab", "bba", "bbb"}, got)

	// A prefix filling the whole candidate yields exactly itself.
	e, err = NewEnumerator(a, 2, "ab")
	require.NoError(t, err)
	require.Equal(t, []string{"ab"}, collectCandidates(t, e))
}

func TestEnumeratorSkipFrom(t *testing.T) {
	a, err := NewAlphabet("ab")
	require.NoError(t, err)

	e, err := NewEnumerator(a, 4, "")
	require.NoError(t, err)

	// Skipping from position 1 abandons every candidate sharing "aa"
	// at positions 0..1.
	require.Equal(t, "aaaa", string(e.Candidate()))
	require.True(t, e.SkipFrom(1))
	require.Equal(t, "abaa", string(e.Candidate()))

	// Skipping from a position inside the fixed prefix ends the run.
	e, err = NewEnumerator(a, 3, "ab")
	require.NoError(t, err)
	require.False(t, e.SkipFrom(1))
}

func TestEnumeratorLengthValidation(t *testing.T) {
	a, err := NewAlphabet("ab")
	require.NoError(t, err)

	_, err = NewEnumerator(a, 0, "")
	require.ErrorIs(t, err, ErrLengthOutOfRange)

	_, err = NewEnumerator(a, MaxCandidateLength+1, "")
	require.ErrorIs(t, err, ErrLengthOutOfRange)

	_, err = NewEnumerator(a, 2, "abc")
	require.ErrorIs(t, err, ErrLengthOutOfRange)
}
