package crack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAlphabetRejectsInvalid(t *testing.T) {
	_, err := NewAlphabet("")
	require.ErrorIs(t, err, ErrInvalidAlphabet)

	_, err = NewAlphabet("abca")
	require.ErrorIs(t, err, ErrInvalidAlphabet)

	_, err = NewAlphabet("ab\xc3\xa9")
	require.ErrorIs(t, err, ErrInvalidAlphabet)

	_, err = NewSplitAlphabet("", "abc")
	require.ErrorIs(t, err, ErrInvalidAlphabet)

	_, err = NewSplitAlphabet("abc", "")
	require.ErrorIs(t, err, ErrInvalidAlphabet)
}

func TestWwiseAlphabet(t *testing.T) {
	a := WwiseAlphabet()
	require.Equal(t, 26, a.FirstSize())
	require.Equal(t, 37, a.RestSize())

	// Position 0 allows letters only; later positions allow everything.
	require.Equal(t, -1, a.indexAt(0, '_', false))
	require.Equal(t, -1, a.indexAt(0, '7', false))
	require.GreaterOrEqual(t, a.indexAt(1, '_', false), 0)
	require.GreaterOrEqual(t, a.indexAt(1, '7', false), 0)
	require.GreaterOrEqual(t, a.indexAt(0, '_', true), 0)
}

func TestAlphabetSpaceSize(t *testing.T) {
	a, err := NewSplitAlphabet("ab", "abc")
	require.NoError(t, err)

	require.Equal(t, uint64(2), a.SpaceSize(1, false))
	require.Equal(t, uint64(2*3*3), a.SpaceSize(3, false))
	require.Equal(t, uint64(3*3*3), a.SpaceSize(3, true))

	// Saturates instead of wrapping.
	big := WwiseAlphabet()
	require.Equal(t, ^uint64(0), big.SpaceSize(31, false))
}
