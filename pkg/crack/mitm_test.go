package crack

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Eriumsss/wwiseRE/pkg/fnv1"
)

func TestMeetInMiddleConcrete(t *testing.T) {
	a, err := NewAlphabet("abc")
	require.NoError(t, err)

	result, err := MeetInMiddle(context.Background(),
		NewTargetSet(hashesOf("abc")),
		MeetInMiddleSettings{
			Alphabet:        a,
			PrefixMaxLength: 1,
			SuffixMaxLength: 2,
		})
	require.NoError(t, err)
	require.Equal(t, []string{"abc"}, result.Names)
	require.Equal(t, 3, result.PrefixEntries)
	// 1 target x (3 + 9) suffix candidates.
	require.Equal(t, 12, result.SuffixEntries)
	require.False(t, result.Truncated)
}

// Meet-in-the-middle over combined lengths must find exactly what a
// direct search over the same lengths finds.
func TestMeetInMiddleCrossValidatesDirect(t *testing.T) {
	targets := NewTargetSet(hashesOf("ba", "c4", "bgm", "x_z"))
	ctx := context.Background()

	direct, err := DirectSearch(ctx, targets, DirectSearchSettings{
		MinLength: 2,
		MaxLength: 3,
	})
	require.NoError(t, err)

	// Prefixes up to 2, suffixes of 1: covers every name of length 2
	// (1+1) and 3 (2+1).
	mitm, err := MeetInMiddle(ctx, targets, MeetInMiddleSettings{
		PrefixMaxLength: 2,
		SuffixMaxLength: 1,
	})
	require.NoError(t, err)

	var directNames []string
	for _, m := range direct.Matches {
		directNames = append(directNames, m.Name)
	}
	require.ElementsMatch(t, directNames, mitm.Names)
}

func TestMeetInMiddleReportsAllEqualHashSuffixes(t *testing.T) {
	// Duplicate targets put equal-hash runs in the suffix table; every
	// run member is visited and the duplicate names collapse to one.
	h := fnv1.Hash("abc")
	a, err := NewAlphabet("abc")
	require.NoError(t, err)

	result, err := MeetInMiddle(context.Background(),
		NewTargetSet([]uint32{h, h}),
		MeetInMiddleSettings{
			Alphabet:        a,
			PrefixMaxLength: 1,
			SuffixMaxLength: 2,
		})
	require.NoError(t, err)
	require.Equal(t, []string{"abc"}, result.Names)
}

func TestMeetInMiddleDeduplicatesSplitPoints(t *testing.T) {
	// With prefix and suffix both up to 2, "abc" is found at split
	// points 1+2 and 2+1; it must be reported once.
	a, err := NewAlphabet("abc")
	require.NoError(t, err)

	result, err := MeetInMiddle(context.Background(),
		NewTargetSet(hashesOf("abc")),
		MeetInMiddleSettings{
			Alphabet:        a,
			PrefixMaxLength: 2,
			SuffixMaxLength: 2,
		})
	require.NoError(t, err)
	require.Contains(t, result.Names, "abc")

	count := 0
	for _, n := range result.Names {
		if n == "abc" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestMeetInMiddleWwiseFirstCharRule(t *testing.T) {
	// The first-position rule applies to the prefix side only; "_ab"
	// must not be recovered even though its hash is a target.
	result, err := MeetInMiddle(context.Background(),
		NewTargetSet(hashesOf("_ab", "cab")),
		MeetInMiddleSettings{
			PrefixMaxLength: 1,
			SuffixMaxLength: 2,
		})
	require.NoError(t, err)
	require.Equal(t, []string{"cab"}, result.Names)
}

func TestMeetInMiddleCapacity(t *testing.T) {
	a, err := NewAlphabet("abc")
	require.NoError(t, err)

	result, err := MeetInMiddle(context.Background(),
		NewTargetSet(hashesOf("abc")),
		MeetInMiddleSettings{
			Alphabet:         a,
			PrefixMaxLength:  2,
			SuffixMaxLength:  2,
			MaxSuffixEntries: 2,
		})
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.True(t, result.Truncated)
	require.LessOrEqual(t, result.SuffixEntries, 2)
}

func TestMeetInMiddleValidation(t *testing.T) {
	ctx := context.Background()
	targets := NewTargetSet(nil)

	_, err := MeetInMiddle(ctx, targets, MeetInMiddleSettings{
		PrefixMaxLength: 0,
		SuffixMaxLength: 2,
	})
	require.ErrorIs(t, err, ErrLengthOutOfRange)

	_, err = MeetInMiddle(ctx, targets, MeetInMiddleSettings{
		PrefixMaxLength: 16,
		SuffixMaxLength: 16,
	})
	require.ErrorIs(t, err, ErrLengthOutOfRange)
}

func TestMeetInMiddleEmptyTargets(t *testing.T) {
	result, err := MeetInMiddle(context.Background(), NewTargetSet(nil),
		MeetInMiddleSettings{
			PrefixMaxLength: 1,
			SuffixMaxLength: 1,
		})
	require.NoError(t, err)
	require.Empty(t, result.Names)
	require.Zero(t, result.SuffixEntries)
}
