package fnv1

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimeInverse(t *testing.T) {
	p := Prime
	require.Equal(t, uint32(1), p*PrimeInverse)
}

func TestHashKnownValues(t *testing.T) {
	for name, expected := range map[string]uint32{
		"test":       0xBC2C0BE9,
		"play_music": 0xAEC363DF,
		"ba":         0x6F772BA6,
		"abc":        0x439C2F4B,
		"":           OffsetBasis,
	} {
		require.Equal(t, expected, Hash(name), "hash of %q", name)
	}
}

func TestHashCaseInsensitive(t *testing.T) {
	for _, name := range []string{"Play_Music", "FOOTSTEP_GRASS_RUN", "Ui_Button_Click"} {
		require.Equal(t, Hash(lower(name)), Hash(name))
	}
}

func TestHashContinueOffsetBasisIdentity(t *testing.T) {
	for _, s := range []string{"", "a", "play_music", "explosion_large_01"} {
		require.Equal(t, Hash(s), HashContinue(OffsetBasis, s))
	}
}

func TestHashContinuePrefixCaching(t *testing.T) {
	for _, tc := range []struct{ prefix, suffix string }{
		{"", "music"},
		{"play_", "music"},
		{"footstep_", "grass_run"},
		{"a", "b"},
	} {
		require.Equal(t,
			Hash(tc.prefix+tc.suffix),
			HashContinue(Hash(tc.prefix), tc.suffix),
			"prefix %q suffix %q", tc.prefix, tc.suffix)
	}
}

func TestHashInverseRoundTrip(t *testing.T) {
	for _, tc := range []struct{ prefix, suffix string }{
		{"", "abc"},
		{"a", "bc"},
		{"play_", "music"},
		{"ui_button_", "click"},
	} {
		require.Equal(t,
			Hash(tc.prefix),
			HashInverse(Hash(tc.prefix+tc.suffix), tc.suffix),
			"prefix %q suffix %q", tc.prefix, tc.suffix)
	}
}

func TestHashInverseRoundTripFuzz(t *testing.T) {
	const charset = "abcdefghijklmnopqrstuvwxyz_0123456789"
	rng := rand.New(rand.NewSource(0))

	for i := 0; i < 1000; i++ {
		buf := make([]byte, 1+rng.Intn(16))
		for j := range buf {
			buf[j] = charset[rng.Intn(len(charset))]
		}
		split := rng.Intn(len(buf) + 1)
		prefix, suffix := string(buf[:split]), string(buf[split:])
		require.Equal(t, Hash(prefix), HashInverse(Hash(prefix+suffix), suffix))
	}
}

func TestHashLen(t *testing.T) {
	b := []byte("play_music_extra")
	require.Equal(t, Hash("play_music"), HashLen(b, 10))
	require.Equal(t, OffsetBasis, HashLen(b, 0))
}

func TestFoldTo30(t *testing.T) {
	require.Equal(t, uint32(0), FoldTo30(0))
	// Top two bits fold back onto the low bits.
	require.Equal(t, uint32(3), FoldTo30(0xC0000000))
	require.Less(t, FoldTo30(0xFFFFFFFF), uint32(1)<<30)
	require.Equal(t, FoldTo30(Hash("test")), Hash30("test"))
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func BenchmarkHash(b *testing.B) {
	for _, size := range []int{4, 8, 16, 31} {
		b.Run(fmt.Sprintf("len-%d", size), func(b *testing.B) {
			buf := make([]byte, size)
			for i := range buf {
				buf[i] = 'a' + byte(i%26)
			}
			b.ReportAllocs()
			var sink uint32
			for i := 0; i < b.N; i++ {
				sink ^= HashContinueBytes(OffsetBasis, buf)
			}
			_ = sink
		})
	}
}
