package hexconv

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func benchLocal(b *testing.B, str string) {
	b.SetBytes(int64(len(str)))
	b.ResetTimer()

	for range b.N {
		var result uint64

		for j := range str {
			result = (result << 4) | uint64(Halfbyte[str[j]])
		}
	}
}

func BenchmarkParse(b *testing.B) {
	b.Run("short", func(b *testing.B) {
		benchLocal(b, "123456789abcdef")
	})

	b.Run("long", func(b *testing.B) {
		benchLocal(b, strings.Repeat("123456789abcdef", 100))
	})
}

func TestHalfbyte(t *testing.T) {
	for i := 0; i < 256; i++ {
		value, err := strconv.ParseUint(string(rune(i)), 16, 8)
		if err != nil {
			require.Equal(t, byte(0xFF), Halfbyte[i], "char %q", rune(i))
			continue
		}

		require.Equal(t, byte(value), Halfbyte[i])
	}
}

func TestAppend(t *testing.T) {
	for _, n := range []uint64{0, 1, 9, 10, 15, 16, 255, 4096, 1<<64 - 1} {
		require.Equal(t, strconv.FormatUint(n, 16), string(Append(nil, n)))
	}
}
