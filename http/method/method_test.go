package method

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func BenchmarkMethod(b *testing.B) {
	var parsed Method

	for _, m := range append(List, Method{"PURGE"}) {
		b.Run(m.String(), func(b *testing.B) {
			str := m.String()
			b.SetBytes(int64(len(str)))
			b.ReportAllocs()
			b.ResetTimer()

			for j := 0; j < b.N; j++ {
				parsed = Parse(str)
			}
		})
	}

	keepalive(parsed)
}

func keepalive(Method) {}

func TestMethod(t *testing.T) {
	t.Run("standard", func(t *testing.T) {
		for _, method := range List {
			parsed := Parse(method.String())
			require.Equal(t, method, parsed)
			require.True(t, parsed.Standard())
		}
	})

	t.Run("extension", func(t *testing.T) {
		parsed := Parse("PURGE")
		require.Equal(t, "PURGE", parsed.String())
		require.False(t, parsed.Standard())
		require.Equal(t, Parse("PURGE"), parsed)
		require.NotEqual(t, Parse("purge"), parsed)
	})

	t.Run("case sensitive", func(t *testing.T) {
		require.NotEqual(t, GET, Parse("get"))
	})

	t.Run("valid", func(t *testing.T) {
		require.True(t, Valid("M-SEARCH"))
		require.False(t, Valid(""))
		require.False(t, Valid("GE\x01T"))
		require.False(t, Valid("GE(T"))
	})

	t.Run("zero", func(t *testing.T) {
		require.True(t, Method{}.IsZero())
		require.False(t, GET.IsZero())
	})
}
