package hexconv

// Halfbyte maps an ASCII hexadecimal digit into its value. Every other byte is
// mapped into 0xFF, so a single lookup both validates and converts.
var Halfbyte = func() (table [256]byte) {
	for i := range table {
		table[i] = 0xFF
	}

	for c := byte('0'); c <= '9'; c++ {
		table[c] = c - '0'
	}

	for c := byte('a'); c <= 'f'; c++ {
		table[c] = c - 'a' + 10
		table[c-'a'+'A'] = c - 'a' + 10
	}

	return table
}()

// Append writes n in lowercase hex into buff, without leading zeroes.
func Append(buff []byte, n uint64) []byte {
	const digits = "0123456789abcdef"

	if n == 0 {
		return append(buff, '0')
	}

	var scratch [16]byte
	i := len(scratch)
	for n > 0 {
		i--
		scratch[i] = digits[n&0xF]
		n >>= 4
	}

	return append(buff, scratch[i:]...)
}
