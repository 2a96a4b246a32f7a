package entropy

// Combine XORs a and b into a new buffer. The result has the length of the
// shorter input; trailing bytes of the longer one are dropped.
func Combine(a, b []byte) []byte {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Mix XORs caller-supplied additional input into buf in place. addl is
// truncated to len(buf); a shorter addl only touches the leading bytes.
func Mix(buf, addl []byte) {
	for i := 0; i < len(buf) && i < len(addl); i++ {
		buf[i] ^= addl[i]
	}
}

// fold XORs adjacent pairs of raw samples: out[i] = raw[2i] ^ raw[2i+1].
func fold(raw []byte) []byte {
	out := make([]byte, len(raw)/2)
	for i := range out {
		out[i] = raw[2*i] ^ raw[2*i+1]
	}
	return out
}
