package detection

import "unicode/utf8"

// decodeBudget bounds the decode operations of one canonicalization.
const decodeBudget = 200

// decodePass performs one left-to-right decoding sweep over buf in place and
// returns the new length, whether anything was decoded, and how many decode
// operations were spent. At most budget operations are performed; once the
// budget is gone the remainder is copied verbatim.
//
// Recognized forms: %XX (one raw byte), \uXXXX and \xXX (UTF-8 encoded code
// point), &lt; &gt; &amp; &quot; &apos;, and &#NN; / &#xNN; with a value in
// 1..0xFFFF. Every substitution writes no more bytes than it consumes, so the
// write cursor never overtakes the read cursor. Malformed sequences are
// copied unchanged.
func decodePass(buf []byte, budget int) (n int, changed bool, used int) {
	read, write := 0, 0
	size := len(buf)

	emitRune := func(r rune, consumed int) {
		write += utf8.EncodeRune(buf[write:], r)
		read += consumed
		changed = true
		used++
	}
	emitByte := func(b byte, consumed int) {
		buf[write] = b
		write++
		read += consumed
		changed = true
		used++
	}

	for read < size {
		c := buf[read]
		if used < budget {
			switch c {
			case '%':
				if read+2 < size {
					if v, ok := hexPair(buf[read+1], buf[read+2]); ok {
						emitByte(byte(v), 3)
						continue
					}
				}
			case '\\':
				if read+5 < size && buf[read+1] == 'u' {
					if v, ok := hexQuad(buf[read+2 : read+6]); ok {
						emitRune(rune(v), 6)
						continue
					}
				} else if read+3 < size && buf[read+1] == 'x' {
					if v, ok := hexPair(buf[read+2], buf[read+3]); ok {
						emitRune(rune(v), 4)
						continue
					}
				}
			case '&':
				if r, consumed, ok := decodeEntity(buf[read:]); ok {
					emitRune(r, consumed)
					continue
				}
			}
		}
		buf[write] = c
		write++
		read++
	}
	return write, changed, used
}

// decodeEntity decodes a named or numeric character reference at the start
// of s, which begins with '&'.
func decodeEntity(s []byte) (rune, int, bool) {
	remaining := len(s)
	if remaining <= 3 {
		return 0, 0, false
	}
	switch {
	case s[1] == 'l' && s[2] == 't' && s[3] == ';':
		return '<', 4, true
	case s[1] == 'g' && s[2] == 't' && s[3] == ';':
		return '>', 4, true
	case s[1] == '#':
		isHex := remaining > 4 && (s[2] == 'x' || s[2] == 'X')
		start := 2
		if isHex {
			start = 3
		}
		if r, consumed, ok := decodeNumericEntity(s, start, isHex); ok {
			return r, consumed, true
		}
	}
	if remaining > 4 && string(s[1:5]) == "amp;" {
		return '&', 5, true
	}
	if remaining > 5 {
		switch string(s[1:6]) {
		case "quot;":
			return '"', 6, true
		case "apos;":
			return '\'', 6, true
		}
	}
	return 0, 0, false
}

// decodeNumericEntity parses the digits of &#NN; or &#xNN; starting at
// offset. At most ten bytes of the reference are examined; zero and values
// above 0xFFFF are rejected.
func decodeNumericEntity(s []byte, offset int, isHex bool) (rune, int, bool) {
	val := 0
	limit := min(len(s), 10)
	for i := offset; i < limit; i++ {
		d := s[i]
		if d == ';' {
			if i == offset || val == 0 {
				return 0, 0, false
			}
			return rune(val), i + 1, true
		}
		digit := -1
		if d >= '0' && d <= '9' {
			digit = int(d - '0')
		} else if isHex {
			digit = hexValue(d)
		}
		if digit < 0 {
			return 0, 0, false
		}
		if isHex {
			val = val<<4 | digit
		} else {
			val = val*10 + digit
		}
		if val > 0xFFFF {
			return 0, 0, false
		}
	}
	return 0, 0, false
}

func hexPair(h1, h2 byte) (int, bool) {
	v1, v2 := hexValue(h1), hexValue(h2)
	if v1 < 0 || v2 < 0 {
		return 0, false
	}
	return v1<<4 | v2, true
}

func hexQuad(h []byte) (int, bool) {
	hi, ok := hexPair(h[0], h[1])
	if !ok {
		return 0, false
	}
	lo, ok := hexPair(h[2], h[3])
	if !ok {
		return 0, false
	}
	return hi<<8 | lo, true
}
