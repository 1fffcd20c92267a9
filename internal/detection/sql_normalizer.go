package detection

// normalizeSQL writes a lowercased, whitespace-collapsed copy of in to out
// and returns the number of bytes written. ASCII A-Z is lowered; bytes at or
// above 0x80 pass through untouched so UTF-8 sequences survive; every run of
// bytes <= 0x20 becomes a single space. Output stops silently once out is
// full.
func normalizeSQL(in, out []byte) int {
	written := 0
	lastWasSpace := false
	for _, c := range in {
		if written >= len(out) {
			break
		}
		if c <= ' ' {
			if !lastWasSpace {
				out[written] = ' '
				written++
				lastWasSpace = true
			}
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c |= 0x20
		}
		out[written] = c
		written++
		lastWasSpace = false
	}
	return written
}
