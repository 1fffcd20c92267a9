package detection

// Byte helpers for ASCII case-insensitive matching. Patterns are always
// lowercase ASCII; text bytes outside A-Z are compared as-is, so multi-byte
// UTF-8 sequences never fold into ASCII letters.

func lowerASCII(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c | 0x20
	}
	return c
}

func isASCIILetter(c byte) bool {
	c |= 0x20
	return c >= 'a' && c <= 'z'
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}

// hasPrefixFold reports whether s starts with the lowercase pattern p.
func hasPrefixFold(s []byte, p string) bool {
	if len(s) < len(p) {
		return false
	}
	for i := 0; i < len(p); i++ {
		if lowerASCII(s[i]) != p[i] {
			return false
		}
	}
	return true
}

// indexFold returns the first index of the lowercase pattern p in s, or -1.
func indexFold(s []byte, p string) int {
	if len(p) == 0 {
		return 0
	}
	first := p[0]
	for i := 0; i+len(p) <= len(s); i++ {
		if lowerASCII(s[i]) == first && hasPrefixFold(s[i:], p) {
			return i
		}
	}
	return -1
}

// containsAnyFold reports whether any of the lowercase patterns occurs in s.
func containsAnyFold(s []byte, patterns []string) (string, bool) {
	for _, p := range patterns {
		if indexFold(s, p) >= 0 {
			return p, true
		}
	}
	return "", false
}

// containsPlain reports whether the literal pattern p occurs in s.
func containsPlain(s []byte, p string) bool {
	for i := 0; i+len(p) <= len(s); i++ {
		if string(s[i:i+len(p)]) == p {
			return true
		}
	}
	return false
}
