package cache

import "strings"

// matchGlob reports whether s matches pattern using Redis KEYS/SCAN rules:
// '*' any run of bytes, '?' one byte, '[abc]' '[^a]' '[a-z]' classes and '\'
// escaping the next byte. A '[' without a closing ']' matches itself.
//
// Only the most recent '*' is retried on a mismatch, so matching runs in
// O(len(pattern)*len(s)).
func matchGlob(pattern, s string) bool {
	px, sx := 0, 0
	starPx, starSx := -1, 0

	for px < len(pattern) || sx < len(s) {
		if px < len(pattern) {
			if pattern[px] == '*' {
				for px < len(pattern) && pattern[px] == '*' {
					px++
				}
				if px == len(pattern) {
					return true
				}
				starPx, starSx = px, sx
				continue
			}
			if sx < len(s) {
				if width, ok := matchOne(pattern[px:], s[sx]); ok {
					px += width
					sx++
					continue
				}
			}
		}
		// let the last star swallow one more byte and retry
		if starPx >= 0 && starSx < len(s) {
			starSx++
			px, sx = starPx, starSx
			continue
		}
		return false
	}
	return true
}

// matchOne matches c against the single-byte token at the head of p and
// returns the token's width in p.
func matchOne(p string, c byte) (width int, ok bool) {
	switch p[0] {
	case '?':
		return 1, true
	case '[':
		matched, rest, closed := matchClass(p[1:], c)
		if !closed {
			return 1, c == '['
		}
		return len(p) - len(rest), matched
	case '\\':
		if len(p) > 1 {
			return 2, p[1] == c
		}
		return 1, c == '\\'
	default:
		return 1, p[0] == c
	}
}

// matchClass matches c against the class body p (after '['). It returns the
// pattern remaining after ']' and ok=false when the class is unterminated.
func matchClass(p string, c byte) (matched bool, rest string, ok bool) {
	negate := false
	if len(p) > 0 && p[0] == '^' {
		negate = true
		p = p[1:]
	}

	for i := 0; i < len(p); {
		switch {
		case p[i] == ']':
			return matched != negate, p[i+1:], true
		case p[i] == '\\' && i+1 < len(p):
			if p[i+1] == c {
				matched = true
			}
			i += 2
		case i+2 < len(p) && p[i+1] == '-' && p[i+2] != ']':
			lo, hi := p[i], p[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			if c >= lo && c <= hi {
				matched = true
			}
			i += 3
		default:
			if p[i] == c {
				matched = true
			}
			i++
		}
	}
	return false, "", false
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob quotes s so it matches only itself.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
