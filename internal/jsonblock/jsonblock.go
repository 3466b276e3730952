// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package jsonblock recovers a JSON object embedded in free-form model
// output, tolerating prose or code fences around it.
package jsonblock

// FirstObject returns the first balanced top-level JSON object in s. The
// scan is string-aware so braces inside string values do not unbalance
// it. The second return is false when no complete object is found.
func FirstObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
