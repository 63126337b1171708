// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import "strings"

// Sanitize normalizes common LLM output defects before JSON parsing:
// markdown code fences, prose before or after the object, and trailing
// commas. It never guarantees valid JSON; callers still parse and
// re-prompt on failure.
func Sanitize(raw string) string {
	s := strings.TrimSpace(raw)

	// Strip markdown code fences.
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	// Cut to the outermost object: models often wrap JSON in prose.
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}

	return stripTrailingCommas(s)
}

// stripTrailingCommas removes commas directly preceding a closing brace
// or bracket, ignoring string contents.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			b.WriteByte(ch)
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
			b.WriteByte(ch)
		case ',':
			// Look ahead past whitespace for a closer.
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\t' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			b.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
