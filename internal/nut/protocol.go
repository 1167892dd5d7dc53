package nut

import (
	"strings"
)

// splitFields tokenises one upsd reply line. Bare words are split on spaces;
// a double-quoted field may contain spaces and the escapes \" and \\.
// ok is false when a quote is left open.
func splitFields(line string) (fields []string, ok bool) {
	var (
		cur      strings.Builder
		inQuote  bool
		escaped  bool
		hasToken bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case inQuote && c == '\\':
			escaped = true
		case c == '"':
			inQuote = !inQuote
			hasToken = true
		case !inQuote && (c == ' ' || c == '\t'):
			if hasToken {
				fields = append(fields, cur.String())
				cur.Reset()
				hasToken = false
			}
		default:
			cur.WriteByte(c)
			hasToken = true
		}
	}

	if inQuote || escaped {
		return nil, false
	}
	if hasToken {
		fields = append(fields, cur.String())
	}
	return fields, true
}

// errorCode returns the code of an "ERR <code>" line.
func errorCode(line string) (string, bool) {
	rest, found := strings.CutPrefix(line, "ERR ")
	if !found {
		return "", false
	}
	code, _, _ := strings.Cut(rest, " ")
	return code, true
}

// quoteArg quotes a command argument when it contains characters that
// upsd would otherwise treat as separators.
func quoteArg(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"\\") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
