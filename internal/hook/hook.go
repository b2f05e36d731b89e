// Package hook provides the text transforms applied to a command just
// before it is sent (pre) and to the raw output just after it is
// received (post).
//
// Every constructor returns a pure function.  Index arguments behave
// like slice bounds that clamp instead of panicking: negative values
// count from the end, out-of-range values are pinned to the ends.
package hook

import "strings"

// Func transforms a command or a response.
type Func func(string) string

// Identity returns its input unchanged.
func Identity(s string) string { return s }

// Chain composes fs left to right.  nil entries are skipped.
func Chain(fs ...Func) Func {
	return func(s string) string {
		for _, f := range fs {
			if f != nil {
				s = f(s)
			}
		}
		return s
	}
}

// ── byte slicing ─────────────────────────────────────────────────────

// FromByte drops the first n bytes.
func FromByte(n int) Func {
	return func(s string) string {
		from, _ := bounds(len(s), n, len(s))
		return s[from:]
	}
}

// ToByte keeps the first n bytes.
func ToByte(n int) Func {
	return func(s string) string {
		_, to := bounds(len(s), 0, n)
		return s[:to]
	}
}

// ByteRange keeps bytes [from, to).
func ByteRange(from, to int) Func {
	return func(s string) string {
		f, t := bounds(len(s), from, to)
		return s[f:t]
	}
}

// ── line slicing ─────────────────────────────────────────────────────

// FromLine drops the first n lines, e.g. the banner an injection point
// prints before the command output.
func FromLine(n int) Func {
	return func(s string) string {
		lines := strings.Split(s, "\n")
		from, _ := bounds(len(lines), n, len(lines))
		return strings.Join(lines[from:], "\n")
	}
}

// ToLine keeps the first n lines.
func ToLine(n int) Func {
	return func(s string) string {
		lines := strings.Split(s, "\n")
		_, to := bounds(len(lines), 0, n)
		return strings.Join(lines[:to], "\n")
	}
}

// LineRange keeps lines [from, to).
func LineRange(from, to int) Func {
	return func(s string) string {
		lines := strings.Split(s, "\n")
		f, t := bounds(len(lines), from, to)
		return strings.Join(lines[f:t], "\n")
	}
}

// ── rewriting ────────────────────────────────────────────────────────

// UnescapeNewlines turns literal `\n` sequences back into newlines, for
// endpoints that JSON- or string-escape the output.
func UnescapeNewlines() Func {
	return func(s string) string { return strings.ReplaceAll(s, `\n`, "\n") }
}

// StripNewlines removes every newline.
func StripNewlines() Func {
	return func(s string) string { return strings.ReplaceAll(s, "\n", "") }
}

// TrimSpace removes leading and trailing whitespace.
func TrimSpace() Func {
	return strings.TrimSpace
}

// Prefix prepends p, e.g. "127.0.0.1; " for a ping injection.
func Prefix(p string) Func {
	return func(s string) string { return p + s }
}

// Suffix appends x, e.g. " #" to comment out the rest of a template.
func Suffix(x string) Func {
	return func(s string) string { return s + x }
}

// bounds resolves slice-style indices against length n.
func bounds(n, from, to int) (int, int) {
	from = clamp(n, from)
	to = clamp(n, to)
	if to < from {
		to = from
	}
	return from, to
}

func clamp(n, i int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
