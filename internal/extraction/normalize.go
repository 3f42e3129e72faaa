package extraction

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds the query to lower case and rewrites known aliases to their
// canonical tokens. Only whole-word occurrences are replaced and a replacement
// is never rescanned by the same alias.
func Normalize(text string) string {
	out := foldCase(text)
	for _, a := range aliasTable {
		out = replaceWholeWord(out, a.from, strings.ToLower(a.to))
	}
	return out
}

func foldCase(text string) string {
	return strings.ToLower(norm.NFC.String(text))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// replaceWholeWord replaces every occurrence of old in s that sits on word
// boundaries at both ends. Boundaries are judged against s, not against the
// partially rewritten output.
func replaceWholeWord(s, old, repl string) string {
	if old == "" || !strings.Contains(s, old) {
		return s
	}

	firstOld, _ := utf8.DecodeRuneInString(old)
	lastOld, _ := utf8.DecodeLastRuneInString(old)

	var b strings.Builder
	written := 0
	pos := 0
	for pos <= len(s)-len(old) {
		idx := strings.Index(s[pos:], old)
		if idx < 0 {
			break
		}
		start := pos + idx
		end := start + len(old)

		if boundaryBefore(s, start, firstOld) && boundaryAfter(s, end, lastOld) {
			b.WriteString(s[written:start])
			b.WriteString(repl)
			written = end
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		pos = start + size
	}

	if written == 0 {
		return s
	}
	b.WriteString(s[written:])
	return b.String()
}

func boundaryBefore(s string, start int, first rune) bool {
	if start == 0 {
		return isWordRune(first)
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:start])
	return isWordRune(prev) != isWordRune(first)
}

func boundaryAfter(s string, end int, last rune) bool {
	if end == len(s) {
		return isWordRune(last)
	}
	next, _ := utf8.DecodeRuneInString(s[end:])
	return isWordRune(next) != isWordRune(last)
}
