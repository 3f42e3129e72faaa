package extraction

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Strategy identifies how a candidate was found.
type Strategy int

const (
	StrategyPhrase Strategy = iota + 1
	StrategyCapitalized
	StrategyLongWord
)

func (s Strategy) String() string {
	switch s {
	case StrategyPhrase:
		return "multi-word-phrase"
	case StrategyCapitalized:
		return "single-capitalized-word"
	case StrategyLongWord:
		return "long-word-fallback"
	default:
		return "unknown"
	}
}

// Candidate is a substring of user text that may name a drug or target.
type Candidate struct {
	Text     string
	Strategy Strategy
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_-]+|[^\p{L}\p{N}_\s\p{Z}]`)

var (
	greekConnectors = toSet("alpha", "beta", "gamma", "delta", "kappa", "sigma", "omega")
	weakConnectors  = toSet("of", "and")
)

// Generate extracts candidates from text. The result has unique texts ordered
// by descending length; equal lengths keep first-found order.
func Generate(text string) []Candidate {
	tokens := tokenPattern.FindAllString(text, -1)
	c := &collector{seen: make(map[string]struct{})}

	c.phrases(tokens)
	c.capitalizedWords(tokens)
	c.longWords(tokens)

	sort.SliceStable(c.out, func(i, j int) bool {
		return runeLen(c.out[i].Text) > runeLen(c.out[j].Text)
	})
	return c.out
}

// GenerateCandidates is Generate reduced to candidate texts.
func GenerateCandidates(text string) []string {
	return texts(Generate(text))
}

// Candidates runs Generate on the raw text and, when normalization changes
// it, on the normalized text too, and merges both.
func Candidates(text string) []string {
	merged := Generate(text)
	normalized := Normalize(text)
	if normalized != foldCase(text) {
		seen := make(map[string]struct{}, len(merged))
		for _, cand := range merged {
			seen[cand.Text] = struct{}{}
		}
		for _, cand := range Generate(normalized) {
			if _, ok := seen[cand.Text]; ok {
				continue
			}
			seen[cand.Text] = struct{}{}
			merged = append(merged, cand)
		}
		sort.SliceStable(merged, func(i, j int) bool {
			return runeLen(merged[i].Text) > runeLen(merged[j].Text)
		})
	}
	return texts(merged)
}

type collector struct {
	out  []Candidate
	seen map[string]struct{}
}

func (c *collector) add(text string, s Strategy) {
	if _, ok := c.seen[text]; ok {
		return
	}
	c.seen[text] = struct{}{}
	c.out = append(c.out, Candidate{Text: text, Strategy: s})
}

func (c *collector) subsumed(word string) bool {
	for _, cand := range c.out {
		if strings.Contains(cand.Text, word) {
			return true
		}
	}
	return false
}

func (c *collector) phrases(tokens []string) {
	for i := 0; i < len(tokens); {
		word := tokens[i]
		if runeLen(word) <= 1 || !(startsUpper(word) || strings.Contains(word, "-")) {
			i++
			continue
		}

		parts := []string{word}
		j := i + 1
		for ; j < len(tokens) && joinsPhrase(tokens[j]); j++ {
			parts = append(parts, tokens[j])
		}

		for len(parts) > 0 {
			if _, weak := weakConnectors[strings.ToLower(parts[len(parts)-1])]; !weak {
				break
			}
			parts = parts[:len(parts)-1]
		}

		if len(parts) > 0 {
			phrase := strings.TrimSpace(keepRunes(strings.Join(parts, " "), " -"))
			if !IsStopword(strings.ToLower(phrase)) && runeLen(phrase) > 1 {
				c.add(phrase, StrategyPhrase)
				if compact := strings.ReplaceAll(phrase, " ", ""); compact != phrase && runeLen(compact) > 3 {
					c.add(compact, StrategyPhrase)
				}
			}
		}
		i = j
	}
}

func joinsPhrase(token string) bool {
	if token == "" {
		return false
	}
	if startsUpper(token) || strings.Contains(token, "-") {
		return true
	}
	switch token {
	case "–", "—":
		return true
	}
	lower := strings.ToLower(token)
	_, greek := greekConnectors[lower]
	_, weak := weakConnectors[lower]
	return greek || weak
}

func (c *collector) capitalizedWords(tokens []string) {
	for _, word := range tokens {
		if runeLen(word) <= 1 || !startsUpper(word) {
			continue
		}
		clean := keepRunes(word, "-")
		if IsStopword(strings.ToLower(clean)) || runeLen(clean) <= 1 || c.subsumed(clean) {
			continue
		}
		c.add(clean, StrategyCapitalized)
	}
}

func (c *collector) longWords(tokens []string) {
	for _, word := range tokens {
		clean := keepRunes(word, "-")
		if runeLen(clean) <= 5 || IsStopword(strings.ToLower(clean)) || c.subsumed(clean) {
			continue
		}
		c.add(clean, StrategyLongWord)
	}
}

// keepRunes drops every rune that is neither alphanumeric nor listed in extra.
func keepRunes(s, extra string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || strings.ContainsRune(extra, r) {
			return r
		}
		return -1
	}, s)
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func texts(cands []Candidate) []string {
	out := make([]string, len(cands))
	for i, cand := range cands {
		out[i] = cand.Text
	}
	return out
}
