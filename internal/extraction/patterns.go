package extraction

import "regexp"

// Extraction is a drug/target pair proposed by a single-shot extractor.
// Either side may be empty.
type Extraction struct {
	Drug   string `json:"drug,omitempty"`
	Target string `json:"target,omitempty"`
}

func (e Extraction) Empty() bool {
	return e.Drug == "" && e.Target == ""
}

type rewrite struct {
	pattern *regexp.Regexp
	repl    string
}

var preRewrites = []rewrite{
	{regexp.MustCompile(`(?i)\bis\s+associated\s+with\b`), "targets"},
	{regexp.MustCompile(`(?i)\bhow\s+does\b`), ""},
	{regexp.MustCompile(`(?i)\bmechanistically\b`), ""},
}

const term = `([\p{L}\p{N}_-]+)`

// templates are tried in order; group 1 is the drug and group 2 the target.
var templates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)interaction\s+between\s+` + term + `\s+and\s+` + term),
	regexp.MustCompile(`(?i)` + term + `\s+interacts?\s+with\s+` + term),
	regexp.MustCompile(`(?i)(?:does\s+)?(?:the\s+drug\s+)?` + term + `\s+(?:inhibits?|targets?|binds?|blocks?)\s+(?:to\s+)?(?:the\s+)?(?:protein\s+)?` + term),
	regexp.MustCompile(`(?i)` + term + `\s+and\s+` + term + `\s+interaction`),
	regexp.MustCompile(`(?i)` + term + `\s+targets\s+([\p{L}\p{N}_-]+\s+kinase)`),
	regexp.MustCompile(`(?i)when\s+` + term + `\s+binds\s+(?:to\s+)?` + term),
}

// ExtractDeterministic matches the query against fixed linguistic templates.
// The first matching template wins; ok is false when none match.
func ExtractDeterministic(text string) (Extraction, bool) {
	for _, rw := range preRewrites {
		text = rw.pattern.ReplaceAllString(text, rw.repl)
	}

	for _, tmpl := range templates {
		m := tmpl.FindStringSubmatch(text)
		if m != nil {
			return Extraction{Drug: m[1], Target: m[2]}, true
		}
	}
	return Extraction{}, false
}
