package extraction

// alias maps a common misspelling or synonym onto its canonical token.
type alias struct {
	from string
	to   string
}

// aliasTable is applied in declaration order. Later entries see the output
// of earlier ones.
var aliasTable = []alias{
	{"vergfr2", "VEGFR2"},
	{"vegf-r2", "VEGFR2"},
	{"vegfr-2", "VEGFR2"},
	{"v-egfr", "VEGFR"},

	{"bcr abl", "BCR-ABL1"},
	{"bcr-abl", "BCR-ABL1"},
	{"her2", "ERBB2"},
	{"her-2", "ERBB2"},
	{"her 2", "ERBB2"},
	{"ampk", "PRKAA1"},
	{"vegfr", "KDR"},
	{"vegfr2", "KDR"},
	{"egfr", "EGFR"},
	{"lipitor", "Atorvastatin"},
	{"hmg-coa reductase", "HMGCR"},
	{"hmg coa reductase", "HMGCR"},
	{"α-synuclein", "SNCA"},
	{"alpha-synuclein", "SNCA"},
	{"alpha synuclein", "SNCA"},
}

var stopwords = toSet(
	"how", "does", "with", "is", "the", "and", "what", "tell", "me",
	"about", "of", "on", "in", "to", "for", "a", "an", "are", "was", "were",
	"has", "have", "had", "been", "be", "by", "at", "from", "this", "that",
	"which", "who", "whom", "whose", "its", "interact", "interaction",
	"mechanistically", "mechanism", "acts", "acts on", "between", "relationship",
	"drug", "target", "explain", "work", "works", "working", "show", "shows",
	"affect", "affects", "impact", "impacts", "influence", "influences",
	"binding", "binds", "bind", "inhibit", "inhibits", "inhibitor", "inhibition",
	"activate", "activates", "activation", "modulate", "modulates", "modulation",
	"relate", "related", "relating", "relation", "connection", "connected",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// IsStopword reports whether the lowercased word is filtered from candidates.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

// Aliases returns a copy of the alias table as from→to pairs in application order.
func Aliases() [][2]string {
	out := make([][2]string, len(aliasTable))
	for i, a := range aliasTable {
		out[i] = [2]string{a.from, a.to}
	}
	return out
}
