package research

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/venue-scout/internal/vocab"
)

// MinDescriptionTokenLength is the shortest word kept by DescriptionTokens.
const MinDescriptionTokenLength = 4

// FoldName lower-cases s, strips diacritics and replaces every run of non-alphanumerics with
// a single space.
func FoldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	space := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space && b.Len() > 0 {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// NameTokens returns the significant folded words of an entity name.
func NameTokens(name string) []string {
	noise := vocab.Set("text", "name_noise")
	var tokens []string
	for _, w := range strings.Fields(FoldName(name)) {
		if len(w) < 2 || noise[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// CompactName is the folded name with all separators removed, as it would appear in a hostname.
func CompactName(name string) string {
	return strings.Join(NameTokens(name), "")
}

// DescriptionTokens returns distinct significant words of a description.
func DescriptionTokens(description string) []string {
	stop := vocab.Set("text", "stopwords")
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range strings.Fields(FoldName(description)) {
		if len([]rune(w)) < MinDescriptionTokenLength || stop[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// HostMatchesName reports whether a hostname literally contains the entity name, either as
// one compact string or as every significant name token.
func HostMatchesName(host, name string) bool {
	h := strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(host), "-", ""), ".", "")
	compact := CompactName(name)
	if compact == "" {
		return false
	}
	if strings.Contains(h, compact) {
		return true
	}
	for _, t := range NameTokens(name) {
		if !strings.Contains(h, t) {
			return false
		}
	}
	return true
}
