package workshops

import "strings"

var (
	leadingArticles = []string{"the ", "a ", "an "}
	trailingNouns   = []string{" workshops", " workshop", " classes", " class", " courses", " course", " session"}
)

// NormalizeTitle reduces a free-text workshop reference to the phrase used for fuzzy matching:
// lowercased, whitespace-collapsed, without a leading article or a trailing "workshop"-like noun.
// "the Web Dev workshop" becomes "web dev".
func NormalizeTitle(s string) string {
	t := strings.ToLower(strings.Join(strings.Fields(s), " "))
	t = strings.Trim(t, `"'“”‘’`)
	for _, p := range leadingArticles {
		if strings.HasPrefix(t, p) {
			t = strings.TrimSpace(t[len(p):])
			break
		}
	}
	for _, n := range trailingNouns {
		if strings.HasSuffix(t, n) {
			t = strings.TrimSpace(strings.TrimSuffix(t, n))
			break
		}
	}
	return t
}

// escapeLike escapes LIKE metacharacters so user text matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
