package probe

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Stripping order matters: script and style bodies may contain '<' and '>'
// that the generic tag pattern would otherwise cut in the wrong place.
var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	styleBlock  = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style>`)
	anyTag      = regexp.MustCompile(`<[^>]*>?`)
)

// ExtractText reduces an HTML document to its visible words separated by
// single spaces.
func ExtractText(html string) string {
	s := scriptBlock.ReplaceAllString(html, " ")
	s = styleBlock.ReplaceAllString(s, " ")
	s = anyTag.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// CountWords returns the number of tokens longer than one character in the
// extracted text of html.
func CountWords(html string) int {
	text := ExtractText(html)
	if text == "" {
		return 0
	}
	n := 0
	for _, w := range strings.Split(text, " ") {
		if utf8.RuneCountInString(w) > 1 {
			n++
		}
	}
	return n
}
