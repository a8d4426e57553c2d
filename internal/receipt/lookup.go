package receipt

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LookupLink builds a web search URL for an item name restricted to site. It is a
// convenience link only.
func LookupLink(name, site string) string {
	query := strings.TrimSpace(name)
	if site != "" {
		query += " site:" + site
	}
	return "https://www.google.com/search?" + url.Values{"q": {query}}.Encode()
}

// DisplayName normalizes the case of an OCR item name for display, e.g. "VOLLE MELK" -> "Volle Melk"
func DisplayName(name string) string {
	return cases.Title(language.Dutch).String(strings.Join(strings.Fields(name), " "))
}
