package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// Key canonicalizes a contractor or section name for identity
// comparison: NFKC fold, trim, collapse runs of whitespace, uppercase.
// Two raw names with the same Key are the same entity within a project.
func Key(name string) string {
	name = norm.NFKC.String(name)
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.ToUpper(name)
}

// SectionKey builds the upsert key for a section from its code and name.
// Either part may be blank; the pair never is for a valid section.
func SectionKey(code, name string) string {
	return Key(code) + "|" + Key(name)
}

// DisplayName renders a raw contractor name for display: normalized
// whitespace, title-cased words. "ACME BUILDERS  ltd" becomes
// "Acme Builders Ltd".
func DisplayName(name string) string {
	name = norm.NFKC.String(name)
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return cases.Title(language.English).String(strings.ToLower(name))
}
