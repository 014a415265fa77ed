package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var punctuationRegex = regexp.MustCompile(`[^a-z0-9 ]+`)

// legal suffixes carried by most UK registered company names
var companySuffixes = []string{
	"limited",
	"ltd",
	"plc",
	"llp",
	"lp",
	"cic",
}

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// NormalizeCompanyName reduces a registered company name to a form
// stable enough to compare across data sources: lowercased, stripped
// of punctuation and of the trailing legal suffix.
func NormalizeCompanyName(name string) string {
	name = NormalizeName(name)
	name = punctuationRegex.ReplaceAllString(name, "")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	for _, suffix := range companySuffixes {
		if trimmed := strings.TrimSuffix(name, " "+suffix); trimmed != name {
			name = trimmed
			break
		}
	}
	return strings.TrimSpace(name)
}
