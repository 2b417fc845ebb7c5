package engine

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var placeholderPattern = regexp.MustCompile(`{{\s*([a-zA-Z_]+)\s*}}`)
var whitespaceRun = regexp.MustCompile(`\s+`)

var foldCase = cases.Fold()

// SubstituteTemplate resolves {{first_name}}/{{last_name}}/{{company}}
// style placeholders case-insensitively from vars, drops any placeholder
// that has no matching key, and collapses runs of whitespace left behind.
// Substitution is idempotent: running it twice on its own output is a no-op
// because the output no longer contains any {{...}} markers.
func SubstituteTemplate(text string, vars map[string]string) string {
	folded := make(map[string]string, len(vars))
	for k, v := range vars {
		folded[foldCase.String(k)] = v
	}

	replaced := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := folded[foldCase.String(key)]; ok {
			return v
		}
		return ""
	})

	replaced = whitespaceRun.ReplaceAllString(replaced, " ")
	return strings.TrimSpace(replaced)
}
