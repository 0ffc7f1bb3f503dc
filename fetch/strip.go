package fetch

import (
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	repeatedSpaceRegex = regexp.MustCompile(`\s+`)

	policyPool = sync.Pool{
		New: func() interface{} {
			p := bluemonday.StrictPolicy()
			p.AddSpaceWhenStrippingTag(true)
			return p
		},
	}
)

// StripMarkup cleans raw text in up to three passes, always in this order:
// escape sequences such as \u00e9 or \x41, then entities such as &gt;, then
// tags, which leaves whitespace-collapsed text.
func StripMarkup(raw string, unicode, entities, tags bool) string {
	if unicode {
		raw = UnescapeJava(strings.ReplaceAll(raw, `\x`, `\u00`))
	}
	if entities {
		raw = html.UnescapeString(raw)
	}
	if tags {
		raw = stripTags(raw)
	}
	return raw
}

func stripTags(s string) string {
	policy := policyPool.Get().(*bluemonday.Policy)
	defer policyPool.Put(policy)

	// The policy escapes the text it keeps, so unescape after collapsing
	return strings.TrimSpace(html.UnescapeString(repeatedSpaceRegex.ReplaceAllString(
		policy.Sanitize(s), " ",
	)))
}
