// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Policy is the shared policy for announcement, constitution and minutes
// bodies: user-generated content rules plus table cell spans.
func Policy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
		p.RequireNoFollowOnLinks(true)
		policy = p
	})
	return policy
}

// Sanitize strips anything unsafe from an HTML fragment.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return Policy().Sanitize(s)
}

// IsPlainText reports whether s has no markup: no '<' that starts a tag,
// closing tag, comment or doctype.
func IsPlainText(s string) bool {
	for i := 0; i < len(s)-1; i++ {
		if s[i] != '<' {
			continue
		}
		c := s[i+1]
		if c == '/' || c == '!' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// Body cleans a stored body. Plain text is only trimmed, so characters
// such as '&' survive unescaped; markup goes through Sanitize.
func Body(s string) string {
	s = strings.TrimSpace(s)
	if IsPlainText(s) {
		return s
	}
	return strings.TrimSpace(Sanitize(s))
}
