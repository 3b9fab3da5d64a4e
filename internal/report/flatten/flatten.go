// Package flatten turns the HTML fragments produced by the analysis backend
// into plain text with Markdown-style emphasis markers.
package flatten

import (
	"regexp"
	"strings"
)

var (
	lineBreakRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	paraCloseRe  = regexp.MustCompile(`(?i)</p>`)
	paraOpenRe   = regexp.MustCompile(`(?i)<p(\s[^>]*)?>`)
	strongRe     = regexp.MustCompile(`(?i)<strong(\s[^>]*)?>(.*?)</strong>`)
	emRe         = regexp.MustCompile(`(?i)<em(\s[^>]*)?>(.*?)</em>`)
	headingRe    = regexp.MustCompile(`(?i)<h([1-6])(\s[^>]*)?>(.*?)</h[1-6]>`)
	anyTagRe     = regexp.MustCompile(`<[^>]+>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// entities are decoded one after another, so "&amp;lt;" ends up as "<".
var entities = [][2]string{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
}

// HTML flattens an HTML fragment. Each step works on the output of the
// previous one, so the order below must not change.
func HTML(s string) string {
	if s == "" {
		return ""
	}

	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = paraCloseRe.ReplaceAllString(s, "\n\n")
	s = paraOpenRe.ReplaceAllString(s, "")
	s = strongRe.ReplaceAllString(s, "**${2}**")
	s = emRe.ReplaceAllString(s, "*${2}*")
	s = headingRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := headingRe.FindStringSubmatch(m)
		level := int(sub[1][0] - '0')
		return strings.Repeat("#", level) + " " + sub[3] + "\n"
	})
	s = anyTagRe.ReplaceAllString(s, "")
	for _, e := range entities {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	s = blankLinesRe.ReplaceAllString(s, "\n\n")

	return strings.TrimSpace(s)
}

// All flattens every fragment of list, dropping the ones that end up empty.
func All(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if f := HTML(s); f != "" {
			out = append(out, f)
		}
	}
	return out
}
