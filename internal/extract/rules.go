package extract

import (
	"regexp"
	"strings"
)

// Input is the text a rule inspects: the per-page texts and their
// newline-joined concatenation.
type Input struct {
	Pages []string
	Text  string
}

// NewInput joins pages with newlines, normalizing form feeds and CRLF.
func NewInput(pages []string) *Input {
	norm := make([]string, len(pages))
	for i, p := range pages {
		norm[i] = normalizeBreaks(p)
	}
	return &Input{Pages: norm, Text: strings.Join(norm, "\n")}
}

var breakReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n")

func normalizeBreaks(s string) string {
	return breakReplacer.Replace(s)
}

// Match holds the captured values of a successful rule.
type Match []string

// Rule is a pure text -> optional value step.
type Rule struct {
	Name  string
	Apply func(in *Input) (Match, bool)
}

// Chain is an ordered list of rules; the first success wins.
type Chain []Rule

// Run applies rules in order and stops at the first one that matches.
func (c Chain) Run(in *Input) (Match, string, bool) {
	for _, r := range c {
		if m, ok := r.Apply(in); ok {
			return m, r.Name, true
		}
	}
	return nil, "", false
}

// regexRule captures the given groups of the first match of re in the joined
// text. Group 0 is the whole match. All groups must be non-empty after trimming.
func regexRule(name string, re *regexp.Regexp, groups ...int) Rule {
	return Rule{
		Name: name,
		Apply: func(in *Input) (Match, bool) {
			sub := re.FindStringSubmatch(in.Text)
			if sub == nil {
				return nil, false
			}
			m := make(Match, 0, len(groups))
			for _, g := range groups {
				v := strings.TrimSpace(sub[g])
				if v == "" {
					return nil, false
				}
				m = append(m, v)
			}
			return m, true
		},
	}
}

// markerLinesRule scans each page line by line for marker, then searches the
// remainder of that line and up to lookahead following lines for re.
func markerLinesRule(name, marker string, re *regexp.Regexp, lookahead int) Rule {
	return Rule{
		Name: name,
		Apply: func(in *Input) (Match, bool) {
			for _, page := range in.Pages {
				lines := strings.Split(page, "\n")
				for i, line := range lines {
					idx := strings.LastIndex(line, marker)
					if idx < 0 {
						continue
					}
					if v := re.FindString(line[idx+len(marker):]); v != "" {
						return Match{v}, true
					}
					for off := 1; off <= lookahead && i+off < len(lines); off++ {
						if v := re.FindString(strings.TrimSpace(lines[i+off])); v != "" {
							return Match{v}, true
						}
					}
				}
			}
			return nil, false
		},
	}
}

// containsRule yields label when the literal needle appears in the text.
func containsRule(name, needle, label string) Rule {
	return Rule{
		Name: name,
		Apply: func(in *Input) (Match, bool) {
			if needle == "" || !strings.Contains(in.Text, needle) {
				return nil, false
			}
			return Match{label}, true
		},
	}
}
