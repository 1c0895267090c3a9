// Package robotsparser turns raw robots.txt text into user-agent groups,
// allow/disallow path patterns and sitemap URLs. It is a thin, forgiving
// line-oriented parser: malformed input degrades to fewer groups or rules,
// never an error, so that a truncated or corrupted body never blocks the
// rest of the pipeline.
package robotsparser

import "strings"

// ParsedGroup is everything the parser collected for one user-agent token.
type ParsedGroup struct {
	UserAgent  string
	Allow      []string
	Disallow   []string
	CrawlDelay float64
}

// Result is the full output of Parse.
type Result struct {
	Groups   []ParsedGroup
	Sitemaps []string
}

// Parse reads robots.txt source text and returns one ParsedGroup per
// distinct user-agent token it names, preserving the order in which each
// token was first introduced. It never returns an error.
func Parse(body string) Result {
	var result Result
	index := make(map[string]int)

	var activeAgents []string
	awaitingUserAgent := true

	lines := strings.Split(body, "\n")
	for _, line := range lines {
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		directive := strings.ToLower(strings.TrimSpace(line[:colon]))
		value := strings.TrimSpace(line[colon+1:])

		switch directive {
		case "user-agent":
			if !awaitingUserAgent {
				activeAgents = nil
			}
			ua := strings.ToLower(value)
			activeAgents = append(activeAgents, ua)
			if _, ok := index[ua]; !ok {
				index[ua] = len(result.Groups)
				result.Groups = append(result.Groups, ParsedGroup{UserAgent: ua})
			}
			awaitingUserAgent = true
			continue
		case "allow":
			for _, ua := range activeAgents {
				g := &result.Groups[index[ua]]
				g.Allow = append(g.Allow, value)
			}
		case "disallow":
			for _, ua := range activeAgents {
				g := &result.Groups[index[ua]]
				g.Disallow = append(g.Disallow, value)
			}
		case "crawl-delay":
			if delay, ok := parseFloat(value); ok {
				for _, ua := range activeAgents {
					g := &result.Groups[index[ua]]
					g.CrawlDelay = delay
				}
			}
		case "sitemap":
			if value != "" {
				result.Sitemaps = append(result.Sitemaps, value)
			}
		}
		awaitingUserAgent = false
	}

	return result
}

// parseFloat is a small, error-free float parser: crawl-delay values that
// don't parse are ignored rather than surfaced as an error, matching the
// rest of this parser's no-fail posture.
func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	neg := false
	i := 0
	if s[0] == '-' || s[0] == '+' {
		neg = s[0] == '-'
		i++
	}
	var intPart, fracPart float64
	fracDiv := 1.0
	sawDigit := false
	sawDot := false
	for ; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			sawDigit = true
			d := float64(c - '0')
			if sawDot {
				fracDiv *= 10
				fracPart = fracPart*10 + d
			} else {
				intPart = intPart*10 + d
			}
		case c == '.' && !sawDot:
			sawDot = true
		default:
			return 0, false
		}
	}
	if !sawDigit {
		return 0, false
	}
	v := intPart + fracPart/fracDiv
	if neg {
		v = -v
	}
	return v, true
}
