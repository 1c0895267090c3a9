// Package policy holds the in-memory representation of a parsed robots.txt
// policy. It is passive data: matching is implemented by the matcher
// package, not here, so that the model never needs to be round-tripped
// back through a text parser to answer a query.
package policy

import (
	"strings"

	"github.com/chosunone/robots-server/internal/robotsparser"
)

// AccessResult is the coarse outcome of a fetch attempt for one origin.
type AccessResult int

const (
	AccessResultUnspecified AccessResult = iota
	AccessResultSuccess
	AccessResultUnavailable
	AccessResultUnreachable
)

func (r AccessResult) String() string {
	switch r {
	case AccessResultSuccess:
		return "SUCCESS"
	case AccessResultUnavailable:
		return "UNAVAILABLE"
	case AccessResultUnreachable:
		return "UNREACHABLE"
	default:
		return "UNSPECIFIED"
	}
}

// RuleType distinguishes an allow directive from a disallow directive.
type RuleType int

const (
	RuleTypeUnspecified RuleType = iota
	RuleTypeAllow
	RuleTypeDisallow
)

func (t RuleType) String() string {
	switch t {
	case RuleTypeAllow:
		return "ALLOW"
	case RuleTypeDisallow:
		return "DISALLOW"
	default:
		return "UNSPECIFIED"
	}
}

// Rule is a single allow/disallow directive as written in robots.txt.
type Rule struct {
	RuleType    RuleType
	PathPattern string
}

// Group is a cluster of user-agent tokens sharing one ordered rule list.
type Group struct {
	UserAgents        []string
	Rules             []Rule
	CrawlDelaySeconds int
}

// Snapshot is the cached unit: a parsed, immutable policy plus the outcome
// classification of the fetch that produced it. Snapshots are never
// mutated in place; the coordinator replaces an entry atomically.
type Snapshot struct {
	TargetURL          string
	RobotsTxtURL       string
	AccessResult       AccessResult
	HTTPStatusCode     int
	Groups             []Group
	Sitemaps           []string
	ContentLengthBytes int64
	Truncated          bool
}

// FromParsed builds the Groups/Sitemaps of a Snapshot from a parser result.
// It assigns one Group per distinct user-agent token the parser produced,
// appending Allow rules before Disallow rules within each group (order
// within a type follows parser order; it does not affect the matcher's
// decision since the matcher picks the longest matching pattern).
func FromParsed(parsed robotsparser.Result) ([]Group, []string) {
	groups := make([]Group, 0, len(parsed.Groups))
	for _, pg := range parsed.Groups {
		g := Group{
			UserAgents:        []string{pg.UserAgent},
			CrawlDelaySeconds: int(pg.CrawlDelay),
		}
		for _, pattern := range pg.Allow {
			if pattern == "" {
				continue
			}
			g.Rules = append(g.Rules, Rule{RuleType: RuleTypeAllow, PathPattern: pattern})
		}
		for _, pattern := range pg.Disallow {
			if pattern == "" {
				continue
			}
			g.Rules = append(g.Rules, Rule{RuleType: RuleTypeDisallow, PathPattern: pattern})
		}
		groups = append(groups, g)
	}
	return groups, parsed.Sitemaps
}

// Text re-emits the snapshot as robots.txt source text. It is used for
// debugging/telemetry only; production code never feeds this back into a
// parser to answer IsAllowed.
func (s *Snapshot) Text() string {
	var b strings.Builder
	for _, g := range s.Groups {
		for _, ua := range g.UserAgents {
			b.WriteString("User-agent: ")
			b.WriteString(ua)
			b.WriteByte('\n')
		}
		for _, r := range g.Rules {
			switch r.RuleType {
			case RuleTypeAllow:
				b.WriteString("Allow: ")
			case RuleTypeDisallow:
				b.WriteString("Disallow: ")
			default:
				continue
			}
			b.WriteString(r.PathPattern)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	for _, sm := range s.Sitemaps {
		b.WriteString("Sitemap: ")
		b.WriteString(sm)
		b.WriteByte('\n')
	}
	return b.String()
}
