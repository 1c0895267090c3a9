// Package matcher implements RFC 9309 §2.2 robots.txt matching directly
// over the in-memory policy model — no text round-trip, no regexp compile
// per rule. It is a pure function of (groups, user-agent, path); it never
// fails, and a malformed rule type is simply skipped when building the
// candidate pool.
package matcher

import "strings"

// Group and Rule are duplicated here as a minimal local view rather than
// importing the policy package's concrete types, so the algorithm can be
// exercised (and unit-tested) without any dependency beyond what it needs.
type Group struct {
	UserAgents []string
	Rules      []Rule
}

type Rule struct {
	IsAllow     bool
	PathPattern string
}

// IsAllowed decides whether path is crawlable by userAgent under the given
// groups, per RFC 9309 §2.2: longest matching pattern wins; ties are
// broken toward Allow; an empty candidate pool, or no matching group at
// all, means allowed.
func IsAllowed(groups []Group, userAgent, path string) bool {
	selected := selectGroups(groups, userAgent)
	if selected == nil {
		return true
	}

	bestLen := -1
	bestAllow := true
	found := false

	for _, g := range selected {
		for _, r := range g.Rules {
			if !matchesPattern(path, r.PathPattern) {
				continue
			}
			l := patternLength(r.PathPattern)
			if !found || l > bestLen {
				bestLen = l
				bestAllow = r.IsAllow
				found = true
			} else if l == bestLen && r.IsAllow {
				// allow-on-tie: once any tied candidate is Allow, the
				// decision is Allow regardless of disallow candidates
				// seen at the same length, before or after.
				bestAllow = true
			}
		}
	}

	if !found {
		return true
	}
	return bestAllow
}

// selectGroups implements §2.2 step 1: groups whose user-agent token is a
// case-insensitive substring of (or equal to) the request UA; falling back
// to groups carrying the literal "*" token; falling back to nil (meaning:
// no selection, caller should treat as allowed).
func selectGroups(groups []Group, userAgent string) []Group {
	lowerUA := strings.ToLower(userAgent)

	var specific []Group
	for _, g := range groups {
		for _, ua := range g.UserAgents {
			if ua == "" {
				continue
			}
			if strings.Contains(lowerUA, strings.ToLower(ua)) {
				specific = append(specific, g)
				break
			}
		}
	}
	if len(specific) > 0 {
		return specific
	}

	var wildcard []Group
	for _, g := range groups {
		for _, ua := range g.UserAgents {
			if ua == "*" {
				wildcard = append(wildcard, g)
				break
			}
		}
	}
	if len(wildcard) > 0 {
		return wildcard
	}

	return nil
}

// patternLength is the raw character count of the pattern as written,
// including any '*' and excluding a trailing anchor '$'.
func patternLength(pattern string) int {
	if strings.HasSuffix(pattern, "$") {
		return len(pattern) - 1
	}
	return len(pattern)
}

// matchesPattern implements §4.C-Patterns: '*' matches any run of bytes
// (including empty), a trailing '$' anchors to the end of path, and
// otherwise matching is a byte-wise prefix test. The empty pattern never
// matches (it contributes no rule, handled upstream, but is defended here
// too).
//
// The algorithm tracks the set of path offsets reachable after consuming
// a prefix of pattern: a single reachable offset for literal runs, an
// expanding range of offsets when a '*' is crossed. This linear-time
// technique (no backtracking) is what every "matches with '*' and '$'"
// robots.txt implementation converges on; the scan below performs the
// same positions-array walk this system's reference corpus uses for path
// matching.
func matchesPattern(path, pattern string) bool {
	if pattern == "" {
		return false
	}

	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = pattern[:len(pattern)-1]
	}

	pathLen := len(path)
	positions := make([]int, 1, pathLen+1)
	positions[0] = 0

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '*' {
			start := positions[0]
			positions = positions[:0]
			for p := start; p <= pathLen; p++ {
				positions = append(positions, p)
			}
			continue
		}
		next := positions[:0:0]
		for _, p := range positions {
			if p < pathLen && path[p] == c {
				next = append(next, p+1)
			}
		}
		positions = next
		if len(positions) == 0 {
			return false
		}
	}

	if len(positions) == 0 {
		return false
	}
	if anchored {
		return positions[len(positions)-1] == pathLen
	}
	return true
}
