// Package coordinator implements the cached request coordinator from
// spec §4.G: cache lookup, fetch-on-miss, outcome normalization, and the
// fail-closed/permissive asymmetry between Unreachable and Unavailable
// snapshots that IsAllowed exposes to callers. It is grounded in the
// teacher's Checker.CanFetch, generalized from a bool-returning ad-hoc
// checker into the full snapshot-returning coordinator the spec
// describes.
package coordinator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chosunone/robots-server/internal/audit"
	"github.com/chosunone/robots-server/internal/cache"
	"github.com/chosunone/robots-server/internal/canonical"
	"github.com/chosunone/robots-server/internal/fetcher"
	"github.com/chosunone/robots-server/internal/matcher"
	"github.com/chosunone/robots-server/internal/policy"
)

// StatusCode is the small set of caller-facing fault codes from spec §4.H.
type StatusCode int

const (
	StatusOK StatusCode = iota
	StatusInvalidArgument
	StatusInternal
)

// StatusError is returned by Coordinator methods in place of a snapshot
// when the request itself cannot be served (as opposed to the origin
// being unreachable, which is a *valid*, cacheable outcome).
type StatusError struct {
	Code    StatusCode
	Message string
}

func (e *StatusError) Error() string { return e.Message }

func invalidArgument(msg string) *StatusError {
	return &StatusError{Code: StatusInvalidArgument, Message: msg}
}

func internalError(msg string) *StatusError {
	return &StatusError{Code: StatusInternal, Message: msg}
}

// DefaultTTL is the uniform retention applied to every cached snapshot,
// positive or negative, per spec §3/§4.F.
const DefaultTTL = 24 * time.Hour

// Coordinator ties the cache (F) and the fetcher (E) together behind the
// two operations the RPC surface (H) calls.
type Coordinator struct {
	cache   cache.Cache[string, *policy.Snapshot]
	fetcher *fetcher.Fetcher
	ttl     time.Duration
	logger  *zap.Logger
}

// New builds a Coordinator. ttl defaults to DefaultTTL when zero.
func New(c cache.Cache[string, *policy.Snapshot], f *fetcher.Fetcher, ttl time.Duration, logger *zap.Logger) *Coordinator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Coordinator{cache: c, fetcher: f, ttl: ttl, logger: logger}
}

// GetRobots resolves targetURL to a policy snapshot: a cache hit is
// returned directly; a miss fetches, normalizes, caches and returns the
// result. InvalidURL surfaces as StatusInvalidArgument and is never
// cached; unexpected fetch failures and cache read failures surface as
// StatusInternal. A failed cache write is logged and the snapshot is still
// returned.
// requestID is the RPC correlation id (may be empty outside the RPC
// surface, e.g. in tests); it is carried into every log line and audit
// entry this call produces.
func (c *Coordinator) GetRobots(ctx context.Context, targetURL, requestID string) (*policy.Snapshot, *StatusError) {
	start := time.Now()
	robotsURL, err := canonical.RobotsURLFor(targetURL)
	if err != nil {
		return nil, invalidArgument(err.Error())
	}

	if snapshot, ok, err := c.cache.Get(ctx, robotsURL); err == nil && ok {
		audit.LogFetch(c.logger, audit.Entry{
			RequestID: requestID, TargetURL: targetURL, RobotsURL: robotsURL, CacheHit: true,
			AccessResult: snapshot.AccessResult.String(), StatusCode: snapshot.HTTPStatusCode,
			DurationMs: time.Since(start).Milliseconds(),
		})
		return snapshot, nil
	} else if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", robotsURL), zap.String("request_id", requestID), zap.Error(err))
		return nil, internalError(err.Error())
	}

	snapshot, fetchErr := c.fetcher.Fetch(ctx, targetURL)
	if fetchErr != nil {
		return c.handleFetchError(ctx, targetURL, robotsURL, requestID, fetchErr, start)
	}

	if err := c.cache.Set(ctx, robotsURL, snapshot, c.ttl); err != nil {
		c.logger.Warn("failed to cache robots.txt snapshot", zap.String("key", robotsURL), zap.String("request_id", requestID), zap.Error(err))
	}
	audit.LogFetch(c.logger, audit.Entry{
		RequestID: requestID, TargetURL: targetURL, RobotsURL: robotsURL, CacheHit: false,
		AccessResult: snapshot.AccessResult.String(), StatusCode: snapshot.HTTPStatusCode,
		Truncated: snapshot.Truncated, DurationMs: time.Since(start).Milliseconds(),
	})
	return snapshot, nil
}

// handleFetchError implements §4.G-Normalize: Timeout/TooManyRedirects/
// Unavailable/Unreachable become cached, valid snapshots; InvalidURL and
// anything else surface to the caller uncached.
func (c *Coordinator) handleFetchError(ctx context.Context, targetURL, robotsURL, requestID string, fetchErr *fetcher.Error, start time.Time) (*policy.Snapshot, *StatusError) {
	var snapshot *policy.Snapshot

	switch fetchErr.Kind {
	case fetcher.KindUnavailable:
		snapshot = &policy.Snapshot{
			TargetURL: targetURL, RobotsTxtURL: robotsURL,
			AccessResult: policy.AccessResultUnavailable, HTTPStatusCode: fetchErr.Status,
		}
	case fetcher.KindUnreachable:
		snapshot = &policy.Snapshot{
			TargetURL: targetURL, RobotsTxtURL: robotsURL,
			AccessResult: policy.AccessResultUnreachable, HTTPStatusCode: fetchErr.Status,
		}
	case fetcher.KindTimeout, fetcher.KindTooManyRedirects:
		snapshot = &policy.Snapshot{
			TargetURL: targetURL, RobotsTxtURL: robotsURL,
			AccessResult: policy.AccessResultUnreachable,
		}
	case fetcher.KindInvalidURL:
		return nil, invalidArgument(fetchErr.Error())
	default:
		c.logger.Warn("unexpected fetch failure", zap.String("url", targetURL), zap.String("request_id", requestID), zap.Error(fetchErr))
		return nil, internalError(fetchErr.Error())
	}

	if err := c.cache.Set(ctx, robotsURL, snapshot, c.ttl); err != nil {
		c.logger.Warn("failed to cache negative robots.txt outcome", zap.String("key", robotsURL), zap.String("request_id", requestID), zap.Error(err))
	}
	audit.LogFetch(c.logger, audit.Entry{
		RequestID: requestID, TargetURL: targetURL, RobotsURL: robotsURL, CacheHit: false,
		AccessResult: snapshot.AccessResult.String(), StatusCode: snapshot.HTTPStatusCode,
		Error: fetchErr.Error(), DurationMs: time.Since(start).Milliseconds(),
	})
	return snapshot, nil
}

// IsAllowed resolves the snapshot for targetURL, then evaluates the
// matcher against it. Unreachable snapshots fail closed (false);
// Unavailable and Unspecified snapshots have no groups and therefore
// always yield true per RFC 9309 §2.3.1.3.
func (c *Coordinator) IsAllowed(ctx context.Context, targetURL, userAgent, requestID string) (bool, *StatusError) {
	snapshot, statusErr := c.GetRobots(ctx, targetURL, requestID)
	if statusErr != nil {
		return false, statusErr
	}

	if snapshot.AccessResult == policy.AccessResultUnreachable {
		return false, nil
	}

	path, err := canonical.PathFor(targetURL)
	if err != nil {
		return false, invalidArgument(err.Error())
	}

	groups := make([]matcher.Group, 0, len(snapshot.Groups))
	for _, g := range snapshot.Groups {
		mg := matcher.Group{UserAgents: g.UserAgents}
		for _, r := range g.Rules {
			switch r.RuleType {
			case policy.RuleTypeAllow:
				mg.Rules = append(mg.Rules, matcher.Rule{IsAllow: true, PathPattern: r.PathPattern})
			case policy.RuleTypeDisallow:
				mg.Rules = append(mg.Rules, matcher.Rule{IsAllow: false, PathPattern: r.PathPattern})
			}
		}
		groups = append(groups, mg)
	}

	return matcher.IsAllowed(groups, userAgent, path), nil
}
