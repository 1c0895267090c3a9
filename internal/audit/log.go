// Package audit logs one structured record per coordinator lookup,
// adapted from the teacher's HTTP-request audit log: the fields change
// (robots outcome instead of provider-scrape outcome, zap instead of
// slog to match this binary's chosen logger) but the shape — a small
// Entry struct fanned out by a single LogFetch function — is the
// teacher's.
package audit

import "go.uber.org/zap"

// Entry is one record of a coordinator lookup, whether served from cache
// or freshly fetched.
type Entry struct {
	RequestID    string
	TargetURL    string
	RobotsURL    string
	CacheHit     bool
	AccessResult string
	StatusCode   int
	Truncated    bool
	DurationMs   int64
	Error        string
}

// LogFetch writes entry as a single structured log line.
func LogFetch(logger *zap.Logger, entry Entry) {
	fields := []zap.Field{
		zap.String("target_url", entry.TargetURL),
		zap.String("robots_url", entry.RobotsURL),
		zap.Bool("cache_hit", entry.CacheHit),
		zap.String("access_result", entry.AccessResult),
		zap.Int("status_code", entry.StatusCode),
		zap.Int64("duration_ms", entry.DurationMs),
	}
	if entry.RequestID != "" {
		fields = append(fields, zap.String("request_id", entry.RequestID))
	}
	if entry.Truncated {
		fields = append(fields, zap.Bool("truncated", true))
	}
	if entry.Error != "" {
		fields = append(fields, zap.String("error", entry.Error))
		logger.Warn("robots.txt lookup", fields...)
		return
	}
	logger.Info("robots.txt lookup", fields...)
}
