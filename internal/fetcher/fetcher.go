// Package fetcher drives the outbound HTTP side of the pipeline: it
// derives a robots.txt URL, issues a bounded, streamed GET, and classifies
// the response into a policy snapshot or a design-level Error — see
// errors.go. It is grounded in the teacher's internal/httpclient package,
// generalized from an ad-hoc robots.txt-only client into the full
// §4.E contract (streamed, newline-aligned truncation; status
// classification; redirect/timeout handling).
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/chosunone/robots-server/internal/canonical"
	"github.com/chosunone/robots-server/internal/policy"
	"github.com/chosunone/robots-server/internal/robotsparser"
)

// DefaultMaxBodyBytes is the size cap from §4.E: 550 KiB.
const DefaultMaxBodyBytes = 550 * 1024

// DefaultTimeout is the total per-request budget from §4.E/§6.
const DefaultTimeout = 30 * time.Second

// DefaultMaxRedirects is the redirect chain cap from §4.E/§6.
const DefaultMaxRedirects = 5

// DefaultUserAgent is used when Config.UserAgent is empty.
const DefaultUserAgent = "RobotsServerBot/1.0 (+https://example.invalid/bot)"

var errTooManyRedirects = errors.New("too many redirects")

// Config configures a Fetcher's outbound behavior.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	UserAgent    string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// Fetcher issues the outbound robots.txt GET described by §4.E.
type Fetcher struct {
	client *http.Client
	cfg    Config
	logger *zap.Logger
}

// New builds a Fetcher whose http.Client enforces cfg's timeout and
// redirect cap.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	cfg = cfg.withDefaults()
	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > cfg.MaxRedirects {
				return errTooManyRedirects
			}
			return nil
		},
	}
	return &Fetcher{client: client, cfg: cfg, logger: logger}
}

// Fetch derives the robots.txt URL for targetURL, issues the GET, and
// returns either a populated Success snapshot or a design-level Error.
// It never returns both.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*policy.Snapshot, *Error) {
	robotsURL, err := canonical.RobotsURLFor(targetURL)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Reason: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalidURL, Reason: err.Error()}
	}
	req.Header.Set("Accept", "text/plain, */*;q=0.1")
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, errTooManyRedirects) {
			return nil, &Error{Kind: KindTooManyRedirects}
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &Error{Kind: KindTimeout}
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &Error{Kind: KindTimeout}
		}
		return nil, &Error{Kind: KindUnreachable, Reason: err.Error()}
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	switch {
	case status >= 200 && status < 300:
		return f.readSuccess(resp, targetURL, robotsURL, status)
	case status >= 400 && status < 500:
		return nil, &Error{Kind: KindUnavailable, Status: status}
	case status >= 500 && status < 600:
		return nil, &Error{Kind: KindUnreachable, Status: status, Reason: resp.Status}
	default:
		return nil, &Error{Kind: KindUnreachable, Status: status, Reason: resp.Status}
	}
}

func (f *Fetcher) readSuccess(resp *http.Response, targetURL, robotsURL string, status int) (*policy.Snapshot, *Error) {
	body, truncated, err := readBounded(resp.Body, f.cfg.MaxBodyBytes)
	if err != nil {
		return nil, &Error{Kind: KindUnreachable, Reason: err.Error()}
	}

	parsed := robotsparser.Parse(string(body))
	groups, sitemaps := policy.FromParsed(parsed)

	snapshot := &policy.Snapshot{
		TargetURL:      targetURL,
		RobotsTxtURL:   robotsURL,
		AccessResult:   policy.AccessResultSuccess,
		HTTPStatusCode: status,
		Groups:         groups,
		Sitemaps:       sitemaps,
		Truncated:      truncated,
	}
	if resp.ContentLength > 0 {
		snapshot.ContentLengthBytes = resp.ContentLength
	}
	return snapshot, nil
}

// readBounded reads r until EOF or cap bytes, whichever comes first. When
// a chunk would cross cap, it looks for the last '\n' within the bytes
// that would fit; if found, the read stops exactly after that newline; if
// not, the accumulated body is truncated back to the last newline seen in
// any earlier chunk (or emptied, if none has ever been seen). This
// guarantees the returned body never ends mid-line, so the parser never
// sees a truncated directive.
func readBounded(r io.Reader, cap int64) ([]byte, bool, error) {
	var buf bytes.Buffer
	lastNewline := -1 // offset into buf of the most recent '\n' seen, -1 if none
	chunk := make([]byte, 32*1024)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			data := chunk[:n]
			if int64(buf.Len()+n) <= cap {
				buf.Write(data)
				if i := bytes.LastIndexByte(data, '\n'); i >= 0 {
					lastNewline = buf.Len() - n + i
				}
			} else {
				room := int(cap - int64(buf.Len()))
				if room < 0 {
					room = 0
				}
				prefix := data
				if room < len(data) {
					prefix = data[:room]
				}
				if i := bytes.LastIndexByte(prefix, '\n'); i >= 0 {
					buf.Write(prefix[:i+1])
				} else if lastNewline >= 0 {
					buf.Truncate(lastNewline + 1)
				} else {
					buf.Reset()
				}
				return buf.Bytes(), true, nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return buf.Bytes(), false, nil
			}
			return buf.Bytes(), false, err
		}
	}
}
