package fetcher

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chosunone/robots-server/internal/policy"
)

func newFetcher(cfg Config) *Fetcher {
	return New(cfg, zap.NewNop())
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *\nDisallow: /admin/\n"))
	}))
	defer srv.Close()

	f := newFetcher(Config{})
	snapshot, fetchErr := f.Fetch(context.Background(), srv.URL+"/page")
	if fetchErr != nil {
		t.Fatalf("unexpected fetch error: %v", fetchErr)
	}
	if snapshot.AccessResult != policy.AccessResultSuccess {
		t.Errorf("expected success, got %v", snapshot.AccessResult)
	}
	if snapshot.HTTPStatusCode != 200 {
		t.Errorf("expected status 200, got %d", snapshot.HTTPStatusCode)
	}
	if len(snapshot.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(snapshot.Groups))
	}
}

func TestFetch_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newFetcher(Config{})
	_, fetchErr := f.Fetch(context.Background(), srv.URL+"/page")
	if fetchErr == nil {
		t.Fatal("expected fetch error")
	}
	if fetchErr.Kind != KindUnavailable {
		t.Errorf("expected KindUnavailable, got %v", fetchErr.Kind)
	}
	if fetchErr.Status != 404 {
		t.Errorf("expected status 404, got %d", fetchErr.Status)
	}
}

func TestFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := newFetcher(Config{})
	_, fetchErr := f.Fetch(context.Background(), srv.URL+"/page")
	if fetchErr == nil {
		t.Fatal("expected fetch error")
	}
	if fetchErr.Kind != KindUnreachable {
		t.Errorf("expected KindUnreachable, got %v", fetchErr.Kind)
	}
	if fetchErr.Status != 500 {
		t.Errorf("expected status 500, got %d", fetchErr.Status)
	}
}

func TestFetch_TooManyRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	f := newFetcher(Config{MaxRedirects: 2})
	_, fetchErr := f.Fetch(context.Background(), srv.URL+"/page")
	if fetchErr == nil {
		t.Fatal("expected fetch error")
	}
	if fetchErr.Kind != KindTooManyRedirects {
		t.Errorf("expected KindTooManyRedirects, got %v", fetchErr.Kind)
	}
}

func TestFetch_ContentLengthCaptured(t *testing.T) {
	body := "User-agent: *\nDisallow: /\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	f := newFetcher(Config{})
	snapshot, fetchErr := f.Fetch(context.Background(), srv.URL+"/page")
	if fetchErr != nil {
		t.Fatalf("unexpected fetch error: %v", fetchErr)
	}
	if snapshot.ContentLengthBytes != int64(len(body)) {
		t.Errorf("expected content length %d, got %d", len(body), snapshot.ContentLengthBytes)
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte("User-agent: *\n"))
	}))
	defer srv.Close()

	f := newFetcher(Config{Timeout: 5 * time.Millisecond})
	_, fetchErr := f.Fetch(context.Background(), srv.URL+"/page")
	if fetchErr == nil {
		t.Fatal("expected fetch error")
	}
	if fetchErr.Kind != KindTimeout && fetchErr.Kind != KindUnreachable {
		t.Errorf("expected KindTimeout or KindUnreachable, got %v", fetchErr.Kind)
	}
}

func TestReadBounded_TruncatesAtNewlineBoundary(t *testing.T) {
	line := strings.Repeat("a", 100) + "\n"
	var body bytes.Buffer
	lineCount := int(DefaultMaxBodyBytes/len(line)) + 10
	for i := 0; i < lineCount; i++ {
		body.WriteString(line)
	}

	data, truncated, err := readBounded(&body, DefaultMaxBodyBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !truncated {
		t.Fatal("expected truncation")
	}
	if int64(len(data)) > DefaultMaxBodyBytes {
		t.Errorf("expected body within cap, got %d bytes", len(data))
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Error("expected body to end on a newline boundary")
	}
}

func TestReadBounded_NoNewlineDiscardsEntirely(t *testing.T) {
	body := bytes.NewBufferString(strings.Repeat("a", int(DefaultMaxBodyBytes)+100))
	data, truncated, err := readBounded(body, DefaultMaxBodyBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !truncated {
		t.Fatal("expected truncation")
	}
	if len(data) != 0 {
		t.Errorf("expected empty body when no newline ever seen, got %d bytes", len(data))
	}
}

func TestReadBounded_UnderCapNotTruncated(t *testing.T) {
	body := bytes.NewBufferString("User-agent: *\nDisallow: /\n")
	data, truncated, err := readBounded(body, DefaultMaxBodyBytes)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truncated {
		t.Error("did not expect truncation")
	}
	if string(data) != "User-agent: *\nDisallow: /\n" {
		t.Errorf("unexpected body: %q", data)
	}
}
