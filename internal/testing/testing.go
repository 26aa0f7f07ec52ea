// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ytlinks/internal/models"
	"github.com/desertthunder/ytlinks/internal/services"
	"github.com/desertthunder/ytlinks/internal/shared"
)

// MockResolver is a test double for [services.TrackResolver].
//
// Unknown IDs fail with [shared.ErrLookupHTTP] wrapping a 404, like the real resolver.
type MockResolver struct {
	Tracks map[string]*services.TrackInfo
	Errs   map[string]error
	Calls  []string
}

func (m *MockResolver) Resolve(ctx context.Context, trackID string) (*services.TrackInfo, error) {
	m.Calls = append(m.Calls, trackID)
	if err, ok := m.Errs[trackID]; ok {
		return nil, err
	}
	if info, ok := m.Tracks[trackID]; ok {
		return info, nil
	}
	return nil, errors.Join(shared.ErrLookupHTTP, &shared.StatusError{StatusCode: http.StatusNotFound})
}

// MockSearcher is a test double for [services.VideoSearcher] keyed by query.
//
// Unknown queries return no result.
type MockSearcher struct {
	Results map[string]string
	Errs    map[string]error
	Queries []string
}

func (m *MockSearcher) Search(ctx context.Context, query string) (string, error) {
	m.Queries = append(m.Queries, query)
	if err, ok := m.Errs[query]; ok {
		return "", err
	}
	return m.Results[query], nil
}

func (m *MockSearcher) Name() string { return "mock" }

// MemoryLinkCache is an in-memory link cache.
type MemoryLinkCache struct {
	mu        sync.Mutex
	links     map[string]*models.ResolvedLink
	LookupErr error
	SaveErr   error
	Saves     int
}

func NewMemoryLinkCache(links ...*models.ResolvedLink) *MemoryLinkCache {
	c := &MemoryLinkCache{links: make(map[string]*models.ResolvedLink)}
	for _, l := range links {
		c.links[l.TrackID()] = l
	}
	return c
}

func (c *MemoryLinkCache) Lookup(trackID string) (*models.ResolvedLink, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LookupErr != nil {
		return nil, c.LookupErr
	}
	return c.links[trackID], nil
}

func (c *MemoryLinkCache) Save(trackID, title, artist, album, videoURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Saves++
	if c.SaveErr != nil {
		return c.SaveErr
	}
	c.links[trackID] = models.NewResolvedLink(trackID, title, artist, album, videoURL)
	return nil
}

// Get returns the stored link for trackID without counting as a lookup.
func (c *MemoryLinkCache) Get(trackID string) *models.ResolvedLink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.links[trackID]
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
