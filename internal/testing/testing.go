// package testing holds test doubles and assertion helpers shared across
// the cmd and service test suites.
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/soundsift/soundsift/internal/models"
)

// MockSource is an in-memory [services.CatalogSource] serving a fixed
// library and playlist set. A non-nil Err is returned from every fetch.
type MockSource struct {
	Lib        *models.Library
	Lists      []models.Playlist
	Err        error
	SourceName string
}

func (m *MockSource) Name() string {
	if m.SourceName == "" {
		return "mock"
	}
	return m.SourceName
}

func (m *MockSource) Library(ctx context.Context) (*models.Library, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Lib, nil
}

func (m *MockSource) Playlists(ctx context.Context) ([]models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Lists, nil
}

// FWriter fails every Write, for exercising report output error paths.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (int, error) {
	return 0, errors.New("write failed")
}

// LimitedWriter forwards to target until maxWrites calls have succeeded,
// then fails. It simulates output sinks that break partway through a report.
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func (l *LimitedWriter) Write(p []byte) (int, error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

// MockRoundTripper substitutes for the proxy client's HTTP transport,
// returning a canned response or error for every request.
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

// FCloser is a response body whose reads always fail.
type FCloser struct{}

func (f *FCloser) Read(p []byte) (int, error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error { return nil }

// MustGetwd returns the current working directory or fails the test.
func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	return wd
}

// MustChdir changes into dir or fails the test. Callers restore the
// original directory themselves.
func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to change directory to %s: %v", dir, err)
	}
}

// AssertFileExists fails the test when path does not name an existing file.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %s: %v", path, err)
	}
}

// AssertDirExists fails the test when path does not name a directory.
func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected directory at %s: %v", path, err)
		return
	}
	if !info.IsDir() {
		t.Errorf("path is not a directory: %s", path)
	}
}
