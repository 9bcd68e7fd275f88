// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/yotoshare/internal/models"
	"github.com/desertthunder/yotoshare/internal/shared"
)

// MockService is a test double for [services.Service] serving Cards from memory.
type MockService struct {
	Playlists []models.Card
	Profile   *models.UserProfile
	Err       error
	mu        sync.Mutex
	CardCalls int
}

func (m *MockService) Cards(ctx context.Context) ([]models.Card, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Playlists, nil
}

func (m *MockService) Card(ctx context.Context, cardID string) (*models.Card, error) {
	m.mu.Lock()
	m.CardCalls++
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Playlists {
		if m.Playlists[i].CardID == cardID {
			c := m.Playlists[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, cardID)
}

func (m *MockService) UserProfile(ctx context.Context) (*models.UserProfile, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Profile == nil {
		return &models.UserProfile{UserID: "mock-user"}, nil
	}
	return m.Profile, nil
}

func (m *MockService) Name() string { return "mock" }

// MockTokenClient is a test double for the token endpoint that records every call.
type MockTokenClient struct {
	mu sync.Mutex

	ExchangeResult *models.TokenResponse
	ExchangeErr    error
	RefreshResult  *models.TokenResponse
	RefreshErr     error
	// RefreshDelay blocks RefreshToken until the channel is closed, when set.
	RefreshDelay chan struct{}

	ExchangeCalls []ExchangeCall
	RefreshCalls  []string
	AuthURLCalls  int
}

type ExchangeCall struct {
	Code     string
	Verifier string
}

func (m *MockTokenClient) AuthCodeURL(state, challenge string) string {
	m.mu.Lock()
	m.AuthURLCalls++
	m.mu.Unlock()

	q := url.Values{"state": {state}, "code_challenge": {challenge}, "code_challenge_method": {"S256"}}
	return "https://auth.example.com/authorize?" + q.Encode()
}

func (m *MockTokenClient) ExchangeCode(ctx context.Context, code, verifier string) (*models.TokenResponse, error) {
	m.mu.Lock()
	m.ExchangeCalls = append(m.ExchangeCalls, ExchangeCall{Code: code, Verifier: verifier})
	m.mu.Unlock()

	if m.ExchangeErr != nil {
		return nil, m.ExchangeErr
	}
	return m.ExchangeResult, nil
}

func (m *MockTokenClient) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	m.mu.Lock()
	m.RefreshCalls = append(m.RefreshCalls, refreshToken)
	m.mu.Unlock()

	if m.RefreshDelay != nil {
		<-m.RefreshDelay
	}
	if m.RefreshErr != nil {
		return nil, m.RefreshErr
	}
	return m.RefreshResult, nil
}

// Calls returns the number of exchange and refresh calls made so far.
func (m *MockTokenClient) Calls() (exchanges, refreshes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ExchangeCalls), len(m.RefreshCalls)
}

// MockExportRecorder collects export records in memory.
type MockExportRecorder struct {
	mu      sync.Mutex
	Err     error
	Records []*models.ExportRecord
}

func (m *MockExportRecorder) Create(ctx context.Context, record *models.ExportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	record.SetID(shared.GenerateID())
	record.SetSequence(len(m.Records) + 1)
	m.Records = append(m.Records, record)
	return nil
}

// Len returns the number of stored records.
func (m *MockExportRecorder) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Records)
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

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
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
