package devapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/scholardesk/pkg/api"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin123"
)

// clock: управляемые часы для проверки истечения токенов
type clock struct {
	now time.Time
	mu  sync.Mutex
}

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	srv   *Server
	ts    *httptest.Server
	clock *clock
}

// newTestEnv поднимает сервер с super admin и демо стипендиями
func newTestEnv(t *testing.T, mutate ...func(*Options)) *testEnv {
	t.Helper()

	clk := newClock()
	opts := Options{
		Now:        clk.Now,
		Secret:     []byte("test-secret"),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}
	for _, m := range mutate {
		m(&opts)
	}

	srv := New(zap.NewNop(), opts)
	_, err := srv.SeedAdmin(adminEmail, adminPassword)
	require.NoError(t, err)
	srv.SeedScholarships()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, ts: ts, clock: clk}
}

func (e *testEnv) url(path string) string {
	return e.ts.URL + BasePath + path
}

// do выполняет запрос; body сериализуется в JSON
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.url(path), reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) login(t *testing.T, email, password string) api.TokenPair {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/auth/login/", "", api.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var out api.LoginResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Tokens
}

func (e *testEnv) registerStudent(t *testing.T, email string) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/auth/student/register/", "", api.StudentRegisterRequest{
		User: api.Account{
			Username:  email,
			Email:     email,
			Password:  "secret123",
			FirstName: "Ada",
			LastName:  "Lovelace",
		},
		Phone:              "+44 20 7946 0958",
		Nationality:        "British",
		CountryOfResidence: "United Kingdom",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
}

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}
