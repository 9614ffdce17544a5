package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/scholardesk/internal/client/app"
	"github.com/iudanet/scholardesk/internal/client/iocli"
	"github.com/iudanet/scholardesk/internal/devapi"
)

const (
	superEmail    = "admin@example.com"
	superPassword = "admin123"
)

// testEnv: dev API и рабочая директория с bolt базой
type testEnv struct {
	dev    *devapi.Server
	server *httptest.Server
	dir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{EnvPassword, "SCHOLARDESK_CONFIG", "SCHOLARDESK_API_URL", "SCHOLARDESK_STORAGE"} {
		t.Setenv(key, "")
	}

	dev := devapi.New(zap.NewNop(), devapi.Options{BcryptCost: bcrypt.MinCost})
	_, err := dev.SeedAdmin(superEmail, superPassword)
	require.NoError(t, err)
	dev.SeedScholarships()

	server := httptest.NewServer(dev.Handler())
	t.Cleanup(server.Close)
	t.Cleanup(dev.Close)

	return &testEnv{dev: dev, server: server, dir: dir}
}

// run выполняет одну команду в новом процессе CLI. input подается на stdin
func (e *testEnv) run(t *testing.T, input string, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand(iocli.New(strings.NewReader(input), &out), "test",
		app.WithHTTPClient(e.server.Client()))
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--api-url", e.server.URL + devapi.BasePath,
		"--db", filepath.Join(e.dir, "session.db"),
	}, args...))

	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

// mustRun: run, который требует успеха
func (e *testEnv) mustRun(t *testing.T, input string, args ...string) string {
	t.Helper()
	out, _, err := e.run(t, input, args...)
	require.NoError(t, err, out)
	return out
}

func (e *testEnv) loginSuper(t *testing.T) {
	t.Helper()
	e.mustRun(t, "", "login", "--email", superEmail, "--password", superPassword)
}
