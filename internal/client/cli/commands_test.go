package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apiclient "github.com/iudanet/scholardesk/internal/client/api"
	"github.com/iudanet/scholardesk/internal/client/auth"
	"github.com/iudanet/scholardesk/internal/client/storage"
	"github.com/iudanet/scholardesk/internal/client/storage/boltdb"
	"github.com/iudanet/scholardesk/pkg/api"
)

const signupStdin = "Ada Lovelace\nada\nada@example.com\n+44 20 7946 0958\nBritish\nUnited Kingdom\nsecret123\nsecret123\n"

func TestLogin(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun(t, "", "login", "--email", superEmail, "--password", superPassword)
		assert.Contains(t, out, "=== Login ===")
		assert.Contains(t, out, "✓ Login successful!")
		assert.Contains(t, out, "Welcome, Super Admin (super admin)")
	})

	t.Run("interactive", func(t *testing.T) {
		env := newTestEnv(t)
		out := env.mustRun(t, superEmail+"\n"+superPassword+"\n", "login")
		assert.Contains(t, out, "Email: ")
		assert.Contains(t, out, "Password: ")
		assert.Contains(t, out, "✓ Login successful!")
	})

	t.Run("password from env", func(t *testing.T) {
		env := newTestEnv(t)
		t.Setenv(EnvPassword, superPassword)
		out := env.mustRun(t, "", "login", "--email", superEmail, "--password", "ignored")
		assert.Contains(t, out, "✓ Login successful!")
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.run(t, "", "login", "--email", superEmail, "--password", "wrong-one")
		assert.EqualError(t, err, "login failed: Invalid credentials")
	})
}

func TestStatusAndLogout(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "", "status")
	assert.Contains(t, out, "Status: Not authenticated")

	env.loginSuper(t)
	out = env.mustRun(t, "", "status")
	assert.Contains(t, out, "API: "+env.server.URL+"/api")
	assert.Contains(t, out, "Status: Authenticated")
	assert.Contains(t, out, "Role:     super admin")
	assert.Contains(t, out, "Token expires: ")
	assert.Contains(t, out, "Time remaining: ")

	out = env.mustRun(t, "", "profile")
	assert.Contains(t, out, "Email:    "+superEmail)

	out = env.mustRun(t, "", "logout")
	assert.Contains(t, out, "✓ Logout successful")

	out = env.mustRun(t, "", "status")
	assert.Contains(t, out, "Status: Not authenticated")
}

func TestRequiresLogin(t *testing.T) {
	env := newTestEnv(t)

	for _, args := range [][]string{
		{"profile"},
		{"admin", "stats"},
		{"admin", "users", "list"},
	} {
		_, _, err := env.run(t, "", args...)
		assert.EqualError(t, err, "not authenticated. Please run 'scholardesk login' first", strings.Join(args, " "))
	}
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, signupStdin, "signup")
	assert.Contains(t, out, "=== Student Registration ===")
	assert.Contains(t, out, "Confirm password: ")
	assert.Contains(t, out, "✓ Registration successful!")

	out = env.mustRun(t, "", "login", "--email", "ada@example.com", "--password", "secret123")
	assert.Contains(t, out, "Welcome, Ada Lovelace (student)")

	_, _, err := env.run(t, "", "admin", "stats")
	assert.ErrorIs(t, err, auth.ErrAccessDenied)

	t.Run("password mismatch", func(t *testing.T) {
		input := strings.Replace(signupStdin, "secret123\nsecret123\n", "secret123\nsecret124\n", 1)
		_, _, err := env.run(t, input, "signup")
		assert.Error(t, err)
	})

	t.Run("single word name", func(t *testing.T) {
		_, _, err := env.run(t, "", "signup", "--name", "Ada", "--username", "a", "--email", "a@example.com",
			"--phone", "+442079460958", "--nationality", "British", "--country", "UK", "--password", "secret123")
		assert.Error(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := env.run(t, "", "signup", "--name", "Ada Byron", "--username", "byron", "--email", "ada@example.com",
			"--phone", "+442079460958", "--nationality", "British", "--country", "UK", "--password", "secret123")
		assert.EqualError(t, err, "registration failed: user with this email already exists")
	})
}

func TestScholarshipsBrowse(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun(t, "", "scholarships", "list")
	for _, name := range []string{"Chevening Scholarship", "DAAD Research Grant", "Fulbright Foreign Student Program", "MEXT Undergraduate Scholarship"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "NAME")

	out = env.mustRun(t, "", "s", "list", "--status", "active", "--degree", "masters")
	assert.Contains(t, out, "Chevening Scholarship")
	assert.NotContains(t, out, "Fulbright")
	assert.NotContains(t, out, "DAAD")

	out = env.mustRun(t, "", "scholarships", "list", "--search", "nothing-matches")
	assert.Contains(t, out, "No scholarships found.")

	_, _, err := env.run(t, "", "scholarships", "list", "--status", "soon")
	assert.ErrorContains(t, err, `invalid status "soon"`)

	out = env.mustRun(t, "", "scholarships", "filters")
	assert.Contains(t, out, "Countries:     Germany, Japan, United Kingdom, United States")
	assert.Contains(t, out, "Degree levels: Bachelors, Masters, PhD")

	out = env.mustRun(t, "", "scholarships", "show", "2")
	assert.Contains(t, out, "Name:        DAAD Research Grant")
	assert.Contains(t, out, "(Active)")

	_, _, err = env.run(t, "", "scholarships", "show", "999")
	assert.EqualError(t, err, "Not found")

	_, _, err = env.run(t, "", "scholarships", "show", "abc")
	assert.EqualError(t, err, `invalid id "abc"`)
}

func TestScholarshipsManage(t *testing.T) {
	env := newTestEnv(t)
	env.loginSuper(t)

	out := env.mustRun(t, "", "scholarships", "create",
		"--name", "Swiss Excellence", "--country", "Switzerland", "--degree", "PhD", "--deadline", "2031-01-31")
	assert.Contains(t, out, "✓ Scholarship created (ID: 5)")

	// Недостающие поля спрашиваются интерактивно
	out = env.mustRun(t, "Vanier\nCanada\nPhD\n2031-02-28\n", "scholarships", "create")
	assert.Contains(t, out, "Deadline (YYYY-MM-DD): ")
	assert.Contains(t, out, "✓ Scholarship created (ID: 6)")

	out = env.mustRun(t, "", "scholarships", "update", "5", "--benefits", "Monthly stipend")
	assert.Contains(t, out, "✓ Scholarship 5 updated")

	out = env.mustRun(t, "", "admin", "update-scholarship", "5", "--name", "Swiss Government Excellence")
	assert.Contains(t, out, "✓ Scholarship 5 updated")

	out = env.mustRun(t, "", "admin", "scholarship", "5")
	assert.Contains(t, out, "Name:        Swiss Government Excellence")
	assert.Contains(t, out, "Benefits:    Monthly stipend", "earlier fields survive a partial update")
	assert.Contains(t, out, "Author:      Super Admin")

	out = env.mustRun(t, "", "admin", "scholarships", "--country", "switzerland")
	assert.Contains(t, out, "Swiss Government Excellence")
	assert.NotContains(t, out, "Chevening")

	out = env.mustRun(t, "n\n", "admin", "delete-scholarship", "5")
	assert.Contains(t, out, "Cancelled.")

	out = env.mustRun(t, "", "admin", "delete-scholarship", "5", "-y")
	assert.Contains(t, out, "✓ Scholarship 5 deleted")

	_, _, err := env.run(t, "", "admin", "scholarship", "5")
	assert.EqualError(t, err, "Not found")

	out = env.mustRun(t, "", "admin", "stats")
	assert.Contains(t, out, "Total scholarships")
	assert.Contains(t, out, "Countries")
}

func TestExports(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun(t, signupStdin, "signup")
	env.loginSuper(t)

	out := env.mustRun(t, "", "admin", "export-scholarships", "-o", "all.csv")
	assert.Contains(t, out, "✓ Saved to all.csv")
	data, err := os.ReadFile("all.csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\uFEFF"))
	assert.Contains(t, string(data), "Fulbright Foreign Student Program")

	info, err := os.Stat("all.csv")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out = env.mustRun(t, "", "admin", "export-scholarships", "--active-only", "-o", "-")
	assert.Contains(t, out, "Chevening Scholarship")
	assert.NotContains(t, out, "Fulbright")

	out = env.mustRun(t, "", "admin", "users", "export-students", "-o", "-")
	assert.Contains(t, out, "Ada,Lovelace,ada@example.com")

	out = env.mustRun(t, "", "admin", "users", "export-students", "--raw", "--fields", "email,phone", "-o", "-")
	assert.Contains(t, out, "ada@example.com,+442079460958")

	out = env.mustRun(t, "", "admin", "users", "export-admins")
	assert.Contains(t, out, "✓ Saved to admins_export.csv")
	data, err = os.ReadFile("admins_export.csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), superEmail)
}

func TestUsersManage(t *testing.T) {
	env := newTestEnv(t)
	env.loginSuper(t)

	out := env.mustRun(t, "", "admin", "users", "create",
		"--email", "staff@example.com", "--first-name", "Grace", "--last-name", "Hopper", "--password", "staff123")
	assert.Contains(t, out, "✓ Admin staff@example.com created")

	out = env.mustRun(t, "", "admin", "users", "list")
	assert.Contains(t, out, "Total: 2  Super admins: 1  Staff: 1")
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, "staff@example.com")

	out = env.mustRun(t, "", "admin", "users", "list", "--role", "staff")
	assert.NotContains(t, out, superEmail)

	_, _, err := env.run(t, "", "admin", "users", "list", "--role", "owner")
	assert.ErrorContains(t, err, `invalid role "owner"`)

	_, _, err = env.run(t, "", "admin", "users", "update", "1", "--first-name", "Root")
	assert.ErrorIs(t, err, ErrSuperAdminProtected)

	_, _, err = env.run(t, "", "admin", "users", "delete", "1", "-y")
	assert.ErrorIs(t, err, ErrSuperAdminProtected)

	_, _, err = env.run(t, "", "admin", "users", "update", "2")
	assert.ErrorContains(t, err, "nothing to update")

	_, _, err = env.run(t, "", "admin", "users", "update", "42", "--first-name", "Nobody")
	assert.EqualError(t, err, "admin 42 not found")

	out = env.mustRun(t, "", "admin", "users", "update", "2", "--last-name", "Murray")
	assert.Contains(t, out, "✓ Admin 2 updated")

	out = env.mustRun(t, "", "admin", "users", "list", "--search", "murray")
	assert.Contains(t, out, "Grace Murray")

	out = env.mustRun(t, "y\n", "admin", "users", "delete", "2")
	assert.Contains(t, out, "Delete admin staff@example.com? [y/N]: ")
	assert.Contains(t, out, "✓ Admin staff@example.com deleted")
}

func TestStaffCannotCreateSuperAdmins(t *testing.T) {
	env := newTestEnv(t)
	env.loginSuper(t)
	env.mustRun(t, "", "admin", "users", "create",
		"--email", "staff@example.com", "--first-name", "Grace", "--last-name", "Hopper", "--password", "staff123")

	env.mustRun(t, "", "login", "--email", "staff@example.com", "--password", "staff123")
	out := env.mustRun(t, "", "admin", "users", "create", "--super",
		"--email", "other@example.com", "--first-name", "Alan", "--last-name", "Turing", "--password", "other123")
	assert.Contains(t, out, "Only super admins can create super admins; creating a staff admin.")
	assert.Contains(t, out, "✓ Admin other@example.com created")

	out = env.mustRun(t, "", "admin", "users", "list", "--role", "super")
	assert.Contains(t, out, superEmail)
	assert.NotContains(t, out, "other@example.com")

	_, _, err := env.run(t, "", "admin", "users", "delete", "3", "-y")
	assert.ErrorIs(t, err, auth.ErrAccessDenied)
}

func TestRootFlags(t *testing.T) {
	env := newTestEnv(t)

	_, stderr, err := env.run(t, "", "--metrics", "scholarships", "list")
	require.NoError(t, err)
	assert.Contains(t, stderr, "scholardesk_client_requests_total")

	out := env.mustRun(t, "", "cache", "clear")
	assert.Contains(t, out, "✓ Cache cleared")

	_, _, err = env.run(t, "", "--storage", "tape", "status")
	assert.ErrorIs(t, err, storage.ErrUnknownBackend)

	out = env.mustRun(t, "", "--storage", "memory", "status")
	assert.Contains(t, out, "Status: Not authenticated")
}

func TestSQLiteSessionSurvivesRuns(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "", "--storage", "sqlite", "login", "--email", superEmail, "--password", superPassword)

	out := env.mustRun(t, "", "--storage", "sqlite", "status")
	assert.Contains(t, out, "Status: Authenticated")

	out = env.mustRun(t, "", "--storage", "sqlite", "logout")
	assert.Contains(t, out, "✓ Logout successful")
}

func TestRevokedSessionAsksToLoginAgain(t *testing.T) {
	env := newTestEnv(t)
	env.loginSuper(t)

	// Подменяем токены в базе на те, которых сервер не знает
	ctx := context.Background()
	kv, err := boltdb.New(ctx, filepath.Join(env.dir, "session.db"))
	require.NoError(t, err)
	require.NoError(t, auth.NewStore(kv).SaveTokens(ctx, api.TokenPair{Access: "stale", Refresh: "revoked"}))
	require.NoError(t, kv.Close())

	_, _, err = env.run(t, "", "profile")
	require.ErrorIs(t, err, apiclient.ErrAuthFailed)
	assert.ErrorContains(t, err, "Please run 'scholardesk login' again")

	out := env.mustRun(t, "", "status")
	assert.Contains(t, out, "Status: Not authenticated")
}
