package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/scholardesk/internal/client/auth"
	"github.com/iudanet/scholardesk/internal/client/storage/memory"
	"github.com/iudanet/scholardesk/pkg/api"
)

type testEnv struct {
	server  *httptest.Server
	client  *Client
	session *auth.Store
	kv      *memory.Storage
}

func newTestEnv(t *testing.T, handler http.Handler, opts ...Option) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	kv := memory.New()
	session := auth.NewStore(kv)
	return &testEnv{
		server:  server,
		kv:      kv,
		session: session,
		client:  NewClient(server.URL, session, opts...),
	}
}

func (e *testEnv) login(t *testing.T, access, refresh string) {
	t.Helper()
	require.NoError(t, e.session.SaveTokens(context.Background(), api.TokenPair{Access: access, Refresh: refresh}))
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func bearer(token string) string {
	return "Bearer " + token
}
