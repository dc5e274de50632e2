package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/doorman/internal/auth/lockout"
	"github.com/aussiebroadwan/doorman/internal/auth/revocation"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
)

func TestMain(m *testing.M) {
	pepperPath := filepath.Join(os.TempDir(), "doorman-http-test-pepper")
	cryptox.SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

type testServer struct {
	router   *Router
	redis    *miniredis.Miniredis
	notifier *captureNotifier
}

type captureNotifier struct {
	links chan string
}

func (n *captureNotifier) Notify(ctx context.Context, email, subject, link string) error {
	n.links <- link
	return nil
}

func (n *captureNotifier) waitForToken(t *testing.T) string {
	t.Helper()

	select {
	case link := <-n.links:
		u, err := url.Parse(link)
		require.NoError(t, err)
		token := u.Query().Get("token")
		require.NotEmpty(t, token)
		return token
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
		return ""
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "test.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rvk := revocation.NewList(client, jwtx.DefaultRefreshTokenTTL)

	codec, err := jwtx.NewHS256(jwtx.Config{
		Secret: []byte("test-secret-at-least-32-bytes-long!!"),
		Issuer: "doorman-test",
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	notifier := &captureNotifier{links: make(chan string, 8)}

	tokens := &service.TokenService{
		Codec:       codec,
		Store:       st,
		Revocations: rvk,
		Issuer:      "doorman-test",
		AccessTTL:   jwtx.DefaultAccessTokenTTL,
		RefreshTTL:  jwtx.DefaultRefreshTokenTTL,
	}
	verifications := &service.VerificationService{
		Store:    st,
		Notifier: notifier,
		Logger:   logger,
		BaseURL:  "http://localhost:8080",
	}
	resets := &service.ResetService{
		Store:       st,
		Revocations: rvk,
		Notifier:    notifier,
		Logger:      logger,
		BaseURL:     "http://localhost:8080",
	}
	accounts := &service.AccountService{
		Store:         st,
		Tokens:        tokens,
		Verifications: verifications,
		Lockout:       lockout.Default(),
	}

	router := NewRouter(codec, "test", st, rvk, logger)
	router.AccountService = accounts
	router.TokenService = tokens
	router.ResetService = resets
	router.VerificationService = verifications
	router.ApplyRoutes()

	return &testServer{router: router, redis: mr, notifier: notifier}
}

// do sends a JSON request through the router. clientIP feeds the rate
// limiter's key so tests can sidestep per-IP limits where they are not the
// thing under test.
func (ts *testServer) do(t *testing.T, method, path, clientIP string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if clientIP != "" {
		req.Header.Set("X-Forwarded-For", clientIP)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func (ts *testServer) signup(t *testing.T, clientIP, email, password string) {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/v1/signup", clientIP, map[string]string{
		"email":        email,
		"password":     password,
		"display_name": "Test Account",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ts.notifier.waitForToken(t)
}

func (ts *testServer) login(t *testing.T, clientIP, email, password string) tokenResponse {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/v1/login", clientIP, map[string]string{
		"email":    email,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeJSON[tokenResponse](t, rec)
}
