package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/draftmail/internal/clients"
	"github.com/pribylovaa/draftmail/internal/config"
	"github.com/pribylovaa/draftmail/internal/credentials"
	apierrors "github.com/pribylovaa/draftmail/internal/errors"
	"github.com/pribylovaa/draftmail/internal/guards"
	"github.com/pribylovaa/draftmail/internal/http/navigation"
	"github.com/pribylovaa/draftmail/internal/models"
	"github.com/pribylovaa/draftmail/internal/service"
	"github.com/pribylovaa/draftmail/internal/session"
)

// fakeBackend: REST-бэкенд с одним пользователем и ротацией токенов.
type fakeBackend struct {
	mu sync.Mutex

	access, refresh string
	verified        bool
	calls           []string
}

func newFakeBackend(verified bool) *fakeBackend {
	return &fakeBackend{access: "A1", refresh: "R1", verified: verified}
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, r.Method+" "+r.URL.Path)
	authorized := r.Header.Get("Authorization") == "Bearer "+b.access

	switch r.URL.Path {
	case "/api/auth/login":
		reply(w, http.StatusOK, models.AuthResponse{AccessToken: b.access, RefreshToken: b.refresh, TokenType: "bearer"})
		return
	case "/api/auth/refresh":
		if r.Header.Get("X-Refresh-Token") != "Bearer "+b.refresh {
			reply(w, http.StatusForbidden, map[string]string{"detail": "Invalid refresh token"})
			return
		}
		b.access, b.refresh = b.access+"'", b.refresh+"'"
		reply(w, http.StatusOK, models.AuthResponse{AccessToken: b.access, RefreshToken: b.refresh, TokenType: "bearer"})
		return
	}

	if !authorized {
		reply(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
		return
	}

	switch r.URL.Path {
	case "/api/auth/verification-status", "/api/auth/resend-verification":
		reply(w, http.StatusOK, models.VerificationStatus{Verified: b.verified, Email: "ann@example.com"})
	case "/api/user/profile":
		reply(w, http.StatusOK, models.UserProfile{ID: 1, Name: "Ann", Email: "ann@example.com", IsVerified: b.verified})
	case "/api/emails":
		reply(w, http.StatusOK, []models.EmailDraft{
			{ID: 1, Prompt: "hello team", Tone: models.ToneFormal, Length: models.LengthShort},
			{ID: 2, Prompt: "invoice reminder", Tone: models.ToneFriendly, Length: models.LengthLong},
		})
	default:
		reply(w, http.StatusNotFound, map[string]string{"detail": "Not Found"})
	}
}

// expireAccess имитирует истёкший access-токен.
func (b *fakeBackend) expireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access += "-expired"
}

// revoke делает недействительными оба токена.
func (b *fakeBackend) revoke() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access += "-revoked"
	b.refresh += "-revoked"
}

func (b *fakeBackend) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func newTestRouter(t *testing.T, b *fakeBackend) (http.Handler, *credentials.Store) {
	t.Helper()

	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := credentials.NewMemory()
	sess := session.New(store, session.WithSingleFlight(true))

	cl, err := clients.New(config.BackendConfig{BaseURL: srv.URL, Timeout: 5 * time.Second, UserAgent: "test"},
		log, sess, clients.WithNavigator(navigation.Navigator{}))
	require.NoError(t, err)
	sess.SetRefresher(cl)

	svc := service.New(cl, sess, log)
	protected := guards.Sequence(guards.Authenticated(sess), guards.VerifiedEmail(cl))

	return NewRouter(svc, protected, Options{Logger: log, Timeout: 5 * time.Second}), store
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()

	var env apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Error
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()

	rr := do(t, h, http.MethodPost, "/login", `{"email":"ann@example.com","password":"secret-pass"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		Next string `json:"next"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out.Next
}

func TestRouter_AnonymousRedirectedFromProtected(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(true)
	h, _ := newTestRouter(t, b)

	for _, target := range []string{"/history", "/profile"} {
		rr := do(t, h, http.MethodGet, target, "")
		require.Equal(t, http.StatusSeeOther, rr.Code)
		require.Equal(t, guards.LoginPath, rr.Header().Get("Location"))
		require.Equal(t, string(guards.ReasonUnauthenticated), decodeError(t, rr).Code)
	}

	require.Empty(t, b.callLog(), "anonymous guard must not reach the backend")
}

func TestRouter_LoginVerified_ThenHistoryWithSearch(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(true)
	h, store := newTestRouter(t, b)

	require.Equal(t, string(service.RouteGenerate), login(t, h))
	require.Equal(t, "A1", store.Snapshot().Access)

	rr := do(t, h, http.MethodGet, "/history?q=invoice", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var items []models.EmailDraft
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.EqualValues(t, 2, items[0].ID)
}

func TestRouter_ExpiredAccess_RefreshedTransparently(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(true)
	h, store := newTestRouter(t, b)
	login(t, h)

	b.expireAccess()

	rr := do(t, h, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, rr.Code)

	snap := store.Snapshot()
	require.Equal(t, "A1-expired'", snap.Access)
	require.Equal(t, "R1'", snap.Refresh)
	require.Contains(t, b.callLog(), "POST /api/auth/refresh")
}

func TestRouter_RefreshRejected_SessionExpired(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(true)
	h, store := newTestRouter(t, b)
	login(t, h)

	b.revoke()

	rr := do(t, h, http.MethodPost, "/resend-verification", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, guards.LoginPath, rr.Header().Get("Location"))

	apiErr := decodeError(t, rr)
	require.Equal(t, apierrors.CodeSessionExpired, apiErr.Code)
	require.Equal(t, guards.LoginPath, apiErr.Redirect)

	require.Equal(t, credentials.Snapshot{}, store.Snapshot())

	rr = do(t, h, http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"authenticated":false`)
}

func TestRouter_RefreshRejected_GuardRedirects(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(true)
	h, store := newTestRouter(t, b)
	login(t, h)

	b.revoke()

	rr := do(t, h, http.MethodGet, "/profile", "")
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, guards.LoginPath, rr.Header().Get("Location"))
	require.Equal(t, string(guards.ReasonProfileUnavailable), decodeError(t, rr).Code)
	require.Equal(t, credentials.Snapshot{}, store.Snapshot())
}

func TestRouter_UnverifiedUser_RedirectedFromGenerate(t *testing.T) {
	t.Parallel()

	b := newFakeBackend(false)
	h, _ := newTestRouter(t, b)

	require.Equal(t, string(service.RouteVerifyEmail), login(t, h))

	rr := do(t, h, http.MethodPost, "/generate", `{"prompt":"ask for a meeting","tone":"formal","length":"short"}`)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	require.Equal(t, string(guards.ReasonVerificationRequired), decodeError(t, rr).Code)
	require.NotContains(t, b.callLog(), "POST /api/generate")
}

func TestRouter_ValidationAndDecodeErrors(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, newFakeBackend(true))

	rr := do(t, h, http.MethodPost, "/register", `{"name":"A","email":"ann@example.com","password":"secret-pass"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, service.ErrInvalidName.Error(), decodeError(t, rr).Message)

	rr = do(t, h, http.MethodPost, "/login", `{"email":"ann@example.com","unknown":1}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "invalid_argument", decodeError(t, rr).Code)
}

func TestRouter_Logout(t *testing.T) {
	t.Parallel()

	h, store := newTestRouter(t, newFakeBackend(true))
	login(t, h)

	rr := do(t, h, http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"next":"/home"}`, rr.Body.String())
	require.Equal(t, credentials.Snapshot{}, store.Snapshot())
}

func TestRouter_BasePath(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(nil, session.New(credentials.NewMemory()), log)
	deny := guards.Authenticated(session.New(credentials.NewMemory()))

	h := NewRouter(svc, deny, Options{Logger: log, BasePath: "/api"})

	rr := do(t, h, http.MethodGet, "/api/session", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/session", "").Code)
}
