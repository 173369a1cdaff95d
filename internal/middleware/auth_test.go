package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tosurnament/dashboard/internal/store"
	users "github.com/tosurnament/dashboard/internal/user"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err)
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "sqlite3", driver)
	require.NoError(t, err)
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err)
	}
	return database
}

// newAuthServer serves /signin, which stores the given session values, and
// /private behind RequireAuth.
func newAuthServer(t *testing.T, userStore *store.UserStore, values map[string]string) http.Handler {
	sessionManager := scs.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/signin", func(w http.ResponseWriter, r *http.Request) {
		for k, v := range values {
			sessionManager.Put(r.Context(), k, v)
		}
	})
	mux.Handle("/private", RequireAuth(sessionManager, userStore)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(id.String() + " " + GetTokenFromContext(r.Context())))
		if user := GetAuthenticatedUser(r.Context()); user != nil {
			w.Write([]byte(" " + user.Username))
		}
	})))
	return sessionManager.LoadAndSave(mux)
}

func signIn(t *testing.T, h http.Handler) []*http.Cookie {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/signin", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func TestRequireAuth_RedirectsAnonymous(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	h := newAuthServer(t, store.NewUserStore(db), nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/private?tab=brackets", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?redirect="+url.QueryEscape("/private?tab=brackets"), w.Header().Get("Location"))
}

func TestRequireAuth_LoadsUser(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	userStore := store.NewUserStore(db)

	user := &users.User{ID: uuid.New(), Email: "a@example.com", Username: "Spartan"}
	require.NoError(t, userStore.CreateUser(context.Background(), user))

	h := newAuthServer(t, userStore, map[string]string{
		SessionUserID: user.ID.String(),
		SessionToken:  "discord-token",
	})
	cookies := signIn(t, h)

	r := httptest.NewRequest(http.MethodGet, "/private", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID.String()+" discord-token Spartan", w.Body.String())
}

func TestRequireAuth_RejectsSessionWithoutToken(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	h := newAuthServer(t, store.NewUserStore(db), map[string]string{SessionUserID: uuid.NewString()})
	cookies := signIn(t, h)

	r := httptest.NewRequest(http.MethodGet, "/private", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?redirect=%2Fprivate", w.Header().Get("Location"))
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login", LoginURL("/"))
	assert.Equal(t, "/login", LoginURL(""))
	assert.Equal(t, "/login?redirect=%2Fguilds%2F42", LoginURL("/guilds/42"))
}

func TestSafeRedirect(t *testing.T) {
	tests := map[string]string{
		"/guilds/42":            "/guilds/42",
		"/guilds/42?x=1":        "/guilds/42?x=1",
		"":                      "/",
		"https://evil.example":  "/",
		"//evil.example/guilds": "/",
		"guilds/42":             "/",
		"javascript:alert(1)":   "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeRedirect(in), in)
	}
}

func TestCSRF(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	var token string
	h := CSRF(key, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token = csrf.Token(r)
		w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guilds/42", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, token)
	cookies := w.Result().Cookies()

	// Missing token.
	r := httptest.NewRequest(http.MethodPost, "/guilds/42/sections/Guild", strings.NewReader("language=en"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	form := url.Values{"language": {"en"}, "gorilla.csrf.Token": {token}}
	r = httptest.NewRequest(http.MethodPost, "/guilds/42/sections/Guild", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		r.AddCookie(c)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(http.NotFoundHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
