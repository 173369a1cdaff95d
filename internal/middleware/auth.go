package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/tosurnament/dashboard/internal/config"
	"github.com/tosurnament/dashboard/internal/store"
	users "github.com/tosurnament/dashboard/internal/user"
)

type ContextKey string

const (
	UserIDKey ContextKey = "userID"
	TokenKey  ContextKey = "accessToken"
)

// Session keys.
const (
	SessionUserID   = "userID"
	SessionToken    = "accessToken"
	SessionRedirect = "redirectAfterLogin"
)

// InitAuth registers the Discord provider. The guilds scope lets the API
// list the servers shared with the bot.
func InitAuth(cfg config.Discord) {
	goth.UseProviders(
		discord.New(cfg.Key, cfg.Secret, cfg.CallbackURL, discord.ScopeIdentify, discord.ScopeEmail, discord.ScopeGuilds),
	)
}

// LoginURL is the login page that brings the user back to path afterwards.
func LoginURL(path string) string {
	if path == "" || path == "/" {
		return "/login"
	}
	return "/login?redirect=" + url.QueryEscape(path)
}

// SafeRedirect keeps redirects on this site.
func SafeRedirect(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || len(target) == 0 || target[0] != '/' || (len(target) > 1 && target[1] == '/') {
		return "/"
	}
	return target
}

func RequireAuth(sessionManager *scs.SessionManager, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userIDStr := sessionManager.GetString(ctx, SessionUserID)
			token := sessionManager.GetString(ctx, SessionToken)
			if userIDStr == "" || token == "" {
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
				return
			}

			userID, err := uuid.Parse(userIDStr)
			if err != nil {
				sessionManager.Remove(ctx, SessionUserID)
				http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusFound)
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, userID)
			ctx = context.WithValue(ctx, TokenKey, token)

			user, err := userStore.GetUser(ctx, userID)
			if err == nil {
				ctx = context.WithValue(ctx, users.UserKey, user)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return id, ok
}

// GetTokenFromContext returns the Discord access token of the signed in user.
func GetTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}

func GetAuthenticatedUser(ctx context.Context) *users.User {
	user, _ := ctx.Value(users.UserKey).(*users.User)
	return user
}
