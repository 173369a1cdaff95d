package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/markbates/goth/gothic"
	"github.com/tosurnament/dashboard/internal/api"
	"github.com/tosurnament/dashboard/internal/form"
	"github.com/tosurnament/dashboard/internal/httputil"
	"github.com/tosurnament/dashboard/internal/middleware"
	"github.com/tosurnament/dashboard/internal/service"
	"github.com/tosurnament/dashboard/internal/store"
	"github.com/tosurnament/dashboard/views"
)

const (
	flashKey      = "flash"
	flashErrorKey = "flashError"
)

type server struct {
	sessions    *scs.SessionManager
	users       *store.UserStore
	userService *service.UserService
	dashboard   *service.DashboardService
}

func newRouter(s *server, csrfKey []byte, secure bool) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(s.sessions.LoadAndSave)
	r.Use(middleware.CSRF(csrfKey, secure))

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(views.Static))))

	r.Get("/login", s.login)
	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})
	r.Get("/auth/{provider}/callback", s.authCallback)
	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := s.sessions.Destroy(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to destroy session", err)
			return
		}
		httputil.Redirect(w, r, "/login")
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(s.sessions, s.users))

		r.Get("/", s.index)
		r.Get("/guilds/{guildID}", s.guild)
		r.Post("/guilds/{guildID}/sections/{sectionID}", s.submitSection)
		r.Post("/guilds/{guildID}/sections/{sectionID}/delete", s.deleteSection)
	})

	return r
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	target := middleware.SafeRedirect(r.URL.Query().Get("redirect"))
	if s.sessions.GetString(r.Context(), middleware.SessionToken) != "" {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	s.sessions.Put(r.Context(), middleware.SessionRedirect, target)
	s.render(w, r, http.StatusOK, views.LoginPage(s.page(r)))
}

func (s *server) authCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		httputil.BadRequest(w, "Authentication failure", err)
		return
	}

	user, err := s.userService.FindOrCreateUserByProvider(r.Context(), gothUser)
	if err != nil {
		httputil.InternalServerError(w, "Failed to find or create user", err)
		return
	}

	target := middleware.SafeRedirect(s.sessions.PopString(r.Context(), middleware.SessionRedirect))
	if err := s.sessions.RenewToken(r.Context()); err != nil {
		httputil.InternalServerError(w, "Failed to renew session", err)
		return
	}
	s.sessions.Put(r.Context(), middleware.SessionUserID, user.ID.String())
	s.sessions.Put(r.Context(), middleware.SessionToken, gothUser.AccessToken)

	http.Redirect(w, r, target, http.StatusFound)
}

func (s *server) caller(r *http.Request) service.Caller {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	return service.Caller{UserID: userID.String(), Token: middleware.GetTokenFromContext(r.Context())}
}

func (s *server) flash(ctx context.Context, message string, isError bool) {
	s.sessions.Put(ctx, flashKey, message)
	s.sessions.Put(ctx, flashErrorKey, isError)
}

// page pops the pending flash, it is shown once.
func (s *server) page(r *http.Request) views.Page {
	return views.Page{
		User:      middleware.GetAuthenticatedUser(r.Context()),
		CSRFField: csrf.TemplateField(r),
		Flash: views.Flash{
			Message: s.sessions.PopString(r.Context(), flashKey),
			Error:   s.sessions.PopBool(r.Context(), flashErrorKey),
		},
	}
}

func (s *server) render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) {
	if err := views.Render(w, r, status, component); err != nil {
		httputil.InternalServerError(w, "Failed to render page", err)
	}
}

// apiFailed handles a failed backend call. An expired Discord token ends the
// dashboard session.
func (s *server) apiFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, api.ErrUnauthorized) {
		if err := s.sessions.Destroy(r.Context()); err != nil {
			httputil.InternalServerError(w, "Failed to destroy session", err)
			return
		}
		s.flash(r.Context(), "Your Discord session expired, please log in again", true)
		httputil.Redirect(w, r, middleware.LoginURL(r.URL.Path))
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	if httputil.IsHTMX(r) {
		httputil.BadGateway(w, api.UserMessage(err), err)
		return
	}
	slog.Error("api call failed", "path", r.URL.Path, "error", err)
	s.render(w, r, http.StatusBadGateway, views.ErrorPage(s.page(r), http.StatusBadGateway, api.UserMessage(err)))
}

func (s *server) index(w http.ResponseWriter, r *http.Request) {
	guilds, err := s.dashboard.CommonGuilds(r.Context(), s.caller(r))
	if err != nil {
		s.apiFailed(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, views.Index(s.page(r), guilds))
}

func (s *server) guild(w http.ResponseWriter, r *http.Request) {
	page, err := s.dashboard.GuildPage(r.Context(), s.caller(r), chi.URLParam(r, "guildID"))
	if err != nil {
		s.apiFailed(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, views.GuildPage(s.page(r), page))
}

func (s *server) submitSection(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	caller := s.caller(r)

	if err := r.ParseForm(); err != nil {
		httputil.BadRequest(w, "Invalid form data", err)
		return
	}

	page, err := s.dashboard.GuildPage(r.Context(), caller, guildID)
	if err != nil {
		s.apiFailed(w, r, err)
		return
	}

	f, outcome, err := s.dashboard.SubmitSection(r.Context(), caller, page, chi.URLParam(r, "sectionID"), r.PostForm)
	switch {
	case errors.Is(err, service.ErrSectionNotFound):
		httputil.NotFound(w, "Section not found", err)
		return
	case errors.Is(err, api.ErrUnauthorized):
		s.apiFailed(w, r, err)
		return
	case err != nil:
		s.renderSection(w, r, page, f, http.StatusBadGateway, views.Flash{Message: api.UserMessage(err), Error: true})
		return
	}

	switch outcome {
	case service.Invalid:
		s.renderSection(w, r, page, f, http.StatusUnprocessableEntity, views.Flash{})
	case service.Unchanged:
		s.renderSection(w, r, page, f, http.StatusOK, views.Flash{Message: "Nothing to update"})
	case service.Saved:
		s.flash(r.Context(), f.SavedMessage(), false)
		target := "/guilds/" + guildID
		if !f.Create {
			target += "#" + f.ID
		}
		httputil.Redirect(w, r, target)
	}
}

func (s *server) deleteSection(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	caller := s.caller(r)

	page, err := s.dashboard.GuildPage(r.Context(), caller, guildID)
	if err != nil {
		s.apiFailed(w, r, err)
		return
	}

	f, err := s.dashboard.DeleteSection(r.Context(), caller, page, chi.URLParam(r, "sectionID"))
	switch {
	case errors.Is(err, service.ErrSectionNotFound):
		httputil.NotFound(w, "Section not found", err)
		return
	case errors.Is(err, service.ErrNotDeletable):
		httputil.BadRequest(w, f.Name+" cannot be deleted", err)
		return
	case errors.Is(err, api.ErrUnauthorized):
		s.apiFailed(w, r, err)
		return
	case err != nil:
		s.renderSection(w, r, page, f, http.StatusBadGateway, views.Flash{Message: api.UserMessage(err), Error: true})
		return
	}

	s.flash(r.Context(), f.DeletedMessage(), false)
	httputil.Redirect(w, r, "/guilds/"+guildID)
}

// renderSection answers htmx with the section alone. htmx only swaps 2xx
// responses, so status is reserved for full page loads.
func (s *server) renderSection(w http.ResponseWriter, r *http.Request, page *service.GuildPage, f *form.Form, status int, flash views.Flash) {
	if httputil.IsHTMX(r) {
		s.render(w, r, http.StatusOK, views.Section(views.SectionData{
			GuildID:       page.GuildID,
			Form:          f,
			Roles:         page.Roles,
			ChannelGroups: page.ChannelGroups,
			CSRFField:     csrf.TemplateField(r),
			Flash:         flash,
		}))
		return
	}

	p := s.page(r)
	p.Flash = flash
	s.render(w, r, status, views.GuildPage(p, page))
}
