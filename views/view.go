package views

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/a-h/templ"
	"github.com/tosurnament/dashboard/internal/discord"
	"github.com/tosurnament/dashboard/internal/service"
	users "github.com/tosurnament/dashboard/internal/user"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static holds the stylesheet served under /static/.
var Static = mustSub(staticFS, "static")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

var pages = parsePages("login", "index", "guild", "error")

// fragments renders partials outside of the layout.
var fragments = template.Must(template.ParseFS(templateFS, "templates/partials.html"))

func parsePages(names ...string) map[string]*template.Template {
	base := template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/partials.html"))
	parsed := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t := template.Must(base.Clone())
		parsed[name] = template.Must(t.ParseFS(templateFS, "templates/"+name+".html"))
	}
	return parsed
}

// Render writes the page with status once it rendered completely.
func Render(w http.ResponseWriter, r *http.Request, status int, component templ.Component) error {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Flash is the notification shown once after an action.
type Flash struct {
	Message string
	Error   bool
}

// Page carries what the layout needs on every page.
type Page struct {
	Title     string
	User      *users.User
	CSRFField template.HTML
	Flash     Flash
}

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages[name].ExecuteTemplate(w, "layout", data)
	})
}

type LoginData struct {
	Page Page
}

func LoginPage(p Page) templ.Component {
	p.Title = "Login"
	return page("login", LoginData{Page: p})
}

type IndexData struct {
	Page   Page
	Guilds []discord.Guild
}

func Index(p Page, guilds []discord.Guild) templ.Component {
	p.Title = "Servers"
	return page("index", IndexData{Page: p, Guilds: guilds})
}

type GuildData struct {
	Page     Page
	Guild    *service.GuildPage
	Sections []SectionData
}

func GuildPage(p Page, guild *service.GuildPage) templ.Component {
	p.Title = guild.Title()
	return page("guild", GuildData{Page: p, Guild: guild, Sections: PrepareSections(guild, p.CSRFField)})
}

// Section renders one section alone, for htmx swaps.
func Section(data SectionData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return fragments.ExecuteTemplate(w, "section", data)
	})
}

type ErrorData struct {
	Page    Page
	Status  int
	Message string
}

func ErrorPage(p Page, status int, message string) templ.Component {
	p.Title = http.StatusText(status)
	return page("error", ErrorData{Page: p, Status: status, Message: message})
}
