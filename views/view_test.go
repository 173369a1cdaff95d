package views

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tosurnament/dashboard/internal/api"
	"github.com/tosurnament/dashboard/internal/discord"
	"github.com/tosurnament/dashboard/internal/form"
	"github.com/tosurnament/dashboard/internal/service"
	users "github.com/tosurnament/dashboard/internal/user"
)

const csrfField = template.HTML(`<input type="hidden" name="gorilla.csrf.Token" value="tok">`)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func guildPage() *service.GuildPage {
	parent := "1"
	tournament := api.Record{
		"id":                     json.Number("3"),
		"name":                   "osu! World Cup",
		"acronym":                "OWC",
		"staff_channel_id":       "10",
		"referee_role_id":        "7",
		"reschedule_before_date": "tuesday 18:00",
		"utc":                    "-05:00",
		"game_mode":              json.Number("2"),
		"reschedule_ping_team":   true,
		"reschedule_deadline_hours_before_current_time": json.Number("0"),
		"reschedule_deadline_hours_before_new_time":     json.Number("24"),
	}
	return &service.GuildPage{
		GuildID:    "42",
		Tournament: tournament,
		Roles:      discord.RoleOptions([]discord.Role{{ID: "7", Name: "Referee", Color: 0x00ff00}}),
		ChannelGroups: discord.GroupChannels([]discord.Channel{
			{ID: "1", Name: "Staff", Type: discord.ChannelTypeCategory},
			{ID: "10", Name: "staff-chat", Type: discord.ChannelTypeText, ParentID: &parent},
		}),
		Sections: []*form.Form{form.Tournament(tournament, "42"), form.CreateBracket("3")},
		Anchors: []service.Anchor{
			{ID: "Guild", Label: "Guild", Level: 1},
			{ID: "Tournament", Label: "Tournament", Level: 1},
			{ID: "NewBracket", Label: "New Bracket", Level: 2},
		},
	}
}

func TestGuildPage(t *testing.T) {
	p := Page{User: &users.User{Username: "Spartan"}, CSRFField: csrfField}
	var buf bytes.Buffer
	require.NoError(t, GuildPage(p, guildPage()).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, "<title>osu! World Cup | Tosurnament</title>")
	assert.Contains(t, html, "Spartan")
	assert.Contains(t, html, "The bot has no settings for this server yet.")
	assert.Contains(t, html, `<a class="level-2" href="#NewBracket">New Bracket</a>`)

	assert.Contains(t, html, `action="/guilds/42/sections/Tournament"`)
	assert.Contains(t, html, `action="/guilds/42/sections/Tournament/delete"`)
	assert.Contains(t, html, `action="/guilds/42/sections/NewBracket"`)
	assert.Contains(t, html, `name="acronym" value="OWC" maxlength="16"`)
	assert.Contains(t, html, `min="0" max="72"`)

	assert.Contains(t, html, `<option value="tuesday" selected>Tuesday</option>`)
	assert.Contains(t, html, `name="reschedule_before_date.time" value="18:00"`)
	assert.Contains(t, html, `<option value="-" selected>-</option>`)
	assert.Contains(t, html, `name="utc.time" value="05:00"`)
	assert.Contains(t, html, `<option value="2" selected>ctb</option>`)
	assert.Contains(t, html, `name="reschedule_ping_team" value="on" checked`)

	assert.Contains(t, html, `<optgroup label="Staff">`)
	assert.Contains(t, html, `<option value="10" selected>#staff-chat</option>`)
	assert.Contains(t, html, `style="color: #00ff00"`)

	// Create forms start without errors.
	assert.NotContains(t, html, `class="error"`)
	assert.Equal(t, 4, bytes.Count(buf.Bytes(), []byte(`name="gorilla.csrf.Token"`)))
}

func TestSection_ShowsErrorsAndFlash(t *testing.T) {
	page := guildPage()
	f, _ := page.Section("Tournament")
	in := url.Values{"name": {""}, "acronym": {"OWC"}}
	f.Apply(in)

	html := render(t, Section(SectionData{
		GuildID:   "42",
		Form:      f,
		Roles:     page.Roles,
		CSRFField: csrfField,
		Flash:     Flash{Message: "Unknown error, please retry", Error: true},
	}))

	assert.Contains(t, html, `<section class="section" id="Tournament">`)
	assert.Contains(t, html, `<p class="error">Field must contain 1 characters or more</p>`)
	assert.Contains(t, html, `class="flash flash-error"`)
	assert.NotContains(t, html, "<html")
}

func TestIndex(t *testing.T) {
	html := render(t, Index(Page{}, []discord.Guild{{ID: "42", Name: "osu! World Cup", Icon: "abc"}, {ID: "43", Name: "No icon"}}))

	assert.Contains(t, html, `href="/guilds/42"`)
	assert.Contains(t, html, `src="https://cdn.discordapp.com/icons/42/abc.png?size=256"`)
	assert.Contains(t, html, `<div class="icon-placeholder"></div>`)

	empty := render(t, Index(Page{}, nil))
	assert.Contains(t, empty, "You do not share any server")
}

func TestLoginAndErrorPages(t *testing.T) {
	login := render(t, LoginPage(Page{Flash: Flash{Message: "Session expired"}}))
	assert.Contains(t, login, `href="/auth/discord"`)
	assert.Contains(t, login, "Session expired")
	assert.NotContains(t, login, "Logout")

	errPage := render(t, ErrorPage(Page{}, http.StatusNotFound, "Section not found"))
	assert.Contains(t, errPage, "<title>Not Found | Tosurnament</title>")
	assert.Contains(t, errPage, "Section not found")
}

func TestFieldData(t *testing.T) {
	f := form.CreateTournament("42")
	fields := SectionData{GuildID: "42", Form: f}.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "Tournament-name", fields[0].ID)
	assert.Equal(t, "name", fields[0].Name(""))
	assert.Equal(t, "", fields[0].MinAttr())
	assert.Equal(t, "Create", SectionData{Form: f}.SubmitLabel())
	assert.Equal(t, "Monday", dayLabel("monday"))

	utc, ok := guildPage().Sections[0].Binding("utc")
	require.True(t, ok)
	assert.Equal(t, "utc.sign", FieldData{Binding: utc}.Name("sign"))
}

func TestStatic(t *testing.T) {
	css, err := fs.ReadFile(Static, "dashboard.css")
	require.NoError(t, err)
	assert.Contains(t, string(css), ".section")

	assert.Panics(t, func() { mustSub(Static, "../outside") })
}
