package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tosurnament/dashboard/internal/api"
	"github.com/tosurnament/dashboard/internal/discord"
	"github.com/tosurnament/dashboard/internal/field"
	"github.com/tosurnament/dashboard/internal/form"
	"github.com/tosurnament/dashboard/internal/query"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSectionNotFound = errors.New("section not found")
	ErrNotDeletable    = errors.New("section cannot be deleted")
)

// Backend is the part of the Tosurnament API the dashboard uses.
type Backend interface {
	CommonGuilds(ctx context.Context, token string) ([]discord.Guild, error)
	Guild(ctx context.Context, token, guildID string) (api.Record, error)
	Tournament(ctx context.Context, token, guildID string) (api.Record, error)
	Roles(ctx context.Context, token, guildID string) ([]discord.Role, error)
	Channels(ctx context.Context, token, guildID string) ([]discord.Channel, error)
	Post(ctx context.Context, token, path string, body, out any) error
	Put(ctx context.Context, token, path string, body, out any) error
	Delete(ctx context.Context, token, path string) error
}

// Caller is the signed in user on whose behalf the backend is called.
// Cached queries are scoped by UserID.
type Caller struct {
	UserID string
	Token  string
}

func (c Caller) key(parts ...string) query.Key {
	return append(query.Key{c.UserID}, parts...)
}

type DashboardService struct {
	backend Backend
	cache   *query.Cache
}

func NewDashboardService(backend Backend, cache *query.Cache) *DashboardService {
	return &DashboardService{backend: backend, cache: cache}
}

func (s *DashboardService) CommonGuilds(ctx context.Context, caller Caller) ([]discord.Guild, error) {
	return query.Fetch(ctx, s.cache, caller.key("common_guilds"), func(ctx context.Context) ([]discord.Guild, error) {
		return s.backend.CommonGuilds(ctx, caller.Token)
	})
}

// Anchor is a sidebar link to a section, Level is its nesting depth.
type Anchor struct {
	ID    string
	Label string
	Level int
}

type GuildPage struct {
	GuildID    string
	Guild      api.Record
	Tournament api.Record

	Roles         []discord.Option
	ChannelGroups []discord.OptionGroup

	// GuildForm is nil until the bot has settings for the guild.
	GuildForm *form.Form
	Sections  []*form.Form
	Anchors   []Anchor
}

func (p *GuildPage) Title() string {
	if p.Tournament == nil {
		return "No tournament"
	}
	return p.Tournament.String("name")
}

// Section finds a form of the page by its id.
func (p *GuildPage) Section(id string) (*form.Form, bool) {
	if p.GuildForm != nil && p.GuildForm.ID == id {
		return p.GuildForm, true
	}
	for _, f := range p.Sections {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// GuildPage loads everything the settings page of a guild shows. The four
// queries run concurrently and the first failure cancels the others.
func (s *DashboardService) GuildPage(ctx context.Context, caller Caller, guildID string) (*GuildPage, error) {
	page := &GuildPage{GuildID: guildID}
	var roles []discord.Role
	var channels []discord.Channel

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page.Guild, err = query.Fetch(gctx, s.cache, caller.key("guild", guildID), func(ctx context.Context) (api.Record, error) {
			return s.backend.Guild(ctx, caller.Token, guildID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		page.Tournament, err = query.Fetch(gctx, s.cache, caller.key("tournament", guildID), func(ctx context.Context) (api.Record, error) {
			return s.backend.Tournament(ctx, caller.Token, guildID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		roles, err = query.Fetch(gctx, s.cache, caller.key("roles", guildID), func(ctx context.Context) ([]discord.Role, error) {
			return s.backend.Roles(ctx, caller.Token, guildID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		channels, err = query.Fetch(gctx, s.cache, caller.key("channels", guildID), func(ctx context.Context) ([]discord.Channel, error) {
			return s.backend.Channels(ctx, caller.Token, guildID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load guild %s: %w", guildID, err)
	}

	page.Roles = discord.RoleOptions(roles)
	page.ChannelGroups = discord.GroupChannels(channels)
	buildSections(page)
	return page, nil
}

func buildSections(page *GuildPage) {
	if page.Guild != nil {
		page.GuildForm = form.Guild(page.Guild, page.GuildID)
	}
	page.Anchors = []Anchor{{"Guild", "Guild", 1}, {"Tournament", "Tournament", 1}}

	tournament := page.Tournament
	if tournament == nil {
		page.Sections = append(page.Sections, form.CreateTournament(page.GuildID))
		return
	}

	page.Sections = append(page.Sections, form.Tournament(tournament, page.GuildID))
	for _, bracket := range tournament.Records("brackets") {
		bracketForm := form.Bracket(tournament.ID(), bracket)
		page.Sections = append(page.Sections, bracketForm)
		page.Anchors = append(page.Anchors, Anchor{bracketForm.ID, bracketForm.Name, 2})

		for _, kind := range form.SpreadsheetKinds {
			var f *form.Form
			if spreadsheet := bracket.Record(kind.Key); spreadsheet != nil {
				f = form.Spreadsheet(tournament.ID(), bracket.ID(), kind, spreadsheet)
			} else {
				f = form.CreateSpreadsheet(tournament.ID(), bracket.ID(), kind)
			}
			page.Sections = append(page.Sections, f)
			page.Anchors = append(page.Anchors, Anchor{f.ID, kind.Name, 3})
		}
	}

	newBracket := form.CreateBracket(tournament.ID())
	page.Sections = append(page.Sections, newBracket)
	page.Anchors = append(page.Anchors, Anchor{newBracket.ID, newBracket.Name, 2})
}

type Outcome int

const (
	// Invalid means at least one field has an error, nothing was sent.
	Invalid Outcome = iota
	// Unchanged means the submitted values equal the stored ones.
	Unchanged
	Saved
)

// SubmitSection applies the submitted input to a section and, when valid and
// changed, writes it to the backend. The returned form carries the bindings
// to re-render.
func (s *DashboardService) SubmitSection(ctx context.Context, caller Caller, page *GuildPage, sectionID string, in field.Input) (*form.Form, Outcome, error) {
	f, ok := page.Section(sectionID)
	if !ok {
		return nil, Invalid, fmt.Errorf("%w: %s", ErrSectionNotFound, sectionID)
	}

	sub := f.Apply(in)
	if !sub.Valid {
		return f, Invalid, nil
	}
	if !sub.Dirty {
		return f, Unchanged, nil
	}

	var err error
	if f.Create {
		err = s.backend.Post(ctx, caller.Token, f.URL, sub.Payload, nil)
	} else {
		err = s.backend.Put(ctx, caller.Token, f.URL, sub.Payload, nil)
	}
	if err != nil {
		return f, Invalid, err
	}

	s.invalidate(caller, f)
	return f, Saved, nil
}

func (s *DashboardService) DeleteSection(ctx context.Context, caller Caller, page *GuildPage, sectionID string) (*form.Form, error) {
	f, ok := page.Section(sectionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, sectionID)
	}
	if !f.WithDelete {
		return f, ErrNotDeletable
	}

	if err := s.backend.Delete(ctx, caller.Token, f.URL); err != nil {
		return f, err
	}
	s.invalidate(caller, f)
	return f, nil
}

func (s *DashboardService) invalidate(caller Caller, f *form.Form) {
	for _, key := range f.Invalidate {
		s.cache.Invalidate(caller.key(key...))
	}
}
