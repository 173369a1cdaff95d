package form

import (
	"fmt"

	"github.com/tosurnament/dashboard/internal/api"
	"github.com/tosurnament/dashboard/internal/field"
	"github.com/tosurnament/dashboard/internal/query"
)

var GuildFields = []field.Field{
	field.Text("language", "Language", 0, 8).Describe("Language used by the discord bot."),
	field.Role("admin_role_id", "Admin role").
		Describe("Everyone with this role can modify the bot settings and has some privileged rights on some commands."),
	field.Role("verified_role_id", "Verified role").Describe("Role that will be given when a user gets verified."),
}

var TournamentFields = []field.Field{
	field.Text("name", "Name", 1, 128),
	field.Text("acronym", "Acronym", 1, 16),
	field.Channel("staff_channel_id", "Staff channel").Describe("Used for staff notifications."),
	field.Channel("match_notification_channel_id", "Match notification channel").
		Describe("Used for match notifications that will happen 30 minutes before a match."),
	field.Role("player_role_id", "Player role"),
	field.Role("referee_role_id", "Referee role"),
	field.Role("streamer_role_id", "Streamer role"),
	field.Role("commentator_role_id", "Commentator role"),
	field.Role("team_captain_role_id", "Team Captain role"),
	field.Int("reschedule_deadline_hours_before_current_time", "Reschedule deadline hours before current time", 0, 72).
		Describe("Allow a reschedule until <number of hours specified> before the current match time. 0 is for no deadline."),
	field.Int("reschedule_deadline_hours_before_new_time", "Reschedule deadline hours before new time", 0, 72).
		Describe("Allow a reschedule until <number of hours specified> before the new match time. 0 is for no deadline."),
	field.DayTimeField("reschedule_deadline_end", "Reschedule deadline end").
		Describe("Allow a reschedule date before the next specified day and hour."),
	field.DayTimeField("reschedule_before_date", "Reschedule before date").
		Describe("Allow a reschedule date after the previous specified day and hour."),
	field.Check("reschedule_ping_team", "Reschedule ping team").
		Describe("When checked, reschedules will ping the team role. Else, reschedules will ping the Team Captain."),
	field.Check("notify_no_staff_reschedule", "Notify no staff reschedule").
		Describe("When checked, reschedules of matches that no staff took yet will be notified in the staff channel. Else, they will not be notified."),
	field.Select("game_mode", "Game mode", "std", "taiko", "ctb", "mania"),
	field.UtcOffsetField("utc", "UTC").Describe("Used in all written dates by the discord bot."),
}

var BracketFields = []field.Field{
	field.Text("name", "Name", 1, 128),
	field.Role("role_id", "Role").
		Describe("This role can be given automatically during the registration phase and removed when the player is out of the tournament."),
	field.Text("challonge", "Challonge", 0, 128).
		Describe("URL of the challonge. It can be automatically updated when using the result posting of Tosurnament."),
}

func spreadsheetFields(fields ...field.Field) []field.Field {
	return append([]field.Field{
		field.Text("spreadsheet_id", "Spreadsheet URL or id", 1, 128),
		field.Text("sheet_name", "Sheet name", 0, 128).
			Describe("Used in all the ranges of the spreadsheet (unless explicitly set in the range)."),
	}, fields...)
}

var PlayersSpreadsheetFields = spreadsheetFields(
	field.Range("range_team_name", "Range team name"),
	field.Range("range_team", "Range team"),
	field.Range("range_discord_id", "Range discord id"),
	field.Range("range_discord", "Range discord").
		Describe("Range that will contain the discord username and discriminant like this Username#0000."),
	field.Range("range_rank", "Range rank"),
	field.Range("range_osu_id", "Range osu id"),
	field.Range("range_pp", "Range pp"),
	field.Range("range_country", "Range country"),
	field.Range("range_timezone", "Range timezone").
		Describe("Range that will contain the timezone given during registration."),
	field.Int("max_range_for_teams", "Max range for teams", 0, 128).
		Describe("Specify how many cells in a line contains a team. To use when storing multiple teams on a line."),
)

var SchedulesSpreadsheetFields = spreadsheetFields(
	field.Range("range_match_id", "Range match id"),
	field.Range("range_team1", "Range team 1"),
	field.Range("range_team2", "Range team 2"),
	field.Range("range_date", "Range date"),
	field.Range("range_time", "Range time"),
	field.Range("range_referee", "Range referee"),
	field.Range("range_streamer", "Range streamer"),
	field.Range("range_commentator", "Range commentator"),
	field.Check("use_range", "Store staff in multiple cells"),
	field.Int("max_referee", "Max referee in cell", 1, 3),
	field.Int("max_streamer", "Max streamer in cell", 1, 3),
	field.Int("max_commentator", "Max commentator in cell", 1, 4),
)

var QualifiersSpreadsheetFields = spreadsheetFields(
	field.Range("range_lobby_id", "Range lobby id"),
	field.Range("range_teams", "Range teams"),
	field.Range("range_referee", "Range referee"),
	field.Range("range_date", "Range date"),
	field.Range("range_time", "Range time"),
	field.Int("max_teams_in_row", "Max teams in row", 0, 128).
		Describe("Specify how many teams can be present in one row of a lobby."),
)

// SpreadsheetKind is one of the spreadsheets a bracket can be linked to.
type SpreadsheetKind struct {
	// Key of the spreadsheet in the bracket record and in its API path.
	Key    string
	Name   string
	Suffix string
	Fields []field.Field
}

var SpreadsheetKinds = []SpreadsheetKind{
	{Key: "players_spreadsheet", Name: "Players Spreadsheet", Suffix: "PlayersSpreadsheet", Fields: PlayersSpreadsheetFields},
	{Key: "schedules_spreadsheet", Name: "Schedules Spreadsheet", Suffix: "SchedulesSpreadsheet", Fields: SchedulesSpreadsheetFields},
	{Key: "qualifiers_spreadsheet", Name: "Qualifiers Spreadsheet", Suffix: "QualifiersSpreadsheet", Fields: QualifiersSpreadsheetFields},
}

// Keys of a bracket record that are edited in their own sections.
var bracketSpreadsheetKeys = []string{
	"players_spreadsheet",
	"schedules_spreadsheet",
	"qualifiers_spreadsheet",
	"qualifiers_results_spreadsheet",
}

var tournamentQueries = query.Key{"tournament"}

func Guild(guild api.Record, guildID string) *Form {
	return newForm("Guild", "Guild", "/tosurnament/guilds/"+guild.ID(), guild, GuildFields,
		query.Key{"guild", guildID})
}

func Tournament(tournament api.Record, guildID string) *Form {
	f := newForm("Tournament", "Tournament", "/tosurnament/tournaments/"+tournament.ID(),
		tournament.Without("brackets"), TournamentFields, query.Key{"tournament", guildID})
	f.WithDelete = true
	return f
}

func Bracket(tournamentID string, bracket api.Record) *Form {
	f := newForm(
		bracket.ID()+"-Bracket",
		"Bracket: "+bracket.String("name"),
		fmt.Sprintf("/tosurnament/tournaments/%s/brackets/%s", tournamentID, bracket.ID()),
		bracket.Without(bracketSpreadsheetKeys...),
		BracketFields,
		tournamentQueries,
	)
	f.WithDelete = true
	return f
}

func SpreadsheetURL(tournamentID, bracketID string, kind SpreadsheetKind) string {
	return fmt.Sprintf("/tosurnament/tournaments/%s/brackets/%s/%s", tournamentID, bracketID, kind.Key)
}

func Spreadsheet(tournamentID, bracketID string, kind SpreadsheetKind, spreadsheet api.Record) *Form {
	f := newForm(
		bracketID+"-"+kind.Suffix,
		kind.Name,
		SpreadsheetURL(tournamentID, bracketID, kind)+"/"+spreadsheet.ID(),
		spreadsheet,
		kind.Fields,
		tournamentQueries,
	)
	f.WithDelete = true
	return f
}

func newCreateForm(id, name, url string, fields []field.Field, extra api.Record, invalidate ...query.Key) *Form {
	record := api.Record{}
	for _, fd := range fields {
		record[fd.Name] = ""
	}
	for k, v := range extra {
		record[k] = v
	}
	f := &Form{ID: id, Name: name, URL: url, Fields: fields, Record: record, Create: true, Invalidate: invalidate}
	f.Bind()
	return f
}

var createTournamentFields = []field.Field{
	field.Text("name", "Tournament name", 1, 128).Focused(),
	field.Text("acronym", "Acronym", 1, 16),
}

var createBracketFields = []field.Field{
	field.Text("name", "Bracket name", 1, 128).Focused(),
}

var createSpreadsheetFields = []field.Field{
	field.Text("spreadsheet_id", "Spreadsheet URL or id", 1, 128).Focused(),
	field.Text("sheet_name", "Sheet name", 0, 128).
		Describe("Used in all the ranges of the spreadsheet (unless explicitly set in the range)."),
}

func CreateTournament(guildID string) *Form {
	return newCreateForm("Tournament", "Tournament", "/tosurnament/tournaments", createTournamentFields,
		api.Record{"guild_id": guildID}, tournamentQueries)
}

func CreateBracket(tournamentID string) *Form {
	return newCreateForm("NewBracket", "New Bracket", "/tosurnament/tournaments/"+tournamentID+"/brackets",
		createBracketFields, api.Record{"tournament_id": tournamentID}, tournamentQueries)
}

func CreateSpreadsheet(tournamentID, bracketID string, kind SpreadsheetKind) *Form {
	return newCreateForm(bracketID+"-"+kind.Suffix, kind.Name, SpreadsheetURL(tournamentID, bracketID, kind),
		createSpreadsheetFields, nil, tournamentQueries)
}
