package views

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/tosurnament/dashboard/internal/discord"
	"github.com/tosurnament/dashboard/internal/field"
	"github.com/tosurnament/dashboard/internal/form"
	"github.com/tosurnament/dashboard/internal/service"
)

// SectionData is one form of the guild page as the templates see it.
type SectionData struct {
	GuildID       string
	Form          *form.Form
	Roles         []discord.Option
	ChannelGroups []discord.OptionGroup
	CSRFField     template.HTML
	Flash         Flash
}

func (s SectionData) Action() string {
	return fmt.Sprintf("/guilds/%s/sections/%s", s.GuildID, s.Form.ID)
}

func (s SectionData) DeleteAction() string {
	return s.Action() + "/delete"
}

func (s SectionData) SubmitLabel() string {
	if s.Form.Create {
		return "Create"
	}
	return "Update"
}

func (s SectionData) Fields() []FieldData {
	fields := make([]FieldData, len(s.Form.Bindings))
	for i, b := range s.Form.Bindings {
		fields[i] = FieldData{
			ID:            s.Form.ID + "-" + b.Field.Name,
			Binding:       b,
			Roles:         s.Roles,
			ChannelGroups: s.ChannelGroups,
		}
	}
	return fields
}

// FieldData renders a single binding.
type FieldData struct {
	ID            string
	Binding       field.Binding
	Roles         []discord.Option
	ChannelGroups []discord.OptionGroup
}

func (f FieldData) Kind() string {
	return string(f.Binding.Field.Kind)
}

func (f FieldData) Name(part string) string {
	if part == "" {
		return f.Binding.Field.Name
	}
	return f.Binding.Field.Sub(part)
}

func (f FieldData) MinAttr() string {
	if f.Binding.Field.Min == nil {
		return ""
	}
	return strconv.Itoa(*f.Binding.Field.Min)
}

func (f FieldData) MaxAttr() string {
	if f.Binding.Field.Max == nil {
		return ""
	}
	return strconv.Itoa(*f.Binding.Field.Max)
}

type Choice struct {
	Value    string
	Label    string
	Selected bool
}

// SelectChoices lists a select field's values, submitted by index.
func (f FieldData) SelectChoices() []Choice {
	choices := make([]Choice, len(f.Binding.Field.Values))
	for i, label := range f.Binding.Field.Values {
		v := strconv.Itoa(i)
		choices[i] = Choice{Value: v, Label: label, Selected: v == f.Binding.Value}
	}
	return choices
}

func (f FieldData) DayChoices() []Choice {
	current := f.Binding.DayTime().Day
	choices := []Choice{{Value: "", Label: "None", Selected: current == field.DayUnset}}
	for _, d := range field.Days {
		choices = append(choices, Choice{Value: string(d), Label: dayLabel(d), Selected: d == current})
	}
	return choices
}

func (f FieldData) SignChoices() []Choice {
	sign := f.Binding.UtcOffset().Sign
	return []Choice{
		{Value: field.SignPlus, Label: field.SignPlus, Selected: sign != field.SignMinus},
		{Value: field.SignMinus, Label: field.SignMinus, Selected: sign == field.SignMinus},
	}
}

func (f FieldData) RoleColor() string {
	return discord.RoleColor(f.Roles, f.Binding.Value)
}

func dayLabel(d field.Day) string {
	s := string(d)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PrepareSections lists the forms of a guild page in display order.
func PrepareSections(page *service.GuildPage, csrfField template.HTML) []SectionData {
	forms := page.Sections
	if page.GuildForm != nil {
		forms = append([]*form.Form{page.GuildForm}, forms...)
	}

	sections := make([]SectionData, len(forms))
	for i, f := range forms {
		sections[i] = SectionData{
			GuildID:       page.GuildID,
			Form:          f,
			Roles:         page.Roles,
			ChannelGroups: page.ChannelGroups,
			CSRFField:     csrfField,
		}
	}
	return sections
}
