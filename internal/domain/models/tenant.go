// internal/domain/models/tenant.go
package models

import (
	"strconv"
	"strings"
)

// DisplayMode selects how a collection is rendered.
type DisplayMode string

const (
	DisplayCard  DisplayMode = "card"
	DisplayTable DisplayMode = "table"
)

// ParseDisplayMode returns def for anything other than "card" or "table".
func ParseDisplayMode(s string, def DisplayMode) DisplayMode {
	switch DisplayMode(strings.ToLower(strings.TrimSpace(s))) {
	case DisplayCard:
		return DisplayCard
	case DisplayTable:
		return DisplayTable
	}
	return def
}

// Shade is one Tailwind color family with its base/hover/focus steps.
type Shade struct {
	Color string
	Base  string
	Hover string
	Focus string
}

// Bg returns the background utility classes for the shade.
func (s Shade) Bg() string {
	return "bg-" + s.Color + "-" + s.Base + " hover:bg-" + s.Color + "-" + s.Hover +
		" focus:ring-" + s.Color + "-" + s.Focus
}

// Text returns the text color utility class for the shade.
func (s Shade) Text() string {
	return "text-" + s.Color + "-" + s.Base
}

// Border returns the border color utility class for the shade.
func (s Shade) Border() string {
	return "border-" + s.Color + "-" + s.Base
}

// Palette is a tenant color scheme. Button1 is used for add/confirm,
// Button2 for destructive actions and Button3 for secondary actions.
type Palette struct {
	Base    Shade
	Button1 Shade
	Button2 Shade
	Button3 Shade
}

// Palettes are the tenant color schemes, selected by ColorConfig.
var Palettes = [...]Palette{
	{
		Base:    Shade{"indigo", "500", "600", "600"},
		Button1: Shade{"teal", "500", "600", "600"},
		Button2: Shade{"rose", "500", "600", "600"},
		Button3: Shade{"amber", "600", "700", "700"},
	},
	{
		Base:    Shade{"blue", "500", "600", "600"},
		Button1: Shade{"teal", "500", "600", "600"},
		Button2: Shade{"rose", "500", "600", "600"},
		Button3: Shade{"cyan", "500", "600", "600"},
	},
	{
		Base:    Shade{"gray", "500", "600", "600"},
		Button1: Shade{"teal", "500", "600", "600"},
		Button2: Shade{"rose", "500", "600", "600"},
		Button3: Shade{"slate", "500", "600", "600"},
	},
	{
		Base:    Shade{"slate", "600", "700", "700"},
		Button1: Shade{"teal", "500", "600", "600"},
		Button2: Shade{"rose", "500", "600", "600"},
		Button3: Shade{"neutral", "600", "700", "700"},
	},
}

// ColorConfig is a tenant's palette index.
type ColorConfig int

// ParseColorConfig accepts the API's string form ("2"); anything invalid is 0.
func ParseColorConfig(s string) ColorConfig {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return ColorConfig(n)
}

// Palette returns the palette for c, falling back to the first one when c is
// out of range.
func (c ColorConfig) Palette() Palette {
	if c < 0 || int(c) >= len(Palettes) {
		return Palettes[0]
	}
	return Palettes[c]
}

// Tenant is the subset of the tenant record the assignment pages use.
type Tenant struct {
	ID                   string      `json:"-"`
	Name                 string      `json:"tenant_name"`
	Color                ColorConfig `json:"-"`
	CurriculumDisplay    DisplayMode `json:"-"`
	PupilDisplay         DisplayMode `json:"-"`
	PupilInviteDisplay   DisplayMode `json:"-"`
	TeacherDisplay       DisplayMode `json:"-"`
	TeacherInviteDisplay DisplayMode `json:"-"`
}

// TenantFromItem reads a tenant record. Display modes default to card for
// collections and table for invite lists.
func TenantFromItem(it Item) Tenant {
	return Tenant{
		ID:                   it.Key("id"),
		Name:                 it.String("tenant_name"),
		Color:                ParseColorConfig(it.String("color_config")),
		CurriculumDisplay:    ParseDisplayMode(it.String("curriculum_display"), DisplayCard),
		PupilDisplay:         ParseDisplayMode(it.String("pupil_display"), DisplayCard),
		PupilInviteDisplay:   ParseDisplayMode(it.String("pupil_invite_display"), DisplayTable),
		TeacherDisplay:       ParseDisplayMode(it.String("teacher_display"), DisplayCard),
		TeacherInviteDisplay: ParseDisplayMode(it.String("teacher_invite_display"), DisplayTable),
	}
}
