// Package listview turns an arbitrary collection of API records into the
// view model behind the card grid and table templates.
//
// Nothing here knows what the records are. Callers say which field is the
// key, which fields make the title, which to hide, and which actions a row
// offers; the templates render the result.
package listview

import (
	"sort"

	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/app/system/paging"
	"github.com/dalemusser/gradebook/internal/domain/models"
)

// Action is a per-row button. Show decides per item; nil shows it always.
type Action struct {
	Name  string // posted back to the handler, e.g. "unassign"
	Label string
	Color string // palette slot: "primary", "secondary", "ternary", "quaternary"
	Show  func(models.Item) bool
}

// Options configure Build.
type Options struct {
	Mode          models.DisplayMode
	KeyField      string
	TitleFields   []string
	KeysToIgnore  []string
	KeysToExclude []string // value shown without its label
	Columns       []string // preferred order; remaining fields follow sorted
	Page          int
	PageSize      int // 0 uses paging.PageSize
	Actions       []Action
	EmptyMessage  string

	// RowKey overrides the row identity (e.g. composite invite keys).
	RowKey func(models.Item) string

	KeyLabel   func(string) string
	ValueLabel func(any) string
	ValueClass func(any) string
}

// Column is a table header.
type Column struct {
	Key   string
	Label string
}

// Cell is one displayed field.
type Cell struct {
	Key       string
	Label     string
	HideLabel bool
	Value     string
	Class     string
}

// Button is an Action resolved for one row.
type Button struct {
	Name  string
	Label string
	Color string
}

// Row is one card or table row.
type Row struct {
	Key     string
	Title   string
	Cells   []Cell
	Buttons []Button
}

// View is the rendered collection.
type View struct {
	Mode         models.DisplayMode
	Columns      []Column
	Rows         []Row
	Total        int
	Empty        bool
	EmptyMessage string
	Paging       paging.Window
}

// IsTable reports whether the view renders as a table.
func (v View) IsTable() bool { return v.Mode == models.DisplayTable }

// Build renders items. Tables take their columns from the first item;
// cards show each item's own fields.
func Build(items []models.Item, o Options) View {
	o = withDefaults(o)

	v := View{
		Mode:         o.Mode,
		Total:        len(items),
		Empty:        len(items) == 0,
		EmptyMessage: o.EmptyMessage,
	}
	if v.EmptyMessage == "" {
		v.EmptyMessage = labels.EmptyState
	}
	v.Paging = paging.Compute(len(items), o.Page, o.PageSize)
	if v.Empty {
		return v
	}

	skip := hidden(o)
	var cols []string
	if o.Mode == models.DisplayTable {
		cols = columns(items[0], o.Columns, skip)
		for _, k := range cols {
			v.Columns = append(v.Columns, Column{Key: k, Label: o.KeyLabel(k)})
		}
	}

	exclude := set(o.KeysToExclude)
	for _, it := range paging.Slice(items, v.Paging) {
		row := Row{
			Key:   o.RowKey(it),
			Title: o.ValueLabel(it.Join(o.TitleFields)),
		}
		fields := cols
		if o.Mode != models.DisplayTable {
			fields = columns(it, o.Columns, skip)
		}
		for _, k := range fields {
			raw, present := it[k]
			c := Cell{Key: k, Label: o.KeyLabel(k)}
			if _, ok := exclude[k]; ok {
				c.HideLabel = true
			}
			if present {
				c.Value = o.ValueLabel(raw)
				c.Class = o.ValueClass(raw)
			}
			row.Cells = append(row.Cells, c)
		}
		for _, a := range o.Actions {
			if a.Show != nil && !a.Show(it) {
				continue
			}
			row.Buttons = append(row.Buttons, Button{Name: a.Name, Label: a.Label, Color: a.Color})
		}
		v.Rows = append(v.Rows, row)
	}
	return v
}

func withDefaults(o Options) Options {
	if o.Mode == "" {
		o.Mode = models.DisplayCard
	}
	if o.KeyField == "" {
		o.KeyField = "id"
	}
	if o.PageSize <= 0 {
		o.PageSize = paging.PageSize
	}
	if o.KeyLabel == nil {
		o.KeyLabel = labels.Key
	}
	if o.ValueLabel == nil {
		o.ValueLabel = labels.Value
	}
	if o.ValueClass == nil {
		o.ValueClass = labels.ValueClass
	}
	if o.RowKey == nil {
		kf := o.KeyField
		o.RowKey = func(it models.Item) string { return it.Key(kf) }
	}
	return o
}

func hidden(o Options) map[string]struct{} {
	skip := set(o.KeysToIgnore)
	skip["id"] = struct{}{}
	skip[o.KeyField] = struct{}{}
	for _, f := range o.TitleFields {
		skip[f] = struct{}{}
	}
	return skip
}

// columns lists the displayable fields of it: preferred ones first, in the
// given order, then the rest sorted by name.
func columns(it models.Item, preferred []string, skip map[string]struct{}) []string {
	var out []string
	seen := make(map[string]struct{}, len(it))
	for _, k := range preferred {
		if _, ok := skip[k]; ok {
			continue
		}
		if _, ok := it[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	var rest []string
	for k := range it {
		if _, ok := skip[k]; ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func set(keys []string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys)+2)
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

// InviteItems returns the raw records of invites, for Build.
func InviteItems(invites []models.PendingInvite) []models.Item {
	out := make([]models.Item, 0, len(invites))
	for _, inv := range invites {
		out = append(out, inv.Fields)
	}
	return out
}

// InviteRowKey is a RowKey for invite records.
func InviteRowKey(it models.Item) string {
	return models.InviteKey(it.Key("id"), it.Key("tenant_id"))
}
