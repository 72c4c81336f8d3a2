package listview

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/domain/models"
)

func curricula(n int) []models.Item {
	out := make([]models.Item, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, models.Item{
			"curriculum_code": "C" + strconv.Itoa(i),
			"curriculum_name": "Kurikulum " + strconv.Itoa(i),
			"npp_name":        "Redovni",
			"class_code":      json.Number(strconv.Itoa(i)),
			"npp_code":        "R",
		})
	}
	return out
}

func cellKeys(cells []Cell) string {
	var ks []string
	for _, c := range cells {
		ks = append(ks, c.Key)
	}
	return strings.Join(ks, ",")
}

func TestBuild_Empty(t *testing.T) {
	v := Build(nil, Options{})
	if !v.Empty || v.EmptyMessage != labels.EmptyState || len(v.Rows) != 0 {
		t.Errorf("view = %+v", v)
	}
	if v.Paging.Enabled {
		t.Error("paging enabled on empty list")
	}

	v = Build(nil, Options{EmptyMessage: "Nema učenika."})
	if v.EmptyMessage != "Nema učenika." {
		t.Errorf("EmptyMessage = %q", v.EmptyMessage)
	}
}

func TestBuild_TableColumns(t *testing.T) {
	items := []models.Item{
		{"id": json.Number("1"), "email": "a@x.com", "name": "Amra", "last_name": "Hodžić", "phone": "061"},
		{"id": json.Number("2"), "email": "b@x.com", "name": "Tarik", "extra": "x"},
	}
	v := Build(items, Options{
		Mode:        models.DisplayTable,
		TitleFields: []string{"name", "last_name"},
		Columns:     []string{"phone", "email"},
	})

	var heads []string
	for _, c := range v.Columns {
		heads = append(heads, c.Key)
	}
	if got := strings.Join(heads, ","); got != "phone,email" {
		t.Errorf("columns = %s", got)
	}
	if v.Columns[0].Label != "Telefon" {
		t.Errorf("column label = %q", v.Columns[0].Label)
	}

	// Second row follows the first item's columns; missing values are blank.
	r := v.Rows[1]
	if cellKeys(r.Cells) != "phone,email" || r.Cells[0].Value != "" || r.Cells[1].Value != "b@x.com" {
		t.Errorf("row 2 cells = %+v", r.Cells)
	}
	if v.Rows[0].Title != "Amra Hodžić" || r.Title != "Tarik" {
		t.Errorf("titles = %q, %q", v.Rows[0].Title, r.Title)
	}
	if v.Rows[0].Key != "1" {
		t.Errorf("row key = %q", v.Rows[0].Key)
	}
}

func TestBuild_CardsUseOwnFields(t *testing.T) {
	items := []models.Item{
		{"id": json.Number("1"), "email": "a@x.com"},
		{"id": json.Number("2"), "email": "b@x.com", "gender": "F", "unenrolled": true},
	}
	v := Build(items, Options{TitleFields: []string{"email"}, KeysToIgnore: []string{"unenrolled"}})
	if v.IsTable() {
		t.Fatal("default mode should be cards")
	}
	if cellKeys(v.Rows[0].Cells) != "" {
		t.Errorf("row 1 cells = %s", cellKeys(v.Rows[0].Cells))
	}
	if got := v.Rows[1].Cells; len(got) != 1 || got[0].Key != "gender" || got[0].Value != "Ženski" {
		t.Errorf("row 2 cells = %+v", got)
	}
}

func TestBuild_ValueLabelsAndClasses(t *testing.T) {
	items := []models.Item{{"id": json.Number("1"), "status": "declined", "note": nil, "active": true}}
	v := Build(items, Options{Mode: models.DisplayTable, KeysToExclude: []string{"note"}})
	cells := map[string]Cell{}
	for _, c := range v.Rows[0].Cells {
		cells[c.Key] = c
	}
	if c := cells["status"]; c.Value != "Odbijen" || c.Class != "text-red-500" {
		t.Errorf("status cell = %+v", c)
	}
	if c := cells["note"]; c.Value != "Nije postavljeno" || !c.HideLabel {
		t.Errorf("note cell = %+v", c)
	}
	if c := cells["active"]; c.Value != "Da" {
		t.Errorf("active cell = %+v", c)
	}
}

func TestBuild_Paging(t *testing.T) {
	opts := Options{Mode: models.DisplayTable, KeyField: "curriculum_code", TitleFields: []string{"curriculum_name"}}

	v := Build(curricula(6), opts)
	if v.Paging.Enabled || len(v.Rows) != 6 {
		t.Errorf("six items: enabled=%v rows=%d", v.Paging.Enabled, len(v.Rows))
	}

	opts.Page = 2
	v = Build(curricula(8), opts)
	if !v.Paging.Enabled || v.Paging.Pages != 2 || len(v.Rows) != 2 || v.Rows[0].Key != "C7" {
		t.Errorf("page 2: %+v rows=%d", v.Paging, len(v.Rows))
	}

	opts.Page = 9
	v = Build(curricula(8), opts)
	if v.Paging.Page != 2 {
		t.Errorf("page not clamped: %d", v.Paging.Page)
	}
}

func TestBuild_Actions(t *testing.T) {
	items := []models.Item{
		{"id": json.Number("1"), "tenant_id": json.Number("4"), "status": "pending"},
		{"id": json.Number("2"), "tenant_id": json.Number("4"), "status": "accepted"},
	}
	pending := func(it models.Item) bool { return it.String("status") == "pending" }
	v := Build(items, Options{
		RowKey: InviteRowKey,
		Actions: []Action{
			{Name: "accept", Label: "Prihvati", Color: "secondary", Show: pending},
			{Name: "decline", Label: "Odbij", Color: "ternary", Show: pending},
			{Name: "details", Label: "Detalji"},
		},
	})
	if len(v.Rows[0].Buttons) != 3 || len(v.Rows[1].Buttons) != 1 {
		t.Errorf("buttons = %d, %d", len(v.Rows[0].Buttons), len(v.Rows[1].Buttons))
	}
	if v.Rows[0].Key != "1:4" {
		t.Errorf("row key = %q", v.Rows[0].Key)
	}
}

func TestSelect(t *testing.T) {
	items := []models.Item{
		{"id": json.Number("1"), "email": "amra@skola.ba"},
		{"id": json.Number("2"), "email": "Tarik@skola.ba"},
		{"id": json.Number("3"), "email": "emina@gmail.com"},
		{"id": json.Number("4")},
	}

	tests := []struct {
		name       string
		query      string
		selected   []string
		searchOnly bool
		want       string
		message    string
	}{
		{"all on empty query", "", nil, false, "1,2,3", ""},
		{"case insensitive", "TARIK", nil, false, "2", ""},
		{"selected stay visible", "gmail", []string{"1"}, false, "1,3", ""},
		{"no results", "zzz", nil, false, "", labels.NoResults},
		{"search only blank", "  ", []string{"1"}, true, "", labels.SearchPrompt},
		{"search only typed", "skola", nil, true, "1,2", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Select(items, "id", "email", tt.query, tt.selected, tt.searchOnly)
			var ks []string
			for _, c := range s.Choices {
				ks = append(ks, c.Key)
			}
			if got := strings.Join(ks, ","); got != tt.want {
				t.Errorf("choices = %s, want %s", got, tt.want)
			}
			if s.Message != tt.message {
				t.Errorf("message = %q, want %q", s.Message, tt.message)
			}
			if s.CanSave() != (len(tt.selected) > 0) {
				t.Errorf("CanSave = %v", s.CanSave())
			}
		})
	}
}

func TestSelect_MarksAndDedupes(t *testing.T) {
	items := []models.Item{{"id": json.Number("1"), "email": "a"}, {"id": json.Number("2"), "email": "b"}}
	s := Select(items, "id", "email", "", []string{"2", "2", ""}, false)
	if strings.Join(s.Selected, ",") != "2" {
		t.Errorf("selected = %v", s.Selected)
	}
	if s.Choices[0].Selected || !s.Choices[1].Selected {
		t.Errorf("choices = %+v", s.Choices)
	}
}
