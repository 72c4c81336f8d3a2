package listview

import (
	"strings"

	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/domain/models"
)

// Choice is one checkbox of the selection modal.
type Choice struct {
	Key      string
	Label    string
	Selected bool
}

// Selection is the filtered content of the selection modal.
type Selection struct {
	Query    string
	Choices  []Choice
	Selected []string // keys, in the order given
	Message  string   // shown instead of (or after) the choices
}

// CanSave reports whether anything is selected.
func (s Selection) CanSave() bool { return len(s.Selected) > 0 }

// Select filters items for the selection modal. An item is listed when its
// label contains query (case-insensitive) or it is already selected. With
// searchOnly and a blank query nothing is listed until the user types.
func Select(items []models.Item, keyField, labelField, query string, selected []string, searchOnly bool) Selection {
	sel := make(map[string]struct{}, len(selected))
	s := Selection{Query: query}
	for _, k := range selected {
		if _, dup := sel[k]; dup || k == "" {
			continue
		}
		sel[k] = struct{}{}
		s.Selected = append(s.Selected, k)
	}

	if searchOnly && strings.TrimSpace(query) == "" {
		s.Message = labels.SearchPrompt
		return s
	}

	q := strings.ToLower(query)
	for _, it := range items {
		key := it.Key(keyField)
		label := it.String(labelField)
		_, isSel := sel[key]
		if !isSel && (it[labelField] == nil || !strings.Contains(strings.ToLower(label), q)) {
			continue
		}
		s.Choices = append(s.Choices, Choice{Key: key, Label: label, Selected: isSel})
	}
	if len(s.Choices) == 0 {
		s.Message = labels.NoResults
	}
	return s
}
