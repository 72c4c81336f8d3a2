// internal/app/features/auditlog/types.go
package auditlog

import (
	"strings"
	"time"

	"github.com/dalemusser/gradebook/internal/app/store/audit"
	"github.com/dalemusser/gradebook/internal/app/system/paging"
	"github.com/dalemusser/gradebook/internal/app/system/viewdata"
)

// listItem is one audit event row.
type listItem struct {
	ID        string
	Timestamp string
	Category  string
	EventType string
	User      string // email, or API user id when the email is unknown
	TenantID  string
	Page      string
	Keys      string
	IP        string
	Success   bool
	Failure   string
}

// listData is the view model for the audit log list page.
type listData struct {
	viewdata.BaseVM

	Disabled bool
	Items    []listItem

	// Filters
	TenantID  string
	Category  string
	EventType string
	StartDate string
	EndDate   string

	// Filter options
	Categories []categoryOption
	EventTypes []string

	// Pagination
	Page   int
	Total  int64
	Paging paging.Window
	// Query is the filter query string the pager links keep, "	// Query is the filter query string the pager links keep."-terminated.
	Query string
}

type categoryOption struct {
	Value string
	Label string
}

func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Prijava"},
		{Value: audit.CategoryAssignment, Label: "Dodjele"},
		{Value: audit.CategoryInvite, Label: "Pozivi"},
	}
}

// eventTypesForCategory returns the event types for a given category.
// An empty category returns every type.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailed,
		audit.EventLoginFailedClaims,
		audit.EventLogout,
	}
	assignmentEvents := []string{
		audit.EventItemsAssigned,
		audit.EventInvitesSent,
		audit.EventItemUnassigned,
		audit.EventInviteWithdrawn,
	}
	inviteEvents := []string{
		audit.EventInviteAccepted,
		audit.EventInviteDeclined,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryAssignment:
		return assignmentEvents
	case audit.CategoryInvite:
		return inviteEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(assignmentEvents)+len(inviteEvents))
		all = append(all, authEvents...)
		all = append(all, assignmentEvents...)
		return append(all, inviteEvents...)
	default:
		return nil
	}
}

func toItem(e audit.Event) listItem {
	user := e.UserEmail
	if user == "" {
		user = e.UserID
	}
	return listItem{
		ID:        e.ID.Hex(),
		Timestamp: e.Timestamp.In(time.Local).Format("02.01.2006. 15:04:05"),
		Category:  e.Category,
		EventType: e.EventType,
		User:      user,
		TenantID:  e.TenantID,
		Page:      e.Page,
		Keys:      strings.Join(e.Keys, ", "),
		IP:        e.IP,
		Success:   e.Success,
		Failure:   e.FailureReason,
	}
}
