package navigation

import "net/url"

// Item is one sidebar link.
type Item struct {
	Href  string
	Label string
}

// Home returns the landing page for an account type.
func Home(role, tenantID string) string {
	switch role {
	case "root":
		return "/tenants"
	case "tenant_admin":
		if tenantID != "" {
			return "/assign/teachers/" + url.PathEscape(tenantID)
		}
		return "/forbidden"
	case "teacher":
		return "/sections"
	case "pupil", "parent":
		return "/invites/pupil"
	}
	return "/login"
}

// Sidebar returns the links shown to an account type, in display order.
func Sidebar(role, tenantID string) []Item {
	switch role {
	case "root":
		return []Item{
			{Href: "/tenants", Label: "Institucije"},
			{Href: "/audit", Label: "Audit zapis"},
		}
	case "tenant_admin":
		return []Item{{Href: Home(role, tenantID), Label: "Nastavnici"}}
	case "teacher":
		return []Item{
			{Href: "/sections", Label: "Odjeljenja"},
			{Href: "/sections?archived=1", Label: "Arhivirana odjeljenja"},
			{Href: "/invites/teacher", Label: "Pozivi"},
		}
	case "pupil":
		return []Item{{Href: "/invites/pupil", Label: "Pozivi"}}
	}
	return nil
}
