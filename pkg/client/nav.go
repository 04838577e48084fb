package client

// Role names as issued by the server.
const (
	RoleAdmin          = "ADMIN"
	RoleCEO            = "CEO"
	RoleChannelPartner = "CHANNEL_PARTNER"
	RoleTrainer        = "TRAINER"
	RoleStudent        = "STUDENT"
)

// View identifies a top-level dashboard variant.
type View string

const (
	ViewAdmin   View = "admin"
	ViewBranch  View = "branch"
	ViewTrainer View = "trainer"
	ViewStudent View = "student"
)

// DashboardView is a pure role-to-view lookup. Unknown roles fall back to
// the generic admin view.
func DashboardView(role string) View {
	switch role {
	case RoleChannelPartner:
		return ViewBranch
	case RoleTrainer:
		return ViewTrainer
	case RoleStudent:
		return ViewStudent
	default:
		return ViewAdmin
	}
}

// NavEntry is one link in the navigation manifest. An empty Roles slice
// means the entry is visible to every role.
type NavEntry struct {
	Label string
	Path  string
	Roles []string
}

// Active reports whether the entry matches the current location. Matching
// is exact-path only, never prefix based.
func (e NavEntry) Active(currentPath string) bool {
	return e.Path == currentPath
}

// NavSection groups ordered entries under a label.
type NavSection struct {
	Label   string
	Entries []NavEntry
}

// DefaultNav is the ordered navigation manifest for the standard frontend.
var DefaultNav = []NavSection{
	{
		Label: "Overview",
		Entries: []NavEntry{
			{Label: "Dashboard", Path: "/dashboard"},
			{Label: "Notifications", Path: "/notifications"},
		},
	},
	{
		Label: "Sales",
		Entries: []NavEntry{
			{Label: "Leads", Path: "/leads", Roles: []string{RoleAdmin, RoleCEO, RoleChannelPartner}},
			{Label: "Admissions", Path: "/admissions", Roles: []string{RoleAdmin, RoleCEO, RoleChannelPartner}},
			{Label: "Incentives", Path: "/incentives", Roles: []string{RoleAdmin, RoleCEO, RoleChannelPartner}},
		},
	},
	{
		Label: "Academics",
		Entries: []NavEntry{
			{Label: "Students", Path: "/students", Roles: []string{RoleAdmin, RoleCEO, RoleChannelPartner, RoleTrainer}},
			{Label: "Batches", Path: "/batches", Roles: []string{RoleAdmin, RoleCEO, RoleChannelPartner, RoleTrainer}},
			{Label: "Courses", Path: "/courses", Roles: []string{RoleAdmin, RoleCEO}},
			{Label: "My Portfolio", Path: "/portfolio", Roles: []string{RoleStudent}},
		},
	},
	{
		Label: "Placements",
		Entries: []NavEntry{
			{Label: "Companies", Path: "/companies", Roles: []string{RoleAdmin, RoleCEO, RoleChannelPartner}},
			{Label: "Placements", Path: "/placements", Roles: []string{RoleAdmin, RoleCEO, RoleChannelPartner}},
		},
	},
	{
		Label: "Administration",
		Entries: []NavEntry{
			{Label: "Users", Path: "/users", Roles: []string{RoleAdmin, RoleCEO}},
			{Label: "Branches", Path: "/branches", Roles: []string{RoleAdmin, RoleCEO}},
			{Label: "Expenses", Path: "/expenses", Roles: []string{RoleAdmin, RoleCEO}},
			{Label: "Events", Path: "/events", Roles: []string{RoleAdmin, RoleCEO}},
			{Label: "Reports", Path: "/reports", Roles: []string{RoleAdmin, RoleCEO, RoleChannelPartner}},
		},
	},
}

// VisibleNav filters the manifest by role, preserving order and dropping
// sections left with no visible entries.
func VisibleNav(role string, manifest []NavSection) []NavSection {
	result := make([]NavSection, 0, len(manifest))
	for _, section := range manifest {
		entries := make([]NavEntry, 0, len(section.Entries))
		for _, entry := range section.Entries {
			if entryVisible(entry, role) {
				entries = append(entries, entry)
			}
		}
		if len(entries) == 0 {
			continue
		}
		result = append(result, NavSection{Label: section.Label, Entries: entries})
	}
	return result
}

func entryVisible(entry NavEntry, role string) bool {
	if len(entry.Roles) == 0 {
		return true
	}
	for _, allowed := range entry.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}
