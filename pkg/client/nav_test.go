package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardView(t *testing.T) {
	assert.Equal(t, ViewAdmin, DashboardView(RoleAdmin))
	assert.Equal(t, ViewAdmin, DashboardView(RoleCEO))
	assert.Equal(t, ViewBranch, DashboardView(RoleChannelPartner))
	assert.Equal(t, ViewTrainer, DashboardView(RoleTrainer))
	assert.Equal(t, ViewStudent, DashboardView(RoleStudent))
	assert.Equal(t, ViewAdmin, DashboardView("UNKNOWN"))
}

func TestVisibleNavForStudent(t *testing.T) {
	sections := VisibleNav(RoleStudent, DefaultNav)

	labels := make([]string, 0, len(sections))
	for _, section := range sections {
		labels = append(labels, section.Label)
	}
	// Sales, Placements and Administration have no student entries and
	// must be dropped entirely.
	assert.Equal(t, []string{"Overview", "Academics"}, labels)

	require.Len(t, sections[1].Entries, 1)
	assert.Equal(t, "My Portfolio", sections[1].Entries[0].Label)
}

func TestVisibleNavForAdminKeepsEverythingButPortfolio(t *testing.T) {
	sections := VisibleNav(RoleAdmin, DefaultNav)

	require.Len(t, sections, len(DefaultNav))
	for _, section := range sections {
		if section.Label != "Academics" {
			continue
		}
		for _, entry := range section.Entries {
			assert.NotEqual(t, "My Portfolio", entry.Label)
		}
	}
}

func TestVisibleNavRoleFreeEntriesShowForEveryone(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleCEO, RoleChannelPartner, RoleTrainer, RoleStudent} {
		sections := VisibleNav(role, DefaultNav)
		require.NotEmpty(t, sections, role)
		assert.Equal(t, "Overview", sections[0].Label)
		assert.Len(t, sections[0].Entries, 2)
	}
}

func TestVisibleNavPreservesManifestOrder(t *testing.T) {
	sections := VisibleNav(RoleChannelPartner, DefaultNav)

	labels := make([]string, 0, len(sections))
	for _, section := range sections {
		labels = append(labels, section.Label)
	}
	assert.Equal(t, []string{"Overview", "Sales", "Academics", "Placements", "Administration"}, labels)

	// Partner sees only the reports entry under administration.
	last := sections[len(sections)-1]
	require.Len(t, last.Entries, 1)
	assert.Equal(t, "Reports", last.Entries[0].Label)
}

func TestNavEntryActiveIsExactMatch(t *testing.T) {
	entry := NavEntry{Label: "Leads", Path: "/leads"}

	assert.True(t, entry.Active("/leads"))
	assert.False(t, entry.Active("/leads/42"))
	assert.False(t, entry.Active("/"))
}
