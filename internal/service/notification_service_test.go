package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
	"github.com/nexskill/institute-api/pkg/jobs"
)

// mockNotificationRepo is safe for concurrent use; the fan-out workers write
// to it from queue goroutines.
type mockNotificationRepo struct {
	mu        sync.Mutex
	items     map[string]*models.Notification
	roleUsers map[models.UserRole][]string
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{
		items:     map[string]*models.Notification{},
		roleUsers: map[models.UserRole][]string{},
	}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.items[n.ID] = &cp
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, page, pageSize int) ([]models.Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Notification{}
	for _, n := range m.items {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, len(out), nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.items[id]
	if !ok || n.UserID != userID {
		return sql.ErrNoRows
	}
	n.Read = true
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (m *mockNotificationRepo) UnreadCount(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) ListUserIDsByRoles(_ context.Context, roles ...models.UserRole) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for _, role := range roles {
		out = append(out, m.roleUsers[role]...)
	}
	return out, nil
}

func (m *mockNotificationRepo) countFor(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.items {
		if n.UserID == userID {
			count++
		}
	}
	return count
}

func newNotificationFixture(t *testing.T) (*mockNotificationRepo, *NotificationService) {
	t.Helper()
	repo := newMockNotificationRepo()
	svc := NewNotificationService(repo, nil, nil, jobs.QueueConfig{Workers: 1, RetryDelay: time.Millisecond})
	svc.StartQueue(context.Background())
	t.Cleanup(svc.StopQueue)
	return repo, svc
}

func TestNotificationServiceNotifyUsers(t *testing.T) {
	repo, svc := newNotificationFixture(t)

	svc.NotifyUsers("Fee reminder", "Your balance is due", "u1", "u2")

	require.Eventually(t, func() bool {
		return repo.countFor("u1") == 1 && repo.countFor("u2") == 1
	}, 2*time.Second, 10*time.Millisecond)

	items, _, err := svc.List(context.Background(), "u1", 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Fee reminder", items[0].Title)
	assert.False(t, items[0].Read)
}

func TestNotificationServiceNotifyRolesDeduplicates(t *testing.T) {
	repo, svc := newNotificationFixture(t)
	repo.roleUsers[models.RoleAdmin] = []string{"u1"}
	repo.roleUsers[models.RoleCEO] = []string{"u1", "u2"}

	svc.NotifyRoles("New lead", "A public lead arrived", models.RoleAdmin, models.RoleCEO)

	require.Eventually(t, func() bool {
		return repo.countFor("u2") == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, repo.countFor("u1"))
}

func TestNotificationServiceReadFlow(t *testing.T) {
	repo, svc := newNotificationFixture(t)

	svc.NotifyUsers("One", "first", "u1")
	svc.NotifyUsers("Two", "second", "u1")
	require.Eventually(t, func() bool {
		return repo.countFor("u1") == 2
	}, 2*time.Second, 10*time.Millisecond)

	count, err := svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	items, _, err := svc.List(context.Background(), "u1", 1, 20)
	require.NoError(t, err)
	require.NoError(t, svc.MarkRead(context.Background(), items[0].ID, "u1"))

	count, err = svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.MarkAllRead(context.Background(), "u1"))
	count, err = svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationServiceMarkReadEnforcesOwnership(t *testing.T) {
	repo, svc := newNotificationFixture(t)

	svc.NotifyUsers("Private", "for u1 only", "u1")
	require.Eventually(t, func() bool {
		return repo.countFor("u1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	items, _, err := svc.List(context.Background(), "u1", 1, 20)
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), items[0].ID, "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
