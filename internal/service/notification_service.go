package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
	"github.com/nexskill/institute-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	ListUserIDsByRoles(ctx context.Context, roles ...models.UserRole) ([]string, error)
}

const jobTypeFanout = "notification.fanout"

type fanoutPayload struct {
	Title   string
	Body    string
	UserIDs []string
	Roles   []models.UserRole
}

// NotificationService delivers in-app notifications. Fan-out to multiple
// recipients runs through the background queue so request paths never block
// on per-user inserts.
type NotificationService struct {
	repo    notificationRepository
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the notification service. Call StartQueue
// before the first dispatch.
func NewNotificationService(repo notificationRepository, metrics *MetricsService, logger *zap.Logger, cfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, metrics: metrics, logger: logger}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	s.queue = jobs.NewQueue("notifications", s.handleJob, cfg)
	return s
}

// StartQueue starts the background workers.
func (s *NotificationService) StartQueue(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopQueue drains and stops the background workers.
func (s *NotificationService) StopQueue() {
	s.queue.Stop()
}

// List returns the caller's notifications.
func (s *NotificationService) List(ctx context.Context, userID string, page, pageSize int) ([]models.Notification, *models.Pagination, error) {
	items, total, err := s.repo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, paginationFor(page, pageSize, total), nil
}

// MarkRead marks a single notification as read. Ownership is enforced in SQL.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead marks every unread notification for the user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// UnreadCount returns the badge count for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// NotifyUsers enqueues a notification for specific users.
func (s *NotificationService) NotifyUsers(title, body string, userIDs ...string) {
	if len(userIDs) == 0 {
		return
	}
	s.enqueue(fanoutPayload{Title: title, Body: body, UserIDs: userIDs})
}

// NotifyRoles enqueues a notification for every active user in the roles.
func (s *NotificationService) NotifyRoles(title, body string, roles ...models.UserRole) {
	if len(roles) == 0 {
		return
	}
	s.enqueue(fanoutPayload{Title: title, Body: body, Roles: roles})
}

func (s *NotificationService) enqueue(payload fanoutPayload) {
	err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeFanout,
		Payload: payload,
	})
	if err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("title", payload.Title), zap.Error(err))
	}
}

func (s *NotificationService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(fanoutPayload)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	userIDs := payload.UserIDs
	if len(payload.Roles) > 0 {
		ids, err := s.repo.ListUserIDsByRoles(ctx, payload.Roles...)
		if err != nil {
			s.recordJob(false)
			return err
		}
		userIDs = append(userIDs, ids...)
	}

	seen := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		n := &models.Notification{
			ID:     uuid.NewString(),
			UserID: userID,
			Title:  payload.Title,
			Body:   payload.Body,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			s.recordJob(false)
			return err
		}
	}
	s.recordJob(true)
	return nil
}

func (s *NotificationService) recordJob(success bool) {
	if s.metrics != nil {
		s.metrics.RecordJob(jobTypeFanout, success)
	}
}
