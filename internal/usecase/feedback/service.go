package feedback

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	domainFeedback "rx-logistics/internal/domain/feedback"
	domainUser "rx-logistics/internal/domain/user"
	"rx-logistics/internal/logger"
	appErrors "rx-logistics/pkg/errors"
	"rx-logistics/pkg/utils"

	"go.uber.org/zap"
)

// Notifier tells the feedback recipients about a new message.
type Notifier interface {
	FeedbackReceived(ctx context.Context, fb *domainFeedback.Feedback, inboxURL string)
}

type Config struct {
	// AllowedDomain restricts who may leave feedback, e.g. symbria.com.
	AllowedDomain string
	BaseURL       string
	NotifyTimeout time.Duration
}

// Service implements feedback inbox use cases
type Service struct {
	repo     domainFeedback.Repository
	notifier Notifier
	cfg      Config
	now      func() time.Time

	notifications sync.WaitGroup
}

func NewService(repo domainFeedback.Repository, notifier Notifier, cfg Config) *Service {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.AllowedDomain = strings.TrimPrefix(strings.TrimSpace(cfg.AllowedDomain), "@")

	return &Service{
		repo:     repo,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *Service) Subjects() []string {
	subjects := domainFeedback.Subjects()
	out := make([]string, len(subjects))
	for i, subject := range subjects {
		out[i] = string(subject)
	}
	return out
}

func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*FeedbackResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)

	fields := make(map[string]string)
	if err := utils.ValidateStruct(req); err != nil {
		for k, v := range utils.FieldErrors(err) {
			fields[k] = v
		}
	}
	if _, bad := fields["email"]; !bad && !utils.HasEmailDomain(req.Email, s.cfg.AllowedDomain) {
		fields["email"] = "must be a @" + s.cfg.AllowedDomain + " address"
	}
	subject := domainFeedback.Subject(strings.TrimSpace(req.Subject))
	if _, bad := fields["subject"]; !bad && !subject.IsValid() {
		fields["subject"] = "must be one of: " + strings.Join(s.Subjects(), ", ")
	}
	if len(fields) > 0 {
		return nil, appErrors.NewValidationError("Invalid feedback", fields)
	}

	fb := &domainFeedback.Feedback{
		Name:      utils.SanitizeString(req.Name),
		Email:     req.Email,
		Subject:   subject,
		Message:   utils.SanitizeText(req.Message),
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to save feedback", err)
	}

	logger.Info("Feedback received",
		zap.String("feedback_id", fb.ID.String()),
		zap.String("subject", string(fb.Subject)),
		zap.String("event", "feedback_received"),
	)

	s.notify(fb)

	return toResponse(fb), nil
}

func (s *Service) List(ctx context.Context, viewer domainUser.Viewer, req *ListRequest) (*ListResponse, error) {
	if !viewer.IsAdmin() {
		return nil, appErrors.Forbidden()
	}
	if req == nil {
		req = &ListRequest{}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid filter", utils.FieldErrors(err))
	}

	filter := &domainFeedback.Filter{UnreadOnly: req.UnreadOnly, Page: req.Page, PageSize: req.PageSize}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to list feedback", err)
	}

	out := make([]*FeedbackResponse, len(items))
	for i, fb := range items {
		out[i] = toResponse(fb)
	}

	return &ListResponse{
		Items:      out,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: utils.TotalPages(total, filter.PageSize),
	}, nil
}

func (s *Service) MarkRead(ctx context.Context, viewer domainUser.Viewer, req *MarkReadRequest) (*BulkResponse, error) {
	if !viewer.IsAdmin() {
		return nil, appErrors.Forbidden()
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid selection", utils.FieldErrors(err))
	}

	affected, err := s.repo.SetRead(ctx, req.IDs, *req.Read)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to update feedback", err)
	}

	logger.Info("Feedback marked",
		zap.String("admin_id", viewer.ID.String()),
		zap.Bool("read", *req.Read),
		zap.Int64("affected", affected),
		zap.String("event", "feedback_marked"),
	)
	return &BulkResponse{Affected: affected}, nil
}

func (s *Service) Delete(ctx context.Context, viewer domainUser.Viewer, req *SelectionRequest) (*BulkResponse, error) {
	if !viewer.IsAdmin() {
		return nil, appErrors.Forbidden()
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid selection", utils.FieldErrors(err))
	}

	affected, err := s.repo.Delete(ctx, req.IDs)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to delete feedback", err)
	}

	logger.Info("Feedback deleted",
		zap.String("admin_id", viewer.ID.String()),
		zap.Int64("affected", affected),
		zap.String("event", "feedback_deleted"),
	)
	return &BulkResponse{Affected: affected}, nil
}

// Wait blocks until in-flight notifications have finished.
func (s *Service) Wait() {
	s.notifications.Wait()
}

func (s *Service) notify(fb *domainFeedback.Feedback) {
	if s.notifier == nil {
		return
	}

	snapshot := *fb
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotifyTimeout)
		defer cancel()

		s.notifier.FeedbackReceived(ctx, &snapshot, s.cfg.BaseURL+"/admin/feedback")
	}()
}
