package triplog

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	domainTripLog "rx-logistics/internal/domain/triplog"
	domainUser "rx-logistics/internal/domain/user"
	"rx-logistics/internal/logger"
	"rx-logistics/internal/render"
	appErrors "rx-logistics/pkg/errors"
	"rx-logistics/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PhotoStore uploads an inspection photo and returns its public URL.
type PhotoStore interface {
	Upload(ctx context.Context, userID uuid.UUID, photo *domainTripLog.Photo) (string, error)
}

// Notifier is told about new submissions. It must not block for long and
// reports nothing back.
type Notifier interface {
	TripLogSubmitted(ctx context.Context, log *domainTripLog.TripLog, shareURL string)
}

type Config struct {
	// BaseURL prefixes share links, e.g. https://rx.example.com
	BaseURL       string
	NotifyTimeout time.Duration
}

const defaultNotifyTimeout = 30 * time.Second

// Service implements trip log use cases
type Service struct {
	repo     domainTripLog.Repository
	userRepo domainUser.Repository
	photos   PhotoStore
	notifier Notifier
	renderer *render.Renderer
	cfg      Config

	now      func() time.Time
	newToken func() string

	notifications sync.WaitGroup
}

// NewService creates a new trip log service
func NewService(
	repo domainTripLog.Repository,
	userRepo domainUser.Repository,
	photos PhotoStore,
	notifier Notifier,
	renderer *render.Renderer,
	cfg Config,
) *Service {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Service{
		repo:     repo,
		userRepo: userRepo,
		photos:   photos,
		notifier: notifier,
		renderer: renderer,
		cfg:      cfg,
		now:      time.Now,
		newToken: func() string { return uuid.NewString() },
	}
}

func (s *Service) Questions(tripType string) ([]QuestionResponse, error) {
	t := domainTripLog.TripType(tripType)
	if !t.IsValid() {
		return nil, appErrors.NewValidationError("Invalid trip type", map[string]string{
			"trip_type": `must be "Pre-Trip" or "Post-Trip"`,
		})
	}

	questions := domainTripLog.QuestionsFor(t)
	out := make([]QuestionResponse, len(questions))
	for i, q := range questions {
		out[i] = QuestionResponse{ID: q.ID, Label: q.Label, Damage: q.Damage}
	}
	return out, nil
}

func (s *Service) Submit(ctx context.Context, viewer domainUser.Viewer, req *TripLogRequest, photos Photos) (*TripLogResponse, error) {
	if !viewer.IsDriver() && !viewer.IsAdmin() {
		return nil, appErrors.Forbidden()
	}

	if err := validateRequest(req, photos, true); err != nil {
		return nil, err
	}

	driver, err := s.userRepo.GetByID(ctx, viewer.ID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeUnauthorized, "User not found", err)
		}
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to load driver profile", err)
	}

	tripType := domainTripLog.TripType(req.TripType)
	log := &domainTripLog.TripLog{
		UserID:     viewer.ID,
		DriverName: driver.FullName(),
		RouteID:    utils.SanitizeString(req.RouteID),
		Odometer:   *req.Odometer,
		TripType:   tripType,
		Checklist:  req.checklist().Normalize(tripType),
		Notes:      utils.SanitizeText(req.Notes),
	}

	if err := s.uploadPhotos(ctx, viewer.ID, photos, &log.Images); err != nil {
		return nil, err
	}

	now := s.now()
	log.CreatedAt = now
	log.UpdatedAt = now

	if err := s.repo.Create(ctx, log); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to save trip log", err)
	}

	logger.Info("Trip log submitted",
		zap.Int64("trip_log_id", log.ID),
		zap.String("user_id", viewer.ID.String()),
		zap.String("trip_type", string(log.TripType)),
		zap.Int("issue_count", log.IssueCount()),
		zap.String("event", "trip_log_submitted"),
	)

	s.notifySubmitted(log)

	return s.toResponse(log, viewer, now), nil
}

func (s *Service) Edit(ctx context.Context, viewer domainUser.Viewer, id int64, req *TripLogRequest, photos Photos) (*TripLogResponse, error) {
	log, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domainTripLog.CanModify(viewer, log, s.now()) {
		logger.Warn("Trip log edit denied",
			zap.Int64("trip_log_id", id),
			zap.String("user_id", viewer.ID.String()),
			zap.Int("edit_count", log.EditCount),
			zap.String("event", "trip_log_edit_denied"),
		)
		return nil, appErrors.Forbidden()
	}

	if err := validateRequest(req, photos, false); err != nil {
		return nil, err
	}

	if err := s.uploadPhotos(ctx, log.UserID, photos, &log.Images); err != nil {
		return nil, err
	}

	tripType := domainTripLog.TripType(req.TripType)
	log.RouteID = utils.SanitizeString(req.RouteID)
	log.Odometer = *req.Odometer
	log.TripType = tripType
	log.Checklist = req.checklist().Normalize(tripType)
	log.Notes = utils.SanitizeText(req.Notes)
	log.UpdatedAt = s.now()

	if err := s.repo.ApplyEdit(ctx, log); err != nil {
		if errors.Is(err, domainTripLog.ErrTripLogNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "Trip log not found", err)
		}
		if errors.Is(err, domainTripLog.ErrEditConflict) {
			logger.Warn("Trip log edit lost a race",
				zap.Int64("trip_log_id", id),
				zap.String("user_id", viewer.ID.String()),
				zap.String("event", "trip_log_edit_conflict"),
			)
			return nil, appErrors.NewAppError(appErrors.CodeConflict, "This trip log was changed by another edit, reload it and try again", err)
		}
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to update trip log", err)
	}

	logger.Info("Trip log edited",
		zap.Int64("trip_log_id", log.ID),
		zap.String("user_id", viewer.ID.String()),
		zap.Int("edit_count", log.EditCount),
		zap.String("event", "trip_log_edited"),
	)

	return s.toResponse(log, viewer, log.UpdatedAt), nil
}

func (s *Service) Delete(ctx context.Context, viewer domainUser.Viewer, id int64) error {
	log, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if !domainTripLog.CanModify(viewer, log, s.now()) {
		logger.Warn("Trip log delete denied",
			zap.Int64("trip_log_id", id),
			zap.String("user_id", viewer.ID.String()),
			zap.String("event", "trip_log_delete_denied"),
		)
		return appErrors.Forbidden()
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domainTripLog.ErrTripLogNotFound) {
			return appErrors.NewAppError(appErrors.CodeNotFound, "Trip log not found", err)
		}
		return appErrors.NewAppError(appErrors.CodeDatabase, "Failed to delete trip log", err)
	}

	logger.Info("Trip log deleted",
		zap.Int64("trip_log_id", id),
		zap.String("user_id", viewer.ID.String()),
		zap.String("event", "trip_log_deleted"),
	)
	return nil
}

func (s *Service) Get(ctx context.Context, viewer domainUser.Viewer, id int64) (*TripLogResponse, error) {
	log, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(log, viewer, s.now()), nil
}

func (s *Service) List(ctx context.Context, viewer domainUser.Viewer, req *ListRequest) (*ListResponse, error) {
	filter, err := s.buildFilter(viewer, req)
	if err != nil {
		return nil, err
	}

	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to list trip logs", err)
	}

	now := s.now()
	items := make([]*TripLogResponse, len(logs))
	for i, l := range logs {
		items[i] = s.toResponse(l, viewer, now)
	}

	return &ListResponse{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: utils.TotalPages(total, filter.PageSize),
	}, nil
}

// ExportCSV writes every log matching req to w, ignoring pagination.
func (s *Service) ExportCSV(ctx context.Context, viewer domainUser.Viewer, req *ListRequest, w io.Writer) error {
	if !viewer.CanViewAll() {
		return appErrors.Forbidden()
	}

	filter, err := s.buildFilter(viewer, req)
	if err != nil {
		return err
	}
	filter.Unpaged = true

	logs, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return appErrors.NewAppError(appErrors.CodeDatabase, "Failed to list trip logs", err)
	}

	if err := s.renderer.WriteCSV(w, logs); err != nil {
		return appErrors.NewAppError(appErrors.CodeInternal, "Failed to write export", err)
	}

	logger.Info("Trip logs exported",
		zap.String("user_id", viewer.ID.String()),
		zap.Int("count", len(logs)),
		zap.String("event", "trip_logs_exported"),
	)
	return nil
}

// GenerateShareToken returns the public link for a log, minting the token on
// first use. Later calls return the same token without writing.
func (s *Service) GenerateShareToken(ctx context.Context, viewer domainUser.Viewer, id int64) (*ShareResponse, error) {
	log, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	token, err := s.mintShareToken(ctx, log)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to create share link", err)
	}

	return &ShareResponse{Token: token, URL: s.shareURL(token)}, nil
}

func (s *Service) GetShared(ctx context.Context, token string) (*domainTripLog.TripLog, error) {
	log, err := s.repo.GetByShareToken(ctx, token)
	if err != nil {
		if errors.Is(err, domainTripLog.ErrTripLogNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "Shared trip log not found", err)
		}
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to load shared trip log", err)
	}
	return log, nil
}

// SharedHTML renders the public page for token.
func (s *Service) SharedHTML(ctx context.Context, token string) ([]byte, error) {
	log, err := s.GetShared(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.renderDocument(s.renderer.ShareHTML(log, "/share/"+token+"/print"))
}

func (s *Service) SharedPrintHTML(ctx context.Context, token string) ([]byte, error) {
	log, err := s.GetShared(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.renderDocument(s.renderer.PrintHTML(log))
}

func (s *Service) PrintHTML(ctx context.Context, viewer domainUser.Viewer, id int64) ([]byte, error) {
	log, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	return s.renderDocument(s.renderer.PrintHTML(log))
}

// Today is the current date in the display timezone, as used in export
// filenames.
func (s *Service) Today() string {
	return s.now().In(s.renderer.Location()).Format("2006-01-02")
}

// Wait blocks until in-flight submission notifications have finished.
func (s *Service) Wait() {
	s.notifications.Wait()
}

func (s *Service) renderDocument(body []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInternal, "Failed to render trip log", err)
	}
	return body, nil
}

func (s *Service) load(ctx context.Context, id int64) (*domainTripLog.TripLog, error) {
	log, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainTripLog.ErrTripLogNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "Trip log not found", err)
		}
		return nil, appErrors.NewAppError(appErrors.CodeDatabase, "Failed to load trip log", err)
	}
	return log, nil
}

func (s *Service) loadVisible(ctx context.Context, viewer domainUser.Viewer, id int64) (*domainTripLog.TripLog, error) {
	log, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domainTripLog.CanView(viewer, log) {
		return nil, appErrors.Forbidden()
	}
	return log, nil
}

func (s *Service) mintShareToken(ctx context.Context, log *domainTripLog.TripLog) (string, error) {
	if log.ShareToken != nil {
		return *log.ShareToken, nil
	}

	token := s.newToken()
	stored, err := s.repo.SetShareToken(ctx, log.ID, token)
	if err != nil {
		return "", err
	}
	if stored {
		logger.Info("Share token created",
			zap.Int64("trip_log_id", log.ID),
			zap.String("event", "share_token_created"),
		)
		return token, nil
	}

	// Another request minted a token first.
	current, err := s.repo.GetByID(ctx, log.ID)
	if err != nil {
		return "", err
	}
	if current.ShareToken == nil {
		return "", fmt.Errorf("share token for trip log %d was not stored", log.ID)
	}
	return *current.ShareToken, nil
}

func (s *Service) shareURL(token string) string {
	return s.cfg.BaseURL + "/share/" + token
}

func (s *Service) notifySubmitted(log *domainTripLog.TripLog) {
	if s.notifier == nil {
		return
	}

	snapshot := *log
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotifyTimeout)
		defer cancel()

		shareURL := ""
		if token, err := s.mintShareToken(ctx, &snapshot); err != nil {
			logger.Warn("Failed to create share link for notification",
				zap.Int64("trip_log_id", snapshot.ID),
				zap.Error(err),
			)
		} else {
			shareURL = s.shareURL(token)
			snapshot.ShareToken = &token
		}

		s.notifier.TripLogSubmitted(ctx, &snapshot, shareURL)
	}()
}

func (s *Service) uploadPhotos(ctx context.Context, userID uuid.UUID, photos Photos, images *domainTripLog.Images) error {
	for _, slot := range domainTripLog.PhotoSlots() {
		photo, ok := photos[slot]
		if !ok || photo == nil {
			continue
		}

		url, err := s.photos.Upload(ctx, userID, photo)
		if err != nil {
			logger.Error("Photo upload failed",
				zap.String("user_id", userID.String()),
				zap.String("slot", string(slot)),
				zap.Error(err),
			)
			return appErrors.NewAppError(appErrors.CodeStorage, fmt.Sprintf("Failed to upload %s photo", strings.ToLower(slot.Label())), err)
		}
		images.Set(slot, url)
	}
	return nil
}

func (s *Service) buildFilter(viewer domainUser.Viewer, req *ListRequest) (*domainTripLog.Filter, error) {
	if req == nil {
		req = &ListRequest{}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError("Invalid filter", utils.FieldErrors(err))
	}

	filter := &domainTripLog.Filter{
		RouteID:    strings.TrimSpace(req.RouteID),
		DriverName: strings.TrimSpace(req.Driver),
		Page:       req.Page,
		PageSize:   req.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	if !viewer.CanViewAll() {
		id := viewer.ID
		filter.UserID = &id
	}
	if req.TripType != "" {
		t := domainTripLog.TripType(req.TripType)
		filter.TripType = &t
	}
	if req.IssuesOnly {
		issues := true
		filter.HasIssues = &issues
	}

	loc := s.renderer.Location()
	if req.From != "" {
		from, err := time.ParseInLocation("2006-01-02", req.From, loc)
		if err != nil {
			return nil, appErrors.NewValidationError("Invalid filter", map[string]string{"from": "must be a date (YYYY-MM-DD)"})
		}
		filter.CreatedAfter = &from
	}
	if req.To != "" {
		to, err := time.ParseInLocation("2006-01-02", req.To, loc)
		if err != nil {
			return nil, appErrors.NewValidationError("Invalid filter", map[string]string{"to": "must be a date (YYYY-MM-DD)"})
		}
		// inclusive of the whole day
		end := to.AddDate(0, 0, 1)
		filter.CreatedBefore = &end
	}

	return filter, nil
}

func (s *Service) toResponse(log *domainTripLog.TripLog, viewer domainUser.Viewer, now time.Time) *TripLogResponse {
	access := domainTripLog.AccessFor(viewer, log, now)

	statuses := make(map[domainTripLog.QuestionID]domainTripLog.Status)
	for _, q := range domainTripLog.QuestionsFor(log.TripType) {
		statuses[q.ID] = log.AnswerStatus(q.ID)
	}

	resp := &TripLogResponse{
		ID:            log.ID,
		UserID:        log.UserID,
		DriverName:    log.DriverName,
		RouteID:       log.RouteID,
		Odometer:      log.Odometer,
		TripType:      log.TripType,
		Checklist:     log.Checklist,
		Statuses:      statuses,
		Images:        log.Images,
		Notes:         log.Notes,
		EditCount:     log.EditCount,
		IssueCount:    log.IssueCount(),
		HasIssues:     log.HasIssues(),
		CanModify:     access.CanModify,
		EditableUntil: access.ModifyUntil,
		CreatedAt:     log.CreatedAt,
		UpdatedAt:     log.UpdatedAt,
	}
	if log.ShareToken != nil {
		url := s.shareURL(*log.ShareToken)
		resp.ShareURL = &url
	}
	return resp
}
