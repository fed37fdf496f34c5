package triplog

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	domainTripLog "rx-logistics/internal/domain/triplog"
	tripLogMocks "rx-logistics/internal/domain/triplog/mocks"
	domainUser "rx-logistics/internal/domain/user"
	userMocks "rx-logistics/internal/domain/user/mocks"
	"rx-logistics/internal/render"
	"rx-logistics/internal/usecase/triplog/mocks"
	appErrors "rx-logistics/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var t0 = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *tripLogMocks.MockRepository
	users    *userMocks.MockRepository
	photos   *mocks.MockPhotoStore
	notifier *mocks.MockNotifier
	svc      *Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		repo:     tripLogMocks.NewMockRepository(ctrl),
		users:    userMocks.NewMockRepository(ctrl),
		photos:   mocks.NewMockPhotoStore(ctrl),
		notifier: mocks.NewMockNotifier(ctrl),
		now:      t0,
	}
	f.svc = NewService(f.repo, f.users, f.photos, f.notifier, render.New("RX", time.UTC), Config{
		BaseURL: "https://rx.example.com/",
	})
	f.svc.now = func() time.Time { return f.now }
	f.svc.newToken = func() string { return "tok-1" }
	return f
}

func driverViewer() domainUser.Viewer {
	return domainUser.Viewer{ID: uuid.New(), Role: domainUser.RoleDriver}
}

func preTripRequest() *TripLogRequest {
	answers := make(map[domainTripLog.QuestionID]domainTripLog.Answer)
	for _, q := range domainTripLog.QuestionsFor(domainTripLog.PreTrip) {
		if q.Damage {
			answers[q.ID] = domainTripLog.AnswerNo
		} else {
			answers[q.ID] = domainTripLog.AnswerYes
		}
	}
	psi := decimal.NewFromInt(35)
	odometer := decimal.RequireFromString("10450.5")
	return &TripLogRequest{
		TripType: string(domainTripLog.PreTrip),
		RouteID:  "001",
		Odometer: &odometer,
		Answers:  answers,
		TirePressures: &domainTripLog.TirePressureSet{
			DriverFront: &psi, PassengerFront: &psi, DriverRear: &psi, PassengerRear: &psi,
		},
	}
}

func allPhotos() Photos {
	photos := make(Photos)
	for _, slot := range domainTripLog.PhotoSlots() {
		photos[slot] = &domainTripLog.Photo{
			Slot:        slot,
			Filename:    string(slot) + ".jpg",
			ContentType: "image/jpeg",
			Body:        strings.NewReader("jpeg"),
		}
	}
	return photos
}

func storedLog(owner uuid.UUID) *domainTripLog.TripLog {
	req := preTripRequest()
	return &domainTripLog.TripLog{
		ID:         1,
		UserID:     owner,
		DriverName: "Jane Doe",
		RouteID:    req.RouteID,
		Odometer:   *req.Odometer,
		TripType:   domainTripLog.PreTrip,
		Checklist:  req.checklist(),
		Images:     domainTripLog.Images{Front: "f", Back: "b", Trunk: "t"},
		CreatedAt:  t0,
		UpdatedAt:  t0,
	}
}

func requireCode(t *testing.T, err error, code string) *appErrors.AppError {
	t.Helper()
	var appErr *appErrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestSubmit_FlaggedAnswerNeedsComment(t *testing.T) {
	f := newFixture(t)
	req := preTripRequest()
	req.Answers[domainTripLog.QVisibleDamage] = domainTripLog.AnswerYes

	_, err := f.svc.Submit(context.Background(), driverViewer(), req, allPhotos())

	appErr := requireCode(t, err, appErrors.CodeValidation)
	assert.Contains(t, appErr.Fields, "comments.visible_damage")
}

func TestSubmit_Success(t *testing.T) {
	f := newFixture(t)
	viewer := driverViewer()
	req := preTripRequest()
	req.Answers[domainTripLog.QVisibleDamage] = domainTripLog.AnswerYes
	req.Comments = map[domainTripLog.QuestionID]string{
		domainTripLog.QVisibleDamage: "dent on rear door",
		domainTripLog.QHorn:          "not flagged, dropped",
	}

	f.users.EXPECT().GetByID(gomock.Any(), viewer.ID).
		Return(&domainUser.User{ID: viewer.ID, FirstName: "Jane", LastName: "Doe"}, nil)
	f.photos.EXPECT().Upload(gomock.Any(), viewer.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, p *domainTripLog.Photo) (string, error) {
			return "https://cdn.example.com/" + string(p.Slot) + ".jpg", nil
		}).Times(3)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, l *domainTripLog.TripLog) error {
			assert.Equal(t, 0, l.EditCount)
			assert.Equal(t, "Jane Doe", l.DriverName)
			assert.Equal(t, t0, l.CreatedAt)
			assert.Equal(t, "https://cdn.example.com/trunk.jpg", l.Images.Trunk)
			assert.NotContains(t, l.Checklist.Comments, domainTripLog.QHorn)
			l.ID = 9
			return nil
		})
	f.repo.EXPECT().SetShareToken(gomock.Any(), int64(9), "tok-1").Return(true, nil)
	f.notifier.EXPECT().TripLogSubmitted(gomock.Any(), gomock.Any(), "https://rx.example.com/share/tok-1").
		Do(func(_ context.Context, l *domainTripLog.TripLog, _ string) {
			assert.Equal(t, int64(9), l.ID)
			assert.NotNil(t, l.ShareToken)
		})

	resp, err := f.svc.Submit(context.Background(), viewer, req, allPhotos())
	f.svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, int64(9), resp.ID)
	assert.Equal(t, 0, resp.EditCount)
	assert.True(t, resp.HasIssues)
	assert.Equal(t, domainTripLog.StatusIssue, resp.Statuses[domainTripLog.QVisibleDamage])
	assert.True(t, resp.CanModify)
	require.NotNil(t, resp.EditableUntil)
	assert.Equal(t, t0.Add(15*time.Minute), *resp.EditableUntil)
}

func TestSubmit_RequiresAllPhotos(t *testing.T) {
	f := newFixture(t)
	photos := allPhotos()
	delete(photos, domainTripLog.SlotTrunk)

	_, err := f.svc.Submit(context.Background(), driverViewer(), preTripRequest(), photos)

	appErr := requireCode(t, err, appErrors.CodeValidation)
	assert.Contains(t, appErr.Fields, "images.trunk")
}

func TestSubmit_PreTripNeedsTires(t *testing.T) {
	f := newFixture(t)
	req := preTripRequest()
	req.TirePressures = nil
	negative := decimal.NewFromInt(-5)
	req.Odometer = &negative

	_, err := f.svc.Submit(context.Background(), driverViewer(), req, allPhotos())

	appErr := requireCode(t, err, appErrors.CodeValidation)
	assert.Contains(t, appErr.Fields, "tire_pressures")
	assert.Contains(t, appErr.Fields, "odometer")
}

func TestSubmit_RejectsMissingReadings(t *testing.T) {
	tests := []struct {
		name    string
		tires   string
		drop    string
		missing []string
	}{
		{
			name:    "partial tire set",
			tires:   `{"driver_front":"35"}`,
			missing: []string{"tire_pressures.passenger_front", "tire_pressures.driver_rear", "tire_pressures.passenger_rear"},
		},
		{
			name:    "empty tire set",
			tires:   `{}`,
			missing: []string{"tire_pressures.driver_front", "tire_pressures.passenger_front", "tire_pressures.driver_rear", "tire_pressures.passenger_rear"},
		},
		{
			name:    "no odometer",
			drop:    "odometer",
			missing: []string{"odometer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			body, err := json.Marshal(preTripRequest())
			require.NoError(t, err)
			var raw map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(body, &raw))
			if tt.tires != "" {
				raw["tire_pressures"] = json.RawMessage(tt.tires)
			}
			if tt.drop != "" {
				delete(raw, tt.drop)
			}
			body, err = json.Marshal(raw)
			require.NoError(t, err)

			var req TripLogRequest
			require.NoError(t, json.Unmarshal(body, &req))

			_, err = f.svc.Submit(context.Background(), driverViewer(), &req, allPhotos())

			appErr := requireCode(t, err, appErrors.CodeValidation)
			for _, field := range tt.missing {
				assert.Equal(t, "is required", appErr.Fields[field], field)
			}
			assert.Len(t, appErr.Fields, len(tt.missing))
		})
	}
}

func TestSubmit_UploadFailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	viewer := driverViewer()

	f.users.EXPECT().GetByID(gomock.Any(), viewer.ID).Return(&domainUser.User{ID: viewer.ID, FirstName: "Jane"}, nil)
	f.photos.EXPECT().Upload(gomock.Any(), viewer.ID, gomock.Any()).Return("", errors.New("bucket unavailable"))

	_, err := f.svc.Submit(context.Background(), viewer, preTripRequest(), allPhotos())

	appErr := requireCode(t, err, appErrors.CodeStorage)
	assert.Contains(t, appErr.Error(), "bucket unavailable")
}

func TestSubmit_DatabaseFailureSkipsNotification(t *testing.T) {
	f := newFixture(t)
	viewer := driverViewer()

	f.users.EXPECT().GetByID(gomock.Any(), viewer.ID).Return(&domainUser.User{ID: viewer.ID, FirstName: "Jane"}, nil)
	f.photos.EXPECT().Upload(gomock.Any(), viewer.ID, gomock.Any()).Return("u", nil).Times(3)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	_, err := f.svc.Submit(context.Background(), viewer, preTripRequest(), allPhotos())
	f.svc.Wait()

	requireCode(t, err, appErrors.CodeDatabase)
}

func TestSubmit_ManagementCannotSubmit(t *testing.T) {
	f := newFixture(t)
	viewer := domainUser.Viewer{ID: uuid.New(), Role: domainUser.RoleManagement}

	_, err := f.svc.Submit(context.Background(), viewer, preTripRequest(), allPhotos())

	requireCode(t, err, appErrors.CodeForbidden)
}

func TestSubmit_NotificationWithoutShareLink(t *testing.T) {
	f := newFixture(t)
	viewer := driverViewer()

	f.users.EXPECT().GetByID(gomock.Any(), viewer.ID).Return(&domainUser.User{ID: viewer.ID, FirstName: "Jane"}, nil)
	f.photos.EXPECT().Upload(gomock.Any(), viewer.ID, gomock.Any()).Return("u", nil).Times(3)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	f.repo.EXPECT().SetShareToken(gomock.Any(), gomock.Any(), "tok-1").Return(false, errors.New("timeout"))
	f.notifier.EXPECT().TripLogSubmitted(gomock.Any(), gomock.Any(), "")

	_, err := f.svc.Submit(context.Background(), viewer, preTripRequest(), allPhotos())
	f.svc.Wait()

	require.NoError(t, err)
}

func TestEdit_WithinFirstWindow(t *testing.T) {
	f := newFixture(t)
	viewer := driverViewer()
	f.now = t0.Add(4 * time.Minute)

	req := preTripRequest()
	req.Notes = "updated"

	f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(storedLog(viewer.ID), nil)
	f.repo.EXPECT().ApplyEdit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, l *domainTripLog.TripLog) error {
			assert.Equal(t, f.now, l.UpdatedAt)
			assert.Equal(t, t0, l.CreatedAt)
			assert.Equal(t, "updated", l.Notes)
			assert.Equal(t, "f", l.Images.Front, "omitted photos keep their URL")
			l.EditCount++
			return nil
		})

	resp, err := f.svc.Edit(context.Background(), viewer, 1, req, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, resp.EditCount)
	assert.Equal(t, f.now, resp.UpdatedAt)
	require.NotNil(t, resp.EditableUntil)
	assert.Equal(t, f.now.Add(5*time.Minute), *resp.EditableUntil)
}

func TestEdit_ReplacesSinglePhoto(t *testing.T) {
	f := newFixture(t)
	viewer := driverViewer()
	f.now = t0.Add(time.Minute)

	photos := Photos{domainTripLog.SlotBack: allPhotos()[domainTripLog.SlotBack]}

	f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(storedLog(viewer.ID), nil)
	f.photos.EXPECT().Upload(gomock.Any(), viewer.ID, photos[domainTripLog.SlotBack]).Return("b2", nil)
	f.repo.EXPECT().ApplyEdit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, l *domainTripLog.TripLog) error {
			assert.Equal(t, domainTripLog.Images{Front: "f", Back: "b2", Trunk: "t"}, l.Images)
			l.EditCount++
			return nil
		})

	_, err := f.svc.Edit(context.Background(), viewer, 1, preTripRequest(), photos)
	require.NoError(t, err)
}

func TestEdit_ConcurrentEditConflicts(t *testing.T) {
	f := newFixture(t)
	viewer := driverViewer()

	log := storedLog(viewer.ID)
	log.EditCount = 1
	log.UpdatedAt = t0.Add(4 * time.Minute)
	f.now = log.UpdatedAt.Add(time.Minute)

	f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(log, nil)
	f.repo.EXPECT().ApplyEdit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, l *domainTripLog.TripLog) error {
			assert.Equal(t, 1, l.EditCount, "the edit is conditioned on the count that was read")
			return domainTripLog.ErrEditConflict
		})

	_, err := f.svc.Edit(context.Background(), viewer, 1, preTripRequest(), nil)

	requireCode(t, err, appErrors.CodeConflict)
}

func TestEdit_SecondWindowExpired(t *testing.T) {
	f := newFixture(t)
	viewer := driverViewer()

	log := storedLog(viewer.ID)
	log.EditCount = 1
	log.UpdatedAt = t0.Add(4 * time.Minute)
	f.now = log.UpdatedAt.Add(6 * time.Minute)

	f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(log, nil)

	_, err := f.svc.Edit(context.Background(), viewer, 1, preTripRequest(), nil)

	requireCode(t, err, appErrors.CodeForbidden)
}

func TestEdit_OtherDriversRecord(t *testing.T) {
	f := newFixture(t)
	f.now = t0.Add(time.Minute)

	f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(storedLog(uuid.New()), nil)

	_, err := f.svc.Edit(context.Background(), driverViewer(), 1, preTripRequest(), nil)

	requireCode(t, err, appErrors.CodeForbidden)
}

func TestEdit_NotFound(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().GetByID(gomock.Any(), int64(404)).Return(nil, domainTripLog.ErrTripLogNotFound)

	_, err := f.svc.Edit(context.Background(), driverViewer(), 404, preTripRequest(), nil)

	requireCode(t, err, appErrors.CodeNotFound)
}

func TestDelete_ManagementAlwaysRejected(t *testing.T) {
	f := newFixture(t)
	mgmt := domainUser.Viewer{ID: uuid.New(), Role: domainUser.RoleManagement}

	log := storedLog(mgmt.ID)
	f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(log, nil)

	err := f.svc.Delete(context.Background(), mgmt, 1)

	requireCode(t, err, appErrors.CodeForbidden)
}

func TestDelete_AdminAnyTime(t *testing.T) {
	f := newFixture(t)
	admin := domainUser.Viewer{ID: uuid.New(), Role: domainUser.RoleAdmin}
	f.now = t0.AddDate(1, 0, 0)

	log := storedLog(uuid.New())
	log.EditCount = 5
	f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(log, nil)
	f.repo.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)

	require.NoError(t, f.svc.Delete(context.Background(), admin, 1))
}

func TestGet_DriverCannotSeeOthers(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(storedLog(uuid.New()), nil)

	_, err := f.svc.Get(context.Background(), driverViewer(), 1)

	requireCode(t, err, appErrors.CodeForbidden)
}

func TestGenerateShareToken_Idempotent(t *testing.T) {
	f := newFixture(t)
	viewer := driverViewer()
	log := storedLog(viewer.ID)

	f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(log, nil)
	f.repo.EXPECT().SetShareToken(gomock.Any(), int64(1), "tok-1").Return(true, nil).Times(1)

	first, err := f.svc.GenerateShareToken(context.Background(), viewer, 1)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", first.Token)
	assert.Equal(t, "https://rx.example.com/share/tok-1", first.URL)

	stored := storedLog(viewer.ID)
	stored.ShareToken = &first.Token
	f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(stored, nil)

	second, err := f.svc.GenerateShareToken(context.Background(), viewer, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateShareToken_LostRace(t *testing.T) {
	f := newFixture(t)
	admin := domainUser.Viewer{ID: uuid.New(), Role: domainUser.RoleAdmin}

	winner := "tok-winner"
	current := storedLog(uuid.New())
	current.ShareToken = &winner

	gomock.InOrder(
		f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(storedLog(uuid.New()), nil),
		f.repo.EXPECT().SetShareToken(gomock.Any(), int64(1), "tok-1").Return(false, nil),
		f.repo.EXPECT().GetByID(gomock.Any(), int64(1)).Return(current, nil),
	)

	resp, err := f.svc.GenerateShareToken(context.Background(), admin, 1)

	require.NoError(t, err)
	assert.Equal(t, winner, resp.Token)
}

func TestGetShared_UnknownToken(t *testing.T) {
	f := newFixture(t)

	f.repo.EXPECT().GetByShareToken(gomock.Any(), "nope").Return(nil, domainTripLog.ErrTripLogNotFound)

	_, err := f.svc.SharedHTML(context.Background(), "nope")

	requireCode(t, err, appErrors.CodeNotFound)
}

func TestSharedHTML(t *testing.T) {
	f := newFixture(t)
	log := storedLog(uuid.New())

	f.repo.EXPECT().GetByShareToken(gomock.Any(), "tok").Return(log, nil)

	body, err := f.svc.SharedHTML(context.Background(), "tok")

	require.NoError(t, err)
	assert.Contains(t, string(body), `href="/share/tok/print"`)
	assert.Contains(t, string(body), "Jane Doe")
}

func TestList_DriverScopedToOwnRecords(t *testing.T) {
	f := newFixture(t)
	viewer := driverViewer()

	f.repo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter *domainTripLog.Filter) ([]*domainTripLog.TripLog, int64, error) {
			require.NotNil(t, filter.UserID)
			assert.Equal(t, viewer.ID, *filter.UserID)
			require.NotNil(t, filter.HasIssues)
			assert.True(t, *filter.HasIssues)
			require.NotNil(t, filter.CreatedBefore)
			assert.Equal(t, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), *filter.CreatedBefore)
			return []*domainTripLog.TripLog{storedLog(viewer.ID)}, 21, nil
		})

	resp, err := f.svc.List(context.Background(), viewer, &ListRequest{IssuesOnly: true, To: "2024-06-03"})

	require.NoError(t, err)
	assert.Len(t, resp.Items, 1)
	assert.Equal(t, int64(21), resp.Total)
	assert.Equal(t, 2, resp.TotalPages)
}

func TestList_ManagementSeesAll(t *testing.T) {
	f := newFixture(t)
	mgmt := domainUser.Viewer{ID: uuid.New(), Role: domainUser.RoleManagement}

	f.repo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter *domainTripLog.Filter) ([]*domainTripLog.TripLog, int64, error) {
			assert.Nil(t, filter.UserID)
			require.NotNil(t, filter.TripType)
			assert.Equal(t, domainTripLog.PostTrip, *filter.TripType)
			return nil, 0, nil
		})

	resp, err := f.svc.List(context.Background(), mgmt, &ListRequest{TripType: "Post-Trip"})

	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestList_InvalidFilter(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(context.Background(), driverViewer(), &ListRequest{TripType: "Mid-Trip"})

	appErr := requireCode(t, err, appErrors.CodeValidation)
	assert.Contains(t, appErr.Fields, "trip_type")
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	mgmt := domainUser.Viewer{ID: uuid.New(), Role: domainUser.RoleManagement}

	f.repo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter *domainTripLog.Filter) ([]*domainTripLog.TripLog, int64, error) {
			assert.True(t, filter.Unpaged)
			return []*domainTripLog.TripLog{storedLog(uuid.New())}, 1, nil
		})

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(context.Background(), mgmt, &ListRequest{}, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ID", records[0][0])
	assert.Equal(t, "1", records[1][0])
}

func TestExportCSV_DriverForbidden(t *testing.T) {
	f := newFixture(t)

	err := f.svc.ExportCSV(context.Background(), driverViewer(), &ListRequest{}, &bytes.Buffer{})

	requireCode(t, err, appErrors.CodeForbidden)
}

func TestQuestions(t *testing.T) {
	f := newFixture(t)

	qs, err := f.svc.Questions("Post-Trip")
	require.NoError(t, err)
	assert.Len(t, qs, 5)

	_, err = f.svc.Questions("bogus")
	requireCode(t, err, appErrors.CodeValidation)
}

func TestToday_UsesDisplayTimezone(t *testing.T) {
	f := newFixture(t)
	f.svc.renderer = render.New("RX", time.FixedZone("EDT", -4*3600))
	f.now = time.Date(2024, 6, 4, 2, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-06-03", f.svc.Today())
}
