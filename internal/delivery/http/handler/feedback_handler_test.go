package handler

import (
	"context"
	"net/http"
	"testing"

	domainFeedback "rx-logistics/internal/domain/feedback"
	feedbackMocks "rx-logistics/internal/domain/feedback/mocks"
	domainUser "rx-logistics/internal/domain/user"
	"rx-logistics/internal/middleware"
	"rx-logistics/internal/usecase/feedback"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newFeedbackRouter(t *testing.T, v domainUser.Viewer) (*gin.Engine, *feedbackMocks.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := feedbackMocks.NewMockRepository(ctrl)
	h := NewFeedbackHandler(feedback.NewService(repo, nil, feedback.Config{AllowedDomain: "symbria.com"}))

	r := gin.New()
	api := r.Group("/api/v1")
	h.RegisterRoutes(api)

	admin := api.Group("/admin")
	admin.Use(as(v), middleware.AdminOnly())
	h.RegisterAdminRoutes(admin)
	return r, repo
}

func TestFeedbackHandler_Submit(t *testing.T) {
	r, repo := newFeedbackRouter(t, adminViewer)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, fb *domainFeedback.Feedback) error {
			fb.ID = uuid.New()
			return nil
		})

	w := performJSON(t, r, http.MethodPost, "/api/v1/feedback", map[string]string{
		"name":    "Pat Lee",
		"email":   "pat@symbria.com",
		"subject": "Feature Request",
		"message": "Dark mode please",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp feedback.FeedbackResponse
	decodeData(t, w, &resp)
	assert.Equal(t, "Feature Request", resp.Subject)
}

func TestFeedbackHandler_SubmitOutsideDomain(t *testing.T) {
	r, _ := newFeedbackRouter(t, adminViewer)

	w := performJSON(t, r, http.MethodPost, "/api/v1/feedback", map[string]string{
		"name":    "Pat Lee",
		"email":   "pat@gmail.com",
		"subject": "Other",
		"message": "hello",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be a @symbria.com address", decode(t, w).Fields["email"])
}

func TestFeedbackHandler_Subjects(t *testing.T) {
	r, _ := newFeedbackRouter(t, adminViewer)

	w := perform(r, http.MethodGet, "/api/v1/feedback/subjects", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	var subjects []string
	decodeData(t, w, &subjects)
	assert.Len(t, subjects, 4)
}

func TestFeedbackHandler_AdminInbox(t *testing.T) {
	r, repo := newFeedbackRouter(t, adminViewer)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	repo.EXPECT().List(gomock.Any(), &domainFeedback.Filter{UnreadOnly: true, Page: 1, PageSize: 50}).
		Return([]*domainFeedback.Feedback{{ID: ids[0], Subject: domainFeedback.SubjectBug}}, int64(1), nil)
	repo.EXPECT().SetRead(gomock.Any(), ids, true).Return(int64(2), nil)
	repo.EXPECT().Delete(gomock.Any(), ids).Return(int64(2), nil)

	w := perform(r, http.MethodGet, "/api/v1/admin/feedback?unread_only=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list feedback.ListResponse
	decodeData(t, w, &list)
	assert.Len(t, list.Items, 1)

	w = performJSON(t, r, http.MethodPost, "/api/v1/admin/feedback/read", map[string]interface{}{"ids": ids, "read": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var marked feedback.BulkResponse
	decodeData(t, w, &marked)
	assert.Equal(t, int64(2), marked.Affected)

	w = performJSON(t, r, http.MethodDelete, "/api/v1/admin/feedback", map[string]interface{}{"ids": ids})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestFeedbackHandler_InboxRequiresAdmin(t *testing.T) {
	r, _ := newFeedbackRouter(t, driverViewer)

	w := perform(r, http.MethodGet, "/api/v1/admin/feedback", nil, "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}
