package homework

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"tutorslot/internal/api"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupRouter(svc Service, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	api.RegisterValidators()

	h := NewHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", userID); c.Next() })
	r.GET("/homework", h.ListMine)
	r.POST("/homework/:assignmentID/submissions", h.Submit)
	r.POST("/tutor/homework", h.Assign)
	r.GET("/tutor/homework", h.ListAssigned)
	r.GET("/tutor/homework/:assignmentID/submissions", h.ListSubmissions)
	r.POST("/tutor/submissions/:submissionID/grade", h.Grade)
	return r
}

func TestHandler_Assign_Validation(t *testing.T) {
	router := setupRouter(newTestService(new(MockRepository), &recordingNotifier{}), 4)

	for _, body := range []string{
		`{}`,
		`{"student_id":7}`,
		`{"student_id":7,"title":"x","file_url":"not a url"}`,
		`{"student_id":7,"title":"x","due_at":"tomorrow"}`,
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tutor/homework", bytes.NewBufferString(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestHandler_Assign(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateAssignment", mock.Anything, mock.Anything).Return(&Assignment{ID: 1, TutorID: 4, StudentID: 7, Title: "Fractions"}, nil)
	router := setupRouter(newTestService(repo, &recordingNotifier{}), 4)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tutor/homework",
		bytes.NewBufferString(`{"student_id":7,"title":"Fractions","due_at":"2025-03-12T18:00:00Z"}`)))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Fractions"`)
}

func TestHandler_Submit(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetAssignment", mock.Anything, 1).Return(&Assignment{ID: 1, TutorID: 4, StudentID: 7}, nil)
	router := setupRouter(newTestService(repo, &recordingNotifier{}), 8)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/homework/1/submissions", bytes.NewBufferString(`{"content":"done"}`)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/homework/abc/submissions", bytes.NewBufferString(`{"content":"done"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ListMine(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListByStudent", mock.Anything, 7).Return([]Assignment{}, nil)
	router := setupRouter(newTestService(repo, &recordingNotifier{}), 7)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/homework", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
