package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("bad date: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("booking: %w", ErrNotFound), http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("slot taken: %w", ErrConflict), http.StatusConflict},
		{fmt.Errorf("stripe: %w", ErrUpstream), http.StatusInternalServerError},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestRespondError_HidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/boom", func(c *gin.Context) { RespondError(c, assert.AnError) })
	router.GET("/missing", func(c *gin.Context) { RespondError(c, fmt.Errorf("tutor not found: %w", ErrNotFound)) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal error")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "tutor not found")
}

func TestRespondError_HidesUpstreamDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/pay", func(c *gin.Context) {
		RespondError(c, fmt.Errorf("paypal verify webhook: %w: %w", ErrUpstream, fmt.Errorf("dial tcp: secret-host refused")))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pay", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}

type slotRequest struct {
	Date     string `json:"date" validate:"required,date" binding:"required,date"`
	Start    string `json:"start" validate:"required,clock" binding:"required,clock"`
	Duration int    `json:"duration" validate:"gte=15,lte=240" binding:"gte=15,lte=240"`
}

func TestValidateStruct(t *testing.T) {
	errs := ValidateStruct(slotRequest{Date: "2025-13", Start: "25:00", Duration: 5})
	require.Len(t, errs, 3)

	tags := map[string]string{}
	for _, e := range errs {
		tags[e.Field] = e.Tag
	}
	assert.Equal(t, "date", tags["Date"])
	assert.Equal(t, "clock", tags["Start"])
	assert.Equal(t, "gte", tags["Duration"])

	assert.Empty(t, ValidateStruct(slotRequest{Date: "2025-03-10", Start: "09:30", Duration: 60}))
	assert.Empty(t, ValidateStruct(slotRequest{Date: "2025-03-10", Start: "09:30:00", Duration: 60}))
}

func TestBindJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	router := gin.New()
	router.POST("/", func(c *gin.Context) {
		var req slotRequest
		if !BindJSON(c, &req) {
			return
		}
		c.JSON(http.StatusOK, req)
	})

	body, _ := json.Marshal(map[string]interface{}{"date": "2025-03-10", "start": "9am", "duration": 60})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
	assert.Contains(t, w.Body.String(), "Start")

	body, _ = json.Marshal(map[string]interface{}{"date": "2025-03-10", "start": "09:00", "duration": 60})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body)))
	assert.Equal(t, http.StatusOK, w.Code)
}
