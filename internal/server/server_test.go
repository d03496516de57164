package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tutorslot/internal/auth"
	"tutorslot/internal/booking"
	"tutorslot/internal/config"
	"tutorslot/internal/homework"
	"tutorslot/internal/meeting"
	"tutorslot/internal/payment"
	"tutorslot/internal/tutor"
	"tutorslot/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	to  string
	err error
}

func (m *fakeMailer) Send(_ context.Context, to, _, _, _ string) error {
	m.to = to
	return m.err
}

// Gating is checked before any handler touches its service, so nil
// services are enough here.
func newTestServer(t *testing.T, env string, mailer Mailer) (*Server, *auth.Issuer) {
	issuer, err := auth.NewIssuer("test-secret")
	require.NoError(t, err)

	cfg := &config.Config{Port: "0", Env: env, RateLimitRPS: 100, RateLimitBurst: 100}
	srv := New(cfg, issuer, Handlers{
		Users:    user.NewHandler(nil),
		Tutors:   tutor.NewHandler(nil),
		Bookings: booking.NewHandler(nil),
		Payments: payment.NewHandler(nil),
		Meetings: meeting.NewHandler(nil),
		Homework: homework.NewHandler(nil),
	}, mailer)
	return srv, issuer
}

func bearer(t *testing.T, issuer *auth.Issuer, id int, role string) string {
	pair, err := issuer.Issue(id, "u@example.com", role)
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t, "test", nil)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestServer_Gating(t *testing.T) {
	srv, issuer := newTestServer(t, "test", nil)
	student := bearer(t, issuer, 7, auth.RoleStudent)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/me", "", http.StatusUnauthorized},
		{http.MethodPost, "/bookings", "", http.StatusUnauthorized},
		{http.MethodGet, "/payments", "", http.StatusUnauthorized},
		{http.MethodPost, "/meetings/abc/join", "", http.StatusUnauthorized},
		{http.MethodGet, "/homework", "", http.StatusUnauthorized},
		{http.MethodGet, "/tutor/bookings", "", http.StatusUnauthorized},
		{http.MethodGet, "/tutor/bookings", student, http.StatusForbidden},
		{http.MethodPut, "/tutor/profile", student, http.StatusForbidden},
		{http.MethodPost, "/tutor/homework", student, http.StatusForbidden},
		{http.MethodDelete, "/meetings/abc", student, http.StatusForbidden},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", tc.token)
		}
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestServer_TestEmail(t *testing.T) {
	mailer := &fakeMailer{}
	srv, _ := newTestServer(t, "development", mailer)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test-email?email=a@example.com", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@example.com", mailer.to)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test-email", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mailer.err = errors.New("redis down")
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test-email?email=a@example.com", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_TestEmailHiddenInProduction(t *testing.T) {
	srv, _ := newTestServer(t, "production", &fakeMailer{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test-email?email=a@example.com", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
