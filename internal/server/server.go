package server

import (
	"context"
	"net/http"
	"time"

	"tutorslot/internal/api"
	"tutorslot/internal/auth"
	"tutorslot/internal/booking"
	"tutorslot/internal/config"
	"tutorslot/internal/homework"
	"tutorslot/internal/meeting"
	"tutorslot/internal/payment"
	"tutorslot/internal/tutor"
	"tutorslot/internal/user"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Users    *user.Handler
	Tutors   *tutor.Handler
	Bookings *booking.Handler
	Payments *payment.Handler
	Meetings *meeting.Handler
	Homework *homework.Handler
}

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func New(cfg *config.Config, issuer *auth.Issuer, h Handlers, mailer Mailer) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	api.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery(), RequestLoggingMiddleware(), MetricsMiddleware(), corsMiddleware())

	limit := RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	authenticated := issuer.Middleware()
	tutorOnly := auth.RequireRole(auth.RoleTutor)

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)
	if cfg.Env != "production" && mailer != nil {
		router.GET("/test-email", TestEmail(mailer))
	}

	// Providers retry on their own schedule, so webhooks skip the limiter.
	router.POST("/webhooks/:provider", h.Payments.Webhook)

	public := router.Group("/", limit)
	{
		public.POST("/auth/register", h.Users.Register)
		public.POST("/auth/login", h.Users.Login)
		public.POST("/auth/refresh", h.Users.RefreshToken)

		public.GET("/tutors", h.Tutors.ListTutors)
		public.GET("/tutors/:tutorID", h.Tutors.GetTutor)
		public.GET("/tutors/:tutorID/slots", h.Tutors.GetSlots)
	}

	protected := router.Group("/", authenticated, limit)
	{
		protected.GET("/me", h.Users.GetMe)

		protected.POST("/bookings", h.Bookings.CreateBooking)
		protected.GET("/bookings", h.Bookings.ListMine)
		protected.GET("/bookings/:bookingID", h.Bookings.GetBooking)
		protected.POST("/bookings/:bookingID/cancel", h.Bookings.CancelBooking)
		protected.GET("/bookings/:bookingID/payments", h.Payments.ListForBooking)

		protected.POST("/payments/checkout", h.Payments.Checkout)
		protected.POST("/payments/:provider/capture", h.Payments.Capture)
		protected.GET("/payments", h.Payments.ListMine)

		protected.POST("/meetings", h.Meetings.Create)
		protected.POST("/meetings/:meetingID/join", h.Meetings.Join)
		protected.POST("/meetings/:meetingID/leave", h.Meetings.Leave)
		protected.GET("/meetings/:meetingID/participants", h.Meetings.Participants)
		protected.DELETE("/meetings/:meetingID", tutorOnly, h.Meetings.End)

		protected.GET("/homework", h.Homework.ListMine)
		protected.POST("/homework/:assignmentID/submissions", h.Homework.Submit)
	}

	tutorGroup := router.Group("/tutor", authenticated, tutorOnly, limit)
	{
		tutorGroup.PUT("/profile", h.Tutors.UpsertProfile)

		tutorGroup.GET("/availability", h.Tutors.ListRules)
		tutorGroup.POST("/availability", h.Tutors.CreateRule)
		tutorGroup.PUT("/availability/:ruleID", h.Tutors.UpdateRule)
		tutorGroup.DELETE("/availability/:ruleID", h.Tutors.DeleteRule)

		tutorGroup.GET("/blocked", h.Tutors.ListBlocked)
		tutorGroup.POST("/blocked", h.Tutors.CreateBlocked)
		tutorGroup.DELETE("/blocked/:blockedID", h.Tutors.DeleteBlocked)

		tutorGroup.GET("/bookings", h.Bookings.ListForTutor)
		tutorGroup.POST("/bookings", h.Bookings.CreateForStudent)
		tutorGroup.POST("/bookings/:bookingID/confirm", h.Bookings.Confirm)
		tutorGroup.POST("/bookings/:bookingID/complete", h.Bookings.Complete)

		tutorGroup.POST("/homework", h.Homework.Assign)
		tutorGroup.GET("/homework", h.Homework.ListAssigned)
		tutorGroup.GET("/homework/:assignmentID/submissions", h.Homework.ListSubmissions)
		tutorGroup.POST("/submissions/:submissionID/grade", h.Homework.Grade)
	}

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
