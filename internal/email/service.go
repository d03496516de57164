package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"tutorslot/internal/logger"
	"tutorslot/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

type Job struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type SMTPConfig struct {
	From     string
	FromName string
	Host     string
	Port     string
	User     string
	Pass     string
}

// Lesson is the part of a booking that goes into notification bodies.
type Lesson struct {
	BookingID       int
	TutorName       string
	StudentName     string
	Date            string
	Time            string
	DurationMinutes int
}

func (l Lesson) describe() string {
	return fmt.Sprintf("Lesson #%d with %s on %s at %s (%d min)", l.BookingID, l.TutorName, l.Date, l.Time, l.DurationMinutes)
}

// Service queues outgoing mail in redis and drains the queue over SMTP.
type Service struct {
	redis      *redis.Client
	cfg        SMTPConfig
	send       func(Job) error
	retryDelay time.Duration
}

func New(cfg SMTPConfig, rdb *redis.Client) *Service {
	s := &Service{redis: rdb, cfg: cfg, retryDelay: 5 * time.Second}
	s.send = s.sendSMTP
	return s
}

func (s *Service) enqueue(ctx context.Context, job Job) error {
	job.Created = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Error("failed to queue email", "to", job.To, "type", job.Type, "error", err)
		metrics.RecordEmail(job.Type, "queue_failed")
		return err
	}

	logger.Debug("email queued", "to", job.To, "type", job.Type)
	return nil
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, Job{Type: "generic", To: to, Name: name, Subject: subject, Body: body})
}

// Start drains the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}
	metrics.EmailQueueLength.Set(float64(s.QueueLength(ctx)))

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	if err := s.send(job); err != nil {
		logger.Error("failed to send email", "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			time.Sleep(s.retryDelay)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, string(data))
			return
		}

		metrics.RecordEmail(job.Type, "failed")
		s.saveFailed(job, err)
		return
	}

	metrics.RecordEmail(job.Type, "success")
	logger.Info("email sent", "to", job.To, "type", job.Type)
}

func (s *Service) sendSMTP(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.cfg.User != "" && s.cfg.Pass != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}

	return smtp.SendMail(s.cfg.Host+":"+s.cfg.Port, auth, s.cfg.From, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, string(data))
	logger.Error("email moved to failed queue", "to", job.To, "type", job.Type)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) SendBookingRequested(ctx context.Context, to, name string, l Lesson) error {
	body := fmt.Sprintf(`Hi %s,

A new lesson has been booked and is waiting for confirmation.

%s
Student: %s

- %s`, name, l.describe(), l.StudentName, s.cfg.FromName)

	return s.enqueue(ctx, Job{Type: "booking_requested", To: to, Name: name, Subject: "New lesson request", Body: body})
}

func (s *Service) SendBookingConfirmation(ctx context.Context, to, name string, l Lesson) error {
	body := fmt.Sprintf(`Hi %s,

Your lesson is confirmed!

%s

- %s`, name, l.describe(), s.cfg.FromName)

	return s.enqueue(ctx, Job{Type: "booking_confirmation", To: to, Name: name, Subject: "Lesson confirmed", Body: body})
}

func (s *Service) SendCancellation(ctx context.Context, to, name string, l Lesson) error {
	body := fmt.Sprintf(`Hi %s,

This lesson has been cancelled:

%s

- %s`, name, l.describe(), s.cfg.FromName)

	return s.enqueue(ctx, Job{Type: "cancellation", To: to, Name: name, Subject: "Lesson cancelled", Body: body})
}

func (s *Service) SendPaymentReceipt(ctx context.Context, to, name string, l Lesson, amount, provider string) error {
	body := fmt.Sprintf(`Hi %s,

We received your payment of %s via %s.

%s

- %s`, name, amount, provider, l.describe(), s.cfg.FromName)

	return s.enqueue(ctx, Job{Type: "payment_receipt", To: to, Name: name, Subject: "Payment received", Body: body})
}

func (s *Service) SendHomeworkAssigned(ctx context.Context, to, name, title string, due *time.Time) error {
	dueText := "no due date"
	if due != nil {
		dueText = "due " + due.Format("Jan 2, 2006 at 3:04 PM")
	}
	body := fmt.Sprintf(`Hi %s,

You have new homework: %s (%s).

- %s`, name, title, dueText, s.cfg.FromName)

	return s.enqueue(ctx, Job{Type: "homework_assigned", To: to, Name: name, Subject: "New homework", Body: body})
}
