// services/reminder_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"barberpro-backend/config"
	"barberpro-backend/models"
	"barberpro-backend/repository"

	"github.com/bsm/redislock"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
	ChannelLog      = "log"

	ReminderSent   = "sent"
	ReminderFailed = "failed"

	reminderLockKey = "lock:reminders"
	reminderLockTTL = 10 * time.Minute
)

// ErrLockHeld means another run, in this process or another instance, is
// already sending reminders.
var ErrLockHeld = errors.New("reminder lock held by another instance")

// Notifier delivers one message and returns the provider's message id.
type Notifier interface {
	Channel(to string) string
	Send(ctx context.Context, to, body string) (string, error)
}

// Locker guards a run across processes.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type TwilioNotifier struct {
	client         *twilio.RestClient
	phoneNumber    string
	whatsAppNumber string
}

func NewTwilioNotifier(s *config.Settings) *TwilioNotifier {
	return &TwilioNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: s.TwilioAccountSID,
			Password: s.TwilioAuthToken,
		}),
		phoneNumber:    s.TwilioPhoneNumber,
		whatsAppNumber: s.TwilioWhatsAppNumber,
	}
}

// Channel picks WhatsApp for E.164 numbers when a WhatsApp sender exists.
func (n *TwilioNotifier) Channel(to string) string {
	if strings.HasPrefix(to, "+") && n.whatsAppNumber != "" {
		return ChannelWhatsApp
	}
	return ChannelSMS
}

func (n *TwilioNotifier) Send(_ context.Context, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(body)
	if n.Channel(to) == ChannelWhatsApp {
		params.SetTo("whatsapp:" + to)
		params.SetFrom("whatsapp:" + n.whatsAppNumber)
	} else {
		params.SetTo(to)
		params.SetFrom(n.phoneNumber)
	}

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// LogNotifier writes reminders to the log. It is used when Twilio is not
// configured.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (LogNotifier) Channel(string) string { return ChannelLog }

func (n LogNotifier) Send(_ context.Context, to, body string) (string, error) {
	n.Logger.WithFields(logrus.Fields{"to": to, "body": body}).Info("reminder (not delivered, twilio disabled)")
	return "", nil
}

// RedisLocker adapts redislock to Locker.
type RedisLocker struct {
	Client *redislock.Client
}

func (l RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.Client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.GetLogger().WithError(err).Warn("failed to release reminder lock")
		}
	}, nil
}

// ReminderSummary reports the outcome of one run.
type ReminderSummary struct {
	Date    models.Date `json:"date"`
	Sent    int         `json:"sent"`
	Failed  int         `json:"failed"`
	Skipped int         `json:"skipped"`
}

type ReminderService struct {
	reservations *repository.Repository[models.Reservation]
	logs         *repository.Repository[models.ReminderLog]
	notifier     Notifier
	locker       Locker
	now          func() time.Time
	logger       *logrus.Logger

	// running serialises runs within the process; locker extends it across
	// instances.
	running sync.Mutex

	cron *cron.Cron
}

// NewReminderService wires the job. locker may be nil, in which case runs are
// only serialised within this process.
func NewReminderService(
	reservations *repository.Repository[models.Reservation],
	logs *repository.Repository[models.ReminderLog],
	notifier Notifier,
	locker Locker,
	now func() time.Time,
) *ReminderService {
	if now == nil {
		now = time.Now
	}
	return &ReminderService{
		reservations: reservations,
		logs:         logs,
		notifier:     notifier,
		locker:       locker,
		now:          now,
		logger:       config.GetLogger(),
	}
}

// StartScheduler runs SendDailyReminders on spec, evaluated in the business
// timezone.
func (s *ReminderService) StartScheduler(spec string) error {
	c := cron.New(cron.WithLocation(s.now().Location()))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reminderLockTTL)
		defer cancel()
		if _, err := s.SendDailyReminders(ctx); err != nil && !errors.Is(err, ErrLockHeld) {
			config.LogError(s.logger, "services", "StartScheduler", "daily reminders", nil, err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid REMINDER_CRON %q: %w", spec, err)
	}
	c.Start()
	s.cron = c
	s.logger.WithField("spec", spec).Info("Reminder scheduler started")
	return nil
}

// StopScheduler stops the cron and waits for a running job.
func (s *ReminderService) StopScheduler() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// SendDailyReminders notifies every confirmed reservation of tomorrow that
// has a phone and no successful reminder yet. Each attempt is logged.
func (s *ReminderService) SendDailyReminders(ctx context.Context) (*ReminderSummary, error) {
	if !s.running.TryLock() {
		s.logger.Info("Skipping reminder run, another run is in progress")
		return nil, ErrLockHeld
	}
	defer s.running.Unlock()

	if s.locker != nil {
		release, err := s.locker.Obtain(ctx, reminderLockKey, reminderLockTTL)
		if err != nil {
			s.logger.WithError(err).Info("Skipping reminder run")
			return nil, err
		}
		defer release()
	}

	tomorrow := models.DateOf(s.now().AddDate(0, 0, 1))
	summary := &ReminderSummary{Date: tomorrow}
	s.logger.WithField("date", tomorrow.String()).Info("Starting daily reminder processing...")

	reservations, err := s.reservations.List(ctx,
		repository.Where("reservation_date = ?", tomorrow),
		repository.Where("status = ?", string(models.StatusConfirmed)),
		repository.OrderBy("reservation_time ASC"))
	if err != nil {
		return nil, err
	}

	for i := range reservations {
		r := &reservations[i]
		if r.ClientPhone == nil || strings.TrimSpace(*r.ClientPhone) == "" {
			summary.Skipped++
			continue
		}
		already, err := s.logs.Count(ctx,
			repository.Where("reservation_id = ?", r.ID),
			repository.Where("status = ?", ReminderSent))
		if err != nil {
			return nil, err
		}
		if already > 0 {
			summary.Skipped++
			continue
		}

		if s.send(ctx, r) {
			summary.Sent++
		} else {
			summary.Failed++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"sent":    summary.Sent,
		"failed":  summary.Failed,
		"skipped": summary.Skipped,
	}).Info("Daily reminder processing completed")
	return summary, nil
}

func (s *ReminderService) send(ctx context.Context, r *models.Reservation) bool {
	to := strings.TrimSpace(*r.ClientPhone)
	message := ReminderMessage(r)

	entry := models.ReminderLog{
		ReservationID: r.ID,
		Recipient:     to,
		Message:       message,
		Channel:       s.notifier.Channel(to),
		Status:        ReminderSent,
	}
	sid, err := s.notifier.Send(ctx, to, message)
	if err != nil {
		s.logger.WithError(err).WithField("to", to).Warn("Failed to send reminder")
		entry.Status = ReminderFailed
		entry.ErrorMessage = err.Error()
	} else {
		s.logger.WithFields(logrus.Fields{"to": to, "sid": sid}).Info("Reminder sent")
	}
	entry.SentAt = s.now()

	if err := s.logs.Create(ctx, &entry); err != nil {
		config.LogError(s.logger, "services", "send", "log reminder", r.ID, err)
	}
	return entry.Status == ReminderSent
}

// ReminderMessage is the text sent the day before an appointment.
func ReminderMessage(r *models.Reservation) string {
	return fmt.Sprintf("Hola %s, te recordamos tu cita en 302 Barber mañana %s a las %s. ¡Te esperamos!",
		r.ClientName, DayMonth(r.ReservationDate), r.ReservationTime)
}
