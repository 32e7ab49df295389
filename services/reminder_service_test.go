package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"barberpro-backend/config"
	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/services"
	"barberpro-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	to, body string
}

type fakeNotifier struct {
	sent   []sentMessage
	failOn string
}

func (f *fakeNotifier) Channel(string) string { return services.ChannelSMS }

func (f *fakeNotifier) Send(_ context.Context, to, body string) (string, error) {
	if to == f.failOn {
		return "", errors.New("carrier rejected")
	}
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return "SM123", nil
}

type fakeLocker struct {
	held     bool
	released int
}

func (l *fakeLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	if l.held {
		return nil, services.ErrLockHeld
	}
	return func() { l.released++ }, nil
}

type reminderFixture struct {
	svc          *services.ReminderService
	notifier     *fakeNotifier
	locker       *fakeLocker
	reservations *repository.Repository[models.Reservation]
	logs         *repository.Repository[models.ReminderLog]
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &reminderFixture{
		notifier:     &fakeNotifier{},
		locker:       &fakeLocker{},
		reservations: repository.New[models.Reservation](db, "reservations"),
		logs:         repository.New[models.ReminderLog](db, "reminder_logs"),
	}
	now := time.Date(2025, 6, 20, 18, 0, 0, 0, asuncion)
	f.svc = services.NewReminderService(f.reservations, f.logs, f.notifier, f.locker, testutil.FixedClock(now))
	return f
}

func TestReminderService_SendDailyReminders(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	tomorrow := models.NewDate(2025, 6, 21)

	confirmed := testutil.NewTestReservation("Ana", tomorrow, "10:00",
		testutil.WithStatus(models.StatusConfirmed), testutil.WithPhone("+595981111111"))
	failing := testutil.NewTestReservation("Bea", tomorrow, "11:00",
		testutil.WithStatus(models.StatusConfirmed), testutil.WithPhone("+595981222222"))
	for _, r := range []*models.Reservation{
		confirmed,
		failing,
		testutil.NewTestReservation("NoPhone", tomorrow, "12:00", testutil.WithStatus(models.StatusConfirmed)),
		testutil.NewTestReservation("Pending", tomorrow, "13:00", testutil.WithPhone("+595981333333")),
		testutil.NewTestReservation("Later", models.NewDate(2025, 6, 22), "10:00",
			testutil.WithStatus(models.StatusConfirmed), testutil.WithPhone("+595981444444")),
	} {
		require.NoError(t, f.reservations.Create(ctx, r))
	}
	f.notifier.failOn = "+595981222222"

	summary, err := f.svc.SendDailyReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, tomorrow, summary.Date)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, f.locker.released)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "+595981111111", f.notifier.sent[0].to)
	assert.Contains(t, f.notifier.sent[0].body, "21 de junio a las 10:00")

	logs, err := f.logs.List(ctx, repository.OrderBy("recipient ASC"))
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, confirmed.ID, logs[0].ReservationID)
	assert.Equal(t, services.ReminderSent, logs[0].Status)
	assert.Equal(t, failing.ID, logs[1].ReservationID)
	assert.Equal(t, services.ReminderFailed, logs[1].Status)
	assert.Equal(t, "carrier rejected", logs[1].ErrorMessage)

	// a second run only retries the failure
	f.notifier.failOn = ""
	summary, err = f.svc.SendDailyReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 2, summary.Skipped)
	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, "+595981222222", f.notifier.sent[1].to)
}

func TestReminderService_LockHeld(t *testing.T) {
	f := newReminderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.reservations.Create(ctx, testutil.NewTestReservation("Ana", models.NewDate(2025, 6, 21), "10:00",
		testutil.WithStatus(models.StatusConfirmed), testutil.WithPhone("+595981111111"))))
	f.locker.held = true

	summary, err := f.svc.SendDailyReminders(ctx)
	assert.ErrorIs(t, err, services.ErrLockHeld)
	assert.Nil(t, summary)
	assert.Empty(t, f.notifier.sent)

	n, err := f.logs.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReminderService_StartSchedulerRejectsBadSpec(t *testing.T) {
	f := newReminderFixture(t)
	assert.Error(t, f.svc.StartScheduler("not a cron"))

	require.NoError(t, f.svc.StartScheduler("0 18 * * *"))
	f.svc.StopScheduler()
}

func TestLogNotifier(t *testing.T) {
	n := services.LogNotifier{Logger: testLogger()}
	assert.Equal(t, services.ChannelLog, n.Channel("+595981111111"))
	sid, err := n.Send(context.Background(), "+595981111111", "hola")
	require.NoError(t, err)
	assert.Empty(t, sid)
}

func TestReminderMessage(t *testing.T) {
	r := testutil.NewTestReservation("Ana", models.NewDate(2025, 12, 1), "09:00")
	assert.Equal(t, "Hola Ana, te recordamos tu cita en 302 Barber mañana 1 de diciembre a las 09:00. ¡Te esperamos!", services.ReminderMessage(r))
}

func TestTwilioNotifier_Channel(t *testing.T) {
	n := services.NewTwilioNotifier(&config.Settings{
		TwilioAccountSID:     "AC123",
		TwilioAuthToken:      "secret",
		TwilioPhoneNumber:    "+15005550006",
		TwilioWhatsAppNumber: "+14155238886",
	})
	assert.Equal(t, services.ChannelWhatsApp, n.Channel("+595981111111"))
	assert.Equal(t, services.ChannelSMS, n.Channel("0981111111"))

	smsOnly := services.NewTwilioNotifier(&config.Settings{TwilioPhoneNumber: "+15005550006"})
	assert.Equal(t, services.ChannelSMS, smsOnly.Channel("+595981111111"))
}

// blockingNotifier parks inside Send until released.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
	mu      sync.Mutex
	sent    int
}

func (n *blockingNotifier) Channel(string) string { return services.ChannelSMS }

func (n *blockingNotifier) Send(context.Context, string, string) (string, error) {
	n.entered <- struct{}{}
	<-n.release
	n.mu.Lock()
	n.sent++
	n.mu.Unlock()
	return "SM123", nil
}

func TestReminderService_OverlappingRunsWithoutLocker(t *testing.T) {
	db := testutil.NewTestDB(t)
	reservations := repository.New[models.Reservation](db, "reservations")
	logs := repository.New[models.ReminderLog](db, "reminder_logs")
	notifier := &blockingNotifier{entered: make(chan struct{}, 1), release: make(chan struct{})}
	now := time.Date(2025, 6, 20, 18, 0, 0, 0, asuncion)
	svc := services.NewReminderService(reservations, logs, notifier, nil, testutil.FixedClock(now))

	ctx := context.Background()
	require.NoError(t, reservations.Create(ctx, testutil.NewTestReservation("Ana", models.NewDate(2025, 6, 21), "10:00",
		testutil.WithStatus(models.StatusConfirmed), testutil.WithPhone("+595981111111"))))

	type result struct {
		summary *services.ReminderSummary
		err     error
	}
	first := make(chan result, 1)
	go func() {
		summary, err := svc.SendDailyReminders(ctx)
		first <- result{summary, err}
	}()

	select {
	case <-notifier.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first run never reached the notifier")
	}

	summary, err := svc.SendDailyReminders(ctx)
	assert.ErrorIs(t, err, services.ErrLockHeld)
	assert.Nil(t, summary)

	close(notifier.release)
	res := <-first
	require.NoError(t, res.err)
	assert.Equal(t, 1, res.summary.Sent)

	// the guard is released once the run finishes
	summary, err = svc.SendDailyReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, 1, notifier.sent)
	n, err := logs.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
