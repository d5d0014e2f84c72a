package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickbook/tickbook/internal/model"
	"github.com/tickbook/tickbook/internal/store"
	"github.com/tickbook/tickbook/internal/track"
)

var testNow = time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func newTestChecker(t *testing.T) (*Checker, *store.Store, *recordingMailer) {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())

	mailer := &recordingMailer{}
	checker := NewChecker(st, track.ClockFunc(func() time.Time { return testNow }), mailer, 8)
	return checker, st, mailer
}

func seedUserWithHours(t *testing.T, st *store.Store, email string, hours float64) *model.User {
	t.Helper()
	ctx := context.Background()

	user := &model.User{Name: "Test", Email: email, PasswordHash: "x"}
	require.NoError(t, st.CreateUser(ctx, user))
	client := &model.Client{UserID: user.ID, Name: "Acme", Email: "c-" + email, ContactPerson: "Bob"}
	require.NoError(t, st.CreateClient(ctx, client))
	project := &model.Project{UserID: user.ID, ClientID: client.ID, Title: "Website", Status: model.StatusActive}
	require.NoError(t, st.CreateProject(ctx, project))

	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(hours * float64(time.Hour)))
	entry := &model.TimeLog{
		UserID:    user.ID,
		ProjectID: project.ID,
		ClientID:  client.ID,
		StartTime: start,
		EndTime:   &end,
		Hours:     &hours,
	}
	require.NoError(t, st.CreateTimeLog(ctx, nil, entry))
	return user
}

func TestRunOnceNotifiesOverThreshold(t *testing.T) {
	checker, st, mailer := newTestChecker(t)
	ctx := context.Background()

	over := seedUserWithHours(t, st, "over@example.com", 9)
	seedUserWithHours(t, st, "under@example.com", 3)

	require.NoError(t, checker.RunOnce(ctx))
	checker.Wait()

	assert.Equal(t, []string{"over@example.com"}, mailer.recipients())

	notified, err := st.WasNotified(ctx, over.ID, "2025-06-02")
	require.NoError(t, err)
	assert.True(t, notified)
}

func TestRunOnceIdempotentPerDay(t *testing.T) {
	checker, st, mailer := newTestChecker(t)
	ctx := context.Background()

	seedUserWithHours(t, st, "over@example.com", 9)

	require.NoError(t, checker.RunOnce(ctx))
	require.NoError(t, checker.RunOnce(ctx))
	checker.Wait()

	assert.Len(t, mailer.recipients(), 1)
}

func TestRunOnceExactThresholdCounts(t *testing.T) {
	checker, st, mailer := newTestChecker(t)

	seedUserWithHours(t, st, "exact@example.com", 8)

	require.NoError(t, checker.RunOnce(context.Background()))
	checker.Wait()

	assert.Equal(t, []string{"exact@example.com"}, mailer.recipients())
}

func TestRunOnceNobodyOverThreshold(t *testing.T) {
	checker, st, mailer := newTestChecker(t)

	seedUserWithHours(t, st, "under@example.com", 2)

	require.NoError(t, checker.RunOnce(context.Background()))
	checker.Wait()

	assert.Empty(t, mailer.recipients())
}

func TestRunOnceSkipsMissingUser(t *testing.T) {
	checker, st, mailer := newTestChecker(t)
	ctx := context.Background()

	over := seedUserWithHours(t, st, "over@example.com", 9)

	// a time log whose user row no longer exists
	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Hour)
	hours := 10.0
	orphan := &model.TimeLog{
		UserID:    9999,
		ProjectID: 1,
		ClientID:  1,
		StartTime: start,
		EndTime:   &end,
		Hours:     &hours,
	}
	require.NoError(t, st.CreateTimeLog(ctx, nil, orphan))

	require.NoError(t, checker.RunOnce(ctx))
	checker.Wait()

	assert.Equal(t, []string{"over@example.com"}, mailer.recipients())

	notified, err := st.WasNotified(ctx, over.ID, "2025-06-02")
	require.NoError(t, err)
	assert.True(t, notified)
}
