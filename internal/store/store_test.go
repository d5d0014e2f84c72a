package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickbook/tickbook/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())
	return st
}

func seedUser(t *testing.T, st *Store, email string) *model.User {
	t.Helper()
	u := &model.User{Name: "Test", Email: email, PasswordHash: "x"}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func seedClient(t *testing.T, st *Store, userID int64, email string) *model.Client {
	t.Helper()
	c := &model.Client{UserID: userID, Name: "Acme", Email: email, ContactPerson: "Bob"}
	require.NoError(t, st.CreateClient(context.Background(), c))
	return c
}

func seedProject(t *testing.T, st *Store, userID, clientID int64) *model.Project {
	t.Helper()
	p := &model.Project{UserID: userID, ClientID: clientID, Title: "Website", Status: model.StatusActive}
	require.NoError(t, st.CreateProject(context.Background(), p))
	return p
}

func seedLog(t *testing.T, st *Store, userID, projectID, clientID int64, start, end time.Time) *model.TimeLog {
	t.Helper()
	hours := end.Sub(start).Hours()
	l := &model.TimeLog{
		UserID:    userID,
		ProjectID: projectID,
		ClientID:  clientID,
		StartTime: start,
		EndTime:   &end,
		Hours:     &hours,
	}
	require.NoError(t, st.CreateTimeLog(context.Background(), nil, l))
	return l
}

func TestUserRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "Ada@Example.COM")
	assert.Equal(t, "ada@example.com", u.Email)

	got, err := st.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)

	got, err = st.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = st.GetUserByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessions(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, st, "ada@example.com")

	sess := &model.Session{
		UserID:    u.ID,
		Token:     "tok123",
		ExpiresAt: time.Now().UTC().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, st.CreateSession(ctx, sess))

	got, err := st.GetSessionByToken(ctx, "tok123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	require.NoError(t, st.DeleteSession(ctx, "tok123"))
	_, err = st.GetSessionByToken(ctx, "tok123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClientOwnershipScoping(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com")
	other := seedUser(t, st, "other@example.com")
	c := seedClient(t, st, owner.ID, "acme@example.com")

	_, err := st.GetClient(ctx, c.ID, owner.ID)
	require.NoError(t, err)

	_, err = st.GetClient(ctx, c.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = st.DeleteClient(ctx, c.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	clients, err := st.ListClients(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestClientEmailTaken(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "ada@example.com")
	c := seedClient(t, st, u.ID, "acme@example.com")

	taken, err := st.ClientEmailTaken(ctx, u.ID, "ACME@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	// the record itself does not count during an update
	taken, err = st.ClientEmailTaken(ctx, u.ID, "acme@example.com", c.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	// same email under another user is fine
	u2 := seedUser(t, st, "other@example.com")
	taken, err = st.ClientEmailTaken(ctx, u2.ID, "acme@example.com", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestCountClientProjects(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "ada@example.com")
	c := seedClient(t, st, u.ID, "acme@example.com")

	n, err := st.CountClientProjects(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	seedProject(t, st, u.ID, c.ID)
	n, err = st.CountClientProjects(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProjectListFilter(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "ada@example.com")
	c1 := seedClient(t, st, u.ID, "one@example.com")
	c2 := seedClient(t, st, u.ID, "two@example.com")
	seedProject(t, st, u.ID, c1.ID)
	seedProject(t, st, u.ID, c2.ID)

	all, err := st.ListProjects(ctx, u.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := st.ListProjects(ctx, u.ID, &c1.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, c1.ID, scoped[0].ClientID)
}

func TestDeleteProjectCascade(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "ada@example.com")
	c := seedClient(t, st, u.ID, "acme@example.com")
	p := seedProject(t, st, u.ID, c.ID)

	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	l := seedLog(t, st, u.ID, p.ID, c.ID, start, start.Add(time.Hour))

	require.NoError(t, st.DeleteProjectCascade(ctx, p.ID, u.ID))

	_, err := st.GetProject(ctx, p.ID, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.GetTimeLog(ctx, l.ID, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = st.DeleteProjectCascade(ctx, p.ID, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindOverlap(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "ada@example.com")
	c := seedClient(t, st, u.ID, "acme@example.com")
	p := seedProject(t, st, u.ID, c.ID)

	at := func(hour int) time.Time {
		return time.Date(2025, 6, 2, hour, 0, 0, 0, time.UTC)
	}
	existing := seedLog(t, st, u.ID, p.ID, c.ID, at(9), at(11))

	end := at(10)
	got, err := st.FindOverlap(ctx, nil, u.ID, 0, at(8), &end)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)

	// adjacent on either side is not an overlap
	end = at(9)
	_, err = st.FindOverlap(ctx, nil, u.ID, 0, at(8), &end)
	assert.ErrorIs(t, err, ErrNotFound)

	end = at(13)
	_, err = st.FindOverlap(ctx, nil, u.ID, 0, at(11), &end)
	assert.ErrorIs(t, err, ErrNotFound)

	// open candidate extends to infinity
	got, err = st.FindOverlap(ctx, nil, u.ID, 0, at(8), nil)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)

	// excluding the record itself finds nothing
	end = at(10)
	_, err = st.FindOverlap(ctx, nil, u.ID, existing.ID, at(8), &end)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimeLogFilter(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := seedUser(t, st, "ada@example.com")
	c := seedClient(t, st, u.ID, "acme@example.com")
	p1 := seedProject(t, st, u.ID, c.ID)
	p2 := seedProject(t, st, u.ID, c.ID)

	day1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	seedLog(t, st, u.ID, p1.ID, c.ID, day1, day1.Add(time.Hour))
	seedLog(t, st, u.ID, p2.ID, c.ID, day2, day2.Add(time.Hour))

	logs, err := st.ListTimeLogs(ctx, u.ID, TimeLogFilter{ProjectID: &p1.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, p1.ID, logs[0].ProjectID)

	from := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	logs, err = st.ListTimeLogs(ctx, u.ID, TimeLogFilter{StartDate: &from})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, p2.ID, logs[0].ProjectID)

	to := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	logs, err = st.ListTimeLogs(ctx, u.ID, TimeLogFilter{EndDate: &to})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, p1.ID, logs[0].ProjectID)

	// newest first
	logs, err = st.ListTimeLogs(ctx, u.ID, TimeLogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, p2.ID, logs[0].ProjectID)
}

func TestDailyUserTotals(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	busy := seedUser(t, st, "busy@example.com")
	idle := seedUser(t, st, "idle@example.com")
	c := seedClient(t, st, busy.ID, "acme@example.com")
	p := seedProject(t, st, busy.ID, c.ID)

	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	seedLog(t, st, busy.ID, p.ID, c.ID, start, start.Add(5*time.Hour))
	seedLog(t, st, busy.ID, p.ID, c.ID, start.Add(6*time.Hour), start.Add(10*time.Hour))
	seedLog(t, st, idle.ID, p.ID, c.ID, start, start.Add(time.Hour))

	dayStart := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	totals, err := st.DailyUserTotals(ctx, dayStart, dayStart.AddDate(0, 0, 1), 8)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, busy.ID, totals[0].UserID)
	assert.Equal(t, 9.0, totals[0].TotalHours)
}

func TestNotificationMarkers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, st, "ada@example.com")

	notified, err := st.WasNotified(ctx, u.ID, "2025-06-02")
	require.NoError(t, err)
	assert.False(t, notified)

	require.NoError(t, st.MarkNotified(ctx, u.ID, "2025-06-02"))

	notified, err = st.WasNotified(ctx, u.ID, "2025-06-02")
	require.NoError(t, err)
	assert.True(t, notified)

	// a new day needs a new marker
	notified, err = st.WasNotified(ctx, u.ID, "2025-06-03")
	require.NoError(t, err)
	assert.False(t, notified)
}
