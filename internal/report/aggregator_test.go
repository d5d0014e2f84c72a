package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickbook/tickbook/internal/model"
	"github.com/tickbook/tickbook/internal/store"
	"github.com/tickbook/tickbook/internal/track"
)

var testNow = time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)

type fixture struct {
	store     *store.Store
	userID    int64
	clientID  int64
	projectID int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())

	ctx := context.Background()
	user := &model.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}
	require.NoError(t, st.CreateUser(ctx, user))

	client := &model.Client{UserID: user.ID, Name: "Acme", Email: "acme@example.com", ContactPerson: "Bob"}
	require.NoError(t, st.CreateClient(ctx, client))

	project := &model.Project{UserID: user.ID, ClientID: client.ID, Title: "Website", Status: model.StatusActive}
	require.NoError(t, st.CreateProject(ctx, project))

	return &fixture{store: st, userID: user.ID, clientID: client.ID, projectID: project.ID}
}

// addLog inserts a closed log with derived hours, or a running one when
// end is zero.
func (f *fixture) addLog(t *testing.T, projectID int64, start, end time.Time) {
	t.Helper()
	entry := &model.TimeLog{
		UserID:    f.userID,
		ProjectID: projectID,
		ClientID:  f.clientID,
		StartTime: start,
	}
	if !end.IsZero() {
		entry.EndTime = &end
		hours := track.Hours(start, end)
		entry.Hours = &hours
	}
	require.NoError(t, f.store.CreateTimeLog(context.Background(), nil, entry))
}

func day(d, hour int) time.Time {
	return time.Date(2025, 6, d, hour, 0, 0, 0, time.UTC)
}

func TestBuildGroupsAndOrders(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, track.ClockFunc(func() time.Time { return testNow }))

	f.addLog(t, f.projectID, day(1, 9), day(1, 12))  // 3h on 2025-06-01
	f.addLog(t, f.projectID, day(2, 9), day(2, 11))  // 2h on 2025-06-02

	rep, err := agg.Build(context.Background(), f.userID, nil, nil)
	require.NoError(t, err)

	require.Len(t, rep.ByDate, 2)
	assert.Equal(t, DateTotal{Date: "2025-06-02", TotalHours: 2}, rep.ByDate[0])
	assert.Equal(t, DateTotal{Date: "2025-06-01", TotalHours: 3}, rep.ByDate[1])

	require.Len(t, rep.ByProject, 1)
	assert.Equal(t, ProjectTotal{ProjectID: f.projectID, Hours: 5}, rep.ByProject[0])

	require.Len(t, rep.ByClient, 1)
	assert.Equal(t, ClientTotal{ClientID: f.clientID, Hours: 5}, rep.ByClient[0])
}

func TestBuildSkipsRunningLogs(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, track.ClockFunc(func() time.Time { return testNow }))

	f.addLog(t, f.projectID, day(2, 9), day(2, 10))
	f.addLog(t, f.projectID, day(2, 16), time.Time{}) // still running

	rep, err := agg.Build(context.Background(), f.userID, nil, nil)
	require.NoError(t, err)

	require.Len(t, rep.ByDate, 1)
	assert.Equal(t, 1.0, rep.ByDate[0].TotalHours)
}

func TestBuildWindowBounds(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, track.ClockFunc(func() time.Time { return testNow }))

	f.addLog(t, f.projectID, day(1, 9), day(1, 10))
	f.addLog(t, f.projectID, day(2, 9), day(2, 10))

	from := day(2, 0)
	rep, err := agg.Build(context.Background(), f.userID, &from, nil)
	require.NoError(t, err)
	require.Len(t, rep.ByDate, 1)
	assert.Equal(t, "2025-06-02", rep.ByDate[0].Date)

	to := day(1, 0)
	rep, err = agg.Build(context.Background(), f.userID, nil, &to)
	require.NoError(t, err)
	require.Len(t, rep.ByDate, 1)
	assert.Equal(t, "2025-06-01", rep.ByDate[0].Date)
}

func TestBuildEmptyReport(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, track.ClockFunc(func() time.Time { return testNow }))

	rep, err := agg.Build(context.Background(), f.userID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, rep.ByDate)
	assert.Empty(t, rep.ByProject)
	assert.Empty(t, rep.ByClient)
}

func TestTotalHoursAddsRunningLog(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, track.ClockFunc(func() time.Time { return testNow }))

	// closed hour in the morning plus a timer running for 90 minutes
	f.addLog(t, f.projectID, day(2, 9), day(2, 10))
	f.addLog(t, f.projectID, testNow.Add(-90*time.Minute), time.Time{})

	total, err := agg.TotalHours(context.Background(), f.userID, store.TimeLogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2.5, total)
}

func TestTotalHoursClosedOnly(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, track.ClockFunc(func() time.Time { return testNow }))

	f.addLog(t, f.projectID, day(1, 9), day(1, 12))
	f.addLog(t, f.projectID, day(2, 9), day(2, 11))

	total, err := agg.TotalHours(context.Background(), f.userID, store.TimeLogFilter{})
	require.NoError(t, err)
	assert.Equal(t, 5.0, total)
}

func TestRenderPDF(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, track.ClockFunc(func() time.Time { return testNow }))

	f.addLog(t, f.projectID, day(1, 9), day(1, 12))

	rep, err := agg.Build(context.Background(), f.userID, nil, nil)
	require.NoError(t, err)

	data, err := RenderPDF(rep, nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}
