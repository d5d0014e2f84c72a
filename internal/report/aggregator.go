// Package report builds the time log aggregations: total hours with a
// running-log adjustment, and the by-date / by-project / by-client
// report views. The aggregation is pure and shared by the JSON
// endpoint, the PDF export and the CLI renderer.
package report

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/tickbook/tickbook/internal/model"
	"github.com/tickbook/tickbook/internal/store"
	"github.com/tickbook/tickbook/internal/track"
)

// DateTotal is the summed hours of one calendar date.
type DateTotal struct {
	Date       string  `json:"date"`
	TotalHours float64 `json:"total_hours"`
}

// ProjectTotal is the summed hours of one project over the window.
type ProjectTotal struct {
	ProjectID int64   `json:"project_id"`
	Hours     float64 `json:"hours"`
}

// ClientTotal is the summed hours of one client over the window.
type ClientTotal struct {
	ClientID int64   `json:"client_id"`
	Hours    float64 `json:"hours"`
}

// Report folds the grouped rows into three independent flat views.
// ByDate is ordered by date descending.
type Report struct {
	ByDate    []DateTotal    `json:"by_date"`
	ByProject []ProjectTotal `json:"by_project"`
	ByClient  []ClientTotal  `json:"by_client"`
}

// Aggregator computes read-only aggregations over a user's time logs.
type Aggregator struct {
	store *store.Store
	clock track.Clock
}

// NewAggregator creates an aggregator with an injected clock.
func NewAggregator(st *store.Store, clock track.Clock) *Aggregator {
	if clock == nil {
		clock = track.SystemClock{}
	}
	return &Aggregator{store: st, clock: clock}
}

// TotalHours sums the derived hours of the user's matching time logs,
// then adds the elapsed time of the most recently started matching log
// when it is still running. Rounded to two decimals.
func (a *Aggregator) TotalHours(ctx context.Context, userID int64, f store.TimeLogFilter) (float64, error) {
	total, err := a.store.SumHours(ctx, userID, f)
	if err != nil {
		return 0, err
	}

	latest, err := a.store.LatestTimeLog(ctx, userID, f)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return 0, err
	}
	if latest != nil && latest.Running() {
		total += a.clock.Now().Sub(latest.StartTime).Seconds() / 3600
	}
	return track.Round2(total), nil
}

// Build aggregates the user's closed time logs, optionally bounded to
// [start 00:00:00, end 23:59:59] on start_time. Running logs never
// appear in a report.
func (a *Aggregator) Build(ctx context.Context, userID int64, startDate, endDate *time.Time) (*Report, error) {
	var from, to *time.Time
	if startDate != nil {
		lo, _ := track.DayBounds(*startDate)
		from = &lo
	}
	if endDate != nil {
		_, next := track.DayBounds(*endDate)
		hi := next.Add(-time.Second)
		to = &hi
	}

	logs, err := a.store.CompletedTimeLogs(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	return build(logs), nil
}

type groupKey struct {
	date      string
	projectID int64
	clientID  int64
}

// build groups by (date of start_time, project, client) and folds the
// groups into the three views, each in descending-date order of first
// appearance.
func build(logs []model.TimeLog) *Report {
	groups := map[groupKey]float64{}
	for _, l := range logs {
		if l.Hours == nil {
			continue
		}
		k := groupKey{
			date:      l.StartTime.UTC().Format(track.DateFormat),
			projectID: l.ProjectID,
			clientID:  l.ClientID,
		}
		groups[k] += *l.Hours
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date > keys[j].date
		}
		if keys[i].projectID != keys[j].projectID {
			return keys[i].projectID < keys[j].projectID
		}
		return keys[i].clientID < keys[j].clientID
	})

	rep := &Report{
		ByDate:    []DateTotal{},
		ByProject: []ProjectTotal{},
		ByClient:  []ClientTotal{},
	}
	dateIdx := map[string]int{}
	projectIdx := map[int64]int{}
	clientIdx := map[int64]int{}

	for _, k := range keys {
		hours := groups[k]

		if i, ok := dateIdx[k.date]; ok {
			rep.ByDate[i].TotalHours += hours
		} else {
			dateIdx[k.date] = len(rep.ByDate)
			rep.ByDate = append(rep.ByDate, DateTotal{Date: k.date, TotalHours: hours})
		}

		if i, ok := projectIdx[k.projectID]; ok {
			rep.ByProject[i].Hours += hours
		} else {
			projectIdx[k.projectID] = len(rep.ByProject)
			rep.ByProject = append(rep.ByProject, ProjectTotal{ProjectID: k.projectID, Hours: hours})
		}

		if i, ok := clientIdx[k.clientID]; ok {
			rep.ByClient[i].Hours += hours
		} else {
			clientIdx[k.clientID] = len(rep.ByClient)
			rep.ByClient = append(rep.ByClient, ClientTotal{ClientID: k.clientID, Hours: hours})
		}
	}

	for i := range rep.ByDate {
		rep.ByDate[i].TotalHours = track.Round2(rep.ByDate[i].TotalHours)
	}
	for i := range rep.ByProject {
		rep.ByProject[i].Hours = track.Round2(rep.ByProject[i].Hours)
	}
	for i := range rep.ByClient {
		rep.ByClient[i].Hours = track.Round2(rep.ByClient[i].Hours)
	}
	return rep
}
