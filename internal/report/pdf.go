package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"

	"github.com/tickbook/tickbook/internal/track"
)

var tableAlt = color.Color{Red: 240, Green: 240, Blue: 240}

// RenderPDF renders the report as a downloadable A4 document: one
// table per view, same numbers as the JSON payload.
func RenderPDF(rep *Report, startDate, endDate *time.Time) ([]byte, error) {
	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text("Time Log Report", props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		m.Row(10, func() {
			m.Col(12, func() {
				m.Text(windowLabel(startDate, endDate), props.Text{
					Top:   3,
					Align: consts.Center,
					Size:  12,
				})
			})
		})
	})

	section(m, "Hours by Date", []string{"Date", "Total Hours"}, dateRows(rep))
	section(m, "Hours by Project", []string{"Project", "Hours"}, projectRows(rep))
	section(m, "Hours by Client", []string{"Client", "Hours"}, clientRows(rep))

	buf, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(m pdf.Maroto, title string, headers []string, rows [][]string) {
	m.Row(10, func() {
		m.Col(12, func() {
			m.Text(title, props.Text{Top: 5, Style: consts.Bold, Size: 14})
		})
	})
	m.TableList(headers, rows, props.TableList{
		HeaderProp: props.TableListContent{
			Size:      10,
			GridSizes: []uint{6, 6},
		},
		ContentProp: props.TableListContent{
			Size:      10,
			GridSizes: []uint{6, 6},
		},
		Align:                consts.Center,
		AlternatedBackground: &tableAlt,
		HeaderContentSpace:   1,
		Line:                 false,
	})
}

func windowLabel(startDate, endDate *time.Time) string {
	switch {
	case startDate != nil && endDate != nil:
		return fmt.Sprintf("%s - %s", startDate.Format(track.DateFormat), endDate.Format(track.DateFormat))
	case startDate != nil:
		return fmt.Sprintf("From %s", startDate.Format(track.DateFormat))
	case endDate != nil:
		return fmt.Sprintf("Until %s", endDate.Format(track.DateFormat))
	default:
		return "All time"
	}
}

func dateRows(rep *Report) [][]string {
	rows := make([][]string, 0, len(rep.ByDate))
	for _, d := range rep.ByDate {
		rows = append(rows, []string{d.Date, formatHours(d.TotalHours)})
	}
	return rows
}

func projectRows(rep *Report) [][]string {
	rows := make([][]string, 0, len(rep.ByProject))
	for _, p := range rep.ByProject {
		rows = append(rows, []string{strconv.FormatInt(p.ProjectID, 10), formatHours(p.Hours)})
	}
	return rows
}

func clientRows(rep *Report) [][]string {
	rows := make([][]string, 0, len(rep.ByClient))
	for _, c := range rep.ByClient {
		rows = append(rows, []string{strconv.FormatInt(c.ClientID, 10), formatHours(c.Hours)})
	}
	return rows
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
