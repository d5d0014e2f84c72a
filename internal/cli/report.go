package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/tickbook/tickbook/internal/report"
	"github.com/tickbook/tickbook/internal/store"
	"github.com/tickbook/tickbook/internal/track"
)

var (
	reportUser string
	reportFrom string
	reportTo   string
	reportPDF  string
)

var (
	reportTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#4ECDC4"))

	reportHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFE66D"))

	reportMutedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888"))

	reportHoursStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#95E1A3"))
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a user's time log report in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if reportUser == "" {
			return fmt.Errorf("--user is required")
		}

		var from, to *time.Time
		if reportFrom != "" {
			d, err := track.ParseDate(reportFrom)
			if err != nil {
				return fmt.Errorf("invalid --from date %q, want YYYY-MM-DD", reportFrom)
			}
			from = &d
		}
		if reportTo != "" {
			d, err := track.ParseDate(reportTo)
			if err != nil {
				return fmt.Errorf("invalid --to date %q, want YYYY-MM-DD", reportTo)
			}
			to = &d
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		user, err := st.GetUserByEmail(ctx, reportUser)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no user with email %q", reportUser)
			}
			return err
		}

		agg := report.NewAggregator(st, track.SystemClock{})
		rep, err := agg.Build(ctx, user.ID, from, to)
		if err != nil {
			return err
		}
		total, err := totalForWindow(ctx, agg, user.ID, from, to)
		if err != nil {
			return err
		}

		if reportPDF != "" {
			data, err := report.RenderPDF(rep, from, to)
			if err != nil {
				return err
			}
			if err := os.WriteFile(reportPDF, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", reportPDF)
		}

		fmt.Println(renderReport(user.Name, rep, total, from, to))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportUser, "user", "", "Email of the user to report on")
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "Start date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "End date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportPDF, "pdf", "", "Also write the report as a PDF to this path")
}

func totalForWindow(ctx context.Context, agg *report.Aggregator, userID int64, from, to *time.Time) (float64, error) {
	f := store.TimeLogFilter{StartDate: from, EndDate: to}
	return agg.TotalHours(ctx, userID, f)
}

// renderReport lays out the three report views as aligned text columns.
func renderReport(name string, rep *report.Report, total float64, from, to *time.Time) string {
	var b strings.Builder

	b.WriteString(reportTitleStyle.Render("Time Log Report"))
	b.WriteString("  ")
	b.WriteString(reportMutedStyle.Render(name + windowSuffix(from, to)))
	b.WriteString("\n\n")

	b.WriteString(reportHeaderStyle.Render("By date"))
	b.WriteString("\n")
	if len(rep.ByDate) == 0 {
		b.WriteString(reportMutedStyle.Render("  (no entries)"))
		b.WriteString("\n")
	}
	for _, d := range rep.ByDate {
		fmt.Fprintf(&b, "  %-12s %s\n", d.Date, reportHoursStyle.Render(fmt.Sprintf("%.2f h", d.TotalHours)))
	}

	b.WriteString("\n")
	b.WriteString(reportHeaderStyle.Render("By project"))
	b.WriteString("\n")
	for _, p := range rep.ByProject {
		fmt.Fprintf(&b, "  #%-11d %s\n", p.ProjectID, reportHoursStyle.Render(fmt.Sprintf("%.2f h", p.Hours)))
	}

	b.WriteString("\n")
	b.WriteString(reportHeaderStyle.Render("By client"))
	b.WriteString("\n")
	for _, c := range rep.ByClient {
		fmt.Fprintf(&b, "  #%-11d %s\n", c.ClientID, reportHoursStyle.Render(fmt.Sprintf("%.2f h", c.Hours)))
	}

	b.WriteString("\n")
	b.WriteString(reportHeaderStyle.Render("Total"))
	b.WriteString(" ")
	b.WriteString(reportHoursStyle.Render(fmt.Sprintf("%.2f h", total)))
	b.WriteString("\n")
	return b.String()
}

func windowSuffix(from, to *time.Time) string {
	switch {
	case from != nil && to != nil:
		return fmt.Sprintf(" (%s to %s)", from.Format(track.DateFormat), to.Format(track.DateFormat))
	case from != nil:
		return fmt.Sprintf(" (from %s)", from.Format(track.DateFormat))
	case to != nil:
		return fmt.Sprintf(" (until %s)", to.Format(track.DateFormat))
	default:
		return ""
	}
}
