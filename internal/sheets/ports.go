package sheets

import (
	"context"
	"fmt"
	"time"

	"mypgrade/internal/core"
)

// Ports for outbound adapters.
type (
	// DashboardWriter replaces the exported dashboard table with d.
	DashboardWriter interface {
		WriteDashboard(ctx context.Context, d core.Dashboard, at time.Time) (rangeRef string, err error)
	}
)

// Header is the first row of the exported table.
var Header = []any{"Subject", "Name", "A", "B", "C", "D", "Total", "Grade"}

// DashboardRows lays out the dashboard as spreadsheet rows: a header, one
// row per subject, a blank row, then the GPA and points summary.
func DashboardRows(d core.Dashboard, at time.Time) [][]any {
	rows := make([][]any, 0, len(d.Subjects)+5)
	rows = append(rows, Header)
	for _, s := range d.Subjects {
		rows = append(rows, []any{
			s.ShortName,
			s.Name,
			s.Averages[core.CriterionA],
			s.Averages[core.CriterionB],
			s.Averages[core.CriterionC],
			s.Averages[core.CriterionD],
			s.Total,
			s.Grade,
		})
	}
	rows = append(rows,
		[]any{},
		[]any{"GPA", fmt.Sprintf("%.2f", d.GPA)},
		[]any{"Total points", d.TotalPoints, "of", d.MaxPoints},
		[]any{"Updated", at.UTC().Format(time.RFC3339)},
	)
	return rows
}
