package academic

import (
	"math"

	"github.com/shopspring/decimal"
)

// OverallLabel names the synthetic portfolio row prepended by Summarize.
const OverallLabel = "Overall"

// HostelRoster carries one hostel's derived due states into aggregation.
type HostelRoster struct {
	HostelID   string
	HostelName string
	DueStates  []DueState
}

// HostelSummary is one aggregated dashboard row.
type HostelSummary struct {
	HostelID         string          `json:"hostel_id,omitempty"`
	HostelName       string          `json:"hostel_name"`
	TotalStudents    int             `json:"total_students"`
	StudentsWithDues int             `json:"students_with_dues"`
	TotalDueAmount   decimal.Decimal `json:"total_due_amount"`
	PctWithDues      int             `json:"percentage_with_dues"`
}

// Summarize folds per-student due states into per-hostel rows and prepends a
// portfolio "Overall" row recomputed from the summed counts. Input order is
// preserved and inputs are never mutated. A hostel with no students reports
// zero percent rather than dividing by zero.
func Summarize(rosters []HostelRoster) []HostelSummary {
	overall := HostelSummary{HostelName: OverallLabel, TotalDueAmount: decimal.Zero}
	rows := make([]HostelSummary, 0, len(rosters)+1)

	for _, roster := range rosters {
		row := HostelSummary{
			HostelID:       roster.HostelID,
			HostelName:     roster.HostelName,
			TotalStudents:  len(roster.DueStates),
			TotalDueAmount: decimal.Zero,
		}
		for _, state := range roster.DueStates {
			if state.HasDues {
				row.StudentsWithDues++
				row.TotalDueAmount = row.TotalDueAmount.Add(state.DueAmount)
			}
		}
		row.PctWithDues = percentage(row.StudentsWithDues, row.TotalStudents)
		rows = append(rows, row)

		overall.TotalStudents += row.TotalStudents
		overall.StudentsWithDues += row.StudentsWithDues
		overall.TotalDueAmount = overall.TotalDueAmount.Add(row.TotalDueAmount)
	}

	overall.PctWithDues = percentage(overall.StudentsWithDues, overall.TotalStudents)
	return append([]HostelSummary{overall}, rows...)
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
