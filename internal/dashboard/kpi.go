package dashboard

import (
	"github.com/montanaflynn/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sheetpulse/internal/dataprocessing"
	"sheetpulse/pkg/contracts/domain"
)

var printer = message.NewPrinter(language.English)

// KPIs builds the headline metric row. With four or more numeric columns it
// reports the mean, max and total of the first three; otherwise generic facts.
func KPIs(t *domain.Table, roles domain.ColumnRoleMap) []domain.KPI {
	kpis := []domain.KPI{{Label: "Total Records", Value: printer.Sprintf("%d", t.NumRows())}}

	numeric := roles.Numeric()
	if len(numeric) < 4 {
		return append(kpis,
			domain.KPI{Label: "Total Columns", Value: printer.Sprintf("%d", t.NumColumns())},
			domain.KPI{Label: "Data Quality", Value: "Ready"},
			domain.KPI{Label: "Status", Value: "Active"},
		)
	}

	avg, _ := stats.Mean(dataprocessing.NumericValues(t, numeric[0].Index))
	maxV, _ := stats.Max(dataprocessing.NumericValues(t, numeric[1].Index))
	sum, _ := stats.Sum(dataprocessing.NumericValues(t, numeric[2].Index))

	return append(kpis,
		domain.KPI{Label: "Avg " + numeric[0].Label, Value: printer.Sprintf("%.2f", avg)},
		domain.KPI{Label: "Max " + numeric[1].Label, Value: printer.Sprintf("%.2f", maxV)},
		domain.KPI{Label: "Total " + numeric[2].Label, Value: printer.Sprintf("%.2f", sum)},
	)
}
