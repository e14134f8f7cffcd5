package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"sheetpulse/internal/dataprocessing"
	"sheetpulse/pkg/contracts/domain"
)

const (
	colorPrimary = "#0066CC"
	colorAccent  = "#00A0E6"
	chartHeight  = 400
)

var palette = []string{"#0066CC", "#00A0E6", "#004499", "#28A745", "#FFC107", "#DC3545", "#6C757D", "#17A2B8"}

// Placeholder messages for charts whose required columns are missing.
const (
	MsgNoNumericTrend        = "No numeric columns found for trend analysis."
	MsgNoCategorical         = "No categorical columns found for distribution analysis."
	MsgNoComparison          = "Need both categorical and numeric columns for comparison."
	MsgNoPipelineColumn      = "No categorical columns found for pipeline status."
	MsgNoTimeSeries          = "No suitable date/time columns found for time series analysis."
	MsgNotEnoughForCorrelate = "Need at least 2 numeric columns for correlation analysis."
)

// Observer is notified of every chart outcome.
type Observer interface {
	ChartBuilt(ctx context.Context, chartID string, status domain.ChartStatus)
}

// Options tune the aggregates behind the charts.
type Options struct {
	TopN        int
	GenericTopN int
}

// DefaultOptions returns the standard chart limits.
func DefaultOptions() Options {
	return Options{TopN: 10, GenericTopN: 5}
}

// Builder derives the dashboard for one sheet.
type Builder struct {
	opts     Options
	observer Observer
	logger   *slog.Logger
}

// NewBuilder creates a Builder. observer may be nil.
func NewBuilder(opts Options, observer Observer, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		opts:     opts,
		observer: observer,
		logger:   logger.With(slog.String("component", "dashboard")),
	}
}

type chartFunc func(t *domain.Table, roles domain.ColumnRoleMap) domain.ChartResult

// Build classifies the sheet and builds every chart. A chart that fails or
// panics is reported in its own result and does not affect the others.
func (b *Builder) Build(ctx context.Context, sheet *domain.Sheet) domain.Dashboard {
	t := sheet.Table
	roles := dataprocessing.Classify(t)

	charts := []struct {
		id    string
		title string
		build chartFunc
	}{
		{domain.ChartTrend, "Trend Analysis", b.trend},
		{domain.ChartDistribution, "Category Distribution", b.distribution},
		{domain.ChartComparison, "Comparison Analysis", b.comparison},
		{domain.ChartPipeline, "Pipeline Status", b.pipeline},
		{domain.ChartTimeSeries, "Time Series Analysis", b.timeSeries},
		{domain.ChartCorrelation, "Correlation Matrix", b.correlation},
	}

	d := domain.Dashboard{
		Sheet:   sheet.Name,
		KPIs:    KPIs(t, roles),
		Summary: dataprocessing.Summarize(t, roles),
		Roles:   roles,
		Buckets: roles.Buckets(),
		Charts:  make([]domain.ChartResult, 0, len(charts)),
	}
	for _, c := range charts {
		result := b.safeBuild(ctx, c.id, c.title, c.build, t, roles)
		if b.observer != nil {
			b.observer.ChartBuilt(ctx, c.id, result.Status)
		}
		d.Charts = append(d.Charts, result)
	}
	return d
}

func (b *Builder) safeBuild(ctx context.Context, id, title string, build chartFunc, t *domain.Table, roles domain.ColumnRoleMap) (result domain.ChartResult) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "Chart build panicked",
				slog.String("chart", id),
				slog.Any("panic", r))
			result = errorResult(id, title, fmt.Errorf("%v", r))
		}
	}()

	result = build(t, roles)
	result.ID = id
	if result.Title == "" {
		result.Title = title
	}
	return result
}

func infoResult(title, msg string) domain.ChartResult {
	return domain.ChartResult{Title: title, Status: domain.ChartInfo, Message: msg}
}

func errorResult(id, title string, err error) domain.ChartResult {
	return domain.ChartResult{
		ID:      id,
		Title:   title,
		Status:  domain.ChartError,
		Message: fmt.Sprintf("Error creating %s chart: %v", id, err),
	}
}

func figureResult(fig *domain.Figure) domain.ChartResult {
	return domain.ChartResult{Title: fig.Layout.Title, Status: domain.ChartOK, Figure: fig}
}

func (b *Builder) trend(t *domain.Table, roles domain.ColumnRoleMap) domain.ChartResult {
	col, ok := roles.FirstNumeric()
	if !ok {
		return infoResult("", MsgNoNumericTrend)
	}

	x := make([]any, t.NumRows())
	y := make([]any, t.NumRows())
	for i, row := range t.Rows {
		x[i] = i
		if f, ok := dataprocessing.ParseNumber(row[col.Index]); ok {
			y[i] = f
		}
	}
	return figureResult(&domain.Figure{
		Data: []domain.Trace{{
			Type: "scatter", Mode: "lines+markers", Name: col.Label,
			X: x, Y: y, Marker: &domain.Marker{Color: colorAccent},
		}},
		Layout: domain.Layout{
			Title:      "Trend Analysis - " + col.Label,
			XAxisTitle: "Record Index",
			YAxisTitle: col.Label,
			Height:     chartHeight,
		},
	})
}

func (b *Builder) distribution(t *domain.Table, roles domain.ColumnRoleMap) domain.ChartResult {
	col, ok := roles.FirstCategorical()
	if !ok {
		return infoResult("", MsgNoCategorical)
	}

	counts := dataprocessing.ValueCounts(t, col.Index, b.opts.TopN)
	labels := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		labels[i] = c.Value
		values[i] = float64(c.Count)
	}
	return figureResult(&domain.Figure{
		Data: []domain.Trace{{
			Type: "pie", Labels: labels, Values: values, Hole: 0.3,
			Marker: &domain.Marker{Colors: palette},
		}},
		Layout: domain.Layout{Title: "Distribution - " + col.Label, Height: chartHeight},
	})
}

func (b *Builder) comparison(t *domain.Table, roles domain.ColumnRoleMap) domain.ChartResult {
	cat, okCat := roles.FirstCategorical()
	num, okNum := roles.FirstNumeric()
	if !okCat || !okNum {
		return infoResult("", MsgNoComparison)
	}

	groups := dataprocessing.GroupedSum(t, cat.Index, num.Index, b.opts.TopN)
	x := make([]any, len(groups))
	y := make([]any, len(groups))
	for i, g := range groups {
		x[i] = g.Key
		y[i] = g.Total
	}
	return figureResult(&domain.Figure{
		Data: []domain.Trace{{Type: "bar", X: x, Y: y, Marker: &domain.Marker{Color: colorPrimary}}},
		Layout: domain.Layout{
			Title:      num.Label + " by " + cat.Label,
			XAxisTitle: cat.Label,
			YAxisTitle: num.Label,
			Height:     chartHeight,
		},
	})
}

func (b *Builder) pipeline(t *domain.Table, roles domain.ColumnRoleMap) domain.ChartResult {
	col, generic, ok := dataprocessing.PipelineStatusColumn(roles)
	if !ok {
		return infoResult("", MsgNoPipelineColumn)
	}

	if generic {
		counts := dataprocessing.ValueCounts(t, col.Index, b.opts.GenericTopN)
		x := make([]any, len(counts))
		y := make([]any, len(counts))
		for i, c := range counts {
			x[i] = c.Value
			y[i] = c.Count
		}
		return figureResult(&domain.Figure{
			Data: []domain.Trace{{Type: "bar", X: x, Y: y, Marker: &domain.Marker{Colors: palette}}},
			Layout: domain.Layout{
				Title:      "Status Overview - " + col.Label,
				XAxisTitle: col.Label,
				YAxisTitle: "Count",
				Height:     chartHeight,
			},
		})
	}

	counts := dataprocessing.ValueCounts(t, col.Index, 0)
	x := make([]any, len(counts))
	y := make([]any, len(counts))
	for i, c := range counts {
		x[i] = c.Count
		y[i] = c.Value
	}
	return figureResult(&domain.Figure{
		Data: []domain.Trace{{
			Type: "bar", Orientation: "h", X: x, Y: y,
			Marker: &domain.Marker{Colors: palette},
		}},
		Layout: domain.Layout{
			Title:      "Pipeline Status - " + col.Label,
			XAxisTitle: "Count",
			YAxisTitle: "Status",
			Height:     chartHeight,
		},
	})
}

func (b *Builder) timeSeries(t *domain.Table, roles domain.ColumnRoleMap) domain.ChartResult {
	date, okDate := roles.FirstDateLike()
	num, okNum := roles.FirstNumeric()
	if !okDate || !okNum {
		return infoResult("", MsgNoTimeSeries)
	}

	type point struct {
		at    time.Time
		value any
	}
	points := make([]point, 0, t.NumRows())
	for _, row := range t.Rows {
		at, ok := dataprocessing.ParseDate(row[date.Index])
		if !ok {
			continue
		}
		p := point{at: at}
		if f, ok := dataprocessing.ParseNumber(row[num.Index]); ok {
			p.value = f
		}
		points = append(points, p)
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })

	x := make([]any, len(points))
	y := make([]any, len(points))
	for i, p := range points {
		x[i] = p.at.Format(domain.DateTimeLayout)
		y[i] = p.value
	}
	return figureResult(&domain.Figure{
		Data: []domain.Trace{{
			Type: "scatter", Mode: "lines+markers", Name: num.Label + " over time",
			X: x, Y: y, Marker: &domain.Marker{Color: colorPrimary},
		}},
		Layout: domain.Layout{
			Title:      fmt.Sprintf("Time Series - %s over %s", num.Label, date.Label),
			XAxisTitle: date.Label,
			YAxisTitle: num.Label,
			Height:     chartHeight,
		},
	})
}

func (b *Builder) correlation(t *domain.Table, roles domain.ColumnRoleMap) domain.ChartResult {
	numeric := roles.Numeric()
	cols := make([]int, len(numeric))
	for i, c := range numeric {
		cols[i] = c.Index
	}

	m, err := dataprocessing.Correlation(t, cols)
	if err != nil {
		return infoResult("", MsgNotEnoughForCorrelate)
	}

	axis := make([]any, len(m.Labels))
	for i, l := range m.Labels {
		axis[i] = l
	}
	return figureResult(&domain.Figure{
		Data: []domain.Trace{{
			Type: "heatmap", X: axis, Y: axis, Z: m.Values, ColorScale: "RdBu",
		}},
		Layout: domain.Layout{Title: "Correlation Matrix - Numeric Variables", Height: chartHeight},
	})
}
