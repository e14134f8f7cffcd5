package domain

// ChartStatus is the outcome of building one chart.
type ChartStatus string

const (
	ChartOK    ChartStatus = "ok"
	ChartInfo  ChartStatus = "info"
	ChartError ChartStatus = "error"
)

// Chart identifiers, in dashboard order.
const (
	ChartTrend        = "trend"
	ChartDistribution = "distribution"
	ChartComparison   = "comparison"
	ChartPipeline     = "pipeline"
	ChartTimeSeries   = "timeseries"
	ChartCorrelation  = "correlation"
)

// ChartResult is a figure, an informational placeholder or a local error for one chart.
type ChartResult struct {
	ID      string      `json:"id"`
	Title   string      `json:"title"`
	Status  ChartStatus `json:"status"`
	Message string      `json:"message,omitempty"`
	Figure  *Figure     `json:"figure,omitempty"`
}

// Figure is a renderer-neutral chart description (plotly-compatible field names).
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one data series of a figure.
type Trace struct {
	Type        string       `json:"type"`
	Name        string       `json:"name,omitempty"`
	Mode        string       `json:"mode,omitempty"`
	Orientation string       `json:"orientation,omitempty"`
	X           []any        `json:"x,omitempty"`
	Y           []any        `json:"y,omitempty"`
	Z           [][]*float64 `json:"z,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Values      []float64    `json:"values,omitempty"`
	Hole        float64      `json:"hole,omitempty"`
	ColorScale  string       `json:"colorscale,omitempty"`
	Marker      *Marker      `json:"marker,omitempty"`
}

// Marker sets trace colours: Color for a single series, Colors per slice or bar.
type Marker struct {
	Color  string   `json:"color,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

// Layout holds figure-level presentation settings.
type Layout struct {
	Title      string `json:"title"`
	XAxisTitle string `json:"xaxis_title,omitempty"`
	YAxisTitle string `json:"yaxis_title,omitempty"`
	Height     int    `json:"height,omitempty"`
}

// KPI is one headline metric.
type KPI struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// NumericSummary describes one numeric column, empty cells excluded.
type NumericSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// SummaryStats describes a cleaned table.
type SummaryStats struct {
	TotalRows          int               `json:"total_rows"`
	TotalColumns       int               `json:"total_columns"`
	NumericColumns     int               `json:"numeric_columns"`
	CategoricalColumns int               `json:"categorical_columns"`
	MissingValues      int               `json:"missing_values"`
	ColumnTypes        map[string]string `json:"column_types"`
	Numeric            []NumericSummary  `json:"numeric_summary"`
}

// Dashboard is the full set of derived views for one sheet.
type Dashboard struct {
	Sheet   string         `json:"sheet"`
	KPIs    []KPI          `json:"kpis"`
	Summary SummaryStats   `json:"summary"`
	Roles   ColumnRoleMap  `json:"roles"`
	Buckets KeywordBuckets `json:"buckets"`
	Charts  []ChartResult  `json:"charts"`
}
