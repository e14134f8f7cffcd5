package domain

// TypeRole is the value-based classification of a column.
type TypeRole string

const (
	TypeNumeric     TypeRole = "numeric"
	TypeCategorical TypeRole = "categorical"
	TypeNone        TypeRole = "none"
)

// KeywordRole is the label-based domain bucket of a column.
type KeywordRole string

const (
	KeywordDemand      KeywordRole = "demand"
	KeywordSupply      KeywordRole = "supply"
	KeywordTagPipeline KeywordRole = "tag-pipeline"
	KeywordOther       KeywordRole = "other"
)

// ColumnRole carries the independent type and keyword classification of one column.
type ColumnRole struct {
	Label    string      `json:"label"`
	Index    int         `json:"index"`
	Type     TypeRole    `json:"type"`
	DateLike bool        `json:"date_like"`
	Keyword  KeywordRole `json:"keyword"`
}

// IsNumeric reports whether the column has the numeric type role.
func (c ColumnRole) IsNumeric() bool { return c.Type == TypeNumeric }

// IsCategorical reports whether the column has the categorical type role.
func (c ColumnRole) IsCategorical() bool { return c.Type == TypeCategorical }

// ColumnRoleMap lists column roles in table column order.
type ColumnRoleMap struct {
	Columns []ColumnRole `json:"columns"`
}

// FirstNumeric returns the leftmost numeric column.
func (m ColumnRoleMap) FirstNumeric() (ColumnRole, bool) {
	return m.first(ColumnRole.IsNumeric)
}

// FirstCategorical returns the leftmost categorical column.
func (m ColumnRoleMap) FirstCategorical() (ColumnRole, bool) {
	return m.first(ColumnRole.IsCategorical)
}

// FirstDateLike returns the leftmost date-like column.
func (m ColumnRoleMap) FirstDateLike() (ColumnRole, bool) {
	return m.first(func(c ColumnRole) bool { return c.DateLike })
}

// Numeric returns every numeric column in order.
func (m ColumnRoleMap) Numeric() []ColumnRole {
	return m.filter(ColumnRole.IsNumeric)
}

// Buckets groups labels by keyword role, each bucket in column order.
func (m ColumnRoleMap) Buckets() KeywordBuckets {
	b := KeywordBuckets{
		Demand:      []string{},
		Supply:      []string{},
		TagPipeline: []string{},
		Other:       []string{},
	}
	for _, c := range m.Columns {
		switch c.Keyword {
		case KeywordDemand:
			b.Demand = append(b.Demand, c.Label)
		case KeywordSupply:
			b.Supply = append(b.Supply, c.Label)
		case KeywordTagPipeline:
			b.TagPipeline = append(b.TagPipeline, c.Label)
		default:
			b.Other = append(b.Other, c.Label)
		}
	}
	return b
}

func (m ColumnRoleMap) first(pred func(ColumnRole) bool) (ColumnRole, bool) {
	for _, c := range m.Columns {
		if pred(c) {
			return c, true
		}
	}
	return ColumnRole{}, false
}

func (m ColumnRoleMap) filter(pred func(ColumnRole) bool) []ColumnRole {
	var out []ColumnRole
	for _, c := range m.Columns {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// KeywordBuckets lists column labels per keyword role.
type KeywordBuckets struct {
	Demand      []string `json:"demand"`
	Supply      []string `json:"supply"`
	TagPipeline []string `json:"tag_pipeline"`
	Other       []string `json:"other"`
}
