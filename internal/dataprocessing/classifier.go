package dataprocessing

import (
	"strings"

	"sheetpulse/pkg/contracts/domain"
)

// keywordRules are checked in order; the first rule with a matching term wins.
var keywordRules = []struct {
	role  domain.KeywordRole
	terms []string
}{
	{domain.KeywordDemand, []string{"demand", "requirement", "need", "request", "order"}},
	{domain.KeywordSupply, []string{"supply", "available", "stock", "inventory", "resource"}},
	{domain.KeywordTagPipeline, []string{"tag", "pipeline", "stage", "phase", "status", "progress"}},
}

var dateLabelTerms = []string{"date", "time"}

// pipelineStatusTerms select the column the pipeline status chart counts.
var pipelineStatusTerms = []string{"status", "stage", "phase", "state", "pipeline"}

// Classify assigns a type role, a date-like flag and a keyword role to every
// column of t, in column order. It is recomputed from cell values on every call.
func Classify(t *domain.Table) domain.ColumnRoleMap {
	roles := make([]domain.ColumnRole, t.NumColumns())
	for i, label := range t.Columns {
		values := t.Column(i)
		roles[i] = domain.ColumnRole{
			Label:    label,
			Index:    i,
			Type:     TypeRoleOf(values),
			DateLike: IsDateLike(label, values),
			Keyword:  KeywordRoleOf(label),
		}
	}
	return domain.ColumnRoleMap{Columns: roles}
}

// TypeRoleOf returns numeric when every present value is a number, categorical
// when the column is not numeric and holds string values, none otherwise.
func TypeRoleOf(values []any) domain.TypeRole {
	present, numeric, strs := 0, true, 0
	for _, v := range values {
		if IsAbsent(v) {
			continue
		}
		present++
		if _, ok := ParseNumber(v); !ok {
			numeric = false
		}
		if _, ok := v.(string); ok {
			strs++
		}
	}
	switch {
	case present > 0 && numeric:
		return domain.TypeNumeric
	case strs > 0:
		return domain.TypeCategorical
	default:
		return domain.TypeNone
	}
}

// IsDateLike reports whether the label names a date or time and at least one
// present value parses as one.
func IsDateLike(label string, values []any) bool {
	if !containsAny(label, dateLabelTerms) {
		return false
	}
	for _, v := range values {
		if IsAbsent(v) {
			continue
		}
		if _, ok := ParseDate(v); ok {
			return true
		}
	}
	return false
}

// KeywordRoleOf buckets a label by case-insensitive substring match.
func KeywordRoleOf(label string) domain.KeywordRole {
	for _, rule := range keywordRules {
		if containsAny(label, rule.terms) {
			return rule.role
		}
	}
	return domain.KeywordOther
}

// PipelineStatusColumn returns the leftmost column whose label names a status,
// or the first categorical column with generic set to true.
func PipelineStatusColumn(roles domain.ColumnRoleMap) (col domain.ColumnRole, generic bool, ok bool) {
	for _, c := range roles.Columns {
		if containsAny(c.Label, pipelineStatusTerms) {
			return c, false, true
		}
	}
	if c, found := roles.FirstCategorical(); found {
		return c, true, true
	}
	return domain.ColumnRole{}, false, false
}

func containsAny(label string, terms []string) bool {
	lower := strings.ToLower(label)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
