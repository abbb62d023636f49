package validator

import (
	"fmt"
	"testing"

	"payroll-import/internal/domain"
)

func benchRows(n int) []domain.ParsedRow {
	rows := make([]domain.ParsedRow, n)
	for i := range rows {
		rows[i] = row(i+2,
			"姓名", fmt.Sprintf("员工%d", i),
			"身份证号", "11010119900307001X",
			"基本工资", float64(5000+i),
			"餐补", "300",
		)
	}
	return rows
}

func BenchmarkValidateRows(b *testing.B) {
	v := NewValidator()
	rows := benchRows(1000)
	fields := earningsFields()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.ValidateRows(rows, domain.GroupEarnings, fields)
	}
}

func BenchmarkPatternRule(b *testing.B) {
	cell := domain.Text("11010119900307001X")
	rule := Rule{Field: domain.FieldIDNumber, Kind: RulePattern, Pattern: idNumberRegex}
	for i := 0; i < b.N; i++ {
		_ = checkRule(rule, cell, true)
	}
}

func BenchmarkDirectRegex(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = idNumberRegex.MatchString("11010119900307001X")
	}
}
