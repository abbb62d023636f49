package export

import (
	"github.com/shopspring/decimal"

	"payroll-import/internal/domain"
)

// Row paths produced by FromRecords.
const (
	PathEmployeeCode    = "employee_code"
	PathEmployeeName    = "employee_name"
	PathIDNumber        = "id_number"
	PathDepartment      = "department"
	PathPosition        = "position"
	PathRank            = "rank"
	PathCategory        = "personnel_category"
	PathCategoryCode    = "personnel_category_code"
	PathEmploymentState = "employment_status"
	PathGrossPay        = "gross_pay"
	PathTotalDeductions = "total_deductions"
	PathNetPay          = "net_pay"
)

// baseSuffix turns an insurance type name into its base column label.
const baseSuffix = "基数"

// Row is one flattened record. Values holds scalar fields keyed by path.
// Categories holds the amounts a pivot sheet spreads into columns.
type Row struct {
	Values     map[string]any
	Categories map[string]decimal.Decimal
}

// Dataset maps a sheet source to its rows.
type Dataset map[string][]Row

// Value returns the value at path, nil when absent.
func (r Row) Value(path string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[path]
}

// FromRecords flattens period records for the given group. Earnings rows carry
// their line items as categories keyed by component name, bases rows their
// contribution bases keyed by "<insurance type>基数".
func FromRecords(records []domain.PeriodRecord, group domain.DatasetGroup) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		status := "离职"
		if rec.Active {
			status = "在职"
		}
		row := Row{
			Values: map[string]any{
				PathEmployeeCode:    rec.EmployeeCode,
				PathEmployeeName:    rec.EmployeeName,
				PathIDNumber:        rec.IDNumber,
				PathDepartment:      rec.Department,
				PathPosition:        rec.Position,
				PathRank:            rec.Rank,
				PathCategory:        rec.Category,
				PathCategoryCode:    rec.CategoryCode,
				PathEmploymentState: status,
				PathGrossPay:        rec.GrossPay,
				PathTotalDeductions: rec.TotalDeductions,
				PathNetPay:          rec.NetPay,
			},
		}

		switch group {
		case domain.GroupEarnings:
			row.Categories = make(map[string]decimal.Decimal, len(rec.Items))
			for _, it := range rec.Items {
				row.Categories[it.Name] = row.Categories[it.Name].Add(it.Amount)
			}
		case domain.GroupBases:
			row.Categories = make(map[string]decimal.Decimal, len(rec.Bases))
			for _, b := range rec.Bases {
				key := b.Name + baseSuffix
				row.Categories[key] = row.Categories[key].Add(b.Base)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
