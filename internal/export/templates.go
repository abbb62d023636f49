package export

import (
	"payroll-import/internal/domain"
)

// SourceRecords is the dataset key of the flattened period records.
const SourceRecords = "records"

var identityFields = []FieldTemplate{
	{Label: "员工编号", Path: PathEmployeeCode, Width: 12, Kind: KindText},
	{Label: "员工姓名", Path: PathEmployeeName, Width: 12, Kind: KindText},
	{Label: "身份证号", Path: PathIDNumber, Width: 22, Kind: KindText},
}

// Options tune the built-in templates.
type Options struct {
	// Order is the fixed order of pivot categories, usually the catalog order
	// of components or insurance types.
	Order []string
	// IncludeZero keeps numeric columns that are zero on every row.
	IncludeZero bool
}

// ForGroup returns the built-in template of a dataset group. Header labels
// match the catalog, so exported workbooks import back unchanged.
func ForGroup(group domain.DatasetGroup, opts Options) Template {
	switch group {
	case domain.GroupEarnings:
		return Template{
			Name: "payroll_details",
			Sheets: []SheetTemplate{
				{
					Name:   "工资明细",
					Source: SourceRecords,
					Mode:   ModePivot,
					Fields: append(append([]FieldTemplate(nil), identityFields...),
						FieldTemplate{Label: "部门", Path: PathDepartment, Width: 14, Kind: KindText},
						FieldTemplate{Label: "人员类别", Path: PathCategory, Width: 12, Kind: KindText},
					),
					Pivot: &PivotTemplate{Order: opts.Order, Width: 12, Kind: KindNumber},
					Summary: []FieldTemplate{
						{Label: "应发合计", Path: PathGrossPay, Width: 14, Kind: KindNumber},
						{Label: "扣款合计", Path: PathTotalDeductions, Width: 14, Kind: KindNumber},
						{Label: "实发合计", Path: PathNetPay, Width: 14, Kind: KindNumber},
					},
					FilterZeroColumns: !opts.IncludeZero,
				},
				SummarySheet,
			},
		}
	case domain.GroupBases:
		return Template{
			Name: "contribution_bases",
			Sheets: []SheetTemplate{{
				Name:   "缴费基数",
				Source: SourceRecords,
				Mode:   ModePivot,
				Fields: append(append([]FieldTemplate(nil), identityFields...),
					FieldTemplate{Label: "部门", Path: PathDepartment, Width: 14, Kind: KindText},
				),
				Pivot:             &PivotTemplate{Order: opts.Order, Width: 14, Kind: KindNumber},
				FilterZeroColumns: !opts.IncludeZero,
			}},
		}
	case domain.GroupJob:
		return Template{
			Name: "job_assignments",
			Sheets: []SheetTemplate{{
				Name:   "职务信息",
				Source: SourceRecords,
				Mode:   ModeStatic,
				Fields: append(append([]FieldTemplate(nil), identityFields...),
					FieldTemplate{Label: "部门", Path: PathDepartment, Width: 14, Kind: KindText},
					FieldTemplate{Label: "职位", Path: PathPosition, Width: 14, Kind: KindText},
					FieldTemplate{Label: "职级", Path: PathRank, Width: 10, Kind: KindText},
					FieldTemplate{Label: "员工状态", Path: PathEmploymentState, Width: 10, Kind: KindText},
				),
			}},
		}
	default:
		return Template{
			Name: "employee_categories",
			Sheets: []SheetTemplate{{
				Name:   "人员类别",
				Source: SourceRecords,
				Mode:   ModeStatic,
				Fields: append(append([]FieldTemplate(nil), identityFields...),
					FieldTemplate{Label: "部门", Path: PathDepartment, Width: 14, Kind: KindText},
					FieldTemplate{Label: "人员类别", Path: PathCategory, Width: 12, Kind: KindText},
				),
			}},
		}
	}
}

// Build flattens records for group and adds the summary rows used by the
// built-in templates.
func Build(records []domain.PeriodRecord, group domain.DatasetGroup) Dataset {
	data := Dataset{SourceRecords: FromRecords(records, group)}
	if group == domain.GroupEarnings {
		data[SourceSummary] = SummaryRows(Summarize(records))
	}
	return data
}
