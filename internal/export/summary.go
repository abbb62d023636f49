package export

import (
	"sort"

	"github.com/shopspring/decimal"

	"payroll-import/internal/domain"
)

// Uncategorized labels records without a personnel category.
const Uncategorized = "未分类"

// SourceSummary is the dataset key of the per-category summary rows.
const SourceSummary = "summary"

// CategorySummary aggregates the pay of one personnel category. Averages and
// sums are rounded to cents.
type CategorySummary struct {
	Category      string          `json:"category"`
	Count         int             `json:"count"`
	AvgGross      decimal.Decimal `json:"avg_gross_pay"`
	AvgDeductions decimal.Decimal `json:"avg_deductions"`
	AvgNet        decimal.Decimal `json:"avg_net_pay"`
	MinGross      decimal.Decimal `json:"min_gross_pay"`
	MaxGross      decimal.Decimal `json:"max_gross_pay"`
	TotalGross    decimal.Decimal `json:"total_gross_pay"`
	TotalNet      decimal.Decimal `json:"total_net_pay"`
}

// Summarize groups records by personnel category, largest group first and
// ties by name.
func Summarize(records []domain.PeriodRecord) []CategorySummary {
	type acc struct {
		count                  int
		gross, deductions, net decimal.Decimal
		min, max               decimal.Decimal
	}
	groups := map[string]*acc{}
	for _, rec := range records {
		name := rec.Category
		if name == "" {
			name = Uncategorized
		}
		a, ok := groups[name]
		if !ok {
			a = &acc{min: rec.GrossPay, max: rec.GrossPay}
			groups[name] = a
		}
		a.count++
		a.gross = a.gross.Add(rec.GrossPay)
		a.deductions = a.deductions.Add(rec.TotalDeductions)
		a.net = a.net.Add(rec.NetPay)
		if rec.GrossPay.LessThan(a.min) {
			a.min = rec.GrossPay
		}
		if rec.GrossPay.GreaterThan(a.max) {
			a.max = rec.GrossPay
		}
	}

	out := make([]CategorySummary, 0, len(groups))
	for name, a := range groups {
		n := decimal.NewFromInt(int64(a.count))
		out = append(out, CategorySummary{
			Category:      name,
			Count:         a.count,
			AvgGross:      a.gross.Div(n).Round(2),
			AvgDeductions: a.deductions.Div(n).Round(2),
			AvgNet:        a.net.Div(n).Round(2),
			MinGross:      a.min.Round(2),
			MaxGross:      a.max.Round(2),
			TotalGross:    a.gross.Round(2),
			TotalNet:      a.net.Round(2),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Summary row paths.
const (
	pathSummaryCategory   = "category"
	pathSummaryCount      = "count"
	pathSummaryAvgGross   = "avg_gross_pay"
	pathSummaryAvgDeduct  = "avg_deductions"
	pathSummaryAvgNet     = "avg_net_pay"
	pathSummaryMinGross   = "min_gross_pay"
	pathSummaryMaxGross   = "max_gross_pay"
	pathSummaryTotalGross = "total_gross_pay"
	pathSummaryTotalNet   = "total_net_pay"
)

// SummaryRows renders summaries as rows followed by a grand total row.
func SummaryRows(summaries []CategorySummary) []Row {
	rows := make([]Row, 0, len(summaries)+1)
	var count int
	var gross, net decimal.Decimal
	for _, s := range summaries {
		rows = append(rows, Row{Values: map[string]any{
			pathSummaryCategory:   s.Category,
			pathSummaryCount:      s.Count,
			pathSummaryAvgGross:   s.AvgGross,
			pathSummaryAvgDeduct:  s.AvgDeductions,
			pathSummaryAvgNet:     s.AvgNet,
			pathSummaryMinGross:   s.MinGross,
			pathSummaryMaxGross:   s.MaxGross,
			pathSummaryTotalGross: s.TotalGross,
			pathSummaryTotalNet:   s.TotalNet,
		}})
		count += s.Count
		gross = gross.Add(s.TotalGross)
		net = net.Add(s.TotalNet)
	}
	rows = append(rows, Row{Values: map[string]any{
		pathSummaryCategory:   "总计",
		pathSummaryCount:      count,
		pathSummaryTotalGross: gross,
		pathSummaryTotalNet:   net,
	}})
	return rows
}

// SummarySheet lays out the per-category summary.
var SummarySheet = SheetTemplate{
	Name:   "类别汇总",
	Source: SourceSummary,
	Mode:   ModeStatic,
	Fields: []FieldTemplate{
		{Label: "人员类别", Path: pathSummaryCategory, Width: 16, Kind: KindText},
		{Label: "人数", Path: pathSummaryCount, Width: 8, Kind: KindNumber},
		{Label: "平均应发", Path: pathSummaryAvgGross, Width: 14, Kind: KindNumber},
		{Label: "平均扣除", Path: pathSummaryAvgDeduct, Width: 14, Kind: KindNumber},
		{Label: "平均实发", Path: pathSummaryAvgNet, Width: 14, Kind: KindNumber},
		{Label: "最低应发", Path: pathSummaryMinGross, Width: 14, Kind: KindNumber},
		{Label: "最高应发", Path: pathSummaryMaxGross, Width: 14, Kind: KindNumber},
		{Label: "类别应发总额", Path: pathSummaryTotalGross, Width: 16, Kind: KindNumber},
		{Label: "类别实发总额", Path: pathSummaryTotalNet, Width: 16, Kind: KindNumber},
	},
}
