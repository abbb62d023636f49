package similarity

import (
	"strings"

	"payroll-import/internal/domain"
)

// keywords are payroll terms whose presence on both sides earns KeywordBonus.
// Entries are stored in compact form (lower case, no separators).
var keywords = []string{
	// amounts and earnings
	"工资", "薪资", "薪酬", "薪级", "岗位", "绩效", "奖金", "奖励", "津贴", "补贴", "补助", "补发", "应发", "实发", "合计",
	// deductions and contributions
	"扣除", "扣款", "代扣", "个税", "所得税", "公积金", "保险", "养老", "医疗", "失业", "工伤", "生育", "年金", "基数",
	// english
	"salary", "wage", "pay", "allowance", "subsidy", "bonus", "deduction", "tax", "insurance",
	"pension", "medical", "fund", "base", "amount",
}

func sharesKeyword(a, b string) bool {
	for _, kw := range keywords {
		if strings.Contains(a, kw) && strings.Contains(b, kw) {
			return true
		}
	}
	return false
}

// Scorer scores one source column against one canonical field. Implementations
// must be safe for concurrent use.
type Scorer interface {
	ScoreField(source string, field domain.CanonicalField) Result
}

// LabelScorer scores a column against every label of a field and keeps the best.
type LabelScorer struct{}

// Default is the scorer used when none is configured.
var Default Scorer = LabelScorer{}

// ScoreField implements Scorer.
func (LabelScorer) ScoreField(source string, field domain.CanonicalField) Result {
	labels := field.Labels()
	if !strings.Contains(field.Name, ":") {
		labels = append(labels, field.Name)
	}

	var best Result
	for i, label := range labels {
		r := Score(source, label)
		r.Details.Label = label
		if i == 0 || r.Score > best.Score || (r.IsExact && !best.IsExact) {
			best = r
		}
		if best.IsExact {
			break
		}
	}
	return best
}
