package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-import/internal/domain"
)

func TestScore_ExactAfterNormalisation(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"identical", "基本工资", "基本工资"},
		{"case", "Base Salary", "base salary"},
		{"underscore", "base_salary", "basesalary"},
		{"hyphen", "base-salary", "base salary"},
		{"surrounding space", "  基本工资 ", "基本工资"},
		{"full width", "ＡＢＣ", "abc"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Score(tt.a, tt.b)
			assert.Equal(t, ExactScore, r.Score)
			assert.True(t, r.IsExact)
			assert.Equal(t, domain.MatchExact, r.MatchType)
		})
	}
}

func TestScore_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"基本工资", "岗位工资"},
		{"姓名", "员工姓名"},
		{"abc", "xyz"},
		{"", "基本工资"},
		{"养老保险基数", "养老保险缴费基数"},
		{"meal allowance", "allowance meal"},
	}
	for _, p := range pairs {
		r := Score(p[0], p[1])
		assert.GreaterOrEqual(t, r.Score, 0.0, p)
		assert.LessOrEqual(t, r.Score, ExactScore, p)
		assert.False(t, r.IsExact, p)
	}
}

func TestScore_PartialContainment(t *testing.T) {
	r := Score("姓名", "员工姓名")

	assert.InDelta(t, 100, r.Details.Partial, 0.001)
	assert.InDelta(t, 66.67, r.Details.Ratio, 0.01)
	assert.InDelta(t, 76.67, r.Score, 0.01)
	assert.Equal(t, domain.MatchMediumFuzzy, r.MatchType)
}

func TestScore_KeywordBonusAppliedOnce(t *testing.T) {
	with := Score("岗位工资", "薪级工资")
	require.Equal(t, KeywordBonus, with.Details.Bonus)

	base := weightRatio*with.Details.Ratio + weightPartial*with.Details.Partial +
		weightTokenSort*with.Details.TokenSort + weightTokenSet*with.Details.TokenSet
	assert.InDelta(t, base+KeywordBonus, with.Score, 0.01)

	without := Score("abcd", "abxy")
	assert.Zero(t, without.Details.Bonus)
}

func TestScore_TokenOrder(t *testing.T) {
	r := Score("meal allowance", "allowance meal")
	assert.InDelta(t, 100, r.Details.TokenSort, 0.001)
	assert.InDelta(t, 100, r.Details.TokenSet, 0.001)
	assert.False(t, r.IsExact)
}

func TestScore_Symmetric(t *testing.T) {
	a, b := "住房公积金", "公积金基数"
	assert.Equal(t, Score(a, b).Score, Score(b, a).Score)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		exact bool
		want  domain.MatchType
	}{
		{100, true, domain.MatchExact},
		{100, false, domain.MatchHighFuzzy},
		{85, false, domain.MatchHighFuzzy},
		{84.99, false, domain.MatchMediumFuzzy},
		{70, false, domain.MatchMediumFuzzy},
		{55, false, domain.MatchLowFuzzy},
		{54.99, false, domain.MatchUnmapped},
		{45, false, domain.MatchUnmapped},
		{0, false, domain.MatchUnmapped},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score, tt.exact), "score %v exact %v", tt.score, tt.exact)
	}
}

func TestResult_Thresholds(t *testing.T) {
	floor := Result{Score: MinThreshold}
	assert.True(t, floor.Retained())
	assert.True(t, floor.SuggestionOnly())
	assert.False(t, floor.AutoMatch())

	low := Result{Score: LowFuzzyThreshold}
	assert.True(t, low.AutoMatch())
	assert.False(t, low.SuggestionOnly())

	assert.False(t, Result{Score: 44.99}.Retained())
}

func TestLabelScorer_BestLabelWins(t *testing.T) {
	field := domain.CanonicalField{
		Name:        domain.FieldEmployeeName,
		DisplayName: "员工姓名",
		Aliases:     []string{"姓名", "name"},
	}

	r := LabelScorer{}.ScoreField("姓名", field)
	assert.True(t, r.IsExact)
	assert.Equal(t, "姓名", r.Details.Label)

	r = LabelScorer{}.ScoreField("Employee_Name", field)
	assert.True(t, r.IsExact, "canonical name is a label for fixed fields")
}

func TestLabelScorer_SyntheticNameIgnored(t *testing.T) {
	field := domain.CanonicalField{Name: "component:basic", DisplayName: "基本工资"}

	r := LabelScorer{}.ScoreField("component:basic", field)
	assert.False(t, r.IsExact)
}
