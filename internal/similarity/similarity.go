// Package similarity scores how alike two column labels are on a 0..100 scale.
//
// The score blends four edit-distance metrics with fixed weights and adds a
// one-off bonus when both labels mention the same payroll keyword. Everything
// here is pure and safe for concurrent use.
package similarity

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"payroll-import/internal/domain"
)

// Thresholds used to classify scores.
const (
	ExactScore           = 100.0
	HighFuzzyThreshold   = 85.0
	MediumFuzzyThreshold = 70.0
	LowFuzzyThreshold    = 55.0
	// MinThreshold is the retention floor. Scores in [MinThreshold, LowFuzzyThreshold)
	// are kept as low-confidence suggestions only and never auto-applied.
	MinThreshold = 45.0

	KeywordBonus = 10.0
)

// Metric weights, summing to 1.
const (
	weightRatio     = 0.4
	weightPartial   = 0.3
	weightTokenSort = 0.2
	weightTokenSet  = 0.1
)

// Details exposes the individual metrics behind a score.
type Details struct {
	Ratio     float64 `json:"ratio"`
	Partial   float64 `json:"partial"`
	TokenSort float64 `json:"token_sort"`
	TokenSet  float64 `json:"token_set"`
	Bonus     float64 `json:"bonus"`
	Label     string  `json:"label,omitempty"`
}

// Result is the outcome of scoring two strings.
type Result struct {
	Score     float64          `json:"score"`
	MatchType domain.MatchType `json:"match_type"`
	IsExact   bool             `json:"is_exact"`
	Details   Details          `json:"details"`
}

// AutoMatch reports whether the score is high enough to apply a mapping.
func (r Result) AutoMatch() bool {
	return r.Score >= LowFuzzyThreshold
}

// Retained reports whether the score reaches the retention floor.
func (r Result) Retained() bool {
	return r.Score >= MinThreshold
}

// SuggestionOnly reports whether the score is retained but too weak to apply.
func (r Result) SuggestionOnly() bool {
	return r.Retained() && !r.AutoMatch()
}

// Classify maps a score onto a match type.
func Classify(score float64, exact bool) domain.MatchType {
	switch {
	case exact && score >= ExactScore:
		return domain.MatchExact
	case score >= HighFuzzyThreshold:
		return domain.MatchHighFuzzy
	case score >= MediumFuzzyThreshold:
		return domain.MatchMediumFuzzy
	case score >= LowFuzzyThreshold:
		return domain.MatchLowFuzzy
	default:
		return domain.MatchUnmapped
	}
}

// Score compares a and b.
func Score(a, b string) Result {
	ka, kb := compact(a), compact(b)
	if ka == kb {
		return Result{
			Score:     ExactScore,
			MatchType: domain.MatchExact,
			IsExact:   true,
			Details:   Details{Ratio: 100, Partial: 100, TokenSort: 100, TokenSet: 100},
		}
	}
	if ka == "" || kb == "" {
		return Result{MatchType: domain.MatchUnmapped}
	}

	ca, cb := clean(a), clean(b)
	d := Details{
		Ratio:     ratio(ca, cb),
		Partial:   partialRatio(ca, cb),
		TokenSort: tokenSortRatio(ca, cb),
		TokenSet:  tokenSetRatio(ca, cb),
	}
	score := weightRatio*d.Ratio + weightPartial*d.Partial + weightTokenSort*d.TokenSort + weightTokenSet*d.TokenSet
	if sharesKeyword(ka, kb) {
		d.Bonus = KeywordBonus
		score += KeywordBonus
	}
	score = round2(math.Min(score, ExactScore))

	return Result{
		Score:     score,
		MatchType: Classify(score, false),
		Details:   d,
	}
}

// fold applies compatibility normalisation and maps full-width runes to their
// half-width forms.
func fold(s string) string {
	return width.Fold.String(norm.NFKC.String(s))
}

// compact is the equality key: folded, lower-cased, without separators or spaces.
func compact(s string) string {
	s = strings.ToLower(fold(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '-' || r == '_' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// clean is the fuzzy form: folded, lower-cased, separators turned into single spaces.
func clean(s string) string {
	s = strings.ToLower(fold(s))
	s = strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	return 100 * levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
}

// partialRatio is the best ratio of the shorter string against every window of
// the same length in the longer one.
func partialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0
	}
	if len(ra) == len(rb) {
		return ratio(a, b)
	}
	best := 0.0
	for i := 0; i+len(ra) <= len(rb); i++ {
		r := 100 * levenshtein.RatioForStrings(ra, rb[i:i+len(ra)], levenshtein.DefaultOptions)
		if r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func sortedTokens(s string) []string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return tokens
}

func tokenSortRatio(a, b string) float64 {
	return ratio(strings.Join(sortedTokens(a), " "), strings.Join(sortedTokens(b), " "))
}

func tokenSetRatio(a, b string) float64 {
	ta, tb := toSet(strings.Fields(a)), toSet(strings.Fields(b))
	var inter, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(inter)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	t0 := strings.Join(inter, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(onlyA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(onlyB, " "))

	best := ratio(t1, t2)
	if t0 != "" {
		best = math.Max(best, math.Max(ratio(t0, t1), ratio(t0, t2)))
	}
	return best
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
