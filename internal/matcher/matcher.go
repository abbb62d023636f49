// Package matcher reconciles spreadsheet column headers with canonical fields.
//
// Every source column is scored against every candidate field before any
// selection happens. Selection then follows one of four topologies:
//
//   - one_to_one: each column takes its best field, independently of the others.
//   - one_to_many: as one_to_one, and every retained candidate is exposed.
//   - many_to_one: a field goes to the single highest scoring column that picked it.
//   - many_to_many: greedy bipartite assignment over the full score matrix.
//
// The greedy assignment is an approximation. It never swaps an earlier
// assignment for a better global total.
package matcher

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"payroll-import/internal/domain"
	"payroll-import/internal/similarity"
)

// MaxSuggestions bounds the alternatives attached to a result.
const MaxSuggestions = 3

// DefaultParallelism is used when the matcher is built with a non-positive limit.
const DefaultParallelism = 4

// Matcher scores columns against fields and selects a mapping.
type Matcher struct {
	scorer      similarity.Scorer
	parallelism int
}

// New creates a Matcher. A nil scorer falls back to similarity.Default.
func New(scorer similarity.Scorer, parallelism int) *Matcher {
	if scorer == nil {
		scorer = similarity.Default
	}
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &Matcher{scorer: scorer, parallelism: parallelism}
}

// ranked is one scored field of one column.
type ranked struct {
	field  int
	result similarity.Result
}

// Match builds a report for the given columns. Ordinary "no match" outcomes are
// data in the report; only context cancellation is returned as an error.
func (m *Matcher) Match(ctx context.Context, columns []string, fields []domain.CanonicalField, mode domain.MatchMode) (*domain.MatchReport, error) {
	if mode == "" {
		mode = domain.ModeOneToOne
	}
	if !domain.IsValidMatchMode(string(mode)) {
		return nil, fmt.Errorf("unknown match mode %q", mode)
	}

	matrix, err := m.scoreAll(ctx, columns, fields)
	if err != nil {
		return nil, err
	}

	// rankings[i] holds every field for column i, best first, ties by catalog order.
	rankings := make([][]ranked, len(columns))
	for i, row := range matrix {
		r := make([]ranked, len(row))
		for j, res := range row {
			r[j] = ranked{field: j, result: res}
		}
		sort.SliceStable(r, func(a, b int) bool {
			return r[a].result.Score > r[b].result.Score
		})
		rankings[i] = r
	}

	var assigned []int
	switch mode {
	case domain.ModeManyToOne:
		assigned = assignManyToOne(rankings)
	case domain.ModeManyToMany:
		assigned = assignGreedy(matrix)
	default:
		assigned = assignIndependent(rankings)
	}

	report := &domain.MatchReport{
		Mode:           mode,
		Results:        make([]domain.ColumnMatchResult, len(columns)),
		PairwiseScores: len(columns) * len(fields),
	}
	for i, col := range columns {
		report.Results[i] = buildResult(col, fields, matrix[i], rankings[i], assigned[i], mode == domain.ModeOneToMany)
	}

	coverRequired(report, fields)
	report.Warnings = advisories(report)
	return report, nil
}

// scoreAll fills the M×N score matrix. Columns are scored in parallel; each
// (column, field) pair is scored exactly once.
func (m *Matcher) scoreAll(ctx context.Context, columns []string, fields []domain.CanonicalField) ([][]similarity.Result, error) {
	matrix := make([][]similarity.Result, len(columns))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)
	for i := range columns {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := make([]similarity.Result, len(fields))
			for j := range fields {
				row[j] = m.scorer.ScoreField(columns[i], fields[j])
			}
			matrix[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matrix, nil
}

// assignIndependent gives every column its best auto-matchable field.
func assignIndependent(rankings [][]ranked) []int {
	assigned := make([]int, len(rankings))
	for i, r := range rankings {
		assigned[i] = -1
		if len(r) > 0 && r[0].result.AutoMatch() {
			assigned[i] = r[0].field
		}
	}
	return assigned
}

// assignManyToOne lets columns pick their best field, then keeps only the
// highest scoring column per field. Ties go to the column seen first.
func assignManyToOne(rankings [][]ranked) []int {
	assigned := assignIndependent(rankings)
	winner := make(map[int]int)
	for i, f := range assigned {
		if f < 0 {
			continue
		}
		w, ok := winner[f]
		if !ok || rankings[i][0].result.Score > rankings[w][0].result.Score {
			winner[f] = i
		}
	}
	for i, f := range assigned {
		if f >= 0 && winner[f] != i {
			assigned[i] = -1
		}
	}
	return assigned
}

type pair struct {
	col, field int
	score      float64
}

// assignGreedy repeatedly takes the highest remaining pair whose column and
// field are both free. Ties are broken by column then field order.
func assignGreedy(matrix [][]similarity.Result) []int {
	var pairs []pair
	for i, row := range matrix {
		for j, res := range row {
			if res.AutoMatch() {
				pairs = append(pairs, pair{col: i, field: j, score: res.Score})
			}
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].score > pairs[b].score
	})

	assigned := make([]int, len(matrix))
	for i := range assigned {
		assigned[i] = -1
	}
	usedField := make(map[int]bool)
	for _, p := range pairs {
		if assigned[p.col] >= 0 || usedField[p.field] {
			continue
		}
		assigned[p.col] = p.field
		usedField[p.field] = true
	}
	return assigned
}

func buildResult(column string, fields []domain.CanonicalField, scores []similarity.Result, rank []ranked, assigned int, withCandidates bool) domain.ColumnMatchResult {
	res := domain.ColumnMatchResult{SourceColumn: column, MatchType: domain.MatchUnmapped}
	if len(rank) > 0 {
		res.Score = rank[0].result.Score
	}

	if assigned >= 0 {
		f := fields[assigned]
		r := scores[assigned]
		res.MatchedField = &f
		res.Score = r.Score
		res.MatchType = similarity.Classify(r.Score, r.IsExact)
	}

	for _, c := range rank {
		if !c.result.Retained() {
			break
		}
		if withCandidates {
			res.Candidates = append(res.Candidates, domain.MatchCandidate{
				SourceColumn: column,
				Field:        fields[c.field],
				Score:        c.result.Score,
				MatchType:    similarity.Classify(c.result.Score, c.result.IsExact),
				IsExact:      c.result.IsExact,
			})
		}
		if c.field != assigned && len(res.Suggestions) < MaxSuggestions {
			res.Suggestions = append(res.Suggestions, fields[c.field])
		}
	}
	return res
}

// coverRequired checks every required field against the mapped results.
func coverRequired(report *domain.MatchReport, fields []domain.CanonicalField) {
	mapped := make(map[string]bool)
	for _, r := range report.Results {
		if r.IsMapped() {
			mapped[r.MatchedField.Name] = true
		}
	}
	seen := make(map[string]bool)
	for _, f := range fields {
		if !f.Required || seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		report.RequiredTotal++
		if mapped[f.Name] {
			report.RequiredMatched++
		} else {
			report.MissingRequired = append(report.MissingRequired, f.Name)
		}
	}
}

func advisories(report *domain.MatchReport) []string {
	var out []string
	for _, r := range report.Results {
		switch {
		case !r.IsMapped():
			out = append(out, fmt.Sprintf("column %q is not mapped", r.SourceColumn))
		case r.MatchType == domain.MatchLowFuzzy:
			out = append(out, fmt.Sprintf("column %q mapped to %q with low confidence (%.2f)", r.SourceColumn, r.MatchedField.Name, r.Score))
		}
	}
	for _, name := range report.MissingRequired {
		out = append(out, fmt.Sprintf("required field %q has no matching column", name))
	}
	return out
}
