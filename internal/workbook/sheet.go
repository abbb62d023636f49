package workbook

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SelectSheet picks the sheet to import. An explicit hint wins when it names a
// sheet. Otherwise each alias is tried in order, first as an exact name and then
// as a fuzzy match; the first sheet is the fallback.
func SelectSheet(names []string, hint string, aliases []string) string {
	if len(names) == 0 {
		return ""
	}

	if hint != "" {
		for _, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(hint)) {
				return n
			}
		}
		aliases = append([]string{hint}, aliases...)
	}

	for _, alias := range aliases {
		for _, n := range names {
			if strings.EqualFold(strings.TrimSpace(n), alias) {
				return n
			}
		}
	}

	for _, alias := range aliases {
		ranks := fuzzy.RankFindNormalizedFold(alias, names)
		if len(ranks) == 0 {
			continue
		}
		best := ranks[0]
		for _, r := range ranks[1:] {
			if r.Distance < best.Distance || (r.Distance == best.Distance && r.OriginalIndex < best.OriginalIndex) {
				best = r
			}
		}
		return best.Target
	}

	return names[0]
}
