package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/bilgisen/portal/internal/models"
	"github.com/samber/lo"
)

type FAQParams struct {
	// ActiveOnly hides inactive entries, as public views do.
	ActiveOnly bool
	Search     string
}

// FAQGroup holds the entries of one topic in display order
type FAQGroup struct {
	Topic   string            `json:"topic"`
	Entries []models.FaqEntry `json:"entries"`
}

// FAQ filters, searches and orders entries, then groups them by topic.
// Topics appear in the order of their first entry after sorting.
func FAQ(entries []models.FaqEntry, p FAQParams) []FAQGroup {
	needle := normalizeTerm(p.Search)

	filtered := lo.Filter(entries, func(e models.FaqEntry, _ int) bool {
		if p.ActiveOnly && !e.IsActive {
			return false
		}
		if needle == "" {
			return true
		}
		return containsText(e.Question, needle) || containsText(e.Answer, needle)
	})

	slices.SortStableFunc(filtered, func(a, b models.FaqEntry) int {
		return cmp.Compare(a.Order, b.Order)
	})

	groups := make([]FAQGroup, 0)
	index := make(map[string]int)
	for _, e := range filtered {
		i, ok := index[e.Topic]
		if !ok {
			i = len(groups)
			index[e.Topic] = i
			groups = append(groups, FAQGroup{Topic: e.Topic})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	return groups
}

// SearchFAQ returns active entries matching term, best-ordered first.
func SearchFAQ(entries []models.FaqEntry, term string) []models.FaqEntry {
	return lo.FlatMap(FAQ(entries, FAQParams{ActiveOnly: true, Search: term}), func(g FAQGroup, _ int) []models.FaqEntry {
		return g.Entries
	})
}

// Applications filters the application directory by category and name and
// sorts it alphabetically.
func Applications(entries []models.ApplicationEntry, category models.Category, search string) []models.ApplicationEntry {
	needle := normalizeTerm(search)

	out := lo.Filter(entries, func(e models.ApplicationEntry, _ int) bool {
		if category != "" && e.Category != category {
			return false
		}
		return needle == "" || strings.Contains(strings.ToLower(e.Name), needle)
	})

	slices.SortStableFunc(out, func(a, b models.ApplicationEntry) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}
