// Package query turns a fetched content slice into the page a listing view renders.
//
// Steps always run in the same order: status filter, search, sort, paginate.
// Every function is pure and never mutates its input slice.
package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/bilgisen/portal/internal/models"
	"github.com/bilgisen/portal/internal/utils"
	"github.com/samber/lo"
)

// StatusFilter restricts the listing to one status. StatusAny is used by admin views.
type StatusFilter string

const (
	StatusAny       StatusFilter = ""
	StatusDraft     StatusFilter = StatusFilter(models.StatusDraft)
	StatusPublished StatusFilter = StatusFilter(models.StatusPublished)
)

type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortOldest  SortKey = "oldest"
	SortPopular SortKey = "popular"
)

// ParseSortKey returns SortNewest for an empty value.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortPopular:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Params is the filter state of a listing view
type Params struct {
	Status   StatusFilter
	Kind     models.Kind
	Search   string
	Sort     SortKey
	Page     int
	PageSize int
}

// Page is the window of items a listing view renders
type Page[T any] struct {
	Items       []T `json:"items"`
	TotalItems  int `json:"total_items"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
}

// Run applies the full pipeline to items.
func Run(items []models.ContentItem, p Params) Page[models.ContentItem] {
	filtered := FilterStatus(items, p.Status)
	filtered = FilterKind(filtered, p.Kind)
	filtered = Search(filtered, p.Search)
	filtered = Sort(filtered, p.Sort)
	return Paginate(filtered, p.Page, p.PageSize)
}

// FilterStatus keeps items whose status matches the filter. StatusAny keeps everything.
func FilterStatus(items []models.ContentItem, status StatusFilter) []models.ContentItem {
	if status == StatusAny {
		return slices.Clone(items)
	}
	return lo.Filter(items, func(item models.ContentItem, _ int) bool {
		return statusOf(item) == models.Status(status)
	})
}

// FilterKind keeps items of the given kind. An empty kind keeps everything.
func FilterKind(items []models.ContentItem, kind models.Kind) []models.ContentItem {
	if kind == "" {
		return slices.Clone(items)
	}
	return lo.Filter(items, func(item models.ContentItem, _ int) bool {
		return item.Kind == kind
	})
}

// Search keeps items whose visible title or body text contains term, ignoring case.
func Search(items []models.ContentItem, term string) []models.ContentItem {
	needle := normalizeTerm(term)
	if needle == "" {
		return slices.Clone(items)
	}
	return lo.Filter(items, func(item models.ContentItem, _ int) bool {
		return Matches(item, needle)
	})
}

// Matches reports whether the tag-stripped title or body contains the already
// normalized needle.
func Matches(item models.ContentItem, needle string) bool {
	return containsText(item.Title, needle) || containsText(item.Body, needle)
}

// Sort orders items by key. Equal keys keep their relative order.
func Sort(items []models.ContentItem, key SortKey) []models.ContentItem {
	out := slices.Clone(items)
	switch key {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b models.ContentItem) int {
			return a.PublishedAt.Compare(b.PublishedAt)
		})
	case SortPopular:
		slices.SortStableFunc(out, func(a, b models.ContentItem) int {
			return cmp.Compare(b.ViewCount, a.ViewCount)
		})
	default:
		slices.SortStableFunc(out, func(a, b models.ContentItem) int {
			return b.PublishedAt.Compare(a.PublishedAt)
		})
	}
	return out
}

// Paginate slices items into the requested window. The page is clamped to
// [1, TotalPages]; an empty input reports a single empty page.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(items)
	totalPages := TotalPages(total, pageSize)
	page = min(max(page, 1), totalPages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	window := make([]T, 0, end-start)
	window = append(window, items[start:end]...)

	return Page[T]{
		Items:       window,
		TotalItems:  total,
		TotalPages:  totalPages,
		CurrentPage: page,
		PageSize:    pageSize,
	}
}

// TotalPages never returns less than 1 so that an empty listing reads "page 1 of 1".
func TotalPages(totalItems, pageSize int) int {
	if totalItems == 0 || pageSize <= 0 {
		return 1
	}
	return (totalItems + pageSize - 1) / pageSize
}

// InRange reports whether page is a valid page number for the listing.
func InRange(page, totalItems, pageSize int) bool {
	return page >= 1 && page <= TotalPages(totalItems, pageSize)
}

const DefaultPageSize = 8

func statusOf(item models.ContentItem) models.Status {
	if item.Status == "" {
		return models.StatusDraft
	}
	return item.Status
}

func normalizeTerm(term string) string {
	return strings.Join(strings.Fields(strings.ToLower(term)), " ")
}

func containsText(html, needle string) bool {
	return strings.Contains(strings.ToLower(utils.StripTags(html)), needle)
}
