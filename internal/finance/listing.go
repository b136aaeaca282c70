package finance

import (
	"cmp"
	"slices"

	"github.com/boddenberg/leilao-agil-go/internal/domain"
)

// FilterAndSort returns the properties to display for a status filter and a
// sort key. The input slice is left untouched.
//
// statusFilter is either domain.StatusFilterAll or an exact, case-sensitive
// status value. Sorting is descending on the chosen key and stable, so equal
// keys keep their input order. Unknown keys sort by recency; properties
// without a creation time sort as if created at timestamp 0.
func FilterAndSort(properties []domain.Property, statusFilter string, key domain.SortKey) []domain.Property {
	type entry struct {
		p  domain.Property
		s  domain.FinancialSummary
		ts int64
	}

	entries := make([]entry, 0, len(properties))
	for _, p := range properties {
		if statusFilter != domain.StatusFilterAll && string(p.Status) != statusFilter {
			continue
		}
		entries = append(entries, entry{p: p, s: ComputeSummary(p), ts: createdAtKey(p)})
	}

	var byKey func(a, b entry) int
	switch key {
	case domain.SortROE:
		byKey = func(a, b entry) int { return cmp.Compare(b.s.ProjectedROE, a.s.ProjectedROE) }
	case domain.SortProfit:
		byKey = func(a, b entry) int { return cmp.Compare(b.s.ProjectedProfit, a.s.ProjectedProfit) }
	default:
		byKey = func(a, b entry) int { return cmp.Compare(b.ts, a.ts) }
	}
	slices.SortStableFunc(entries, byKey)

	out := make([]domain.Property, len(entries))
	for i, e := range entries {
		out[i] = e.p
	}
	return out
}

// ParseSortKey maps a query value to a sort key, defaulting to recency.
func ParseSortKey(v string) domain.SortKey {
	switch k := domain.SortKey(v); k {
	case domain.SortROE, domain.SortProfit:
		return k
	}
	return domain.SortRecency
}

func createdAtKey(p domain.Property) int64 {
	if p.CreatedAt == nil || p.CreatedAt.IsZero() {
		return 0
	}
	return p.CreatedAt.UnixNano()
}
