// Package view derives display projections from a transaction collection.
//
// ComputeView is a pure function: filter, stable sort, prefix pagination and
// aggregation are recomputed from scratch on every call, so identical inputs
// always produce identical output.
package view

import (
	"sort"

	"fintrack/internal/core"
)

const (
	SortDesc SortOrder = "desc"
	SortAsc  SortOrder = "asc"

	// AllCategories disables category filtering.
	AllCategories = "All"

	// Uncategorized groups transactions carrying an empty category label.
	Uncategorized = "Uncategorized"

	DefaultPageSize = 5
)

type (
	SortOrder string

	// Options is the UI-owned state feeding the pipeline.
	Options struct {
		Category string
		Sort     SortOrder
		PageSize int
		Pages    int
	}

	// View is the derived projection consumed by the presentation layer.
	// Totals are in cents and computed over the whole filtered set, not
	// just the visible page.
	View struct {
		Visible        []core.Transaction
		CategoryTotals map[string]int64
		TypeTotals     map[core.TransactionType]int64
		GrandTotal     int64
		FilteredCount  int
	}
)

// DefaultOptions returns the initial UI state: all categories, newest first,
// one page.
func DefaultOptions() Options {
	return Options{
		Category: AllCategories,
		Sort:     SortDesc,
		PageSize: DefaultPageSize,
		Pages:    1,
	}
}

func (o Options) normalized() Options {
	if o.Category == "" {
		o.Category = AllCategories
	}
	if o.Sort != SortAsc {
		o.Sort = SortDesc
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	if o.Pages < 1 {
		o.Pages = 1
	}
	return o
}

// More returns the options for the next load-more request. Pages grows only
// while the current view is shorter than the full filtered set, so repeated
// calls at the end are no-ops.
func (o Options) More(v View) Options {
	o = o.normalized()
	if len(v.Visible) < v.FilteredCount {
		o.Pages++
	}
	return o
}

// ComputeView runs the full pipeline: filter by category, stable sort by
// date, take the first PageSize*Pages entries, aggregate totals over the
// filtered set.
func ComputeView(txs []core.Transaction, o Options) View {
	o = o.normalized()

	filtered := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if o.Category == AllCategories || tx.Category == o.Category {
			filtered = append(filtered, tx)
		}
	}

	// Stable sort: entries sharing a date keep their prior relative order.
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i].When(), filtered[j].When()
		if o.Sort == SortAsc {
			return a.Before(b)
		}
		return a.After(b)
	})

	// Both factors come from the client, so the product can overflow.
	// Compare via division instead of multiplying first.
	limit := len(filtered)
	if o.PageSize <= limit/o.Pages {
		limit = o.PageSize * o.Pages
	}
	visible := make([]core.Transaction, limit)
	copy(visible, filtered[:limit])

	v := View{
		Visible:        visible,
		CategoryTotals: make(map[string]int64),
		TypeTotals:     make(map[core.TransactionType]int64),
		FilteredCount:  len(filtered),
	}
	for _, tx := range filtered {
		cat := tx.Category
		if cat == "" {
			cat = Uncategorized
		}
		cents := tx.AmountCents()
		v.CategoryTotals[cat] += cents
		v.TypeTotals[tx.Type] += cents
		v.GrandTotal += cents
	}
	return v
}
