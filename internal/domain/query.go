package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortField selects the listing sort key.
type SortField string

const (
	SortByName SortField = "name"
	SortByRisk SortField = "risk"
)

// SortOrder selects the listing direction.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Query filters and orders a listing of scored objects.
type Query struct {
	Search string
	SortBy SortField
	Order  SortOrder
}

// ParseQuery validates raw query parameters. Empty sort and order default
// to name ascending.
func ParseQuery(search, sortBy, order string) (Query, error) {
	q := Query{Search: strings.TrimSpace(search), SortBy: SortByName, Order: Ascending}
	switch SortField(strings.ToLower(sortBy)) {
	case "":
	case SortByName:
	case SortByRisk:
		q.SortBy = SortByRisk
	default:
		return Query{}, fmt.Errorf("%w: sort %q", ErrInvalidQuery, sortBy)
	}
	switch SortOrder(strings.ToLower(order)) {
	case "", Ascending:
	case Descending:
		q.Order = Descending
	default:
		return Query{}, fmt.Errorf("%w: order %q", ErrInvalidQuery, order)
	}
	return q, nil
}

// Apply returns a filtered, sorted copy of objs. The input is not modified.
// Ties keep their input order.
func (q Query) Apply(objs []NearEarthObject) []NearEarthObject {
	needle := strings.ToLower(q.Search)
	out := make([]NearEarthObject, 0, len(objs))
	for _, o := range objs {
		if needle == "" || strings.Contains(strings.ToLower(o.Name), needle) {
			out = append(out, o)
		}
	}

	compare := func(a, b NearEarthObject) int {
		return cmp.Compare(strings.ToLower(DisplayName(a.Name)), strings.ToLower(DisplayName(b.Name)))
	}
	if q.SortBy == SortByRisk {
		compare = func(a, b NearEarthObject) int { return cmp.Compare(a.RiskScore, b.RiskScore) }
	}
	if q.Order == Descending {
		asc := compare
		compare = func(a, b NearEarthObject) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, compare)
	return out
}
