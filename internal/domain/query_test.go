package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namesOf(objs []NearEarthObject) []string {
	out := make([]string, len(objs))
	for i, o := range objs {
		out[i] = o.Name
	}
	return out
}

func testListing() []NearEarthObject {
	return []NearEarthObject{
		{ID: "1", Name: "Apophis", RiskScore: 30},
		{ID: "2", Name: "(2024 AB)", RiskScore: 70},
		{ID: "3", Name: "(1999 ZZ)", RiskScore: 30},
		{ID: "4", Name: "433 Eros (A898 PA)", RiskScore: 5},
	}
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name, search, sort, order string
		expected                  Query
		expectErr                 bool
	}{
		{"defaults", "", "", "", Query{SortBy: SortByName, Order: Ascending}, false},
		{"risk desc", " eros ", "risk", "DESC", Query{Search: "eros", SortBy: SortByRisk, Order: Descending}, false},
		{"explicit name asc", "", "name", "asc", Query{SortBy: SortByName, Order: Ascending}, false},
		{"unknown sort", "", "size", "", Query{}, true},
		{"unknown order", "", "", "up", Query{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery(tt.search, tt.sort, tt.order)
			if tt.expectErr {
				require.ErrorIs(t, err, ErrInvalidQuery)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, q)
		})
	}
}

func TestQuery_Apply(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		expected []string
	}{
		{
			name:     "name ascending ignores parentheses",
			query:    Query{SortBy: SortByName, Order: Ascending},
			expected: []string{"(1999 ZZ)", "(2024 AB)", "433 Eros (A898 PA)", "Apophis"},
		},
		{
			name:     "name descending",
			query:    Query{SortBy: SortByName, Order: Descending},
			expected: []string{"Apophis", "433 Eros (A898 PA)", "(2024 AB)", "(1999 ZZ)"},
		},
		{
			name:     "risk ascending keeps ties in input order",
			query:    Query{SortBy: SortByRisk, Order: Ascending},
			expected: []string{"433 Eros (A898 PA)", "Apophis", "(1999 ZZ)", "(2024 AB)"},
		},
		{
			name:     "risk descending keeps ties in input order",
			query:    Query{SortBy: SortByRisk, Order: Descending},
			expected: []string{"(2024 AB)", "Apophis", "(1999 ZZ)", "433 Eros (A898 PA)"},
		},
		{
			name:     "case-insensitive filter",
			query:    Query{Search: "EROS", SortBy: SortByName, Order: Ascending},
			expected: []string{"433 Eros (A898 PA)"},
		},
		{
			name:     "filter matches parentheses in raw name",
			query:    Query{Search: "(20", SortBy: SortByName, Order: Ascending},
			expected: []string{"(2024 AB)"},
		},
		{
			name:     "no matches",
			query:    Query{Search: "ceres"},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, namesOf(tt.query.Apply(testListing())))
		})
	}
}

func TestQuery_ApplyDoesNotMutateInput(t *testing.T) {
	in := testListing()
	_ = Query{SortBy: SortByRisk, Order: Descending}.Apply(in)
	assert.Equal(t, testListing(), in)
}
