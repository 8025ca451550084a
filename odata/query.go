package odata

import (
	"fmt"
	"net/url"
	"strings"
)

// Query is one collection request: free-text search, a multi-select status
// filter, and 1-based pagination. The zero value asks for everything.
type Query struct {
	SearchTerm   string
	SearchField  string // entity field the search term applies to
	StatusField  string // defaults to "Status" when StatusFilter is set
	StatusFilter []int  // OR'd together, AND'd with the search clause
	Page         int    // 1-based; 0 means no paging
	PageSize     int
	Expand       string
	Count        bool
}

// Encode translates the query into OData system query options. Page numbers
// are 1-based and become a zero-based $skip.
func (q Query) Encode() url.Values {
	values := url.Values{}

	if clause := q.filterClause(); clause != "" {
		values.Set("$filter", clause)
	}
	if q.Page > 0 && q.PageSize > 0 {
		values.Set("$top", fmt.Sprintf("%d", q.PageSize))
		values.Set("$skip", fmt.Sprintf("%d", (q.Page-1)*q.PageSize))
	}
	if q.Expand != "" {
		values.Set("$expand", q.Expand)
	}
	if q.Count {
		values.Set("$count", "true")
	}
	return values
}

func (q Query) filterClause() string {
	var clauses []string

	if q.SearchTerm != "" && q.SearchField != "" {
		term := strings.ToLower(q.SearchTerm)
		// Single quotes double inside OData string literals.
		term = strings.ReplaceAll(term, "'", "''")
		clauses = append(clauses, fmt.Sprintf("contains(tolower(%s), '%s')", q.SearchField, term))
	}

	if len(q.StatusFilter) > 0 {
		field := q.StatusField
		if field == "" {
			field = "Status"
		}
		var ors []string
		for _, s := range q.StatusFilter {
			ors = append(ors, fmt.Sprintf("%s eq %d", field, s))
		}
		clause := strings.Join(ors, " or ")
		if len(ors) > 1 && len(clauses) > 0 {
			clause = "(" + clause + ")"
		}
		clauses = append(clauses, clause)
	}

	return strings.Join(clauses, " and ")
}
