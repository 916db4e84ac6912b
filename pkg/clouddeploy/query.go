package clouddeploy

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParams represents common list options: cursor position, page size,
// sort order, and field filters.
type QueryParams struct {
	// Cursor resumes a listing from a previous page's Next token.
	Cursor string
	// PerPage is the requested page size; zero lets the service decide.
	PerPage int
	// Sort orders results, e.g. "-updated_at".
	Sort string
	// Filters restricts results by field, e.g. {"env": ["prod"]}. Repeated
	// values for a key are comma-joined.
	Filters map[string][]string
}

// NewQueryParams creates empty query parameters.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Filters: make(map[string][]string),
	}
}

// WithPerPage sets the page size.
func (q *QueryParams) WithPerPage(perPage int) *QueryParams {
	q.PerPage = perPage

	return q
}

// WithSort sets the sort order.
func (q *QueryParams) WithSort(sort string) *QueryParams {
	q.Sort = sort

	return q
}

// WithFilter adds a filter value for a field.
func (q *QueryParams) WithFilter(field string, values ...string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[field] = append(q.Filters[field], values...)

	return q
}

// WithCursor sets the page cursor.
func (q *QueryParams) WithCursor(cursor string) *QueryParams {
	q.Cursor = cursor

	return q
}

// ToValues converts the parameters to url.Values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if q == nil {
		return values
	}

	if q.Cursor != "" {
		values.Set("cursor", q.Cursor)
	}

	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}

	if q.Sort != "" {
		values.Set("sort", q.Sort)
	}

	for field, vals := range q.Filters {
		if len(vals) > 0 {
			values.Set(field, strings.Join(vals, ","))
		}
	}

	return values
}

// Clone returns a deep copy safe to mutate while iterating pages.
func (q *QueryParams) Clone() *QueryParams {
	if q == nil {
		return NewQueryParams()
	}

	copied := &QueryParams{
		Cursor:  q.Cursor,
		PerPage: q.PerPage,
		Sort:    q.Sort,
		Filters: make(map[string][]string, len(q.Filters)),
	}

	for field, vals := range q.Filters {
		copied.Filters[field] = append([]string(nil), vals...)
	}

	return copied
}
