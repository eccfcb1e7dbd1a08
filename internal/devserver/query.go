package devserver

import (
	"fmt"
	"sort"
	"strings"

	"aorify/internal/remote"
)

// listQuery is a parsed set of list queries.
type listQuery struct {
	filters []remote.Query
	orders  []remote.Query
	limit   int
	offset  int
}

func parseListQuery(raw []string) (*listQuery, error) {
	q := &listQuery{limit: defaultListLimit}
	for _, s := range raw {
		parsed, err := remote.ParseQuery(s)
		if err != nil {
			return nil, err
		}
		switch parsed.Method {
		case remote.MethodEqual, remote.MethodSearch:
			q.filters = append(q.filters, parsed)
		case remote.MethodOrderAsc, remote.MethodOrderDesc:
			q.orders = append(q.orders, parsed)
		case remote.MethodLimit:
			n, err := parsed.IntValue()
			if err != nil || n < 0 || n > maxListLimit {
				return nil, fmt.Errorf("invalid query: limit must be between 0 and %d", maxListLimit)
			}
			q.limit = n
		case remote.MethodOffset:
			n, err := parsed.IntValue()
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid query: offset must be a non-negative integer")
			}
			q.offset = n
		}
	}
	return q, nil
}

// apply filters, sorts and pages docs. It returns the number of matches
// before paging along with the page.
func (q *listQuery) apply(docs []document) (int, []document) {
	matched := make([]document, 0, len(docs))
	for _, d := range docs {
		if q.matches(d) {
			matched = append(matched, d)
		}
	}

	if len(q.orders) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, o := range q.orders {
				c := compareValues(matched[i][o.Attribute], matched[j][o.Attribute])
				if c == 0 {
					continue
				}
				if o.Method == remote.MethodOrderDesc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	total := len(matched)
	if q.offset >= total {
		return total, []document{}
	}
	end := min(q.offset+q.limit, total)
	return total, matched[q.offset:end]
}

func (q *listQuery) matches(d document) bool {
	for _, f := range q.filters {
		v := d[f.Attribute]
		switch f.Method {
		case remote.MethodEqual:
			if !equalsAny(v, f.Values) {
				return false
			}
		case remote.MethodSearch:
			if !searchMatches(v, f.Values) {
				return false
			}
		}
	}
	return true
}

func equalsAny(v interface{}, values []interface{}) bool {
	if v == nil {
		return false
	}
	s := fmt.Sprint(v)
	for _, want := range values {
		if s == fmt.Sprint(want) {
			return true
		}
	}
	return false
}

// searchMatches reports whether every term of the search string occurs in
// the attribute, ignoring case.
func searchMatches(v interface{}, values []interface{}) bool {
	text, ok := v.(string)
	if !ok || len(values) == 0 {
		return false
	}
	text = strings.ToLower(text)
	for _, term := range strings.Fields(strings.ToLower(fmt.Sprint(values[0]))) {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}

// compareValues orders numbers numerically and everything else as text.
// Missing values sort first.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	af, aNum := a.(float64)
	bf, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
