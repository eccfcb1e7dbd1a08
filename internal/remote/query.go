package remote

import (
	"encoding/json"
	"fmt"
)

// Query methods
const (
	MethodEqual     = "equal"
	MethodSearch    = "search"
	MethodOrderAsc  = "orderAsc"
	MethodOrderDesc = "orderDesc"
	MethodLimit     = "limit"
	MethodOffset    = "offset"
)

// Query is one filter, ordering or paging clause in the platform's JSON
// query syntax.
type Query struct {
	Method    string        `json:"method"`
	Attribute string        `json:"attribute,omitempty"`
	Values    []interface{} `json:"values,omitempty"`
}

func (q Query) String() string {
	data, err := json.Marshal(q)
	if err != nil {
		// Values are built from strings and ints only.
		panic(fmt.Sprintf("encode query: %v", err))
	}
	return string(data)
}

// Equal matches documents whose attribute equals any of the values.
func Equal(attribute string, values ...interface{}) string {
	return Query{Method: MethodEqual, Attribute: attribute, Values: values}.String()
}

// Search matches documents whose attribute contains the search terms.
func Search(attribute, value string) string {
	return Query{Method: MethodSearch, Attribute: attribute, Values: []interface{}{value}}.String()
}

func OrderAsc(attribute string) string {
	return Query{Method: MethodOrderAsc, Attribute: attribute}.String()
}

func OrderDesc(attribute string) string {
	return Query{Method: MethodOrderDesc, Attribute: attribute}.String()
}

func Limit(n int) string {
	return Query{Method: MethodLimit, Values: []interface{}{n}}.String()
}

func Offset(n int) string {
	return Query{Method: MethodOffset, Values: []interface{}{n}}.String()
}

// ParseQuery decodes a query string. Numeric values decode as float64.
func ParseQuery(s string) (Query, error) {
	var q Query
	if err := json.Unmarshal([]byte(s), &q); err != nil {
		return Query{}, fmt.Errorf("invalid query syntax: %w", err)
	}
	switch q.Method {
	case MethodEqual, MethodSearch:
		if q.Attribute == "" || len(q.Values) == 0 {
			return Query{}, fmt.Errorf("invalid query: %s needs an attribute and values", q.Method)
		}
	case MethodOrderAsc, MethodOrderDesc:
		if q.Attribute == "" {
			return Query{}, fmt.Errorf("invalid query: %s needs an attribute", q.Method)
		}
	case MethodLimit, MethodOffset:
		if len(q.Values) != 1 {
			return Query{}, fmt.Errorf("invalid query: %s needs one value", q.Method)
		}
	default:
		return Query{}, fmt.Errorf("invalid query method %q", q.Method)
	}
	return q, nil
}

// IntValue returns the first value as an int, for limit and offset clauses.
func (q Query) IntValue() (int, error) {
	if len(q.Values) == 0 {
		return 0, fmt.Errorf("query %s has no value", q.Method)
	}
	switch v := q.Values[0].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	default:
		return 0, fmt.Errorf("query %s value %v is not a number", q.Method, v)
	}
}
