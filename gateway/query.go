package gateway

import (
	"net/url"
	"strconv"
	"strings"
)

// Filter operators accepted from clients.
const (
	OpEq    = "eq"
	OpNeq   = "neq"
	OpGt    = "gt"
	OpGte   = "gte"
	OpLt    = "lt"
	OpLte   = "lte"
	OpLike  = "like"
	OpILike = "ilike"
	OpIs    = "is"
	OpIn    = "in"
)

var allowedOps = map[string]bool{
	OpEq: true, OpNeq: true, OpGt: true, OpGte: true, OpLt: true,
	OpLte: true, OpLike: true, OpILike: true, OpIs: true, OpIn: true,
}

var allowedIsOperands = map[string]bool{"null": true, "true": true, "false": true, "unknown": true}

// Filter is one column condition, rendered as column=op.operand.
type Filter struct {
	Column  string
	Op      string
	Operand string
}

func (f Filter) Value() string {
	return f.Op + "." + f.Operand
}

// ParseFilter parses an "op.operand" value for column. ok is false for
// unknown operators and malformed operands.
func ParseFilter(column, value string) (Filter, bool) {
	op, operand, found := strings.Cut(value, ".")
	if !found || !allowedOps[op] || operand == "" {
		return Filter{}, false
	}
	switch op {
	case OpIs:
		if !allowedIsOperands[operand] {
			return Filter{}, false
		}
	case OpIn:
		if len(operand) < 2 || operand[0] != '(' || operand[len(operand)-1] != ')' {
			return Filter{}, false
		}
	}
	return Filter{Column: column, Op: op, Operand: operand}, true
}

// SanitizeFilters keeps the client supplied filters on allowed columns whose
// values parse as "op.operand". Everything else, including select, order and
// limit, is dropped. The result follows the order of allowed.
func SanitizeFilters(params url.Values, allowed ...string) []Filter {
	var filters []Filter
	for _, column := range allowed {
		for _, value := range params[column] {
			if f, ok := ParseFilter(column, value); ok {
				filters = append(filters, f)
			}
		}
	}
	return filters
}

// Query is a row selection against one table.
type Query struct {
	columns string
	filters []Filter
	order   string
	limit   int
}

func NewQuery() *Query {
	return &Query{}
}

// Select sets the returned columns. No columns means "*".
func (q *Query) Select(columns ...string) *Query {
	q.columns = strings.Join(columns, ",")
	return q
}

func (q *Query) Eq(column, value string) *Query {
	return q.Where(Filter{Column: column, Op: OpEq, Operand: value})
}

func (q *Query) Where(filters ...Filter) *Query {
	q.filters = append(q.filters, filters...)
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	q.order = column + "." + dir
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

func (q *Query) Columns() string {
	if q.columns == "" {
		return "*"
	}
	return q.columns
}

func (q *Query) Filters() []Filter {
	return q.filters
}

// OrderBy returns the "column.asc|desc" ordering or "".
func (q *Query) OrderBy() string {
	return q.order
}

func (q *Query) MaxRows() int {
	return q.limit
}

// Encode renders the query string, e.g. "item_no=eq.5&select=%2A".
func (q *Query) Encode() string {
	if q == nil {
		return ""
	}
	v := url.Values{}
	if q.columns != "" {
		v.Set("select", q.columns)
	}
	for _, f := range q.filters {
		v.Add(f.Column, f.Value())
	}
	if q.order != "" {
		v.Set("order", q.order)
	}
	if q.limit > 0 {
		v.Set("limit", strconv.Itoa(q.limit))
	}
	return v.Encode()
}
