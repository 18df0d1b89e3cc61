// Package gatewayfake is an in-memory gateway.API for tests.
package gatewayfake

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/robodex/robodex-backend/gateway"
)

type Row = map[string]any

// Call records one request made against the fake.
type Call struct {
	Method string // SELECT, RPC or PATCH
	Target string // table or function name
	Query  string
	Params any
	Fields map[string]any
}

type Gateway struct {
	mu       sync.Mutex
	tables   map[string][]Row
	results  map[string]any
	failures map[string]error
	calls    []Call
}

var _ gateway.API = (*Gateway)(nil)

func New() *Gateway {
	return &Gateway{
		tables:   map[string][]Row{},
		results:  map[string]any{},
		failures: map[string]error{},
	}
}

// Seed replaces the rows of table.
func (g *Gateway) Seed(table string, rows ...Row) *Gateway {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tables[table] = rows
	return g
}

// SetResult sets the value returned by the stored function fn.
func (g *Gateway) SetResult(fn string, result any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[fn] = result
}

// FailWith makes every call against target, a table or function name,
// return err. A nil err clears the failure.
func (g *Gateway) FailWith(target string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failures, target)
		return
	}
	g.failures[target] = err
}

func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// LastCall returns the most recent call against target.
func (g *Gateway) LastCall(target string) (Call, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.calls) - 1; i >= 0; i-- {
		if g.calls[i].Target == target {
			return g.calls[i], true
		}
	}
	return Call{}, false
}

// Rows returns a copy of the current rows of table.
func (g *Gateway) Rows(table string) []Row {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Row, 0, len(g.tables[table]))
	for _, r := range g.tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

func (g *Gateway) Select(_ context.Context, table string, q *gateway.Query, dest any) error {
	if q == nil {
		q = gateway.NewQuery()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, Call{Method: "SELECT", Target: table, Query: q.Encode()})
	if err := g.failures[table]; err != nil {
		return err
	}

	var rows []Row
	for _, r := range g.tables[table] {
		if matchesAll(r, q.Filters()) {
			rows = append(rows, project(r, q.Columns()))
		}
	}
	if order := q.OrderBy(); order != "" {
		sortRows(rows, order)
	}
	if n := q.MaxRows(); n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	if rows == nil {
		rows = []Row{}
	}
	return decode(rows, dest)
}

func (g *Gateway) Call(_ context.Context, fn string, params any, dest any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, Call{Method: "RPC", Target: fn, Params: params})
	if err := g.failures[fn]; err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	result, ok := g.results[fn]
	if !ok {
		return nil
	}
	return decode(result, dest)
}

func (g *Gateway) Patch(_ context.Context, table string, q *gateway.Query, fields map[string]any, dest any) error {
	if q == nil {
		q = gateway.NewQuery()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, Call{Method: "PATCH", Target: table, Query: q.Encode(), Fields: fields})
	if err := g.failures[table]; err != nil {
		return err
	}
	updated := []Row{}
	for _, r := range g.tables[table] {
		if !matchesAll(r, q.Filters()) {
			continue
		}
		for k, v := range fields {
			r[k] = v
		}
		updated = append(updated, copyRow(r))
	}
	if dest == nil {
		return nil
	}
	return decode(updated, dest)
}

func decode(v any, dest any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func copyRow(r Row) Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func project(r Row, columns string) Row {
	if columns == "*" {
		return copyRow(r)
	}
	out := Row{}
	for _, c := range strings.Split(columns, ",") {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func matchesAll(r Row, filters []gateway.Filter) bool {
	for _, f := range filters {
		if !matches(r[f.Column], f) {
			return false
		}
	}
	return true
}

func matches(v any, f gateway.Filter) bool {
	switch f.Op {
	case gateway.OpIs:
		switch f.Operand {
		case "null":
			return v == nil
		case "true", "false":
			b, ok := v.(bool)
			return ok && strconv.FormatBool(b) == f.Operand
		}
		return false
	case gateway.OpIn:
		for _, candidate := range strings.Split(strings.Trim(f.Operand, "()"), ",") {
			if text(v) == strings.TrimSpace(candidate) {
				return true
			}
		}
		return false
	case gateway.OpLike, gateway.OpILike:
		return like(text(v), f.Operand, f.Op == gateway.OpILike)
	}
	if v == nil {
		return false
	}
	cmp := compare(text(v), f.Operand)
	switch f.Op {
	case gateway.OpEq:
		return cmp == 0
	case gateway.OpNeq:
		return cmp != 0
	case gateway.OpGt:
		return cmp > 0
	case gateway.OpGte:
		return cmp >= 0
	case gateway.OpLt:
		return cmp < 0
	case gateway.OpLte:
		return cmp <= 0
	}
	return false
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// compare orders numerically when both sides are numbers.
func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

func like(s, pattern string, fold bool) bool {
	expr := "^" + strings.NewReplacer(`\*`, ".*", "%", ".*").Replace(regexp.QuoteMeta(pattern)) + "$"
	if fold {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	return err == nil && re.MatchString(s)
}

func sortRows(rows []Row, order string) {
	column, dir, _ := strings.Cut(order, ".")
	sort.SliceStable(rows, func(i, j int) bool {
		cmp := compare(text(rows[i][column]), text(rows[j][column]))
		if dir == "desc" {
			return cmp > 0
		}
		return cmp < 0
	})
}
