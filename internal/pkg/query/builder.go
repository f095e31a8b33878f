package query

import (
	"fmt"
	"strings"

	"cloud.google.com/go/spanner"
)

// Direction represents ORDER BY direction.
type Direction int

const (
	// Asc represents ascending order.
	Asc Direction = iota
	// Desc represents descending order.
	Desc
)

// Builder constructs SQL SELECT queries for Cloud Spanner.
// It provides a fluent API for building queries with WHERE clauses,
// ORDER BY and LIMIT. Auto-generates parameter names to prevent manual
// synchronization errors.
type Builder struct {
	table        string
	selectCols   []string
	whereClauses []Condition
	orderByCol   string
	orderByDir   Direction
	limitVal     int64
}

// From creates a new Builder for the specified table.
func From(table string) *Builder {
	return &Builder{
		table:        table,
		selectCols:   []string{},
		whereClauses: []Condition{},
	}
}

// Select specifies the columns to retrieve.
func (b *Builder) Select(columns ...string) *Builder {
	newBuilder := b.clone()
	newBuilder.selectCols = append(newBuilder.selectCols, columns...)
	return newBuilder
}

// Where adds a WHERE condition.
// Multiple calls are combined with AND logic.
func (b *Builder) Where(condition Condition) *Builder {
	newBuilder := b.clone()
	newBuilder.whereClauses = append(newBuilder.whereClauses, condition)
	return newBuilder
}

// OrderBy specifies the column and direction for sorting.
func (b *Builder) OrderBy(column string, direction Direction) *Builder {
	newBuilder := b.clone()
	newBuilder.orderByCol = column
	newBuilder.orderByDir = direction
	return newBuilder
}

// Limit sets the maximum number of rows to return.
func (b *Builder) Limit(limit int64) *Builder {
	newBuilder := b.clone()
	newBuilder.limitVal = limit
	return newBuilder
}

// Build assembles the final spanner.Statement.
func (b *Builder) Build() spanner.Statement {
	var sb strings.Builder
	params := make(map[string]interface{})

	cols := "*"
	if len(b.selectCols) > 0 {
		cols = strings.Join(b.selectCols, ", ")
	}
	sb.WriteString(fmt.Sprintf("SELECT %s FROM %s", cols, b.table))

	if len(b.whereClauses) > 0 {
		fragments := make([]string, 0, len(b.whereClauses))
		for i, cond := range b.whereClauses {
			frag, condParams := cond.SQL(i)
			fragments = append(fragments, frag)
			for k, v := range condParams {
				params[k] = v
			}
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(fragments, " AND "))
	}

	if b.orderByCol != "" {
		dir := "ASC"
		if b.orderByDir == Desc {
			dir = "DESC"
		}
		sb.WriteString(fmt.Sprintf(" ORDER BY %s %s", b.orderByCol, dir))
	}

	if b.limitVal > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limitVal))
	}

	return spanner.Statement{
		SQL:    sb.String(),
		Params: params,
	}
}

// clone creates a copy of the builder so chained calls never mutate the
// receiver.
func (b *Builder) clone() *Builder {
	newBuilder := &Builder{
		table:      b.table,
		selectCols: make([]string, len(b.selectCols)),
		orderByCol: b.orderByCol,
		orderByDir: b.orderByDir,
		limitVal:   b.limitVal,
	}
	copy(newBuilder.selectCols, b.selectCols)
	newBuilder.whereClauses = make([]Condition, len(b.whereClauses))
	copy(newBuilder.whereClauses, b.whereClauses)
	return newBuilder
}
