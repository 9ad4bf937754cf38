// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

// Package query builds dynamic WHERE clauses with positional pgx
// placeholders. Stores use it where filters are optional, so placeholder
// numbering never drifts from the argument list.
package query

import (
	"fmt"
	"strings"
)

// WhereBuilder accumulates AND-joined conditions. Each "?" in a
// condition is rewritten to the next $n placeholder as its argument is
// appended.
//
// Example:
//
//	wb := query.NewWhereBuilder()
//	wb.Add("ms.event_id = ?", eventID)
//	wb.AddIf(status != nil, "m.status = ?", status)
//	where, args := wb.Build()
type WhereBuilder struct {
	clauses []string
	args    []any
}

// NewWhereBuilder returns an empty builder.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// Add appends one condition. The condition must contain exactly one "?"
// per argument; conditions with no arguments are appended verbatim.
func (b *WhereBuilder) Add(condition string, args ...any) *WhereBuilder {
	for _, a := range args {
		b.args = append(b.args, a)
		condition = strings.Replace(condition, "?", fmt.Sprintf("$%d", len(b.args)), 1)
	}
	b.clauses = append(b.clauses, condition)
	return b
}

// AddIf appends the condition only when ok is true.
func (b *WhereBuilder) AddIf(ok bool, condition string, args ...any) *WhereBuilder {
	if ok {
		b.Add(condition, args...)
	}
	return b
}

// Build returns the WHERE clause (empty string when no conditions were
// added) and the accumulated arguments.
func (b *WhereBuilder) Build() (string, []any) {
	if len(b.clauses) == 0 {
		return "", b.args
	}
	return "WHERE " + strings.Join(b.clauses, " AND "), b.args
}

// Paginate appends LIMIT/OFFSET placeholders to a built query.
func Paginate(q string, args []any, limit, offset int) (string, []any) {
	args = append(args, limit, offset)
	return fmt.Sprintf("%s LIMIT $%d OFFSET $%d", q, len(args)-1, len(args)), args
}
