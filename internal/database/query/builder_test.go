// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package query

import (
	"reflect"
	"testing"
)

func TestWhereBuilderEmpty(t *testing.T) {
	where, args := NewWhereBuilder().Build()
	if where != "" {
		t.Errorf("where = %q, want empty", where)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestWhereBuilderNumbering(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("event_id = ?", "e1")
	wb.Add("status = ?", "draft")
	wb.Add("deleted_at IS NULL")

	where, args := wb.Build()
	want := "WHERE event_id = $1 AND status = $2 AND deleted_at IS NULL"
	if where != want {
		t.Errorf("where = %q, want %q", where, want)
	}
	if !reflect.DeepEqual(args, []any{"e1", "draft"}) {
		t.Errorf("args = %v", args)
	}
}

func TestWhereBuilderMultiplePlaceholders(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("created_at BETWEEN ? AND ?", "a", "b")
	wb.Add("user_id = ?", "u")

	where, args := wb.Build()
	want := "WHERE created_at BETWEEN $1 AND $2 AND user_id = $3"
	if where != want {
		t.Errorf("where = %q, want %q", where, want)
	}
	if !reflect.DeepEqual(args, []any{"a", "b", "u"}) {
		t.Errorf("args = %v", args)
	}
}

func TestWhereBuilderAddIf(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("event_id = ?", "e1")
	wb.AddIf(false, "status = ?", "draft")
	wb.AddIf(true, "round_number = ?", 2)

	where, args := wb.Build()
	want := "WHERE event_id = $1 AND round_number = $2"
	if where != want {
		t.Errorf("where = %q, want %q", where, want)
	}
	if !reflect.DeepEqual(args, []any{"e1", 2}) {
		t.Errorf("args = %v", args)
	}
}

func TestPaginate(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("event_id = ?", "e1")
	where, args := wb.Build()

	q, args := Paginate("SELECT * FROM matches "+where, args, 20, 40)
	want := "SELECT * FROM matches WHERE event_id = $1 LIMIT $2 OFFSET $3"
	if q != want {
		t.Errorf("query = %q, want %q", q, want)
	}
	if !reflect.DeepEqual(args, []any{"e1", 20, 40}) {
		t.Errorf("args = %v", args)
	}
}

func TestPaginateNoFilters(t *testing.T) {
	q, args := Paginate("SELECT * FROM events", nil, 10, 0)
	want := "SELECT * FROM events LIMIT $1 OFFSET $2"
	if q != want {
		t.Errorf("query = %q, want %q", q, want)
	}
	if !reflect.DeepEqual(args, []any{10, 0}) {
		t.Errorf("args = %v", args)
	}
}
