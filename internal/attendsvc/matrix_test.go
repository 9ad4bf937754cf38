// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package attendsvc

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuildMatrixCells(t *testing.T) {
	e1 := models.Event{ID: uuid.New(), Title: "Weekly 1", EventType: models.EventWeeklyMatch, EventDate: time.Now()}
	e2 := models.Event{ID: uuid.New(), Title: "Weekly 2", EventType: models.EventWeeklyMatch, EventDate: time.Now().Add(24 * time.Hour)}
	alice := UserRef{ID: uuid.New(), Username: "alice"}
	bob := UserRef{ID: uuid.New(), Username: "bob"}

	records := []MatrixRecord{
		{EventID: e1.ID, UserID: alice.ID, IsAvailable: true, IsCheckedIn: true},
		{EventID: e2.ID, UserID: alice.ID, IsAvailable: true, IsCheckedIn: false},
		{EventID: e1.ID, UserID: bob.ID, IsAvailable: false, IsCheckedIn: false},
		// bob has no record for e2.
	}

	m := buildMatrix([]models.Event{e1, e2}, []UserRef{alice, bob}, records, nil)

	if len(m.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.Rows))
	}
	// Alice attends more, so she sorts first.
	if m.Rows[0].User.Username != "alice" {
		t.Fatalf("first row = %q, want alice", m.Rows[0].User.Username)
	}
	wantAlice := []CellStatus{CellCheckedIn, CellAvailable}
	for i, want := range wantAlice {
		if m.Rows[0].Cells[i] != want {
			t.Errorf("alice cell %d = %q, want %q", i, m.Rows[0].Cells[i], want)
		}
	}
	wantBob := []CellStatus{CellUnavail, CellNoResponse}
	for i, want := range wantBob {
		if m.Rows[1].Cells[i] != want {
			t.Errorf("bob cell %d = %q, want %q", i, m.Rows[1].Cells[i], want)
		}
	}
}

func TestBuildMatrixRates(t *testing.T) {
	e1 := models.Event{ID: uuid.New(), Title: "A", EventType: models.EventMeeting}
	e2 := models.Event{ID: uuid.New(), Title: "B", EventType: models.EventMeeting}
	u := UserRef{ID: uuid.New(), Username: "carol"}

	records := []MatrixRecord{
		{EventID: e1.ID, UserID: u.ID, IsAvailable: true, IsCheckedIn: true},
		{EventID: e2.ID, UserID: u.ID, IsAvailable: true, IsCheckedIn: false},
	}

	m := buildMatrix([]models.Event{e1, e2}, []UserRef{u}, records, nil)

	row := m.Rows[0].User
	if !almostEqual(row.AvailabilityRate, 100) {
		t.Errorf("availability rate = %v, want 100", row.AvailabilityRate)
	}
	if !almostEqual(row.AttendanceRate, 50) {
		t.Errorf("attendance rate = %v, want 50", row.AttendanceRate)
	}

	agg := m.AggregateStats
	if !almostEqual(agg.OverallAvailabilityRate, 100) {
		t.Errorf("overall availability = %v", agg.OverallAvailabilityRate)
	}
	if !almostEqual(agg.OverallAttendanceRate, 50) {
		t.Errorf("overall attendance = %v", agg.OverallAttendanceRate)
	}
	if !almostEqual(agg.AvgCheckedInPerEvent, 0.5) {
		t.Errorf("avg checked in per event = %v", agg.AvgCheckedInPerEvent)
	}
	if agg.MostAttendedEvent == nil || agg.MostAttendedEvent.Title != "A" {
		t.Errorf("most attended = %+v", agg.MostAttendedEvent)
	}
	if agg.LeastAttendedEvent == nil || agg.LeastAttendedEvent.Title != "B" {
		t.Errorf("least attended = %+v", agg.LeastAttendedEvent)
	}
}

func TestBuildMatrixTiesKeepUsernameOrder(t *testing.T) {
	e := models.Event{ID: uuid.New(), Title: "A", EventType: models.EventOther}
	users := []UserRef{
		{ID: uuid.New(), Username: "alice"},
		{ID: uuid.New(), Username: "bob"},
		{ID: uuid.New(), Username: "carol"},
	}

	// Nobody attended anything, so every rate ties at zero.
	m := buildMatrix([]models.Event{e}, users, nil, nil)

	for i, want := range []string{"alice", "bob", "carol"} {
		if m.Rows[i].User.Username != want {
			t.Errorf("row %d = %q, want %q", i, m.Rows[i].User.Username, want)
		}
	}
}

func TestBuildMatrixMostReliableCapped(t *testing.T) {
	e := models.Event{ID: uuid.New(), EventType: models.EventOther}
	var users []UserRef
	var records []MatrixRecord
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		u := UserRef{ID: uuid.New(), Username: name}
		users = append(users, u)
		records = append(records, MatrixRecord{
			EventID: e.ID, UserID: u.ID, IsAvailable: true, IsCheckedIn: true,
		})
	}

	m := buildMatrix([]models.Event{e}, users, records, nil)
	if len(m.AggregateStats.MostReliableUsers) != 5 {
		t.Errorf("most reliable = %d users, want 5", len(m.AggregateStats.MostReliableUsers))
	}
}

func TestBuildMatrixEmpty(t *testing.T) {
	m := buildMatrix(nil, nil, nil, nil)

	agg := m.AggregateStats
	if agg.TotalEvents != 0 || agg.TotalUsers != 0 {
		t.Errorf("totals = %d events, %d users", agg.TotalEvents, agg.TotalUsers)
	}
	if agg.OverallAttendanceRate != 0 || agg.AvgCheckedInPerEvent != 0 {
		t.Error("rates should be zero with no data")
	}
	if agg.MostAttendedEvent != nil || agg.LeastAttendedEvent != nil {
		t.Error("expected no most/least attended event")
	}
	if len(agg.MostReliableUsers) != 0 {
		t.Errorf("most reliable = %d, want 0", len(agg.MostReliableUsers))
	}
}
