// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package attendsvc

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/models"
)

// CellStatus is one cell of the users-by-events attendance grid.
type CellStatus string

const (
	CellNoResponse CellStatus = "no_response"
	CellAvailable  CellStatus = "available"
	CellCheckedIn  CellStatus = "checked_in"
	CellUnavail    CellStatus = "unavailable"
)

// EventSummary is an event column header with its aggregates.
type EventSummary struct {
	ID             uuid.UUID        `json:"id"`
	Title          string           `json:"title"`
	EventType      models.EventType `json:"event_type"`
	EventDate      time.Time        `json:"event_date"`
	IsLocked       bool             `json:"is_locked"`
	TotalAvailable int64            `json:"total_available"`
	TotalCheckedIn int64            `json:"total_checked_in"`
}

// UserSummary is a user's attendance aggregates across all events.
type UserSummary struct {
	UserID           uuid.UUID `json:"user_id"`
	Username         string    `json:"username"`
	EventsAvailable  int64     `json:"events_available"`
	EventsCheckedIn  int64     `json:"events_checked_in"`
	TotalEvents      int64     `json:"total_events"`
	AvailabilityRate float64   `json:"availability_rate"`
	AttendanceRate   float64   `json:"attendance_rate"`
}

// MatrixRow is one user's row: summary plus a cell per event, in event order.
type MatrixRow struct {
	User  UserSummary  `json:"user"`
	Cells []CellStatus `json:"cells"`
}

// AggregateStats is the dashboard's headline numbers.
type AggregateStats struct {
	TotalEvents             int64           `json:"total_events"`
	TotalUsers              int64           `json:"total_users"`
	OverallAvailabilityRate float64         `json:"overall_availability_rate"`
	OverallAttendanceRate   float64         `json:"overall_attendance_rate"`
	AvgAvailablePerEvent    float64         `json:"avg_available_per_event"`
	AvgCheckedInPerEvent    float64         `json:"avg_checked_in_per_event"`
	MostAttendedEvent       *EventSummary   `json:"most_attended_event"`
	LeastAttendedEvent      *EventSummary   `json:"least_attended_event"`
	MostReliableUsers       []UserSummary   `json:"most_reliable_users"`
	EventsByType            []EventTypeStat `json:"events_by_type"`
}

// MatrixResponse is the full dashboard payload.
type MatrixResponse struct {
	Events         []EventSummary `json:"events"`
	Rows           []MatrixRow    `json:"rows"`
	AggregateStats AggregateStats `json:"aggregate_stats"`
}

type pairCounts struct {
	available int64
	checkedIn int64
}

// buildMatrix assembles the dense users-by-events grid with per-event,
// per-user, and aggregate statistics. Rows sort by attendance rate
// descending; ties keep username order because users arrive sorted.
func buildMatrix(events []models.Event, users []UserRef, records []MatrixRecord, typeStats []EventTypeStat) MatrixResponse {
	type cellKey struct{ eventID, userID uuid.UUID }
	cells := make(map[cellKey]MatrixRecord, len(records))
	eventStats := make(map[uuid.UUID]*pairCounts)
	userStats := make(map[uuid.UUID]*pairCounts)

	bump := func(m map[uuid.UUID]*pairCounts, id uuid.UUID, r MatrixRecord) {
		c := m[id]
		if c == nil {
			c = &pairCounts{}
			m[id] = c
		}
		if r.IsAvailable {
			c.available++
		}
		if r.IsCheckedIn {
			c.checkedIn++
		}
	}
	for _, r := range records {
		cells[cellKey{r.EventID, r.UserID}] = r
		bump(eventStats, r.EventID, r)
		bump(userStats, r.UserID, r)
	}

	totalEvents := int64(len(events))
	totalUsers := int64(len(users))

	eventSummaries := make([]EventSummary, 0, len(events))
	for _, e := range events {
		var available, checkedIn int64
		if c := eventStats[e.ID]; c != nil {
			available, checkedIn = c.available, c.checkedIn
		}
		eventSummaries = append(eventSummaries, EventSummary{
			ID:             e.ID,
			Title:          e.Title,
			EventType:      e.EventType,
			EventDate:      e.EventDate,
			IsLocked:       e.IsLocked,
			TotalAvailable: available,
			TotalCheckedIn: checkedIn,
		})
	}

	rows := make([]MatrixRow, 0, len(users))
	var totalAvailable, totalCheckedIn int64
	for _, u := range users {
		var available, checkedIn int64
		if c := userStats[u.ID]; c != nil {
			available, checkedIn = c.available, c.checkedIn
		}
		totalAvailable += available
		totalCheckedIn += checkedIn

		summary := UserSummary{
			UserID:          u.ID,
			Username:        u.Username,
			EventsAvailable: available,
			EventsCheckedIn: checkedIn,
			TotalEvents:     totalEvents,
		}
		if totalEvents > 0 {
			summary.AvailabilityRate = float64(available) / float64(totalEvents) * 100
			summary.AttendanceRate = float64(checkedIn) / float64(totalEvents) * 100
		}

		rowCells := make([]CellStatus, 0, len(events))
		for _, e := range events {
			r, ok := cells[cellKey{e.ID, u.ID}]
			switch {
			case !ok:
				rowCells = append(rowCells, CellNoResponse)
			case r.IsCheckedIn:
				rowCells = append(rowCells, CellCheckedIn)
			case r.IsAvailable:
				rowCells = append(rowCells, CellAvailable)
			default:
				rowCells = append(rowCells, CellUnavail)
			}
		}
		rows = append(rows, MatrixRow{User: summary, Cells: rowCells})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].User.AttendanceRate > rows[j].User.AttendanceRate
	})

	agg := AggregateStats{
		TotalEvents:       totalEvents,
		TotalUsers:        totalUsers,
		EventsByType:      typeStats,
		MostReliableUsers: []UserSummary{},
	}
	if possible := totalEvents * totalUsers; possible > 0 {
		agg.OverallAvailabilityRate = float64(totalAvailable) / float64(possible) * 100
		agg.OverallAttendanceRate = float64(totalCheckedIn) / float64(possible) * 100
	}
	if totalEvents > 0 {
		agg.AvgAvailablePerEvent = float64(totalAvailable) / float64(totalEvents)
		agg.AvgCheckedInPerEvent = float64(totalCheckedIn) / float64(totalEvents)
	}
	for i := range eventSummaries {
		e := &eventSummaries[i]
		if agg.MostAttendedEvent == nil || e.TotalCheckedIn > agg.MostAttendedEvent.TotalCheckedIn {
			agg.MostAttendedEvent = e
		}
		if agg.LeastAttendedEvent == nil || e.TotalCheckedIn < agg.LeastAttendedEvent.TotalCheckedIn {
			agg.LeastAttendedEvent = e
		}
	}
	for _, row := range rows {
		if len(agg.MostReliableUsers) == 5 {
			break
		}
		agg.MostReliableUsers = append(agg.MostReliableUsers, row.User)
	}

	return MatrixResponse{
		Events:         eventSummaries,
		Rows:           rows,
		AggregateStats: agg,
	}
}
