// Podium - Competitive Debate Club Management Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/podium

package tabsvc

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/podium/internal/models"
)

func TestUniqueRanks(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name     string
		rankings []RankEntry
		want     bool
	}{
		{"empty", nil, true},
		{"single", []RankEntry{{TeamID: a, Rank: 1}}, true},
		{"distinct", []RankEntry{{TeamID: a, Rank: 1}, {TeamID: b, Rank: 2}, {TeamID: c, Rank: 3}}, true},
		{"tie", []RankEntry{{TeamID: a, Rank: 1}, {TeamID: b, Rank: 1}}, false},
		{"tie in middle", []RankEntry{{TeamID: a, Rank: 1}, {TeamID: b, Rank: 2}, {TeamID: c, Rank: 2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uniqueRanks(tt.rankings); got != tt.want {
				t.Errorf("uniqueRanks = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssignFinalRanks(t *testing.T) {
	t1, t2, t3, t4 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	teams := []models.MatchTeam{{ID: t1}, {ID: t2}, {ID: t3}, {ID: t4}}

	t.Run("all teams ranked", func(t *testing.T) {
		ranked := []TeamAvgRank{
			{TeamID: t3, AvgRank: 1.5},
			{TeamID: t1, AvgRank: 2.0},
			{TeamID: t4, AvgRank: 2.5},
			{TeamID: t2, AvgRank: 4.0},
		}
		final := assignFinalRanks(ranked, teams)
		want := map[uuid.UUID]int{t3: 1, t1: 2, t4: 3, t2: 4}
		for id, rank := range want {
			if final[id] != rank {
				t.Errorf("team %s rank = %d, want %d", id, final[id], rank)
			}
		}
	})

	t.Run("unranked teams share last slot", func(t *testing.T) {
		ranked := []TeamAvgRank{
			{TeamID: t2, AvgRank: 1.0},
			{TeamID: t1, AvgRank: 2.0},
		}
		final := assignFinalRanks(ranked, teams)
		if final[t2] != 1 || final[t1] != 2 {
			t.Errorf("ranked teams got %d, %d", final[t2], final[t1])
		}
		if final[t3] != 3 || final[t4] != 3 {
			t.Errorf("unranked teams got %d, %d, want 3 each", final[t3], final[t4])
		}
	})

	t.Run("no ballots yet", func(t *testing.T) {
		final := assignFinalRanks(nil, teams)
		for _, team := range teams {
			if final[team.ID] != 1 {
				t.Errorf("team rank = %d, want 1", final[team.ID])
			}
		}
	})
}

func TestIsDuplicateAllocation(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()
	pm := models.RolePrimeMinister
	dpm := models.RoleDeputyPrimeMinister

	withUser := func(id uuid.UUID, role models.AllocationRole, tts *models.TwoTeamSpeakerRole) models.AllocationWithUser {
		return models.AllocationWithUser{Allocation: models.Allocation{
			UserID:             &id,
			Role:               role,
			TwoTeamSpeakerRole: tts,
		}}
	}

	tests := []struct {
		name     string
		existing []models.AllocationWithUser
		params   CreateAllocationParams
		want     bool
	}{
		{
			"no existing allocations",
			nil,
			CreateAllocationParams{UserID: &userID, Role: models.RoleSpeaker, TwoTeamSpeakerRole: &pm},
			false,
		},
		{
			"guest never conflicts",
			[]models.AllocationWithUser{withUser(userID, models.RoleSpeaker, &pm)},
			CreateAllocationParams{GuestName: ptr("Guest"), Role: models.RoleSpeaker, TwoTeamSpeakerRole: &pm},
			false,
		},
		{
			"same speaker role conflicts",
			[]models.AllocationWithUser{withUser(userID, models.RoleSpeaker, &pm)},
			CreateAllocationParams{UserID: &userID, Role: models.RoleSpeaker, TwoTeamSpeakerRole: &pm},
			true,
		},
		{
			"different speaker role allowed",
			[]models.AllocationWithUser{withUser(userID, models.RoleSpeaker, &pm)},
			CreateAllocationParams{UserID: &userID, Role: models.RoleSpeaker, TwoTeamSpeakerRole: &dpm},
			false,
		},
		{
			"different user allowed",
			[]models.AllocationWithUser{withUser(otherID, models.RoleSpeaker, &pm)},
			CreateAllocationParams{UserID: &userID, Role: models.RoleSpeaker, TwoTeamSpeakerRole: &pm},
			false,
		},
		{
			"repeat adjudicator conflicts",
			[]models.AllocationWithUser{withUser(userID, models.RoleVotingAdjudicator, nil)},
			CreateAllocationParams{UserID: &userID, Role: models.RoleVotingAdjudicator},
			true,
		},
		{
			"speaker plus panel allowed",
			[]models.AllocationWithUser{withUser(userID, models.RoleSpeaker, &pm)},
			CreateAllocationParams{UserID: &userID, Role: models.RoleVotingAdjudicator},
			false,
		},
		{
			"repeat resource conflicts",
			[]models.AllocationWithUser{withUser(userID, models.RoleResource, nil)},
			CreateAllocationParams{UserID: &userID, Role: models.RoleResource},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicateAllocation(tt.existing, tt.params); got != tt.want {
				t.Errorf("isDuplicateAllocation = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSwapHistory(t *testing.T) {
	admin := uuid.New()
	teamA, teamB := uuid.New(), uuid.New()
	speaker := uuid.New()
	first := &models.Allocation{
		ID:      uuid.New(),
		MatchID: uuid.New(),
		UserID:  &speaker,
		Role:    models.RoleSpeaker,
		TeamID:  &teamA,
	}
	second := &models.Allocation{
		ID:        uuid.New(),
		MatchID:   first.MatchID,
		GuestName: ptr("Guest Judge"),
		Role:      models.RoleVotingAdjudicator,
		TeamID:    &teamB,
	}

	changes := swapHistory(first, second, admin)
	if len(changes) != 2 {
		t.Fatalf("len = %d, want 2", len(changes))
	}

	for i, tt := range []struct {
		own, other *models.Allocation
	}{
		{first, second},
		{second, first},
	} {
		c := changes[i]
		if c.Action != "swapped" {
			t.Errorf("entry %d action = %q", i, c.Action)
		}
		if *c.AllocationID != tt.own.ID {
			t.Errorf("entry %d allocation = %s, want %s", i, c.AllocationID, tt.own.ID)
		}
		if *c.PreviousRole != tt.own.Role || *c.NewRole != tt.other.Role {
			t.Errorf("entry %d roles = %s -> %s", i, *c.PreviousRole, *c.NewRole)
		}
		if *c.PreviousTeamID != *tt.own.TeamID || *c.NewTeamID != *tt.other.TeamID {
			t.Errorf("entry %d team transition wrong", i)
		}
		if c.ChangedBy != admin {
			t.Errorf("entry %d changed_by = %s", i, c.ChangedBy)
		}
		if c.Notes == nil || !strings.Contains(*c.Notes, tt.other.ID.String()) {
			t.Errorf("entry %d notes = %v, want mention of %s", i, c.Notes, tt.other.ID)
		}
	}
}

func ptr[T any](v T) *T { return &v }
